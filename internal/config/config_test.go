package config_test

import (
	"testing"
	"time"

	testify "github.com/stretchr/testify/assert"

	"github.com/abdulateeb/Agentic-Chat/internal/assert"
	"github.com/abdulateeb/Agentic-Chat/internal/assert/helpers"
	"github.com/abdulateeb/Agentic-Chat/internal/config"
	"github.com/abdulateeb/Agentic-Chat/internal/model"
	"github.com/abdulateeb/Agentic-Chat/internal/store"
)

func TestConfigValidation(t *testing.T) {
	as := assert.New(t)

	t.Run("valid_test_config", func(t *testing.T) {
		cfg := helpers.NewTestConfig()
		as.ConfigValid(cfg)
	})

	t.Run("default_requires_secrets", func(t *testing.T) {
		cfg := config.NewDefaultConfig()
		testify.ErrorIs(t, cfg.Validate(), config.ErrMissingGeminiKey)
	})

	tests := []struct {
		name          string
		configMod     func(*config.Config)
		errorContains string
	}{
		{
			name:          "invalid_api_port_zero",
			configMod:     func(c *config.Config) { c.APIPort = 0 },
			errorContains: "invalid API port",
		},
		{
			name:          "invalid_api_port_too_high",
			configMod:     func(c *config.Config) { c.APIPort = 70000 },
			errorContains: "invalid API port",
		},
		{
			name:          "invalid_environment",
			configMod:     func(c *config.Config) { c.Environment = "qa" },
			errorContains: "invalid environment",
		},
		{
			name:          "invalid_log_level",
			configMod:     func(c *config.Config) { c.LogLevel = "loud" },
			errorContains: "invalid log level",
		},
		{
			name:          "missing_tool_executor",
			configMod:     func(c *config.Config) { c.ToolExecutorURL = "" },
			errorContains: "TOOL_EXECUTOR_URL",
		},
		{
			name:          "zero_model_timeout",
			configMod:     func(c *config.Config) { c.ModelTimeout = 0 },
			errorContains: "timeout must be positive",
		},
		{
			name:          "negative_send_timeout",
			configMod:     func(c *config.Config) { c.SendTimeout = -1 },
			errorContains: "timeout must be positive",
		},
		{
			name:          "unknown_store",
			configMod:     func(c *config.Config) { c.StoreBackend = "bolt" },
			errorContains: "invalid store backend",
		},
		{
			name: "redis_without_addr",
			configMod: func(c *config.Config) {
				c.StoreBackend = store.BackendRedis
				c.Redis.Addr = ""
			},
			errorContains: "redis address is required",
		},
		{
			name: "blob_without_url",
			configMod: func(c *config.Config) {
				c.StoreBackend = store.BackendBlob
				c.Blob.URL = ""
			},
			errorContains: "blob bucket URL is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := helpers.NewTestConfig()
			tt.configMod(cfg)
			assert.New(t).ConfigInvalid(cfg, tt.errorContains)
		})
	}
}

func TestDefaultConfigValues(t *testing.T) {
	as := testify.New(t)

	cfg := config.NewDefaultConfig()

	as.Equal(config.DefaultAPIPort, cfg.APIPort)
	as.Equal("0.0.0.0", cfg.APIHost)
	as.Equal("info", cfg.LogLevel)
	as.Equal(config.EnvDevelopment, cfg.Environment)
	as.Equal([]string{"*"}, cfg.CORSOrigins)
	as.Equal(model.DefaultGeminiModel, cfg.GeminiModel)
	as.Equal(store.BackendMemory, cfg.StoreBackend)
	as.Equal(config.DefaultRedisPrefix, cfg.Redis.Prefix)
	as.Equal(config.DefaultRedisTTL, cfg.Redis.TTL)
	as.Equal(config.DefaultBlobPrefix, cfg.Blob.Prefix)
	as.Empty(cfg.Blob.URL)
	as.Equal(config.DefaultModelTimeout, cfg.ModelTimeout)
	as.Equal(config.DefaultToolTimeout, cfg.ToolTimeout)
	as.Equal(config.DefaultSendTimeout, cfg.SendTimeout)
	as.Equal(config.DefaultShutdownTimeout, cfg.ShutdownTimeout)
	as.Empty(cfg.GeminiAPIKey)
	as.Empty(cfg.ToolExecutorURL)
}

func TestLoadFromEnv(t *testing.T) {
	as := testify.New(t)

	t.Setenv("API_HOST", "127.0.0.1")
	t.Setenv("API_PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("ENV", "production")
	t.Setenv("CORS_ORIGINS", "http://a.local, http://b.local,,")
	t.Setenv("GEMINI_API_KEY", "secret")
	t.Setenv("GEMINI_MODEL", "gemini-pro")
	t.Setenv("GEMINI_BASE_URL", "http://gemini.local")
	t.Setenv("TOOL_EXECUTOR_URL", "http://tools.local")
	t.Setenv("MODEL_TIMEOUT", "45s")
	t.Setenv("TOOL_TIMEOUT", "5s")
	t.Setenv("SEND_TIMEOUT", "750ms")
	t.Setenv("SHUTDOWN_TIMEOUT", "1m")
	t.Setenv("STORE_BACKEND", "redis")
	t.Setenv("REDIS_ADDR", "redis.local:6380")
	t.Setenv("REDIS_PASSWORD", "pw")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("REDIS_PREFIX", "custom")
	t.Setenv("REDIS_TTL", "2h")

	cfg := config.NewDefaultConfig()
	as.NoError(cfg.LoadFromEnv())
	as.NoError(cfg.Validate())

	as.Equal("127.0.0.1", cfg.APIHost)
	as.Equal(9090, cfg.APIPort)
	as.Equal("127.0.0.1:9090", cfg.Addr())
	as.Equal("debug", cfg.LogLevel)
	as.Equal(config.EnvProduction, cfg.Environment)
	as.Equal([]string{"http://a.local", "http://b.local"}, cfg.CORSOrigins)
	as.Equal(45*time.Second, cfg.ModelTimeout)
	as.Equal(5*time.Second, cfg.ToolTimeout)
	as.Equal(750*time.Millisecond, cfg.SendTimeout)
	as.Equal(time.Minute, cfg.ShutdownTimeout)
	as.Equal(store.RedisConfig{
		Addr:     "redis.local:6380",
		Password: "pw",
		Prefix:   "custom",
		DB:       3,
		TTL:      2 * time.Hour,
	}, cfg.Redis)
	as.Equal(store.BackendRedis, cfg.StoreBackend)

	gc := cfg.GeminiConfig()
	as.Equal("secret", gc.APIKey)
	as.Equal("gemini-pro", gc.Model)
	as.Equal("http://gemini.local", gc.BaseURL)
	as.Equal(45*time.Second, gc.Timeout)
}

func TestLoadBlobFromEnv(t *testing.T) {
	as := testify.New(t)

	t.Setenv("GEMINI_API_KEY", "secret")
	t.Setenv("TOOL_EXECUTOR_URL", "http://tools.local")
	t.Setenv("STORE_BACKEND", "blob")
	t.Setenv("BLOB_URL", "s3://workflows?region=us-east-1")
	t.Setenv("BLOB_PREFIX", "prod")

	cfg := config.NewDefaultConfig()
	as.NoError(cfg.LoadFromEnv())
	as.NoError(cfg.Validate())

	as.Equal(store.Config{
		Backend: store.BackendBlob,
		Redis:   cfg.Redis,
		Blob: store.BlobConfig{
			URL:    "s3://workflows?region=us-east-1",
			Prefix: "prod",
		},
	}, cfg.StoreConfig())
}

func TestLoadFromEnvErrors(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"port_not_number", "API_PORT", "abc"},
		{"port_out_of_range", "API_PORT", "70000"},
		{"port_zero", "API_PORT", "0"},
		{"redis_db_out_of_range", "REDIS_DB", "16"},
		{"bad_duration", "MODEL_TIMEOUT", "soon"},
		{"bad_ttl", "REDIS_TTL", "10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			cfg := config.NewDefaultConfig()
			err := cfg.LoadFromEnv()
			testify.Error(t, err)
			testify.Contains(t, err.Error(), tt.key)
		})
	}
}

func TestLoadFromEnvKeepsDefaults(t *testing.T) {
	t.Setenv("API_PORT", "")
	t.Setenv("REDIS_DB", "0")

	cfg := config.NewDefaultConfig()
	testify.NoError(t, cfg.LoadFromEnv())
	testify.Equal(t, config.DefaultAPIPort, cfg.APIPort)
	testify.Equal(t, 0, cfg.Redis.DB)
}
