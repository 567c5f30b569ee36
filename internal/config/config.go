package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/abdulateeb/Agentic-Chat/internal/model"
	"github.com/abdulateeb/Agentic-Chat/internal/store"
	"github.com/abdulateeb/Agentic-Chat/pkg/log"
)

type (
	// Config holds configuration settings for the service
	Config struct {
		// API Server
		APIHost     string
		APIPort     int
		LogLevel    string
		Environment string
		CORSOrigins []string

		// Model & Tools
		GeminiAPIKey    string
		GeminiModel     string
		GeminiBaseURL   string
		ToolExecutorURL string

		// Store
		StoreBackend string
		Redis        store.RedisConfig
		Blob         store.BlobConfig

		// Timeouts
		ModelTimeout    time.Duration
		ToolTimeout     time.Duration
		SendTimeout     time.Duration
		ShutdownTimeout time.Duration
	}
)

const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"

	DefaultAPIPort = 8000
	DefaultAPIHost = "0.0.0.0"
	MaxTCPPort     = 65535

	DefaultLogLevel    = "info"
	DefaultEnvironment = EnvDevelopment
	DefaultCORSOrigin  = "*"

	DefaultModelTimeout    = 60 * time.Second
	DefaultToolTimeout     = 30 * time.Second
	DefaultSendTimeout     = 5 * time.Second
	DefaultShutdownTimeout = 10 * time.Second

	DefaultRedisEndpoint = "localhost:6379"
	DefaultRedisPrefix   = "agentic"
	DefaultRedisDB       = 0
	DefaultRedisTTL      = 24 * time.Hour
	MaxRedisDB           = 15

	DefaultBlobPrefix = "agentic"
)

var (
	ErrInvalidAPIPort      = errors.New("invalid API port")
	ErrInvalidEnvironment  = errors.New("invalid environment")
	ErrInvalidLogLevel     = errors.New("invalid log level")
	ErrMissingGeminiKey    = errors.New("GEMINI_API_KEY is required")
	ErrMissingToolExecutor = errors.New("TOOL_EXECUTOR_URL is required")
	ErrInvalidTimeout      = errors.New("timeout must be positive")
	ErrInvalidStore        = errors.New("invalid store backend")
	ErrMissingRedisAddr    = errors.New("redis address is required")
	ErrMissingBlobURL      = errors.New("blob bucket URL is required")
)

var environments = []string{EnvDevelopment, EnvStaging, EnvProduction}

// NewDefaultConfig creates a configuration with sensible defaults. The
// Gemini key and tool executor URL have no defaults and must be supplied
func NewDefaultConfig() *Config {
	return &Config{
		APIHost:       DefaultAPIHost,
		APIPort:       DefaultAPIPort,
		LogLevel:      DefaultLogLevel,
		Environment:   DefaultEnvironment,
		CORSOrigins:   []string{DefaultCORSOrigin},
		GeminiModel:   model.DefaultGeminiModel,
		GeminiBaseURL: model.DefaultGeminiBaseURL,
		StoreBackend:  store.BackendMemory,
		Redis: store.RedisConfig{
			Addr:   DefaultRedisEndpoint,
			Prefix: DefaultRedisPrefix,
			DB:     DefaultRedisDB,
			TTL:    DefaultRedisTTL,
		},
		Blob: store.BlobConfig{
			Prefix: DefaultBlobPrefix,
		},
		ModelTimeout:    DefaultModelTimeout,
		ToolTimeout:     DefaultToolTimeout,
		SendTimeout:     DefaultSendTimeout,
		ShutdownTimeout: DefaultShutdownTimeout,
	}
}

// LoadFromEnv populates configuration values from environment variables.
// Returns an error if any env var cannot be parsed
func (c *Config) LoadFromEnv() error {
	loadEnvString("API_HOST", &c.APIHost)
	loadEnvString("LOG_LEVEL", &c.LogLevel)
	loadEnvString("ENV", &c.Environment)
	loadEnvString("GEMINI_API_KEY", &c.GeminiAPIKey)
	loadEnvString("GEMINI_MODEL", &c.GeminiModel)
	loadEnvString("GEMINI_BASE_URL", &c.GeminiBaseURL)
	loadEnvString("TOOL_EXECUTOR_URL", &c.ToolExecutorURL)
	loadEnvString("STORE_BACKEND", &c.StoreBackend)
	loadEnvString("REDIS_ADDR", &c.Redis.Addr)
	loadEnvString("REDIS_PASSWORD", &c.Redis.Password)
	loadEnvString("REDIS_PREFIX", &c.Redis.Prefix)
	loadEnvString("BLOB_URL", &c.Blob.URL)
	loadEnvString("BLOB_PREFIX", &c.Blob.Prefix)

	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		c.CORSOrigins = splitList(origins)
	}

	if err := loadEnvInt("API_PORT", &c.APIPort, 0, MaxTCPPort); err != nil {
		return err
	}
	if err := loadEnvInt("REDIS_DB", &c.Redis.DB, -1, MaxRedisDB); err != nil {
		return err
	}

	durations := []struct {
		dst *time.Duration
		key string
	}{
		{&c.ModelTimeout, "MODEL_TIMEOUT"},
		{&c.ToolTimeout, "TOOL_TIMEOUT"},
		{&c.SendTimeout, "SEND_TIMEOUT"},
		{&c.ShutdownTimeout, "SHUTDOWN_TIMEOUT"},
		{&c.Redis.TTL, "REDIS_TTL"},
	}
	for _, d := range durations {
		if err := loadEnvDuration(d.key, d.dst); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	if c.APIPort <= 0 || c.APIPort > MaxTCPPort {
		return fmt.Errorf("%w: %d", ErrInvalidAPIPort, c.APIPort)
	}

	if !slices.Contains(environments, c.Environment) {
		return fmt.Errorf("%w: %s", ErrInvalidEnvironment, c.Environment)
	}

	if _, ok := log.Levels[strings.ToLower(c.LogLevel)]; !ok {
		return fmt.Errorf("%w: %s", ErrInvalidLogLevel, c.LogLevel)
	}

	if c.GeminiAPIKey == "" {
		return ErrMissingGeminiKey
	}

	if c.ToolExecutorURL == "" {
		return ErrMissingToolExecutor
	}

	if c.ModelTimeout <= 0 || c.ToolTimeout <= 0 || c.SendTimeout <= 0 ||
		c.ShutdownTimeout <= 0 {
		return ErrInvalidTimeout
	}

	switch c.StoreBackend {
	case store.BackendMemory:
	case store.BackendRedis:
		if c.Redis.Addr == "" {
			return ErrMissingRedisAddr
		}
	case store.BackendBlob:
		if c.Blob.URL == "" {
			return ErrMissingBlobURL
		}
	default:
		return fmt.Errorf("%w: %s", ErrInvalidStore, c.StoreBackend)
	}

	return nil
}

// GeminiConfig derives the model client settings
func (c *Config) GeminiConfig() model.GeminiConfig {
	return model.GeminiConfig{
		APIKey:  c.GeminiAPIKey,
		Model:   c.GeminiModel,
		BaseURL: c.GeminiBaseURL,
		Timeout: c.ModelTimeout,
	}
}

// StoreConfig derives the workflow store settings
func (c *Config) StoreConfig() store.Config {
	return store.Config{
		Backend: c.StoreBackend,
		Redis:   c.Redis,
		Blob:    c.Blob,
	}
}

// Addr returns the host:port the HTTP server listens on
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.APIHost, c.APIPort)
}

func loadEnvString(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// loadEnvInt reads key from the environment, parses it as an integer, and
// sets *dst if the value is in the range (min, max]. Returns an error if
// the value cannot be parsed or falls outside the valid range
func loadEnvInt[T ~int | ~int64](key string, dst *T, min, max T) error {
	s := os.Getenv(key)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid %s: %q", key, s)
	}
	tv := T(v)
	if tv <= min || tv > max {
		return fmt.Errorf("invalid %s: %d out of range [%d, %d]",
			key, tv, min+1, max)
	}
	*dst = tv
	return nil
}

func loadEnvDuration(key string, dst *time.Duration) error {
	s := os.Getenv(key)
	if s == "" {
		return nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid %s: %q", key, s)
	}
	*dst = d
	return nil
}

func splitList(s string) []string {
	var res []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			res = append(res, item)
		}
	}
	return res
}
