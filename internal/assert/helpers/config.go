package helpers

import (
	"time"

	"github.com/abdulateeb/Agentic-Chat/internal/config"
)

// NewTestConfig creates a valid configuration with short timeouts and
// placeholder endpoints for the model and tool services
func NewTestConfig() *config.Config {
	cfg := config.NewDefaultConfig()
	cfg.GeminiAPIKey = "test-key"
	cfg.GeminiBaseURL = "http://localhost:1"
	cfg.ToolExecutorURL = "http://localhost:1"
	cfg.APIHost = "127.0.0.1"
	cfg.LogLevel = "debug"
	cfg.ModelTimeout = 2 * time.Second
	cfg.ToolTimeout = 2 * time.Second
	cfg.SendTimeout = time.Second
	cfg.ShutdownTimeout = 2 * time.Second
	return cfg
}
