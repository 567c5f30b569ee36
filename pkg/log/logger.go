package log

import (
	"io"
	"log/slog"
	"os"
)

// Levels maps configured level names to slog levels
var Levels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// New constructs a JSON slog.Logger preconfigured at info level
func New(service, env, version string) *slog.Logger {
	return NewWithLevel(service, env, version, slog.LevelInfo)
}

// NewWithLevel constructs a JSON slog.Logger at the provided level
func NewWithLevel(service, env, version string, lvl slog.Level) *slog.Logger {
	return NewWithWriter(os.Stdout, service, env, version, lvl)
}

// NewWithWriter constructs a JSON slog.Logger that writes to w
func NewWithWriter(
	w io.Writer, service, env, version string, lvl slog.Level,
) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: lvl,
	})

	return slog.New(handler).With(
		slog.String("service", service),
		slog.String("env", env),
		slog.String("version", version))
}

// ParseLevel returns the slog level for a configured name, falling back to
// info for unknown names
func ParseLevel(name string) slog.Level {
	if lvl, ok := Levels[name]; ok {
		return lvl
	}
	return slog.LevelInfo
}
