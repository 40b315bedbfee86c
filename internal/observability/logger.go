// Package observability wires the process-wide structured logger.
// Everything downstream takes a *slog.Logger; there is no global state
// beyond what callers install themselves.
package observability

import (
	"log/slog"
	"os"

	"github.com/tablecraft/integration-hub/internal/infrastructure/config"
)

// NewLogger builds a slog.Logger from the logging config. Format "json"
// is what deployments ship to the log pipeline; anything else falls back
// to the text handler for local runs.
func NewLogger(cfg config.LoggingConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.New(handler)
}

// parseLevel maps the config string to a slog level, defaulting to info
// for anything unrecognized.
func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
