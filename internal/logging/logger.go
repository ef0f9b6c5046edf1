package logging

import (
	"log/slog"
	"os"
	"strings"
)

// NewLogger returns the process-wide slog logger: JSON to stdout with
// source locations, at the level named in config. Both binaries share it so
// dispatch and consumer logs land in one shape.
func NewLogger(level string) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:     levelFromString(level),
		AddSource: true,
	}
	handler := slog.NewJSONHandler(os.Stdout, opts)
	return slog.New(handler)
}

// levelFromString is forgiving about casing and the warn/warning spelling;
// anything unrecognized falls back to info.
func levelFromString(level string) slog.Leveler {
	switch strings.ToLower(strings.TrimSpace(level)) {
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
