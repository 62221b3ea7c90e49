// Package logging builds the slog handlers the registry binaries share:
// tinted human-readable output for terminals, JSON for machine collection.
package logging

import (
	"io"
	"log/slog"

	"github.com/lmittmann/tint"
)

// ParseLevel maps a config string onto a slog level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New builds a logger for the given format ("text" or "json") and level
// string writing to out.
func New(out io.Writer, format, level string) *slog.Logger {
	lvl := ParseLevel(level)
	if format == "json" {
		return slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: lvl}))
	}
	return slog.New(tint.NewHandler(out, &tint.Options{Level: lvl}))
}
