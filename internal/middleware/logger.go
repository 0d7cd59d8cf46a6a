package middleware

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

var levelNames = map[string]slog.Level{
	"debug":   slog.LevelDebug,
	"info":    slog.LevelInfo,
	"warn":    slog.LevelWarn,
	"warning": slog.LevelWarn,
	"error":   slog.LevelError,
}

// ParseLevel maps a LOG_LEVEL value to a slog level. Empty or unknown values
// yield fallback.
func ParseLevel(level string, fallback slog.Level) slog.Level {
	if lvl, ok := levelNames[strings.ToLower(strings.TrimSpace(level))]; ok {
		return lvl
	}
	return fallback
}

// NewLogger returns the process logger writing to stdout. Production emits
// JSON at info, every other environment human readable text at debug; level,
// when set, replaces that default.
func NewLogger(env, level string) *slog.Logger {
	return newLogger(os.Stdout, env, level)
}

func newLogger(out io.Writer, env, level string) *slog.Logger {
	if env == "production" {
		opts := &slog.HandlerOptions{Level: ParseLevel(level, slog.LevelInfo)}
		return slog.New(slog.NewJSONHandler(out, opts))
	}
	opts := &slog.HandlerOptions{Level: ParseLevel(level, slog.LevelDebug)}
	return slog.New(slog.NewTextHandler(out, opts))
}
