// Package logger exposes the process-wide structured logger. It is built
// once, at package init, from config.Conf.LogLevel, and wraps
// github.com/dusted-go/logging the way the rest of this codebase expects:
// a package-level Log with slog-style level methods.
package logger

import (
	"log/slog"
	"strings"

	"github.com/dusted-go/logging/prettylog"

	"github.com/harmonyhub/sync-backend/config"
)

// Log is the process-wide structured logger. Every component in this
// module logs through it rather than constructing its own handler.
var Log *slog.Logger

func init() {
	Log = slog.New(prettylog.NewHandler(&slog.HandlerOptions{Level: parseLevel(config.Conf.LogLevel)}))
}

func parseLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
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
