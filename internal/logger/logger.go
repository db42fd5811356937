package logger

import (
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/bhanuka-viraj/nexsplit/internal/config"
	"github.com/lmittmann/tint"
)

// NewLogger creates and configures a new slog.Logger.
// Production uses a JSON handler; development gets colored output via tint.
func NewLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Logging.Level) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	var handler slog.Handler
	if cfg.Application.Env == "development" {
		handler = tint.NewHandler(os.Stderr, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
			AddSource:  level == slog.LevelDebug,
		})
	} else {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
			// Add source code location to log output
			AddSource: level == slog.LevelDebug,
		})
	}

	logger := slog.New(handler)
	logger.Info("logger initialized", "level", level, "env", cfg.Application.Env)

	return logger
}
