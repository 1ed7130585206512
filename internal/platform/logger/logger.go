// Package logger provides structured logging setup for the application.
package logger

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	slogmulti "github.com/samber/slog-multi"

	"github.com/yunhanz/storymap-api/internal/config"
)

// Setup initializes the application's logging based on the provided
// configuration. It creates a JSON logger at the configured level writing to
// stderr, optionally fanned out to a log file, and installs it as the default
// logger so slog package functions can be used directly.
func Setup(cfg config.ServerConfig) (*slog.Logger, error) {
	var level slog.Level
	switch strings.ToLower(cfg.LogLevel) {
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
		tmp := slog.New(slog.NewTextHandler(os.Stderr, nil))
		tmp.Warn("invalid log level configured, using default level",
			"configured_level", cfg.LogLevel,
			"default_level", "info")
	}

	opts := &slog.HandlerOptions{Level: level}
	stderrHandler := slog.NewJSONHandler(os.Stderr, opts)

	var logger *slog.Logger
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file %s: %w", cfg.LogFile, err)
		}
		fileHandler := slog.NewJSONHandler(f, opts)
		logger = slog.New(slogmulti.Fanout(stderrHandler, fileHandler))
	} else {
		logger = slog.New(stderrHandler)
	}

	slog.SetDefault(logger)
	return logger, nil
}
