// Package logging builds the structured logger the pipeline stages log to.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/toyz/knockoff/internal/config"
)

const (
	FormatJSON = "json"
	FormatText = "text"
)

// New builds the logger described by cfg. Records go to a rotating file when
// cfg.File is set and to stderr otherwise. The returned func closes the file.
func New(cfg config.Logging) (*slog.Logger, func() error) {
	if cfg.File == "" {
		return NewWithWriter(cfg, os.Stderr), func() error { return nil }
	}

	if dir := filepath.Dir(cfg.File); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			logger := NewWithWriter(cfg, os.Stderr)
			logger.Warn("cannot create log directory, logging to stderr", "dir", dir, "error", err)
			return logger, func() error { return nil }
		}
	}

	w := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSize, // MB
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge, // days
		Compress:   cfg.Compress,
	}
	return NewWithWriter(cfg, w), w.Close
}

// NewWithWriter builds the logger described by cfg writing to w
func NewWithWriter(cfg config.Logging, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}

	var handler slog.Handler
	switch cfg.Format {
	case FormatJSON:
		handler = slog.NewJSONHandler(w, opts)
	default:
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// ParseLevel maps debug, info, warn and error to their slog level; anything else is info
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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
