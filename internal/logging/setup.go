// Package logging configures zerolog for previewgate and carries
// request-scoped loggers through context.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config controls log level, format and the optional rotated log file.
type Config struct {
	Level  string
	Format string // "console" or "json"
	File   FileConfig
}

// FileConfig configures lumberjack rotation.
type FileConfig struct {
	Enabled    bool
	Path       string
	MaxSize    int // megabytes
	MaxBackups int
	MaxAge     int // days
	Compress   bool
}

// New builds a logger from cfg writing to stderr and, when enabled, a rotated
// file. The returned cleanup closes the file writer and is never nil.
func New(cfg Config) (zerolog.Logger, func(), error) {
	return newWithOutput(cfg, os.Stderr)
}

func newWithOutput(cfg Config, stderr io.Writer) (zerolog.Logger, func(), error) {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	var console io.Writer = stderr
	if cfg.Format != "json" {
		console = zerolog.ConsoleWriter{Out: stderr, TimeFormat: time.RFC3339}
	}

	cleanup := func() {}
	out := console

	if cfg.File.Enabled {
		if cfg.File.Path == "" {
			return zerolog.Nop(), cleanup, fmt.Errorf("log file enabled without a path")
		}
		// Owner-only permissions on the log directory.
		if err := os.MkdirAll(filepath.Dir(cfg.File.Path), 0700); err != nil {
			return zerolog.Nop(), cleanup, fmt.Errorf("failed to create log directory: %w", err)
		}
		fileWriter := &lumberjack.Logger{
			Filename:   cfg.File.Path,
			MaxSize:    cfg.File.MaxSize,
			MaxBackups: cfg.File.MaxBackups,
			MaxAge:     cfg.File.MaxAge,
			Compress:   cfg.File.Compress,
		}
		out = zerolog.MultiLevelWriter(console, fileWriter)
		cleanup = func() { _ = fileWriter.Close() }
	}

	logger := zerolog.New(out).Level(level).With().Timestamp().Logger()
	return logger, cleanup, nil
}
