package logger

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	lj "gopkg.in/natefinch/lumberjack.v2"
)

// Default rotation parameters for the orchestrator's own log file.
const (
	DefaultMaxSizeMB  = 10 // MB
	DefaultMaxBackups = 3  // number of backup files
	DefaultMaxAgeDays = 7  // days
)

// Config describes the orchestrator's diagnostic log destination.
// If Path is empty and Dir is set, the file will be Dir/devstack.log.
// Rotation parameters follow lumberjack semantics.
type Config struct {
	Dir        string `mapstructure:"dir"`          // base directory for the log file
	Path       string `mapstructure:"path"`         // explicit path overrides Dir
	Level      string `mapstructure:"level"`        // debug, info, warn, error (default info)
	MaxSizeMB  int    `mapstructure:"max_size_mb"`  // megabytes before rotation (default 10)
	MaxBackups int    `mapstructure:"max_backups"`  // number of backups to keep (default 3)
	MaxAgeDays int    `mapstructure:"max_age_days"` // days to keep (default 7)
	Compress   bool   `mapstructure:"compress"`     // gzip rotated files
}

// Writer returns a rotating io.WriteCloser for the configured log file,
// or nil when no destination is configured.
func (c Config) Writer() io.WriteCloser {
	path := c.Path
	if path == "" && c.Dir != "" {
		path = filepath.Join(c.Dir, "devstack.log")
	}
	if path == "" {
		return nil
	}
	return &lj.Logger{
		Filename:   path,
		MaxSize:    valOr(c.MaxSizeMB, DefaultMaxSizeMB),
		MaxBackups: valOr(c.MaxBackups, DefaultMaxBackups),
		MaxAge:     valOr(c.MaxAgeDays, DefaultMaxAgeDays),
		Compress:   c.Compress,
	}
}

// New builds a slog.Logger that writes colored text to stderr and, when a
// file destination is configured, mirrors records to the rotating file.
func New(c Config) *slog.Logger {
	level := parseLevel(c.Level)
	console := NewColorTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	if w := c.Writer(); w != nil {
		file := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
		return slog.New(multiHandler{console, file})
	}
	return slog.New(console)
}

func parseLevel(s string) slog.Level {
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

func valOr(v int, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
