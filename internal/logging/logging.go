// Package logging configures the zerolog logger used throughout mailusage.
package logging

import (
	"fmt"
	"io"
	"strings"

	"github.com/natefinch/lumberjack"
	"github.com/rs/zerolog"
)

// Default log settings.
const (
	DefaultLevel      = "warn"
	DefaultMaxSize    = 10 // megabytes
	DefaultMaxBackups = 3
)

// Config configures the logger.
type Config struct {
	// Level is the minimum level (debug, info, warn, error).
	Level string `mapstructure:"level"`
	// File, if set, receives JSON log lines with rotation.
	File string `mapstructure:"file"`
	// MaxSize is the rotation size of File in megabytes.
	MaxSize int `mapstructure:"max_size_mb"`
	// MaxBackups is the number of rotated files kept.
	MaxBackups int `mapstructure:"max_backups"`
}

// New builds a logger writing human-friendly lines to console and, if
// configured, JSON lines to a rotated file. The returned closer releases
// the log file.
func New(cfg Config, console io.Writer, debug bool) (zerolog.Logger, io.Closer, error) {
	level := cfg.Level
	if level == "" {
		level = DefaultLevel
	}

	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return zerolog.Nop(), nopCloser{}, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	if debug {
		lvl = zerolog.DebugLevel
	}

	writers := []io.Writer{
		zerolog.NewConsoleWriter(func(w *zerolog.ConsoleWriter) {
			w.Out = console
			w.TimeFormat = "15:04:05"
		}),
	}

	var closer io.Closer = nopCloser{}

	if cfg.File != "" {
		lj := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    orDefault(cfg.MaxSize, DefaultMaxSize),
			MaxBackups: orDefault(cfg.MaxBackups, DefaultMaxBackups),
		}
		writers = append(writers, lj)
		closer = lj
	}

	ctx := zerolog.New(io.MultiWriter(writers...)).Level(lvl).With().Timestamp()
	if debug {
		ctx = ctx.Caller()
	}

	return ctx.Logger(), closer, nil
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}

	return v
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
