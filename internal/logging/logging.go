// Package logging provides the diagnostic logger behind --log-file.
package logging

import (
	"io"
	"log"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Config describes the rotating log file.
type Config struct {
	File       string `yaml:"file"`
	MaxSize    int    `yaml:"max_size"` // megabytes
	MaxBackups int    `yaml:"max_backups"`
	MaxAge     int    `yaml:"max_age"` // days
	Compress   bool   `yaml:"compress"`
}

// DefaultConfig returns the rotation limits used when only a file is given.
func DefaultConfig() Config {
	return Config{
		MaxSize:    10,
		MaxBackups: 3,
		MaxAge:     30,
		Compress:   true,
	}
}

// Logger is a log.Logger that may own a rotating file.
type Logger struct {
	*log.Logger
	file *lumberjack.Logger
}

// New returns a logger writing to the configured file, or one that
// discards everything when no file is set.
func New(cfg Config) *Logger {
	if cfg.File == "" {
		return &Logger{Logger: log.New(io.Discard, "", 0)}
	}

	file := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
	}

	return &Logger{
		Logger: log.New(file, "tcprtt ", log.LstdFlags|log.Lmicroseconds),
		file:   file,
	}
}

// Close closes the log file, if any.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}
