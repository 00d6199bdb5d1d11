// Package logging builds the slog loggers used by bgpscope.
// Console output goes to stderr so result listings on stdout stay clean.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Output formats
const (
	FormatJSON = "json"
	FormatText = "text"
)

// Config represents the logging configuration
type Config struct {
	Level      slog.Level
	Format     string
	FilePath   string
	MaxSize    int64 // MB
	MaxBackups int
	Console    bool

	// console overrides os.Stderr in tests
	console io.Writer
}

// DefaultConfig returns the default logging configuration
func DefaultConfig() *Config {
	return &Config{
		Level:      slog.LevelInfo,
		Format:     FormatJSON,
		MaxSize:    100,
		MaxBackups: 5,
		Console:    true,
	}
}

// ParseLevel converts a string log level to slog.Level
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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

// NewLogger creates a new logger with the given configuration.
// The returned closer releases the log file, if any.
func NewLogger(config Config) (*slog.Logger, io.Closer, error) {
	var writers []io.Writer
	var closer io.Closer = nopCloser{}

	if config.Console {
		writers = append(writers, config.consoleWriter())
	}

	if config.FilePath != "" {
		if err := os.MkdirAll(filepath.Dir(config.FilePath), 0750); err != nil {
			return nil, nil, err
		}

		fileWriter, err := NewRotatingFileWriter(config.FilePath, config.MaxSize*1024*1024, config.MaxBackups)
		if err != nil {
			return nil, nil, err
		}
		writers = append(writers, fileWriter)
		closer = fileWriter
	}

	if len(writers) == 0 {
		writers = append(writers, config.consoleWriter())
	}

	writer := writers[0]
	if len(writers) > 1 {
		writer = io.MultiWriter(writers...)
	}

	opts := &slog.HandlerOptions{Level: config.Level}

	var handler slog.Handler
	if strings.EqualFold(config.Format, FormatText) {
		handler = slog.NewTextHandler(writer, opts)
	} else {
		handler = slog.NewJSONHandler(writer, opts)
	}

	return slog.New(handler), closer, nil
}

// SetDefault creates a logger and installs it as the slog default
func SetDefault(config Config) (io.Closer, error) {
	logger, closer, err := NewLogger(config)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)
	return closer, nil
}

func (c Config) consoleWriter() io.Writer {
	if c.console != nil {
		return c.console
	}
	return os.Stderr
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
