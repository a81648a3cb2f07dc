// Package logging builds phuslu/log loggers from configuration.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/phuslu/log"

	"github.com/Swind/go-osthread/config"
	"github.com/Swind/go-osthread/core"
)

// New creates a logger for cfg. Call Close on the returned logger's writer
// when done if it writes to a file or asynchronously.
func New(cfg config.LoggingConfig) (*log.Logger, error) {
	writer, err := NewWriter(cfg)
	if err != nil {
		return nil, err
	}
	return &log.Logger{
		Level:     ParseLevel(cfg.Level),
		TimeField: "time",
		Writer:    writer,
	}, nil
}

// NewCore is New wrapped as a core.Logger. The returned closer releases the writer.
func NewCore(cfg config.LoggingConfig) (core.Logger, io.Closer, error) {
	l, err := New(cfg)
	if err != nil {
		return nil, nil, err
	}
	return core.NewPhusluLogger(l), writerCloser{l.Writer}, nil
}

// ParseLevel converts a level name to log.Level. Unknown names mean info.
func ParseLevel(level string) log.Level {
	switch level {
	case "trace":
		return log.TraceLevel
	case "debug":
		return log.DebugLevel
	case "info":
		return log.InfoLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

// NewWriter creates the log.Writer described by cfg.
func NewWriter(cfg config.LoggingConfig) (log.Writer, error) {
	switch cfg.Output {
	case "", "stderr":
		return newStreamWriter(cfg, os.Stderr), nil
	case "stdout":
		return newStreamWriter(cfg, os.Stdout), nil
	default:
		return newFileWriter(cfg)
	}
}

func newStreamWriter(cfg config.LoggingConfig, out io.Writer) log.Writer {
	// Closing the logger must never close stdout or stderr.
	out = stream{out}

	var writer log.Writer
	switch cfg.Format {
	case "json":
		writer = &log.IOWriter{Writer: out}
	case "logfmt":
		writer = &log.ConsoleWriter{
			Writer:         out,
			QuoteString:    true,
			EndWithMessage: true,
			Formatter:      log.LogfmtFormatter{TimeField: "time"}.Formatter,
		}
	default:
		writer = &log.ConsoleWriter{
			Writer:         out,
			ColorOutput:    cfg.Color,
			QuoteString:    true,
			EndWithMessage: true,
		}
	}
	return withAsync(cfg, writer)
}

// newFileWriter writes JSON lines to a rotating file.
func newFileWriter(cfg config.LoggingConfig) (log.Writer, error) {
	dir := filepath.Dir(cfg.Output)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory %s: %w", dir, err)
	}

	maxSize := cfg.MaxSize
	if maxSize <= 0 {
		maxSize = 10
	}
	writer := &log.FileWriter{
		Filename:     cfg.Output,
		FileMode:     0644,
		MaxSize:      maxSize * 1024 * 1024,
		MaxBackups:   cfg.MaxBackups,
		EnsureFolder: true,
		LocalTime:    true,
	}
	return withAsync(cfg, writer), nil
}

func withAsync(cfg config.LoggingConfig, writer log.Writer) log.Writer {
	if !cfg.Async {
		return writer
	}
	return &log.AsyncWriter{
		ChannelSize: 4096,
		Writer:      writer,
	}
}

type stream struct {
	io.Writer
}

type writerCloser struct {
	w log.Writer
}

func (c writerCloser) Close() error {
	if closer, ok := c.w.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
