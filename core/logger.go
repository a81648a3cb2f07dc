package core

import (
	"os"

	"github.com/phuslu/log"
)

// Logger interface for structured logging
// Implementations can provide custom logging behavior (e.g., integration with logrus, zap, etc.)
type Logger interface {
	// Debug logs a debug message with optional fields
	Debug(msg string, fields ...Field)

	// Info logs an info message with optional fields
	Info(msg string, fields ...Field)

	// Warn logs a warning message with optional fields
	Warn(msg string, fields ...Field)

	// Error logs an error message with optional fields
	Error(msg string, fields ...Field)
}

// Field represents a key-value pair for structured logging
type Field struct {
	Key   string
	Value any
}

// F creates a new Field with the given key and value
func F(key string, value any) Field {
	return Field{Key: key, Value: value}
}

// DefaultLogger writes structured entries through a phuslu/log Logger
type DefaultLogger struct {
	logger *log.Logger
}

// NewDefaultLogger creates a DefaultLogger writing info and above to stderr
func NewDefaultLogger() *DefaultLogger {
	return NewPhusluLogger(&log.Logger{
		Level: log.InfoLevel,
		Writer: &log.ConsoleWriter{
			Writer:         os.Stderr,
			EndWithMessage: true,
		},
	})
}

// NewPhusluLogger wraps an already configured phuslu/log Logger
func NewPhusluLogger(l *log.Logger) *DefaultLogger {
	return &DefaultLogger{logger: l}
}

// Debug logs a debug message
func (l *DefaultLogger) Debug(msg string, fields ...Field) {
	write(l.logger.Debug(), msg, fields)
}

// Info logs an info message
func (l *DefaultLogger) Info(msg string, fields ...Field) {
	write(l.logger.Info(), msg, fields)
}

// Warn logs a warning message
func (l *DefaultLogger) Warn(msg string, fields ...Field) {
	write(l.logger.Warn(), msg, fields)
}

// Error logs an error message
func (l *DefaultLogger) Error(msg string, fields ...Field) {
	write(l.logger.Error(), msg, fields)
}

// write appends fields to the entry and emits it.
// A nil entry means the level is disabled.
func write(e *log.Entry, msg string, fields []Field) {
	if e == nil {
		return
	}
	for _, f := range fields {
		if err, ok := f.Value.(error); ok {
			e = e.Str(f.Key, err.Error())
			continue
		}
		e = e.Any(f.Key, f.Value)
	}
	e.Msg(msg)
}

// NoOpLogger is a logger that discards all log messages
// Useful for tests or when logging is not desired
type NoOpLogger struct{}

// NewNoOpLogger creates a new NoOpLogger
func NewNoOpLogger() *NoOpLogger {
	return &NoOpLogger{}
}

func (l *NoOpLogger) Debug(msg string, fields ...Field) {}
func (l *NoOpLogger) Info(msg string, fields ...Field)  {}
func (l *NoOpLogger) Warn(msg string, fields ...Field)  {}
func (l *NoOpLogger) Error(msg string, fields ...Field) {}
