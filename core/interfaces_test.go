package core

import (
	"bytes"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/phuslu/log"
)

// =============================================================================
// Test Logger
// =============================================================================

// captureLogger records messages for assertions
type captureLogger struct {
	mu       sync.Mutex
	messages []string
	fields   [][]Field
}

func (l *captureLogger) record(level, msg string, fields []Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, level+": "+msg)
	l.fields = append(l.fields, fields)
}

func (l *captureLogger) Debug(msg string, fields ...Field) { l.record("debug", msg, fields) }
func (l *captureLogger) Info(msg string, fields ...Field)  { l.record("info", msg, fields) }
func (l *captureLogger) Warn(msg string, fields ...Field)  { l.record("warn", msg, fields) }
func (l *captureLogger) Error(msg string, fields ...Field) { l.record("error", msg, fields) }

func (l *captureLogger) contains(msg string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, m := range l.messages {
		if m == msg {
			return true
		}
	}
	return false
}

// TestLoggingPanicHandler tests that recovered panics are logged
// Main test items:
// 1. The handler logs at error level with thread name and stack
// 2. The thread still finishes
func TestLoggingPanicHandler(t *testing.T) {
	logger := &captureLogger{}
	rt := newTestRuntime(&RuntimeConfig{
		Logger:       logger,
		PanicHandler: &LoggingPanicHandler{Logger: logger},
	})
	th := rt.NewNamedThread("crasher")

	if err := th.StartFunc(func() { panic(errors.New("kaboom")) }); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := th.Join(); err != nil {
		t.Fatalf("Join failed: %v", err)
	}

	if !logger.contains("error: thread panicked") {
		t.Fatalf("messages = %v", logger.messages)
	}
	found := false
	for i, m := range logger.messages {
		if m != "error: thread panicked" {
			continue
		}
		for _, f := range logger.fields[i] {
			if f.Key == "thread" && f.Value == "crasher" {
				found = true
			}
		}
	}
	if !found {
		t.Error("panic log lacks the thread name")
	}
	if !logger.contains("debug: thread finished") {
		t.Error("thread did not report finishing")
	}
}

func TestNilMetrics(t *testing.T) {
	m := &NilMetrics{}

	// All calls should be no-ops and not panic
	m.RecordThreadStarted(PriorityNormal)
	m.RecordThreadFinished(PriorityHigh, time.Second, true)
	m.RecordSpawnFailure("backend")
	m.RecordPriorityRejected(PriorityHighest)
	m.RecordJoinTimeout()
}

func TestDefaultRuntimeConfig(t *testing.T) {
	cfg := DefaultRuntimeConfig()

	if cfg.Backend == nil || cfg.Logger == nil || cfg.Metrics == nil {
		t.Fatalf("default config has nil handlers: %+v", cfg)
	}
	if cfg.PanicHandler != nil {
		t.Error("default config should not recover panics")
	}
	if cfg.NamePrefix != DefaultNamePrefix {
		t.Errorf("NamePrefix = %q, want %q", cfg.NamePrefix, DefaultNamePrefix)
	}
	if cfg.DefaultPriority != PriorityNormal {
		t.Errorf("DefaultPriority = %v, want normal", cfg.DefaultPriority)
	}
}

func TestNewRuntime_NilConfig(t *testing.T) {
	rt := NewRuntime(nil)
	if rt.Logger() == nil {
		t.Fatal("runtime without config has no logger")
	}
	if !strings.HasPrefix(rt.NewThread().Name(), DefaultNamePrefix) {
		t.Error("runtime without config does not use the default prefix")
	}
}

// TestDefaultLogger_Fields tests the phuslu-backed logger
// Main test items:
// 1. Fields and error values are written
// 2. Debug entries are dropped at info level
func TestDefaultLogger_Fields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewPhusluLogger(&log.Logger{
		Level:  log.InfoLevel,
		Writer: &log.IOWriter{Writer: &buf},
	})

	logger.Debug("invisible")
	logger.Warn("spawn failed", F("thread", "#9"), F("error", ErrThreadLimit))

	out := buf.String()
	if strings.Contains(out, "invisible") {
		t.Error("debug entry written at info level")
	}
	for _, want := range []string{"spawn failed", `"thread":"#9"`, ErrThreadLimit.Error()} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q lacks %q", out, want)
		}
	}
}

func TestNoOpLogger(t *testing.T) {
	logger := NewNoOpLogger()
	logger.Debug("debug", F("k", 1))
	logger.Info("info")
	logger.Warn("warn")
	logger.Error("error")
}

func TestSpawnError(t *testing.T) {
	err := error(&SpawnError{Thread: "io", Err: ErrThreadLimit})

	if !errors.Is(err, ErrThreadLimit) {
		t.Error("SpawnError does not unwrap to its cause")
	}
	if !strings.Contains(err.Error(), `"io"`) {
		t.Errorf("Error() = %q lacks thread name", err.Error())
	}
}
