package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/phuslu/log"

	"github.com/Swind/go-osthread/config"
	"github.com/Swind/go-osthread/core"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]log.Level{
		"trace":   log.TraceLevel,
		"debug":   log.DebugLevel,
		"info":    log.InfoLevel,
		"warn":    log.WarnLevel,
		"warning": log.WarnLevel,
		"error":   log.ErrorLevel,
		"bogus":   log.InfoLevel,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

// TestStreamWriter_JSON tests structured output through core.Logger
// Main test items:
// 1. Fields are written as JSON keys, errors as strings
// 2. Entries below the level are dropped
func TestStreamWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	cfg := config.LoggingConfig{Level: "info", Format: "json"}
	l := core.NewPhusluLogger(&log.Logger{
		Level:  ParseLevel(cfg.Level),
		Writer: newStreamWriter(cfg, &buf),
	})

	l.Debug("hidden")
	l.Info("thread started", core.F("thread", "#1"), core.F("error", errors.New("boom")))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1: %q", len(lines), buf.String())
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if entry["message"] != "thread started" || entry["thread"] != "#1" || entry["error"] != "boom" {
		t.Errorf("entry = %v", entry)
	}
}

func TestStreamWriter_Console(t *testing.T) {
	for _, format := range []string{"console", "logfmt"} {
		t.Run(format, func(t *testing.T) {
			var buf bytes.Buffer
			cfg := config.LoggingConfig{Level: "debug", Format: format}
			l := core.NewPhusluLogger(&log.Logger{
				Level:  ParseLevel(cfg.Level),
				Writer: newStreamWriter(cfg, &buf),
			})

			l.Warn("priority not applied", core.F("thread", "worker"))

			out := buf.String()
			if !strings.Contains(out, "priority not applied") || !strings.Contains(out, "worker") {
				t.Errorf("output %q lacks message or field", out)
			}
		})
	}
}

func TestNewCore_File(t *testing.T) {
	dir := t.TempDir()
	cfg := config.DefaultConfig().Logging
	cfg.Output = filepath.Join(dir, "logs", "osthread.log")

	l, closer, err := NewCore(cfg)
	if err != nil {
		t.Fatalf("NewCore failed: %v", err)
	}
	l.Info("written to file", core.F("id", 7))
	if err := closer.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	matches, err := filepath.Glob(filepath.Join(dir, "logs", "osthread*.log"))
	if err != nil || len(matches) == 0 {
		t.Fatalf("no log file created (err=%v)", err)
	}
	found := false
	for _, m := range matches {
		data, err := os.ReadFile(m)
		if err == nil && strings.Contains(string(data), "written to file") {
			found = true
		}
	}
	if !found {
		t.Error("log message not found in log files")
	}
}

func TestNewCore_AsyncStderr(t *testing.T) {
	cfg := config.DefaultConfig().Logging
	cfg.Async = true
	cfg.Level = "error"

	l, closer, err := NewCore(cfg)
	if err != nil {
		t.Fatalf("NewCore failed: %v", err)
	}
	l.Info("not shown")
	if err := closer.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
}
