package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func readLines(t *testing.T, path string) []string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	trimmed := strings.TrimSpace(string(content))
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "\n")
}

func TestNewLogger(t *testing.T) {
	t.Run("creates log file in log directory", func(t *testing.T) {
		dir := t.TempDir()

		logger, err := NewLogger(dir, LevelDebug)
		if err != nil {
			t.Fatalf("NewLogger failed: %v", err)
		}
		defer logger.Close()

		logPath := filepath.Join(dir, FileName)
		if _, err := os.Stat(logPath); os.IsNotExist(err) {
			t.Errorf("log file was not created at %s", logPath)
		}
	})

	t.Run("writes to stderr when logDir is empty", func(t *testing.T) {
		logger, err := NewLogger("", LevelInfo)
		if err != nil {
			t.Fatalf("NewLogger failed: %v", err)
		}
		defer logger.Close()

		if logger.file != nil {
			t.Error("expected file to be nil when logDir is empty")
		}
	})
}

func TestLogLevels(t *testing.T) {
	dir := t.TempDir()

	logger, err := NewLogger(dir, LevelDebug)
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}

	logger.Debug("debug message", "key", "value")
	logger.Info("info message", "key", "value")
	logger.Warn("warn message", "key", "value")
	logger.Error("error message", "key", "value")
	logger.Close()

	lines := readLines(t, filepath.Join(dir, FileName))
	if len(lines) != 4 {
		t.Fatalf("expected 4 log lines, got %d", len(lines))
	}

	expectedLevels := []string{"DEBUG", "INFO", "WARN", "ERROR"}
	for i, line := range lines {
		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Errorf("line %d is not valid JSON: %v", i, err)
			continue
		}
		if entry["level"] != expectedLevels[i] {
			t.Errorf("line %d: expected level %s, got %v", i, expectedLevels[i], entry["level"])
		}
		if entry["key"] != "value" {
			t.Errorf("line %d: expected key=value, got key=%v", i, entry["key"])
		}
	}
}

func TestLogLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriterLogger(&buf, LevelWarn)

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error("error message")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 log lines (WARN and ERROR only), got %d: %s", len(lines), buf.String())
	}
}

func TestChildLoggerAttributes(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriterLogger(&buf, LevelInfo)

	child := logger.WithComponent("harness").WithScenario(2).WithTask("QProdB4")
	child.Info("task started")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if entry["component"] != "harness" {
		t.Errorf("component = %v, want harness", entry["component"])
	}
	if entry["scenario"] != float64(2) {
		t.Errorf("scenario = %v, want 2", entry["scenario"])
	}
	if entry["task"] != "QProdB4" {
		t.Errorf("task = %v, want QProdB4", entry["task"])
	}

	// The parent must not inherit the child's attributes.
	buf.Reset()
	logger.Info("parent")
	if strings.Contains(buf.String(), "QProdB4") {
		t.Error("parent logger picked up child attributes")
	}
}

func TestWith(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriterLogger(&buf, LevelInfo)

	if logger.With() != logger {
		t.Error("With() with no args should return the same logger")
	}

	logger.With("counter", 7, 42, "ignored-non-string-key").Info("msg")
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if entry["counter"] != float64(7) {
		t.Errorf("counter = %v, want 7", entry["counter"])
	}
}

func TestNopLogger(t *testing.T) {
	logger := NopLogger()
	logger.Error("discarded")
	if err := logger.Close(); err != nil {
		t.Errorf("Close() = %v, want nil", err)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"debug", LevelDebug},
		{"INFO", LevelInfo},
		{"Warn", LevelWarn},
		{"error", LevelError},
		{"verbose", LevelInfo},
		{"", LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseLevel(tt.in); got != tt.want {
				t.Errorf("ParseLevel(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestValidLevels(t *testing.T) {
	levels := ValidLevels()
	if len(levels) != 4 {
		t.Fatalf("ValidLevels() returned %d levels, want 4", len(levels))
	}
}

func TestClose(t *testing.T) {
	dir := t.TempDir()
	logger, err := NewLogger(dir, LevelInfo)
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}
	child := logger.WithTask("QConsB1")

	if err := logger.Close(); err != nil {
		t.Fatalf("first Close() = %v", err)
	}
	if err := logger.Close(); err != nil {
		t.Errorf("second Close() = %v, want nil", err)
	}
	_ = child
}

func TestConcurrentWrites(t *testing.T) {
	var mu sync.Mutex
	var buf bytes.Buffer
	logger := NewWriterLogger(&lockedWriter{mu: &mu, buf: &buf}, LevelInfo)

	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			l := logger.WithScenario(n%3 + 1)
			for j := 0; j < 50; j++ {
				l.Info("tick", "j", j)
			}
		}(i)
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 300 {
		t.Errorf("expected 300 lines, got %d", len(lines))
	}
}

type lockedWriter struct {
	mu  *sync.Mutex
	buf *bytes.Buffer
}

func (w *lockedWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.Write(p)
}
