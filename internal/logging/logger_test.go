package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func readEntries(t *testing.T, path string) []map[string]any {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	var entries []map[string]any
	for _, line := range splitLines(data) {
		if len(line) == 0 {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal(line, &m); err != nil {
			t.Fatalf("invalid JSON line %q: %v", line, err)
		}
		entries = append(entries, m)
	}
	return entries
}

func splitLines(data []byte) [][]byte {
	var lines [][]byte
	start := 0
	for i, b := range data {
		if b == '\n' {
			lines = append(lines, data[start:i])
			start = i + 1
		}
	}
	if start < len(data) {
		lines = append(lines, data[start:])
	}
	return lines
}

func TestLoggerWritesJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hive.log")
	logger, err := NewLogger(path, "INFO", DefaultRotationConfig())
	if err != nil {
		t.Fatalf("NewLogger() error = %v", err)
	}

	logger.Info("task assigned", "score", 0.82)
	if err := logger.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	entries := readEntries(t, path)
	if len(entries) != 1 {
		t.Fatalf("len(entries) = %d, want 1", len(entries))
	}
	if entries[0]["msg"] != "task assigned" {
		t.Errorf("msg = %v", entries[0]["msg"])
	}
	if entries[0]["score"] != 0.82 {
		t.Errorf("score = %v, want 0.82", entries[0]["score"])
	}
}

func TestLevelFiltering(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hive.log")
	logger, err := NewLogger(path, "WARN", DefaultRotationConfig())
	if err != nil {
		t.Fatalf("NewLogger() error = %v", err)
	}

	logger.Debug("dropped")
	logger.Info("dropped")
	logger.Warn("kept")
	logger.Error("kept")
	_ = logger.Close()

	entries := readEntries(t, path)
	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2", len(entries))
	}
}

func TestContextPropagation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hive.log")
	logger, err := NewLogger(path, "DEBUG", DefaultRotationConfig())
	if err != nil {
		t.Fatalf("NewLogger() error = %v", err)
	}

	child := logger.WithAgent("agent-1").WithTask("task-9").WithComponent("coordinator")
	child.Info("assignment made")

	// The parent logger is unaffected by child attributes.
	logger.Info("plain")
	_ = logger.Close()

	entries := readEntries(t, path)
	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2", len(entries))
	}
	if entries[0]["agent_id"] != "agent-1" || entries[0]["task_id"] != "task-9" || entries[0]["component"] != "coordinator" {
		t.Errorf("child entry missing context: %v", entries[0])
	}
	if _, has := entries[1]["agent_id"]; has {
		t.Error("parent logger must not inherit child attributes")
	}
}

func TestWithArbitraryAttrs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hive.log")
	logger, err := NewLogger(path, "INFO", DefaultRotationConfig())
	if err != nil {
		t.Fatalf("NewLogger() error = %v", err)
	}

	logger.With("shard", "data_processing", "depth", 4).Info("queue sampled")
	_ = logger.Close()

	entries := readEntries(t, path)
	if entries[0]["shard"] != "data_processing" {
		t.Errorf("shard = %v", entries[0]["shard"])
	}
	if entries[0]["depth"] != float64(4) {
		t.Errorf("depth = %v", entries[0]["depth"])
	}
}

func TestNopLogger(t *testing.T) {
	logger := NopLogger()
	logger.Info("discarded")
	if err := logger.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
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
		{"bogus", LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
