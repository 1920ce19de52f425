package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/unklstewy/vatsim-scope/pkg/config"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q): expected %v, got %v", tt.in, tt.want, got)
		}
	}
}

func TestNewWithWriterJSON(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(config.LoggingConfig{Level: "info", Format: "json"}, &buf)

	l.Debug("hidden")
	l.Info("resolved mirrors", slog.String("live", "https://data.example/v3"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("Expected 1 line (debug filtered), got %d: %q", len(lines), buf.String())
	}

	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("Expected JSON output, got: %v", err)
	}
	if rec["msg"] != "resolved mirrors" {
		t.Errorf("Expected msg 'resolved mirrors', got %v", rec["msg"])
	}
	if rec["live"] != "https://data.example/v3" {
		t.Errorf("Expected live attribute, got %v", rec["live"])
	}
}

func TestNewWithWriterText(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(config.LoggingConfig{Level: "debug"}, &buf)
	l.Debug("poll", slog.Int("pilots", 3))

	if !strings.Contains(buf.String(), "msg=poll") || !strings.Contains(buf.String(), "pilots=3") {
		t.Errorf("Expected text output with attributes, got %q", buf.String())
	}
}

func TestNewRotatingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "collector.log")
	l, closer := New(config.LoggingConfig{Level: "info", Format: "json", File: path, MaxSizeMB: 1})

	LogStartup(l, "test")
	if err := closer.Close(); err != nil {
		t.Fatalf("Expected no error closing log file, got: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Expected log file to exist, got: %v", err)
	}
	if !strings.Contains(string(data), `"program":"test"`) {
		t.Errorf("Expected startup record in log file, got %q", string(data))
	}
}

func TestNewStderr(t *testing.T) {
	l, closer := New(config.LoggingConfig{})
	if l == nil {
		t.Fatal("Expected logger, got nil")
	}
	if err := closer.Close(); err != nil {
		t.Errorf("Expected no-op close, got: %v", err)
	}
}
