package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestNewLevels(t *testing.T) {
	tests := []struct {
		name    string
		level   string
		enable  slog.Level
		disable slog.Level
	}{
		{"debug level", "debug", slog.LevelDebug, slog.LevelDebug - 1},
		{"warn level", "warn", slog.LevelWarn, slog.LevelInfo},
		{"warning alias", "WARNING", slog.LevelWarn, slog.LevelInfo},
		{"error level", "error", slog.LevelError, slog.LevelWarn},
		{"default info", "", slog.LevelInfo, slog.LevelDebug},
	}

	ctx := context.Background()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := New(tt.level)
			if !logger.Enabled(ctx, tt.enable) {
				t.Fatalf("expected level %s to be enabled", tt.enable)
			}
			if logger.Enabled(ctx, tt.disable) {
				t.Fatalf("expected level %s to be disabled", tt.disable)
			}
		})
	}
}

func TestDefaultLogger(t *testing.T) {
	logger := Default()
	logger.Info("test message", "key", "value")

	ctx := context.Background()
	if !logger.Enabled(ctx, slog.LevelInfo) {
		t.Error("Default() should enable info level")
	}
	if logger.Enabled(ctx, slog.LevelDebug) {
		t.Error("Default() should not enable debug level")
	}
	if logger == Default() {
		t.Error("Default() returned the same instance twice")
	}
}

func TestNewWithFormatJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithFormat("info", "json", &buf)
	logger.With("source", "site_form").Info("lead forwarded", "location_id", "2")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected JSON output, got %q: %v", buf.String(), err)
	}
	if entry["msg"] != "lead forwarded" {
		t.Fatalf("unexpected msg: %v", entry["msg"])
	}
	if entry["source"] != "site_form" || entry["location_id"] != "2" {
		t.Fatalf("missing attributes: %v", entry)
	}
}

func TestNewWithFormatText(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithFormat("debug", "text", &buf)
	logger.Debug("config loaded", "locations", 3)

	out := buf.String()
	if !strings.Contains(out, "msg=\"config loaded\"") || !strings.Contains(out, "locations=3") {
		t.Fatalf("unexpected text output: %q", out)
	}
}
