// If you are AI: This file contains tests for logger construction.

package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"streamhub/internal/config"
)

// Test level parsing.
func TestParseLevel(t *testing.T) {
	for in, want := range map[string]slog.Level{"debug": slog.LevelDebug, "info": slog.LevelInfo, "WARN": slog.LevelWarn, "error": slog.LevelError} {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Errorf("ParseLevel(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseLevel("trace"); err == nil {
		t.Error("expected error for unknown level")
	}
}

// Test JSON output carries attributes and trimmed sources.
func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&buf, config.LogConfig{Level: "info", Format: "json"})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	logger.Debug("hidden")
	logger.Info("session started", "session_id", "abc")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d: %q", len(lines), buf.String())
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if rec["msg"] != "session started" || rec["session_id"] != "abc" {
		t.Errorf("unexpected record %v", rec)
	}
	src, _ := rec["source"].(map[string]any)
	if file, _ := src["file"].(string); file != "logging/logging_test.go" {
		t.Errorf("expected trimmed source, got %q", file)
	}
}

// Test tint text output without colour.
func TestNewText(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&buf, config.LogConfig{Level: "debug", Format: "text", NoColor: true})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	logger.Warn("simple handshake", "handshake", "simple")
	out := buf.String()
	if !strings.Contains(out, "simple handshake") || !strings.Contains(out, "handshake=simple") {
		t.Errorf("unexpected output %q", out)
	}
	if strings.Contains(out, "\x1b[") {
		t.Error("NoColor output contains escape codes")
	}
}

// Test unknown formats.
func TestNewBadFormat(t *testing.T) {
	if _, err := New(&bytes.Buffer{}, config.LogConfig{Level: "info", Format: "xml"}); err == nil {
		t.Error("expected error for unknown format")
	}
}
