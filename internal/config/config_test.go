// If you are AI: This file contains tests for configuration decoding, defaults, env overrides and validation.

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Test that an empty document yields valid defaults.
func TestParseDefaults(t *testing.T) {
	cfg, err := Parse(nil)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	if cfg.Server.RTMPPort != 1935 || cfg.RTMP.ChunkSize != 4096 || cfg.Stream.QueueSize != 1024 {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if !cfg.RTMP.ComplexEnabled() || !cfg.RTMP.Public128Enabled() {
		t.Error("complex handshake and 128-byte keys should default on")
	}
	if cfg.RTMP.IdleTimeoutDuration().Seconds() != 30 {
		t.Errorf("expected 30s idle timeout, got %v", cfg.RTMP.IdleTimeoutDuration())
	}
}

// Test a full document.
func TestParseFull(t *testing.T) {
	doc := `
server:
  health_port: 9000
  http_port: 9001
  rtmp_port: 1936
rtmp:
  chunk_size: 60000
  complex_handshake: false
stream:
  min_gop: 2
  backpressure: drop_oldest
log:
  level: debug
  format: json
relays:
  - app: live
    name: cam1
    mode: pull
    remote_url: rtmp://origin.example.com/live/cam1
    reconnect: true
`
	cfg, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if cfg.RTMP.ComplexEnabled() {
		t.Error("complex_handshake: false was not honoured")
	}
	if cfg.Stream.MinGop != 2 || cfg.Stream.Backpressure != "drop_oldest" {
		t.Errorf("unexpected stream config %+v", cfg.Stream)
	}
	if len(cfg.Relays) != 1 || !cfg.Relays[0].Reconnect {
		t.Errorf("unexpected relays %+v", cfg.Relays)
	}
}

// Test that unknown fields are rejected.
func TestParseUnknownField(t *testing.T) {
	if _, err := Parse([]byte("server:\n  bogus: 1\n")); err == nil {
		t.Fatal("expected error for unknown field")
	}
}

// Test environment overrides.
func TestEnvOverrides(t *testing.T) {
	t.Setenv("STREAMHUB_RTMP_PORT", "2935")
	t.Setenv("STREAMHUB_BACKPRESSURE", "drop_oldest")
	t.Setenv("STREAMHUB_COMPLEX_HANDSHAKE", "false")
	t.Setenv("STREAMHUB_LOG_LEVEL", "warn")

	cfg, err := Parse(nil)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if cfg.Server.RTMPPort != 2935 {
		t.Errorf("expected rtmp_port 2935, got %d", cfg.Server.RTMPPort)
	}
	if cfg.Stream.Backpressure != "drop_oldest" || cfg.Log.Level != "warn" {
		t.Errorf("string overrides not applied: %+v %+v", cfg.Stream, cfg.Log)
	}
	if cfg.RTMP.ComplexEnabled() {
		t.Error("bool override not applied")
	}

	t.Setenv("STREAMHUB_MIN_GOP", "many")
	if _, err := Parse(nil); err == nil || !strings.Contains(err.Error(), "STREAMHUB_MIN_GOP") {
		t.Errorf("expected error naming STREAMHUB_MIN_GOP, got %v", err)
	}
}

// Test that .env files are loaded without overriding the process environment.
func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	if err := os.WriteFile(path, []byte("STREAMHUB_HTTP_PORT=7001\nSTREAMHUB_HEALTH_PORT=7000\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("STREAMHUB_HEALTH_PORT", "7100")
	t.Setenv("STREAMHUB_HTTP_PORT", "")
	os.Unsetenv("STREAMHUB_HTTP_PORT")

	if err := LoadDotEnv(path, filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("LoadDotEnv failed: %v", err)
	}
	if got := GetEnv("HTTP_PORT", ""); got != "7001" {
		t.Errorf("expected 7001 from file, got %q", got)
	}
	if got := GetEnv("HEALTH_PORT", ""); got != "7100" {
		t.Errorf("expected process value 7100, got %q", got)
	}
}

// Test validation failures.
func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"same ports", func(c *Config) { c.Server.HTTPPort = c.Server.RTMPPort }, "must be different"},
		{"bad port", func(c *Config) { c.Server.RTMPPort = 70000 }, "rtmp_port"},
		{"small chunk", func(c *Config) { c.RTMP.ChunkSize = 64 }, "chunk_size"},
		{"idle", func(c *Config) { c.RTMP.IdleTimeout = -1 }, "idle_timeout"},
		{"min gop", func(c *Config) { c.Stream.MinGop = -1 }, "min_gop"},
		{"backpressure", func(c *Config) { c.Stream.Backpressure = "block" }, "backpressure"},
		{"log level", func(c *Config) { c.Log.Level = "trace" }, "level"},
		{"relay mode", func(c *Config) {
			c.Relays = []RelayConfig{{App: "live", Name: "a", Mode: "both", RemoteURL: "rtmp://h/live/a"}}
		}, "mode"},
		{"relay url", func(c *Config) {
			c.Relays = []RelayConfig{{App: "live", Name: "a", Mode: "pull", RemoteURL: "http://h/live/a"}}
		}, "remote_url"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

// Test Load with a missing file.
func TestLoadMissing(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

// Test that the shipped example configuration loads and validates.
func TestExampleConfig(t *testing.T) {
	cfg, err := Load("../../configs/streamhub.example.yaml")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if cfg.Server.RTMPPort != 1935 || cfg.Stream.Backpressure != "evict" || len(cfg.Relays) != 0 {
		t.Errorf("Unexpected example config %+v", cfg)
	}
}
