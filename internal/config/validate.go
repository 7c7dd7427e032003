// If you are AI: This file validates configuration values and returns descriptive errors.

package config

import (
	"fmt"
	"net/url"
)

// Validate checks that all configuration values are within acceptable ranges.
// Returns an error describing the first validation failure found.
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server config: %w", err)
	}
	if err := c.RTMP.Validate(); err != nil {
		return fmt.Errorf("rtmp config: %w", err)
	}
	if err := c.Stream.Validate(); err != nil {
		return fmt.Errorf("stream config: %w", err)
	}
	if err := c.Log.Validate(); err != nil {
		return fmt.Errorf("log config: %w", err)
	}
	if c.Record.Enabled && c.Record.Dir == "" {
		return fmt.Errorf("record config: dir is required when recording is enabled")
	}
	for i := range c.Relays {
		if err := c.Relays[i].Validate(); err != nil {
			return fmt.Errorf("relays[%d]: %w", i, err)
		}
	}
	return nil
}

// Validate checks server configuration values.
func (s *ServerConfig) Validate() error {
	if s.HealthPort <= 0 || s.HealthPort > 65535 {
		return fmt.Errorf("health_port must be between 1 and 65535, got %d", s.HealthPort)
	}
	if s.HTTPPort <= 0 || s.HTTPPort > 65535 {
		return fmt.Errorf("http_port must be between 1 and 65535, got %d", s.HTTPPort)
	}
	if s.RTMPPort <= 0 || s.RTMPPort > 65535 {
		return fmt.Errorf("rtmp_port must be between 1 and 65535, got %d", s.RTMPPort)
	}
	if s.HealthPort == s.HTTPPort {
		return fmt.Errorf("health_port and http_port must be different, both are %d", s.HealthPort)
	}
	if s.HealthPort == s.RTMPPort {
		return fmt.Errorf("health_port and rtmp_port must be different, both are %d", s.HealthPort)
	}
	if s.HTTPPort == s.RTMPPort {
		return fmt.Errorf("http_port and rtmp_port must be different, both are %d", s.HTTPPort)
	}
	return nil
}

// Validate checks RTMP configuration values.
func (r *RTMPConfig) Validate() error {
	if r.ChunkSize < 128 || r.ChunkSize > 65536 {
		return fmt.Errorf("chunk_size must be between 128 and 65536, got %d", r.ChunkSize)
	}
	if r.MaxChunkSize < 128 || r.MaxChunkSize > 16777215 {
		return fmt.Errorf("max_chunk_size must be between 128 and 16777215, got %d", r.MaxChunkSize)
	}
	if r.IdleTimeout <= 0 {
		return fmt.Errorf("idle_timeout must be positive, got %d", r.IdleTimeout)
	}
	return nil
}

// Validate checks stream configuration values.
func (s *StreamConfig) Validate() error {
	if s.MinGop < 1 {
		return fmt.Errorf("min_gop must be at least 1, got %d", s.MinGop)
	}
	if s.QueueSize <= 0 {
		return fmt.Errorf("queue_size must be positive, got %d", s.QueueSize)
	}
	switch s.Backpressure {
	case "evict", "drop_oldest":
	default:
		return fmt.Errorf("backpressure must be evict or drop_oldest, got %q", s.Backpressure)
	}
	return nil
}

// Validate checks logging configuration values.
func (l *LogConfig) Validate() error {
	switch l.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("level must be debug, info, warn or error, got %q", l.Level)
	}
	switch l.Format {
	case "text", "json":
	default:
		return fmt.Errorf("format must be text or json, got %q", l.Format)
	}
	return nil
}

// Validate checks a relay definition.
func (r *RelayConfig) Validate() error {
	if r.App == "" || r.Name == "" {
		return fmt.Errorf("app and name are required")
	}
	if r.Mode != "pull" && r.Mode != "push" {
		return fmt.Errorf("mode must be pull or push, got %q", r.Mode)
	}
	u, err := url.Parse(r.RemoteURL)
	if err != nil {
		return fmt.Errorf("remote_url: %w", err)
	}
	if u.Scheme != "rtmp" || u.Host == "" {
		return fmt.Errorf("remote_url must be an rtmp:// URL, got %q", r.RemoteURL)
	}
	return nil
}
