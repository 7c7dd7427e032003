// If you are AI: This file defines the configuration structure for streamhub.
// It uses strict YAML decoding and explicit defaults.

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the complete server configuration.
// All fields must have explicit defaults or be required.
type Config struct {
	Server ServerConfig  `yaml:"server"`
	RTMP   RTMPConfig    `yaml:"rtmp"`
	Stream StreamConfig  `yaml:"stream"`
	Log    LogConfig     `yaml:"log"`
	Record RecordConfig  `yaml:"record"`
	Relays []RelayConfig `yaml:"relays,omitempty"`
}

// ServerConfig defines listener ports.
type ServerConfig struct {
	HealthPort int `yaml:"health_port"` // Port for health and metrics endpoints
	HTTPPort   int `yaml:"http_port"`   // Port for API, HTTP-FLV and WebSocket-FLV
	RTMPPort   int `yaml:"rtmp_port"`   // Port for RTMP ingest and playback
}

// RTMPConfig defines RTMP session parameters.
type RTMPConfig struct {
	ChunkSize        uint32 `yaml:"chunk_size"`          // Outgoing chunk size announced after connect
	MaxChunkSize     uint32 `yaml:"max_chunk_size"`      // Largest chunk size accepted from peers
	WindowAckSize    uint32 `yaml:"window_ack_size"`     // Window announced to peers
	IdleTimeout      int    `yaml:"idle_timeout"`        // Seconds without inbound bytes before a session is reaped
	ComplexHandshake *bool  `yaml:"complex_handshake"`   // Probe C1 digests before the simple handshake
	Public128Key     *bool  `yaml:"public_128bytes_key"` // Regenerate DH keys until the public key is 128 bytes
}

// StreamConfig defines registry and writer parameters.
type StreamConfig struct {
	MinGop       int    `yaml:"min_gop"`      // Key frames per GOP cache clear
	QueueSize    int    `yaml:"queue_size"`   // Per-writer queue capacity
	Backpressure string `yaml:"backpressure"` // "evict" or "drop_oldest"
}

// LogConfig defines logging output.
type LogConfig struct {
	Level   string `yaml:"level"`    // debug, info, warn or error
	Format  string `yaml:"format"`   // text or json
	NoColor bool   `yaml:"no_color"` // Disable ANSI colour in text output
}

// RecordConfig defines the FLV recorder.
type RecordConfig struct {
	Enabled bool   `yaml:"enabled"`
	Dir     string `yaml:"dir"` // Directory for recorded files
}

// RelayConfig defines a relay task configuration.
type RelayConfig struct {
	App       string `yaml:"app"`                 // Application name
	Name      string `yaml:"name"`                // Stream name
	Mode      string `yaml:"mode"`                // "pull" or "push"
	RemoteURL string `yaml:"remote_url"`          // Remote RTMP URL
	Reconnect bool   `yaml:"reconnect,omitempty"` // Enable reconnect on failure
}

// Load reads configuration from a YAML file, applies defaults and environment overrides.
// Returns an error if the file cannot be read or decoded.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes configuration from YAML bytes.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields

	// An empty document decodes to io.EOF and means all defaults.
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	cfg.setDefaults()
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns a configuration with every default applied.
func Default() *Config {
	var cfg Config
	cfg.setDefaults()
	return &cfg
}

// setDefaults applies explicit default values to unset fields.
func (c *Config) setDefaults() {
	if c.Server.HealthPort == 0 {
		c.Server.HealthPort = 8080
	}
	if c.Server.HTTPPort == 0 {
		c.Server.HTTPPort = 8081
	}
	if c.Server.RTMPPort == 0 {
		c.Server.RTMPPort = 1935
	}

	if c.RTMP.ChunkSize == 0 {
		c.RTMP.ChunkSize = 4096
	}
	if c.RTMP.MaxChunkSize == 0 {
		c.RTMP.MaxChunkSize = 65536
	}
	if c.RTMP.WindowAckSize == 0 {
		c.RTMP.WindowAckSize = 2500000
	}
	if c.RTMP.IdleTimeout == 0 {
		c.RTMP.IdleTimeout = 30
	}
	if c.RTMP.ComplexHandshake == nil {
		c.RTMP.ComplexHandshake = boolPtr(true)
	}
	if c.RTMP.Public128Key == nil {
		c.RTMP.Public128Key = boolPtr(true)
	}

	if c.Stream.MinGop == 0 {
		c.Stream.MinGop = 1
	}
	if c.Stream.QueueSize == 0 {
		c.Stream.QueueSize = 1024
	}
	if c.Stream.Backpressure == "" {
		c.Stream.Backpressure = "evict"
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}

	if c.Record.Dir == "" {
		c.Record.Dir = "recordings"
	}
}

func boolPtr(b bool) *bool {
	return &b
}

// IdleTimeoutDuration returns the idle timeout as a duration.
func (r *RTMPConfig) IdleTimeoutDuration() time.Duration {
	return time.Duration(r.IdleTimeout) * time.Second
}

// ComplexEnabled reports whether complex handshakes are probed.
func (r *RTMPConfig) ComplexEnabled() bool {
	return r.ComplexHandshake == nil || *r.ComplexHandshake
}

// Public128Enabled reports whether DH keys are regenerated to 128 bytes.
func (r *RTMPConfig) Public128Enabled() bool {
	return r.Public128Key == nil || *r.Public128Key
}
