// If you are AI: This file applies STREAMHUB_* environment overrides on top of the YAML file.
// A .env file in the working directory is loaded first when present.

package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// envPrefix namespaces every override.
const envPrefix = "STREAMHUB_"

// LoadDotEnv loads variables from the given files, ignoring files that do not exist.
// Variables already set in the process environment win.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// GetEnv returns STREAMHUB_<name> or def when unset.
func GetEnv(name, def string) string {
	if v, ok := os.LookupEnv(envPrefix + name); ok {
		return v
	}
	return def
}

// GetEnvInt returns STREAMHUB_<name> parsed as an integer, or def when unset.
func GetEnvInt(name string, def int) (int, error) {
	v, ok := os.LookupEnv(envPrefix + name)
	if !ok || v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s%s: %w", envPrefix, name, err)
	}
	return n, nil
}

// GetEnvBool returns STREAMHUB_<name> parsed as a boolean, or def when unset.
func GetEnvBool(name string, def bool) (bool, error) {
	v, ok := os.LookupEnv(envPrefix + name)
	if !ok || v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s%s: %w", envPrefix, name, err)
	}
	return b, nil
}

// applyEnv overrides fields from the environment.
func (c *Config) applyEnv() error {
	ints := []struct {
		name string
		dst  *int
	}{
		{"HEALTH_PORT", &c.Server.HealthPort},
		{"HTTP_PORT", &c.Server.HTTPPort},
		{"RTMP_PORT", &c.Server.RTMPPort},
		{"IDLE_TIMEOUT", &c.RTMP.IdleTimeout},
		{"MIN_GOP", &c.Stream.MinGop},
		{"QUEUE_SIZE", &c.Stream.QueueSize},
	}
	for _, e := range ints {
		v, err := GetEnvInt(e.name, *e.dst)
		if err != nil {
			return err
		}
		*e.dst = v
	}

	chunk, err := GetEnvInt("CHUNK_SIZE", int(c.RTMP.ChunkSize))
	if err != nil {
		return err
	}
	if chunk < 0 {
		return fmt.Errorf("%sCHUNK_SIZE must not be negative", envPrefix)
	}
	c.RTMP.ChunkSize = uint32(chunk)

	complexHS, err := GetEnvBool("COMPLEX_HANDSHAKE", c.RTMP.ComplexEnabled())
	if err != nil {
		return err
	}
	c.RTMP.ComplexHandshake = boolPtr(complexHS)

	recordEnabled, err := GetEnvBool("RECORD_ENABLED", c.Record.Enabled)
	if err != nil {
		return err
	}
	c.Record.Enabled = recordEnabled

	c.Stream.Backpressure = GetEnv("BACKPRESSURE", c.Stream.Backpressure)
	c.Log.Level = GetEnv("LOG_LEVEL", c.Log.Level)
	c.Log.Format = GetEnv("LOG_FORMAT", c.Log.Format)
	c.Record.Dir = GetEnv("RECORD_DIR", c.Record.Dir)
	return nil
}
