// If you are AI: This file contains unit tests for the relay manager.
// Tests verify task creation, validation and lifecycle management.

package relay

import (
	"strings"
	"testing"
	"time"

	"streamhub/internal/config"
	"streamhub/internal/core/bus"
	"streamhub/internal/logging"
)

// unreachable refuses connections immediately.
const unreachable = "rtmp://127.0.0.1:1/live/test"

func TestManagerStartTasks(t *testing.T) {
	registry := bus.NewRegistry()
	manager := NewManager(registry, logging.Discard())

	cfg := config.Default()
	cfg.Relays = []config.RelayConfig{
		{App: "live", Name: "test", Mode: "pull", RemoteURL: unreachable},
		{App: "live", Name: "out", Mode: "push", RemoteURL: unreachable},
	}

	if err := manager.StartTasks(cfg); err != nil {
		t.Fatalf("Failed to start tasks: %v", err)
	}
	if manager.TaskCount() != 2 {
		t.Errorf("Expected 2 tasks, got %d", manager.TaskCount())
	}

	statuses := manager.Statuses()
	if len(statuses) != 2 || statuses[0].Mode != "pull" || statuses[1].Mode != "push" {
		t.Errorf("Unexpected statuses: %+v", statuses)
	}
	manager.Stop()
}

func TestManagerInvalidConfig(t *testing.T) {
	tests := []struct {
		name  string
		relay config.RelayConfig
		want  string
	}{
		{"missing app", config.RelayConfig{Name: "test", Mode: "pull", RemoteURL: unreachable}, "missing app or name"},
		{"invalid mode", config.RelayConfig{App: "live", Name: "test", Mode: "invalid", RemoteURL: unreachable}, "invalid mode"},
		{"missing url", config.RelayConfig{App: "live", Name: "test", Mode: "pull"}, "missing remote_url"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			manager := NewManager(bus.NewRegistry(), logging.Discard())
			cfg := config.Default()
			cfg.Relays = []config.RelayConfig{tt.relay}
			err := manager.StartTasks(cfg)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Expected error containing %q, got %v", tt.want, err)
			}
			if manager.TaskCount() != 0 {
				t.Errorf("Expected no tasks, got %d", manager.TaskCount())
			}
		})
	}
}

func TestManagerStop(t *testing.T) {
	defer setRetryDelay(time.Hour)()
	manager := NewManager(bus.NewRegistry(), logging.Discard())

	cfg := config.Default()
	cfg.Relays = []config.RelayConfig{
		{App: "live", Name: "test", Mode: "pull", RemoteURL: unreachable, Reconnect: true},
	}
	if err := manager.StartTasks(cfg); err != nil {
		t.Fatalf("Failed to start tasks: %v", err)
	}

	// Give the task a moment to fail once and start waiting
	time.Sleep(100 * time.Millisecond)

	done := make(chan bool, 1)
	go func() {
		manager.Stop()
		done <- true
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Error("Manager stop timed out")
	}
}

// setRetryDelay overrides retryDelay and returns a restore func.
func setRetryDelay(d time.Duration) func() {
	old := retryDelay
	retryDelay = d
	return func() { retryDelay = old }
}
