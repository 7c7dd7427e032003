// If you are AI: This file implements the relay manager.
// Manages lifecycle of all relay tasks (start, stop, status).

package relay

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/hashicorp/go-multierror"

	"streamhub/internal/config"
	"streamhub/internal/core/bus"
)

// Manager manages relay tasks lifecycle.
type Manager struct {
	registry *bus.Registry
	logger   *slog.Logger
	tasks    []Task
	wg       sync.WaitGroup
	ctx      context.Context
	cancel   context.CancelFunc
	mu       sync.Mutex
}

// NewManager creates a new relay manager.
func NewManager(registry *bus.Registry, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		registry: registry,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// StartTasks starts all relay tasks from configuration.
// Every relay is checked before any task starts.
func (m *Manager) StartTasks(cfg *config.Config) error {
	var errs *multierror.Error
	for i, rc := range cfg.Relays {
		if rc.App == "" || rc.Name == "" {
			errs = multierror.Append(errs, fmt.Errorf("relays[%d]: missing app or name", i))
		}
		if rc.Mode != "pull" && rc.Mode != "push" {
			errs = multierror.Append(errs, fmt.Errorf("relays[%d]: invalid mode %q (must be 'pull' or 'push')", i, rc.Mode))
		}
		if rc.RemoteURL == "" {
			errs = multierror.Append(errs, fmt.Errorf("relays[%d]: missing remote_url", i))
		}
	}
	if err := errs.ErrorOrNil(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rc := range cfg.Relays {
		var task Task
		if rc.Mode == "pull" {
			task = NewPullTask(m.registry, rc.App, rc.Name, rc.RemoteURL, rc.Reconnect, m.logger)
		} else {
			task = NewPushTask(m.registry, rc.App, rc.Name, rc.RemoteURL, rc.Reconnect, cfg.Stream.QueueSize, m.logger)
		}
		m.start(task)
	}
	return nil
}

// start runs task in its own goroutine. Caller holds m.mu.
func (m *Manager) start(task Task) {
	m.tasks = append(m.tasks, task)
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		st := task.Status()
		if err := task.Start(m.ctx); err != nil && m.ctx.Err() == nil {
			m.logger.Error("relay task ended", "mode", st.Mode, "stream", st.App+"/"+st.Name, "error", err)
		}
	}()
}

// Stop stops all relay tasks and waits for them to finish.
func (m *Manager) Stop() error {
	m.mu.Lock()
	m.cancel()
	for _, task := range m.tasks {
		task.Stop()
	}
	m.mu.Unlock()

	m.wg.Wait()
	return nil
}

// TaskCount returns the number of relay tasks.
func (m *Manager) TaskCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tasks)
}

// Statuses returns a snapshot of every task.
func (m *Manager) Statuses() []Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Status, 0, len(m.tasks))
	for _, task := range m.tasks {
		out = append(out, task.Status())
	}
	return out
}
