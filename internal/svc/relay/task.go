// If you are AI: This file defines the relay task interface and the shared run loop.
// Tasks manage the lifecycle of pull or push relays, reconnecting after failures when enabled.

package relay

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"streamhub/internal/core/bus"
)

// retryDelay is the pause between reconnect attempts.
var retryDelay = 5 * time.Second

// dialTimeout bounds the handshake and command exchange with the remote server.
var dialTimeout = 10 * time.Second

// Task represents a relay task (pull or push).
// Tasks run in their own goroutines and manage connection lifecycle.
type Task interface {
	// Start runs the task until ctx is cancelled, Stop is called, or a failure ends it.
	Start(ctx context.Context) error

	// Stop stops the relay task cleanly.
	Stop() error

	// IsRunning returns true if the task is currently running.
	IsRunning() bool

	// Status returns a snapshot for the API.
	Status() Status
}

// Status is a point-in-time view of a relay task.
type Status struct {
	App       string `json:"app"`
	Name      string `json:"name"`
	Mode      string `json:"mode"`
	RemoteURL string `json:"remote_url"`
	Running   bool   `json:"running"`
	Connected bool   `json:"connected"`
	Attempts  int64  `json:"attempts"`
	Packets   int64  `json:"packets"`
	LastError string `json:"last_error,omitempty"`
}

// BaseTask provides common functionality for relay tasks.
type BaseTask struct {
	registry  *bus.Registry
	key       bus.StreamKey
	mode      string
	remoteURL string
	reconnect bool
	logger    *slog.Logger

	running   atomic.Bool
	connected atomic.Bool
	attempts  atomic.Int64
	packets   atomic.Int64

	mu       sync.Mutex
	lastErr  error
	stopOnce sync.Once
	stopChan chan struct{}
}

// NewBaseTask creates a new base task with common configuration.
func NewBaseTask(registry *bus.Registry, mode, app, name, remoteURL string, reconnect bool, logger *slog.Logger) *BaseTask {
	if logger == nil {
		logger = slog.Default()
	}
	key := bus.NewStreamKey(app, name)
	return &BaseTask{
		registry:  registry,
		key:       key,
		mode:      mode,
		remoteURL: remoteURL,
		reconnect: reconnect,
		logger:    logger.With("component", "relay", "mode", mode, "stream", key.String(), "remote", remoteURL),
		stopChan:  make(chan struct{}),
	}
}

// Key returns the local stream key.
func (t *BaseTask) Key() bus.StreamKey {
	return t.key
}

// RemoteURL returns the remote RTMP URL.
func (t *BaseTask) RemoteURL() string {
	return t.remoteURL
}

// IsRunning returns true if the task is running.
func (t *BaseTask) IsRunning() bool {
	return t.running.Load()
}

// Status returns a snapshot of the task counters.
func (t *BaseTask) Status() Status {
	st := Status{
		App:       t.key.App,
		Name:      t.key.Name,
		Mode:      t.mode,
		RemoteURL: t.remoteURL,
		Running:   t.running.Load(),
		Connected: t.connected.Load(),
		Attempts:  t.attempts.Load(),
		Packets:   t.packets.Load(),
	}
	t.mu.Lock()
	if t.lastErr != nil {
		st.LastError = t.lastErr.Error()
	}
	t.mu.Unlock()
	return st
}

// Stop signals the task to stop. Safe to call more than once.
func (t *BaseTask) Stop() error {
	t.stopOnce.Do(func() { close(t.stopChan) })
	return nil
}

func (t *BaseTask) setError(err error) {
	t.mu.Lock()
	t.lastErr = err
	t.mu.Unlock()
}

// run calls attempt until the context ends, Stop is called, or an attempt fails without reconnect.
func (t *BaseTask) run(ctx context.Context, attempt func(ctx context.Context) error) error {
	t.running.Store(true)
	defer t.running.Store(false)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-t.stopChan:
			cancel()
		case <-ctx.Done():
		}
	}()

	for {
		t.attempts.Add(1)
		err := attempt(ctx)
		t.connected.Store(false)
		if ctx.Err() != nil {
			return t.stopResult(ctx)
		}
		if err == nil {
			err = errors.New("remote closed the stream")
		}
		t.setError(err)
		if !t.reconnect {
			return err
		}
		t.logger.Warn("relay attempt failed, retrying", "error", err, "delay", retryDelay)

		select {
		case <-time.After(retryDelay):
		case <-ctx.Done():
			return t.stopResult(ctx)
		}
	}
}

// stopResult is nil after Stop and the context error otherwise.
func (t *BaseTask) stopResult(ctx context.Context) error {
	select {
	case <-t.stopChan:
		return nil
	default:
		return ctx.Err()
	}
}
