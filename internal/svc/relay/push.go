// If you are AI: This file implements push relay functionality.
// Push relay subscribes to local stream and publishes to remote RTMP server.

package relay

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"streamhub/internal/core/bus"
	rtmpprotocol "streamhub/internal/core/protocol/rtmp"
)

// pollInterval is how often a push task checks for a local publisher.
var pollInterval = time.Second

// PushTask implements push relay (subscribe local, publish remote).
type PushTask struct {
	*BaseTask
	queueSize int
}

// NewPushTask creates a new push relay task.
// queueSize bounds the local writer queue; overflow drops the oldest packets.
func NewPushTask(registry *bus.Registry, app, name, remoteURL string, reconnect bool, queueSize int, logger *slog.Logger) *PushTask {
	return &PushTask{
		BaseTask:  NewBaseTask(registry, "push", app, name, remoteURL, reconnect, logger),
		queueSize: queueSize,
	}
}

// Start waits for a local publisher and forwards its packets to the remote server.
func (t *PushTask) Start(ctx context.Context) error {
	return t.run(ctx, t.push)
}

// waitPublisher blocks until the local key has a publisher.
func (t *PushTask) waitPublisher(ctx context.Context) error {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for !t.registry.HasPublisher(t.key) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}

// push runs one connection to the remote server.
func (t *PushTask) push(ctx context.Context) error {
	if err := t.waitPublisher(ctx); err != nil {
		return err
	}

	dialCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	client, err := rtmpprotocol.Dial(dialCtx, t.remoteURL, rtmpprotocol.ClientPublish)
	cancel()
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer client.Close()

	// Drop oldest so a slow remote never blocks the local publisher.
	writer := bus.NewQueueWriter(t.key, t.queueSize, bus.BackpressureDropOldest)
	t.registry.AddPlayer(writer)
	defer func() {
		t.registry.RemovePlayer(writer)
		writer.Close()
	}()

	t.connected.Store(true)
	t.logger.Info("push relay connected")
	for {
		pkt, err := writer.Next(ctx)
		if err != nil {
			return err
		}
		if err := client.WritePacket(pkt); err != nil {
			return fmt.Errorf("write: %w", err)
		}
		t.packets.Add(1)
	}
}
