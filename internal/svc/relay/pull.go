// If you are AI: This file implements pull relay functionality.
// Pull relay connects to remote RTMP server, plays stream, and republishes locally.

package relay

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"streamhub/internal/core/bus"
	rtmpprotocol "streamhub/internal/core/protocol/rtmp"
)

// PullTask implements pull relay (connect to remote, play, republish locally).
type PullTask struct {
	*BaseTask
	publisherID string
}

// NewPullTask creates a new pull relay task.
func NewPullTask(registry *bus.Registry, app, name, remoteURL string, reconnect bool, logger *slog.Logger) *PullTask {
	return &PullTask{
		BaseTask:    NewBaseTask(registry, "pull", app, name, remoteURL, reconnect, logger),
		publisherID: "relay-" + uuid.NewString(),
	}
}

// Start plays the remote stream and republishes it under the local key.
func (t *PullTask) Start(ctx context.Context) error {
	return t.run(ctx, t.pull)
}

// pull runs one connection to the remote server.
func (t *PullTask) pull(ctx context.Context) error {
	dialCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	client, err := rtmpprotocol.Dial(dialCtx, t.remoteURL, rtmpprotocol.ClientPlay)
	cancel()
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer client.Close()
	stop := context.AfterFunc(ctx, func() { client.Conn().Close() })
	defer stop()

	if err := t.registry.AddPublisher(t.key, t.publisherID); err != nil {
		return err
	}
	defer t.registry.RemovePublisher(t.key, t.publisherID)

	t.connected.Store(true)
	t.logger.Info("pull relay connected")
	for {
		pkt, err := client.ReadPacket(t.key)
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}
		t.packets.Add(1)
		if err := t.registry.WriteMediaPacket(pkt); err != nil {
			t.logger.Debug("writers evicted", "error", err)
		}
	}
}
