// If you are AI: This file contains an integration test of a pull relay between two servers.

package itest

import (
	"context"
	"os"
	"testing"
	"time"

	"streamhub/internal/config"
	"streamhub/internal/core/bus"
	rtmpprotocol "streamhub/internal/core/protocol/rtmp"
)

// Test that an edge server pulls a stream from an origin and serves it to its own players.
func TestPullRelayBetweenServers(t *testing.T) {
	origin := startServer(t, nil)
	startPublisher(t, origin.rtmpURL("live", "origin"))

	edge := startServer(t, func(cfg *config.Config) {
		cfg.Relays = []config.RelayConfig{{
			App:       "live",
			Name:      "edge",
			Mode:      "pull",
			RemoteURL: origin.rtmpURL("live", "origin"),
			Reconnect: true,
		}}
	})

	key := bus.NewStreamKey("live", "edge")
	deadline := time.Now().Add(5 * time.Second)
	for !edge.srv.Registry().HasPublisher(key) {
		if time.Now().After(deadline) {
			t.Fatal("relay did not publish on the edge")
		}
		time.Sleep(20 * time.Millisecond)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	player, err := rtmpprotocol.Dial(ctx, edge.rtmpURL("live", "edge"), rtmpprotocol.ClientPlay)
	if err != nil {
		t.Fatalf("play dial failed: %v", err)
	}
	defer player.Close()
	pkt, err := player.ReadPacket(key)
	if err != nil {
		t.Fatalf("ReadPacket failed: %v", err)
	}
	if !pkt.IsSeqHdr {
		t.Errorf("Expected a sequence header first, got %+v", pkt)
	}
}

// waitForFile waits until dir holds at least one non-empty file.
func waitForFile(t *testing.T, dir string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		entries, _ := os.ReadDir(dir)
		for _, e := range entries {
			if info, err := e.Info(); err == nil && info.Size() > 13 {
				return
			}
		}
		if time.Now().After(deadline) {
			t.Fatalf("no recording in %s", dir)
		}
		time.Sleep(20 * time.Millisecond)
	}
}
