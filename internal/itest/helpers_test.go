// If you are AI: This file provides helpers that run the full server in-process on free ports.

package itest

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"testing"
	"time"

	"streamhub/internal/config"
	"streamhub/internal/core/bus"
	rtmpprotocol "streamhub/internal/core/protocol/rtmp"
	"streamhub/internal/logging"
	"streamhub/internal/server"
)

// instance is a running server and its ports.
type instance struct {
	srv *server.Server
	cfg *config.Config
}

func (i *instance) rtmpURL(app, name string) string {
	return fmt.Sprintf("rtmp://127.0.0.1:%d/%s/%s", i.cfg.Server.RTMPPort, app, name)
}

func (i *instance) httpURL(path string) string {
	return fmt.Sprintf("http://127.0.0.1:%d%s", i.cfg.Server.HTTPPort, path)
}

func (i *instance) healthURL(path string) string {
	return fmt.Sprintf("http://127.0.0.1:%d%s", i.cfg.Server.HealthPort, path)
}

// freePort returns a port that was free a moment ago.
func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to find free port: %v", err)
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

// startServer runs a server until the test ends. mutate may adjust the config first.
func startServer(t *testing.T, mutate func(*config.Config)) *instance {
	t.Helper()
	cfg := config.Default()
	cfg.Server.HealthPort = freePort(t)
	cfg.Server.HTTPPort = freePort(t)
	cfg.Server.RTMPPort = freePort(t)
	if mutate != nil {
		mutate(cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("invalid test config: %v", err)
	}
	srv, err := server.New(cfg, "itest", logging.Discard())
	if err != nil {
		t.Fatalf("server.New failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			if err != nil {
				t.Errorf("Run returned %v", err)
			}
		case <-time.After(10 * time.Second):
			t.Error("server did not shut down")
		}
	})

	inst := &instance{srv: srv, cfg: cfg}
	if err := waitForHealth(inst.healthURL("/readyz"), 5*time.Second); err != nil {
		t.Fatalf("server not ready: %v", err)
	}
	return inst
}

// waitForHealth polls url until it answers 200.
func waitForHealth(url string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		resp, err := http.Get(url)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		time.Sleep(20 * time.Millisecond)
	}
	return fmt.Errorf("%s not available after %v", url, timeout)
}

// publisher pushes a synthetic H.264 + AAC stream until stopped.
type publisher struct {
	client *rtmpprotocol.Client
	stop   chan struct{}
	done   chan struct{}
}

var (
	avcSeqHdr = []byte{0x17, 0x00, 0x00, 0x00, 0x00, 0x01, 0x64, 0x00, 0x1f}
	aacSeqHdr = []byte{0xAF, 0x00, 0x12, 0x10}
)

func videoFrame(key bool) []byte {
	if key {
		return []byte{0x17, 0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x02, 0x65, 0x88}
	}
	return []byte{0x27, 0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x02, 0x41, 0x9a}
}

// startPublisher connects to url and sends headers, then a frame every 10ms with a key frame every 10 frames.
func startPublisher(t *testing.T, url string) *publisher {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	client, err := rtmpprotocol.Dial(ctx, url, rtmpprotocol.ClientPublish)
	if err != nil {
		t.Fatalf("publish dial failed: %v", err)
	}
	p := &publisher{client: client, stop: make(chan struct{}), done: make(chan struct{})}
	headers := []*bus.MediaPacket{
		{AVType: bus.AVTypeVideo, DTS: 0, Payload: avcSeqHdr},
		{AVType: bus.AVTypeAudio, DTS: 0, Payload: aacSeqHdr},
	}
	for _, pkt := range headers {
		if err := client.WritePacket(pkt); err != nil {
			t.Fatalf("publish headers failed: %v", err)
		}
	}
	go func() {
		defer close(p.done)
		for i := 0; ; i++ {
			ts := int64(i * 40)
			if err := client.WritePacket(&bus.MediaPacket{AVType: bus.AVTypeVideo, DTS: ts, Payload: videoFrame(i%10 == 0)}); err != nil {
				return
			}
			if err := client.WritePacket(&bus.MediaPacket{AVType: bus.AVTypeAudio, DTS: ts, Payload: []byte{0xAF, 0x01, 0x21, 0x00}}); err != nil {
				return
			}
			select {
			case <-p.stop:
				return
			case <-time.After(10 * time.Millisecond):
			}
		}
	}()
	t.Cleanup(p.Close)
	return p
}

// Close stops sending and disconnects. Safe to call twice.
func (p *publisher) Close() {
	select {
	case <-p.stop:
		return
	default:
	}
	close(p.stop)
	<-p.done
	p.client.Close()
}

// runOnce runs a server expected to fail at startup and returns its error.
func runOnce(t *testing.T, cfg *config.Config) error {
	t.Helper()
	srv, err := server.New(cfg, "itest", logging.Discard())
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Run(ctx)
}
