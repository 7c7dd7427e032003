// If you are AI: This file contains unit tests for API handlers.
// Tests verify JSON responses, routing and error handling.

package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"streamhub/internal/core/bus"
	"streamhub/internal/logging"
	"streamhub/internal/svc/relay"
)

func newTestRouter(registry *bus.Registry) http.Handler {
	service := NewService(registry, relay.NewManager(registry, logging.Discard()), Info{
		Version:  "test",
		Services: []string{"rtmp", "http_flv"},
		Sessions: func() int { return 3 },
	})
	router := chi.NewRouter()
	service.RegisterRoutes(router)
	return router
}

func get(t *testing.T, h http.Handler, path string, out any) int {
	t.Helper()
	req := httptest.NewRequest("GET", path, nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if ct := w.Header().Get("Content-Type"); w.Code != http.StatusMethodNotAllowed && ct != "application/json" {
		t.Errorf("%s: Content-Type %q", path, ct)
	}
	if out != nil {
		if err := json.NewDecoder(w.Body).Decode(out); err != nil {
			t.Fatalf("%s: failed to decode response: %v", path, err)
		}
	}
	return w.Code
}

func TestHandleServer(t *testing.T) {
	defer func(old func() time.Time) { timeNow = old }(timeNow)
	start := time.Now()
	timeNow = func() time.Time { return start }
	registry := bus.NewRegistry()
	router := newTestRouter(registry)
	timeNow = func() time.Time { return start.Add(90 * time.Second) }

	var response ServerResponse
	if code := get(t, router, "/api/server", &response); code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", code)
	}
	if response.Version != "test" {
		t.Errorf("Expected version test, got %q", response.Version)
	}
	if response.Uptime != 90 {
		t.Errorf("Expected uptime 90, got %d", response.Uptime)
	}
	if response.GoVersion == "" {
		t.Error("GoVersion should not be empty")
	}
	if len(response.EnabledServices) != 2 || response.Sessions != 3 {
		t.Errorf("Unexpected response %+v", response)
	}
}

func TestHandleStreams(t *testing.T) {
	registry := bus.NewRegistry()
	router := newTestRouter(registry)

	var response StreamsResponse
	if code := get(t, router, "/api/streams", &response); code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", code)
	}
	if len(response.Streams) != 0 {
		t.Errorf("Expected 0 streams, got %d", len(response.Streams))
	}

	key := bus.NewStreamKey("live", "test")
	if err := registry.AddPublisher(key, "pub"); err != nil {
		t.Fatalf("AddPublisher failed: %v", err)
	}
	registry.WriteMediaPacket(&bus.MediaPacket{AVType: bus.AVTypeVideo, Codec: bus.CodecH264, StreamKey: key, IsKeyFrame: true, Payload: []byte{0x17, 0x01, 0, 0, 0}})
	registry.AddPlayer(bus.NewQueueWriter(key, 8, bus.BackpressureEvict))

	var response2 StreamsResponse
	get(t, router, "/api/streams", &response2)
	if len(response2.Streams) != 1 {
		t.Fatalf("Expected 1 stream, got %d", len(response2.Streams))
	}
	s := response2.Streams[0]
	if s.App != "live" || s.Name != "test" || !s.HasPublisher {
		t.Errorf("Stream info incorrect: %+v", s)
	}
	if s.SubscriberCount != 1 || s.Packets != 1 || s.Bytes != 5 || s.GopCount != 1 {
		t.Errorf("Stream counters incorrect: %+v", s)
	}
	if s.VideoCodec != bus.CodecH264.String() || s.AudioCodec != "" {
		t.Errorf("Stream codecs incorrect: %+v", s)
	}
	if s.PublishedAt == nil {
		t.Error("Expected published_at")
	}
}

func TestHandleStream(t *testing.T) {
	registry := bus.NewRegistry()
	router := newTestRouter(registry)
	if err := registry.AddPublisher(bus.NewStreamKey("live", "cam"), "pub"); err != nil {
		t.Fatalf("AddPublisher failed: %v", err)
	}

	var info StreamInfo
	if code := get(t, router, "/api/streams/live/cam", &info); code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", code)
	}
	if info.Name != "cam" || !info.HasPublisher {
		t.Errorf("Unexpected stream %+v", info)
	}

	var errResp ErrorResponse
	if code := get(t, router, "/api/streams/live/missing", &errResp); code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", code)
	}
	if errResp.Error == "" {
		t.Error("Expected error message")
	}
}

func TestHandleRelay(t *testing.T) {
	router := newTestRouter(bus.NewRegistry())

	var response RelayResponse
	if code := get(t, router, "/api/relay", &response); code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", code)
	}
	// Should return empty list if no relays configured
	if response.Tasks == nil {
		t.Error("Tasks should not be nil")
	}
}

func TestMethodNotAllowed(t *testing.T) {
	router := newTestRouter(bus.NewRegistry())
	req := httptest.NewRequest("POST", "/api/server", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected status 405, got %d", w.Code)
	}
}
