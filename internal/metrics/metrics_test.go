// If you are AI: This file contains tests for metric registration and the HTTP handlers.

package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// scrape returns the text exposition of m.
func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler(nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	return rec.Body.String()
}

// Test that counters show up in the scrape output.
func TestHandlerExposesSeries(t *testing.T) {
	m := New()
	m.ConnectionAccepted()
	m.Handshake("simple")
	m.Handshake("schema1")
	m.MediaPacket("video")
	m.WriterEvicted()

	refreshed := false
	srv := httptest.NewServer(m.Handler(func() {
		refreshed = true
		m.SetActiveStreams(3)
	}))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	out := string(body)

	if !refreshed {
		t.Error("gauge refresh callback not called")
	}
	for _, want := range []string{
		"streamhub_rtmp_connections_total 1",
		`streamhub_rtmp_handshakes_total{kind="simple"} 1`,
		`streamhub_media_packets_total{type="video"} 1`,
		"streamhub_writers_evicted_total 1",
		"streamhub_active_streams 3",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("scrape output missing %q", want)
		}
	}
}

// Test that the middleware counts requests and errors.
func TestMiddleware(t *testing.T) {
	m := New()
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("ok"))
	}))
	for _, path := range []string{"/a", "/missing", "/b"} {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}
	out := scrape(t, m)
	if !strings.Contains(out, "streamhub_http_requests_total 3") {
		t.Error("expected 3 requests")
	}
	if !strings.Contains(out, "streamhub_http_errors_total 1") {
		t.Error("expected 1 error")
	}
}

// Test session gauge accounting.
func TestSessionGauge(t *testing.T) {
	m := New()
	m.SessionOpened()
	m.SessionOpened()
	m.SessionClosed()
	m.IdleReaped()
	out := scrape(t, m)
	if !strings.Contains(out, "streamhub_rtmp_active_sessions 1") {
		t.Error("expected 1 active session")
	}
	if !strings.Contains(out, "streamhub_idle_sessions_reaped_total 1") {
		t.Error("expected 1 reaped session")
	}
}
