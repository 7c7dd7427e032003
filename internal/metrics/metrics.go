// If you are AI: This file defines the Prometheus metrics exported on /metrics.
// A private registry is used; gauges derived from the stream registry are refreshed at scrape time.

package metrics

import (
	"bufio"
	"errors"
	"net"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds Prometheus counters and gauges for the server.
type Metrics struct {
	registry          *prometheus.Registry
	connectionsTotal  prometheus.Counter
	activeSessions    prometheus.Gauge
	handshakesTotal   *prometheus.CounterVec
	mediaPacketsTotal *prometheus.CounterVec
	writersEvicted    prometheus.Counter
	activeStreams     prometheus.Gauge
	idleReaped        prometheus.Counter
	httpRequests      prometheus.Counter
	httpErrors        prometheus.Counter
}

// New creates and registers the server metrics.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		connectionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "streamhub_rtmp_connections_total",
			Help: "Total number of accepted RTMP connections",
		}),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "streamhub_rtmp_active_sessions",
			Help: "Number of open RTMP sessions",
		}),
		handshakesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "streamhub_rtmp_handshakes_total",
			Help: "RTMP handshakes by outcome (schema0, schema1, simple, failed)",
		}, []string{"kind"}),
		mediaPacketsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "streamhub_media_packets_total",
			Help: "Media packets written to the registry by type",
		}, []string{"type"}),
		writersEvicted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "streamhub_writers_evicted_total",
			Help: "Writers removed after a failed delivery",
		}),
		activeStreams: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "streamhub_active_streams",
			Help: "Number of registry entries",
		}),
		idleReaped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "streamhub_idle_sessions_reaped_total",
			Help: "RTMP sessions closed by the idle reaper",
		}),
		httpRequests: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "streamhub_http_requests_total",
			Help: "Total number of HTTP requests received",
		}),
		httpErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "streamhub_http_errors_total",
			Help: "HTTP responses with a 4xx or 5xx status",
		}),
	}
	m.registry.MustRegister(
		m.connectionsTotal,
		m.activeSessions,
		m.handshakesTotal,
		m.mediaPacketsTotal,
		m.writersEvicted,
		m.activeStreams,
		m.idleReaped,
		m.httpRequests,
		m.httpErrors,
	)
	return m
}

// Registry returns the underlying Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ConnectionAccepted counts an accepted RTMP connection.
func (m *Metrics) ConnectionAccepted() {
	m.connectionsTotal.Inc()
}

// SessionOpened increments the active session gauge.
func (m *Metrics) SessionOpened() {
	m.activeSessions.Inc()
}

// SessionClosed decrements the active session gauge.
func (m *Metrics) SessionClosed() {
	m.activeSessions.Dec()
}

// Handshake counts a handshake outcome.
func (m *Metrics) Handshake(kind string) {
	m.handshakesTotal.WithLabelValues(kind).Inc()
}

// MediaPacket counts a packet written to the registry.
func (m *Metrics) MediaPacket(avType string) {
	m.mediaPacketsTotal.WithLabelValues(avType).Inc()
}

// WriterEvicted counts an evicted writer.
func (m *Metrics) WriterEvicted() {
	m.writersEvicted.Inc()
}

// IdleReaped counts a session closed for inactivity.
func (m *Metrics) IdleReaped() {
	m.idleReaped.Inc()
}

// SetActiveStreams sets the active streams gauge.
func (m *Metrics) SetActiveStreams(n int) {
	m.activeStreams.Set(float64(n))
}

// Handler returns an http.Handler that serves Prometheus metrics.
// updateGauges is called before each scrape to refresh gauge values.
func (m *Metrics) Handler(updateGauges func()) http.Handler {
	h := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if updateGauges != nil {
			updateGauges()
		}
		h.ServeHTTP(w, r)
	})
}

// statusRecorder captures the response status.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

// WriteHeader records the status code.
func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Flush forwards to the wrapped writer so streaming responses keep working.
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Hijack forwards to the wrapped writer for WebSocket upgrades.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

// Unwrap exposes the wrapped writer to http.ResponseController.
func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// Middleware counts requests and error responses.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.httpRequests.Inc()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		if rec.status >= 400 {
			m.httpErrors.Inc()
		}
	})
}
