// If you are AI: This file implements the HTTP handler for FLV stream requests.
// Handles GET /{app}/{name}.flv requests and manages subscriber lifecycle.

package httpflv

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"streamhub/internal/core/bus"
	"streamhub/internal/core/protocol/flv"
)

// Handler handles HTTP-FLV requests.
type Handler struct {
	registry  *bus.Registry
	queueSize int
	strategy  bus.BackpressureStrategy
	logger    *slog.Logger
}

// NewHandler creates a new HTTP-FLV handler.
func NewHandler(registry *bus.Registry, queueSize int, strategy bus.BackpressureStrategy, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		registry:  registry,
		queueSize: queueSize,
		strategy:  strategy,
		logger:    logger.With("component", "httpflv"),
	}
}

// streamKeyFromPath parses /{app}/{name}.flv.
func streamKeyFromPath(p string) (bus.StreamKey, bool) {
	p = strings.TrimPrefix(p, "/")
	if !strings.HasSuffix(p, ".flv") {
		return bus.StreamKey{}, false
	}
	app, name, ok := strings.Cut(strings.TrimSuffix(p, ".flv"), "/")
	if !ok || app == "" || name == "" || strings.Contains(name, "/") {
		return bus.StreamKey{}, false
	}
	return bus.NewStreamKey(app, name), true
}

// ServeHTTP handles HTTP requests for FLV streams.
// Endpoint: GET /{app}/{name}.flv
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	key, ok := streamKeyFromPath(r.URL.Path)
	if !ok {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	info, ok := h.registry.Info(key)
	if !ok || !info.HasPublisher {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	var flush func()
	if f, ok := w.(http.Flusher); ok {
		flush = f.Flush
	}
	sub := NewSubscriber(w, flush, key, h.queueSize, h.strategy)
	h.registry.AddPlayer(sub.Writer())
	defer func() {
		h.registry.RemovePlayer(sub.Writer())
		sub.Close()
	}()

	w.Header().Set("Content-Type", "video/x-flv")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)

	if err := sub.WriteHeader(flv.HeaderFor(info)); err != nil {
		return
	}

	logger := h.logger.With("stream", key.String(), "remote", r.RemoteAddr)
	logger.Info("flv client attached")
	err := sub.ProcessPackets(r.Context())
	switch {
	case err == nil:
		logger.Info("flv client detached")
	case isEvicted(err):
		logger.Warn("flv client fell behind", "dropped", sub.Writer().Dropped())
	default:
		logger.Debug("flv client write failed", "error", err)
	}
}

// RegisterRoutes registers HTTP-FLV routes on the given router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/{app}/{file}", h.ServeHTTP)
}
