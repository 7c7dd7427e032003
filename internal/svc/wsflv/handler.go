// If you are AI: This file implements the WebSocket handler for FLV stream requests.
// Handles GET /ws/{app}/{name} requests and manages subscriber lifecycle.

package wsflv

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"streamhub/internal/core/bus"
	"streamhub/internal/core/protocol/flv"
)

// Handler handles WebSocket-FLV requests.
type Handler struct {
	registry  *bus.Registry
	queueSize int
	strategy  bus.BackpressureStrategy
	logger    *slog.Logger
	upgrader  websocket.Upgrader
}

// NewHandler creates a new WebSocket-FLV handler.
func NewHandler(registry *bus.Registry, queueSize int, strategy bus.BackpressureStrategy, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		registry:  registry,
		queueSize: queueSize,
		strategy:  strategy,
		logger:    logger.With("component", "wsflv"),
		upgrader: websocket.Upgrader{
			// Browser players are served from other origins.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// streamKeyFromPath parses /ws/{app}/{name}.
func streamKeyFromPath(p string) (bus.StreamKey, bool) {
	rest, ok := strings.CutPrefix(p, "/ws/")
	if !ok {
		return bus.StreamKey{}, false
	}
	app, name, ok := strings.Cut(rest, "/")
	if !ok || app == "" || name == "" || strings.Contains(name, "/") {
		return bus.StreamKey{}, false
	}
	return bus.NewStreamKey(app, strings.TrimSuffix(name, ".flv")), true
}

// ServeHTTP handles WebSocket upgrade and FLV streaming.
// Endpoint: GET /ws/{app}/{name}
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

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied with an error.
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	// The client never sends media; reading processes close and ping frames.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	sub := NewSubscriber(conn, key, h.queueSize, h.strategy)
	h.registry.AddPlayer(sub.Writer())
	defer func() {
		h.registry.RemovePlayer(sub.Writer())
		sub.Close()
	}()

	if err := sub.WriteHeader(flv.HeaderFor(info)); err != nil {
		return
	}

	logger := h.logger.With("stream", key.String(), "remote", r.RemoteAddr)
	logger.Info("websocket client attached")
	err = sub.ProcessPackets(ctx)
	switch {
	case err == nil:
		logger.Info("websocket client detached")
	case errors.Is(err, bus.ErrWriterClosed):
		logger.Warn("websocket client fell behind", "dropped", sub.Writer().Dropped())
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "too slow"))
	default:
		logger.Debug("websocket write failed", "error", err)
	}
}

// RegisterRoutes registers WebSocket-FLV routes on the given router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/ws/{app}/{name}", h.ServeHTTP)
}
