// If you are AI: This file provides WebSocket-FLV service integration.
// The service is mounted on the main HTTP router.

package wsflv

import (
	"log/slog"

	"github.com/go-chi/chi/v5"

	"streamhub/internal/core/bus"
)

// Service provides WebSocket-FLV streaming functionality.
type Service struct {
	handler *Handler
}

// NewService creates a new WebSocket-FLV service.
func NewService(registry *bus.Registry, queueSize int, strategy bus.BackpressureStrategy, logger *slog.Logger) *Service {
	return &Service{
		handler: NewHandler(registry, queueSize, strategy, logger),
	}
}

// RegisterRoutes registers WebSocket-FLV routes on the provided router.
func (s *Service) RegisterRoutes(r chi.Router) {
	s.handler.RegisterRoutes(r)
}
