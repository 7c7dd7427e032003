// If you are AI: This file provides HTTP-FLV service integration.
// The service is mounted on the main HTTP router.

package httpflv

import (
	"log/slog"

	"github.com/go-chi/chi/v5"

	"streamhub/internal/core/bus"
)

// Service provides HTTP-FLV streaming functionality.
type Service struct {
	handler *Handler
}

// NewService creates a new HTTP-FLV service.
func NewService(registry *bus.Registry, queueSize int, strategy bus.BackpressureStrategy, logger *slog.Logger) *Service {
	return &Service{
		handler: NewHandler(registry, queueSize, strategy, logger),
	}
}

// RegisterRoutes registers HTTP-FLV routes on the provided router.
func (s *Service) RegisterRoutes(r chi.Router) {
	s.handler.RegisterRoutes(r)
}
