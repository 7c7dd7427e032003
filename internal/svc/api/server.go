// If you are AI: This file provides HTTP API service integration.
// The API exposes server, stream and relay state without blocking media paths.

package api

import (
	"time"

	"github.com/go-chi/chi/v5"

	"streamhub/internal/core/bus"
	"streamhub/internal/svc/relay"
)

// Service provides HTTP API functionality.
type Service struct {
	registry  *bus.Registry
	relayMgr  RelayManager
	info      Info
	startTime time.Time
}

// RelayManager defines the interface for relay management.
// This allows the API to work with relay manager without tight coupling.
type RelayManager interface {
	TaskCount() int
	Statuses() []relay.Status
}

// Info describes the running process for /api/server.
type Info struct {
	Version  string
	Services []string
	// Sessions reports open RTMP sessions; nil reports zero.
	Sessions func() int
}

// NewService creates a new API service.
func NewService(registry *bus.Registry, relayMgr RelayManager, info Info) *Service {
	return &Service{
		registry:  registry,
		relayMgr:  relayMgr,
		info:      info,
		startTime: timeNow(),
	}
}

// RegisterRoutes registers API routes on the provided router.
func (s *Service) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/server", s.handleServer)
		r.Get("/streams", s.handleStreams)
		r.Get("/streams/{app}/{name}", s.handleStream)
		r.Get("/relay", s.handleRelay)
	})
}

// timeNow is replaced in tests.
var timeNow = time.Now
