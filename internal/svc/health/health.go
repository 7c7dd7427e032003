// If you are AI: This file implements the health check endpoints for monitoring and integration tests.

package health

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Check reports an error when a dependency is not ready.
type Check func() error

// Service provides health check functionality.
type Service struct {
	checks map[string]Check
}

// New creates a new health service instance.
// Checks are consulted by /readyz only.
func New(checks map[string]Check) *Service {
	return &Service{checks: checks}
}

// RegisterRoutes adds /healthz and /readyz.
func (s *Service) RegisterRoutes(r chi.Router) {
	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
}

// handleHealth returns 200 OK while the process is running.
func (s *Service) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// handleReady runs every check and returns 503 listing the failures.
func (s *Service) handleReady(w http.ResponseWriter, r *http.Request) {
	failures := make(map[string]string)
	for name, check := range s.checks {
		if err := check(); err != nil {
			failures[name] = err.Error()
		}
	}
	w.Header().Set("Content-Type", "application/json")
	if len(failures) > 0 {
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]any{"status": "unavailable", "failures": failures})
		return
	}
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]any{"status": "ok"})
}
