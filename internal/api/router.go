package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Route("/monitors", func(r chi.Router) {
			r.Get("/", s.handleListMonitors)
			r.Post("/", s.handleCreateMonitor)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetMonitor)
				r.Delete("/", s.handleDeleteMonitor)
				r.Get("/history", s.handleHistory)
			})
		})
	})

	return r
}

// handleHealth returns the server health status, including whether the
// history store is taking writes.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	warehouseUp := s.store != nil && s.store.Available()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"version":   s.version,
		"warehouse": warehouseUp,
	})
}
