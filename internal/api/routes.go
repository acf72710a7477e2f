// Package api assembles the HTTP surface of agentd.
package api

import (
	"net/http"

	"github.com/effective-security/agentd/internal/api/handlers"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter creates and configures the chi router with all routes.
func NewRouter(h *handlers.AgentHandler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check, used by load balancers and health probes.
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok","service":"agentd"}`)) //nolint:errcheck
	})

	r.Post("/execute", h.Execute)
	r.Post("/reset", h.Reset)

	return r
}
