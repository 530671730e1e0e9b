package gateway

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// buildRouter constructs the chi mux with all routes wired.
func (g *Gateway) buildRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	// Public, no auth required.
	r.Get("/health", g.handleHealth())
	r.Method(http.MethodGet, "/metrics", g.handleMetrics())

	// Action API, auth required. Not mounted if no auth configured.
	if g.config.Auth.IsConfigured() {
		r.Group(func(r chi.Router) {
			auth := &authenticator{cfg: g.config.Auth, audit: g.audit, limiter: g.rateLimiter}
			r.Use(auth.middleware)
			r.Route("/api", func(r chi.Router) {
				r.Get("/status", g.handleStatus())
				r.Get("/actions", g.handleListActions())
				r.Get("/actions/{id}", g.handleGetAction())
				r.Post("/actions/{id}/approve", g.handleApproveAction())
				r.Post("/actions/{id}/reject", g.handleRejectAction())
			})
		})
	}

	return r
}
