package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// SetupRoutes configures all API routes.
func SetupRoutes(h *Handlers) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	// Health check
	r.Get("/health", h.HealthCheck)

	r.Route("/api", func(r chi.Router) {
		r.Get("/sections", h.GetSections)

		r.Route("/audits", func(r chi.Router) {
			r.Post("/", h.RunAudit)
			r.Get("/", h.ListAudits)
			r.Get("/{id}", h.GetAudit)
			r.Delete("/{id}", h.DeleteAudit)
			r.Get("/{id}/sections/{name}", h.GetAuditSection)
		})

		r.Get("/recommendations", h.GetRecommendations)
	})

	return r
}
