/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the back-office frontend

ROUTE GROUPS:
  /api/documents/*   Document issuance and lookup
  /api/clients/*     Client registration
  /api/sequences/*   Next-number previews
  /api/quotes/*      Breakdown, slab, and triangle calculations (no persistence)
  /api/catalog       Product terms

SECURITY NOTE:
  No authentication middleware; this service sits behind the back-office
  gateway which owns auth.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Document routes
		r.Route("/documents", func(r chi.Router) {
			r.Get("/", h.ListDocuments)
			r.Post("/", h.IssueDocument)
			r.Get("/{id}", h.GetDocument)
		})

		// Client routes
		r.Route("/clients", func(r chi.Router) {
			r.Get("/", h.ListClients)
			r.Post("/", h.RegisterClient)
		})

		// Sequence routes
		r.Route("/sequences", func(r chi.Router) {
			r.Get("/{entity}/peek", h.PeekSequence)
		})

		// Quote routes (pure calculations, nothing persists)
		r.Route("/quotes", func(r chi.Router) {
			r.Post("/breakdown", h.ComputeBreakdown)
			r.Get("/slab", h.SuggestSlab)
			r.Post("/solve", h.SolveTriangle)
		})

		// Catalog routes
		r.Get("/catalog", h.ListCatalog)
	})

	return r
}
