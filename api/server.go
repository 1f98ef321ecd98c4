/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for notebooks and dashboards

ROUTE GROUPS:
  /api/environments/*   Environment definitions, spaces, kernels, episodes
  /api/episodes/*       Live episodes and journals
  /api/presets/*        Ready-made environments
  /                     Plain index of the API

SECURITY NOTE:
  No authentication middleware. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// DefaultOrigins are allowed when NewRouter gets none.
var DefaultOrigins = []string{"http://localhost:5173", "http://localhost:8080"}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, allowedOrigins ...string) *chi.Mux {
	if len(allowedOrigins) == 0 {
		allowedOrigins = DefaultOrigins
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Route("/environments", func(r chi.Router) {
			r.Get("/", h.ListEnvironments)
			r.Post("/", h.CreateEnvironment)
			r.Get("/{id}", h.GetEnvironment)
			r.Get("/{id}/spaces", h.GetSpaces)
			r.Get("/{id}/transitions", h.GetTransitions)
			r.Get("/{id}/transitions/chart", h.GetTransitionChart)
			r.Get("/{id}/episodes", h.ListEpisodes)
			r.Post("/{id}/episodes", h.CreateEpisode)
			r.Post("/{id}/rollouts", h.Rollout)
		})

		r.Route("/episodes", func(r chi.Router) {
			r.Get("/{id}", h.GetEpisode)
			r.Post("/{id}/step", h.StepEpisode)
		})

		r.Route("/presets", func(r chi.Router) {
			r.Get("/", h.ListPresets)
			r.Post("/load", h.LoadPreset)
		})
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<!DOCTYPE html>
<html>
<head><title>Food Truck MDP Engine</title></head>
<body style="font-family: system-ui; max-width: 800px; margin: 50px auto; padding: 20px;">
<h1>Food Truck MDP Engine API</h1>
<h2>API Endpoints</h2>
<ul>
<li><a href="/api/environments">/api/environments</a> - List environments</li>
<li><a href="/api/presets">/api/presets</a> - List presets</li>
</ul>
</body>
</html>`))
	})

	return r
}
