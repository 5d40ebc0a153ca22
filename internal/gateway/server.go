package gateway

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// buildRouter constructs the chi mux with all routes wired.
func (g *Gateway) buildRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	// Public.
	r.Get("/health", g.handleHealth())
	if g.deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", g.deps.Metrics.Handler())
	}

	r.Group(func(r chi.Router) {
		r.Use(apiKeyMiddleware(g.cfg.APIKey, g.deps.Audit, g.logger))

		r.With(g.throttle).Post("/trigger-check", g.handleTriggerCheck())

		r.Route("/api", func(r chi.Router) {
			r.Get("/status", g.handleStatus())
			r.Get("/schedule", g.handleSchedule())
			r.Get("/checks", g.handleChecks())
			r.Post("/reconcile", g.handleReconcile())
		})
	})

	return r
}

// errorResponse matches the {"detail": ...} body clients of the trigger
// endpoint already parse.
type errorResponse struct {
	Detail string `json:"detail"`
}

// writeJSON encodes v as JSON with the given status code.
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, detail string) {
	writeJSON(w, code, errorResponse{Detail: detail})
}
