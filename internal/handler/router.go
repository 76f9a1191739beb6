package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/carbon-assistant/server/internal/agent/pipeline"
	"github.com/carbon-assistant/server/internal/metrics"
)

// NewRouter wires HTTP routes to the assistant.
func NewRouter(assistant *pipeline.Assistant, m *metrics.Metrics) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(CORS())

	NewAssistantHandler(assistant, m).RegisterRoutes(r)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", m.Handler())

	return r
}
