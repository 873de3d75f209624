package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hongminglow/health-risk-be/internal/http/respond"
)

// HealthHandler returns uptime and basic status.
type HealthHandler struct {
	startedAt time.Time
	models    []string
}

// NewHealthHandler creates a health endpoint handler.
func NewHealthHandler(startedAt time.Time, models []string) *HealthHandler {
	return &HealthHandler{startedAt: startedAt, models: models}
}

// Routes attaches the handler to r.
func (h *HealthHandler) Routes(r chi.Router) {
	r.Get("/", h.handleRoot)
	r.Get("/health", h.handleHealth)
}

func (h *HealthHandler) handleRoot(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, "Health risk prediction API is running", nil)
}

func (h *HealthHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, "ok", map[string]any{
		"status": "ok",
		"uptime": time.Since(h.startedAt).Truncate(time.Second).String(),
		"models": h.models,
	})
}
