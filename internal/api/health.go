package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hirevox/interview-server/internal/interview"
)

// HealthHandler reports service readiness and interview activity.
type HealthHandler struct {
	store     *interview.Store
	aiEnabled bool
}

// NewHealthHandler creates a health handler. aiEnabled reflects whether the
// gateway is configured with credentials.
func NewHealthHandler(store *interview.Store, aiEnabled bool) *HealthHandler {
	return &HealthHandler{store: store, aiEnabled: aiEnabled}
}

// RegisterHealth registers the health route.
func (h *HealthHandler) RegisterHealth(r chi.Router) {
	r.Get("/api/health", h.handleHealth)
}

func (h *HealthHandler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	JSON(w, http.StatusOK, map[string]interface{}{
		"status":          "ok",
		"active_sessions": h.store.Len(),
		"ai_enabled":      h.aiEnabled,
	})
}
