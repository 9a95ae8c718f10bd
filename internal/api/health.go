package api

import (
	"net/http"
	"time"

	"github.com/arunsharma1203/grievance/internal/api/respond"
)

// HealthHandler reports cached service health.
type HealthHandler struct {
	isHealthy  func() bool
	components func() map[string]bool
}

// NewHealthHandler binds the service health functions. Nil functions report unhealthy/no components.
func NewHealthHandler(isHealthy func() bool, components func() map[string]bool) *HealthHandler {
	if isHealthy == nil {
		isHealthy = func() bool { return false }
	}
	if components == nil {
		components = func() map[string]bool { return nil }
	}
	return &HealthHandler{isHealthy: isHealthy, components: components}
}

// Root handles GET /
func (h *HealthHandler) Root(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// CheckHealth handles GET /health
// Always returns 200; body reports healthy/unhealthy. 500 indicates handler failure only.
func (h *HealthHandler) CheckHealth(w http.ResponseWriter, r *http.Request) {
	status := "unhealthy"
	if h.isHealthy() {
		status = "healthy"
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":     status,
		"components": h.components(),
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
	})
}
