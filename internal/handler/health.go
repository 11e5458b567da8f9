package handler

import (
	"database/sql"
	"net/http"

	"github.com/uniwhats/desk/internal/notifier"
)

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	db     *sql.DB
	bridge *notifier.Bridge
}

// NewHealthHandler creates a new health handler. bridge may be nil when
// the instance runs without NATS.
func NewHealthHandler(db *sql.DB, bridge *notifier.Bridge) *HealthHandler {
	return &HealthHandler{
		db:     db,
		bridge: bridge,
	}
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

// Ready handles GET /ready
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if err := h.db.PingContext(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"reason": "database unreachable",
		})
		return
	}

	if h.bridge != nil && !h.bridge.IsConnected() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"reason": "NATS not connected",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ready",
	})
}
