package handler

import (
	"log/slog"
	"net/http"
	"time"
)

// SessionCounter reports the number of live wallet sessions.
type SessionCounter interface {
	Active() int
}

// HealthHandler serves the health-check endpoint.
type HealthHandler struct {
	sessions SessionCounter
	logger   *slog.Logger
}

// NewHealthHandler creates a HealthHandler. sessions may be nil.
func NewHealthHandler(sessions SessionCounter, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{sessions: sessions, logger: logger}
}

// HealthCheck responds with a simple JSON status indicating the server is alive.
// GET /api/health
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	if h.sessions != nil {
		resp["active_sessions"] = h.sessions.Active()
	}
	writeJSON(w, http.StatusOK, resp)
}
