package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/nodoventures/vaultsight/internal/service"
)

// SessionManager defines the methods the session handler requires.
type SessionManager interface {
	Connect(ctx context.Context, wallet string) (*service.Session, error)
	Disconnect(ctx context.Context, token string)
}

// SessionHandler serves wallet connect/disconnect endpoints.
type SessionHandler struct {
	sessions SessionManager
	logger   *slog.Logger
}

// NewSessionHandler creates a SessionHandler.
func NewSessionHandler(sessions SessionManager, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{
		sessions: sessions,
		logger:   logger,
	}
}

// connectRequest is the connect request body.
type connectRequest struct {
	Wallet string `json:"wallet"`
}

// Connect opens a session for a wallet and returns its token.
// POST /api/session/connect
func (h *SessionHandler) Connect(w http.ResponseWriter, r *http.Request) {
	var req connectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Wallet == "" {
		writeError(w, http.StatusBadRequest, "wallet required")
		return
	}

	sess, err := h.sessions.Connect(r.Context(), req.Wallet)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: connect failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to open session")
		return
	}

	writeJSON(w, http.StatusOK, sess)
}

// Disconnect ends the session named by the X-Session-Token header. It
// succeeds even when the token is unknown; the end state is the same.
// POST /api/session/disconnect
func (h *SessionHandler) Disconnect(w http.ResponseWriter, r *http.Request) {
	token := r.Header.Get("X-Session-Token")
	if token == "" {
		writeError(w, http.StatusBadRequest, "session token required")
		return
	}

	h.sessions.Disconnect(r.Context(), token)
	writeJSON(w, http.StatusOK, map[string]string{"status": "disconnected"})
}
