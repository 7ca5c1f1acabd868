package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/nodoventures/vaultsight/internal/domain"
	"github.com/nodoventures/vaultsight/internal/service"
)

// HoldingService defines the methods the holding handler requires.
type HoldingService interface {
	GetHolding(ctx context.Context, vaultID, wallet string) (domain.HoldingStats, []domain.Attribution, error)
}

// SessionResolver resolves a session token to its session.
type SessionResolver interface {
	Get(ctx context.Context, token string) (*service.Session, error)
}

// HoldingHandler serves per-wallet holding stats and P&L attribution.
type HoldingHandler struct {
	holdings HoldingService
	sessions SessionResolver
	logger   *slog.Logger
}

// NewHoldingHandler creates a HoldingHandler.
func NewHoldingHandler(holdings HoldingService, sessions SessionResolver, logger *slog.Logger) *HoldingHandler {
	return &HoldingHandler{
		holdings: holdings,
		sessions: sessions,
		logger:   logger,
	}
}

// holdingResponse wraps the holding snapshot plus both attribution windows.
type holdingResponse struct {
	Holding     domain.HoldingStats  `json:"holding"`
	Attribution []domain.Attribution `json:"attribution"`
}

// GetHolding returns the connected wallet's position in a vault.
// GET /api/vaults/{id}/holding
//
// The wallet is resolved from the session token in the X-Session-Token
// header; a wallet query parameter is accepted as a fallback for
// unauthenticated read-only tooling.
func (h *HoldingHandler) GetHolding(w http.ResponseWriter, r *http.Request) {
	vaultID := pathParam(r, "id")
	if vaultID == "" {
		writeError(w, http.StatusBadRequest, "vault id required")
		return
	}

	wallet := r.URL.Query().Get("wallet")
	if token := r.Header.Get("X-Session-Token"); token != "" {
		sess, err := h.sessions.Get(r.Context(), token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid or expired session")
			return
		}
		wallet = sess.Wallet
	}
	if wallet == "" {
		writeError(w, http.StatusBadRequest, "session token or wallet query parameter required")
		return
	}

	stats, attrs, err := h.holdings.GetHolding(r.Context(), vaultID, wallet)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: get holding failed",
			slog.String("vault_id", vaultID),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to fetch holding")
		return
	}

	writeJSON(w, http.StatusOK, holdingResponse{
		Holding:     stats,
		Attribution: attrs,
	})
}
