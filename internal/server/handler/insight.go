package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/nodoventures/vaultsight/internal/domain"
)

// InsightService defines the methods the insight handler requires.
type InsightService interface {
	GetInsights(ctx context.Context, key domain.SummaryKey) (*domain.Summary, error)
	Refresh(ctx context.Context, key domain.SummaryKey) (*domain.Summary, error)
}

// InsightHandler serves the computed flow summaries and driver analysis.
type InsightHandler struct {
	insights InsightService
	logger   *slog.Logger
}

// NewInsightHandler creates an InsightHandler.
func NewInsightHandler(insights InsightService, logger *slog.Logger) *InsightHandler {
	return &InsightHandler{
		insights: insights,
		logger:   logger,
	}
}

// insightResponse wraps the summary; NoData distinguishes "no matching
// activity" from an all-zero summary.
type insightResponse struct {
	NoData  bool            `json:"no_data"`
	Summary *domain.Summary `json:"summary,omitempty"`
}

// GetInsights returns the flow summary for a vault.
// GET /api/vaults/{id}/insights?time_range=24h&action_type=SWAP
func (h *InsightHandler) GetInsights(w http.ResponseWriter, r *http.Request) {
	vaultID := pathParam(r, "id")
	if vaultID == "" {
		writeError(w, http.StatusBadRequest, "vault id required")
		return
	}

	key := domain.SummaryKey{
		VaultID:    vaultID,
		TimeRange:  domain.TimeRange(r.URL.Query().Get("time_range")),
		ActionType: domain.ActionType(r.URL.Query().Get("action_type")),
	}

	sum, err := h.insights.GetInsights(r.Context(), key)
	if err != nil {
		if errors.Is(err, domain.ErrNoData) {
			writeJSON(w, http.StatusOK, insightResponse{NoData: true})
			return
		}
		h.logger.ErrorContext(r.Context(), "handler: get insights failed",
			slog.String("vault_id", vaultID),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to compute insights")
		return
	}

	writeJSON(w, http.StatusOK, insightResponse{Summary: sum})
}

// RefreshInsights forces a recomputation for a vault, bypassing the cache.
// POST /api/vaults/{id}/insights/refresh
func (h *InsightHandler) RefreshInsights(w http.ResponseWriter, r *http.Request) {
	vaultID := pathParam(r, "id")
	if vaultID == "" {
		writeError(w, http.StatusBadRequest, "vault id required")
		return
	}

	key := domain.SummaryKey{
		VaultID:    vaultID,
		TimeRange:  domain.TimeRange(r.URL.Query().Get("time_range")),
		ActionType: domain.ActionType(r.URL.Query().Get("action_type")),
	}

	sum, err := h.insights.Refresh(r.Context(), key)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNoData):
			writeJSON(w, http.StatusOK, insightResponse{NoData: true})
		case errors.Is(err, domain.ErrStale):
			// A newer refresh superseded this one; its result is on the way.
			writeJSON(w, http.StatusAccepted, map[string]string{"status": "superseded"})
		default:
			h.logger.ErrorContext(r.Context(), "handler: refresh insights failed",
				slog.String("vault_id", vaultID),
				slog.String("error", err.Error()),
			)
			writeError(w, http.StatusInternalServerError, "failed to refresh insights")
		}
		return
	}

	writeJSON(w, http.StatusOK, insightResponse{Summary: sum})
}
