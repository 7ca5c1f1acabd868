package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/nodoventures/vaultsight/internal/domain"
	"github.com/nodoventures/vaultsight/internal/insights"
)

// BreakdownService defines the methods the breakdown handler requires.
type BreakdownService interface {
	GetBreakdown(ctx context.Context, vaultID string) (domain.Breakdown, error)
}

// BreakdownHandler serves the vault's LP pool allocation.
type BreakdownHandler struct {
	breakdowns BreakdownService
	logger     *slog.Logger
}

// NewBreakdownHandler creates a BreakdownHandler.
func NewBreakdownHandler(breakdowns BreakdownService, logger *slog.Logger) *BreakdownHandler {
	return &BreakdownHandler{
		breakdowns: breakdowns,
		logger:     logger,
	}
}

// breakdownSlice is one wedge of the allocation chart, with the percent
// pre-formatted for display.
type breakdownSlice struct {
	Label          string  `json:"label"`
	Percent        float64 `json:"percent"`
	PercentDisplay string  `json:"percent_display"`
	USD            float64 `json:"usd"`
	Color          string  `json:"color"`
	LastChangedAt  string  `json:"last_changed_at,omitempty"`
}

// breakdownResponse wraps the allocation response.
type breakdownResponse struct {
	Top    []breakdownSlice `json:"top"`
	Others *breakdownSlice  `json:"others,omitempty"`
	AsOf   string           `json:"as_of"`
}

// GetBreakdown returns the display-ready pool allocation for a vault.
// GET /api/vaults/{id}/breakdown
func (h *BreakdownHandler) GetBreakdown(w http.ResponseWriter, r *http.Request) {
	vaultID := pathParam(r, "id")
	if vaultID == "" {
		writeError(w, http.StatusBadRequest, "vault id required")
		return
	}

	bd, err := h.breakdowns.GetBreakdown(r.Context(), vaultID)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: get breakdown failed",
			slog.String("vault_id", vaultID),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to fetch breakdown")
		return
	}

	resp := breakdownResponse{
		Top:  make([]breakdownSlice, 0, len(bd.Top)),
		AsOf: bd.AsOf.UTC().Format(time.RFC3339),
	}
	for i := range bd.Top {
		resp.Top = append(resp.Top, toBreakdownSlice(&bd.Top[i]))
	}
	if bd.Others != nil {
		s := toBreakdownSlice(bd.Others)
		resp.Others = &s
	}

	writeJSON(w, http.StatusOK, resp)
}

func toBreakdownSlice(s *domain.BreakdownSlice) breakdownSlice {
	out := breakdownSlice{
		Label:          s.Label,
		Percent:        s.Percent,
		PercentDisplay: insights.FormatPercent(s.Percent),
		USD:            s.USD,
		Color:          s.Color,
	}
	if s.LastChangedAt != nil {
		out.LastChangedAt = s.LastChangedAt.UTC().Format(time.RFC3339)
	}
	return out
}
