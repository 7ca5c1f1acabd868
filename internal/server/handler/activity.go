package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/nodoventures/vaultsight/internal/domain"
	"github.com/nodoventures/vaultsight/internal/insights"
)

// ActivityService defines the methods the activity handler requires.
type ActivityService interface {
	GetActivities(ctx context.Context, q domain.ActivityQuery) (domain.ActivityPage, error)
}

// ActivityHandler serves the vault activity feed.
type ActivityHandler struct {
	activities ActivityService
	logger     *slog.Logger
}

// NewActivityHandler creates an ActivityHandler.
func NewActivityHandler(activities ActivityService, logger *slog.Logger) *ActivityHandler {
	return &ActivityHandler{
		activities: activities,
		logger:     logger,
	}
}

// activityLeg is one token side of a row, annotated with its display sign
// and USD value so clients don't re-derive them.
type activityLeg struct {
	TokenSymbol string  `json:"token_symbol"`
	TokenName   string  `json:"token_name"`
	Amount      int64   `json:"amount"`
	Decimal     int     `json:"decimal"`
	Price       string  `json:"price"`
	USD         float64 `json:"usd"`
	Sign        int     `json:"sign"`
}

// activityRow is one activity feed entry.
type activityRow struct {
	ID     string        `json:"id"`
	Type   string        `json:"type"`
	Label  string        `json:"label"`
	Time   string        `json:"time"`
	Value  string        `json:"value"`
	Tokens []activityLeg `json:"tokens"`
	Reason string        `json:"reason,omitempty"`
	TxHash string        `json:"tx_hash,omitempty"`
}

// listActivitiesResponse wraps the activity feed response.
type listActivitiesResponse struct {
	List  []activityRow `json:"list"`
	Total int           `json:"total"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
}

// ListActivities returns one page of a vault's activity feed.
// GET /api/vaults/{id}/activities?page=1&limit=20&action_type=SWAP&time_range=24h
func (h *ActivityHandler) ListActivities(w http.ResponseWriter, r *http.Request) {
	vaultID := pathParam(r, "id")
	if vaultID == "" {
		writeError(w, http.StatusBadRequest, "vault id required")
		return
	}

	q := parseActivityQuery(r, vaultID)

	page, err := h.activities.GetActivities(r.Context(), q)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: list activities failed",
			slog.String("vault_id", vaultID),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list activities")
		return
	}

	rows := make([]activityRow, 0, len(page.List))
	for i := range page.List {
		rows = append(rows, toActivityRow(&page.List[i]))
	}

	writeJSON(w, http.StatusOK, listActivitiesResponse{
		List:  rows,
		Total: page.Total,
		Page:  q.Page,
		Limit: q.Limit,
	})
}

func toActivityRow(tx *domain.Transaction) activityRow {
	row := activityRow{
		ID:     tx.ID,
		Type:   string(tx.Type),
		Label:  tx.Type.DisplayName(),
		Time:   tx.Time.UTC().Format(time.RFC3339),
		Value:  tx.Value,
		Reason: tx.Reason,
		TxHash: tx.TxHash,
	}
	for i := range tx.Tokens {
		leg := &tx.Tokens[i]
		row.Tokens = append(row.Tokens, activityLeg{
			TokenSymbol: leg.TokenSymbol,
			TokenName:   leg.TokenName,
			Amount:      leg.Amount,
			Decimal:     leg.Decimal,
			Price:       leg.Price,
			USD:         insights.LegUSD(leg),
			Sign:        insights.LegSign(tx.Type, i),
		})
	}
	return row
}
