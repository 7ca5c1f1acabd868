package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/nodoventures/vaultsight/internal/domain"
)

// AuditHandler serves the operational audit log (archive runs and similar
// background events).
type AuditHandler struct {
	store  domain.AuditStore
	logger *slog.Logger
}

// NewAuditHandler creates an AuditHandler backed by the given store.
func NewAuditHandler(store domain.AuditStore, logger *slog.Logger) *AuditHandler {
	return &AuditHandler{store: store, logger: logHandler(logger, "audit")}
}

// ListEntries returns audit entries, newest first.
// GET /api/audit?limit=&offset=&since=&until=
func (h *AuditHandler) ListEntries(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	opts := domain.ListOpts{Limit: 50}
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 500 {
			opts.Limit = n
		}
	}
	if v := q.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			opts.Offset = n
		}
	}
	if v := q.Get("since"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid since timestamp")
			return
		}
		opts.Since = &t
	}
	if v := q.Get("until"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid until timestamp")
			return
		}
		opts.Until = &t
	}

	entries, err := h.store.List(r.Context(), opts)
	if err != nil {
		h.logger.Error("list audit entries failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to list audit entries")
		return
	}

	items := make([]map[string]any, 0, len(entries))
	for _, e := range entries {
		items = append(items, map[string]any{
			"id":         e.ID,
			"event":      e.Event,
			"detail":     e.Detail,
			"created_at": e.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": items})
}
