package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nodoventures/vaultsight/internal/domain"
)

type fakeAuditStore struct {
	entries []domain.AuditEntry
	got     domain.ListOpts
}

func (f *fakeAuditStore) Log(_ context.Context, _ string, _ map[string]any) error {
	return nil
}

func (f *fakeAuditStore) List(_ context.Context, opts domain.ListOpts) ([]domain.AuditEntry, error) {
	f.got = opts
	return f.entries, nil
}

func TestListAuditEntries(t *testing.T) {
	store := &fakeAuditStore{entries: []domain.AuditEntry{{
		ID:        7,
		Event:     "archive.activities",
		Detail:    map[string]any{"count": float64(120)},
		CreatedAt: time.Date(2026, 8, 1, 3, 0, 0, 0, time.UTC),
	}}}
	h := NewAuditHandler(store, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/audit?limit=10&since=2026-07-01T00:00:00Z", nil)
	rec := httptest.NewRecorder()
	h.ListEntries(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 10, store.got.Limit)
	require.NotNil(t, store.got.Since)
	assert.Equal(t, 2026, store.got.Since.Year())

	var body struct {
		Entries []map[string]any `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Entries, 1)
	assert.Equal(t, "archive.activities", body.Entries[0]["event"])
	assert.Equal(t, "2026-08-01T03:00:00Z", body.Entries[0]["created_at"])
}

func TestListAuditEntriesRejectsBadTimestamp(t *testing.T) {
	h := NewAuditHandler(&fakeAuditStore{}, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/audit?since=yesterday", nil)
	rec := httptest.NewRecorder()
	h.ListEntries(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListAuditEntriesEmpty(t *testing.T) {
	h := NewAuditHandler(&fakeAuditStore{}, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/audit", nil)
	rec := httptest.NewRecorder()
	h.ListEntries(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"entries":[]}`, rec.Body.String())
}
