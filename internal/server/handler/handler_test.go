package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nodoventures/vaultsight/internal/domain"
	"github.com/nodoventures/vaultsight/internal/service"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// serveWithPath runs a handler through a mux so PathValue works.
func serveWithPath(pattern string, h http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	mux.HandleFunc(pattern, h)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

type fakeActivityService struct {
	page domain.ActivityPage
	got  domain.ActivityQuery
}

func (f *fakeActivityService) GetActivities(_ context.Context, q domain.ActivityQuery) (domain.ActivityPage, error) {
	f.got = q
	return f.page, nil
}

func TestListActivities(t *testing.T) {
	svc := &fakeActivityService{page: domain.ActivityPage{
		Total: 1,
		List: []domain.Transaction{{
			ID:   "a1",
			Type: domain.ActionSwap,
			Time: time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC),
			Tokens: []domain.TokenLeg{
				{TokenSymbol: "USDC", Amount: 48_000_000, Decimal: 6, Price: "1.00"},
				{TokenSymbol: "SUI", Amount: 13_000_000_000, Decimal: 9, Price: "4.00"},
			},
			Reason: "Recenter range",
		}},
	}}
	h := NewActivityHandler(svc, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/vaults/v1/activities?action_type=SWAP&time_range=24h&limit=500", nil)
	rec := serveWithPath("GET /api/vaults/{id}/activities", h.ListActivities, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "v1", svc.got.VaultID)
	assert.Equal(t, domain.ActionSwap, svc.got.ActionType)
	assert.Equal(t, domain.Range24h, svc.got.TimeRange)
	assert.Equal(t, 100, svc.got.Limit, "limit is clamped to 100")

	var resp listActivitiesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.List, 1)

	row := resp.List[0]
	assert.Equal(t, "Swap", row.Label)
	require.Len(t, row.Tokens, 2)
	assert.InDelta(t, 48, row.Tokens[0].USD, 1e-9)
	assert.Equal(t, -1, row.Tokens[0].Sign, "sold swap leg is negative")
	assert.Equal(t, 1, row.Tokens[1].Sign)
}

type fakeInsightService struct {
	summary *domain.Summary
	err     error
}

func (f *fakeInsightService) GetInsights(context.Context, domain.SummaryKey) (*domain.Summary, error) {
	return f.summary, f.err
}

func (f *fakeInsightService) Refresh(context.Context, domain.SummaryKey) (*domain.Summary, error) {
	return f.summary, f.err
}

func TestGetInsights(t *testing.T) {
	h := NewInsightHandler(&fakeInsightService{summary: &domain.Summary{
		Net:    200,
		Driver: domain.Driver{Name: "stable_operation", Confidence: 0.4},
	}}, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/vaults/v1/insights", nil)
	rec := serveWithPath("GET /api/vaults/{id}/insights", h.GetInsights, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp insightResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.NoData)
	require.NotNil(t, resp.Summary)
	assert.InDelta(t, 200, resp.Summary.Net, 1e-9)
}

func TestGetInsightsNoData(t *testing.T) {
	h := NewInsightHandler(&fakeInsightService{err: domain.ErrNoData}, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/vaults/v1/insights", nil)
	rec := serveWithPath("GET /api/vaults/{id}/insights", h.GetInsights, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp insightResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.NoData)
	assert.Nil(t, resp.Summary)
}

func TestRefreshInsightsSuperseded(t *testing.T) {
	h := NewInsightHandler(&fakeInsightService{err: domain.ErrStale}, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/vaults/v1/insights/refresh", nil)
	rec := serveWithPath("POST /api/vaults/{id}/insights/refresh", h.RefreshInsights, req)

	assert.Equal(t, http.StatusAccepted, rec.Code)
}

type fakeHoldingService struct {
	gotWallet string
}

func (f *fakeHoldingService) GetHolding(_ context.Context, vaultID, wallet string) (domain.HoldingStats, []domain.Attribution, error) {
	f.gotWallet = wallet
	return domain.HoldingStats{VaultID: vaultID, Wallet: wallet},
		[]domain.Attribution{{Window: domain.WindowSinceDeposit}, {Window: domain.Window24h}},
		nil
}

func TestGetHoldingResolvesSessionWallet(t *testing.T) {
	sessions := service.NewSessionService(time.Hour, testLogger())
	sess, err := sessions.Connect(context.Background(), "0xwallet")
	require.NoError(t, err)

	svc := &fakeHoldingService{}
	h := NewHoldingHandler(svc, sessions, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/vaults/v1/holding", nil)
	req.Header.Set("X-Session-Token", sess.Token)
	rec := serveWithPath("GET /api/vaults/{id}/holding", h.GetHolding, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "0xwallet", svc.gotWallet)

	var resp holdingResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Attribution, 2)
}

func TestGetHoldingRejectsBadToken(t *testing.T) {
	sessions := service.NewSessionService(time.Hour, testLogger())
	h := NewHoldingHandler(&fakeHoldingService{}, sessions, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/vaults/v1/holding", nil)
	req.Header.Set("X-Session-Token", "bogus")
	rec := serveWithPath("GET /api/vaults/{id}/holding", h.GetHolding, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGetHoldingRequiresWalletOrToken(t *testing.T) {
	sessions := service.NewSessionService(time.Hour, testLogger())
	h := NewHoldingHandler(&fakeHoldingService{}, sessions, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/vaults/v1/holding", nil)
	rec := serveWithPath("GET /api/vaults/{id}/holding", h.GetHolding, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

type fakeBreakdownService struct {
	bd domain.Breakdown
}

func (f *fakeBreakdownService) GetBreakdown(context.Context, string) (domain.Breakdown, error) {
	return f.bd, nil
}

func TestGetBreakdown(t *testing.T) {
	h := NewBreakdownHandler(&fakeBreakdownService{bd: domain.Breakdown{
		Top: []domain.BreakdownSlice{
			{Label: "USDC/SUI", Percent: 62.5, USD: 125000, Color: "#52BDE1"},
		},
		Others: &domain.BreakdownSlice{Label: "Others", Percent: 37.5, USD: 75000, Color: "#6B7280"},
		AsOf:   time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC),
	}}, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/vaults/v1/breakdown", nil)
	rec := serveWithPath("GET /api/vaults/{id}/breakdown", h.GetBreakdown, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp breakdownResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Top, 1)
	assert.Equal(t, "62.5%", resp.Top[0].PercentDisplay)
	require.NotNil(t, resp.Others)
	assert.Equal(t, "37.5%", resp.Others.PercentDisplay)
}

func TestSessionConnectDisconnect(t *testing.T) {
	sessions := service.NewSessionService(time.Hour, testLogger())
	h := NewSessionHandler(sessions, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/session/connect",
		strings.NewReader(`{"wallet":"0xabc"}`))
	rec := httptest.NewRecorder()
	h.Connect(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var sess service.Session
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sess))
	assert.NotEmpty(t, sess.Token)

	req = httptest.NewRequest(http.MethodPost, "/api/session/disconnect", nil)
	req.Header.Set("X-Session-Token", sess.Token)
	rec = httptest.NewRecorder()
	h.Disconnect(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, sessions.Active())
}

func TestSessionConnectValidation(t *testing.T) {
	h := NewSessionHandler(service.NewSessionService(time.Hour, testLogger()), testLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/session/connect", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	h.Connect(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/session/connect", strings.NewReader(`not json`))
	rec = httptest.NewRecorder()
	h.Connect(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
