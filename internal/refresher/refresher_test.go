package refresher

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nodoventures/vaultsight/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// --- ingestor ---

type fakeActivityFeed struct {
	rows    []domain.Transaction // newest first
	fetches int
}

func (f *fakeActivityFeed) FetchActivities(_ context.Context, q domain.ActivityQuery) (domain.ActivityPage, error) {
	f.fetches++
	start := (q.Page - 1) * q.Limit
	if start >= len(f.rows) {
		return domain.ActivityPage{Total: len(f.rows)}, nil
	}
	end := start + q.Limit
	if end > len(f.rows) {
		end = len(f.rows)
	}
	return domain.ActivityPage{List: f.rows[start:end], Total: len(f.rows)}, nil
}

type fakeActivityStore struct {
	lastTime time.Time
	upserted []domain.Transaction
	deleted  int64
}

func (s *fakeActivityStore) UpsertBatch(_ context.Context, _ string, txs []domain.Transaction) error {
	s.upserted = append(s.upserted, txs...)
	return nil
}

func (s *fakeActivityStore) GetByID(context.Context, string) (domain.Transaction, error) {
	return domain.Transaction{}, domain.ErrNotFound
}

func (s *fakeActivityStore) ListByVault(context.Context, string, domain.ListOpts) ([]domain.Transaction, error) {
	return nil, nil
}

func (s *fakeActivityStore) CountByVault(context.Context, string, domain.ListOpts) (int64, error) {
	return 0, nil
}

func (s *fakeActivityStore) GetLastTime(context.Context, string) (time.Time, error) {
	return s.lastTime, nil
}

func (s *fakeActivityStore) ListBefore(context.Context, time.Time) ([]domain.Transaction, error) {
	return nil, nil
}

func (s *fakeActivityStore) DeleteBefore(context.Context, time.Time) (int64, error) {
	return s.deleted, nil
}

func txAt(id string, t time.Time) domain.Transaction {
	return domain.Transaction{ID: id, Type: domain.ActionSwap, Time: t}
}

func TestIngestVault_StopsAtKnownTerritory(t *testing.T) {
	now := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)

	// 250 rows newest first, one minute apart.
	rows := make([]domain.Transaction, 250)
	for i := range rows {
		rows[i] = txAt(string(rune('a'+i%26))+time.Duration(i).String(), now.Add(-time.Duration(i)*time.Minute))
	}

	feed := &fakeActivityFeed{rows: rows}
	// Last stored row is 150 minutes old, so page two (rows 100..199)
	// reaches known territory and page three is never fetched.
	store := &fakeActivityStore{lastTime: now.Add(-150 * time.Minute)}

	ing := NewIngestor(feed, store, nil, testLogger())
	n, err := ing.IngestVault(context.Background(), "vault-1")
	require.NoError(t, err)

	assert.Equal(t, 200, n)
	assert.Equal(t, 2, feed.fetches)
	assert.Len(t, store.upserted, 200)
}

func TestIngestVault_EmptyStoreFetchesEverything(t *testing.T) {
	now := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)

	rows := make([]domain.Transaction, 150)
	for i := range rows {
		rows[i] = txAt(time.Duration(i).String(), now.Add(-time.Duration(i)*time.Minute))
	}

	feed := &fakeActivityFeed{rows: rows}
	store := &fakeActivityStore{}

	ing := NewIngestor(feed, store, nil, testLogger())
	n, err := ing.IngestVault(context.Background(), "vault-1")
	require.NoError(t, err)

	assert.Equal(t, 150, n)
	assert.Equal(t, 2, feed.fetches)
}

type fakeRateLimiter struct {
	waits []string
}

func (f *fakeRateLimiter) Allow(context.Context, string, int, time.Duration) (bool, error) {
	return true, nil
}

func (f *fakeRateLimiter) Wait(_ context.Context, key string) error {
	f.waits = append(f.waits, key)
	return nil
}

func TestIngestVault_PacesUpstreamFetches(t *testing.T) {
	now := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)

	rows := make([]domain.Transaction, 150)
	for i := range rows {
		rows[i] = txAt(time.Duration(i).String(), now.Add(-time.Duration(i)*time.Minute))
	}

	limiter := &fakeRateLimiter{}
	ing := NewIngestor(&fakeActivityFeed{rows: rows}, &fakeActivityStore{}, limiter, testLogger())
	_, err := ing.IngestVault(context.Background(), "vault-1")
	require.NoError(t, err)

	// One wait per fetched page, keyed to the vault's upstream budget.
	assert.Equal(t, []string{"upstream:vault-1", "upstream:vault-1"}, limiter.waits)
}

func TestIngestVault_EmptyFeed(t *testing.T) {
	ing := NewIngestor(&fakeActivityFeed{}, &fakeActivityStore{}, nil, testLogger())
	n, err := ing.IngestVault(context.Background(), "vault-1")
	require.NoError(t, err)
	assert.Zero(t, n)
}

// --- insight refresher ---

type fakeInsightRefresh struct {
	calls []domain.SummaryKey
	err   error
}

func (f *fakeInsightRefresh) Refresh(_ context.Context, key domain.SummaryKey) (*domain.Summary, error) {
	f.calls = append(f.calls, key)
	return &domain.Summary{}, f.err
}

type fakeBreakdownRefresh struct {
	calls []string
}

func (f *fakeBreakdownRefresh) Refresh(_ context.Context, vaultID string) (domain.Breakdown, error) {
	f.calls = append(f.calls, vaultID)
	return domain.Breakdown{}, nil
}

type fakeLocks struct {
	held     bool
	acquired []string
	released int
}

func (l *fakeLocks) Acquire(_ context.Context, key string, _ time.Duration) (func(), error) {
	if l.held {
		return nil, domain.ErrLockHeld
	}
	l.acquired = append(l.acquired, key)
	return func() { l.released++ }, nil
}

func TestRefreshVault_RefreshesInsightsAndBreakdowns(t *testing.T) {
	ins := &fakeInsightRefresh{}
	brk := &fakeBreakdownRefresh{}
	locks := &fakeLocks{}

	r := NewInsightRefresher(ins, brk, locks, nil, testLogger())
	r.refreshAll(context.Background(), []string{"vault-1", "vault-2"})

	require.Len(t, ins.calls, 2)
	assert.Equal(t, "vault-1", ins.calls[0].VaultID)
	assert.Equal(t, []string{"vault-1", "vault-2"}, brk.calls)
	assert.Equal(t, []string{"refresh:vault-1", "refresh:vault-2"}, locks.acquired)
	assert.Equal(t, 2, locks.released)
}

func TestRefreshVault_SkipsWhenLockHeld(t *testing.T) {
	ins := &fakeInsightRefresh{}
	brk := &fakeBreakdownRefresh{}

	r := NewInsightRefresher(ins, brk, &fakeLocks{held: true}, nil, testLogger())
	r.refreshVault(context.Background(), "vault-1")

	assert.Empty(t, ins.calls)
	assert.Empty(t, brk.calls)
}

func TestRefreshVault_NilLockManager(t *testing.T) {
	ins := &fakeInsightRefresh{}
	brk := &fakeBreakdownRefresh{}

	r := NewInsightRefresher(ins, brk, nil, nil, testLogger())
	r.refreshVault(context.Background(), "vault-1")

	assert.Len(t, ins.calls, 1)
	assert.Len(t, brk.calls, 1)
}

type fakeAlerter struct {
	vaults []string
}

func (a *fakeAlerter) NotifyRefreshError(_ context.Context, vaultID string, _ error) {
	a.vaults = append(a.vaults, vaultID)
}

func TestRefreshVault_AlertsOnFailure(t *testing.T) {
	ins := &fakeInsightRefresh{err: errors.New("upstream timeout")}
	brk := &fakeBreakdownRefresh{}
	alerts := &fakeAlerter{}

	r := NewInsightRefresher(ins, brk, nil, alerts, testLogger())
	r.refreshVault(context.Background(), "vault-1")

	assert.Equal(t, []string{"vault-1"}, alerts.vaults)
}

func TestRefreshVault_ToleratesNoData(t *testing.T) {
	ins := &fakeInsightRefresh{err: domain.ErrNoData}
	brk := &fakeBreakdownRefresh{}

	r := NewInsightRefresher(ins, brk, nil, nil, testLogger())
	r.refreshVault(context.Background(), "vault-1")

	// Breakdown refresh still runs when the vault has no activity.
	assert.Len(t, brk.calls, 1)
}

// --- archiver ---

type fakeBlobArchiver struct {
	archived int64
	err      error
	cutoffs  []time.Time
}

func (a *fakeBlobArchiver) ArchiveActivities(_ context.Context, before time.Time) (int64, error) {
	a.cutoffs = append(a.cutoffs, before)
	return a.archived, a.err
}

func TestArchiverRun_ArchivesThenDeletes(t *testing.T) {
	blob := &fakeBlobArchiver{archived: 42}
	store := &fakeActivityStore{deleted: 42}

	a := NewArchiver(blob, store, 90, testLogger())
	require.NoError(t, a.Run(context.Background()))

	require.Len(t, blob.cutoffs, 1)
	expected := time.Now().UTC().Add(-90 * 24 * time.Hour)
	assert.WithinDuration(t, expected, blob.cutoffs[0], time.Minute)
}

func TestArchiverRun_NothingToArchiveSkipsDelete(t *testing.T) {
	blob := &fakeBlobArchiver{archived: 0}
	a := NewArchiver(blob, &fakeActivityStore{}, 90, testLogger())
	require.NoError(t, a.Run(context.Background()))
}

func TestArchiverRun_UploadFailurePropagates(t *testing.T) {
	blob := &fakeBlobArchiver{err: errors.New("bucket unavailable")}
	a := NewArchiver(blob, &fakeActivityStore{}, 90, testLogger())
	err := a.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bucket unavailable")
}

// --- cron ---

func TestParseCron(t *testing.T) {
	c, err := parseCron("0 3 1 * *")
	require.NoError(t, err)

	assert.True(t, c.matchesTime(time.Date(2026, 9, 1, 3, 0, 0, 0, time.UTC)))
	assert.False(t, c.matchesTime(time.Date(2026, 9, 1, 3, 1, 0, 0, time.UTC)))
	assert.False(t, c.matchesTime(time.Date(2026, 9, 2, 3, 0, 0, 0, time.UTC)))
}

func TestParseCron_Invalid(t *testing.T) {
	_, err := parseCron("0 3 1 *")
	require.Error(t, err)

	_, err = parseCron("x 3 1 * *")
	require.Error(t, err)
}

func TestNextCronTime(t *testing.T) {
	after := time.Date(2026, 8, 29, 10, 30, 15, 0, time.UTC)

	next, err := nextCronTime("0 3 * * *", after)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 8, 30, 3, 0, 0, 0, time.UTC), next)

	// A list field matches any listed value.
	next, err = nextCronTime("0,30 * * * *", after)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 8, 29, 11, 0, 0, 0, time.UTC), next)
}
