package service

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nodoventures/vaultsight/internal/domain"
)

// fakeActivitySource serves canned pages and can block to simulate a slow
// upstream.
type fakeActivitySource struct {
	mu      sync.Mutex
	pages   map[string]domain.ActivityPage
	err     error
	calls   int
	release chan struct{} // when non-nil, FetchActivities waits on it
}

func (f *fakeActivitySource) FetchActivities(ctx context.Context, q domain.ActivityQuery) (domain.ActivityPage, error) {
	f.mu.Lock()
	f.calls++
	release := f.release
	f.mu.Unlock()

	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			return domain.ActivityPage{}, ctx.Err()
		}
	}
	if f.err != nil {
		return domain.ActivityPage{}, f.err
	}
	return f.pages[q.VaultID], nil
}

// memSummaryCache is an in-memory SummaryCache.
type memSummaryCache struct {
	mu   sync.Mutex
	data map[domain.SummaryKey]*domain.Summary
	sets int
}

func newMemSummaryCache() *memSummaryCache {
	return &memSummaryCache{data: make(map[domain.SummaryKey]*domain.Summary)}
}

func (c *memSummaryCache) Set(_ context.Context, key domain.SummaryKey, s *domain.Summary, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = s
	c.sets++
	return nil
}

func (c *memSummaryCache) Get(_ context.Context, key domain.SummaryKey) (*domain.Summary, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s, ok := c.data[key]; ok {
		return s, nil
	}
	return nil, domain.ErrNotFound
}

func (c *memSummaryCache) Invalidate(_ context.Context, key domain.SummaryKey) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

type memBus struct {
	mu     sync.Mutex
	events []string
}

func (b *memBus) Publish(_ context.Context, channel string, _ []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, channel)
	return nil
}

func (b *memBus) Subscribe(ctx context.Context, _ string) (<-chan []byte, error) {
	ch := make(chan []byte)
	go func() { <-ctx.Done(); close(ch) }()
	return ch, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func swapTx(id string, at time.Time) domain.Transaction {
	return domain.Transaction{
		ID:   id,
		Type: domain.ActionSwap,
		Time: at,
		Tokens: []domain.TokenLeg{
			{TokenSymbol: "USDC", Amount: 48_000_000, Decimal: 6, Price: "1.00"},
			{TokenSymbol: "SUI", Amount: 13_000_000_000, Decimal: 9, Price: "4.00"},
		},
		Reason: "Recenter range",
	}
}

func TestGetInsightsCacheMissThenHit(t *testing.T) {
	src := &fakeActivitySource{pages: map[string]domain.ActivityPage{
		"v1": {List: []domain.Transaction{swapTx("t1", time.Now())}, Total: 1},
	}}
	cache := newMemSummaryCache()
	bus := &memBus{}
	svc := NewInsightService(src, cache, bus, testLogger(), time.Minute)

	key := domain.SummaryKey{VaultID: "v1"}

	first, err := svc.GetInsights(context.Background(), key)
	require.NoError(t, err)
	assert.InDelta(t, 48, first.SwapVol, 1e-9)
	assert.Equal(t, 1, src.calls)

	second, err := svc.GetInsights(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, src.calls, "cache hit must not refetch")

	assert.Equal(t, []string{"insights"}, bus.events)
}

func TestRefreshNoData(t *testing.T) {
	src := &fakeActivitySource{pages: map[string]domain.ActivityPage{}}
	cache := newMemSummaryCache()
	svc := NewInsightService(src, cache, nil, testLogger(), time.Minute)

	_, err := svc.Refresh(context.Background(), domain.SummaryKey{VaultID: "empty"})
	assert.ErrorIs(t, err, domain.ErrNoData)
	assert.Zero(t, cache.sets, "an empty result must not be cached as a summary")
}

func TestRefreshSupersededIsDiscarded(t *testing.T) {
	release := make(chan struct{})
	src := &fakeActivitySource{
		pages: map[string]domain.ActivityPage{
			"v1": {List: []domain.Transaction{swapTx("t1", time.Now())}, Total: 1},
		},
		release: release,
	}
	cache := newMemSummaryCache()
	svc := NewInsightService(src, cache, nil, testLogger(), time.Minute)

	key := domain.SummaryKey{VaultID: "v1"}

	errs := make(chan error, 1)
	go func() {
		_, err := svc.Refresh(context.Background(), key)
		errs <- err
	}()

	// Wait for the first refresh to be in flight, then start a second one
	// that also blocks, bumping the generation past the first.
	require.Eventually(t, func() bool {
		src.mu.Lock()
		defer src.mu.Unlock()
		return src.calls == 1
	}, time.Second, time.Millisecond)

	errs2 := make(chan error, 1)
	go func() {
		_, err := svc.Refresh(context.Background(), key)
		errs2 <- err
	}()
	require.Eventually(t, func() bool {
		src.mu.Lock()
		defer src.mu.Unlock()
		return src.calls == 2
	}, time.Second, time.Millisecond)

	close(release)

	firstErr := <-errs
	secondErr := <-errs2

	// Exactly one of the two wins; the other is superseded.
	if firstErr != nil {
		assert.ErrorIs(t, firstErr, domain.ErrStale)
		assert.NoError(t, secondErr)
	} else {
		assert.ErrorIs(t, secondErr, domain.ErrStale)
	}
	assert.Equal(t, 1, cache.sets, "only the winning refresh may write the cache")
}

func TestGetActivitiesDefaults(t *testing.T) {
	var gotQuery domain.ActivityQuery
	src := &queryCapturingSource{capture: &gotQuery}
	svc := NewInsightService(src, newMemSummaryCache(), nil, testLogger(), time.Minute)

	_, err := svc.GetActivities(context.Background(), domain.ActivityQuery{VaultID: "v1"})
	require.NoError(t, err)
	assert.Equal(t, 1, gotQuery.Page)
	assert.Equal(t, 20, gotQuery.Limit)

	_, err = svc.GetActivities(context.Background(), domain.ActivityQuery{VaultID: "v1", Limit: 5000})
	require.NoError(t, err)
	assert.Equal(t, defaultFetchLimit, gotQuery.Limit, "limit is clamped")
}

type queryCapturingSource struct {
	capture *domain.ActivityQuery
}

func (s *queryCapturingSource) FetchActivities(_ context.Context, q domain.ActivityQuery) (domain.ActivityPage, error) {
	*s.capture = q
	return domain.ActivityPage{}, nil
}
