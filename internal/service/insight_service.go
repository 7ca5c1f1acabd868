package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nodoventures/vaultsight/internal/domain"
	"github.com/nodoventures/vaultsight/internal/insights"
)

// defaultFetchLimit is how many recent activities one refresh analyzes.
const defaultFetchLimit = 100

// InsightService computes and caches flow summaries per vault. Concurrent
// refreshes of the same key supersede rather than merge: each refresh takes
// a generation number, and a computation that finishes after a newer one
// started is discarded instead of overwriting fresher data.
type InsightService struct {
	source     domain.ActivitySource
	cache      domain.SummaryCache
	bus        domain.SignalBus
	logger     *slog.Logger
	cacheTTL   time.Duration
	fetchLimit int

	mu  sync.Mutex
	gen map[domain.SummaryKey]uint64
}

// NewInsightService creates an InsightService. bus may be nil when no event
// fanout is wanted (tests, one-shot CLI use).
func NewInsightService(
	source domain.ActivitySource,
	cache domain.SummaryCache,
	bus domain.SignalBus,
	logger *slog.Logger,
	cacheTTL time.Duration,
) *InsightService {
	return &InsightService{
		source:     source,
		cache:      cache,
		bus:        bus,
		logger:     logger,
		cacheTTL:   cacheTTL,
		fetchLimit: defaultFetchLimit,
		gen:        make(map[domain.SummaryKey]uint64),
	}
}

// GetInsights returns the summary for a vault, serving from cache when
// possible and refreshing on a miss. domain.ErrNoData means the vault has no
// matching activity, which is distinct from an all-zero summary.
func (s *InsightService) GetInsights(ctx context.Context, key domain.SummaryKey) (*domain.Summary, error) {
	sum, err := s.cache.Get(ctx, key)
	if err == nil {
		return sum, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		s.logger.WarnContext(ctx, "insight_service: cache read failed, recomputing",
			slog.String("vault_id", key.VaultID),
			slog.String("error", err.Error()),
		)
	}
	return s.Refresh(ctx, key)
}

// Refresh recomputes the summary for a key from the upstream source and
// atomically replaces the cached value. If a newer refresh for the same key
// started while this one was fetching, the result is dropped and
// domain.ErrStale is returned.
func (s *InsightService) Refresh(ctx context.Context, key domain.SummaryKey) (*domain.Summary, error) {
	s.mu.Lock()
	s.gen[key]++
	myGen := s.gen[key]
	s.mu.Unlock()

	page, err := s.source.FetchActivities(ctx, domain.ActivityQuery{
		VaultID:    key.VaultID,
		Page:       1,
		Limit:      s.fetchLimit,
		ActionType: key.ActionType,
		TimeRange:  key.TimeRange,
	})
	if err != nil {
		return nil, fmt.Errorf("insight_service: fetch activities for %q: %w", key.VaultID, err)
	}

	summary := insights.Aggregate(page.List, time.Now().UTC())

	s.mu.Lock()
	if s.gen[key] != myGen {
		s.mu.Unlock()
		return nil, fmt.Errorf("insight_service: refresh %q: %w", key.VaultID, domain.ErrStale)
	}
	if summary != nil {
		if err := s.cache.Set(ctx, key, summary, s.cacheTTL); err != nil {
			s.mu.Unlock()
			return nil, fmt.Errorf("insight_service: cache summary for %q: %w", key.VaultID, err)
		}
	}
	s.mu.Unlock()

	if summary == nil {
		return nil, fmt.Errorf("insight_service: refresh %q: %w", key.VaultID, domain.ErrNoData)
	}

	s.publishRefreshed(ctx, key, summary)
	return summary, nil
}

// GetActivities returns one page of raw activity rows, with query defaults
// applied.
func (s *InsightService) GetActivities(ctx context.Context, q domain.ActivityQuery) (domain.ActivityPage, error) {
	if q.Page <= 0 {
		q.Page = 1
	}
	if q.Limit <= 0 {
		q.Limit = 20
	}
	if q.Limit > s.fetchLimit {
		q.Limit = s.fetchLimit
	}

	page, err := s.source.FetchActivities(ctx, q)
	if err != nil {
		return domain.ActivityPage{}, fmt.Errorf("insight_service: list activities for %q: %w", q.VaultID, err)
	}
	return page, nil
}

// Invalidate drops the cached summary for a key so the next read recomputes.
func (s *InsightService) Invalidate(ctx context.Context, key domain.SummaryKey) error {
	if err := s.cache.Invalidate(ctx, key); err != nil {
		return fmt.Errorf("insight_service: invalidate %q: %w", key.VaultID, err)
	}
	return nil
}

func (s *InsightService) publishRefreshed(ctx context.Context, key domain.SummaryKey, sum *domain.Summary) {
	if s.bus == nil {
		return
	}
	evt, _ := json.Marshal(map[string]any{
		"event":           "insights_refreshed",
		"vault_id":        key.VaultID,
		"driver":          sum.Driver.Name,
		"confidence":      sum.Driver.Confidence,
		"net_usd":         sum.Net,
		"stop_loss_count": sum.StopLossCount,
		"generated_at":    sum.GeneratedAt.Format(time.RFC3339Nano),
	})
	if err := s.bus.Publish(ctx, "insights", evt); err != nil {
		s.logger.WarnContext(ctx, "insight_service: publish refresh event failed",
			slog.String("vault_id", key.VaultID),
			slog.String("error", err.Error()),
		)
	}
}
