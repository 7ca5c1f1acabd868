package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nodoventures/vaultsight/internal/domain"
	"github.com/nodoventures/vaultsight/internal/insights"
)

// BreakdownService fetches LP pool allocations and shapes them for display:
// ranked, colored, and with the long tail merged.
type BreakdownService struct {
	source   domain.BreakdownSource
	cache    domain.BreakdownCache
	logger   *slog.Logger
	cacheTTL time.Duration
}

// NewBreakdownService creates a BreakdownService.
func NewBreakdownService(
	source domain.BreakdownSource,
	cache domain.BreakdownCache,
	logger *slog.Logger,
	cacheTTL time.Duration,
) *BreakdownService {
	return &BreakdownService{
		source:   source,
		cache:    cache,
		logger:   logger,
		cacheTTL: cacheTTL,
	}
}

// GetBreakdown returns the display-ready breakdown for a vault, serving from
// cache when possible.
func (s *BreakdownService) GetBreakdown(ctx context.Context, vaultID string) (domain.Breakdown, error) {
	bd, err := s.cache.Get(ctx, vaultID)
	if err == nil {
		return bd, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		s.logger.WarnContext(ctx, "breakdown_service: cache read failed, refetching",
			slog.String("vault_id", vaultID),
			slog.String("error", err.Error()),
		)
	}
	return s.Refresh(ctx, vaultID)
}

// Refresh refetches the allocation from upstream and replaces the cached
// breakdown.
func (s *BreakdownService) Refresh(ctx context.Context, vaultID string) (domain.Breakdown, error) {
	slices, err := s.source.FetchBreakdown(ctx, vaultID)
	if err != nil {
		return domain.Breakdown{}, fmt.Errorf("breakdown_service: fetch breakdown %q: %w", vaultID, err)
	}

	bd := insights.AggregateBreakdown(slices, time.Now().UTC())

	if err := s.cache.Set(ctx, vaultID, bd, s.cacheTTL); err != nil {
		s.logger.WarnContext(ctx, "breakdown_service: cache write failed",
			slog.String("vault_id", vaultID),
			slog.String("error", err.Error()),
		)
	}
	return bd, nil
}
