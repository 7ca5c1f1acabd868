package refresher

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/nodoventures/vaultsight/internal/domain"
)

// lockTTL bounds how long one instance may hold a vault's refresh lock.
const lockTTL = 2 * time.Minute

// insightRefreshService is the slice of the insight service the refresher
// needs.
type insightRefreshService interface {
	Refresh(ctx context.Context, key domain.SummaryKey) (*domain.Summary, error)
}

// breakdownRefreshService is the slice of the breakdown service the
// refresher needs.
type breakdownRefreshService interface {
	Refresh(ctx context.Context, vaultID string) (domain.Breakdown, error)
}

// RefreshAlerter reports refresh failures to operators. Optional.
type RefreshAlerter interface {
	NotifyRefreshError(ctx context.Context, vaultID string, cause error)
}

// InsightRefresher recomputes summaries and breakdowns for all configured
// vaults on an interval. A distributed lock per vault keeps parallel
// deployments from duplicating upstream fetches; losing the lock is normal
// and silent.
type InsightRefresher struct {
	insights   insightRefreshService
	breakdowns breakdownRefreshService
	locks      domain.LockManager
	alerts     RefreshAlerter
	logger     *slog.Logger
}

// NewInsightRefresher creates an InsightRefresher. locks and alerts may be
// nil for single-instance deployments without notifications.
func NewInsightRefresher(
	insights insightRefreshService,
	breakdowns breakdownRefreshService,
	locks domain.LockManager,
	alerts RefreshAlerter,
	logger *slog.Logger,
) *InsightRefresher {
	return &InsightRefresher{
		insights:   insights,
		breakdowns: breakdowns,
		locks:      locks,
		alerts:     alerts,
		logger:     logger,
	}
}

// RunLoop refreshes all vaults on a fixed interval until the context is
// cancelled.
func (r *InsightRefresher) RunLoop(ctx context.Context, vaultIDs []string, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	r.refreshAll(ctx, vaultIDs)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.refreshAll(ctx, vaultIDs)
		}
	}
}

func (r *InsightRefresher) refreshAll(ctx context.Context, vaultIDs []string) {
	for _, id := range vaultIDs {
		r.refreshVault(ctx, id)
	}
}

func (r *InsightRefresher) refreshVault(ctx context.Context, vaultID string) {
	if r.locks != nil {
		unlock, err := r.locks.Acquire(ctx, "refresh:"+vaultID, lockTTL)
		if err != nil {
			if !errors.Is(err, domain.ErrLockHeld) {
				r.logger.Warn("refresher: lock acquire failed",
					slog.String("vault_id", vaultID),
					slog.String("error", err.Error()),
				)
			}
			return
		}
		defer unlock()
	}

	if _, err := r.insights.Refresh(ctx, domain.SummaryKey{VaultID: vaultID}); err != nil {
		switch {
		case errors.Is(err, domain.ErrNoData):
			// A vault with no activity yet is not an error.
		case errors.Is(err, domain.ErrStale):
			// A newer refresh superseded this one.
		default:
			r.logger.Error("refresher: insight refresh failed",
				slog.String("vault_id", vaultID),
				slog.String("error", err.Error()),
			)
			if r.alerts != nil {
				r.alerts.NotifyRefreshError(ctx, vaultID, err)
			}
		}
	}

	if _, err := r.breakdowns.Refresh(ctx, vaultID); err != nil {
		r.logger.Error("refresher: breakdown refresh failed",
			slog.String("vault_id", vaultID),
			slog.String("error", err.Error()),
		)
	}
}
