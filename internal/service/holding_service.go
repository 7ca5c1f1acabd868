package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/nodoventures/vaultsight/internal/domain"
	"github.com/nodoventures/vaultsight/internal/insights"
)

// HoldingService fetches per-wallet holding snapshots and derives P&L
// attribution for the since-deposit and trailing-24h windows.
type HoldingService struct {
	source      domain.HoldingSource
	perfFeeRate float64
	logger      *slog.Logger
}

// NewHoldingService creates a HoldingService. perfFeeRate is the vault's
// performance fee as a fraction, e.g. 0.1 for 10%.
func NewHoldingService(source domain.HoldingSource, perfFeeRate float64, logger *slog.Logger) *HoldingService {
	return &HoldingService{
		source:      source,
		perfFeeRate: perfFeeRate,
		logger:      logger,
	}
}

// GetHolding returns the holding snapshot for a wallet plus both attribution
// windows. The windows are computed independently from their own inputs.
func (s *HoldingService) GetHolding(ctx context.Context, vaultID, wallet string) (domain.HoldingStats, []domain.Attribution, error) {
	stats, err := s.source.FetchHolding(ctx, vaultID, wallet)
	if err != nil {
		return domain.HoldingStats{}, nil, fmt.Errorf("holding_service: fetch holding %q: %w", vaultID, err)
	}

	currentValue := stats.NDLPBalance * stats.NDLPPriceUSD

	sinceDeposit := insights.ComputeAttribution(domain.WindowSinceDeposit, domain.AttributionInput{
		CurrentValueUSD:       currentValue,
		TotalDepositsUSD:      stats.TotalDepositsUSD,
		TotalWithdrawalsUSD:   stats.TotalWithdrawalsUSD,
		NDLPBalance:           stats.NDLPBalance,
		PerformanceFeeRate:    s.perfFeeRate,
		FeesAutoCompoundedUSD: stats.TotalRewardsUSD,
	})

	// The 24h window measures against the position's value a day ago,
	// approximated as current value minus the rewards compounded since then.
	// The upstream does not report intraday deposits separately.
	dayBasis := math.Max(0, currentValue-stats.Rewards24hUSD)
	last24h := insights.ComputeAttribution(domain.Window24h, domain.AttributionInput{
		CurrentValueUSD:       currentValue,
		TotalDepositsUSD:      dayBasis,
		NDLPBalance:           stats.NDLPBalance,
		PerformanceFeeRate:    s.perfFeeRate,
		FeesAutoCompoundedUSD: stats.Rewards24hUSD,
	})

	return stats, []domain.Attribution{sinceDeposit, last24h}, nil
}
