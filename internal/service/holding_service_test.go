package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nodoventures/vaultsight/internal/domain"
)

type fakeHoldingSource struct {
	stats domain.HoldingStats
	err   error
}

func (f *fakeHoldingSource) FetchHolding(_ context.Context, vaultID, _ string) (domain.HoldingStats, error) {
	if f.err != nil {
		return domain.HoldingStats{}, f.err
	}
	s := f.stats
	s.VaultID = vaultID
	return s, nil
}

func TestGetHolding(t *testing.T) {
	src := &fakeHoldingSource{stats: domain.HoldingStats{
		Wallet:              "0xabc",
		NDLPBalance:         1000,
		NDLPPriceUSD:        1.1, // current value 1100
		TotalDepositsUSD:    1500,
		TotalWithdrawalsUSD: 500,
		TotalRewardsUSD:     120,
		Rewards24hUSD:       8,
		FetchedAt:           time.Now(),
	}}
	svc := NewHoldingService(src, 0.1, testLogger())

	stats, attrs, err := svc.GetHolding(context.Background(), "v1", "0xabc")
	require.NoError(t, err)
	assert.Equal(t, "v1", stats.VaultID)
	require.Len(t, attrs, 2)

	since := attrs[0]
	assert.Equal(t, domain.WindowSinceDeposit, since.Window)
	assert.InDelta(t, 1000, since.NetDepositedUSD, 1e-9)
	assert.InDelta(t, 100, since.PnLUSD, 1e-9) // 1100 - 1000
	assert.InDelta(t, 1.0, since.BreakEvenPriceUSD, 1e-9)
	assert.InDelta(t, 10, since.PerformanceFeeUSD, 1e-9)
	assert.InDelta(t, 120, since.GainsUSD, 1e-9)
	assert.InDelta(t, 90, since.NetPnLUSD, 1e-9)

	day := attrs[1]
	assert.Equal(t, domain.Window24h, day.Window)
	assert.InDelta(t, 8, day.PnLUSD, 1e-9)
	assert.InDelta(t, 8, day.GainsUSD, 1e-9)
	assert.InDelta(t, 0.8, day.PerformanceFeeUSD, 1e-9)
}

func TestGetHoldingUpstreamError(t *testing.T) {
	src := &fakeHoldingSource{err: errors.New("boom")}
	svc := NewHoldingService(src, 0.1, testLogger())

	_, _, err := svc.GetHolding(context.Background(), "v1", "0xabc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "holding_service")
}
