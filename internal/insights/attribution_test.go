package insights

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nodoventures/vaultsight/internal/domain"
)

func TestComputeAttribution(t *testing.T) {
	tests := []struct {
		name string
		in   domain.AttributionInput
		want domain.Attribution
	}{
		{
			name: "profitable position",
			in: domain.AttributionInput{
				CurrentValueUSD:       1100,
				TotalDepositsUSD:      1500,
				TotalWithdrawalsUSD:   500,
				NDLPBalance:           800,
				PerformanceFeeRate:    0.1,
				FeesAutoCompoundedUSD: 120,
				ImpermanentLossUSD:    -15,
				RebalanceEffectUSD:    -5,
			},
			want: domain.Attribution{
				NetDepositedUSD:   1000,
				PnLUSD:            100,
				BreakEvenPriceUSD: 1.25,
				PerformanceFeeUSD: 10,
				GainsUSD:          120,
				CostsUSD:          30, // |−15| + |−5| + 10
				NetPnLUSD:         90,
			},
		},
		{
			name: "losing position pays no performance fee",
			in: domain.AttributionInput{
				CurrentValueUSD:    900,
				TotalDepositsUSD:   1000,
				NDLPBalance:        1000,
				PerformanceFeeRate: 0.1,
				ImpermanentLossUSD: 40,
			},
			want: domain.Attribution{
				NetDepositedUSD:   1000,
				PnLUSD:            -100,
				BreakEvenPriceUSD: 1,
				PerformanceFeeUSD: 0,
				CostsUSD:          40,
				NetPnLUSD:         -100,
			},
		},
		{
			name: "withdrawals exceed deposits clamp to zero basis",
			in: domain.AttributionInput{
				CurrentValueUSD:     250,
				TotalDepositsUSD:    1000,
				TotalWithdrawalsUSD: 1400,
				NDLPBalance:         200,
				PerformanceFeeRate:  0.1,
			},
			want: domain.Attribution{
				NetDepositedUSD:   0,
				PnLUSD:            250,
				BreakEvenPriceUSD: 0,
				PerformanceFeeUSD: 25,
				CostsUSD:          25,
				NetPnLUSD:         225,
			},
		},
		{
			name: "negative upstream fees clamp to zero gains",
			in: domain.AttributionInput{
				CurrentValueUSD:       980,
				TotalDepositsUSD:      1000,
				NDLPBalance:           1000,
				PerformanceFeeRate:    0.1,
				FeesAutoCompoundedUSD: -12.5,
				ImpermanentLossUSD:    -20,
			},
			want: domain.Attribution{
				NetDepositedUSD:   1000,
				PnLUSD:            -20,
				BreakEvenPriceUSD: 1,
				PerformanceFeeUSD: 0,
				GainsUSD:          0,
				CostsUSD:          20,
				NetPnLUSD:         -20,
			},
		},
		{
			name: "zero balance yields zero break-even",
			in: domain.AttributionInput{
				CurrentValueUSD:  0,
				TotalDepositsUSD: 100,
				NDLPBalance:      0,
			},
			want: domain.Attribution{
				NetDepositedUSD:   100,
				PnLUSD:            -100,
				BreakEvenPriceUSD: 0,
				NetPnLUSD:         -100,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeAttribution(domain.WindowSinceDeposit, tt.in)
			assert.Equal(t, domain.WindowSinceDeposit, got.Window)
			assert.InDelta(t, tt.want.NetDepositedUSD, got.NetDepositedUSD, 1e-9)
			assert.InDelta(t, tt.want.PnLUSD, got.PnLUSD, 1e-9)
			assert.InDelta(t, tt.want.BreakEvenPriceUSD, got.BreakEvenPriceUSD, 1e-9)
			assert.InDelta(t, tt.want.PerformanceFeeUSD, got.PerformanceFeeUSD, 1e-9)
			assert.InDelta(t, tt.want.GainsUSD, got.GainsUSD, 1e-9)
			assert.InDelta(t, tt.want.CostsUSD, got.CostsUSD, 1e-9)
			assert.InDelta(t, tt.want.NetPnLUSD, got.NetPnLUSD, 1e-9)
		})
	}
}

func TestComputeAttributionWindowsIndependent(t *testing.T) {
	since := ComputeAttribution(domain.WindowSinceDeposit, domain.AttributionInput{
		CurrentValueUSD:  1200,
		TotalDepositsUSD: 1000,
		NDLPBalance:      1000,
	})
	day := ComputeAttribution(domain.Window24h, domain.AttributionInput{
		CurrentValueUSD:  1200,
		TotalDepositsUSD: 1190,
		NDLPBalance:      1000,
	})
	assert.Equal(t, domain.WindowSinceDeposit, since.Window)
	assert.Equal(t, domain.Window24h, day.Window)
	assert.InDelta(t, 200, since.PnLUSD, 1e-9)
	assert.InDelta(t, 10, day.PnLUSD, 1e-9)
}
