package insights

import (
	"math"

	"github.com/nodoventures/vaultsight/internal/domain"
)

// ComputeAttribution decomposes a position's P&L for one window. Each window
// is computed independently from its own inputs, so the since-deposit and
// 24h views never share intermediate state.
//
// Net deposited is clamped at zero: a wallet that withdrew more than it put
// in has recovered its principal, and P&L from that point is measured against
// a zero basis rather than a negative one.
func ComputeAttribution(w domain.AttributionWindow, in domain.AttributionInput) domain.Attribution {
	netDeposited := math.Max(0, in.TotalDepositsUSD-in.TotalWithdrawalsUSD)
	pnl := in.CurrentValueUSD - netDeposited

	var breakEven float64
	if in.NDLPBalance > 0 {
		breakEven = netDeposited / in.NDLPBalance
	}

	perfFee := math.Max(0, pnl*in.PerformanceFeeRate)

	// Fees earned by the LP are auto-compounded back into the position, so
	// they are the gains side; IL, rebalance effect, and the performance fee
	// are costs regardless of the sign the upstream reports them with. A
	// negative fees figure from upstream clamps to zero gains.
	gains := math.Max(0, in.FeesAutoCompoundedUSD)
	costs := math.Abs(in.ImpermanentLossUSD) + math.Abs(in.RebalanceEffectUSD) + perfFee

	return domain.Attribution{
		Window:            w,
		NetDepositedUSD:   netDeposited,
		PnLUSD:            pnl,
		BreakEvenPriceUSD: breakEven,
		PerformanceFeeUSD: perfFee,
		GainsUSD:          gains,
		CostsUSD:          costs,
		NetPnLUSD:         pnl - perfFee,
	}
}
