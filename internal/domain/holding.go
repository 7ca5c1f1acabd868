package domain

import "time"

// HoldingStats is a user's position in one vault as reported by the backend.
type HoldingStats struct {
	VaultID             string
	Wallet              string
	NDLPBalance         float64
	NDLPPriceUSD        float64
	TotalDepositsUSD    float64
	TotalWithdrawalsUSD float64
	TotalRewardsUSD     float64
	Rewards24hUSD       float64
	SharePercent        float64
	FetchedAt           time.Time
}

// AttributionWindow selects which time span an attribution breakdown covers.
type AttributionWindow string

const (
	WindowSinceDeposit AttributionWindow = "deposit"
	Window24h          AttributionWindow = "24h"
)

// AttributionInput carries the per-window component magnitudes used to
// decompose a holding's net position change. The fees, impermanent-loss, and
// rebalance components are reported by the backend per window; the fee rate
// comes from the vault configuration.
type AttributionInput struct {
	CurrentValueUSD       float64
	TotalDepositsUSD      float64
	TotalWithdrawalsUSD   float64
	NDLPBalance           float64
	PerformanceFeeRate    float64
	FeesAutoCompoundedUSD float64
	ImpermanentLossUSD    float64
	RebalanceEffectUSD    float64
}

// Attribution is the decomposed P&L for one window. Gains holds the
// non-negative fee income; Costs is the sum of the absolute loss components;
// NetPnL is raw P&L minus the performance fee.
type Attribution struct {
	Window            AttributionWindow `json:"window"`
	NetDepositedUSD   float64           `json:"net_deposited_usd"`
	PnLUSD            float64           `json:"pnl_usd"`
	BreakEvenPriceUSD float64           `json:"break_even_price_usd"`
	PerformanceFeeUSD float64           `json:"performance_fee_usd"`
	GainsUSD          float64           `json:"gains_usd"`
	CostsUSD          float64           `json:"costs_usd"`
	NetPnLUSD         float64           `json:"net_pnl_usd"`
}
