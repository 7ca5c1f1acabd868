// Package domain defines the core types shared across the vaultsight
// service: vault activity records, derived insight summaries, holdings,
// LP breakdowns, and the capability interfaces implemented by the
// platform, cache, and store layers.
package domain

import "time"

// ActionType identifies what kind of operation a vault transaction performed.
type ActionType string

const (
	ActionAddLiquidity        ActionType = "ADD_LIQUIDITY"
	ActionRemoveLiquidity     ActionType = "REMOVE_LIQUIDITY"
	ActionSwap                ActionType = "SWAP"
	ActionOpen                ActionType = "OPEN"
	ActionClose               ActionType = "CLOSE"
	ActionClaimRewards        ActionType = "CLAIM_REWARDS"
	ActionAddProfitUpdateRate ActionType = "ADD_PROFIT_UPDATE_RATE"
)

// DisplayName returns the human-readable label for an action type as shown
// in the dashboard activity table.
func (a ActionType) DisplayName() string {
	switch a {
	case ActionAddLiquidity:
		return "Add Liquidity"
	case ActionRemoveLiquidity:
		return "Remove Liquidity"
	case ActionSwap:
		return "Swap"
	case ActionOpen:
		return "Open Position"
	case ActionClose:
		return "Close Position"
	case ActionClaimRewards:
		return "Add Reward"
	case ActionAddProfitUpdateRate:
		return "Add Profit"
	default:
		return string(a)
	}
}

// TimeRange selects the lookback window for activity queries.
type TimeRange string

const (
	Range24h TimeRange = "24h"
	Range7d  TimeRange = "7d"
)

// Duration returns the wall-clock span of the range. Unknown ranges return 0,
// meaning "no time filter".
func (tr TimeRange) Duration() time.Duration {
	switch tr {
	case Range24h:
		return 24 * time.Hour
	case Range7d:
		return 7 * 24 * time.Hour
	default:
		return 0
	}
}

// TokenLeg is one side of a vault transaction. Amount is the raw smallest-unit
// integer quantity; Decimal scales it to display units; Price is the USD price
// per whole token at transaction time, as a decimal string from the backend.
// amount/10^decimal * price is the authoritative USD value of the leg; the
// price is never recomputed client-side.
type TokenLeg struct {
	TokenSymbol string `json:"token_symbol"`
	TokenName   string `json:"token_name"`
	Amount      int64  `json:"amount"`
	Decimal     int    `json:"decimal"`
	Price       string `json:"price"`
}

// Transaction is one vault activity record as reported by the backend. It is
// immutable once fetched.
type Transaction struct {
	ID     string     `json:"id"`
	Type   ActionType `json:"type"`
	Time   time.Time  `json:"time"`
	Value  string     `json:"value"` // USD notional as reported by the backend, decimal string
	Tokens []TokenLeg `json:"tokens"`
	Reason string     `json:"reason,omitempty"` // optional strategy explanation, free text
	TxHash string     `json:"tx_hash,omitempty"`
}

// Leg returns the token leg at index i, or nil when the transaction has no
// such leg. For SWAP transactions leg 0 is the sold side and leg 1 the bought
// side.
func (t *Transaction) Leg(i int) *TokenLeg {
	if i < 0 || i >= len(t.Tokens) {
		return nil
	}
	return &t.Tokens[i]
}

// ActivityQuery identifies one page of vault activity.
type ActivityQuery struct {
	VaultID    string
	Page       int // 1-based
	Limit      int
	ActionType ActionType // empty = all types
	TimeRange  TimeRange  // empty = unbounded
}

// ActivityPage is one page of results together with the total row count for
// the query's filter.
type ActivityPage struct {
	List  []Transaction
	Total int
}
