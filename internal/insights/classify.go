package insights

import "github.com/nodoventures/vaultsight/internal/domain"

// Classify maps a transaction type to its cash-flow category. Unknown types
// (rewards, rate updates, future additions) are neutral: they contribute to
// type counts but never to the inflow/outflow/swap totals.
func Classify(t domain.ActionType) domain.FlowCategory {
	switch t {
	case domain.ActionAddLiquidity, domain.ActionOpen:
		return domain.FlowInflow
	case domain.ActionRemoveLiquidity, domain.ActionClose:
		return domain.FlowOutflow
	case domain.ActionSwap:
		return domain.FlowSwap
	default:
		return domain.FlowNeutral
	}
}

// FlowUSD returns the USD contribution of one transaction to its category's
// total. Inflow and outflow sum both legs; a swap contributes the smaller
// leg, which approximates the notional actually swapped since fees and
// slippage make the two legs unequal. Neutral transactions contribute 0.
func FlowUSD(tx *domain.Transaction) float64 {
	u0 := LegUSD(tx.Leg(0))
	u1 := LegUSD(tx.Leg(1))

	switch Classify(tx.Type) {
	case domain.FlowInflow, domain.FlowOutflow:
		return u0 + u1
	case domain.FlowSwap:
		if u0 < u1 {
			return u0
		}
		return u1
	default:
		return 0
	}
}

// LegSign returns the display sign (+1 or -1) for leg i of a transaction.
// A swap's sold leg (0) is negative and its bought leg (1) positive; outflow
// types are negative on both legs; everything else is positive.
func LegSign(t domain.ActionType, leg int) int {
	switch Classify(t) {
	case domain.FlowSwap:
		if leg == 0 {
			return -1
		}
		return 1
	case domain.FlowOutflow:
		return -1
	default:
		return 1
	}
}
