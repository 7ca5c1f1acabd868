// Package insights implements the pure computational core of the vault
// dashboard: USD normalization of token legs, transaction flow
// classification, single-pass activity aggregation, heuristic driver
// classification, P&L attribution, and LP breakdown aggregation. Every
// function in this package is stateless and side-effect free; callers may
// invoke them repeatedly on refreshed data without coordination.
package insights

import (
	"math"
	"strconv"
	"strings"

	"github.com/nodoventures/vaultsight/internal/domain"
)

// ParseDecimal parses a decimal string from the backend into a float64. A
// missing, empty, or non-numeric value yields 0 so that one malformed leg
// can never poison a whole aggregate with NaN or Inf.
func ParseDecimal(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// LegUSD returns the USD value of one token leg:
//
//	amount / 10^decimal * price
//
// The backend-reported price is authoritative and never recomputed here.
// A nil leg or a negative decimal yields 0.
func LegUSD(leg *domain.TokenLeg) float64 {
	if leg == nil || leg.Decimal < 0 {
		return 0
	}
	units := float64(leg.Amount) / math.Pow(10, float64(leg.Decimal))
	return units * ParseDecimal(leg.Price)
}
