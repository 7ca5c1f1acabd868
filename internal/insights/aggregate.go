package insights

import (
	"strings"
	"time"

	"github.com/nodoventures/vaultsight/internal/domain"
)

// Aggregate produces a flow summary from a batch of transactions in a single
// pass. It returns nil when the input is empty: callers must distinguish "no
// data yet" from a vault that genuinely netted to zero. The function is pure
// and idempotent, so re-running it over the same batch yields an identical
// summary modulo GeneratedAt.
func Aggregate(txs []domain.Transaction, now time.Time) *domain.Summary {
	if len(txs) == 0 {
		return nil
	}

	s := &domain.Summary{
		TypeCount:   make(map[domain.ActionType]int),
		Reasons:     make(map[string]int),
		TxCount:     len(txs),
		GeneratedAt: now,
	}

	// Reasons are counted by first appearance so that ties on count resolve
	// to the reason seen earliest in the batch.
	reasonOrder := make([]string, 0, 8)

	for i := range txs {
		tx := &txs[i]
		s.TypeCount[tx.Type]++

		usd := FlowUSD(tx)
		switch Classify(tx.Type) {
		case domain.FlowInflow:
			s.Inflow += usd
		case domain.FlowOutflow:
			s.Outflow += usd
		case domain.FlowSwap:
			s.SwapVol += usd
		}

		if r := strings.TrimSpace(tx.Reason); r != "" {
			if s.Reasons[r] == 0 {
				reasonOrder = append(reasonOrder, r)
			}
			s.Reasons[r]++

			if isStopLossReason(r) {
				s.StopLossCount++
				if s.LastStopLossAt == nil || tx.Time.After(*s.LastStopLossAt) {
					t := tx.Time
					s.LastStopLossAt = &t
				}
			}
		}
	}

	s.Net = s.Inflow - s.Outflow
	s.Rebalances = s.TypeCount[domain.ActionOpen] + s.TypeCount[domain.ActionClose]

	best := 0
	for _, r := range reasonOrder {
		if s.Reasons[r] > best {
			best = s.Reasons[r]
			s.TopReason = r
		}
	}

	s.Driver = ClassifyDriver(s)
	return s
}

// isStopLossReason reports whether a reason string describes a protective
// exit. Matching is case-insensitive substring search, so phrasings like
// "Stop-loss triggered; exit LP" and "exit to stablecoins due to drawdown"
// both qualify.
func isStopLossReason(r string) bool {
	lr := strings.ToLower(r)
	return strings.Contains(lr, "stop-loss") || strings.Contains(lr, "drawdown")
}
