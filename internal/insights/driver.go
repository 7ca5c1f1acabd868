package insights

import (
	"math"
	"regexp"

	"github.com/nodoventures/vaultsight/internal/domain"
)

// hypothesis scores one candidate explanation for a vault's recent behavior.
// Scoring is declarative: each entry pairs a score function with the label
// and suggested action shown to the user when it wins.
type hypothesis struct {
	name       string
	score      func(*domain.Summary) float64
	label      string
	nextAction string
}

var (
	narrowReasonRe = regexp.MustCompile(`(?i)churn|narrow`)
	driftReasonRe  = regexp.MustCompile(`(?i)deviation|drift|recenter|out of range`)
)

var hypotheses = []hypothesis{
	{
		name: "narrow_range_churn",
		score: func(s *domain.Summary) float64 {
			v := math.Min(1, float64(s.Rebalances)/20)
			if narrowReasonRe.MatchString(s.TopReason) {
				v += 1
			}
			return v
		},
		label:      "Frequent rebalancing in a narrow range",
		nextAction: "Consider widening the LP range to cut churn costs",
	},
	{
		name: "price_drift",
		score: func(s *domain.Summary) float64 {
			v := math.Min(1, math.Log10(1+s.SwapVol)/6)
			if driftReasonRe.MatchString(s.TopReason) {
				v += 1
			}
			return v
		},
		label:      "Price drifting away from the active range",
		nextAction: "Review range placement against the current price trend",
	},
	{
		name: "protective_exits",
		score: func(s *domain.Summary) float64 {
			var v float64
			if s.StopLossCount > 0 {
				v = 1
			}
			if s.Net < 0 {
				v += 0.3
			}
			return v
		},
		label:      "Protective exits under adverse moves",
		nextAction: "Check drawdown settings; capital is being de-risked",
	},
	{
		name: "stable_operation",
		score: func(*domain.Summary) float64 {
			return 0.2
		},
		label:      "Stable operation",
		nextAction: "No action needed",
	},
}

// ClassifyDriver picks the hypothesis with the highest score. Ties go to the
// earliest entry in the table, and confidence is the winner's share of the
// total score, floored at 0.05 so the UI never renders a zero. The result is
// fully determined by the summary fields, never by wall clock or randomness.
func ClassifyDriver(s *domain.Summary) domain.Driver {
	scores := make([]float64, len(hypotheses))
	var sum float64
	for i, h := range hypotheses {
		scores[i] = h.score(s)
		sum += scores[i]
	}

	win := 0
	for i := 1; i < len(scores); i++ {
		if scores[i] > scores[win] {
			win = i
		}
	}

	conf := 0.05
	if sum > 0 {
		conf = math.Max(0.05, scores[win]/sum)
	}

	h := hypotheses[win]
	return domain.Driver{
		Name:       h.name,
		Label:      h.label,
		NextAction: h.nextAction,
		Confidence: conf,
	}
}
