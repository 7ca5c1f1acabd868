package domain

import "time"

// FlowCategory is the cash-flow direction a transaction type contributes to.
type FlowCategory int

const (
	FlowNeutral FlowCategory = iota
	FlowInflow
	FlowOutflow
	FlowSwap
)

// String returns the lowercase category name for logging.
func (c FlowCategory) String() string {
	switch c {
	case FlowInflow:
		return "inflow"
	case FlowOutflow:
		return "outflow"
	case FlowSwap:
		return "swap"
	default:
		return "neutral"
	}
}

// Summary is the derived insight aggregate for one activity batch. It has no
// persisted identity: it is recomputed in full on every refresh and replaces
// the previous value atomically.
type Summary struct {
	Inflow  float64 `json:"inflow"`
	Outflow float64 `json:"outflow"`
	Net     float64 `json:"net"`
	SwapVol float64 `json:"swap_vol"`

	TypeCount map[ActionType]int `json:"type_count"`
	Reasons   map[string]int     `json:"reasons"`
	TopReason string             `json:"top_reason,omitempty"`

	Rebalances     int        `json:"rebalances"`
	StopLossCount  int        `json:"stop_loss_count"`
	LastStopLossAt *time.Time `json:"last_stop_loss_at,omitempty"`

	Driver Driver `json:"driver"`

	TxCount     int       `json:"tx_count"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Driver is the chosen explanation for the observed activity pattern,
// produced by the heuristic classifier. Confidence is in (0, 1], floored at
// 0.05 so a label is always accompanied by a usable score.
type Driver struct {
	Name       string  `json:"name"`
	Label      string  `json:"label"`
	NextAction string  `json:"next_action"`
	Confidence float64 `json:"confidence"`
}
