package domain

import "time"

// BreakdownSlice is one token's share of a vault's liquidity.
type BreakdownSlice struct {
	Label         string     `json:"label"`
	Percent       float64    `json:"percent"`
	USD           float64    `json:"usd"`
	Color         string     `json:"color,omitempty"`
	LastChangedAt *time.Time `json:"last_changed_at,omitempty"`
}

// Breakdown is the display-ready LP composition for a vault: the top slices
// sorted descending by USD value with palette colors assigned, plus an
// optional synthetic "Others" slice merging the tail. AsOf is the snapshot
// timestamp reported by the backend.
type Breakdown struct {
	Top    []BreakdownSlice `json:"top"`
	Others *BreakdownSlice  `json:"others,omitempty"`
	AsOf   time.Time        `json:"as_of"`
}

// Slices returns the top slices and the Others slice (when present) as one
// ordered list for chart rendering.
func (b *Breakdown) Slices() []BreakdownSlice {
	if b.Others == nil {
		return b.Top
	}
	out := make([]BreakdownSlice, 0, len(b.Top)+1)
	out = append(out, b.Top...)
	out = append(out, *b.Others)
	return out
}
