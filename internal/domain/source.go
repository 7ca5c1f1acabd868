package domain

import "context"

// ActivitySource fetches pages of vault activity. Both the real
// data-management backend client and the deterministic fixture generator
// implement this, so the compute core never cares which one it is fed from.
type ActivitySource interface {
	FetchActivities(ctx context.Context, q ActivityQuery) (ActivityPage, error)
}

// HoldingSource fetches a user's holding stats for one vault.
type HoldingSource interface {
	FetchHolding(ctx context.Context, vaultID, wallet string) (HoldingStats, error)
}

// BreakdownSource fetches the raw, unaggregated LP slices for one vault.
type BreakdownSource interface {
	FetchBreakdown(ctx context.Context, vaultID string) ([]BreakdownSlice, error)
}
