package domain

import (
	"context"
	"time"
)

// SummaryKey identifies one cached insight summary. A fresh aggregation for a
// key fully replaces the previous one; partial updates are never written.
type SummaryKey struct {
	VaultID    string
	TimeRange  TimeRange
	ActionType ActionType
}

// SummaryCache stores the latest insight summary per query key.
type SummaryCache interface {
	Set(ctx context.Context, key SummaryKey, s *Summary, ttl time.Duration) error
	// Get returns ErrNotFound when no summary is cached for the key.
	Get(ctx context.Context, key SummaryKey) (*Summary, error)
	Invalidate(ctx context.Context, key SummaryKey) error
}

// BreakdownCache stores the latest LP breakdown per vault.
type BreakdownCache interface {
	Set(ctx context.Context, vaultID string, b Breakdown, ttl time.Duration) error
	Get(ctx context.Context, vaultID string) (Breakdown, error)
	Invalidate(ctx context.Context, vaultID string) error
}

// RateLimiter provides distributed rate limiting.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
	Wait(ctx context.Context, key string) error
}

// SignalBus provides pub/sub used to push refresh events to the WebSocket hub.
type SignalBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
}

// LockManager provides distributed locks so only one instance refreshes a
// given vault at a time.
type LockManager interface {
	// Acquire returns ErrLockHeld when another holder has the lock. The
	// returned unlock func is safe to call more than once.
	Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error)
}
