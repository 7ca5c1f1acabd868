package domain

import (
	"context"
	"time"
)

// ListOpts provides pagination and filtering for list queries.
type ListOpts struct {
	Limit      int
	Offset     int
	Since      *time.Time
	Until      *time.Time
	ActionType ActionType
}

// ActivityStore persists vault activity rows ingested from the upstream API.
type ActivityStore interface {
	// UpsertBatch inserts activities, silently skipping rows whose ID
	// already exists.
	UpsertBatch(ctx context.Context, vaultID string, txs []Transaction) error
	GetByID(ctx context.Context, id string) (Transaction, error)
	ListByVault(ctx context.Context, vaultID string, opts ListOpts) ([]Transaction, error)
	CountByVault(ctx context.Context, vaultID string, opts ListOpts) (int64, error)
	// GetLastTime returns the most recent activity timestamp for a vault,
	// or the zero time when none exist.
	GetLastTime(ctx context.Context, vaultID string) (time.Time, error)
	// ListBefore returns all activities older than the cutoff, across vaults.
	ListBefore(ctx context.Context, before time.Time) ([]Transaction, error)
	// DeleteBefore removes activities older than the cutoff and reports how
	// many rows were removed.
	DeleteBefore(ctx context.Context, before time.Time) (int64, error)
}

// AuditEntry is a single audit log row.
type AuditEntry struct {
	ID        int64
	Event     string
	Detail    map[string]any
	CreatedAt time.Time
}

// AuditStore persists an append-only audit log.
type AuditStore interface {
	Log(ctx context.Context, event string, detail map[string]any) error
	List(ctx context.Context, opts ListOpts) ([]AuditEntry, error)
}
