package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nodoventures/vaultsight/internal/domain"
)

// SummaryCache implements domain.SummaryCache using JSON-serialized summaries
// under per-key string values.
//
// Key schema:
//
//	insights:{vaultID}:{range}:{type} - JSON summary with TTL
//
// Empty range/type segments are kept so "all activity" and filtered views
// never collide.
type SummaryCache struct {
	rdb *redis.Client
}

// NewSummaryCache creates a SummaryCache backed by the given Client.
func NewSummaryCache(c *Client) *SummaryCache {
	return &SummaryCache{rdb: c.Underlying()}
}

func summaryKey(k domain.SummaryKey) string {
	return fmt.Sprintf("insights:%s:%s:%s", k.VaultID, k.TimeRange, k.ActionType)
}

// Set stores a summary, replacing any previous value for the key in full.
func (sc *SummaryCache) Set(ctx context.Context, key domain.SummaryKey, s *domain.Summary, ttl time.Duration) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("redis: marshal summary %s: %w", key.VaultID, err)
	}
	if err := sc.rdb.Set(ctx, summaryKey(key), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis: set summary %s: %w", key.VaultID, err)
	}
	return nil
}

// Get retrieves a summary. It returns domain.ErrNotFound when no summary is
// cached for the key.
func (sc *SummaryCache) Get(ctx context.Context, key domain.SummaryKey) (*domain.Summary, error) {
	data, err := sc.rdb.Get(ctx, summaryKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("redis: get summary %s: %w", key.VaultID, err)
	}

	var s domain.Summary
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("redis: unmarshal summary %s: %w", key.VaultID, err)
	}
	return &s, nil
}

// Invalidate removes a cached summary.
func (sc *SummaryCache) Invalidate(ctx context.Context, key domain.SummaryKey) error {
	if err := sc.rdb.Del(ctx, summaryKey(key)).Err(); err != nil {
		return fmt.Errorf("redis: invalidate summary %s: %w", key.VaultID, err)
	}
	return nil
}

// Compile-time interface check.
var _ domain.SummaryCache = (*SummaryCache)(nil)
