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

// BreakdownCache implements domain.BreakdownCache with JSON values under
// "breakdown:{vaultID}".
type BreakdownCache struct {
	rdb *redis.Client
}

// NewBreakdownCache creates a BreakdownCache backed by the given Client.
func NewBreakdownCache(c *Client) *BreakdownCache {
	return &BreakdownCache{rdb: c.Underlying()}
}

func breakdownKey(vaultID string) string {
	return "breakdown:" + vaultID
}

// Set stores a breakdown, replacing any previous value in full.
func (bc *BreakdownCache) Set(ctx context.Context, vaultID string, b domain.Breakdown, ttl time.Duration) error {
	data, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("redis: marshal breakdown %s: %w", vaultID, err)
	}
	if err := bc.rdb.Set(ctx, breakdownKey(vaultID), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis: set breakdown %s: %w", vaultID, err)
	}
	return nil
}

// Get retrieves a breakdown. It returns domain.ErrNotFound when nothing is
// cached for the vault.
func (bc *BreakdownCache) Get(ctx context.Context, vaultID string) (domain.Breakdown, error) {
	data, err := bc.rdb.Get(ctx, breakdownKey(vaultID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Breakdown{}, domain.ErrNotFound
		}
		return domain.Breakdown{}, fmt.Errorf("redis: get breakdown %s: %w", vaultID, err)
	}

	var b domain.Breakdown
	if err := json.Unmarshal(data, &b); err != nil {
		return domain.Breakdown{}, fmt.Errorf("redis: unmarshal breakdown %s: %w", vaultID, err)
	}
	return b, nil
}

// Invalidate removes a cached breakdown.
func (bc *BreakdownCache) Invalidate(ctx context.Context, vaultID string) error {
	if err := bc.rdb.Del(ctx, breakdownKey(vaultID)).Err(); err != nil {
		return fmt.Errorf("redis: invalidate breakdown %s: %w", vaultID, err)
	}
	return nil
}

// Compile-time interface check.
var _ domain.BreakdownCache = (*BreakdownCache)(nil)
