package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/nodoventures/vaultsight/internal/domain"
)

// releaseLua frees a lock only when it still carries the holder's token, so
// a refresher whose lock expired mid-run cannot free a successor's lock.
const releaseLua = `
if redis.call('GET', KEYS[1]) == ARGV[1] then
    return redis.call('DEL', KEYS[1])
end
return 0
`

// releaseTimeout bounds the release call once the holder's own context is
// gone.
const releaseTimeout = 5 * time.Second

// LockManager hands out per-vault refresh locks under the "lock:" namespace
// using SET NX with a TTL. Parallel service instances use them to keep a
// vault's recomputation single-flight.
type LockManager struct {
	rdb     *redis.Client
	release *redis.Script
}

// NewLockManager creates a LockManager on the shared client.
func NewLockManager(c *Client) *LockManager {
	return &LockManager{
		rdb:     c.Underlying(),
		release: redis.NewScript(releaseLua),
	}
}

// Acquire takes the lock for key with the given TTL and returns the release
// function, which is idempotent. Another holder yields domain.ErrLockHeld.
func (lm *LockManager) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	token := uuid.New().String()
	name := "lock:" + key

	ok, err := lm.rdb.SetNX(ctx, name, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: acquire lock %s: %w", key, err)
	}
	if !ok {
		return nil, domain.ErrLockHeld
	}

	released := false
	return func() {
		if released {
			return
		}
		released = true

		// The holder's context is often cancelled by the time the lock is
		// released, so the release gets its own deadline.
		rctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
		defer cancel()
		_ = lm.release.Run(rctx, lm.rdb, []string{name}, token).Err()
	}, nil
}

var _ domain.LockManager = (*LockManager)(nil)
