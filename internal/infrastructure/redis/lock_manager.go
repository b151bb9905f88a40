package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// LockManager hands out per-preference locks. Implements checkout.Locker.
type LockManager struct {
	client *redis.Client
	ttl    time.Duration
}

// NewLockManager creates a lock manager with the given lock TTL.
func NewLockManager(client *redis.Client, ttl time.Duration) *LockManager {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &LockManager{client: client, ttl: ttl}
}

// Acquire takes the lock for a preference id and returns its release
// function. release is non-nil only when acquired.
func (m *LockManager) Acquire(ctx context.Context, preferenceID string) (func(context.Context), bool, error) {
	lock := NewPreferenceLock(m.client, preferenceID, m.ttl)
	ok, err := lock.Acquire(ctx)
	if err != nil || !ok {
		return nil, false, err
	}
	return func(ctx context.Context) { _ = lock.Release(ctx) }, true, nil
}
