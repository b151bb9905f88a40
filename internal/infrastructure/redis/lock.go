package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Lua script for safe lock release (only owner can release)
var releaseLockScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`)

// PreferenceLock serializes concurrent webhook deliveries for one
// preference id. Best effort: the monotonic transition guard stays correct
// without it, the lock just avoids wasted conflicting writes.
type PreferenceLock struct {
	client *redis.Client
	key    string
	value  string
	ttl    time.Duration
}

// NewPreferenceLock creates a lock scoped to a preference id.
func NewPreferenceLock(client *redis.Client, preferenceID string, ttl time.Duration) *PreferenceLock {
	return &PreferenceLock{
		client: client,
		key:    fmt.Sprintf("lock:preference:%s", preferenceID),
		value:  uuid.New().String(),
		ttl:    ttl,
	}
}

// Acquire attempts to take the lock with SET NX.
func (l *PreferenceLock) Acquire(ctx context.Context) (bool, error) {
	ok, err := l.client.SetNX(ctx, l.key, l.value, l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire lock: %w", err)
	}
	return ok, nil
}

// Release frees the lock if this holder still owns it.
func (l *PreferenceLock) Release(ctx context.Context) error {
	if err := releaseLockScript.Run(ctx, l.client, []string{l.key}, l.value).Err(); err != nil && err != redis.Nil {
		return fmt.Errorf("failed to release lock: %w", err)
	}
	return nil
}
