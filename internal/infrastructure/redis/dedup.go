package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// NotificationDedup remembers webhook deliveries that were already applied
// so re-deliveries can be acknowledged without touching the store. Entries
// are written only after a successful apply; a delivery that failed midway
// is not remembered, so the provider's retry gets a clean attempt.
// Reconciliation stays idempotent even when an entry has expired.
type NotificationDedup struct {
	client *redis.Client
	ttl    time.Duration
}

// NewNotificationDedup creates a dedup tracker with the given entry TTL.
func NewNotificationDedup(client *redis.Client, ttl time.Duration) *NotificationDedup {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &NotificationDedup{client: client, ttl: ttl}
}

func dedupKey(preferenceID, paymentStatus string) string {
	return fmt.Sprintf("webhook:applied:%s:%s", preferenceID, paymentStatus)
}

// Seen reports whether this (preference id, reported status) pair was
// already applied.
func (d *NotificationDedup) Seen(ctx context.Context, preferenceID, paymentStatus string) (bool, error) {
	err := d.client.Get(ctx, dedupKey(preferenceID, paymentStatus)).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check notification delivery: %w", err)
	}
	return true, nil
}

// MarkApplied records a successfully applied delivery.
func (d *NotificationDedup) MarkApplied(ctx context.Context, preferenceID, paymentStatus string) error {
	if err := d.client.Set(ctx, dedupKey(preferenceID, paymentStatus), 1, d.ttl).Err(); err != nil {
		return fmt.Errorf("failed to record notification delivery: %w", err)
	}
	return nil
}
