package checkout

import (
	"context"
)

// Locker serializes reconciliation work per preference id. Best effort:
// when the lock cannot be acquired the caller proceeds anyway, relying on
// the transition guard.
type Locker interface {
	Acquire(ctx context.Context, preferenceID string) (release func(context.Context), acquired bool, err error)
}

// Deduper detects re-delivered webhook notifications. Deliveries are
// marked only after a successful apply so a failed attempt is retried
// cleanly by the provider.
type Deduper interface {
	// Seen reports whether this delivery was already applied.
	Seen(ctx context.Context, preferenceID, paymentStatus string) (bool, error)
	// MarkApplied records a successfully applied delivery.
	MarkApplied(ctx context.Context, preferenceID, paymentStatus string) error
}
