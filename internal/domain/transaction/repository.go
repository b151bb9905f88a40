package transaction

import (
	"context"
	"time"
)

// Repository is the persistence port for transactions. The store is a
// keyed-document store addressed by the provider's preference id; a single
// call is atomic per key, and no multi-record transactions are used.
type Repository interface {
	// Create persists a new transaction keyed by its preference id.
	Create(ctx context.Context, t *Transaction) error
	// GetByID retrieves a transaction, or errors.ErrTransactionNotFound.
	GetByID(ctx context.Context, id string) (*Transaction, error)
	// UpdateStatus applies a partial update of the status field only,
	// leaving machine_id and items untouched. Returns
	// errors.ErrTransactionNotFound when the key is absent.
	UpdateStatus(ctx context.Context, id string, status Status) error
	// ListStalePending returns up to limit pending transactions created
	// before the cutoff, oldest first. Used by the reconciliation sweeper.
	ListStalePending(ctx context.Context, cutoff time.Time, limit int) ([]*Transaction, error)
}
