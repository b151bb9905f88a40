package testutil

import (
	"time"

	"github.com/lucasferr/payrelay/internal/domain/transaction"
)

// TestItems returns the canonical one-item order used across tests.
func TestItems() []transaction.Item {
	return []transaction.Item{{Name: "Soda", Quantity: 2, Price: 15}}
}

// NewTestTransaction builds a pending transaction with sensible defaults.
func NewTestTransaction(id, machineID string) *transaction.Transaction {
	now := time.Now()
	return &transaction.Transaction{
		ID:        id,
		MachineID: machineID,
		Items:     TestItems(),
		Status:    transaction.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NewStaleTransaction builds a pending transaction created in the past.
func NewStaleTransaction(id, machineID string, age time.Duration) *transaction.Transaction {
	t := NewTestTransaction(id, machineID)
	t.CreatedAt = time.Now().Add(-age)
	t.UpdatedAt = t.CreatedAt
	return t
}
