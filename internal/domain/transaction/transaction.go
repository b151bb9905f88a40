package transaction

import (
	"time"

	"github.com/lucasferr/payrelay/internal/domain/errors"
)

// Status represents the transaction status in the state machine.
type Status string

const (
	StatusPending Status = "pending"
	StatusPaid    Status = "paid"
	StatusFailed  Status = "failed"
)

// OutcomeApproved is the provider-reported payment status that maps to
// StatusPaid. Every other reported value maps to StatusFailed.
const OutcomeApproved = "approved"

// Item is an immutable snapshot of one purchased line item.
type Item struct {
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

// Transaction tracks the lifecycle of one provider preference. The ID is
// the provider-assigned preference id; this system never generates its own.
type Transaction struct {
	ID        string
	MachineID string
	Items     []Item
	Status    Status
	CreatedAt time.Time
	UpdatedAt time.Time
}

// New creates a pending transaction for a provider-assigned preference id.
func New(id, machineID string, items []Item) (*Transaction, error) {
	if id == "" {
		return nil, errors.NewValidationError("id", "cannot be empty")
	}
	if machineID == "" {
		return nil, errors.NewValidationError("machine_id", "cannot be empty")
	}
	if err := ValidateItems(items); err != nil {
		return nil, err
	}

	now := time.Now()
	return &Transaction{
		ID:        id,
		MachineID: machineID,
		Items:     items,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// ValidateItems checks that items is a non-empty sequence of well-formed
// line items.
func ValidateItems(items []Item) error {
	if len(items) == 0 {
		return errors.NewValidationError("items", "must be a non-empty list")
	}
	for _, it := range items {
		if it.Name == "" {
			return errors.NewValidationError("items.name", "cannot be empty")
		}
		if it.Quantity <= 0 {
			return errors.NewValidationError("items.quantity", "must be greater than 0")
		}
		if it.Price < 0 {
			return errors.NewValidationError("items.price", "cannot be negative")
		}
	}
	return nil
}

// ClassifyOutcome maps a provider-reported payment status to a terminal
// transaction status: the literal "approved" means paid, anything else
// (rejected, cancelled, empty string) means failed.
func ClassifyOutcome(paymentStatus string) Status {
	if paymentStatus == OutcomeApproved {
		return StatusPaid
	}
	return StatusFailed
}

// ApplyOutcome computes the status transition for a reported payment
// outcome. Only pending -> paid and pending -> failed are allowed; a
// terminal status never moves. The second return reports whether the
// store must be updated, so re-delivered notifications are no-ops.
//
// Returns ErrStatusConflict when a terminal status receives a disagreeing
// outcome, which callers log but do not apply. Notifications can arrive
// duplicated and out of order, so this guard is what keeps an early
// "approved" from being overwritten by a late "rejected".
func ApplyOutcome(current Status, paymentStatus string) (Status, bool, error) {
	next := ClassifyOutcome(paymentStatus)

	switch current {
	case StatusPending:
		return next, true, nil
	case StatusPaid, StatusFailed:
		if next == current {
			return current, false, nil
		}
		return current, false, errors.ErrStatusConflict
	default:
		return current, false, errors.NewDomainError(
			"unknown_status",
			"transaction has unknown status "+string(current),
			errors.ErrInvalidStateTransition,
		)
	}
}

// IsTerminal checks if the status admits no further transitions.
func (s Status) IsTerminal() bool {
	return s == StatusPaid || s == StatusFailed
}
