package checkout

import (
	"context"

	"github.com/lucasferr/payrelay/internal/domain/transaction"
)

// GetStatusUseCase is the read-only transaction lookup.
type GetStatusUseCase struct {
	repo transaction.Repository
}

// NewGetStatusUseCase creates a new GetStatusUseCase.
func NewGetStatusUseCase(repo transaction.Repository) *GetStatusUseCase {
	return &GetStatusUseCase{repo: repo}
}

// Execute returns the stored record as-is, or
// domainErrors.ErrTransactionNotFound for an absent key.
func (uc *GetStatusUseCase) Execute(ctx context.Context, id string) (*transaction.Transaction, error) {
	return uc.repo.GetByID(ctx, id)
}
