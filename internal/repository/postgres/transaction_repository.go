package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	domainErrors "github.com/lucasferr/payrelay/internal/domain/errors"
	"github.com/lucasferr/payrelay/internal/domain/transaction"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TransactionRepository implements transaction.Repository using PostgreSQL.
// Items are stored as a JSONB document so the record keeps the exact
// snapshot supplied at creation time.
type TransactionRepository struct {
	pool *pgxpool.Pool
}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{pool: pool}
}

// Create inserts a new transaction keyed by its preference id.
func (r *TransactionRepository) Create(ctx context.Context, t *transaction.Transaction) error {
	items, err := json.Marshal(t.Items)
	if err != nil {
		return fmt.Errorf("marshal items: %w", err)
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO transactions (id, machine_id, status, items, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		t.ID, t.MachineID, string(t.Status), items, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

// GetByID retrieves a transaction by preference id.
func (r *TransactionRepository) GetByID(ctx context.Context, id string) (*transaction.Transaction, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, machine_id, status, items, created_at, updated_at
		 FROM transactions WHERE id = $1`, id)

	return scanTransaction(row)
}

// UpdateStatus applies a partial update of the status field only.
func (r *TransactionRepository) UpdateStatus(ctx context.Context, id string, status transaction.Status) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE transactions SET status = $1, updated_at = $2 WHERE id = $3`,
		string(status), time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("update transaction status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrTransactionNotFound
	}
	return nil
}

// ListStalePending returns pending transactions created before the cutoff,
// oldest first.
func (r *TransactionRepository) ListStalePending(ctx context.Context, cutoff time.Time, limit int) ([]*transaction.Transaction, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, machine_id, status, items, created_at, updated_at
		 FROM transactions
		 WHERE status = $1 AND created_at < $2
		 ORDER BY created_at ASC
		 LIMIT $3`,
		string(transaction.StatusPending), cutoff, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query stale pending transactions: %w", err)
	}
	defer rows.Close()

	var result []*transaction.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	return result, rows.Err()
}

// scanner is satisfied by both pgx.Row and pgx.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row scanner) (*transaction.Transaction, error) {
	var (
		t      transaction.Transaction
		status string
		items  []byte
	)

	err := row.Scan(&t.ID, &t.MachineID, &status, &items, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrTransactionNotFound
		}
		return nil, fmt.Errorf("scan transaction: %w", err)
	}

	t.Status = transaction.Status(status)
	if err := json.Unmarshal(items, &t.Items); err != nil {
		return nil, fmt.Errorf("unmarshal items: %w", err)
	}
	return &t, nil
}
