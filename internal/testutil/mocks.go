package testutil

import (
	"context"
	"sync"
	"time"

	domainErrors "github.com/lucasferr/payrelay/internal/domain/errors"
	"github.com/lucasferr/payrelay/internal/domain/transaction"
	"github.com/lucasferr/payrelay/internal/provider"
)

// --- Transaction Repository Mock ---

// MockTransactionRepository is an in-memory implementation of
// transaction.Repository.
type MockTransactionRepository struct {
	mu           sync.Mutex
	transactions map[string]*transaction.Transaction

	CreateFunc           func(ctx context.Context, t *transaction.Transaction) error
	GetByIDFunc          func(ctx context.Context, id string) (*transaction.Transaction, error)
	UpdateStatusFunc     func(ctx context.Context, id string, status transaction.Status) error
	ListStalePendingFunc func(ctx context.Context, cutoff time.Time, limit int) ([]*transaction.Transaction, error)
}

func NewMockTransactionRepository() *MockTransactionRepository {
	return &MockTransactionRepository{
		transactions: make(map[string]*transaction.Transaction),
	}
}

// Add pre-populates the mock with a transaction.
func (m *MockTransactionRepository) Add(t *transaction.Transaction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transactions[t.ID] = t
}

// Get returns the stored transaction (test helper, no context needed).
func (m *MockTransactionRepository) Get(id string) *transaction.Transaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.transactions[id]
}

// Len returns the number of stored transactions.
func (m *MockTransactionRepository) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.transactions)
}

func (m *MockTransactionRepository) Create(ctx context.Context, t *transaction.Transaction) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, t)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *t
	m.transactions[t.ID] = &cp
	return nil
}

func (m *MockTransactionRepository) GetByID(ctx context.Context, id string) (*transaction.Transaction, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.transactions[id]
	if !ok {
		return nil, domainErrors.ErrTransactionNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *MockTransactionRepository) UpdateStatus(ctx context.Context, id string, status transaction.Status) error {
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, id, status)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.transactions[id]
	if !ok {
		return domainErrors.ErrTransactionNotFound
	}
	t.Status = status
	t.UpdatedAt = time.Now()
	return nil
}

func (m *MockTransactionRepository) ListStalePending(ctx context.Context, cutoff time.Time, limit int) ([]*transaction.Transaction, error) {
	if m.ListStalePendingFunc != nil {
		return m.ListStalePendingFunc(ctx, cutoff, limit)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*transaction.Transaction
	for _, t := range m.transactions {
		if t.Status == transaction.StatusPending && t.CreatedAt.Before(cutoff) {
			cp := *t
			result = append(result, &cp)
			if len(result) >= limit {
				break
			}
		}
	}
	return result, nil
}

// --- Provider Client Mock ---

// MockProviderClient is a mock implementation of provider.Client.
type MockProviderClient struct {
	mu       sync.Mutex
	requests []provider.PreferenceRequest

	CreatePreferenceFunc           func(ctx context.Context, req provider.PreferenceRequest) (*provider.Preference, error)
	PaymentOutcomeByPreferenceFunc func(ctx context.Context, preferenceID string) (*provider.PaymentOutcome, error)
}

func NewMockProviderClient() *MockProviderClient {
	return &MockProviderClient{}
}

func (m *MockProviderClient) CreatePreference(ctx context.Context, req provider.PreferenceRequest) (*provider.Preference, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()
	if m.CreatePreferenceFunc != nil {
		return m.CreatePreferenceFunc(ctx, req)
	}
	return &provider.Preference{ID: "PREF123", InitPoint: "https://checkout.example.com/PREF123"}, nil
}

func (m *MockProviderClient) PaymentOutcomeByPreference(ctx context.Context, preferenceID string) (*provider.PaymentOutcome, error) {
	if m.PaymentOutcomeByPreferenceFunc != nil {
		return m.PaymentOutcomeByPreferenceFunc(ctx, preferenceID)
	}
	return &provider.PaymentOutcome{Found: false}, nil
}

// CreateCalls returns how many preference requests were issued.
func (m *MockProviderClient) CreateCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// LastRequest returns the most recent preference request, or nil.
func (m *MockProviderClient) LastRequest() *provider.PreferenceRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.requests) == 0 {
		return nil
	}
	req := m.requests[len(m.requests)-1]
	return &req
}

// --- Deduper Mock ---

// MockDeduper is an in-memory implementation of checkout.Deduper.
type MockDeduper struct {
	mu      sync.Mutex
	applied map[string]bool

	SeenFunc func(ctx context.Context, preferenceID, paymentStatus string) (bool, error)
}

func NewMockDeduper() *MockDeduper {
	return &MockDeduper{applied: make(map[string]bool)}
}

func (m *MockDeduper) Seen(ctx context.Context, preferenceID, paymentStatus string) (bool, error) {
	if m.SeenFunc != nil {
		return m.SeenFunc(ctx, preferenceID, paymentStatus)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.applied[preferenceID+":"+paymentStatus], nil
}

func (m *MockDeduper) MarkApplied(ctx context.Context, preferenceID, paymentStatus string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.applied[preferenceID+":"+paymentStatus] = true
	return nil
}

// --- Locker Mock ---

// MockLocker is a no-contention implementation of checkout.Locker.
type MockLocker struct {
	mu       sync.Mutex
	acquired []string

	AcquireFunc func(ctx context.Context, preferenceID string) (func(context.Context), bool, error)
}

func NewMockLocker() *MockLocker {
	return &MockLocker{}
}

func (m *MockLocker) Acquire(ctx context.Context, preferenceID string) (func(context.Context), bool, error) {
	if m.AcquireFunc != nil {
		return m.AcquireFunc(ctx, preferenceID)
	}
	m.mu.Lock()
	m.acquired = append(m.acquired, preferenceID)
	m.mu.Unlock()
	return func(context.Context) {}, true, nil
}

// Acquired returns the preference ids locked so far.
func (m *MockLocker) Acquired() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.acquired...)
}
