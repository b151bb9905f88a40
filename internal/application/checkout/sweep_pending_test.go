package checkout_test

import (
	"context"
	"testing"
	"time"

	"github.com/lucasferr/payrelay/internal/application/checkout"
	"github.com/lucasferr/payrelay/internal/domain/transaction"
	"github.com/lucasferr/payrelay/internal/provider"
	"github.com/lucasferr/payrelay/internal/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSweepUC(repo *testutil.MockTransactionRepository, client *testutil.MockProviderClient) *checkout.SweepPendingUseCase {
	reconciler := checkout.NewReconcileWebhookUseCase(repo, nil, nil, nil, zerolog.Nop())
	return checkout.NewSweepPendingUseCase(
		repo, client, reconciler, 15*time.Minute, 50, nil, zerolog.Nop(),
	)
}

func TestSweep_ReconcilesStalePending(t *testing.T) {
	repo := testutil.NewMockTransactionRepository()
	repo.Add(testutil.NewStaleTransaction("PREF123", "M1", time.Hour))
	client := testutil.NewMockProviderClient()
	client.PaymentOutcomeByPreferenceFunc = func(_ context.Context, id string) (*provider.PaymentOutcome, error) {
		return &provider.PaymentOutcome{Status: "approved", Found: true}, nil
	}

	n, err := newSweepUC(repo, client).Execute(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, n)
	assert.Equal(t, transaction.StatusPaid, repo.Get("PREF123").Status)
}

func TestSweep_SkipsUnpaidPreference(t *testing.T) {
	repo := testutil.NewMockTransactionRepository()
	repo.Add(testutil.NewStaleTransaction("PREF123", "M1", time.Hour))
	client := testutil.NewMockProviderClient() // Found=false by default

	n, err := newSweepUC(repo, client).Execute(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, n)
	assert.Equal(t, transaction.StatusPending, repo.Get("PREF123").Status)
}

func TestSweep_IgnoresFreshPending(t *testing.T) {
	repo := testutil.NewMockTransactionRepository()
	repo.Add(testutil.NewTestTransaction("PREF123", "M1"))
	client := testutil.NewMockProviderClient()
	client.PaymentOutcomeByPreferenceFunc = func(_ context.Context, id string) (*provider.PaymentOutcome, error) {
		t.Fatal("fresh pending transactions must not be queried")
		return nil, nil
	}

	n, err := newSweepUC(repo, client).Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestSweep_RejectedMovesToFailed(t *testing.T) {
	repo := testutil.NewMockTransactionRepository()
	repo.Add(testutil.NewStaleTransaction("PREF123", "M1", time.Hour))
	client := testutil.NewMockProviderClient()
	client.PaymentOutcomeByPreferenceFunc = func(_ context.Context, id string) (*provider.PaymentOutcome, error) {
		return &provider.PaymentOutcome{Status: "rejected", Found: true}, nil
	}

	n, err := newSweepUC(repo, client).Execute(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, n)
	assert.Equal(t, transaction.StatusFailed, repo.Get("PREF123").Status)
}
