package checkout_test

import (
	"context"
	"errors"
	"testing"

	"github.com/lucasferr/payrelay/internal/application/checkout"
	domainErrors "github.com/lucasferr/payrelay/internal/domain/errors"
	"github.com/lucasferr/payrelay/internal/domain/transaction"
	"github.com/lucasferr/payrelay/internal/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newReconcileUC(repo *testutil.MockTransactionRepository) *checkout.ReconcileWebhookUseCase {
	return checkout.NewReconcileWebhookUseCase(
		repo, testutil.NewMockLocker(), testutil.NewMockDeduper(), nil, zerolog.Nop(),
	)
}

func TestReconcile_ApprovedMovesToPaid(t *testing.T) {
	repo := testutil.NewMockTransactionRepository()
	repo.Add(testutil.NewTestTransaction("PREF123", "M1"))
	uc := newReconcileUC(repo)

	err := uc.Execute(context.Background(), checkout.Notification{
		PreferenceID:  "PREF123",
		PaymentStatus: "approved",
	})
	require.NoError(t, err)

	assert.Equal(t, transaction.StatusPaid, repo.Get("PREF123").Status)
}

func TestReconcile_NonApprovedMovesToFailed(t *testing.T) {
	for _, status := range []string{"rejected", "cancelled", "in_process", ""} {
		t.Run("status "+status, func(t *testing.T) {
			repo := testutil.NewMockTransactionRepository()
			repo.Add(testutil.NewTestTransaction("PREF123", "M1"))
			uc := newReconcileUC(repo)

			err := uc.Execute(context.Background(), checkout.Notification{
				PreferenceID:  "PREF123",
				PaymentStatus: status,
			})
			require.NoError(t, err)
			assert.Equal(t, transaction.StatusFailed, repo.Get("PREF123").Status)
		})
	}
}

func TestReconcile_UnknownTransaction(t *testing.T) {
	repo := testutil.NewMockTransactionRepository()
	uc := newReconcileUC(repo)

	err := uc.Execute(context.Background(), checkout.Notification{
		PreferenceID:  "PREF404",
		PaymentStatus: "approved",
	})
	assert.ErrorIs(t, err, domainErrors.ErrTransactionNotFound)
	assert.Equal(t, 0, repo.Len(), "the store is never mutated")
}

func TestReconcile_EmptyPreferenceID(t *testing.T) {
	repo := testutil.NewMockTransactionRepository()
	uc := newReconcileUC(repo)

	err := uc.Execute(context.Background(), checkout.Notification{PaymentStatus: "approved"})
	require.Error(t, err)

	var validationErr *domainErrors.ValidationError
	assert.ErrorAs(t, err, &validationErr)
}

// Delivering the identical notification twice yields the same stored
// status as delivering it once.
func TestReconcile_DuplicateDeliveryIdempotent(t *testing.T) {
	repo := testutil.NewMockTransactionRepository()
	repo.Add(testutil.NewTestTransaction("PREF123", "M1"))
	uc := newReconcileUC(repo)

	n := checkout.Notification{PreferenceID: "PREF123", PaymentStatus: "approved"}
	require.NoError(t, uc.Execute(context.Background(), n))
	require.NoError(t, uc.Execute(context.Background(), n))

	assert.Equal(t, transaction.StatusPaid, repo.Get("PREF123").Status)
}

// Duplicate handling must not rely on the dedup cache being populated.
func TestReconcile_DuplicateDeliveryWithoutDeduper(t *testing.T) {
	repo := testutil.NewMockTransactionRepository()
	repo.Add(testutil.NewTestTransaction("PREF123", "M1"))
	uc := checkout.NewReconcileWebhookUseCase(repo, nil, nil, nil, zerolog.Nop())

	n := checkout.Notification{PreferenceID: "PREF123", PaymentStatus: "approved"}
	require.NoError(t, uc.Execute(context.Background(), n))
	require.NoError(t, uc.Execute(context.Background(), n))

	assert.Equal(t, transaction.StatusPaid, repo.Get("PREF123").Status)
}

// Out-of-order delivery: approved then rejected must leave the record
// paid. The terminal status wins over the late disagreement.
func TestReconcile_OutOfOrderDelivery(t *testing.T) {
	repo := testutil.NewMockTransactionRepository()
	repo.Add(testutil.NewTestTransaction("PREF123", "M1"))
	uc := newReconcileUC(repo)

	require.NoError(t, uc.Execute(context.Background(), checkout.Notification{
		PreferenceID: "PREF123", PaymentStatus: "approved",
	}))
	require.NoError(t, uc.Execute(context.Background(), checkout.Notification{
		PreferenceID: "PREF123", PaymentStatus: "rejected",
	}))

	assert.Equal(t, transaction.StatusPaid, repo.Get("PREF123").Status)
}

func TestReconcile_LateApprovalNeverPromotesFailed(t *testing.T) {
	repo := testutil.NewMockTransactionRepository()
	failed := testutil.NewTestTransaction("PREF123", "M1")
	failed.Status = transaction.StatusFailed
	repo.Add(failed)
	uc := newReconcileUC(repo)

	err := uc.Execute(context.Background(), checkout.Notification{
		PreferenceID: "PREF123", PaymentStatus: "approved",
	})
	require.NoError(t, err, "conflicts are acknowledged, not errored")
	assert.Equal(t, transaction.StatusFailed, repo.Get("PREF123").Status)
}

func TestReconcile_UpdateFailure(t *testing.T) {
	repo := testutil.NewMockTransactionRepository()
	repo.Add(testutil.NewTestTransaction("PREF123", "M1"))
	repo.UpdateStatusFunc = func(context.Context, string, transaction.Status) error {
		return errors.New("write timeout")
	}
	uc := newReconcileUC(repo)

	err := uc.Execute(context.Background(), checkout.Notification{
		PreferenceID: "PREF123", PaymentStatus: "approved",
	})
	assert.Error(t, err)
}

// A dedup outage must not block reconciliation.
func TestReconcile_DeduperFailureIsBestEffort(t *testing.T) {
	repo := testutil.NewMockTransactionRepository()
	repo.Add(testutil.NewTestTransaction("PREF123", "M1"))
	deduper := testutil.NewMockDeduper()
	deduper.SeenFunc = func(context.Context, string, string) (bool, error) {
		return false, errors.New("redis down")
	}
	uc := checkout.NewReconcileWebhookUseCase(repo, nil, deduper, nil, zerolog.Nop())

	err := uc.Execute(context.Background(), checkout.Notification{
		PreferenceID: "PREF123", PaymentStatus: "approved",
	})
	require.NoError(t, err)
	assert.Equal(t, transaction.StatusPaid, repo.Get("PREF123").Status)
}

func TestReconcile_LocksPerPreference(t *testing.T) {
	repo := testutil.NewMockTransactionRepository()
	repo.Add(testutil.NewTestTransaction("PREF123", "M1"))
	locker := testutil.NewMockLocker()
	uc := checkout.NewReconcileWebhookUseCase(repo, locker, nil, nil, zerolog.Nop())

	require.NoError(t, uc.Execute(context.Background(), checkout.Notification{
		PreferenceID: "PREF123", PaymentStatus: "approved",
	}))
	assert.Equal(t, []string{"PREF123"}, locker.Acquired())
}
