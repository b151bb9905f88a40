package checkout

import (
	"context"
	"errors"
	"time"

	domainErrors "github.com/lucasferr/payrelay/internal/domain/errors"
	"github.com/lucasferr/payrelay/internal/domain/transaction"
	"github.com/lucasferr/payrelay/internal/infrastructure/observability"
	"github.com/lucasferr/payrelay/internal/provider"
	"github.com/lucasferr/payrelay/pkg/retry"
	"github.com/rs/zerolog"
)

// SweepPendingUseCase reconciles transactions stuck in pending after their
// webhook never arrived (at-least-once delivery includes "not at all" in
// practice). It queries the provider directly for the payment outcome and
// funnels it through the same reconciliation path a webhook would take.
//
// It cannot recover the true orphan case, a provider-side preference with
// no local record, because there is no key to sweep by.
type SweepPendingUseCase struct {
	repo           transaction.Repository
	providerClient provider.Client
	reconciler     *ReconcileWebhookUseCase
	staleAfter     time.Duration
	batchSize      int
	metrics        *observability.Metrics
	logger         zerolog.Logger
}

// NewSweepPendingUseCase creates a new SweepPendingUseCase.
func NewSweepPendingUseCase(
	repo transaction.Repository,
	providerClient provider.Client,
	reconciler *ReconcileWebhookUseCase,
	staleAfter time.Duration,
	batchSize int,
	metrics *observability.Metrics,
	logger zerolog.Logger,
) *SweepPendingUseCase {
	return &SweepPendingUseCase{
		repo:           repo,
		providerClient: providerClient,
		reconciler:     reconciler,
		staleAfter:     staleAfter,
		batchSize:      batchSize,
		metrics:        metrics,
		logger:         logger,
	}
}

// Execute runs one sweep pass and returns how many transactions were
// moved to a terminal status.
func (uc *SweepPendingUseCase) Execute(ctx context.Context) (int, error) {
	start := time.Now()
	defer func() {
		if uc.metrics != nil {
			uc.metrics.SweeperRunDuration.Observe(time.Since(start).Seconds())
		}
	}()

	cutoff := time.Now().Add(-uc.staleAfter)
	stale, err := uc.repo.ListStalePending(ctx, cutoff, uc.batchSize)
	if err != nil {
		return 0, err
	}

	reconciled := 0
	for _, t := range stale {
		n, err := uc.sweepOne(ctx, t)
		if err != nil {
			uc.logger.Error().Err(err).
				Str("preference_id", t.ID).
				Msg("sweep failed for transaction")
			uc.countSweep("error")
			continue
		}
		reconciled += n
	}

	if len(stale) > 0 {
		uc.logger.Info().
			Int("stale", len(stale)).
			Int("reconciled", reconciled).
			Msg("sweep pass finished")
	}
	return reconciled, nil
}

func (uc *SweepPendingUseCase) sweepOne(ctx context.Context, t *transaction.Transaction) (int, error) {
	// The search is read-only, so retrying with backoff is safe.
	outcome, err := retry.DoWithResult(ctx, retry.DefaultConfig(), func() (*provider.PaymentOutcome, error) {
		return uc.providerClient.PaymentOutcomeByPreference(ctx, t.ID)
	})
	if err != nil {
		return 0, err
	}
	if !outcome.Found {
		// The buyer may simply not have paid yet.
		uc.countSweep("still_pending")
		return 0, nil
	}

	err = uc.reconciler.Execute(ctx, Notification{
		PreferenceID:  t.ID,
		PaymentStatus: outcome.Status,
	})
	if err != nil {
		if errors.Is(err, domainErrors.ErrTransactionNotFound) {
			return 0, nil
		}
		return 0, err
	}
	uc.countSweep("reconciled")
	return 1, nil
}

func (uc *SweepPendingUseCase) countSweep(result string) {
	if uc.metrics != nil {
		uc.metrics.SweeperReconciledTotal.WithLabelValues(result).Inc()
	}
}
