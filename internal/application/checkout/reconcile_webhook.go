package checkout

import (
	"context"
	"errors"

	domainErrors "github.com/lucasferr/payrelay/internal/domain/errors"
	"github.com/lucasferr/payrelay/internal/domain/transaction"
	"github.com/lucasferr/payrelay/internal/infrastructure/observability"
	"github.com/rs/zerolog"
)

// ReconcileWebhookUseCase applies asynchronous provider notifications to
// the matching transaction. Deliveries can be duplicated and out of order;
// the monotonic transition guard in the transaction package keeps a
// terminal status from ever moving backward.
type ReconcileWebhookUseCase struct {
	repo    transaction.Repository
	locker  Locker
	deduper Deduper
	metrics *observability.Metrics
	logger  zerolog.Logger
}

// NewReconcileWebhookUseCase creates a new ReconcileWebhookUseCase.
// locker, deduper and metrics may be nil.
func NewReconcileWebhookUseCase(
	repo transaction.Repository,
	locker Locker,
	deduper Deduper,
	metrics *observability.Metrics,
	logger zerolog.Logger,
) *ReconcileWebhookUseCase {
	return &ReconcileWebhookUseCase{
		repo:    repo,
		locker:  locker,
		deduper: deduper,
		metrics: metrics,
		logger:  logger,
	}
}

// Notification is the validated content of a webhook delivery.
type Notification struct {
	PreferenceID  string
	PaymentStatus string
}

// Execute reconciles one notification. Returns
// domainErrors.ErrTransactionNotFound when no transaction exists for the
// preference id; the provider retries per its own policy.
func (uc *ReconcileWebhookUseCase) Execute(ctx context.Context, n Notification) error {
	if n.PreferenceID == "" {
		return domainErrors.NewValidationError("data.id", "cannot be empty")
	}

	log := uc.logger.With().
		Str("preference_id", n.PreferenceID).
		Str("payment_status", n.PaymentStatus).
		Logger()

	if uc.deduper != nil {
		seen, err := uc.deduper.Seen(ctx, n.PreferenceID, n.PaymentStatus)
		if err != nil {
			// Dedup is best effort; reconciliation is idempotent without it.
			log.Warn().Err(err).Msg("notification dedup unavailable")
		} else if seen {
			log.Debug().Msg("duplicate notification acknowledged")
			uc.count("duplicate", n.PaymentStatus)
			if uc.metrics != nil {
				uc.metrics.WebhookDuplicatesTotal.Inc()
			}
			return nil
		}
	}

	if uc.locker != nil {
		release, acquired, err := uc.locker.Acquire(ctx, n.PreferenceID)
		if err != nil {
			log.Warn().Err(err).Msg("preference lock unavailable")
		} else if acquired {
			defer release(ctx)
		}
	}

	t, err := uc.repo.GetByID(ctx, n.PreferenceID)
	if err != nil {
		if errors.Is(err, domainErrors.ErrTransactionNotFound) {
			log.Warn().Msg("notification for unknown transaction dropped")
			uc.count("unknown", n.PaymentStatus)
		}
		return err
	}

	next, changed, err := transaction.ApplyOutcome(t.Status, n.PaymentStatus)
	if err != nil {
		if errors.Is(err, domainErrors.ErrStatusConflict) {
			// Out-of-order delivery disagreeing with a terminal status.
			// Acknowledged without applying.
			log.Warn().
				Str("current_status", string(t.Status)).
				Msg("conflicting notification ignored")
			uc.count("conflict", n.PaymentStatus)
			if uc.metrics != nil {
				uc.metrics.WebhookConflictsTotal.Inc()
			}
			return nil
		}
		return err
	}
	if !changed {
		log.Debug().Msg("notification is a no-op")
		uc.count("noop", n.PaymentStatus)
		uc.markApplied(ctx, n, log)
		return nil
	}

	if err := uc.repo.UpdateStatus(ctx, n.PreferenceID, next); err != nil {
		return err
	}

	log.Info().
		Str("status", string(next)).
		Msg("transaction reconciled")
	uc.count("applied", n.PaymentStatus)
	uc.markApplied(ctx, n, log)
	return nil
}

func (uc *ReconcileWebhookUseCase) markApplied(ctx context.Context, n Notification, log zerolog.Logger) {
	if uc.deduper == nil {
		return
	}
	if err := uc.deduper.MarkApplied(ctx, n.PreferenceID, n.PaymentStatus); err != nil {
		log.Warn().Err(err).Msg("failed to record notification delivery")
	}
}

func (uc *ReconcileWebhookUseCase) count(result, paymentStatus string) {
	if uc.metrics == nil {
		return
	}
	outcome := string(transaction.ClassifyOutcome(paymentStatus))
	uc.metrics.WebhookNotificationsTotal.WithLabelValues(outcome, result).Inc()
}
