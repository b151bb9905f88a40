package checkout

import (
	"context"

	domainErrors "github.com/lucasferr/payrelay/internal/domain/errors"
	"github.com/lucasferr/payrelay/internal/domain/transaction"
	"github.com/lucasferr/payrelay/internal/infrastructure/observability"
	"github.com/lucasferr/payrelay/internal/provider"
	"github.com/rs/zerolog"
)

// CreatePaymentRequest holds the input for initiating a payment.
type CreatePaymentRequest struct {
	MachineID string
	Items     []transaction.Item
}

// CreatePaymentResponse holds the checkout URL and the preference id the
// client renders as a QR code.
type CreatePaymentResponse struct {
	PaymentURL string
	QRData     string
}

// CreatePaymentUseCase validates an order, creates a provider preference
// and records the pending transaction under the provider-assigned id.
type CreatePaymentUseCase struct {
	repo            transaction.Repository
	providerClient  provider.Client
	currency        string
	notificationURL string
	metrics         *observability.Metrics
	logger          zerolog.Logger
}

// NewCreatePaymentUseCase creates a new CreatePaymentUseCase. metrics may
// be nil.
func NewCreatePaymentUseCase(
	repo transaction.Repository,
	providerClient provider.Client,
	currency string,
	notificationURL string,
	metrics *observability.Metrics,
	logger zerolog.Logger,
) *CreatePaymentUseCase {
	return &CreatePaymentUseCase{
		repo:            repo,
		providerClient:  providerClient,
		currency:        currency,
		notificationURL: notificationURL,
		metrics:         metrics,
		logger:          logger,
	}
}

// Execute runs the create-payment flow. Validation happens before any
// provider call; a store failure after provider acceptance leaves an
// orphaned provider-side preference with no local record, which the
// sweeper cannot find.
func (uc *CreatePaymentUseCase) Execute(ctx context.Context, req CreatePaymentRequest) (*CreatePaymentResponse, error) {
	if req.MachineID == "" {
		return nil, domainErrors.NewValidationError("machine_id", "cannot be empty")
	}
	if err := transaction.ValidateItems(req.Items); err != nil {
		return nil, err
	}

	prefItems := make([]provider.PreferenceItem, 0, len(req.Items))
	for _, it := range req.Items {
		prefItems = append(prefItems, provider.PreferenceItem{
			Title:      it.Name,
			Quantity:   it.Quantity,
			CurrencyID: uc.currency,
			UnitPrice:  it.Price,
		})
	}

	pref, err := uc.providerClient.CreatePreference(ctx, provider.PreferenceRequest{
		Items:             prefItems,
		ExternalReference: req.MachineID,
		NotificationURL:   uc.notificationURL,
	})
	if err != nil {
		uc.countError("provider")
		uc.logger.Error().Err(err).
			Str("machine_id", req.MachineID).
			Msg("preference creation failed")
		return nil, err
	}

	t, err := transaction.New(pref.ID, req.MachineID, req.Items)
	if err != nil {
		return nil, err
	}
	if err := uc.repo.Create(ctx, t); err != nil {
		// Provider accepted the preference but we have no record of it.
		uc.countError("store")
		uc.logger.Error().Err(err).
			Str("machine_id", req.MachineID).
			Str("preference_id", pref.ID).
			Msg("transaction write failed after preference creation, preference is orphaned")
		return nil, domainErrors.NewDomainError(
			"store_write",
			"failed to persist transaction",
			domainErrors.ErrPaymentCreation,
		)
	}

	if uc.metrics != nil {
		uc.metrics.PaymentsCreatedTotal.WithLabelValues("success").Inc()
	}
	uc.logger.Info().
		Str("machine_id", req.MachineID).
		Str("preference_id", pref.ID).
		Msg("payment created")

	return &CreatePaymentResponse{
		PaymentURL: pref.InitPoint,
		QRData:     pref.ID,
	}, nil
}

func (uc *CreatePaymentUseCase) countError(errorType string) {
	if uc.metrics != nil {
		uc.metrics.PaymentErrors.WithLabelValues(errorType).Inc()
	}
}
