package controller

import (
	"net/http"

	"github.com/lucasferr/payrelay/internal/application/checkout"
	domainErrors "github.com/lucasferr/payrelay/internal/domain/errors"
	"github.com/lucasferr/payrelay/internal/provider/mercadopago"
	"github.com/rs/zerolog"
)

// WebhookController receives provider notifications. The signature check
// runs before anything else; without a configured secret it is skipped
// (the relay then trusts the network path, which startup logs warn about).
type WebhookController struct {
	reconcileUC   *checkout.ReconcileWebhookUseCase
	webhookSecret string
	logger        zerolog.Logger
}

// NewWebhookController creates a new WebhookController.
func NewWebhookController(reconcileUC *checkout.ReconcileWebhookUseCase, webhookSecret string, logger zerolog.Logger) *WebhookController {
	return &WebhookController{
		reconcileUC:   reconcileUC,
		webhookSecret: webhookSecret,
		logger:        logger,
	}
}

// HandleNotification handles POST /payment-webhook. Success is an empty
// 200; the status code is the only contract with the provider's retry
// machinery.
func (c *WebhookController) HandleNotification(w http.ResponseWriter, r *http.Request) {
	var req WebhookRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Data.ID == "" {
		// Fail closed on an envelope we cannot attribute.
		writeError(w, domainErrors.NewValidationError("data.id", "missing or malformed"))
		return
	}

	if c.webhookSecret != "" {
		err := mercadopago.VerifySignature(
			c.webhookSecret,
			r.Header.Get("x-signature"),
			r.Header.Get("x-request-id"),
			req.Data.ID,
		)
		if err != nil {
			c.logger.Warn().
				Str("preference_id", req.Data.ID).
				Msg("webhook signature rejected")
			writeError(w, err)
			return
		}
	}

	err := c.reconcileUC.Execute(r.Context(), checkout.Notification{
		PreferenceID:  req.Data.ID,
		PaymentStatus: req.Data.Status,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}
