package provider

import (
	"context"
)

// Preference is the provider's payable order description: an id plus the
// checkout URL the buyer is sent to.
type Preference struct {
	ID        string
	InitPoint string
}

// PreferenceItem is one line item of a preference request.
type PreferenceItem struct {
	Title      string  `json:"title"`
	Quantity   int     `json:"quantity"`
	CurrencyID string  `json:"currency_id"`
	UnitPrice  float64 `json:"unit_price"`
}

// PreferenceRequest describes the preference to create.
type PreferenceRequest struct {
	Items             []PreferenceItem `json:"items"`
	ExternalReference string           `json:"external_reference"`
	NotificationURL   string           `json:"notification_url"`
}

// PaymentOutcome is the provider's view of a payment attached to a
// preference, as returned by a direct query (not a webhook).
type PaymentOutcome struct {
	// Status is the provider's raw status string ("approved", "rejected", ...).
	Status string
	// Found reports whether any payment exists for the preference yet.
	Found bool
}

// Client is the outbound port to the payment provider.
type Client interface {
	// CreatePreference creates a payment preference and returns the
	// provider-assigned id and checkout URL.
	CreatePreference(ctx context.Context, req PreferenceRequest) (*Preference, error)
	// PaymentOutcomeByPreference queries the latest payment outcome for a
	// preference. Used by the sweeper when the webhook never arrived.
	PaymentOutcomeByPreference(ctx context.Context, preferenceID string) (*PaymentOutcome, error)
}
