package controller

import (
	"time"

	"github.com/lucasferr/payrelay/internal/domain/transaction"
)

// CreatePaymentRequest is the POST /create-payment body.
type CreatePaymentRequest struct {
	MachineID string        `json:"machine_id" validate:"required"`
	Items     []ItemRequest `json:"items" validate:"required,min=1,dive"`
}

// ItemRequest is one purchased line item.
type ItemRequest struct {
	Name     string  `json:"name" validate:"required"`
	Quantity int     `json:"quantity" validate:"required,gt=0"`
	Price    float64 `json:"price" validate:"gte=0"`
}

// CreatePaymentResponse carries the checkout URL and the preference id the
// client renders as a QR code.
type CreatePaymentResponse struct {
	PaymentURL string `json:"payment_url"`
	QRData     string `json:"qr_data"`
}

// WebhookRequest is the provider notification envelope. Only data.id and
// data.status are consumed; the rest of the envelope is ignored.
type WebhookRequest struct {
	Type string `json:"type"`
	Data struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	} `json:"data"`
}

// TransactionResponse is the stored record as returned by the status
// endpoint: exactly the persisted fields, nothing extra.
type TransactionResponse struct {
	ID        string         `json:"id"`
	MachineID string         `json:"machine_id"`
	Status    string         `json:"status"`
	Items     []ItemResponse `json:"items"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// ItemResponse mirrors the stored item snapshot.
type ItemResponse struct {
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

// ErrorResponse is the error body shape for all endpoints.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// ToItems converts request items into domain items.
func (r *CreatePaymentRequest) ToItems() []transaction.Item {
	items := make([]transaction.Item, 0, len(r.Items))
	for _, it := range r.Items {
		items = append(items, transaction.Item{
			Name:     it.Name,
			Quantity: it.Quantity,
			Price:    it.Price,
		})
	}
	return items
}

// FromTransaction maps a domain transaction to its response shape.
func FromTransaction(t *transaction.Transaction) *TransactionResponse {
	items := make([]ItemResponse, 0, len(t.Items))
	for _, it := range t.Items {
		items = append(items, ItemResponse{
			Name:     it.Name,
			Quantity: it.Quantity,
			Price:    it.Price,
		})
	}
	return &TransactionResponse{
		ID:        t.ID,
		MachineID: t.MachineID,
		Status:    string(t.Status),
		Items:     items,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}
