package controller

import (
	"net/http"

	"github.com/lucasferr/payrelay/internal/application/checkout"
	"github.com/go-chi/chi/v5"
)

// PaymentController handles payment initiation and status lookups.
type PaymentController struct {
	createUC    *checkout.CreatePaymentUseCase
	getStatusUC *checkout.GetStatusUseCase
}

// NewPaymentController creates a new PaymentController.
func NewPaymentController(createUC *checkout.CreatePaymentUseCase, getStatusUC *checkout.GetStatusUseCase) *PaymentController {
	return &PaymentController{createUC: createUC, getStatusUC: getStatusUC}
}

// Root handles GET / with a plain-text liveness message.
func (c *PaymentController) Root(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("payrelay is up"))
}

// CreatePayment handles POST /create-payment
func (c *PaymentController) CreatePayment(w http.ResponseWriter, r *http.Request) {
	var req CreatePaymentRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	resp, err := c.createUC.Execute(r.Context(), checkout.CreatePaymentRequest{
		MachineID: req.MachineID,
		Items:     req.ToItems(),
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, CreatePaymentResponse{
		PaymentURL: resp.PaymentURL,
		QRData:     resp.QRData,
	})
}

// GetTransactionStatus handles GET /transaction-status/{transactionID}
func (c *PaymentController) GetTransactionStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "transactionID")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "missing transaction id", Code: "invalid_id"})
		return
	}

	t, err := c.getStatusUC.Execute(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, FromTransaction(t))
}
