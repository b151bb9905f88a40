package controller_test

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/lucasferr/payrelay/internal/application/checkout"
	"github.com/lucasferr/payrelay/internal/controller"
	"github.com/lucasferr/payrelay/internal/domain/transaction"
	"github.com/lucasferr/payrelay/internal/testutil"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

func newWebhookRouter(repo *testutil.MockTransactionRepository, secret string) *chi.Mux {
	reconcileUC := checkout.NewReconcileWebhookUseCase(repo, testutil.NewMockLocker(), testutil.NewMockDeduper(), nil, zerolog.Nop())
	c := controller.NewWebhookController(reconcileUC, secret, zerolog.Nop())

	r := chi.NewRouter()
	r.Post("/payment-webhook", c.HandleNotification)
	return r
}

func postWebhook(t *testing.T, router http.Handler, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/payment-webhook", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func signManifest(secret, dataID, requestID, ts string) string {
	manifest := fmt.Sprintf("id:%s;request-id:%s;ts:%s;", strings.ToLower(dataID), requestID, ts)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(manifest))
	return fmt.Sprintf("ts=%s,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func TestHandleNotification_ApprovedMarksPaid(t *testing.T) {
	repo := testutil.NewMockTransactionRepository()
	repo.Add(testutil.NewTestTransaction("PREF123", "M1"))
	router := newWebhookRouter(repo, "")

	w := postWebhook(t, router, `{"type":"payment","data":{"id":"PREF123","status":"approved"}}`, nil)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if got := repo.Get("PREF123").Status; got != transaction.StatusPaid {
		t.Errorf("expected paid, got %s", got)
	}
}

func TestHandleNotification_RejectedMarksFailed(t *testing.T) {
	repo := testutil.NewMockTransactionRepository()
	repo.Add(testutil.NewTestTransaction("PREF123", "M1"))
	router := newWebhookRouter(repo, "")

	w := postWebhook(t, router, `{"type":"payment","data":{"id":"PREF123","status":"rejected"}}`, nil)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if got := repo.Get("PREF123").Status; got != transaction.StatusFailed {
		t.Errorf("expected failed, got %s", got)
	}
}

func TestHandleNotification_UnknownPreference(t *testing.T) {
	router := newWebhookRouter(testutil.NewMockTransactionRepository(), "")

	w := postWebhook(t, router, `{"type":"payment","data":{"id":"PREF404","status":"approved"}}`, nil)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestHandleNotification_MissingDataID(t *testing.T) {
	for _, body := range []string{
		`{"type":"payment"}`,
		`{"type":"payment","data":{}}`,
		`{"type":"payment","data":{"status":"approved"}}`,
	} {
		router := newWebhookRouter(testutil.NewMockTransactionRepository(), "")
		w := postWebhook(t, router, body, nil)
		if w.Code != http.StatusBadRequest {
			t.Errorf("body=%s: expected 400, got %d", body, w.Code)
		}
	}
}

func TestHandleNotification_InvalidJSON(t *testing.T) {
	router := newWebhookRouter(testutil.NewMockTransactionRepository(), "")

	w := postWebhook(t, router, `{not json`, nil)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestHandleNotification_ValidSignature(t *testing.T) {
	const secret = "whsec_test"
	repo := testutil.NewMockTransactionRepository()
	repo.Add(testutil.NewTestTransaction("PREF123", "M1"))
	router := newWebhookRouter(repo, secret)

	headers := map[string]string{
		"x-signature":  signManifest(secret, "PREF123", "req-1", "1738000000"),
		"x-request-id": "req-1",
	}
	w := postWebhook(t, router, `{"type":"payment","data":{"id":"PREF123","status":"approved"}}`, headers)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if got := repo.Get("PREF123").Status; got != transaction.StatusPaid {
		t.Errorf("expected paid, got %s", got)
	}
}

func TestHandleNotification_BadSignature(t *testing.T) {
	repo := testutil.NewMockTransactionRepository()
	repo.Add(testutil.NewTestTransaction("PREF123", "M1"))
	router := newWebhookRouter(repo, "whsec_test")

	headers := map[string]string{
		"x-signature":  signManifest("wrong-secret", "PREF123", "req-1", "1738000000"),
		"x-request-id": "req-1",
	}
	w := postWebhook(t, router, `{"type":"payment","data":{"id":"PREF123","status":"approved"}}`, headers)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
	if got := repo.Get("PREF123").Status; got != transaction.StatusPending {
		t.Errorf("rejected delivery must not mutate state, got %s", got)
	}
}

func TestHandleNotification_MissingSignatureHeader(t *testing.T) {
	router := newWebhookRouter(testutil.NewMockTransactionRepository(), "whsec_test")

	w := postWebhook(t, router, `{"type":"payment","data":{"id":"PREF123","status":"approved"}}`, nil)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestHandleNotification_DuplicateDeliveryIsIdempotent(t *testing.T) {
	repo := testutil.NewMockTransactionRepository()
	repo.Add(testutil.NewTestTransaction("PREF123", "M1"))
	router := newWebhookRouter(repo, "")

	body := `{"type":"payment","data":{"id":"PREF123","status":"approved"}}`
	for i := 0; i < 3; i++ {
		w := postWebhook(t, router, body, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("delivery %d: expected 200, got %d", i, w.Code)
		}
	}
	if got := repo.Get("PREF123").Status; got != transaction.StatusPaid {
		t.Errorf("expected paid, got %s", got)
	}
}

func TestHandleNotification_LateConflictIsAcknowledged(t *testing.T) {
	repo := testutil.NewMockTransactionRepository()
	tx := testutil.NewTestTransaction("PREF123", "M1")
	tx.Status = transaction.StatusPaid
	repo.Add(tx)
	router := newWebhookRouter(repo, "")

	w := postWebhook(t, router, `{"type":"payment","data":{"id":"PREF123","status":"rejected"}}`, nil)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if got := repo.Get("PREF123").Status; got != transaction.StatusPaid {
		t.Errorf("terminal state must not regress, got %s", got)
	}
}
