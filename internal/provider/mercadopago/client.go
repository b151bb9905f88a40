package mercadopago

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	domainErrors "github.com/lucasferr/payrelay/internal/domain/errors"
	"github.com/lucasferr/payrelay/internal/infrastructure/config"
	"github.com/lucasferr/payrelay/internal/infrastructure/observability"
	"github.com/lucasferr/payrelay/internal/provider"
	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"
)

// Client talks to the Mercado Pago REST API. All calls run through a
// circuit breaker and carry the configured timeout.
type Client struct {
	baseURL     string
	accessToken string
	httpClient  *http.Client
	breaker     *gobreaker.CircuitBreaker[*http.Response]
	metrics     *observability.Metrics
}

// NewClient creates a Mercado Pago client from provider configuration.
// metrics may be nil.
func NewClient(cfg *config.ProviderConfig, metrics *observability.Metrics) *Client {
	threshold := cfg.BreakerThreshold
	if threshold <= 0 {
		threshold = 5
	}
	timeout := cfg.BreakerTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	breaker := gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:    "mercadopago",
		Timeout: timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(threshold)
		},
	})

	return &Client{
		baseURL:     cfg.BaseURL,
		accessToken: cfg.AccessToken,
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		breaker:     breaker,
		metrics:     metrics,
	}
}

type preferenceResponse struct {
	ID        string `json:"id"`
	InitPoint string `json:"init_point"`
}

// CreatePreference creates a payment preference and returns its id and
// checkout URL. Never retried here: preference creation is not idempotent
// on the provider side beyond the idempotency header.
func (c *Client) CreatePreference(ctx context.Context, req provider.PreferenceRequest) (*provider.Preference, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal preference request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/checkout/preferences", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build preference request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.accessToken)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Idempotency-Key", uuid.New().String())

	resp, err := c.do("create_preference", httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := c.checkStatus(resp, "create preference"); err != nil {
		return nil, err
	}

	var pref preferenceResponse
	if err := json.NewDecoder(resp.Body).Decode(&pref); err != nil {
		return nil, fmt.Errorf("decode preference response: %w", err)
	}
	if pref.ID == "" || pref.InitPoint == "" {
		return nil, domainErrors.NewDomainError(
			"provider_response",
			"preference response missing id or init_point",
			domainErrors.ErrPaymentCreation,
		)
	}

	return &provider.Preference{ID: pref.ID, InitPoint: pref.InitPoint}, nil
}

type paymentSearchResponse struct {
	Results []struct {
		Status string `json:"status"`
	} `json:"results"`
}

// PaymentOutcomeByPreference returns the most recent payment status for a
// preference, or Found=false when no payment exists yet.
func (c *Client) PaymentOutcomeByPreference(ctx context.Context, preferenceID string) (*provider.PaymentOutcome, error) {
	q := url.Values{}
	q.Set("preference_id", preferenceID)
	q.Set("sort", "date_created")
	q.Set("criteria", "desc")

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/payments/search?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build payment search request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.do("payment_search", httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := c.checkStatus(resp, "payment search"); err != nil {
		return nil, err
	}

	var search paymentSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&search); err != nil {
		return nil, fmt.Errorf("decode payment search response: %w", err)
	}
	if len(search.Results) == 0 {
		return &provider.PaymentOutcome{Found: false}, nil
	}
	return &provider.PaymentOutcome{Status: search.Results[0].Status, Found: true}, nil
}

func (c *Client) do(operation string, req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := c.breaker.Execute(func() (*http.Response, error) {
		return c.httpClient.Do(req)
	})
	if c.metrics != nil {
		c.metrics.ProviderRequestDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
		status := "error"
		if err == nil {
			status = fmt.Sprintf("%d", resp.StatusCode)
		}
		c.metrics.ProviderRequestsTotal.WithLabelValues(operation, status).Inc()
	}
	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return nil, domainErrors.ErrProviderUnavailable
		}
		return nil, domainErrors.NewDomainError(
			"provider_request",
			fmt.Sprintf("%s request failed", operation),
			fmt.Errorf("%w: %v", domainErrors.ErrPaymentCreation, err),
		)
	}
	return resp, nil
}

// checkStatus maps non-2xx responses to the error taxonomy. Credential
// rejections are surfaced distinctly so operators can tell a broken setup
// from a transient failure.
func (c *Client) checkStatus(resp *http.Response, operation string) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return domainErrors.NewDomainError(
			"provider_auth",
			fmt.Sprintf("%s rejected with status %d", operation, resp.StatusCode),
			domainErrors.ErrProviderAuth,
		)
	}
	return domainErrors.NewDomainError(
		"provider_error",
		fmt.Sprintf("%s failed with status %d: %s", operation, resp.StatusCode, string(detail)),
		domainErrors.ErrPaymentCreation,
	)
}
