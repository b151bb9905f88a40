package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all application metrics
type Metrics struct {
	// Payment intent metrics
	PaymentsCreatedTotal *prometheus.CounterVec
	PaymentErrors        *prometheus.CounterVec

	// Webhook metrics
	WebhookNotificationsTotal *prometheus.CounterVec
	WebhookConflictsTotal     prometheus.Counter
	WebhookDuplicatesTotal    prometheus.Counter

	// Provider metrics
	ProviderRequestsTotal   *prometheus.CounterVec
	ProviderRequestDuration *prometheus.HistogramVec

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Sweeper metrics
	SweeperReconciledTotal *prometheus.CounterVec
	SweeperRunDuration     prometheus.Histogram
}

// NewMetrics creates and registers all metrics against the given registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := prometheus.WrapRegistererWith(nil, reg)

	m := &Metrics{
		PaymentsCreatedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "payments_created_total",
				Help:      "Total number of payment preferences created",
			},
			[]string{"result"},
		),
		PaymentErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "payment_errors_total",
				Help:      "Total number of payment creation errors by type",
			},
			[]string{"error_type"},
		),
		WebhookNotificationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "webhook_notifications_total",
				Help:      "Total number of webhook notifications by outcome and result",
			},
			[]string{"outcome", "result"},
		),
		WebhookConflictsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "webhook_conflicts_total",
				Help:      "Notifications that disagreed with an already-terminal transaction",
			},
		),
		WebhookDuplicatesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "webhook_duplicates_total",
				Help:      "Re-delivered notifications detected by the dedup key",
			},
		),
		ProviderRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "provider_requests_total",
				Help:      "Total number of payment provider requests",
			},
			[]string{"operation", "status"},
		),
		ProviderRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "provider_request_duration_seconds",
				Help:      "Payment provider request duration in seconds",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
			[]string{"operation"},
		),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		SweeperReconciledTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sweeper_reconciled_total",
				Help:      "Stale pending transactions reconciled by the sweeper",
			},
			[]string{"result"},
		),
		SweeperRunDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "sweeper_run_duration_seconds",
				Help:      "Sweeper pass duration in seconds",
				Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
			},
		),
	}

	// Register all collectors
	factory.MustRegister(
		m.PaymentsCreatedTotal,
		m.PaymentErrors,
		m.WebhookNotificationsTotal,
		m.WebhookConflictsTotal,
		m.WebhookDuplicatesTotal,
		m.ProviderRequestsTotal,
		m.ProviderRequestDuration,
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.SweeperReconciledTotal,
		m.SweeperRunDuration,
	)

	return m
}
