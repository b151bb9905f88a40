package controller

import (
	"time"

	"github.com/lucasferr/payrelay/internal/application/checkout"
	"github.com/lucasferr/payrelay/internal/infrastructure/config"
	"github.com/lucasferr/payrelay/internal/infrastructure/observability"
	customMW "github.com/lucasferr/payrelay/internal/middleware"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

type RouterDeps struct {
	Pool          *pgxpool.Pool
	RedisClient   *redis.Client
	CreateUC      *checkout.CreatePaymentUseCase
	ReconcileUC   *checkout.ReconcileWebhookUseCase
	GetStatusUC   *checkout.GetStatusUseCase
	Metrics       *observability.Metrics
	Logger        zerolog.Logger
	ServerConfig  config.ServerConfig
	WebhookSecret string
	ExposeMetrics bool
}

func NewRouter(deps RouterDeps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(customMW.Tracing())
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.ServerConfig.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: deps.ServerConfig.CORS.AllowCredentials,
		MaxAge:           300,
	}))
	r.Use(customMW.Metrics(deps.Metrics))

	healthC := NewHealthController(deps.Pool, deps.RedisClient)
	paymentC := NewPaymentController(deps.CreateUC, deps.GetStatusUC)
	webhookC := NewWebhookController(deps.ReconcileUC, deps.WebhookSecret, deps.Logger)

	r.Get("/", paymentC.Root)

	r.Get("/health", healthC.Health)
	r.Get("/health/live", healthC.Liveness)
	r.Get("/health/ready", healthC.Readiness)

	if deps.ExposeMetrics {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.With(customMW.RateLimit(deps.ServerConfig.RateLimitPerMin)).
		Post("/create-payment", paymentC.CreatePayment)
	r.Post("/payment-webhook", webhookC.HandleNotification)
	r.Get("/transaction-status/{transactionID}", paymentC.GetTransactionStatus)

	return r
}
