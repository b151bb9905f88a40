package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/lucasferr/payrelay/internal/application/checkout"
	"github.com/lucasferr/payrelay/internal/bootstrap"
	"github.com/lucasferr/payrelay/internal/controller"
	infraRedis "github.com/lucasferr/payrelay/internal/infrastructure/redis"
	"github.com/lucasferr/payrelay/internal/provider/mercadopago"
	"github.com/lucasferr/payrelay/internal/repository/postgres"
)

func main() {
	ctx := context.Background()

	app, err := bootstrap.New(ctx, "payrelay-api", "payrelay")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap: %v\n", err)
		os.Exit(1)
	}
	defer app.Close()

	// --- Repositories and adapters ---
	transactionRepo := postgres.NewTransactionRepository(app.Pool)
	providerClient := mercadopago.NewClient(&app.Config.Provider, app.Metrics)
	lockManager := infraRedis.NewLockManager(app.Redis, app.Config.Sweeper.LockTTL)
	dedup := infraRedis.NewNotificationDedup(app.Redis, 0)

	// --- Use cases ---
	createUC := checkout.NewCreatePaymentUseCase(
		transactionRepo,
		providerClient,
		app.Config.Provider.Currency,
		app.Config.Provider.NotificationURL,
		app.Metrics,
		app.Logger,
	)
	reconcileUC := checkout.NewReconcileWebhookUseCase(transactionRepo, lockManager, dedup, app.Metrics, app.Logger)
	getStatusUC := checkout.NewGetStatusUseCase(transactionRepo)

	// --- Build router ---
	router := controller.NewRouter(controller.RouterDeps{
		Pool:          app.Pool,
		RedisClient:   app.Redis,
		CreateUC:      createUC,
		ReconcileUC:   reconcileUC,
		GetStatusUC:   getStatusUC,
		Metrics:       app.Metrics,
		Logger:        app.Logger,
		ServerConfig:  app.Config.Server,
		WebhookSecret: app.Config.Provider.WebhookSecret,
		ExposeMetrics: app.Config.Observability.EnableMetrics,
	})

	// --- HTTP server ---
	addr := fmt.Sprintf(":%d", app.Config.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  app.Config.Server.ReadTimeout,
		WriteTimeout: app.Config.Server.WriteTimeout,
		IdleTimeout:  app.Config.Server.IdleTimeout,
	}

	go func() {
		app.Logger.Info().Str("addr", addr).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			app.Logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	app.Logger.Info().Msg("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), app.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		app.Logger.Error().Err(err).Msg("Server forced to shutdown")
	}
	app.Logger.Info().Msg("Server exited")
}
