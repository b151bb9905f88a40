package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lucasferr/payrelay/internal/application/checkout"
	"github.com/lucasferr/payrelay/internal/bootstrap"
	infraRedis "github.com/lucasferr/payrelay/internal/infrastructure/redis"
	"github.com/lucasferr/payrelay/internal/provider/mercadopago"
	"github.com/lucasferr/payrelay/internal/repository/postgres"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := bootstrap.New(ctx, "payrelay-sweeper", "payrelay_sweeper")
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
	reconcileUC := checkout.NewReconcileWebhookUseCase(transactionRepo, lockManager, dedup, app.Metrics, app.Logger)
	sweepUC := checkout.NewSweepPendingUseCase(
		transactionRepo,
		providerClient,
		reconcileUC,
		app.Config.Sweeper.StaleAfter,
		app.Config.Sweeper.BatchSize,
		app.Metrics,
		app.Logger,
	)

	sweeperCfg := app.Config.Sweeper
	app.Logger.Info().
		Dur("interval", sweeperCfg.Interval).
		Dur("stale_after", sweeperCfg.StaleAfter).
		Int("batch_size", sweeperCfg.BatchSize).
		Msg("Sweeper started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return runSweeper(gCtx, app.Logger, sweepUC, sweeperCfg.Interval)
	})

	g.Go(func() error {
		select {
		case <-gCtx.Done():
			return gCtx.Err()
		case <-quit:
			app.Logger.Info().Msg("Shutting down sweeper...")
			cancel()
			return nil
		}
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		app.Logger.Error().Err(err).Msg("Sweeper error")
	}
	app.Logger.Info().Msg("Sweeper exited")
}

func runSweeper(
	ctx context.Context,
	logger zerolog.Logger,
	sweepUC *checkout.SweepPendingUseCase,
	interval time.Duration,
) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		reconciled, err := sweepUC.Execute(ctx)
		if err != nil {
			logger.Error().Err(err).Msg("Sweep pass failed")
			continue
		}
		if reconciled > 0 {
			logger.Info().Int("reconciled", reconciled).Msg("Sweep pass finished")
		}
	}
}
