package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"phambili/internal/amqp"
	"phambili/internal/budget"
	"phambili/internal/cli"
	"phambili/internal/sheets"
	gsheet "phambili/internal/sheets/google"
	mem "phambili/internal/sheets/memory"
	"phambili/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()

	logger.Info("Starting phambili-worker")

	cfg := cli.LoadAndValidateConfig(logger)

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the sync worker")
		os.Exit(1)
	}

	// The worker reads saved state back from the same store the server
	// writes to, so both must point at the same backend.
	if cfg.DataBackend == "memory" {
		logger.Warn("Memory backend shares no state with the server; snapshots will be empty")
	}
	res := cli.OpenBackend(logger, cfg, false)
	if res.Cleanup != nil {
		defer res.Cleanup()
	}

	// Snapshots land in Google Sheets when configured, otherwise in an
	// in-process store so the queue still drains.
	var appender sheets.SnapshotAppender
	if cfg.GoogleSpreadsheetID != "" {
		sheetsClient, err := gsheet.NewFromEnv(context.Background())
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			os.Exit(1)
		}
		appender = sheetsClient
		logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		appender = mem.New()
		logger.Info("Google Sheets disabled - snapshots kept in memory")
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	policy := budget.DefaultPolicy()
	policy.AllowExpenseExceedingIncome = cfg.AllowOverspend
	syncWorker := worker.NewSyncWorker(res.Gateway, appender, policy)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return amqpClient.ConsumeSnapshotSaved(ctx, func(msg *amqp.SnapshotSavedMessage) error {
			return syncWorker.HandleSnapshotMessage(ctx, msg)
		})
	})

	// Periodic progress report.
	g.Go(func() error {
		ticker := time.NewTicker(cfg.SyncInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				logger.Info("Sync worker running", "snapshots_synced", syncWorker.Processed())
			}
		}
	})

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("Context cancelled")
	}

	cancel()
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete")
}
