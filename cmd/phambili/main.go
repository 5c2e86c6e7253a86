package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"phambili/internal/amqp"
	"phambili/internal/budget"
	"phambili/internal/cli"
	"phambili/internal/config"
	apphttp "phambili/internal/http"
	"phambili/internal/identity"
	"phambili/internal/services"
	"phambili/internal/tax"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	cfg := cli.LoadAndValidateConfig(logger)

	// The server owns schema migrations; the worker opens the same store
	// read-mostly.
	res := cli.OpenBackend(logger, cfg, true)
	if res.Cleanup != nil {
		defer res.Cleanup()
	}

	taxCfg, err := loadTaxConfig(cfg)
	if err != nil {
		logger.Error("Failed to load tax table", "error", err)
		os.Exit(1)
	}

	// Single-user deployments pin the identity; multi-user ones get the
	// register/login endpoints backed by the same store.
	var (
		provider identity.Provider
		registry *identity.Registry
	)
	if cfg.MultiUser {
		registry = identity.NewRegistry(res.KV)
		provider = registry
	} else {
		provider = identity.Static(cfg.DefaultUser)
	}

	// Snapshot publishing is optional; without AMQP saves stay local.
	var publisher services.SnapshotPublisher
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		publisher = amqpClient
		logger.Info("AMQP publisher initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("AMQP disabled - no AMQP_URL provided")
	}

	policy := budget.DefaultPolicy()
	policy.AllowExpenseExceedingIncome = cfg.AllowOverspend
	bands := budget.AdviceBands{Low: cfg.AdviceLow, High: cfg.AdviceHigh}

	svc := services.NewBudgetService(res.Gateway, provider, publisher, taxCfg, bands, policy)
	defer svc.Close()

	// The flat variant persists one snapshot per user, so writing through
	// on every change is cheap. History appends only on explicit saves.
	if cfg.PersistenceVariant == "flat" {
		svc.EnableAutosave()
	}

	srv := apphttp.NewServer(":"+cfg.Port, svc, provider, registry)

	// Configure server timeouts and limits
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	// Graceful shutdown handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cancel()
	}()

	logger.Info("Starting phambili server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"variant", cfg.PersistenceVariant,
		"multi_user", cfg.MultiUser)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}

func loadTaxConfig(cfg *config.Config) (tax.Config, error) {
	if cfg.TaxTableFile != "" {
		return tax.LoadFile(cfg.TaxTableFile)
	}
	return tax.ByName(cfg.TaxTable)
}
