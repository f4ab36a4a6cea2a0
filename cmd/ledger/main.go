package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"schoolledger/internal/amqp"
	"schoolledger/internal/cache"
	"schoolledger/internal/cli"
	apphttp "schoolledger/internal/http"
	"schoolledger/internal/log"
	"schoolledger/internal/middleware/ratelimit"
	"schoolledger/internal/services"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg, log.ComponentApp)

	ctx, cancel := cli.ShutdownContext(logger)
	defer cancel()

	store, _, closeStore := cli.InitRepository(ctx, logger, cfg)
	defer closeStore()

	registry, collector := cli.InitMetrics(logger)

	cacheManager := cache.NewManager(logger.WithComponent(log.ComponentCache).Logger)
	reportCache := cli.NewReportCache(cfg, cacheManager)
	cacheManager.StartCleanup(time.Minute)
	defer cacheManager.Stop()

	reports := services.NewReportService(store, reportCache, collector, cli.ReportSettings(cfg))
	ledgerSvc := services.NewLedgerService(store, reports, collector)

	// Exports are optional for the API: without a broker the endpoint
	// answers 503.
	var publisher services.Publisher
	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, collector)
	if err != nil {
		logger.Warn("AMQP unavailable, report exports disabled", log.FieldError, err)
	} else {
		defer amqpClient.Close()
		publisher = amqpClient
	}
	exports := services.NewExportService(publisher)

	var auth apphttp.Authorizer
	if cfg.AuthDisabled {
		logger.Warn("Authorization disabled, every caller may manage accounting")
		auth = apphttp.AllowAll{}
	} else {
		auth = apphttp.NewTokenAuthorizer(cfg.AuthTokens)
	}

	srv, err := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Reports:   reports,
		Ledger:    ledgerSvc,
		Exports:   exports,
		Ready:     store.Ping,
		Auth:      auth,
		Metrics:   collector,
		Gatherer:  registry,
		RateLimit: ratelimit.Config{
			Requests: cfg.RateLimitPerMinute,
			Window:   time.Minute,
		},
		TrustedProxies: cfg.TrustedProxies,
		Logger:         logger.WithComponent(log.ComponentHTTP),
	})
	if err != nil {
		logger.Error("Failed to create server", log.FieldError, err)
		os.Exit(1)
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
	}()

	logger.Info("Starting ledger server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"auth_disabled", cfg.AuthDisabled)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
