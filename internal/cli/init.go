// Package cli holds the start-up steps shared by cmd/ledger and
// cmd/report-worker.
package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"schoolledger/internal/backend"
	"schoolledger/internal/cache"
	"schoolledger/internal/config"
	"schoolledger/internal/log"
	promcollector "schoolledger/internal/metrics/prometheus"
	"schoolledger/internal/repo"
	"schoolledger/internal/services"
	"schoolledger/internal/sheets"
)

const metricsNamespace = "schoolledger"

// LoadEnvFile loads .env for local development. A missing file is fine.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig exits the process when the configuration is
// unusable.
func LoadAndValidateConfig() *config.Config {
	cfg, err := config.Load()
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		slog.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

// SetupLogger builds the process logger and installs it as the slog default.
func SetupLogger(cfg *config.Config, component string) *log.Logger {
	logger := log.New(log.Config{
		Level:     log.ParseLevel(cfg.LogLevel),
		Format:    cfg.LogFormat,
		Component: component,
		Output:    os.Stdout,
	})
	log.SetDefault(logger)
	return logger
}

// ShutdownContext is cancelled on SIGINT or SIGTERM.
func ShutdownContext(logger *log.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

// InitRepository opens the configured store or exits. The returned func
// closes it.
func InitRepository(ctx context.Context, logger *log.Logger, cfg *config.Config) (repo.Repository, sheets.ReportWriter, func()) {
	storeCfg, writerCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}

	factory := backend.NewFactory(logger.WithComponent(log.ComponentStorage).Logger)
	res, err := factory.CreateBackend(ctx, storeCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err, "backend", storeCfg.Type)
		os.Exit(1)
	}
	cleanup := func() {
		if res.Cleanup == nil {
			return
		}
		if err := res.Cleanup(); err != nil {
			logger.Warn("Failed to close backend", log.FieldError, err)
		}
	}

	writer, err := factory.CreateReportWriter(ctx, writerCfg)
	if err != nil {
		// The API can run without a writer; the worker checks for nil.
		logger.Warn("Report writer unavailable", log.FieldError, err, "sheets_backend", writerCfg.Type)
		writer = nil
	}
	return res.Repository, writer, cleanup
}

// InitMetrics returns a private registry carrying the Go runtime, process
// and ledger collectors.
func InitMetrics(logger *log.Logger) (*prometheus.Registry, *promcollector.Collector) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := promcollector.NewCollector(metricsNamespace)
	if err := collector.Register(registry); err != nil {
		logger.Error("Failed to register metrics", log.FieldError, err)
		os.Exit(1)
	}
	return registry, collector
}

// ServeMetrics exposes the registry on addr until ctx is done.
func ServeMetrics(ctx context.Context, logger *log.Logger, addr string, registry *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	go func() {
		logger.Info("Serving metrics", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics server failed", log.FieldError, err)
		}
	}()
}

func ReportSettings(cfg *config.Config) services.ReportSettings {
	return services.ReportSettings{
		ExcludedCategories: cfg.Reports.ExcludedCategories,
		BankReportMaxDays:  cfg.Reports.BankReportMaxDays,
		LoadTimeout:        cfg.Reports.LoadTimeout,
	}
}

// NewReportCache builds the report LRU and registers it for expiry sweeps.
func NewReportCache(cfg *config.Config, manager *cache.Manager) *cache.LRUCache[any] {
	c := cache.NewLRUCache[any](cfg.Reports.CacheSize, cfg.Reports.CacheTTL)
	manager.Register(c)
	return c
}
