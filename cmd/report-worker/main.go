package main

import (
	"context"
	"errors"
	"os"

	"schoolledger/internal/amqp"
	"schoolledger/internal/cli"
	"schoolledger/internal/log"
	"schoolledger/internal/services"
	"schoolledger/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg, log.ComponentWorker)

	ctx, cancel := cli.ShutdownContext(logger)
	defer cancel()

	store, writer, closeStore := cli.InitRepository(ctx, logger, cfg)
	defer closeStore()
	if writer == nil {
		logger.Error("Report writer is required by the worker", "sheets_backend", cfg.SheetsBackend)
		os.Exit(1)
	}

	registry, collector := cli.InitMetrics(logger)
	if cfg.WorkerMetricsPort != "" {
		cli.ServeMetrics(ctx, logger, ":"+cfg.WorkerMetricsPort, registry)
	}

	// Each export reads the store directly; the worker keeps no report cache.
	reports := services.NewReportService(store, nil, collector, cli.ReportSettings(cfg))
	exportWorker := worker.NewExportWorker(reports, writer, collector)

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, collector)
	if err != nil {
		logger.Error("Failed to connect to AMQP", log.FieldError, err)
		os.Exit(1)
	}
	defer client.Close()

	logger.Info("Starting report worker",
		"queue", cfg.AMQPQueue,
		"backend", cfg.DataBackend,
		"sheets_backend", cfg.SheetsBackend)

	err = client.ConsumeReportExports(ctx, exportWorker.HandleExport)
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Consumer stopped", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Report worker stopped gracefully")
}
