package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"caisse/internal/amqp"
	"caisse/internal/cli"
	"caisse/internal/log"
	"caisse/internal/services"
	gsheet "caisse/internal/sheets/google"
	"caisse/internal/storage"
	"caisse/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	cfg, logger, err := cli.LoadConfig(log.ComponentWorker)
	if err != nil {
		cli.Fatal(logger, "Configuration validation failed", err)
	}
	if err := cfg.ValidateWorker(); err != nil {
		cli.Fatal(logger, "Worker configuration validation failed", err)
	}
	logger.Info("Starting caisse-worker")

	// The worker reads the same database the server writes.
	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		cli.Fatal(logger, "Failed to initialize SQLite repository", err)
	}
	bookkeeper := services.NewBookkeeper(repo, nil, logger)
	defer bookkeeper.Close()

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	sheetsClient, err := gsheet.New(ctx, gsheet.Config{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSheetName,
		CredentialsFile: cfg.GoogleServiceAccountFile,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
	}, logger)
	if err != nil {
		cli.Fatal(logger, "Failed to initialize Google Sheets client", err)
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		cli.Fatal(logger, "Failed to initialize AMQP client", err)
	}
	defer amqpClient.Close()

	ledgerWorker := worker.NewLedgerWorker(repo, sheetsClient, bookkeeper, cfg.WorkerMessageTimeout, logger)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	metricsSrv := &http.Server{
		Addr:              ":" + cfg.WorkerMetricsPort,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := amqpClient.Consume(gctx, ledgerWorker.HandleEvent)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		logger.Info("Serving worker metrics", "port", cfg.WorkerMetricsPort)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return metricsSrv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Worker stopped with error", "error", err)
	}
	if ctx.Err() != nil {
		<-done
	}
	logger.Info("Worker shutdown complete")
}
