package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"caisse/internal/cli"
	apphttp "caisse/internal/http"
	"caisse/internal/log"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	cli.LoadEnvFile()

	cfg, logger, err := cli.LoadConfig(log.ComponentApp)
	if err != nil {
		cli.Fatal(logger, "Configuration validation failed", err)
	}

	result, err := cli.OpenBackend(context.Background(), cfg, logger)
	if err != nil {
		cli.Fatal(logger, "Failed to initialize backend", err)
	}

	reports := cli.NewAggregator(cfg, result, logger)
	deps := apphttp.Deps{
		Store:      result.Store,
		Bookkeeper: result.Bookkeeper,
		Reports:    reports,
		Logger:     logger,
	}
	// Assigned only when set so a disabled advisor stays a nil interface.
	if adv := cli.NewAdvisor(cfg, reports, logger); adv != nil {
		deps.Advisor = adv
	}
	srv := apphttp.NewServer(cfg, deps)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(shutdownCtx context.Context) {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		if err := result.Close(); err != nil {
			logger.Error("Backend cleanup error", "error", err)
		}
	})

	logger.Info("Starting caisse server", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		cli.Fatal(logger, "Server error", err)
	}

	<-ctx.Done()
	<-done
	logger.Info("Server stopped gracefully")
}
