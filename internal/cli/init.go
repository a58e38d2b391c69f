// Package cli provides common initialization for the caisse binaries.
// This package consolidates the startup steps shared by cmd/caisse,
// cmd/caisse-worker and cmd/caisse-cli.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"caisse/internal/advisor"
	"caisse/internal/analytics"
	"caisse/internal/backend"
	"caisse/internal/config"
	"caisse/internal/log"
)

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadConfig loads and validates the configuration, then installs the
// process logger at the configured level.
func LoadConfig(component string) (*config.Config, *log.Logger, error) {
	cfg := config.Load()
	logger := log.Setup(cfg.LogLevel, component)
	if err := cfg.Validate(); err != nil {
		return nil, logger, err
	}
	return cfg, logger, nil
}

// OpenBackend opens the configured store together with its bookkeeper.
func OpenBackend(ctx context.Context, cfg *config.Config, logger *log.Logger) (*backend.Backend, error) {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	b, err := backend.Open(ctx, bcfg, logger)
	if err != nil {
		return nil, fmt.Errorf("open %s backend: %w", bcfg.Kind, err)
	}
	return b, nil
}

// NewAggregator builds the reporting service over an opened backend.
func NewAggregator(cfg *config.Config, b *backend.Backend, logger *log.Logger) *analytics.Aggregator {
	return analytics.New(b.Store, analytics.WithLogger(logger), analytics.WithLocation(cfg.Location()))
}

// NewAdvisor returns nil when no OpenAI key is configured.
func NewAdvisor(cfg *config.Config, figures advisor.Figures, logger *log.Logger) *advisor.Advisor {
	if cfg.OpenAIAPIKey == "" {
		logger.Warn("OPENAI_API_KEY not set, advice routes disabled")
		return nil
	}
	gen := advisor.NewOpenAIGenerator(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL)
	logger.Info("Advice generator configured", log.FieldModel, gen.Model())
	return advisor.New(gen, figures, cfg.AdviceTimeout, logger)
}

// GracefulShutdown returns a context cancelled on SIGINT or SIGTERM. Once
// it fires, cleanup runs with a timeout-bound context and done is closed.
func GracefulShutdown(logger *log.Logger, timeout time.Duration, cleanup func(context.Context)) (context.Context, <-chan struct{}) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	done := make(chan struct{})

	go func() {
		defer close(done)
		<-ctx.Done()
		stop()
		logger.Info("Shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if cleanup != nil {
			cleanup(shutdownCtx)
		}
		if shutdownCtx.Err() != nil {
			logger.Warn("Shutdown timeout reached")
			return
		}
		logger.Info("Shutdown complete")
	}()

	return ctx, done
}

// Fatal logs err and exits with status 1.
func Fatal(logger *log.Logger, msg string, err error) {
	logger.Error(msg, "error", err)
	os.Exit(1)
}
