package backend

import (
	"context"
	"fmt"

	"caisse/internal/amqp"
	"caisse/internal/log"
	"caisse/internal/services"
	"caisse/internal/storage"
	"caisse/internal/storage/memory"
)

// Open creates the store named by cfg. An AMQP failure is not fatal: the
// backend then runs without events.
func Open(ctx context.Context, cfg Config, logger *log.Logger) (*Backend, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.Default()
	}
	logger = logger.WithComponent(log.ComponentBackend)

	var store storage.Store
	switch cfg.Kind {
	case SQLite:
		repo, err := storage.NewSQLiteRepository(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		store = repo
		logger.InfoContext(ctx, "Opened SQLite store", "db_path", cfg.SQLitePath)
	case Memory:
		store = memory.New()
		logger.InfoContext(ctx, "Opened memory store")
	}

	return &Backend{
		Store:      store,
		Bookkeeper: services.NewBookkeeper(store, publisher(ctx, cfg, logger), logger),
	}, nil
}

// publisher returns nil when events are disabled. With the memory store no
// worker could read the rows an event points at.
func publisher(ctx context.Context, cfg Config, logger *log.Logger) services.EventPublisher {
	if cfg.AMQPURL == "" {
		return nil
	}
	if cfg.Kind != SQLite {
		logger.WarnContext(ctx, "AMQP configured with the memory backend, events disabled")
		return nil
	}
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.WarnContext(ctx, "AMQP unavailable, continuing without events", "error", err)
		return nil
	}
	logger.InfoContext(ctx, "Publishing ledger events", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	return client
}
