// Package backend opens the configured entity store and the bookkeeper that
// writes to it.
package backend

import (
	"errors"
	"fmt"

	"caisse/internal/config"
	"caisse/internal/services"
	"caisse/internal/storage"
)

// Kind names a storage implementation.
type Kind string

const (
	Memory Kind = "memory"
	SQLite Kind = "sqlite"
)

func (k Kind) Valid() bool { return k == Memory || k == SQLite }

// Kinds lists the accepted DATA_BACKEND values.
func Kinds() []string { return []string{string(Memory), string(SQLite)} }

type Config struct {
	Kind       Kind
	SQLitePath string

	// Events are published only when AMQPURL is set and Kind is SQLite.
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// FromAppConfig picks the backend settings out of the process config.
func FromAppConfig(cfg *config.Config) (Config, error) {
	if cfg == nil {
		return Config{}, errors.New("nil app config")
	}
	c := Config{
		Kind:         Kind(cfg.DataBackend),
		SQLitePath:   cfg.SQLiteDBPath,
		AMQPURL:      cfg.AMQPURL,
		AMQPExchange: cfg.AMQPExchange,
		AMQPQueue:    cfg.AMQPQueue,
	}
	return c, c.Validate()
}

func (c Config) Validate() error {
	if !c.Kind.Valid() {
		return fmt.Errorf("unknown backend %q, want one of %v", c.Kind, Kinds())
	}
	if c.Kind == SQLite && c.SQLitePath == "" {
		return errors.New("sqlite backend needs a database path")
	}
	return nil
}

// Backend is an opened store and the bookkeeper built on it.
type Backend struct {
	Store      storage.Store
	Bookkeeper *services.Bookkeeper
}

// Close releases the publisher and the store.
func (b *Backend) Close() error {
	return b.Bookkeeper.Close()
}
