package storage

import (
	"context"
	"fmt"
	"log/slog"

	"scholarship/internal/retry"
)

// Drivers accepted by Open
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Options selects and configures the backends behind the storage tiers
type Options struct {
	Driver      string
	DatabaseURL string // postgres
	SQLitePath  string // sqlite
	RedisURL    string // optional, moves the temporary tier to Redis
	RedisPrefix string
}

// Open connects the durable backend named by opts.Driver and, when a Redis URL is
// set, a Redis backend for the temporary tier. Connection attempts go through strategy.
func Open(ctx context.Context, opts Options, strategy retry.Strategy) (Backend, error) {
	var durable Backend

	switch opts.Driver {
	case DriverMemory, "":
		durable = NewMemoryBackend()

	case DriverSQLite:
		err := strategy.Execute(ctx, "connect sqlite", func(ctx context.Context) error {
			backend, err := NewSQLiteBackend(ctx, opts.SQLitePath)
			if err != nil {
				return err
			}
			durable = backend
			return nil
		})
		if err != nil {
			return nil, err
		}

	case DriverPostgres:
		err := strategy.Execute(ctx, "connect postgres", func(ctx context.Context) error {
			backend, err := NewPostgresBackend(ctx, opts.DatabaseURL)
			if err != nil {
				return err
			}
			durable = backend
			return nil
		})
		if err != nil {
			return nil, err
		}

	default:
		return nil, fmt.Errorf("unknown storage driver %q", opts.Driver)
	}

	slog.Info("Durable storage ready", "driver", opts.Driver)

	if opts.RedisURL == "" {
		return durable, nil
	}

	var temporary Backend
	err := strategy.Execute(ctx, "connect redis", func(ctx context.Context) error {
		client, err := ConnectRedis(ctx, opts.RedisURL)
		if err != nil {
			return err
		}
		temporary = NewRedisBackend(client, opts.RedisPrefix)
		return nil
	})
	if err != nil {
		durable.Close()
		return nil, err
	}

	slog.Info("Temporary tier on redis", "prefix", opts.RedisPrefix)
	return NewTiered(durable, temporary), nil
}
