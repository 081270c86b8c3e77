package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `
	CREATE TABLE IF NOT EXISTS contract_data (
		contract_id TEXT        NOT NULL,
		durability  TEXT        NOT NULL,
		key_xdr     BYTEA       NOT NULL,
		val_xdr     BYTEA       NOT NULL,
		live_until  TIMESTAMPTZ,
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (contract_id, durability, key_xdr)
	)
`

// PostgresBackend implements the Backend interface using PostgreSQL
type PostgresBackend struct {
	pool *pgxpool.Pool
}

// NewPostgresBackend creates a new PostgreSQL backend and ensures its schema exists
func NewPostgresBackend(ctx context.Context, databaseURL string) (*PostgresBackend, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Test the connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create contract_data table: %w", err)
	}

	return &PostgresBackend{
		pool: pool,
	}, nil
}

// Load retrieves the live value stored under key
func (r *PostgresBackend) Load(ctx context.Context, contractID string, durability Durability, key []byte) ([]byte, error) {
	query := `
		SELECT val_xdr
		FROM contract_data
		WHERE contract_id = $1 AND durability = $2 AND key_xdr = $3
		  AND (live_until IS NULL OR live_until > now())
	`

	var value []byte
	err := r.pool.QueryRow(ctx, query, contractID, string(durability), key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load contract data: %w", err)
	}

	return value, nil
}

// Commit upserts all entries in a single transaction
func (r *PostgresBackend) Commit(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO contract_data (contract_id, durability, key_xdr, val_xdr, live_until, updated_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (contract_id, durability, key_xdr) DO UPDATE
		SET val_xdr = EXCLUDED.val_xdr,
		    live_until = EXCLUDED.live_until,
		    updated_at = now()
	`

	for _, entry := range entries {
		var liveUntil *time.Time
		if !entry.LiveUntil.IsZero() {
			t := entry.LiveUntil.UTC()
			liveUntil = &t
		}

		_, err = tx.Exec(ctx, query,
			entry.ContractID,
			string(entry.Durability),
			entry.Key,
			entry.Value,
			liveUntil,
		)
		if err != nil {
			return fmt.Errorf("failed to save contract data: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Ping checks database connectivity
func (r *PostgresBackend) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Close closes the connection pool
func (r *PostgresBackend) Close() error {
	r.pool.Close()
	return nil
}
