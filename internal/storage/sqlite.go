package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const maxBusyTimeoutMs = 5000

const sqliteSchema = `
	CREATE TABLE IF NOT EXISTS contract_data (
		contract_id TEXT    NOT NULL,
		durability  TEXT    NOT NULL,
		key_xdr     BLOB    NOT NULL,
		val_xdr     BLOB    NOT NULL,
		live_until  INTEGER,
		updated_at  INTEGER NOT NULL,
		PRIMARY KEY (contract_id, durability, key_xdr)
	)
`

// SQLiteBackend stores contract data in an embedded SQLite database
type SQLiteBackend struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteBackend opens (or creates) the database at path. The path ":memory:"
// opens a private in-memory database.
func NewSQLiteBackend(ctx context.Context, path string) (*SQLiteBackend, error) {
	connStr := ":memory:"
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
		connStr = fmt.Sprintf("file:%s", filepath.Clean(path))
	}

	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// A single connection keeps ":memory:" databases alive and serializes writers
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	if _, err := db.ExecContext(ctx, fmt.Sprintf("PRAGMA busy_timeout=%d", maxBusyTimeoutMs)); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create contract_data table: %w", err)
	}

	return &SQLiteBackend{db: db, now: time.Now}, nil
}

// Load retrieves the live value stored under key
func (s *SQLiteBackend) Load(ctx context.Context, contractID string, durability Durability, key []byte) ([]byte, error) {
	query := `
		SELECT val_xdr, live_until
		FROM contract_data
		WHERE contract_id = ? AND durability = ? AND key_xdr = ?
	`

	var value []byte
	var liveUntil sql.NullInt64
	err := s.db.QueryRowContext(ctx, query, contractID, string(durability), key).Scan(&value, &liveUntil)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load contract data: %w", err)
	}

	if liveUntil.Valid && expired(time.Unix(0, liveUntil.Int64), s.now()) {
		return nil, ErrNotFound
	}

	return value, nil
}

// Commit upserts all entries in one transaction
func (s *SQLiteBackend) Commit(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO contract_data (contract_id, durability, key_xdr, val_xdr, live_until, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (contract_id, durability, key_xdr) DO UPDATE
		SET val_xdr = excluded.val_xdr,
		    live_until = excluded.live_until,
		    updated_at = excluded.updated_at
	`

	updatedAt := s.now().UnixNano()
	for _, entry := range entries {
		liveUntil := sql.NullInt64{}
		if !entry.LiveUntil.IsZero() {
			liveUntil = sql.NullInt64{Int64: entry.LiveUntil.UnixNano(), Valid: true}
		}

		if _, err := tx.ExecContext(ctx, query,
			entry.ContractID,
			string(entry.Durability),
			entry.Key,
			entry.Value,
			liveUntil,
			updatedAt,
		); err != nil {
			return fmt.Errorf("save contract data: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Ping checks the database handle
func (s *SQLiteBackend) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database
func (s *SQLiteBackend) Close() error {
	return s.db.Close()
}
