package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Load when no live entry exists for a key
var ErrNotFound = errors.New("storage entry not found")

// Durability names the storage tier an entry lives in
type Durability string

const (
	// DurabilityInstance holds low-cardinality contract state that survives upgrades
	DurabilityInstance Durability = "INSTANCE"
	// DurabilityPersistent holds long-lived, unbounded per-key records
	DurabilityPersistent Durability = "PERSISTENT"
	// DurabilityTemporary holds short-lived entries that may be evicted at any time
	DurabilityTemporary Durability = "TEMPORARY"
)

// Entry is one contract data write
type Entry struct {
	ContractID string
	Durability Durability
	Key        []byte // XDR encoded ScVal
	Value      []byte // XDR encoded ScVal

	// LiveUntil is the expiry of temporary entries. Zero means no expiry.
	LiveUntil time.Time
}

// Backend defines the operations every tier store implements
type Backend interface {
	// Load returns the live value stored under key, or ErrNotFound
	Load(ctx context.Context, contractID string, durability Durability, key []byte) ([]byte, error)

	// Commit applies all entries atomically: either every write lands or none does
	Commit(ctx context.Context, entries []Entry) error

	// Health & Maintenance
	Ping(ctx context.Context) error
	Close() error
}

// expired reports whether an entry with the given expiry is dead at now
func expired(liveUntil time.Time, now time.Time) bool {
	return !liveUntil.IsZero() && !now.Before(liveUntil)
}
