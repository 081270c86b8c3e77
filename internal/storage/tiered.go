package storage

import (
	"context"
	"errors"
	"log/slog"

	"scholarship/internal/metrics"
)

// Tiered sends temporary entries to their own backend and everything else to a
// durable one. Temporary writes are best-effort: the durable commit is what makes
// a call take effect, so a failed temporary write is logged and dropped.
type Tiered struct {
	durable   Backend
	temporary Backend
}

// NewTiered combines a durable and a temporary backend
func NewTiered(durable, temporary Backend) *Tiered {
	return &Tiered{durable: durable, temporary: temporary}
}

func (t *Tiered) route(durability Durability) Backend {
	if durability == DurabilityTemporary {
		return t.temporary
	}
	return t.durable
}

// Load reads from the backend owning the tier
func (t *Tiered) Load(ctx context.Context, contractID string, durability Durability, key []byte) ([]byte, error) {
	return t.route(durability).Load(ctx, contractID, durability, key)
}

// Commit applies durable entries atomically, then temporary entries
func (t *Tiered) Commit(ctx context.Context, entries []Entry) error {
	var durable, temporary []Entry
	for _, entry := range entries {
		if entry.Durability == DurabilityTemporary {
			temporary = append(temporary, entry)
		} else {
			durable = append(durable, entry)
		}
	}

	if err := t.durable.Commit(ctx, durable); err != nil {
		return err
	}

	if err := t.temporary.Commit(ctx, temporary); err != nil {
		metrics.TemporaryWriteFailures.Add(float64(len(temporary)))
		slog.Warn("Temporary tier write dropped",
			"entries", len(temporary),
			"error", err,
		)
	}

	return nil
}

// Ping checks both backends
func (t *Tiered) Ping(ctx context.Context) error {
	return errors.Join(t.durable.Ping(ctx), t.temporary.Ping(ctx))
}

// Close closes both backends
func (t *Tiered) Close() error {
	return errors.Join(t.durable.Close(), t.temporary.Close())
}
