// Package host runs contract code against tiered storage.
//
// A Host serializes calls, hands each call an Env exposing the ledger timestamp,
// the authorization gate and the instance, persistent and temporary tiers, and
// commits the writes a call made only when it returns without error.
package host

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"scholarship/internal/metrics"
	"scholarship/internal/storage"
)

// DefaultTemporaryTTL is how long temporary entries live when Config leaves it unset
const DefaultTemporaryTTL = 24 * time.Hour

// ErrReadOnly is returned when a View tries to write or authorize
var ErrReadOnly = errors.New("read-only call")

// Config describes the contract instance a Host serves
type Config struct {
	ContractID        string
	NetworkPassphrase string
	TemporaryTTL      time.Duration
}

// Host executes calls for one contract instance
type Host struct {
	mu      sync.RWMutex
	backend storage.Backend
	clock   Clock
	config  Config
	logger  *slog.Logger
}

// New creates a Host storing contract data in backend
func New(backend storage.Backend, clock Clock, config Config) *Host {
	if config.TemporaryTTL <= 0 {
		config.TemporaryTTL = DefaultTemporaryTTL
	}
	if clock == nil {
		clock = SystemClock{}
	}

	return &Host{
		backend: backend,
		clock:   clock,
		config:  config,
		logger:  slog.Default().With("contract_id", config.ContractID),
	}
}

// ContractID returns the id of the served contract
func (h *Host) ContractID() string {
	return h.config.ContractID
}

// NetworkPassphrase returns the passphrase signed invocations must commit to
func (h *Host) NetworkPassphrase() string {
	return h.config.NetworkPassphrase
}

// TemporaryTTL returns the lifetime given to temporary entries
func (h *Host) TemporaryTTL() time.Duration {
	return h.config.TemporaryTTL
}

// Ping checks the storage backend
func (h *Host) Ping(ctx context.Context) error {
	return h.backend.Ping(ctx)
}

// Invoke runs fn as a state-changing call. Calls are exclusive: no other Invoke or
// View runs while fn does. If fn returns an error nothing it wrote is kept.
func (h *Host) Invoke(ctx context.Context, authz Authorizer, fn func(env *Env) error) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	env := h.newEnv(ctx, authz, false)
	if err := fn(env); err != nil {
		return err
	}

	if err := h.commit(ctx, env); err != nil {
		metrics.ErrorsTotal.WithLabelValues("host").Inc()
		return err
	}

	env.flushLogs()
	return nil
}

// View runs fn as a read-only call. Views may run concurrently with each other.
func (h *Host) View(ctx context.Context, fn func(env *Env) error) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return fn(h.newEnv(ctx, nil, true))
}

func (h *Host) newEnv(ctx context.Context, authz Authorizer, readOnly bool) *Env {
	return &Env{
		ctx:       ctx,
		host:      h,
		authz:     authz,
		timestamp: h.clock.Timestamp(),
		readOnly:  readOnly,
		writes:    make(map[string]pendingWrite),
	}
}

// temporaryLiveUntil is the expiry for temporary entries written at ledger time ts.
// Backends expire entries by wall clock, so the later of the two anchors the TTL, and
// the extra second keeps a nonce marker alive through the last second a signature
// with the longest allowed window is still valid.
func (h *Host) temporaryLiveUntil(ts uint64) time.Time {
	anchor := time.Now()
	if ledger := time.Unix(int64(ts), 0); ledger.After(anchor) {
		anchor = ledger
	}
	return anchor.Add(h.config.TemporaryTTL + time.Second)
}

func (h *Host) commit(ctx context.Context, env *Env) error {
	if len(env.order) == 0 {
		return nil
	}

	liveUntil := h.temporaryLiveUntil(env.timestamp)
	entries := make([]storage.Entry, 0, len(env.order))
	for _, id := range env.order {
		w := env.writes[id]
		entry := storage.Entry{
			ContractID: h.config.ContractID,
			Durability: w.durability,
			Key:        w.key,
			Value:      w.value,
		}
		if w.durability == storage.DurabilityTemporary {
			entry.LiveUntil = liveUntil
		}
		entries = append(entries, entry)
	}

	start := time.Now()
	err := h.backend.Commit(ctx, entries)
	metrics.StorageCommitDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return fmt.Errorf("failed to commit %d entries: %w", len(entries), err)
	}

	metrics.StorageCommitSize.Observe(float64(len(entries)))
	return nil
}
