package storage

import (
	"context"
	"encoding/hex"
	"slices"
	"sync"
	"time"
)

type memoryEntry struct {
	value     []byte
	liveUntil time.Time
}

// MemoryBackend keeps contract data in process memory.
// It backs tests and the memory storage driver; nothing survives a restart.
type MemoryBackend struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryBackend creates an empty MemoryBackend
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// SetClock replaces the wall clock used for temporary entry expiry
func (b *MemoryBackend) SetClock(now func() time.Time) {
	b.mu.Lock()
	b.now = now
	b.mu.Unlock()
}

func memoryKey(contractID string, durability Durability, key []byte) string {
	return contractID + "|" + string(durability) + "|" + hex.EncodeToString(key)
}

// Load returns the live value stored under key
func (b *MemoryBackend) Load(ctx context.Context, contractID string, durability Durability, key []byte) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	entry, ok := b.entries[memoryKey(contractID, durability, key)]
	if !ok || expired(entry.liveUntil, b.now()) {
		return nil, ErrNotFound
	}
	return slices.Clone(entry.value), nil
}

// Commit applies all entries under a single lock
func (b *MemoryBackend) Commit(ctx context.Context, entries []Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for _, e := range entries {
		b.entries[memoryKey(e.ContractID, e.Durability, e.Key)] = memoryEntry{
			value:     slices.Clone(e.Value),
			liveUntil: e.LiveUntil,
		}
	}
	return nil
}

// Evict drops an entry as if the network had archived or expired it.
// Returns false if no entry existed.
func (b *MemoryBackend) Evict(contractID string, durability Durability, key []byte) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := memoryKey(contractID, durability, key)
	if _, ok := b.entries[id]; !ok {
		return false
	}
	delete(b.entries, id)
	return true
}

// Len returns the number of stored entries, expired ones included
func (b *MemoryBackend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.entries)
}

// Ping always succeeds
func (b *MemoryBackend) Ping(ctx context.Context) error {
	return nil
}

// Close is a no-op
func (b *MemoryBackend) Close() error {
	return nil
}
