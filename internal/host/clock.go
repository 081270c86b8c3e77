package host

import (
	"sync"
	"time"
)

// Clock supplies the ledger timestamp, in unix seconds, seen by a call
type Clock interface {
	Timestamp() uint64
}

// SystemClock reads the wall clock
type SystemClock struct{}

// Timestamp returns the current unix time
func (SystemClock) Timestamp() uint64 {
	return uint64(time.Now().Unix())
}

// ManualClock is a Clock that only moves when told to
type ManualClock struct {
	mu sync.Mutex
	ts uint64
}

// NewManualClock creates a ManualClock reading ts
func NewManualClock(ts uint64) *ManualClock {
	return &ManualClock{ts: ts}
}

// Timestamp returns the current value
func (c *ManualClock) Timestamp() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ts
}

// SetTimestamp sets the clock to ts
func (c *ManualClock) SetTimestamp(ts uint64) {
	c.mu.Lock()
	c.ts = ts
	c.mu.Unlock()
}

// Advance moves the clock forward by seconds
func (c *ManualClock) Advance(seconds uint64) {
	c.mu.Lock()
	c.ts += seconds
	c.mu.Unlock()
}
