package host

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/stellar/go/xdr"

	"scholarship/internal/auth"
	"scholarship/internal/scval"
	"scholarship/internal/storage"
)

type pendingWrite struct {
	durability storage.Durability
	key        []byte
	value      []byte
}

type logRecord struct {
	msg  string
	args []any
}

// Env is the environment of a single call
type Env struct {
	ctx       context.Context
	host      *Host
	authz     Authorizer
	timestamp uint64
	readOnly  bool

	writes map[string]pendingWrite
	order  []string
	logs   []logRecord
}

// Context returns the context of the call
func (e *Env) Context() context.Context {
	return e.ctx
}

// Timestamp returns the ledger timestamp of the call, fixed for its duration
func (e *Env) Timestamp() uint64 {
	return e.timestamp
}

// ContractID returns the id of the executing contract
func (e *Env) ContractID() string {
	return e.host.config.ContractID
}

// NetworkPassphrase returns the passphrase of the network the host serves
func (e *Env) NetworkPassphrase() string {
	return e.host.config.NetworkPassphrase
}

// RequireAuth fails unless the call carries a valid proof for address
func (e *Env) RequireAuth(address string) error {
	if e.readOnly {
		return ErrReadOnly
	}
	if e.authz == nil {
		return fmt.Errorf("%w: no authorization supplied for %s", auth.ErrUnauthorized, address)
	}
	return e.authz.RequireAuth(e, address)
}

// Log records an informational contract log line. Lines are emitted only if the
// call commits.
func (e *Env) Log(msg string, args ...any) {
	e.logs = append(e.logs, logRecord{msg: msg, args: args})
}

func (e *Env) flushLogs() {
	for _, rec := range e.logs {
		e.host.logger.Info(rec.msg, rec.args...)
	}
}

// Instance returns the tier holding per-contract singletons
func (e *Env) Instance() *Tier {
	return &Tier{env: e, durability: storage.DurabilityInstance}
}

// Persistent returns the tier holding long-lived per-entity data
func (e *Env) Persistent() *Tier {
	return &Tier{env: e, durability: storage.DurabilityPersistent}
}

// Temporary returns the tier whose entries expire after the host's TTL
func (e *Env) Temporary() *Tier {
	return &Tier{env: e, durability: storage.DurabilityTemporary}
}

// Tier is a key/value view of one storage tier. Reads see the call's own writes.
type Tier struct {
	env        *Env
	durability storage.Durability
}

func (t *Tier) writeID(key []byte) string {
	return string(t.durability) + "|" + hex.EncodeToString(key)
}

// Get returns the value under key; ok is false when the entry is absent or expired
func (t *Tier) Get(key xdr.ScVal) (xdr.ScVal, bool, error) {
	rawKey, err := scval.Marshal(key)
	if err != nil {
		return xdr.ScVal{}, false, err
	}

	var raw []byte
	if w, ok := t.env.writes[t.writeID(rawKey)]; ok {
		raw = w.value
	} else {
		raw, err = t.env.host.backend.Load(t.env.ctx, t.env.host.config.ContractID, t.durability, rawKey)
		if errors.Is(err, storage.ErrNotFound) {
			return xdr.ScVal{}, false, nil
		}
		if err != nil {
			return xdr.ScVal{}, false, fmt.Errorf("failed to load %s entry %s: %w", t.durability, scval.Label(key), err)
		}
	}

	val, err := scval.Unmarshal(raw)
	if err != nil {
		return xdr.ScVal{}, false, fmt.Errorf("corrupt %s entry %s: %w", t.durability, scval.Label(key), err)
	}
	return val, true, nil
}

// Has reports whether a live entry exists under key
func (t *Tier) Has(key xdr.ScVal) (bool, error) {
	_, ok, err := t.Get(key)
	return ok, err
}

// Set buffers a write of val under key
func (t *Tier) Set(key, val xdr.ScVal) error {
	if t.env.readOnly {
		return ErrReadOnly
	}

	rawKey, err := scval.Marshal(key)
	if err != nil {
		return err
	}
	rawVal, err := scval.Marshal(val)
	if err != nil {
		return err
	}

	id := t.writeID(rawKey)
	if _, seen := t.env.writes[id]; !seen {
		t.env.order = append(t.env.order, id)
	}
	t.env.writes[id] = pendingWrite{durability: t.durability, key: rawKey, value: rawVal}
	return nil
}
