package host

import (
	"fmt"
	"slices"

	"scholarship/internal/auth"
	"scholarship/internal/scval"
)

var (
	ErrExpired         = fmt.Errorf("%w: signatures expired", auth.ErrUnauthorized)
	ErrValidityTooLong = fmt.Errorf("%w: validity window exceeds temporary entry lifetime", auth.ErrUnauthorized)
	ErrNonceReused     = fmt.Errorf("%w: nonce already used", auth.ErrUnauthorized)
)

// Authorizer decides whether a call may act on behalf of an address
type Authorizer interface {
	RequireAuth(env *Env, address string) error
}

// AuthorizerFunc adapts a function to the Authorizer interface
type AuthorizerFunc func(env *Env, address string) error

// RequireAuth calls f
func (f AuthorizerFunc) RequireAuth(env *Env, address string) error {
	return f(env, address)
}

// AllowAll authorizes every address. Meant for tests and trusted tooling.
func AllowAll() Authorizer {
	return AuthorizerFunc(func(env *Env, address string) error {
		return nil
	})
}

// Addresses authorizes exactly the given addresses
func Addresses(addresses ...string) Authorizer {
	allowed := slices.Clone(addresses)
	return AuthorizerFunc(func(env *Env, address string) error {
		if slices.Contains(allowed, address) {
			return nil
		}
		return fmt.Errorf("%w: %s did not authorize the call", auth.ErrUnauthorized, address)
	})
}

// Signed authorizes addresses that signed Invocation. Each (address, nonce) pair
// is accepted once while its marker lives in the temporary tier, which is why the
// validity window may not outlast the temporary TTL.
type Signed struct {
	Invocation auth.Invocation
	Signatures []auth.Signature
}

// RequireAuth verifies address's signature and consumes its nonce
func (s Signed) RequireAuth(env *Env, address string) error {
	inv := s.Invocation
	now := env.Timestamp()

	if inv.ContractID != env.ContractID() {
		return fmt.Errorf("%w: invocation targets contract %s", auth.ErrUnauthorized, inv.ContractID)
	}
	if inv.ValidUntil < now {
		return fmt.Errorf("%w: valid until %d, ledger time %d", ErrExpired, inv.ValidUntil, now)
	}
	maxValidity := uint64(env.host.config.TemporaryTTL.Seconds())
	if inv.ValidUntil-now > maxValidity {
		return fmt.Errorf("%w: valid until %d, limit %d", ErrValidityTooLong, inv.ValidUntil, now+maxValidity)
	}

	payload, err := inv.Payload(env.NetworkPassphrase())
	if err != nil {
		return err
	}
	if err := auth.NewSignatureSet(payload, s.Signatures).Verify(address); err != nil {
		return err
	}

	principal, err := scval.Address(address)
	if err != nil {
		return fmt.Errorf("%w: %v", auth.ErrUnauthorized, err)
	}
	nonceKey := scval.Vec(scval.Symbol("Nonce"), principal, scval.U64(inv.Nonce))

	used, err := env.Temporary().Has(nonceKey)
	if err != nil {
		return err
	}
	if used {
		return fmt.Errorf("%w: %s nonce %d", ErrNonceReused, address, inv.Nonce)
	}

	return env.Temporary().Set(nonceKey, scval.Bool(true))
}
