// Package auth implements the signature proofs that authorize contract invocations.
//
// A caller signs the SHA-256 hash of the network id followed by the XDR encoding of the
// invocation with its ed25519 account key. The host checks that a signature for a
// principal verifies against the same payload before the contract may act on its behalf.
package auth

import (
	"crypto/sha256"
	"errors"
	"fmt"

	"scholarship/internal/scval"

	"github.com/stellar/go/keypair"
	"github.com/stellar/go/network"
	"github.com/stellar/go/xdr"
)

// ErrUnauthorized is returned when a call lacks a valid proof for a principal
var ErrUnauthorized = errors.New("unauthorized")

// Invocation identifies a single contract call for signing
type Invocation struct {
	ContractID string
	Function   string
	Args       []xdr.ScVal
	Nonce      uint64
	ValidUntil uint64 // Ledger timestamp after which the signatures are void
}

// Signature is one principal's proof over an invocation payload
type Signature struct {
	Address   string `json:"address" validate:"required"`
	Signature []byte `json:"signature" validate:"required"`
}

// Payload returns the bytes every signer signs for this invocation
func (inv Invocation) Payload(networkPassphrase string) ([]byte, error) {
	body := scval.Vec(
		scval.String(inv.ContractID),
		scval.Symbol(inv.Function),
		scval.Vec(inv.Args...),
		scval.U64(inv.Nonce),
		scval.U64(inv.ValidUntil),
	)

	raw, err := scval.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode invocation: %w", err)
	}

	networkID := network.ID(networkPassphrase)
	h := sha256.New()
	h.Write(networkID[:])
	h.Write(raw)
	return h.Sum(nil), nil
}

// Sign produces kp's signature over the invocation
func Sign(kp *keypair.Full, networkPassphrase string, inv Invocation) (Signature, error) {
	payload, err := inv.Payload(networkPassphrase)
	if err != nil {
		return Signature{}, err
	}

	sig, err := kp.Sign(payload)
	if err != nil {
		return Signature{}, fmt.Errorf("failed to sign payload: %w", err)
	}

	return Signature{Address: kp.Address(), Signature: sig}, nil
}

// SignatureSet verifies principals against the signatures supplied with a call
type SignatureSet struct {
	payload    []byte
	signatures map[string][]byte
}

// NewSignatureSet indexes sigs by address. A later signature for the same
// address replaces an earlier one.
func NewSignatureSet(payload []byte, sigs []Signature) *SignatureSet {
	set := &SignatureSet{
		payload:    payload,
		signatures: make(map[string][]byte, len(sigs)),
	}
	for _, sig := range sigs {
		set.signatures[sig.Address] = sig.Signature
	}
	return set
}

// Verify checks that the set holds a valid signature by address
func (s *SignatureSet) Verify(address string) error {
	sig, ok := s.signatures[address]
	if !ok {
		return fmt.Errorf("%w: missing signature for %s", ErrUnauthorized, address)
	}

	kp, err := keypair.ParseAddress(address)
	if err != nil {
		return fmt.Errorf("%w: invalid principal %q: %v", ErrUnauthorized, address, err)
	}

	if err := kp.Verify(s.payload, sig); err != nil {
		return fmt.Errorf("%w: bad signature for %s", ErrUnauthorized, address)
	}

	return nil
}
