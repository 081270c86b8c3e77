package models

import (
	"fmt"

	"github.com/stellar/go/xdr"

	"scholarship/internal/auth"
	"scholarship/internal/scval"
)

// InvokeRequest is a signed state-changing call as submitted over HTTP.
// Args are base64 XDR ScVals.
type InvokeRequest struct {
	ContractID string           `json:"contract_id" validate:"required"`
	Function   string           `json:"function" validate:"required,oneof=init release_scholarship update_admin"`
	Args       []string         `json:"args" validate:"dive,base64"`
	Nonce      uint64           `json:"nonce"`
	ValidUntil uint64           `json:"valid_until" validate:"required"`
	Signatures []auth.Signature `json:"signatures" validate:"required,min=1,dive"`
}

// NewInvokeRequest encodes a signed invocation for submission
func NewInvokeRequest(inv auth.Invocation, sigs ...auth.Signature) (InvokeRequest, error) {
	args := make([]string, 0, len(inv.Args))
	for i, arg := range inv.Args {
		encoded, err := scval.EncodeBase64(arg)
		if err != nil {
			return InvokeRequest{}, fmt.Errorf("encode argument %d: %w", i, err)
		}
		args = append(args, encoded)
	}

	return InvokeRequest{
		ContractID: inv.ContractID,
		Function:   inv.Function,
		Args:       args,
		Nonce:      inv.Nonce,
		ValidUntil: inv.ValidUntil,
		Signatures: sigs,
	}, nil
}

// Invocation decodes the request into the invocation its signatures cover
func (r InvokeRequest) Invocation() (auth.Invocation, error) {
	args := make([]xdr.ScVal, 0, len(r.Args))
	for i, encoded := range r.Args {
		arg, err := scval.DecodeBase64(encoded)
		if err != nil {
			return auth.Invocation{}, fmt.Errorf("decode argument %d: %w", i, err)
		}
		args = append(args, arg)
	}

	return auth.Invocation{
		ContractID: r.ContractID,
		Function:   r.Function,
		Args:       args,
		Nonce:      r.Nonce,
		ValidUntil: r.ValidUntil,
	}, nil
}
