package ledger

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/stellar/go/xdr"

	"scholarship/internal/auth"
	"scholarship/internal/host"
	"scholarship/internal/scval"
)

// Envelope carries everything needed to sign a state-changing call except the
// function arguments
type Envelope struct {
	ContractID string
	Nonce      uint64
	ValidUntil uint64
}

func (e Envelope) invocation(function string, args ...xdr.ScVal) auth.Invocation {
	return auth.Invocation{
		ContractID: e.ContractID,
		Function:   function,
		Args:       args,
		Nonce:      e.Nonce,
		ValidUntil: e.ValidUntil,
	}
}

// InitializeInvocation builds the invocation of init(admin)
func InitializeInvocation(e Envelope, admin string) (auth.Invocation, error) {
	adminVal, err := scval.Address(admin)
	if err != nil {
		return auth.Invocation{}, err
	}
	return e.invocation(FnInitialize, adminVal), nil
}

// ReleaseScholarshipInvocation builds the invocation of release_scholarship(admin, student, amount)
func ReleaseScholarshipInvocation(e Envelope, admin, student string, amount *big.Int) (auth.Invocation, error) {
	adminVal, err := scval.Address(admin)
	if err != nil {
		return auth.Invocation{}, err
	}
	studentVal, err := scval.Address(student)
	if err != nil {
		return auth.Invocation{}, err
	}
	amountVal, err := scval.I128(amount)
	if err != nil {
		return auth.Invocation{}, fmt.Errorf("%w: %v", ErrOverflow, err)
	}
	return e.invocation(FnReleaseScholarship, adminVal, studentVal, amountVal), nil
}

// UpdateAdminInvocation builds the invocation of update_admin(current_admin, new_admin)
func UpdateAdminInvocation(e Envelope, currentAdmin, newAdmin string) (auth.Invocation, error) {
	currentVal, err := scval.Address(currentAdmin)
	if err != nil {
		return auth.Invocation{}, err
	}
	newVal, err := scval.Address(newAdmin)
	if err != nil {
		return auth.Invocation{}, err
	}
	return e.invocation(FnUpdateAdmin, currentVal, newVal), nil
}

// Result is the outcome of a dispatched invocation
type Result struct {
	Function      string
	ScholarshipID uint64 // set by release_scholarship
}

// Dispatch decodes the arguments of a signed invocation and performs the call
// it names, authorized by its signatures
func (c *Client) Dispatch(ctx context.Context, signed host.Signed) (Result, error) {
	start := time.Now()
	inv := signed.Invocation

	call, err := c.bind(signed)
	if err != nil {
		// calls that never reach the contract are counted here, the rest by their method
		observe(functionLabel(inv.Function), start, err)
		return Result{Function: inv.Function}, err
	}
	return call(ctx)
}

// bind decodes inv's arguments into the client call it names
func (c *Client) bind(signed host.Signed) (func(context.Context) (Result, error), error) {
	inv := signed.Invocation
	result := Result{Function: inv.Function}

	switch inv.Function {
	case FnInitialize:
		if err := arity(inv, 1); err != nil {
			return nil, err
		}
		admin, err := addressArg(inv, 0)
		if err != nil {
			return nil, err
		}
		return func(ctx context.Context) (Result, error) {
			return result, c.Initialize(ctx, signed, admin)
		}, nil

	case FnReleaseScholarship:
		if err := arity(inv, 3); err != nil {
			return nil, err
		}
		admin, err := addressArg(inv, 0)
		if err != nil {
			return nil, err
		}
		student, err := addressArg(inv, 1)
		if err != nil {
			return nil, err
		}
		amount, err := scval.ToBigInt(inv.Args[2])
		if err != nil {
			return nil, fmt.Errorf("%w: amount: %v", ErrInvalidArguments, err)
		}
		return func(ctx context.Context) (Result, error) {
			id, err := c.ReleaseScholarship(ctx, signed, admin, student, amount)
			result.ScholarshipID = id
			return result, err
		}, nil

	case FnUpdateAdmin:
		if err := arity(inv, 2); err != nil {
			return nil, err
		}
		current, err := addressArg(inv, 0)
		if err != nil {
			return nil, err
		}
		next, err := addressArg(inv, 1)
		if err != nil {
			return nil, err
		}
		return func(ctx context.Context) (Result, error) {
			return result, c.UpdateAdmin(ctx, signed, current, next)
		}, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFunction, inv.Function)
	}
}

// functionLabel keeps metric labels to the known function names
func functionLabel(function string) string {
	switch function {
	case FnInitialize, FnReleaseScholarship, FnUpdateAdmin:
		return function
	}
	return "unknown"
}

func arity(inv auth.Invocation, n int) error {
	if len(inv.Args) != n {
		return fmt.Errorf("%w: %s takes %d arguments, got %d", ErrInvalidArguments, inv.Function, n, len(inv.Args))
	}
	return nil
}

func addressArg(inv auth.Invocation, i int) (string, error) {
	address, err := scval.ToAddress(inv.Args[i])
	if err != nil {
		return "", fmt.Errorf("%w: argument %d of %s: %v", ErrInvalidArguments, i, inv.Function, err)
	}
	return address, nil
}
