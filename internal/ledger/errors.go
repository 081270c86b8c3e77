package ledger

import (
	"errors"

	"scholarship/internal/auth"
	"scholarship/internal/scval"
)

// Contract errors. Every one of them aborts the call with no writes.
var (
	ErrAlreadyInitialized = errors.New("contract already initialized")
	ErrNotInitialized     = errors.New("contract not initialized")
	ErrUnauthorized       = auth.ErrUnauthorized
	ErrWrongAdmin         = errors.New("caller is not the admin")
	ErrInvalidAmount      = errors.New("amount must be positive")
	ErrNoAdminSet         = errors.New("no admin set")
	ErrInvalidAddress     = scval.ErrInvalidAddress
	ErrOverflow           = errors.New("arithmetic overflow")
)

// Invocation errors, raised before a call reaches the contract
var (
	ErrUnknownFunction  = errors.New("unknown contract function")
	ErrInvalidArguments = errors.New("invalid arguments")
)

var errorCodes = []struct {
	err  error
	code int
	name string
}{
	{ErrAlreadyInitialized, 1, "already_initialized"},
	{ErrNotInitialized, 2, "not_initialized"},
	{ErrUnauthorized, 3, "unauthorized"},
	{ErrWrongAdmin, 4, "wrong_admin"},
	{ErrInvalidAmount, 5, "invalid_amount"},
	{ErrNoAdminSet, 6, "no_admin_set"},
	{ErrInvalidAddress, 7, "invalid_address"},
	{ErrOverflow, 8, "overflow"},
}

// ErrorCode returns the stable numeric code of a contract error, or 0 if err is
// not one
func ErrorCode(err error) int {
	for _, c := range errorCodes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return 0
}

// outcome labels a call result for metrics
func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	for _, c := range errorCodes {
		if errors.Is(err, c.err) {
			return c.name
		}
	}
	switch {
	case errors.Is(err, ErrUnknownFunction):
		return "unknown_function"
	case errors.Is(err, ErrInvalidArguments):
		return "invalid_arguments"
	}
	return "error"
}
