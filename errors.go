package rebase

import (
	"errors"
	"fmt"

	"github.com/xraph/rebase/capability"
	"github.com/xraph/rebase/types"
)

// Sentinel errors for common failure scenarios.
var (
	// Authorization errors
	ErrUnauthorized = errors.New("rebase: caller lacks the mint/burn capability")
	ErrNotOwner     = errors.New("rebase: caller is not the ledger owner")

	// Rate errors
	ErrRateNotLowered = errors.New("rebase: global interest rate can only decrease")

	// Balance errors
	ErrInsufficientBalance   = errors.New("rebase: insufficient settled balance")
	ErrInsufficientAllowance = capability.ErrInsufficientAllowance
	ErrInvalidAmount         = errors.New("rebase: invalid amount")

	// Vault errors
	ErrDepositFailed = errors.New("rebase: deposit failed")
	ErrPayoutFailed  = errors.New("rebase: redeem payout failed")

	// Store errors
	ErrAccountNotFound   = errors.New("rebase: account not found")
	ErrStateNotFound     = errors.New("rebase: ledger state not initialized")
	ErrStoreClosed       = errors.New("rebase: store is closed")
	ErrTransactionFailed = errors.New("rebase: transaction failed")
	ErrMigrationFailed   = errors.New("rebase: migration failed")
)

// RateError reports a rejected global-rate update, carrying the old and
// proposed rates for diagnostics. It unwraps to ErrRateNotLowered.
type RateError struct {
	Current  types.Rate
	Proposed types.Rate
}

func (e *RateError) Error() string {
	return fmt.Sprintf("rebase: global interest rate can only decrease: current %s, proposed %s",
		e.Current, e.Proposed)
}

// Unwrap makes errors.Is(err, ErrRateNotLowered) work.
func (e *RateError) Unwrap() error { return ErrRateNotLowered }

// BalanceError reports a burn or transfer exceeding the settled balance.
// It unwraps to ErrInsufficientBalance.
type BalanceError struct {
	Address   types.Address
	Requested types.Amount
	Available types.Amount
}

func (e *BalanceError) Error() string {
	return fmt.Sprintf("rebase: insufficient settled balance for %s: requested %s, available %s",
		e.Address, e.Requested, e.Available)
}

// Unwrap makes errors.Is(err, ErrInsufficientBalance) work.
func (e *BalanceError) Unwrap() error { return ErrInsufficientBalance }

// IsAuthorizationError returns true if the error is a capability or
// ownership failure.
func IsAuthorizationError(err error) bool {
	return errors.Is(err, ErrUnauthorized) ||
		errors.Is(err, ErrNotOwner)
}

// IsBalanceError returns true if the error is related to balances or
// allowances.
func IsBalanceError(err error) bool {
	return errors.Is(err, ErrInsufficientBalance) ||
		errors.Is(err, ErrInsufficientAllowance) ||
		errors.Is(err, ErrInvalidAmount)
}

// IsRetryable returns true if the error is temporary and the operation can
// be retried.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTransactionFailed)
}
