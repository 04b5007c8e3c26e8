// Package account defines the per-participant state of the rebase ledger.
package account

import (
	"time"

	"github.com/xraph/rebase/interest"
	"github.com/xraph/rebase/types"
)

// Account is the ledger state for one participant.
//
// Principal holds the credits minted to date net of burns, excluding any
// interest accrued since LastUpdate. Rate is the per-account interest rate
// snapshot taken when the account last went from empty to funded (or on
// mint). An account's rate never changes while its balance is nonzero.
type Account struct {
	types.Entity
	Address    types.Address `json:"address"`
	Principal  types.Amount  `json:"principal"`
	Rate       types.Rate    `json:"rate"`
	LastUpdate time.Time     `json:"last_update"`
}

// New creates an empty account for the given address, with its accrual
// clock starting at now.
func New(addr types.Address, now time.Time) *Account {
	return &Account{
		Entity:     types.NewEntityAt(now),
		Address:    addr,
		LastUpdate: now,
	}
}

// Balance returns the redeemable balance at the given time: principal plus
// interest accrued since LastUpdate. It does not mutate the account.
func (a *Account) Balance(now time.Time) types.Amount {
	return interest.Accrue(a.Principal, a.Rate, now.Sub(a.LastUpdate))
}

// Settle folds interest accrued up to now into the principal and resets
// the accrual clock. It returns the realized interest delta. Immediately
// after Settle, Balance and Principal agree.
func (a *Account) Settle(now time.Time) types.Amount {
	settled := a.Balance(now)
	delta := settled.Sub(a.Principal)
	a.Principal = settled
	a.LastUpdate = now
	a.TouchAt(now)
	return delta
}

// Clone returns a copy of the account. Amount and Rate are immutable value
// types, so a shallow copy of the struct is a safe deep copy.
func (a *Account) Clone() *Account {
	c := *a
	return &c
}

// ListOpts controls account listing.
type ListOpts struct {
	Limit  int
	Offset int
}
