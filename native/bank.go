// Package native models the native-value transfer primitive the vault
// exchanges against. The vault's reserve is simply its bank balance:
// deposits and top-ups move value in, redemptions move value out.
package native

import (
	"context"
	"errors"
	"sync"

	"github.com/xraph/rebase/types"
)

// Transfer failure modes.
var (
	// ErrInsufficientFunds is returned when the source balance does not
	// cover the transfer.
	ErrInsufficientFunds = errors.New("native: insufficient funds")

	// ErrRejected is returned when the recipient refuses the transfer.
	ErrRejected = errors.New("native: transfer rejected by recipient")
)

// Bank moves native value between addresses and reports balances. Hosts
// back this with their actual value system; MemoryBank serves tests and
// single-process deployments.
type Bank interface {
	Transfer(ctx context.Context, from, to types.Address, amount types.Amount) error
	BalanceOf(ctx context.Context, addr types.Address) (types.Amount, error)
}

// MemoryBank is an in-memory Bank.
type MemoryBank struct {
	mu       sync.Mutex
	balances map[types.Address]types.Amount
	rejects  map[types.Address]struct{}
}

// NewMemoryBank creates an empty in-memory bank.
func NewMemoryBank() *MemoryBank {
	return &MemoryBank{
		balances: make(map[types.Address]types.Amount),
		rejects:  make(map[types.Address]struct{}),
	}
}

// Issue credits native value to an address out of thin air. Test and
// bootstrap helper; real deployments fund addresses out of band.
func (b *MemoryBank) Issue(addr types.Address, amount types.Amount) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.balances[addr] = b.balances[addr].Add(amount)
}

// Reject marks an address as refusing all inbound transfers, modeling a
// recipient that cannot accept value. Used to exercise payout failures.
func (b *MemoryBank) Reject(addr types.Address) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.rejects[addr] = struct{}{}
}

// Accept clears a previous Reject mark.
func (b *MemoryBank) Accept(addr types.Address) {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.rejects, addr)
}

// Transfer implements Bank. It is atomic: on any failure neither balance
// changes.
func (b *MemoryBank) Transfer(_ context.Context, from, to types.Address, amount types.Amount) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, rejected := b.rejects[to]; rejected {
		return ErrRejected
	}
	src := b.balances[from]
	if src.LessThan(amount) {
		return ErrInsufficientFunds
	}
	b.balances[from] = src.Sub(amount)
	b.balances[to] = b.balances[to].Add(amount)
	return nil
}

// BalanceOf implements Bank.
func (b *MemoryBank) BalanceOf(_ context.Context, addr types.Address) (types.Amount, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.balances[addr], nil
}
