// Package capability models the external access-control collaborators of
// the rebase ledger: the capability check that gates mint/burn, and the
// allowance check behind TransferFrom.
//
// The ledger engine depends only on the interfaces; the in-memory
// implementations here are suitable for embedding and for tests. Hosts with
// an existing access-control system implement Authorizer/Approver against it.
package capability

import (
	"context"
	"errors"
	"sync"

	"github.com/xraph/rebase/types"
)

// Capability names a permission an address can hold.
type Capability string

// MintAndBurn authorizes calling the ledger's mint and burn operations.
// The vault is granted this at wiring time.
const MintAndBurn Capability = "mint_and_burn"

// ErrInsufficientAllowance is returned by Approver.Spend when the spender's
// allowance does not cover the requested amount.
var ErrInsufficientAllowance = errors.New("capability: insufficient allowance")

// Authorizer answers "does this address hold this capability" and records
// grants. Grant authorization (owner checks) happens in the ledger engine,
// not here.
type Authorizer interface {
	Has(ctx context.Context, addr types.Address, c Capability) (bool, error)
	Grant(ctx context.Context, addr types.Address, c Capability) error
	Revoke(ctx context.Context, addr types.Address, c Capability) error
}

// Approver answers allowance queries for delegated transfers and consumes
// allowance when a delegated transfer executes.
type Approver interface {
	Allowance(ctx context.Context, owner, spender types.Address) (types.Amount, error)
	Spend(ctx context.Context, owner, spender types.Address, amount types.Amount) error
}

// Set is an in-memory Authorizer.
type Set struct {
	mu     sync.RWMutex
	grants map[types.Address]map[Capability]struct{}
}

// NewSet creates an empty in-memory capability set.
func NewSet() *Set {
	return &Set{grants: make(map[types.Address]map[Capability]struct{})}
}

// Has implements Authorizer.
func (s *Set) Has(_ context.Context, addr types.Address, c Capability) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.grants[addr][c]
	return ok, nil
}

// Grant implements Authorizer. Granting an already-held capability is a no-op.
func (s *Set) Grant(_ context.Context, addr types.Address, c Capability) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.grants[addr] == nil {
		s.grants[addr] = make(map[Capability]struct{})
	}
	s.grants[addr][c] = struct{}{}
	return nil
}

// Revoke implements Authorizer. Revoking an unheld capability is a no-op.
func (s *Set) Revoke(_ context.Context, addr types.Address, c Capability) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.grants[addr], c)
	return nil
}

// Book is an in-memory Approver with explicit approvals.
type Book struct {
	mu         sync.Mutex
	allowances map[types.Address]map[types.Address]types.Amount
}

// NewBook creates an empty in-memory allowance book.
func NewBook() *Book {
	return &Book{allowances: make(map[types.Address]map[types.Address]types.Amount)}
}

// Approve sets the spender's allowance over the owner's balance, replacing
// any previous allowance.
func (b *Book) Approve(_ context.Context, owner, spender types.Address, amount types.Amount) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.allowances[owner] == nil {
		b.allowances[owner] = make(map[types.Address]types.Amount)
	}
	b.allowances[owner][spender] = amount
	return nil
}

// Allowance implements Approver.
func (b *Book) Allowance(_ context.Context, owner, spender types.Address) (types.Amount, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.allowances[owner][spender], nil
}

// Spend implements Approver, deducting amount from the allowance.
func (b *Book) Spend(_ context.Context, owner, spender types.Address, amount types.Amount) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	current := b.allowances[owner][spender]
	if current.LessThan(amount) {
		return ErrInsufficientAllowance
	}
	b.allowances[owner][spender] = current.Sub(amount)
	return nil
}
