// Package store defines the unified persistence interface for Rebase.
package store

import (
	"context"
	"time"

	"github.com/xraph/rebase/account"
	"github.com/xraph/rebase/journal"
	"github.com/xraph/rebase/types"
)

// Store is the unified storage interface for all Rebase state.
// Instead of embedding the per-domain sub-interfaces, all methods are
// declared explicitly to avoid naming conflicts.
type Store interface {
	// Account methods
	GetAccount(ctx context.Context, addr types.Address) (*account.Account, error)
	// PutAccounts upserts all given accounts atomically: either every
	// account is persisted or none is.
	PutAccounts(ctx context.Context, accounts ...*account.Account) error
	ListAccounts(ctx context.Context, opts account.ListOpts) ([]*account.Account, error)

	// Ledger state methods. Getters return a state-not-found error until
	// the engine seeds the values on first start.
	GetGlobalRate(ctx context.Context) (types.Rate, error)
	SetGlobalRate(ctx context.Context, rate types.Rate) error
	GetOwner(ctx context.Context) (types.Address, error)
	SetOwner(ctx context.Context, owner types.Address) error

	// Journal methods
	AppendJournal(ctx context.Context, entries []*journal.Entry) error
	QueryJournal(ctx context.Context, opts journal.QueryOpts) ([]*journal.Entry, error)
	PurgeJournal(ctx context.Context, before time.Time) (int64, error)

	// Core methods
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
