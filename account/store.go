package account

import (
	"context"

	"github.com/xraph/rebase/types"
)

// Store is the per-domain persistence interface for accounts.
// The unified store.Store embeds these methods.
type Store interface {
	// Get returns the account for addr, or an account-not-found error.
	Get(ctx context.Context, addr types.Address) (*Account, error)

	// Put upserts all given accounts atomically: either every account is
	// persisted or none is. Mutating ledger operations rely on this to
	// keep multi-account updates (transfers) consistent.
	Put(ctx context.Context, accounts ...*Account) error

	// List returns accounts ordered by address.
	List(ctx context.Context, opts ListOpts) ([]*Account, error)
}
