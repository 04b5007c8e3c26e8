// Package memory provides an in-memory Store for tests and single-process
// deployments.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/xraph/rebase"
	"github.com/xraph/rebase/account"
	"github.com/xraph/rebase/journal"
	"github.com/xraph/rebase/store"
	"github.com/xraph/rebase/types"
)

// Compile-time interface check.
var _ store.Store = (*Store)(nil)

type Store struct {
	mu sync.RWMutex

	// Account storage
	accounts map[types.Address]*account.Account

	// Ledger state; the bools track whether the engine has seeded them.
	globalRate types.Rate
	rateSet    bool
	owner      types.Address
	ownerSet   bool

	// Journal storage, append order
	entries []*journal.Entry

	closed bool
}

func New() *Store {
	return &Store{
		accounts: make(map[types.Address]*account.Account),
		entries:  make([]*journal.Entry, 0),
	}
}

// Account Store implementation

func (s *Store) GetAccount(_ context.Context, addr types.Address) (*account.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, rebase.ErrStoreClosed
	}
	if acct, ok := s.accounts[addr]; ok {
		return acct.Clone(), nil
	}
	return nil, rebase.ErrAccountNotFound
}

func (s *Store) PutAccounts(_ context.Context, accounts ...*account.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return rebase.ErrStoreClosed
	}
	// Map writes cannot fail, so writing them all in one critical section
	// is already atomic.
	for _, acct := range accounts {
		s.accounts[acct.Address] = acct.Clone()
	}
	return nil
}

func (s *Store) ListAccounts(_ context.Context, opts account.ListOpts) ([]*account.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, rebase.ErrStoreClosed
	}

	result := make([]*account.Account, 0, len(s.accounts))
	for _, acct := range s.accounts {
		result = append(result, acct.Clone())
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Address < result[j].Address
	})

	// Apply limit/offset
	start := opts.Offset
	if start > len(result) {
		start = len(result)
	}
	end := start + opts.Limit
	if opts.Limit == 0 || end > len(result) {
		end = len(result)
	}

	return result[start:end], nil
}

// Ledger state implementation

func (s *Store) GetGlobalRate(_ context.Context) (types.Rate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return types.ZeroRate(), rebase.ErrStoreClosed
	}
	if !s.rateSet {
		return types.ZeroRate(), rebase.ErrStateNotFound
	}
	return s.globalRate, nil
}

func (s *Store) SetGlobalRate(_ context.Context, rate types.Rate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return rebase.ErrStoreClosed
	}
	s.globalRate = rate
	s.rateSet = true
	return nil
}

func (s *Store) GetOwner(_ context.Context) (types.Address, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return "", rebase.ErrStoreClosed
	}
	if !s.ownerSet {
		return "", rebase.ErrStateNotFound
	}
	return s.owner, nil
}

func (s *Store) SetOwner(_ context.Context, owner types.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return rebase.ErrStoreClosed
	}
	s.owner = owner
	s.ownerSet = true
	return nil
}

// Journal Store implementation

func (s *Store) AppendJournal(_ context.Context, entries []*journal.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return rebase.ErrStoreClosed
	}
	s.entries = append(s.entries, entries...)
	return nil
}

func (s *Store) QueryJournal(_ context.Context, opts journal.QueryOpts) ([]*journal.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, rebase.ErrStoreClosed
	}

	result := make([]*journal.Entry, 0)
	// Newest first
	for i := len(s.entries) - 1; i >= 0; i-- {
		e := s.entries[i]
		if opts.Account != "" && e.Account != opts.Account && e.Counterparty != opts.Account {
			continue
		}
		if opts.Kind != "" && e.Kind != opts.Kind {
			continue
		}
		if !opts.Since.IsZero() && e.Timestamp.Before(opts.Since) {
			continue
		}
		result = append(result, e)
	}

	start := opts.Offset
	if start > len(result) {
		start = len(result)
	}
	end := start + opts.Limit
	if opts.Limit == 0 || end > len(result) {
		end = len(result)
	}

	return result[start:end], nil
}

func (s *Store) PurgeJournal(_ context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, rebase.ErrStoreClosed
	}

	kept := make([]*journal.Entry, 0, len(s.entries))
	var purged int64
	for _, e := range s.entries {
		if e.Timestamp.Before(before) {
			purged++
			continue
		}
		kept = append(kept, e)
	}
	s.entries = kept
	return purged, nil
}

// Core implementation

func (s *Store) Migrate(_ context.Context) error {
	return nil
}

func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return rebase.ErrStoreClosed
	}
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	return nil
}
