package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/xraph/rebase"
	"github.com/xraph/rebase/account"
	"github.com/xraph/rebase/id"
	"github.com/xraph/rebase/journal"
	"github.com/xraph/rebase/types"
)

func TestAccountRoundTrip(t *testing.T) {
	s := New()
	ctx := context.Background()
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	_, err := s.GetAccount(ctx, "alice")
	if !errors.Is(err, rebase.ErrAccountNotFound) {
		t.Fatalf("GetAccount(missing) error = %v, want ErrAccountNotFound", err)
	}

	acct := account.New("alice", now)
	acct.Principal = types.NewAmount(1000)
	acct.Rate = types.NewRate(50_000_000_000)

	if err := s.PutAccounts(ctx, acct); err != nil {
		t.Fatalf("PutAccounts() error = %v", err)
	}

	got, err := s.GetAccount(ctx, "alice")
	if err != nil {
		t.Fatalf("GetAccount() error = %v", err)
	}
	if !got.Principal.Equal(types.NewAmount(1000)) {
		t.Errorf("Principal = %s, want 1000", got.Principal)
	}
	if !got.LastUpdate.Equal(now) {
		t.Errorf("LastUpdate = %v, want %v", got.LastUpdate, now)
	}

	// The store must hold its own copy, not alias the caller's struct.
	acct.Principal = types.NewAmount(9999)
	got2, err := s.GetAccount(ctx, "alice")
	if err != nil {
		t.Fatalf("GetAccount() error = %v", err)
	}
	if !got2.Principal.Equal(types.NewAmount(1000)) {
		t.Errorf("Principal after caller mutation = %s, want 1000", got2.Principal)
	}
}

func TestPutAccountsMultiple(t *testing.T) {
	s := New()
	ctx := context.Background()
	now := time.Now()

	a := account.New("alice", now)
	a.Principal = types.NewAmount(100)
	b := account.New("bob", now)
	b.Principal = types.NewAmount(200)

	if err := s.PutAccounts(ctx, a, b); err != nil {
		t.Fatalf("PutAccounts() error = %v", err)
	}

	list, err := s.ListAccounts(ctx, account.ListOpts{})
	if err != nil {
		t.Fatalf("ListAccounts() error = %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("ListAccounts() returned %d accounts, want 2", len(list))
	}
	// Sorted by address.
	if list[0].Address != "alice" || list[1].Address != "bob" {
		t.Errorf("ListAccounts() order = %s, %s", list[0].Address, list[1].Address)
	}
}

func TestStateSeeding(t *testing.T) {
	s := New()
	ctx := context.Background()

	if _, err := s.GetGlobalRate(ctx); !errors.Is(err, rebase.ErrStateNotFound) {
		t.Fatalf("GetGlobalRate(unseeded) error = %v, want ErrStateNotFound", err)
	}
	if _, err := s.GetOwner(ctx); !errors.Is(err, rebase.ErrStateNotFound) {
		t.Fatalf("GetOwner(unseeded) error = %v, want ErrStateNotFound", err)
	}

	rate := types.NewRate(42)
	if err := s.SetGlobalRate(ctx, rate); err != nil {
		t.Fatalf("SetGlobalRate() error = %v", err)
	}
	got, err := s.GetGlobalRate(ctx)
	if err != nil {
		t.Fatalf("GetGlobalRate() error = %v", err)
	}
	if !got.Equal(rate) {
		t.Errorf("GetGlobalRate() = %s, want %s", got, rate)
	}

	// A zero rate is a valid seeded value, distinct from unseeded.
	if err := s.SetGlobalRate(ctx, types.ZeroRate()); err != nil {
		t.Fatalf("SetGlobalRate(0) error = %v", err)
	}
	if _, err := s.GetGlobalRate(ctx); err != nil {
		t.Fatalf("GetGlobalRate(zero) error = %v", err)
	}

	if err := s.SetOwner(ctx, "admin"); err != nil {
		t.Fatalf("SetOwner() error = %v", err)
	}
	ownerAddr, err := s.GetOwner(ctx)
	if err != nil {
		t.Fatalf("GetOwner() error = %v", err)
	}
	if ownerAddr != "admin" {
		t.Errorf("GetOwner() = %s, want admin", ownerAddr)
	}
}

func TestJournalQueryAndPurge(t *testing.T) {
	s := New()
	ctx := context.Background()
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	entries := []*journal.Entry{
		{ID: id.NewJournalEntryID(), Kind: journal.KindMint, Account: "alice", Amount: types.NewAmount(100), Timestamp: base},
		{ID: id.NewJournalEntryID(), Kind: journal.KindTransfer, Account: "alice", Counterparty: "bob", Amount: types.NewAmount(40), Timestamp: base.Add(time.Minute)},
		{ID: id.NewJournalEntryID(), Kind: journal.KindBurn, Account: "bob", Amount: types.NewAmount(10), Timestamp: base.Add(2 * time.Minute)},
	}
	if err := s.AppendJournal(ctx, entries); err != nil {
		t.Fatalf("AppendJournal() error = %v", err)
	}

	// Account filter matches both sides of a transfer, newest first.
	got, err := s.QueryJournal(ctx, journal.QueryOpts{Account: "bob"})
	if err != nil {
		t.Fatalf("QueryJournal() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("QueryJournal(bob) returned %d entries, want 2", len(got))
	}
	if got[0].Kind != journal.KindBurn || got[1].Kind != journal.KindTransfer {
		t.Errorf("QueryJournal(bob) order = %s, %s", got[0].Kind, got[1].Kind)
	}

	// Kind filter.
	got, err = s.QueryJournal(ctx, journal.QueryOpts{Kind: journal.KindMint})
	if err != nil {
		t.Fatalf("QueryJournal() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("QueryJournal(mint) returned %d entries, want 1", len(got))
	}

	// Since filter.
	got, err = s.QueryJournal(ctx, journal.QueryOpts{Since: base.Add(time.Minute)})
	if err != nil {
		t.Fatalf("QueryJournal() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("QueryJournal(since) returned %d entries, want 2", len(got))
	}

	purged, err := s.PurgeJournal(ctx, base.Add(time.Minute))
	if err != nil {
		t.Fatalf("PurgeJournal() error = %v", err)
	}
	if purged != 1 {
		t.Fatalf("PurgeJournal() = %d, want 1", purged)
	}
	got, err = s.QueryJournal(ctx, journal.QueryOpts{})
	if err != nil {
		t.Fatalf("QueryJournal() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("entries after purge = %d, want 2", len(got))
	}
}

func TestClosedStore(t *testing.T) {
	s := New()
	ctx := context.Background()

	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if _, err := s.GetAccount(ctx, "alice"); !errors.Is(err, rebase.ErrStoreClosed) {
		t.Errorf("GetAccount() after close error = %v, want ErrStoreClosed", err)
	}
	if err := s.Ping(ctx); !errors.Is(err, rebase.ErrStoreClosed) {
		t.Errorf("Ping() after close error = %v, want ErrStoreClosed", err)
	}
}
