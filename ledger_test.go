package rebase_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/xraph/rebase"
	"github.com/xraph/rebase/capability"
	"github.com/xraph/rebase/journal"
	"github.com/xraph/rebase/store/memory"
	"github.com/xraph/rebase/types"
)

// fakeClock is a settable time source for deterministic accrual.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

const (
	owner  = types.Address("owner")
	minter = types.Address("minter")
	alice  = types.Address("alice")
	bob    = types.Address("bob")
)

// testRate is 5e10: on a principal of 100000 it accrues 5 units over 1000s.
var testRate = types.NewRate(50_000_000_000)

func newTestLedger(t *testing.T, opts ...rebase.Option) (*rebase.Ledger, *fakeClock) {
	t.Helper()

	clock := newFakeClock()
	base := []rebase.Option{
		rebase.WithClock(clock.Now),
		rebase.WithOwner(owner),
		rebase.WithInitialRate(testRate),
		rebase.WithJournalConfig(1, time.Millisecond),
	}
	l := rebase.New(memory.New(), append(base, opts...)...)

	ctx := context.Background()
	if err := l.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(func() {
		if err := l.Stop(); err != nil {
			t.Errorf("Stop() error = %v", err)
		}
	})

	if err := l.GrantMintAndBurn(ctx, owner, minter); err != nil {
		t.Fatalf("GrantMintAndBurn() error = %v", err)
	}
	return l, clock
}

func mustBalance(t *testing.T, l *rebase.Ledger, addr types.Address) types.Amount {
	t.Helper()
	bal, err := l.BalanceOf(context.Background(), addr)
	if err != nil {
		t.Fatalf("BalanceOf(%s) error = %v", addr, err)
	}
	return bal
}

func TestMintRequiresCapability(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()

	err := l.Mint(ctx, alice, alice, types.NewAmount(100), testRate)
	if !errors.Is(err, rebase.ErrUnauthorized) {
		t.Fatalf("Mint() error = %v, want ErrUnauthorized", err)
	}

	if err := l.Mint(ctx, minter, alice, types.NewAmount(100), testRate); err != nil {
		t.Fatalf("Mint() with capability error = %v", err)
	}
}

func TestBalanceAccruesLinearly(t *testing.T) {
	l, clock := newTestLedger(t)
	ctx := context.Background()

	if err := l.Mint(ctx, minter, alice, types.NewAmount(100000), testRate); err != nil {
		t.Fatalf("Mint() error = %v", err)
	}

	if got := mustBalance(t, l, alice); !got.Equal(types.NewAmount(100000)) {
		t.Fatalf("balance immediately after mint = %s, want 100000", got)
	}

	clock.Advance(1000 * time.Second)

	if got := mustBalance(t, l, alice); !got.Equal(types.NewAmount(100005)) {
		t.Fatalf("balance after 1000s = %s, want 100005", got)
	}

	// Principal lags the balance until the next settlement.
	principal, err := l.PrincipalBalanceOf(ctx, alice)
	if err != nil {
		t.Fatalf("PrincipalBalanceOf() error = %v", err)
	}
	if !principal.Equal(types.NewAmount(100000)) {
		t.Fatalf("principal = %s, want 100000", principal)
	}
}

func TestSettlementIsIdempotent(t *testing.T) {
	l, clock := newTestLedger(t)
	ctx := context.Background()

	if err := l.Mint(ctx, minter, alice, types.NewAmount(100000), testRate); err != nil {
		t.Fatalf("Mint() error = %v", err)
	}
	clock.Advance(1000 * time.Second)

	// A zero burn settles without changing the balance.
	for i := 0; i < 3; i++ {
		if _, err := l.Burn(ctx, minter, alice, types.ExactInt64(0)); err != nil {
			t.Fatalf("Burn(0) #%d error = %v", i, err)
		}
		if got := mustBalance(t, l, alice); !got.Equal(types.NewAmount(100005)) {
			t.Fatalf("balance after settle #%d = %s, want 100005", i, got)
		}
	}

	// Principal now matches the settled balance.
	principal, err := l.PrincipalBalanceOf(ctx, alice)
	if err != nil {
		t.Fatalf("PrincipalBalanceOf() error = %v", err)
	}
	if !principal.Equal(types.NewAmount(100005)) {
		t.Fatalf("principal after settle = %s, want 100005", principal)
	}
}

func TestBurnExactAndInsufficient(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()

	if err := l.Mint(ctx, minter, alice, types.NewAmount(500), testRate); err != nil {
		t.Fatalf("Mint() error = %v", err)
	}

	burned, err := l.Burn(ctx, minter, alice, types.ExactInt64(200))
	if err != nil {
		t.Fatalf("Burn(200) error = %v", err)
	}
	if !burned.Equal(types.NewAmount(200)) {
		t.Fatalf("burned = %s, want 200", burned)
	}
	if got := mustBalance(t, l, alice); !got.Equal(types.NewAmount(300)) {
		t.Fatalf("balance after burn = %s, want 300", got)
	}

	_, err = l.Burn(ctx, minter, alice, types.ExactInt64(301))
	if !errors.Is(err, rebase.ErrInsufficientBalance) {
		t.Fatalf("Burn(301) error = %v, want ErrInsufficientBalance", err)
	}

	var balErr *rebase.BalanceError
	if !errors.As(err, &balErr) {
		t.Fatalf("Burn(301) error = %T, want *BalanceError", err)
	}
	if !balErr.Available.Equal(types.NewAmount(300)) {
		t.Fatalf("BalanceError.Available = %s, want 300", balErr.Available)
	}

	// The failed burn must not have changed state.
	if got := mustBalance(t, l, alice); !got.Equal(types.NewAmount(300)) {
		t.Fatalf("balance after failed burn = %s, want 300", got)
	}
}

func TestBurnAllIncludesAccruedInterest(t *testing.T) {
	l, clock := newTestLedger(t)
	ctx := context.Background()

	if err := l.Mint(ctx, minter, alice, types.NewAmount(100000), testRate); err != nil {
		t.Fatalf("Mint() error = %v", err)
	}
	clock.Advance(1000 * time.Second)

	burned, err := l.Burn(ctx, minter, alice, types.All())
	if err != nil {
		t.Fatalf("Burn(All) error = %v", err)
	}
	if !burned.Equal(types.NewAmount(100005)) {
		t.Fatalf("burned = %s, want 100005", burned)
	}
	if got := mustBalance(t, l, alice); !got.IsZero() {
		t.Fatalf("balance after burn all = %s, want 0", got)
	}
}

func TestTransferRateInheritance(t *testing.T) {
	l, clock := newTestLedger(t)
	ctx := context.Background()

	if err := l.Mint(ctx, minter, alice, types.NewAmount(100000), testRate); err != nil {
		t.Fatalf("Mint() error = %v", err)
	}

	// Lower the global rate; alice keeps her snapshot.
	lowered := types.NewRate(40_000_000_000)
	if err := l.SetGlobalInterestRate(ctx, owner, lowered); err != nil {
		t.Fatalf("SetGlobalInterestRate() error = %v", err)
	}

	if err := l.Transfer(ctx, alice, bob, types.ExactInt64(50000)); err != nil {
		t.Fatalf("Transfer() error = %v", err)
	}

	aliceRate, err := l.UserInterestRate(ctx, alice)
	if err != nil {
		t.Fatalf("UserInterestRate(alice) error = %v", err)
	}
	if !aliceRate.Equal(testRate) {
		t.Fatalf("alice rate = %s, want %s", aliceRate, testRate)
	}

	// Bob was empty, so he picks up the current global rate.
	bobRate, err := l.UserInterestRate(ctx, bob)
	if err != nil {
		t.Fatalf("UserInterestRate(bob) error = %v", err)
	}
	if !bobRate.Equal(lowered) {
		t.Fatalf("bob rate = %s, want %s", bobRate, lowered)
	}

	// Each account accrues at its own rate.
	clock.Advance(2000 * time.Second)
	if got := mustBalance(t, l, alice); !got.Equal(types.NewAmount(50005)) {
		t.Fatalf("alice balance = %s, want 50005", got)
	}
	if got := mustBalance(t, l, bob); !got.Equal(types.NewAmount(50004)) {
		t.Fatalf("bob balance = %s, want 50004", got)
	}
}

func TestTransferToFundedAccountKeepsRate(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()

	if err := l.Mint(ctx, minter, alice, types.NewAmount(1000), testRate); err != nil {
		t.Fatalf("Mint() error = %v", err)
	}
	if err := l.Mint(ctx, minter, bob, types.NewAmount(1000), testRate); err != nil {
		t.Fatalf("Mint() error = %v", err)
	}

	lowered := types.NewRate(40_000_000_000)
	if err := l.SetGlobalInterestRate(ctx, owner, lowered); err != nil {
		t.Fatalf("SetGlobalInterestRate() error = %v", err)
	}

	// Bob is already funded: topping him up must not touch his rate.
	if err := l.Transfer(ctx, alice, bob, types.ExactInt64(500)); err != nil {
		t.Fatalf("Transfer() error = %v", err)
	}

	bobRate, err := l.UserInterestRate(ctx, bob)
	if err != nil {
		t.Fatalf("UserInterestRate(bob) error = %v", err)
	}
	if !bobRate.Equal(testRate) {
		t.Fatalf("bob rate = %s, want %s (unchanged)", bobRate, testRate)
	}
}

func TestTransferAllEmptiesSender(t *testing.T) {
	l, clock := newTestLedger(t)
	ctx := context.Background()

	if err := l.Mint(ctx, minter, alice, types.NewAmount(100000), testRate); err != nil {
		t.Fatalf("Mint() error = %v", err)
	}
	clock.Advance(1000 * time.Second)

	if err := l.Transfer(ctx, alice, bob, types.All()); err != nil {
		t.Fatalf("Transfer(All) error = %v", err)
	}

	if got := mustBalance(t, l, alice); !got.IsZero() {
		t.Fatalf("alice balance = %s, want 0", got)
	}
	if got := mustBalance(t, l, bob); !got.Equal(types.NewAmount(100005)) {
		t.Fatalf("bob balance = %s, want 100005", got)
	}
}

func TestTransferInsufficientRollsBack(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()

	if err := l.Mint(ctx, minter, alice, types.NewAmount(100), testRate); err != nil {
		t.Fatalf("Mint() error = %v", err)
	}

	err := l.Transfer(ctx, alice, bob, types.ExactInt64(101))
	if !errors.Is(err, rebase.ErrInsufficientBalance) {
		t.Fatalf("Transfer() error = %v, want ErrInsufficientBalance", err)
	}

	if got := mustBalance(t, l, alice); !got.Equal(types.NewAmount(100)) {
		t.Fatalf("alice balance after failed transfer = %s, want 100", got)
	}
	if got := mustBalance(t, l, bob); !got.IsZero() {
		t.Fatalf("bob balance after failed transfer = %s, want 0", got)
	}
}

func TestTransferSelf(t *testing.T) {
	l, clock := newTestLedger(t)
	ctx := context.Background()

	if err := l.Mint(ctx, minter, alice, types.NewAmount(100000), testRate); err != nil {
		t.Fatalf("Mint() error = %v", err)
	}
	clock.Advance(1000 * time.Second)

	if err := l.Transfer(ctx, alice, alice, types.All()); err != nil {
		t.Fatalf("self Transfer() error = %v", err)
	}
	if got := mustBalance(t, l, alice); !got.Equal(types.NewAmount(100005)) {
		t.Fatalf("balance after self transfer = %s, want 100005", got)
	}
}

func TestTransferFromConsumesAllowance(t *testing.T) {
	book := capability.NewBook()
	l, _ := newTestLedger(t, rebase.WithApprover(book))
	ctx := context.Background()

	if err := l.Mint(ctx, minter, alice, types.NewAmount(1000), testRate); err != nil {
		t.Fatalf("Mint() error = %v", err)
	}

	spender := types.Address("spender")
	if err := book.Approve(ctx, alice, spender, types.NewAmount(300)); err != nil {
		t.Fatalf("Approve() error = %v", err)
	}

	if err := l.TransferFrom(ctx, spender, alice, bob, types.ExactInt64(200)); err != nil {
		t.Fatalf("TransferFrom() error = %v", err)
	}

	remaining, err := book.Allowance(ctx, alice, spender)
	if err != nil {
		t.Fatalf("Allowance() error = %v", err)
	}
	if !remaining.Equal(types.NewAmount(100)) {
		t.Fatalf("allowance after spend = %s, want 100", remaining)
	}

	// Exceeding the remaining allowance fails and moves nothing.
	err = l.TransferFrom(ctx, spender, alice, bob, types.ExactInt64(200))
	if !errors.Is(err, rebase.ErrInsufficientAllowance) {
		t.Fatalf("TransferFrom() error = %v, want ErrInsufficientAllowance", err)
	}
	if got := mustBalance(t, l, bob); !got.Equal(types.NewAmount(200)) {
		t.Fatalf("bob balance = %s, want 200", got)
	}
}

func TestSetGlobalInterestRate(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()

	// Only the owner may lower the rate.
	err := l.SetGlobalInterestRate(ctx, alice, types.NewRate(1))
	if !errors.Is(err, rebase.ErrNotOwner) {
		t.Fatalf("SetGlobalInterestRate() by non-owner error = %v, want ErrNotOwner", err)
	}

	// Equal rate is rejected.
	err = l.SetGlobalInterestRate(ctx, owner, testRate)
	if !errors.Is(err, rebase.ErrRateNotLowered) {
		t.Fatalf("SetGlobalInterestRate(equal) error = %v, want ErrRateNotLowered", err)
	}

	// Higher rate is rejected with diagnostics.
	err = l.SetGlobalInterestRate(ctx, owner, types.NewRate(60_000_000_000))
	var rateErr *rebase.RateError
	if !errors.As(err, &rateErr) {
		t.Fatalf("SetGlobalInterestRate(higher) error = %T, want *RateError", err)
	}
	if !rateErr.Current.Equal(testRate) {
		t.Fatalf("RateError.Current = %s, want %s", rateErr.Current, testRate)
	}

	// Strictly lower succeeds.
	lowered := types.NewRate(40_000_000_000)
	if err := l.SetGlobalInterestRate(ctx, owner, lowered); err != nil {
		t.Fatalf("SetGlobalInterestRate(lower) error = %v", err)
	}
	got, err := l.GlobalInterestRate(ctx)
	if err != nil {
		t.Fatalf("GlobalInterestRate() error = %v", err)
	}
	if !got.Equal(lowered) {
		t.Fatalf("global rate = %s, want %s", got, lowered)
	}
}

func TestRateChangeDoesNotAffectExistingAccounts(t *testing.T) {
	l, clock := newTestLedger(t)
	ctx := context.Background()

	if err := l.Mint(ctx, minter, alice, types.NewAmount(100000), testRate); err != nil {
		t.Fatalf("Mint() error = %v", err)
	}
	if err := l.SetGlobalInterestRate(ctx, owner, types.ZeroRate()); err != nil {
		t.Fatalf("SetGlobalInterestRate() error = %v", err)
	}

	clock.Advance(1000 * time.Second)
	if got := mustBalance(t, l, alice); !got.Equal(types.NewAmount(100005)) {
		t.Fatalf("balance = %s, want 100005 (rate snapshot preserved)", got)
	}
}

func TestTransferOwnership(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()

	newOwner := types.Address("new-owner")
	if err := l.TransferOwnership(ctx, owner, newOwner); err != nil {
		t.Fatalf("TransferOwnership() error = %v", err)
	}

	// The old owner has no admin rights anymore.
	err := l.SetGlobalInterestRate(ctx, owner, types.NewRate(1))
	if !errors.Is(err, rebase.ErrNotOwner) {
		t.Fatalf("SetGlobalInterestRate() by old owner error = %v, want ErrNotOwner", err)
	}

	if err := l.SetGlobalInterestRate(ctx, newOwner, types.NewRate(1)); err != nil {
		t.Fatalf("SetGlobalInterestRate() by new owner error = %v", err)
	}

	got, err := l.Owner(ctx)
	if err != nil {
		t.Fatalf("Owner() error = %v", err)
	}
	if got != newOwner {
		t.Fatalf("Owner() = %s, want %s", got, newOwner)
	}
}

func TestGrantMintAndBurnOwnerOnly(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()

	err := l.GrantMintAndBurn(ctx, alice, bob)
	if !errors.Is(err, rebase.ErrNotOwner) {
		t.Fatalf("GrantMintAndBurn() by non-owner error = %v, want ErrNotOwner", err)
	}
}

func TestUnknownAccountQueries(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()

	if got := mustBalance(t, l, "nobody"); !got.IsZero() {
		t.Fatalf("BalanceOf(unknown) = %s, want 0", got)
	}
	rate, err := l.UserInterestRate(ctx, "nobody")
	if err != nil {
		t.Fatalf("UserInterestRate(unknown) error = %v", err)
	}
	if !rate.IsZero() {
		t.Fatalf("UserInterestRate(unknown) = %s, want 0", rate)
	}
}

func TestJournalRecordsOperations(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()

	if err := l.Mint(ctx, minter, alice, types.NewAmount(1000), testRate); err != nil {
		t.Fatalf("Mint() error = %v", err)
	}
	if err := l.Transfer(ctx, alice, bob, types.ExactInt64(400)); err != nil {
		t.Fatalf("Transfer() error = %v", err)
	}

	// The journal writer is asynchronous; poll until both entries land.
	deadline := time.Now().Add(2 * time.Second)
	var entries []*journal.Entry
	for time.Now().Before(deadline) {
		var err error
		entries, err = l.Journal(ctx, journal.QueryOpts{Account: alice})
		if err != nil {
			t.Fatalf("Journal() error = %v", err)
		}
		if len(entries) >= 2 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if len(entries) != 2 {
		t.Fatalf("Journal() returned %d entries, want 2", len(entries))
	}

	// Newest first.
	if entries[0].Kind != journal.KindTransfer {
		t.Errorf("entries[0].Kind = %s, want %s", entries[0].Kind, journal.KindTransfer)
	}
	if entries[1].Kind != journal.KindMint {
		t.Errorf("entries[1].Kind = %s, want %s", entries[1].Kind, journal.KindMint)
	}
	if entries[0].Counterparty != bob {
		t.Errorf("transfer counterparty = %s, want %s", entries[0].Counterparty, bob)
	}
}
