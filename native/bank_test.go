package native

import (
	"context"
	"errors"
	"testing"

	"github.com/xraph/rebase/types"
)

func TestMemoryBankTransfer(t *testing.T) {
	ctx := context.Background()
	b := NewMemoryBank()
	b.Issue("alice", types.NewAmount(1000))

	if err := b.Transfer(ctx, "alice", "vault", types.NewAmount(400)); err != nil {
		t.Fatal(err)
	}

	if got, _ := b.BalanceOf(ctx, "alice"); !got.Equal(types.NewAmount(600)) {
		t.Errorf("alice: got %s, want 600", got)
	}
	if got, _ := b.BalanceOf(ctx, "vault"); !got.Equal(types.NewAmount(400)) {
		t.Errorf("vault: got %s, want 400", got)
	}
}

func TestMemoryBankInsufficientFunds(t *testing.T) {
	ctx := context.Background()
	b := NewMemoryBank()
	b.Issue("alice", types.NewAmount(10))

	err := b.Transfer(ctx, "alice", "vault", types.NewAmount(11))
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Errorf("expected ErrInsufficientFunds, got %v", err)
	}

	// Nothing moved.
	if got, _ := b.BalanceOf(ctx, "alice"); !got.Equal(types.NewAmount(10)) {
		t.Errorf("alice: got %s, want 10", got)
	}
	if got, _ := b.BalanceOf(ctx, "vault"); !got.IsZero() {
		t.Errorf("vault: got %s, want 0", got)
	}
}

func TestMemoryBankReject(t *testing.T) {
	ctx := context.Background()
	b := NewMemoryBank()
	b.Issue("vault", types.NewAmount(100))
	b.Reject("alice")

	err := b.Transfer(ctx, "vault", "alice", types.NewAmount(50))
	if !errors.Is(err, ErrRejected) {
		t.Errorf("expected ErrRejected, got %v", err)
	}
	if got, _ := b.BalanceOf(ctx, "vault"); !got.Equal(types.NewAmount(100)) {
		t.Errorf("vault after rejected payout: got %s, want 100", got)
	}

	b.Accept("alice")
	if err := b.Transfer(ctx, "vault", "alice", types.NewAmount(50)); err != nil {
		t.Fatal(err)
	}
}
