package capability

import (
	"context"
	"errors"
	"testing"

	"github.com/xraph/rebase/types"
)

func TestSetGrantHasRevoke(t *testing.T) {
	ctx := context.Background()
	s := NewSet()

	if ok, _ := s.Has(ctx, "vault", MintAndBurn); ok {
		t.Error("fresh set should hold nothing")
	}

	if err := s.Grant(ctx, "vault", MintAndBurn); err != nil {
		t.Fatal(err)
	}
	if ok, _ := s.Has(ctx, "vault", MintAndBurn); !ok {
		t.Error("expected capability after grant")
	}
	if ok, _ := s.Has(ctx, "other", MintAndBurn); ok {
		t.Error("grant must not leak to other addresses")
	}

	// Double grant is a no-op.
	if err := s.Grant(ctx, "vault", MintAndBurn); err != nil {
		t.Fatal(err)
	}

	if err := s.Revoke(ctx, "vault", MintAndBurn); err != nil {
		t.Fatal(err)
	}
	if ok, _ := s.Has(ctx, "vault", MintAndBurn); ok {
		t.Error("expected no capability after revoke")
	}

	// Revoking an unheld capability is a no-op.
	if err := s.Revoke(ctx, "nobody", MintAndBurn); err != nil {
		t.Fatal(err)
	}
}

func TestBookApproveSpend(t *testing.T) {
	ctx := context.Background()
	b := NewBook()

	if a, _ := b.Allowance(ctx, "alice", "bob"); !a.IsZero() {
		t.Errorf("fresh allowance: got %s, want 0", a)
	}

	if err := b.Approve(ctx, "alice", "bob", types.NewAmount(100)); err != nil {
		t.Fatal(err)
	}

	if err := b.Spend(ctx, "alice", "bob", types.NewAmount(60)); err != nil {
		t.Fatal(err)
	}
	if a, _ := b.Allowance(ctx, "alice", "bob"); !a.Equal(types.NewAmount(40)) {
		t.Errorf("allowance after spend: got %s, want 40", a)
	}

	err := b.Spend(ctx, "alice", "bob", types.NewAmount(41))
	if !errors.Is(err, ErrInsufficientAllowance) {
		t.Errorf("expected ErrInsufficientAllowance, got %v", err)
	}
	// A failed spend must not consume allowance.
	if a, _ := b.Allowance(ctx, "alice", "bob"); !a.Equal(types.NewAmount(40)) {
		t.Errorf("allowance after failed spend: got %s, want 40", a)
	}
}
