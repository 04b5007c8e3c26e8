package rebase_test

import (
	"context"
	"log"
	"log/slog"
	"testing"
	"time"

	"github.com/xraph/rebase"
	"github.com/xraph/rebase/native"
	"github.com/xraph/rebase/store/memory"
	"github.com/xraph/rebase/types"
)

// TestDocumentationExamples verifies that all examples in the documentation compile
func TestDocumentationExamples(t *testing.T) {
	// Test Quick Start example from README
	t.Run("QuickStartExample", func(t *testing.T) {
		// Create store (memory for demo, use PostgreSQL in production)
		store := memory.New()

		// Initialize the ledger
		l := rebase.New(store,
			rebase.WithLogger(slog.Default()),
			rebase.WithOwner("admin"),
			rebase.WithInitialRate(types.MustParseRate("50000000000")),
			rebase.WithJournalConfig(100, 5*time.Second),
		)

		// Start the engine
		ctx := context.Background()
		if err := l.Start(ctx); err != nil {
			t.Fatal(err)
		}
		defer l.Stop()

		// Wire the vault: it exchanges native value for credits and needs
		// the mint/burn capability.
		bank := native.NewMemoryBank()
		vault := rebase.NewVault(l, bank, "vault")
		if err := l.GrantMintAndBurn(ctx, "admin", vault.Address()); err != nil {
			t.Fatal(err)
		}

		// Fund a depositor and deposit
		bank.Issue("alice", types.NewAmount(100000))
		if err := vault.Deposit(ctx, "alice", types.NewAmount(100000)); err != nil {
			t.Fatal(err)
		}

		// Query the accruing balance
		balance, err := l.BalanceOf(ctx, "alice")
		if err != nil {
			t.Fatal(err)
		}
		log.Printf("balance: %s\n", balance)

		// Redeem everything, interest included
		paid, err := vault.Redeem(ctx, "alice", types.All())
		if err != nil {
			t.Fatal(err)
		}
		log.Printf("redeemed: %s\n", paid)
	})

	// Test Amount and Rate type examples
	t.Run("AmountExamples", func(t *testing.T) {
		// Constructors
		_ = types.NewAmount(100000)
		_ = types.ZeroAmount()
		_ = types.MustParseAmount("1000000000000000000000000")

		// Arithmetic
		a1 := types.NewAmount(100)
		a2 := types.NewAmount(200)
		_ = a1.Add(a2)

		// Comparison
		if a1.LessThan(a2) {
			// a1 is less than a2
		}

		// Amount specifications for burns, transfers, and redemptions
		_ = types.Exact(a1)     // exactly 100
		_ = types.ExactInt64(5) // exactly 5
		_ = types.All()         // the full settled balance

		// Rates are 1e18-scale per-second interest
		r := types.NewRate(50_000_000_000)
		_ = r.String() // "50000000000"
	})
}
