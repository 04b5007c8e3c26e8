// Package rebase provides an interest-accruing balance ledger for Go applications.
//
// Rebase is designed as a library, not a service. Import it directly into your
// Go application and wire it to your own storage and value-transfer systems.
// It provides:
//
//   - Per-account linear interest accrual at fixed-point 1e18 precision
//   - A single global interest rate that can only ever be lowered
//   - Capability-gated supply changes (mint and burn)
//   - Direct and allowance-based transfers with exact or full-balance amounts
//   - A reserve vault exchanging native value for credits one to one
//   - An append-only operation journal with batched persistence
//   - Pluggable storage (memory, PostgreSQL, SQLite, MongoDB via Grove)
//
// # Quick Start
//
// Create a ledger instance with your preferred store:
//
//	import (
//	    "github.com/xraph/rebase"
//	    "github.com/xraph/rebase/store/memory"
//	)
//
//	l := rebase.New(memory.New(),
//	    rebase.WithOwner("admin"),
//	    rebase.WithInitialRate(types.MustParseRate("50000000000")),
//	)
//
//	// Start the ledger (migrates the store, begins background workers)
//	if err := l.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer l.Stop()
//
// # Core Concepts
//
// Every account carries a principal, a per-account interest rate snapshot,
// and the time of its last settlement. The redeemable balance grows linearly:
//
//	balance = principal * (1e18 + rate * elapsedSeconds) / 1e18
//
// Any mutating operation first settles the account, folding accrued interest
// into principal, so balances never retroactively change when rates do.
//
// The vault exchanges native value for credits:
//
//	vault := rebase.NewVault(l, bank, "vault")
//	l.GrantMintAndBurn(ctx, owner, vault.Address())
//
//	vault.Deposit(ctx, "alice", types.NewAmount(100000))
//	// ... interest accrues ...
//	paid, err := vault.Redeem(ctx, "alice", types.All())
//
// # Precision
//
// All amounts and rates are arbitrary-precision integers at 1e18 scale.
// Accrual divides with truncation, so a settled balance never exceeds the
// exact linear value and never falls below the principal.
//
// # Integration
//
// Rebase integrates with the Forgery ecosystem:
//
//   - Forge: extension adapter with DI registration and lifecycle management
//   - Chronicle: audit trail for supply and vault events via audit_hook
//   - Grove: PostgreSQL, SQLite, and MongoDB storage backends
//
// # TypeID
//
// Journal entries and vault receipts use TypeID for globally unique,
// type-safe identifiers:
//
//	jrn_01h2xcejqtf2nbrexx3vqjhp41  // Journal entry ID
//	dep_01h2xcejqtf2nbrexx3vqjhp41  // Deposit ID
//	red_01h455vb4pex5vsknk084sn02q  // Redemption ID
//
// TypeIDs are K-sortable, making them ideal for database indexes and
// providing natural time-ordering of entries.
package rebase
