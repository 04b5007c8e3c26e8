// Package plugin provides an extensible plugin system for Rebase.
// Plugins can hook into ledger and vault lifecycle events to extend
// functionality.
package plugin

import (
	"context"
	"time"

	"github.com/xraph/rebase/types"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the plugin is initialized. The ledger engine is
// passed as interface{} to avoid an import cycle with the root package.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, ledger interface{}) error
}

// OnShutdown is called when the plugin is shutting down.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Ledger operation hooks
// ──────────────────────────────────────────────────

// OnMint is called after credits are minted to an account.
type OnMint interface {
	Plugin
	OnMint(ctx context.Context, account types.Address, amount types.Amount, rate types.Rate) error
}

// OnBurn is called after credits are burned from an account.
type OnBurn interface {
	Plugin
	OnBurn(ctx context.Context, account types.Address, amount types.Amount) error
}

// OnTransfer is called after a transfer between accounts.
type OnTransfer interface {
	Plugin
	OnTransfer(ctx context.Context, from, to types.Address, amount types.Amount) error
}

// ──────────────────────────────────────────────────
// Rate and administration hooks
// ──────────────────────────────────────────────────

// OnRateChanged is called after the global interest rate is lowered.
type OnRateChanged interface {
	Plugin
	OnRateChanged(ctx context.Context, oldRate, newRate types.Rate) error
}

// OnCapabilityGranted is called after an address is granted the mint/burn
// capability.
type OnCapabilityGranted interface {
	Plugin
	OnCapabilityGranted(ctx context.Context, account types.Address) error
}

// OnOwnershipTransferred is called after ledger ownership changes.
type OnOwnershipTransferred interface {
	Plugin
	OnOwnershipTransferred(ctx context.Context, oldOwner, newOwner types.Address) error
}

// ──────────────────────────────────────────────────
// Vault hooks
// ──────────────────────────────────────────────────

// OnDeposit is called after a successful vault deposit.
type OnDeposit interface {
	Plugin
	OnDeposit(ctx context.Context, account types.Address, amount types.Amount) error
}

// OnRedeemed is called after a successful vault redemption.
type OnRedeemed interface {
	Plugin
	OnRedeemed(ctx context.Context, account types.Address, amount types.Amount) error
}

// OnReserveFunded is called after an unsolicited reserve top-up.
type OnReserveFunded interface {
	Plugin
	OnReserveFunded(ctx context.Context, from types.Address, amount types.Amount) error
}

// ──────────────────────────────────────────────────
// Journal hooks
// ──────────────────────────────────────────────────

// OnJournalFlushed is called when buffered journal entries are flushed to
// the store.
type OnJournalFlushed interface {
	Plugin
	OnJournalFlushed(ctx context.Context, count int, elapsed time.Duration) error
}
