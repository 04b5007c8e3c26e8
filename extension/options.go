package extension

import (
	"time"

	"github.com/xraph/rebase"
	"github.com/xraph/rebase/native"
	"github.com/xraph/rebase/plugin"
	"github.com/xraph/rebase/store"
)

// Option configures the Rebase Forge extension.
type Option func(*Extension)

// WithStore sets the store for the ledger engine.
func WithStore(s store.Store) Option {
	return func(e *Extension) {
		e.store = s
	}
}

// WithBank sets the native bank backing the vault. A vault is constructed
// only when both a bank and a vault address are configured.
func WithBank(b native.Bank) Option {
	return func(e *Extension) {
		e.bank = b
	}
}

// WithLedgerOption passes a rebase.Option through to the underlying engine.
func WithLedgerOption(opt rebase.Option) Option {
	return func(e *Extension) {
		e.ledgerOpts = append(e.ledgerOpts, opt)
	}
}

// WithPlugin registers a rebase plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Extension) {
		e.ledgerOpts = append(e.ledgerOpts, rebase.WithPlugin(p))
	}
}

// WithConfig sets the Forge extension configuration.
func WithConfig(cfg Config) Option {
	return func(e *Extension) { e.config = cfg }
}

// WithDisableMigrate prevents auto-migration on start.
func WithDisableMigrate() Option {
	return func(e *Extension) { e.config.DisableMigrate = true }
}

// WithRequireConfig requires config to be present in YAML files.
// If true and no config is found, Register returns an error.
func WithRequireConfig(require bool) Option {
	return func(e *Extension) { e.config.RequireConfig = require }
}

// WithJournalBatchSize sets the number of journal entries to buffer before flushing.
func WithJournalBatchSize(size int) Option {
	return func(e *Extension) { e.config.JournalBatchSize = size }
}

// WithJournalFlushInterval sets how frequently the journal buffer is flushed.
func WithJournalFlushInterval(d time.Duration) Option {
	return func(e *Extension) { e.config.JournalFlushInterval = d }
}

// WithInitialRate sets the global interest rate seeded into an empty store,
// as a decimal string at 1e18 scale.
func WithInitialRate(rate string) Option {
	return func(e *Extension) { e.config.InitialRate = rate }
}

// WithOwner sets the address seeded as ledger owner into an empty store.
func WithOwner(owner string) Option {
	return func(e *Extension) { e.config.Owner = owner }
}

// WithVaultAddress sets the vault's own address.
func WithVaultAddress(addr string) Option {
	return func(e *Extension) { e.config.VaultAddress = addr }
}
