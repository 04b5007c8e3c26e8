package extension

import "time"

// Config holds the Rebase extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.rebase" or "rebase" keys).
type Config struct {
	// DisableMigrate prevents auto-migration on start.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// JournalBatchSize is the number of journal entries to buffer before
	// flushing to the store (default: 100).
	JournalBatchSize int `json:"journal_batch_size" mapstructure:"journal_batch_size" yaml:"journal_batch_size"`

	// JournalFlushInterval is how frequently the journal buffer is flushed
	// even if the batch size has not been reached (default: 5s).
	JournalFlushInterval time.Duration `json:"journal_flush_interval" mapstructure:"journal_flush_interval" yaml:"journal_flush_interval"`

	// InitialRate is the global interest rate seeded into an empty store,
	// as a decimal string at 1e18 scale (e.g. "50000000000").
	InitialRate string `json:"initial_rate" mapstructure:"initial_rate" yaml:"initial_rate"`

	// Owner is the address seeded as ledger owner into an empty store.
	Owner string `json:"owner" mapstructure:"owner" yaml:"owner"`

	// VaultAddress is the vault's own address. When set together with a
	// bank (see WithBank), the extension constructs and provides a Vault.
	VaultAddress string `json:"vault_address" mapstructure:"vault_address" yaml:"vault_address"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		JournalBatchSize:     100,
		JournalFlushInterval: 5 * time.Second,
	}
}
