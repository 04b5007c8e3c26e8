// Package extension provides the Forge extension adapter for Rebase.
//
// It implements the forge.Extension interface to integrate Rebase
// into a Forge application with automatic dependency discovery,
// DI registration, and lifecycle management.
//
// Configuration can be provided programmatically via Option functions
// or via YAML configuration files under "extensions.rebase" or "rebase" keys.
package extension

import (
	"context"
	"errors"
	"fmt"

	"github.com/xraph/forge"
	"github.com/xraph/vessel"

	"github.com/xraph/rebase"
	"github.com/xraph/rebase/native"
	"github.com/xraph/rebase/store"
	"github.com/xraph/rebase/store/memory"
	"github.com/xraph/rebase/types"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "rebase"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Interest-accruing rebase ledger and reserve vault"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts Rebase as a Forge extension.
type Extension struct {
	*forge.BaseExtension

	config     Config
	engine     *rebase.Ledger
	vault      *rebase.Vault
	store      store.Store
	bank       native.Bank
	ledgerOpts []rebase.Option
}

// New creates a new Rebase Forge extension with the given options.
func New(opts ...Option) *Extension {
	e := &Extension{
		BaseExtension: forge.NewBaseExtension(ExtensionName, ExtensionVersion, ExtensionDescription),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Engine returns the underlying Ledger instance.
// This is nil until Register is called.
func (e *Extension) Engine() *rebase.Ledger { return e.engine }

// Vault returns the vault instance, or nil when no bank and vault address
// were configured.
func (e *Extension) Vault() *rebase.Vault { return e.vault }

// Register implements [forge.Extension]. It loads configuration,
// initializes the ledger engine, and registers it in the DI container.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.BaseExtension.Register(fapp); err != nil {
		return err
	}

	if err := e.loadConfiguration(); err != nil {
		return err
	}

	// Use memory store if no store was provided programmatically.
	if e.store == nil {
		e.store = memory.New()
	}

	// Build ledger options from resolved config.
	opts, err := e.buildLedgerOpts()
	if err != nil {
		return err
	}

	eng := rebase.New(e.store, opts...)
	e.engine = eng

	if err := vessel.Provide(fapp.Container(), func() (*rebase.Ledger, error) {
		return e.engine, nil
	}); err != nil {
		return err
	}

	// A vault needs both a native bank and its own address.
	if e.bank != nil && e.config.VaultAddress != "" {
		e.vault = rebase.NewVault(e.engine, e.bank, types.Address(e.config.VaultAddress))

		return vessel.Provide(fapp.Container(), func() (*rebase.Vault, error) {
			return e.vault, nil
		})
	}

	return nil
}

// Start implements [forge.Extension].
func (e *Extension) Start(ctx context.Context) error {
	if e.engine == nil {
		return errors.New("rebase: extension not initialized")
	}

	if !e.config.DisableMigrate {
		if err := e.engine.Start(ctx); err != nil {
			return err
		}
	}

	e.MarkStarted()
	return nil
}

// Stop implements [forge.Extension].
func (e *Extension) Stop(_ context.Context) error {
	if e.engine != nil {
		if err := e.engine.Stop(); err != nil {
			e.MarkStopped()
			return err
		}
	}
	e.MarkStopped()
	return nil
}

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.store == nil {
		return errors.New("rebase: store not initialized")
	}
	return e.store.Ping(ctx)
}

// buildLedgerOpts constructs rebase.Option values from the resolved config.
func (e *Extension) buildLedgerOpts() ([]rebase.Option, error) {
	opts := make([]rebase.Option, 0, len(e.ledgerOpts)+3)

	// Apply config-derived options.
	if e.config.JournalBatchSize > 0 || e.config.JournalFlushInterval > 0 {
		batchSize := e.config.JournalBatchSize
		flushInterval := e.config.JournalFlushInterval
		defaults := DefaultConfig()
		if batchSize == 0 {
			batchSize = defaults.JournalBatchSize
		}
		if flushInterval == 0 {
			flushInterval = defaults.JournalFlushInterval
		}
		opts = append(opts, rebase.WithJournalConfig(batchSize, flushInterval))
	}

	if e.config.InitialRate != "" {
		rate, err := types.ParseRate(e.config.InitialRate)
		if err != nil {
			return nil, fmt.Errorf("rebase: invalid initial_rate %q: %w", e.config.InitialRate, err)
		}
		opts = append(opts, rebase.WithInitialRate(rate))
	}

	if e.config.Owner != "" {
		opts = append(opts, rebase.WithOwner(types.Address(e.config.Owner)))
	}

	// Append any pass-through ledger options.
	opts = append(opts, e.ledgerOpts...)

	return opts, nil
}

// --- Config Loading (mirrors grove/shield extension pattern) ---

// loadConfiguration loads config from YAML files or programmatic sources.
func (e *Extension) loadConfiguration() error {
	programmaticConfig := e.config

	// Try loading from config file.
	fileConfig, configLoaded := e.tryLoadFromConfigFile()

	if !configLoaded {
		if programmaticConfig.RequireConfig {
			return errors.New("rebase: configuration is required but not found in config files; " +
				"ensure 'extensions.rebase' or 'rebase' key exists in your config")
		}

		// Use programmatic config merged with defaults.
		e.config = e.mergeWithDefaults(programmaticConfig)
	} else {
		// Config loaded from YAML -- merge with programmatic options.
		e.config = e.mergeConfigurations(fileConfig, programmaticConfig)
	}

	e.Logger().Debug("rebase: configuration loaded",
		forge.F("disable_migrate", e.config.DisableMigrate),
		forge.F("journal_batch_size", e.config.JournalBatchSize),
		forge.F("journal_flush_interval", e.config.JournalFlushInterval),
		forge.F("initial_rate", e.config.InitialRate),
		forge.F("owner", e.config.Owner),
		forge.F("vault_address", e.config.VaultAddress),
	)

	return nil
}

// tryLoadFromConfigFile attempts to load config from YAML files.
func (e *Extension) tryLoadFromConfigFile() (Config, bool) {
	cm := e.App().Config()
	var cfg Config

	// Try "extensions.rebase" first (namespaced pattern).
	if cm.IsSet("extensions.rebase") {
		if err := cm.Bind("extensions.rebase", &cfg); err == nil {
			e.Logger().Debug("rebase: loaded config from file",
				forge.F("key", "extensions.rebase"),
			)
			return cfg, true
		}
		e.Logger().Warn("rebase: failed to bind extensions.rebase config",
			forge.F("error", "bind failed"),
		)
	}

	// Try legacy "rebase" key.
	if cm.IsSet("rebase") {
		if err := cm.Bind("rebase", &cfg); err == nil {
			e.Logger().Debug("rebase: loaded config from file",
				forge.F("key", "rebase"),
			)
			return cfg, true
		}
		e.Logger().Warn("rebase: failed to bind rebase config",
			forge.F("error", "bind failed"),
		)
	}

	return Config{}, false
}

// mergeWithDefaults fills zero-valued fields with defaults.
func (e *Extension) mergeWithDefaults(cfg Config) Config {
	defaults := DefaultConfig()
	if cfg.JournalBatchSize == 0 {
		cfg.JournalBatchSize = defaults.JournalBatchSize
	}
	if cfg.JournalFlushInterval == 0 {
		cfg.JournalFlushInterval = defaults.JournalFlushInterval
	}
	return cfg
}

// mergeConfigurations merges YAML config with programmatic options.
// YAML config takes precedence for most fields; programmatic bool flags fill gaps.
func (e *Extension) mergeConfigurations(yamlConfig, programmaticConfig Config) Config {
	// Programmatic bool flags override when true.
	if programmaticConfig.DisableMigrate {
		yamlConfig.DisableMigrate = true
	}

	// String fields: YAML takes precedence.
	if yamlConfig.InitialRate == "" && programmaticConfig.InitialRate != "" {
		yamlConfig.InitialRate = programmaticConfig.InitialRate
	}
	if yamlConfig.Owner == "" && programmaticConfig.Owner != "" {
		yamlConfig.Owner = programmaticConfig.Owner
	}
	if yamlConfig.VaultAddress == "" && programmaticConfig.VaultAddress != "" {
		yamlConfig.VaultAddress = programmaticConfig.VaultAddress
	}

	// Duration/int fields: YAML takes precedence, programmatic fills gaps.
	if yamlConfig.JournalBatchSize == 0 && programmaticConfig.JournalBatchSize != 0 {
		yamlConfig.JournalBatchSize = programmaticConfig.JournalBatchSize
	}
	if yamlConfig.JournalFlushInterval == 0 && programmaticConfig.JournalFlushInterval != 0 {
		yamlConfig.JournalFlushInterval = programmaticConfig.JournalFlushInterval
	}

	// Fill remaining zeros with defaults.
	return e.mergeWithDefaults(yamlConfig)
}
