// Package observability provides a metrics extension for Rebase that records
// ledger and vault event counts via a MetricFactory.
package observability

import (
	"context"
	"time"

	"github.com/xraph/rebase/plugin"
	"github.com/xraph/rebase/types"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin                 = (*MetricsExtension)(nil)
	_ plugin.OnInit                 = (*MetricsExtension)(nil)
	_ plugin.OnMint                 = (*MetricsExtension)(nil)
	_ plugin.OnBurn                 = (*MetricsExtension)(nil)
	_ plugin.OnTransfer             = (*MetricsExtension)(nil)
	_ plugin.OnRateChanged          = (*MetricsExtension)(nil)
	_ plugin.OnCapabilityGranted    = (*MetricsExtension)(nil)
	_ plugin.OnOwnershipTransferred = (*MetricsExtension)(nil)
	_ plugin.OnDeposit              = (*MetricsExtension)(nil)
	_ plugin.OnRedeemed             = (*MetricsExtension)(nil)
	_ plugin.OnReserveFunded        = (*MetricsExtension)(nil)
	_ plugin.OnJournalFlushed       = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records system-wide ledger metrics.
// Register it as a Rebase plugin to automatically track ledger activity.
type MetricsExtension struct {
	factory MetricFactory

	// Supply metrics
	Mints Counter
	Burns Counter

	// Transfer metrics
	Transfers Counter

	// Administration metrics
	RateChanges        Counter
	CapabilityGrants   Counter
	OwnershipTransfers Counter

	// Vault metrics
	Deposits      Counter
	Redemptions   Counter
	ReserveTopUps Counter

	// Journal metrics
	JournalBatchSize    Histogram
	JournalFlushLatency Histogram

	// Error metrics
	StoreErrors  Counter
	PluginErrors Counter
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
// Use app.Metrics() in forge extensions.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		factory: factory,

		// Supply metrics
		Mints: factory.Counter("rebase.mint.count"),
		Burns: factory.Counter("rebase.burn.count"),

		// Transfer metrics
		Transfers: factory.Counter("rebase.transfer.count"),

		// Administration metrics
		RateChanges:        factory.Counter("rebase.rate.changes"),
		CapabilityGrants:   factory.Counter("rebase.capability.grants"),
		OwnershipTransfers: factory.Counter("rebase.ownership.transfers"),

		// Vault metrics
		Deposits:      factory.Counter("rebase.vault.deposits"),
		Redemptions:   factory.Counter("rebase.vault.redemptions"),
		ReserveTopUps: factory.Counter("rebase.vault.reserve.topups"),

		// Journal metrics
		JournalBatchSize:    factory.Histogram("rebase.journal.batch.size"),
		JournalFlushLatency: factory.Histogram("rebase.journal.flush.latency_ms"),

		// Error metrics
		StoreErrors:  factory.Counter("rebase.store.errors"),
		PluginErrors: factory.Counter("rebase.plugin.errors"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnInit implements plugin.OnInit.
func (m *MetricsExtension) OnInit(_ context.Context, _ interface{}) error {
	// No initialization needed
	return nil
}

// ──────────────────────────────────────────────────
// Supply hooks
// ──────────────────────────────────────────────────

// OnMint implements plugin.OnMint.
func (m *MetricsExtension) OnMint(_ context.Context, _ types.Address, _ types.Amount, _ types.Rate) error {
	m.Mints.Inc()
	return nil
}

// OnBurn implements plugin.OnBurn.
func (m *MetricsExtension) OnBurn(_ context.Context, _ types.Address, _ types.Amount) error {
	m.Burns.Inc()
	return nil
}

// OnTransfer implements plugin.OnTransfer.
func (m *MetricsExtension) OnTransfer(_ context.Context, _, _ types.Address, _ types.Amount) error {
	m.Transfers.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Administration hooks
// ──────────────────────────────────────────────────

// OnRateChanged implements plugin.OnRateChanged.
func (m *MetricsExtension) OnRateChanged(_ context.Context, _, _ types.Rate) error {
	m.RateChanges.Inc()
	return nil
}

// OnCapabilityGranted implements plugin.OnCapabilityGranted.
func (m *MetricsExtension) OnCapabilityGranted(_ context.Context, _ types.Address) error {
	m.CapabilityGrants.Inc()
	return nil
}

// OnOwnershipTransferred implements plugin.OnOwnershipTransferred.
func (m *MetricsExtension) OnOwnershipTransferred(_ context.Context, _, _ types.Address) error {
	m.OwnershipTransfers.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Vault hooks
// ──────────────────────────────────────────────────

// OnDeposit implements plugin.OnDeposit.
func (m *MetricsExtension) OnDeposit(_ context.Context, _ types.Address, _ types.Amount) error {
	m.Deposits.Inc()
	return nil
}

// OnRedeemed implements plugin.OnRedeemed.
func (m *MetricsExtension) OnRedeemed(_ context.Context, _ types.Address, _ types.Amount) error {
	m.Redemptions.Inc()
	return nil
}

// OnReserveFunded implements plugin.OnReserveFunded.
func (m *MetricsExtension) OnReserveFunded(_ context.Context, _ types.Address, _ types.Amount) error {
	m.ReserveTopUps.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Journal hooks
// ──────────────────────────────────────────────────

// OnJournalFlushed implements plugin.OnJournalFlushed.
func (m *MetricsExtension) OnJournalFlushed(_ context.Context, count int, elapsed time.Duration) error {
	m.JournalBatchSize.Observe(float64(count))
	m.JournalFlushLatency.Observe(float64(elapsed.Milliseconds()))
	return nil
}
