// Package audithook bridges Rebase lifecycle events to an audit trail backend.
//
// It defines a local Recorder interface so the package does not import
// Chronicle directly. Callers inject a RecorderFunc adapter that bridges
// to Chronicle at wiring time.
package audithook

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xraph/rebase/plugin"
	"github.com/xraph/rebase/types"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin                 = (*Extension)(nil)
	_ plugin.OnMint                 = (*Extension)(nil)
	_ plugin.OnBurn                 = (*Extension)(nil)
	_ plugin.OnTransfer             = (*Extension)(nil)
	_ plugin.OnRateChanged          = (*Extension)(nil)
	_ plugin.OnCapabilityGranted    = (*Extension)(nil)
	_ plugin.OnOwnershipTransferred = (*Extension)(nil)
	_ plugin.OnDeposit              = (*Extension)(nil)
	_ plugin.OnRedeemed             = (*Extension)(nil)
	_ plugin.OnReserveFunded        = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
// This matches chronicle.Emitter but is defined locally so that the
// audit_hook package does not import Chronicle directly; callers inject
// the concrete *chronicle.Chronicle at wiring time.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a local representation of an audit event.
// It mirrors chronicle/audit.Event but avoids a module dependency.
type AuditEvent struct {
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension bridges Rebase lifecycle events to an audit trail backend.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// ──────────────────────────────────────────────────
// Supply hooks
// ──────────────────────────────────────────────────

// OnMint implements plugin.OnMint.
func (e *Extension) OnMint(ctx context.Context, account types.Address, amount types.Amount, rate types.Rate) error {
	return e.record(ctx, ActionMinted, SeverityInfo, OutcomeSuccess,
		ResourceAccount, string(account), CategorySupply, nil,
		"account", string(account),
		"amount", amount.String(),
		"rate", rate.String(),
	)
}

// OnBurn implements plugin.OnBurn.
func (e *Extension) OnBurn(ctx context.Context, account types.Address, amount types.Amount) error {
	return e.record(ctx, ActionBurned, SeverityInfo, OutcomeSuccess,
		ResourceAccount, string(account), CategorySupply, nil,
		"account", string(account),
		"amount", amount.String(),
	)
}

// ──────────────────────────────────────────────────
// Transfer hooks
// ──────────────────────────────────────────────────

// OnTransfer implements plugin.OnTransfer.
func (e *Extension) OnTransfer(ctx context.Context, from, to types.Address, amount types.Amount) error {
	return e.record(ctx, ActionTransferred, SeverityInfo, OutcomeSuccess,
		ResourceAccount, string(from), CategoryTransfer, nil,
		"from", string(from),
		"to", string(to),
		"amount", amount.String(),
	)
}

// ──────────────────────────────────────────────────
// Administration hooks
// ──────────────────────────────────────────────────

// OnRateChanged implements plugin.OnRateChanged.
func (e *Extension) OnRateChanged(ctx context.Context, oldRate, newRate types.Rate) error {
	return e.record(ctx, ActionRateLowered, SeverityWarning, OutcomeSuccess,
		ResourceRate, "", CategoryAdministration, nil,
		"old_rate", oldRate.String(),
		"new_rate", newRate.String(),
	)
}

// OnCapabilityGranted implements plugin.OnCapabilityGranted.
func (e *Extension) OnCapabilityGranted(ctx context.Context, account types.Address) error {
	return e.record(ctx, ActionCapabilityGranted, SeverityWarning, OutcomeSuccess,
		ResourceLedger, string(account), CategoryAdministration, nil,
		"account", string(account),
	)
}

// OnOwnershipTransferred implements plugin.OnOwnershipTransferred.
func (e *Extension) OnOwnershipTransferred(ctx context.Context, oldOwner, newOwner types.Address) error {
	return e.record(ctx, ActionOwnershipTransferred, SeverityCritical, OutcomeSuccess,
		ResourceLedger, string(newOwner), CategoryAdministration, nil,
		"old_owner", string(oldOwner),
		"new_owner", string(newOwner),
	)
}

// ──────────────────────────────────────────────────
// Vault hooks
// ──────────────────────────────────────────────────

// OnDeposit implements plugin.OnDeposit.
func (e *Extension) OnDeposit(ctx context.Context, account types.Address, amount types.Amount) error {
	return e.record(ctx, ActionDeposited, SeverityInfo, OutcomeSuccess,
		ResourceVault, string(account), CategoryVault, nil,
		"account", string(account),
		"amount", amount.String(),
	)
}

// OnRedeemed implements plugin.OnRedeemed.
func (e *Extension) OnRedeemed(ctx context.Context, account types.Address, amount types.Amount) error {
	return e.record(ctx, ActionRedeemed, SeverityInfo, OutcomeSuccess,
		ResourceVault, string(account), CategoryVault, nil,
		"account", string(account),
		"amount", amount.String(),
	)
}

// OnReserveFunded implements plugin.OnReserveFunded.
func (e *Extension) OnReserveFunded(ctx context.Context, from types.Address, amount types.Amount) error {
	return e.record(ctx, ActionReserveFunded, SeverityInfo, OutcomeSuccess,
		ResourceVault, string(from), CategoryVault, nil,
		"from", string(from),
		"amount", amount.String(),
	)
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

// record builds and sends an audit event if the action is enabled.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
