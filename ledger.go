package rebase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/xraph/rebase/account"
	"github.com/xraph/rebase/capability"
	"github.com/xraph/rebase/id"
	"github.com/xraph/rebase/journal"
	"github.com/xraph/rebase/plugin"
	"github.com/xraph/rebase/store"
	"github.com/xraph/rebase/types"
)

// Ledger is the interest-accruing balance ledger engine.
//
// Every account's redeemable balance grows linearly at the rate snapshotted
// when the account was last funded from empty; a single global rate, which
// can only ever be lowered, applies to new deposits. All mutating
// operations settle accrued interest into principal before acting, so
// balance and principal agree immediately after any mutation.
//
// Mutating operations are serialized by an engine mutex and persist their
// state only after every check has passed: a failed call leaves all ledger
// state unchanged.
type Ledger struct {
	store    store.Store
	auth     capability.Authorizer
	approver capability.Approver
	plugins  *plugin.Registry
	logger   *slog.Logger
	now      func() time.Time

	// mu serializes mutating operations into a single global order.
	mu sync.Mutex

	// Background journal writer
	journalBuffer chan *journal.Entry
	stopChan      chan struct{}
	wg            sync.WaitGroup

	// Configuration
	journalBatchSize     int
	journalFlushInterval time.Duration
	initialRate          types.Rate
	initialOwner         types.Address
}

// New creates a new Ledger instance.
func New(s store.Store, opts ...Option) *Ledger {
	l := &Ledger{
		store:                s,
		auth:                 capability.NewSet(),
		approver:             capability.NewBook(),
		plugins:              plugin.NewRegistry(),
		logger:               slog.Default(),
		now:                  time.Now,
		journalBuffer:        make(chan *journal.Entry, 10000),
		stopChan:             make(chan struct{}),
		journalBatchSize:     100,
		journalFlushInterval: 5 * time.Second,
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Option configures a Ledger instance.
type Option func(*Ledger)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) {
		l.logger = logger
		l.plugins.WithLogger(logger)
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(l *Ledger) {
		_ = l.plugins.Register(p) //nolint:errcheck // best-effort plugin registration during init
	}
}

// WithAuthorizer sets the capability-check collaborator gating mint/burn.
// Defaults to an empty in-memory capability set.
func WithAuthorizer(a capability.Authorizer) Option {
	return func(l *Ledger) {
		l.auth = a
	}
}

// WithApprover sets the allowance collaborator behind TransferFrom.
// Defaults to an empty in-memory allowance book.
func WithApprover(a capability.Approver) Option {
	return func(l *Ledger) {
		l.approver = a
	}
}

// WithClock sets the time source used for accrual. Defaults to time.Now.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		l.now = now
	}
}

// WithJournalConfig configures journal batching parameters.
func WithJournalConfig(batchSize int, flushInterval time.Duration) Option {
	return func(l *Ledger) {
		l.journalBatchSize = batchSize
		l.journalFlushInterval = flushInterval
	}
}

// WithInitialRate sets the global interest rate seeded into an empty store
// on Start. An already-seeded store keeps its persisted rate, since
// re-seeding could raise it.
func WithInitialRate(rate types.Rate) Option {
	return func(l *Ledger) {
		l.initialRate = rate
	}
}

// WithOwner sets the owner seeded into an empty store on Start. The owner
// is the only identity allowed to lower the global rate, grant the
// mint/burn capability, and transfer ownership.
func WithOwner(owner types.Address) Option {
	return func(l *Ledger) {
		l.initialOwner = owner
	}
}

// Start migrates the store, seeds initial state, and begins background
// workers.
func (l *Ledger) Start(ctx context.Context) error {
	if err := l.store.Migrate(ctx); err != nil {
		return err
	}

	if err := l.seedState(ctx); err != nil {
		return err
	}

	l.plugins.EmitInit(ctx, l)

	l.wg.Add(1)
	go l.journalFlushWorker(ctx)

	l.logger.Info("ledger started",
		"journal_batch_size", l.journalBatchSize,
		"journal_flush_interval", l.journalFlushInterval,
	)

	return nil
}

// seedState writes the initial global rate and owner into an empty store.
func (l *Ledger) seedState(ctx context.Context) error {
	if _, err := l.store.GetGlobalRate(ctx); errors.Is(err, ErrStateNotFound) {
		if err := l.store.SetGlobalRate(ctx, l.initialRate); err != nil {
			return err
		}
	} else if err != nil {
		return err
	}

	if _, err := l.store.GetOwner(ctx); errors.Is(err, ErrStateNotFound) {
		if err := l.store.SetOwner(ctx, l.initialOwner); err != nil {
			return err
		}
	} else if err != nil {
		return err
	}

	return nil
}

// Stop shuts down the Ledger, flushing any buffered journal entries.
func (l *Ledger) Stop() error {
	close(l.stopChan)
	l.wg.Wait()

	ctx := context.Background()
	l.plugins.EmitShutdown(ctx)

	return l.store.Close()
}

// ──────────────────────────────────────────────────
// Queries
// ──────────────────────────────────────────────────

// BalanceOf returns the redeemable balance of addr: principal plus interest
// accrued since the last settlement. Unknown addresses have a zero balance.
func (l *Ledger) BalanceOf(ctx context.Context, addr types.Address) (types.Amount, error) {
	acct, err := l.store.GetAccount(ctx, addr)
	if errors.Is(err, ErrAccountNotFound) {
		return types.ZeroAmount(), nil
	}
	if err != nil {
		return types.ZeroAmount(), err
	}
	return acct.Balance(l.now()), nil
}

// PrincipalBalanceOf returns the principal of addr, excluding interest
// accrued since the last settlement. It lags BalanceOf until the next
// mutating operation settles the account.
func (l *Ledger) PrincipalBalanceOf(ctx context.Context, addr types.Address) (types.Amount, error) {
	acct, err := l.store.GetAccount(ctx, addr)
	if errors.Is(err, ErrAccountNotFound) {
		return types.ZeroAmount(), nil
	}
	if err != nil {
		return types.ZeroAmount(), err
	}
	return acct.Principal, nil
}

// UserInterestRate returns the per-account rate snapshot for addr, or the
// zero rate for unknown addresses.
func (l *Ledger) UserInterestRate(ctx context.Context, addr types.Address) (types.Rate, error) {
	acct, err := l.store.GetAccount(ctx, addr)
	if errors.Is(err, ErrAccountNotFound) {
		return types.ZeroRate(), nil
	}
	if err != nil {
		return types.ZeroRate(), err
	}
	return acct.Rate, nil
}

// GlobalInterestRate returns the rate assigned to new deposits.
func (l *Ledger) GlobalInterestRate(ctx context.Context) (types.Rate, error) {
	return l.store.GetGlobalRate(ctx)
}

// Owner returns the current ledger owner.
func (l *Ledger) Owner(ctx context.Context) (types.Address, error) {
	return l.store.GetOwner(ctx)
}

// Journal returns journal entries matching opts, newest first. Entries are
// written asynchronously; recent operations may not be visible until the
// next flush.
func (l *Ledger) Journal(ctx context.Context, opts journal.QueryOpts) ([]*journal.Entry, error) {
	return l.store.QueryJournal(ctx, opts)
}

// ──────────────────────────────────────────────────
// Mint / Burn
// ──────────────────────────────────────────────────

// Mint settles addr, snapshots its rate to rate, and credits amount of
// principal. The caller must hold the mint/burn capability.
//
// The rate is supplied by the caller rather than read internally so that a
// privileged caller can preserve an existing rate across internal
// operations; ordinary deposits pass the current global rate.
func (l *Ledger) Mint(ctx context.Context, caller, addr types.Address, amount types.Amount, rate types.Rate) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.requireCapability(ctx, caller); err != nil {
		return err
	}

	now := l.now()
	acct, err := l.loadOrCreate(ctx, addr, now)
	if err != nil {
		return err
	}

	acct.Settle(now)
	acct.Rate = rate
	acct.Principal = acct.Principal.Add(amount)

	if err := l.store.PutAccounts(ctx, acct); err != nil {
		return err
	}

	l.record(&journal.Entry{
		ID:        id.NewJournalEntryID(),
		Kind:      journal.KindMint,
		Account:   addr,
		Amount:    amount,
		Rate:      rate,
		Timestamp: now,
	})
	l.plugins.EmitMint(ctx, addr, amount, rate)

	l.logger.Debug("minted",
		"account", addr,
		"amount", amount,
		"rate", rate,
	)

	return nil
}

// Burn settles addr and debits the requested principal, returning the
// amount burned. A spec of All burns the full settled balance. The caller
// must hold the mint/burn capability.
func (l *Ledger) Burn(ctx context.Context, caller, addr types.Address, spec types.AmountSpec) (types.Amount, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.requireCapability(ctx, caller); err != nil {
		return types.ZeroAmount(), err
	}

	now := l.now()
	acct, err := l.loadOrCreate(ctx, addr, now)
	if err != nil {
		return types.ZeroAmount(), err
	}

	acct.Settle(now)
	amount := spec.Resolve(acct.Principal)
	if acct.Principal.LessThan(amount) {
		return types.ZeroAmount(), &BalanceError{
			Address:   addr,
			Requested: amount,
			Available: acct.Principal,
		}
	}
	acct.Principal = acct.Principal.Sub(amount)

	if err := l.store.PutAccounts(ctx, acct); err != nil {
		return types.ZeroAmount(), err
	}

	l.record(&journal.Entry{
		ID:        id.NewJournalEntryID(),
		Kind:      journal.KindBurn,
		Account:   addr,
		Amount:    amount,
		Timestamp: now,
	})
	l.plugins.EmitBurn(ctx, addr, amount)

	l.logger.Debug("burned",
		"account", addr,
		"amount", amount,
	)

	return amount, nil
}

// ──────────────────────────────────────────────────
// Transfers
// ──────────────────────────────────────────────────

// Transfer settles both accounts and moves the requested principal from
// the sender to the recipient. A spec of All moves the sender's full
// settled balance. A recipient whose settled balance is zero inherits the
// current global rate; a funded recipient keeps its existing rate, so a
// high legacy rate cannot be preserved by topping up an already-funded
// account.
func (l *Ledger) Transfer(ctx context.Context, from, to types.Address, spec types.AmountSpec) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	_, err := l.transfer(ctx, from, to, spec, nil)
	return err
}

// TransferFrom is Transfer on behalf of another account, gated by the
// allowance collaborator: the spender's allowance over the sender's
// balance must cover the resolved amount and is reduced by it.
func (l *Ledger) TransferFrom(ctx context.Context, spender, from, to types.Address, spec types.AmountSpec) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	amount, err := l.transfer(ctx, from, to, spec, func(resolved types.Amount) error {
		allowance, err := l.approver.Allowance(ctx, from, spender)
		if err != nil {
			return err
		}
		if allowance.LessThan(resolved) {
			return fmt.Errorf("%w: spender %s, requested %s, allowance %s",
				ErrInsufficientAllowance, spender, resolved, allowance)
		}
		return nil
	})
	if err != nil {
		return err
	}

	// The allowance was checked against the resolved amount above, so the
	// spend cannot fail under this engine's serialization.
	return l.approver.Spend(ctx, from, spender, amount)
}

// transfer implements the shared transfer path. preApply, when non-nil,
// runs after the amount is resolved and before any state is persisted.
func (l *Ledger) transfer(ctx context.Context, from, to types.Address, spec types.AmountSpec, preApply func(types.Amount) error) (types.Amount, error) {
	now := l.now()

	sender, err := l.loadOrCreate(ctx, from, now)
	if err != nil {
		return types.ZeroAmount(), err
	}
	sender.Settle(now)

	amount := spec.Resolve(sender.Principal)
	if sender.Principal.LessThan(amount) {
		return types.ZeroAmount(), &BalanceError{
			Address:   from,
			Requested: amount,
			Available: sender.Principal,
		}
	}

	if preApply != nil {
		if err := preApply(amount); err != nil {
			return types.ZeroAmount(), err
		}
	}

	if from == to {
		// Self-transfer settles the account and moves nothing.
		if err := l.store.PutAccounts(ctx, sender); err != nil {
			return types.ZeroAmount(), err
		}
		return amount, nil
	}

	recipient, err := l.loadOrCreate(ctx, to, now)
	if err != nil {
		return types.ZeroAmount(), err
	}
	recipient.Settle(now)

	// Rate inheritance: only a genuinely empty recipient picks up the
	// current global rate.
	if recipient.Principal.IsZero() {
		globalRate, err := l.store.GetGlobalRate(ctx)
		if err != nil {
			return types.ZeroAmount(), err
		}
		recipient.Rate = globalRate
	}

	sender.Principal = sender.Principal.Sub(amount)
	recipient.Principal = recipient.Principal.Add(amount)

	if err := l.store.PutAccounts(ctx, sender, recipient); err != nil {
		return types.ZeroAmount(), err
	}

	l.record(&journal.Entry{
		ID:           id.NewJournalEntryID(),
		Kind:         journal.KindTransfer,
		Account:      from,
		Counterparty: to,
		Amount:       amount,
		Timestamp:    now,
	})
	l.plugins.EmitTransfer(ctx, from, to, amount)

	l.logger.Debug("transferred",
		"from", from,
		"to", to,
		"amount", amount,
	)

	return amount, nil
}

// ──────────────────────────────────────────────────
// Administration
// ──────────────────────────────────────────────────

// SetGlobalInterestRate lowers the rate assigned to new deposits. Only the
// owner may call it, and the new rate must be strictly below the current
// one, so setting an equal rate is rejected.
func (l *Ledger) SetGlobalInterestRate(ctx context.Context, caller types.Address, rate types.Rate) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.requireOwner(ctx, caller); err != nil {
		return err
	}

	current, err := l.store.GetGlobalRate(ctx)
	if err != nil {
		return err
	}
	if !rate.LessThan(current) {
		return &RateError{Current: current, Proposed: rate}
	}

	if err := l.store.SetGlobalRate(ctx, rate); err != nil {
		return err
	}

	l.record(&journal.Entry{
		ID:        id.NewJournalEntryID(),
		Kind:      journal.KindRateChange,
		Account:   caller,
		Rate:      rate,
		Timestamp: l.now(),
	})
	l.plugins.EmitRateChanged(ctx, current, rate)

	l.logger.Info("global interest rate lowered",
		"old_rate", current,
		"new_rate", rate,
	)

	return nil
}

// GrantMintAndBurn grants addr the mint/burn capability. Owner only.
func (l *Ledger) GrantMintAndBurn(ctx context.Context, caller, addr types.Address) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.requireOwner(ctx, caller); err != nil {
		return err
	}

	if err := l.auth.Grant(ctx, addr, capability.MintAndBurn); err != nil {
		return err
	}

	l.plugins.EmitCapabilityGranted(ctx, addr)

	l.logger.Info("mint/burn capability granted",
		"account", addr,
	)

	return nil
}

// TransferOwnership hands the owner role to newOwner. Owner only.
func (l *Ledger) TransferOwnership(ctx context.Context, caller, newOwner types.Address) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.requireOwner(ctx, caller); err != nil {
		return err
	}

	if err := l.store.SetOwner(ctx, newOwner); err != nil {
		return err
	}

	l.record(&journal.Entry{
		ID:           id.NewJournalEntryID(),
		Kind:         journal.KindOwnership,
		Account:      caller,
		Counterparty: newOwner,
		Timestamp:    l.now(),
	})
	l.plugins.EmitOwnershipTransferred(ctx, caller, newOwner)

	l.logger.Info("ownership transferred",
		"old_owner", caller,
		"new_owner", newOwner,
	)

	return nil
}

// ──────────────────────────────────────────────────
// Journal writer
// ──────────────────────────────────────────────────

// record buffers a journal entry for asynchronous persistence. Account
// state is authoritative; if the buffer is full the entry is dropped with
// a warning rather than failing the operation.
func (l *Ledger) record(entry *journal.Entry) {
	select {
	case l.journalBuffer <- entry:
	default:
		l.logger.Warn("journal buffer full, dropping entry",
			"kind", entry.Kind,
			"account", entry.Account,
		)
	}
}

func (l *Ledger) journalFlushWorker(ctx context.Context) {
	defer l.wg.Done()

	batch := make([]*journal.Entry, 0, l.journalBatchSize)
	ticker := time.NewTicker(l.journalFlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-l.stopChan:
			// Drain the buffer, then final flush.
			for {
				select {
				case entry := <-l.journalBuffer:
					batch = append(batch, entry)
					continue
				default:
				}
				break
			}
			if len(batch) > 0 {
				l.flushJournalBatch(ctx, batch)
			}
			return

		case entry := <-l.journalBuffer:
			batch = append(batch, entry)
			if len(batch) >= l.journalBatchSize {
				l.flushJournalBatch(ctx, batch)
				batch = make([]*journal.Entry, 0, l.journalBatchSize)
			}

		case <-ticker.C:
			if len(batch) > 0 {
				l.flushJournalBatch(ctx, batch)
				batch = make([]*journal.Entry, 0, l.journalBatchSize)
			}
		}
	}
}

func (l *Ledger) flushJournalBatch(ctx context.Context, batch []*journal.Entry) {
	start := time.Now()

	if err := l.store.AppendJournal(ctx, batch); err != nil {
		l.logger.Error("failed to flush journal batch",
			"error", err,
			"batch_size", len(batch),
		)
		return
	}

	elapsed := time.Since(start)
	l.plugins.EmitJournalFlushed(ctx, len(batch), elapsed)

	l.logger.Debug("flushed journal batch",
		"batch_size", len(batch),
		"elapsed_ms", elapsed.Milliseconds(),
	)
}

// ──────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────

func (l *Ledger) requireCapability(ctx context.Context, caller types.Address) error {
	ok, err := l.auth.Has(ctx, caller, capability.MintAndBurn)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnauthorized, caller)
	}
	return nil
}

func (l *Ledger) requireOwner(ctx context.Context, caller types.Address) error {
	owner, err := l.store.GetOwner(ctx)
	if err != nil {
		return err
	}
	if caller != owner || caller.IsZero() {
		return fmt.Errorf("%w: %s", ErrNotOwner, caller)
	}
	return nil
}

func (l *Ledger) loadOrCreate(ctx context.Context, addr types.Address, now time.Time) (*account.Account, error) {
	acct, err := l.store.GetAccount(ctx, addr)
	if errors.Is(err, ErrAccountNotFound) {
		return account.New(addr, now), nil
	}
	if err != nil {
		return nil, err
	}
	return acct, nil
}
