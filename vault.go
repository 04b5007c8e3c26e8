package rebase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/xraph/rebase/id"
	"github.com/xraph/rebase/journal"
	"github.com/xraph/rebase/native"
	"github.com/xraph/rebase/types"
)

// Vault exchanges native value for ledger credits one to one. A deposit
// pulls native value into the vault's reserve and mints the same amount of
// credits at the current global rate; a redemption burns credits and pays
// the burned amount back out of the reserve. Anyone can also top up the
// reserve without receiving credits, which backs the interest the ledger
// accrues.
//
// The vault's address must hold the ledger's mint/burn capability; grant
// it with Ledger.GrantMintAndBurn at wiring time.
type Vault struct {
	ledger *Ledger
	bank   native.Bank
	addr   types.Address
	logger *slog.Logger

	// mu serializes deposits and redemptions so the bank leg and the
	// ledger leg of each exchange happen as a unit.
	mu sync.Mutex
}

// NewVault creates a vault over the given ledger and native bank. addr is
// the vault's own address in both systems.
func NewVault(ledger *Ledger, bank native.Bank, addr types.Address) *Vault {
	return &Vault{
		ledger: ledger,
		bank:   bank,
		addr:   addr,
		logger: ledger.logger,
	}
}

// Address returns the vault's own address.
func (v *Vault) Address() types.Address {
	return v.addr
}

// Ledger returns the underlying ledger engine.
func (v *Vault) Ledger() *Ledger {
	return v.ledger
}

// Reserve returns the vault's native balance backing outstanding credits.
func (v *Vault) Reserve(ctx context.Context) (types.Amount, error) {
	return v.bank.BalanceOf(ctx, v.addr)
}

// Deposit pulls amount of native value from the depositor into the reserve
// and mints the same amount of credits to them at the current global rate.
// If the mint fails the native value is returned, so a failed deposit
// leaves both systems unchanged.
func (v *Vault) Deposit(ctx context.Context, from types.Address, amount types.Amount) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if amount.IsZero() {
		return fmt.Errorf("%w: deposit amount must be positive", ErrInvalidAmount)
	}

	if err := v.bank.Transfer(ctx, from, v.addr, amount); err != nil {
		return fmt.Errorf("%w: %w", ErrDepositFailed, err)
	}

	rate, err := v.ledger.GlobalInterestRate(ctx)
	if err != nil {
		v.refund(ctx, from, amount)
		return fmt.Errorf("%w: %w", ErrDepositFailed, err)
	}

	if err := v.ledger.Mint(ctx, v.addr, from, amount, rate); err != nil {
		v.refund(ctx, from, amount)
		return fmt.Errorf("%w: %w", ErrDepositFailed, err)
	}

	v.ledger.record(&journal.Entry{
		ID:           id.NewJournalEntryID(),
		Kind:         journal.KindDeposit,
		Account:      from,
		Counterparty: v.addr,
		Amount:       amount,
		Rate:         rate,
		Timestamp:    v.ledger.now(),
	})
	v.ledger.plugins.EmitDeposit(ctx, from, amount)

	v.logger.Debug("deposit completed",
		"account", from,
		"amount", amount,
		"rate", rate,
	)

	return nil
}

// Redeem burns the requested credits from the redeemer and pays the burned
// amount of native value out of the reserve. A spec of All redeems the
// full settled balance, interest included. It returns the amount paid out.
//
// If the payout fails after the burn, the burned credits are re-minted at
// the account's previous rate and the error wraps ErrPayoutFailed, so a
// failed redemption leaves the redeemer whole.
func (v *Vault) Redeem(ctx context.Context, addr types.Address, spec types.AmountSpec) (types.Amount, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	// Snapshot the rate before the burn: burning to zero would otherwise
	// lose it, and a compensating mint must restore it exactly.
	prevRate, err := v.ledger.UserInterestRate(ctx, addr)
	if err != nil {
		return types.ZeroAmount(), err
	}

	burned, err := v.ledger.Burn(ctx, v.addr, addr, spec)
	if err != nil {
		return types.ZeroAmount(), err
	}

	if err := v.bank.Transfer(ctx, v.addr, addr, burned); err != nil {
		if mintErr := v.ledger.Mint(ctx, v.addr, addr, burned, prevRate); mintErr != nil {
			v.logger.Error("failed to restore credits after payout failure",
				"account", addr,
				"amount", burned,
				"error", mintErr,
			)
			return types.ZeroAmount(), fmt.Errorf("%w: %w (restore failed: %w)", ErrPayoutFailed, err, mintErr)
		}
		return types.ZeroAmount(), fmt.Errorf("%w: %w", ErrPayoutFailed, err)
	}

	v.ledger.record(&journal.Entry{
		ID:           id.NewJournalEntryID(),
		Kind:         journal.KindRedeem,
		Account:      addr,
		Counterparty: v.addr,
		Amount:       burned,
		Timestamp:    v.ledger.now(),
	})
	v.ledger.plugins.EmitRedeemed(ctx, addr, burned)

	v.logger.Debug("redemption completed",
		"account", addr,
		"amount", burned,
	)

	return burned, nil
}

// Fund moves amount of native value from the funder into the reserve
// without minting credits. Top-ups back the interest the ledger accrues
// beyond deposited principal.
func (v *Vault) Fund(ctx context.Context, from types.Address, amount types.Amount) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if amount.IsZero() {
		return fmt.Errorf("%w: funding amount must be positive", ErrInvalidAmount)
	}

	if err := v.bank.Transfer(ctx, from, v.addr, amount); err != nil {
		return err
	}

	v.ledger.plugins.EmitReserveFunded(ctx, from, amount)

	v.logger.Debug("reserve funded",
		"from", from,
		"amount", amount,
	)

	return nil
}

// refund best-effort returns native value after a failed deposit leg.
func (v *Vault) refund(ctx context.Context, to types.Address, amount types.Amount) {
	if err := v.bank.Transfer(ctx, v.addr, to, amount); err != nil {
		v.logger.Error("failed to refund deposit",
			"account", to,
			"amount", amount,
			"error", err,
		)
	}
}
