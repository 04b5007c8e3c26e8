package postgres

import (
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/rebase/account"
	"github.com/xraph/rebase/id"
	"github.com/xraph/rebase/journal"
	"github.com/xraph/rebase/types"
)

// ==================== Account models ====================

// Amounts and rates are stored as decimal strings: they are 1e18-scale
// integers that do not fit in BIGINT, and TEXT round-trips them exactly.

type accountModel struct {
	grove.BaseModel `grove:"table:rebase_accounts"`

	Address    string    `grove:"address,pk"`
	Principal  string    `grove:"principal"`
	Rate       string    `grove:"rate"`
	LastUpdate time.Time `grove:"last_update"`
	CreatedAt  time.Time `grove:"created_at"`
	UpdatedAt  time.Time `grove:"updated_at"`
}

func toAccountModel(a *account.Account) *accountModel {
	return &accountModel{
		Address:    string(a.Address),
		Principal:  a.Principal.String(),
		Rate:       a.Rate.String(),
		LastUpdate: a.LastUpdate,
		CreatedAt:  a.CreatedAt,
		UpdatedAt:  a.UpdatedAt,
	}
}

func fromAccountModel(m *accountModel) (*account.Account, error) {
	principal, err := types.ParseAmount(m.Principal)
	if err != nil {
		return nil, err
	}
	rate, err := types.ParseRate(m.Rate)
	if err != nil {
		return nil, err
	}

	return &account.Account{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		Address:    types.Address(m.Address),
		Principal:  principal,
		Rate:       rate,
		LastUpdate: m.LastUpdate,
	}, nil
}

// ==================== State models ====================

// State keys in rebase_state.
const (
	stateKeyGlobalRate = "global_rate"
	stateKeyOwner      = "owner"
)

type stateModel struct {
	grove.BaseModel `grove:"table:rebase_state"`

	Key       string    `grove:"key,pk"`
	Value     string    `grove:"value"`
	UpdatedAt time.Time `grove:"updated_at"`
}

// ==================== Journal models ====================

type journalModel struct {
	grove.BaseModel `grove:"table:rebase_journal"`

	ID           string            `grove:"id,pk"`
	Kind         string            `grove:"kind"`
	Account      string            `grove:"account"`
	Counterparty string            `grove:"counterparty"`
	Amount       string            `grove:"amount"`
	Rate         string            `grove:"rate"`
	Timestamp    time.Time         `grove:"timestamp"`
	Metadata     map[string]string `grove:"metadata,type:jsonb"`
	CreatedAt    time.Time         `grove:"created_at"`
}

func toJournalModel(e *journal.Entry) *journalModel {
	return &journalModel{
		ID:           e.ID.String(),
		Kind:         string(e.Kind),
		Account:      string(e.Account),
		Counterparty: string(e.Counterparty),
		Amount:       e.Amount.String(),
		Rate:         e.Rate.String(),
		Timestamp:    e.Timestamp,
		Metadata:     e.Metadata,
		CreatedAt:    now(),
	}
}

func fromJournalModel(m *journalModel) (*journal.Entry, error) {
	entryID, err := id.ParseJournalEntryID(m.ID)
	if err != nil {
		return nil, err
	}
	amount, err := types.ParseAmount(m.Amount)
	if err != nil {
		return nil, err
	}
	rate, err := types.ParseRate(m.Rate)
	if err != nil {
		return nil, err
	}

	return &journal.Entry{
		ID:           entryID,
		Kind:         journal.Kind(m.Kind),
		Account:      types.Address(m.Account),
		Counterparty: types.Address(m.Counterparty),
		Amount:       amount,
		Rate:         rate,
		Timestamp:    m.Timestamp,
		Metadata:     m.Metadata,
	}, nil
}
