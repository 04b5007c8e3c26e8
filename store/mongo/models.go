package mongo

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
// integers beyond int64 range, and strings round-trip them exactly.

type accountModel struct {
	grove.BaseModel `grove:"table:rebase_accounts"`

	Address    string    `grove:"address,pk"  bson:"_id"`
	Principal  string    `grove:"principal"   bson:"principal"`
	Rate       string    `grove:"rate"        bson:"rate"`
	LastUpdate time.Time `grove:"last_update" bson:"last_update"`
	CreatedAt  time.Time `grove:"created_at"  bson:"created_at"`
	UpdatedAt  time.Time `grove:"updated_at"  bson:"updated_at"`
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

// State keys in the rebase_state collection.
const (
	stateKeyGlobalRate = "global_rate"
	stateKeyOwner      = "owner"
)

type stateModel struct {
	grove.BaseModel `grove:"table:rebase_state"`

	Key       string    `grove:"key,pk"     bson:"_id"`
	Value     string    `grove:"value"      bson:"value"`
	UpdatedAt time.Time `grove:"updated_at" bson:"updated_at"`
}

// ==================== Journal models ====================

type journalModel struct {
	grove.BaseModel `grove:"table:rebase_journal"`

	ID           string            `grove:"id,pk"        bson:"_id"`
	Kind         string            `grove:"kind"         bson:"kind"`
	Account      string            `grove:"account"      bson:"account"`
	Counterparty string            `grove:"counterparty" bson:"counterparty"`
	Amount       string            `grove:"amount"       bson:"amount"`
	Rate         string            `grove:"rate"         bson:"rate"`
	Timestamp    time.Time         `grove:"timestamp"    bson:"timestamp"`
	Metadata     map[string]string `grove:"metadata"     bson:"metadata,omitempty"`
	CreatedAt    time.Time         `grove:"created_at"   bson:"created_at"`
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
