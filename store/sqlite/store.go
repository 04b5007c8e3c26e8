// Package sqlite implements the Rebase store on SQLite via Grove ORM.
// Suited to embedded and single-node deployments.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/sqlitedriver"
	"github.com/xraph/grove/migrate"

	"github.com/xraph/rebase"
	"github.com/xraph/rebase/account"
	"github.com/xraph/rebase/id"
	"github.com/xraph/rebase/journal"
	rebasestore "github.com/xraph/rebase/store"
	"github.com/xraph/rebase/types"
)

// compile-time interface check
var _ rebasestore.Store = (*Store)(nil)

// Store implements store.Store using SQLite via Grove ORM.
type Store struct {
	db  *grove.DB
	sdb *sqlitedriver.SqliteDB
}

// New creates a new SQLite store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		sdb: sqlitedriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the required tables and indexes using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.sdb)
	if err != nil {
		return fmt.Errorf("rebase/sqlite: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("%w: %w", rebase.ErrMigrationFailed, err)
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ==================== Models ====================

// Amounts and rates are stored as decimal strings; metadata as a JSON blob.

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

type journalModel struct {
	grove.BaseModel `grove:"table:rebase_journal"`

	ID           string    `grove:"id,pk"`
	Kind         string    `grove:"kind"`
	Account      string    `grove:"account"`
	Counterparty string    `grove:"counterparty"`
	Amount       string    `grove:"amount"`
	Rate         string    `grove:"rate"`
	Timestamp    time.Time `grove:"timestamp"`
	Metadata     string    `grove:"metadata"`
	CreatedAt    time.Time `grove:"created_at"`
}

func toJournalModel(e *journal.Entry) *journalModel {
	metadata := "{}"
	if len(e.Metadata) > 0 {
		raw, _ := json.Marshal(e.Metadata) //nolint:errcheck // map[string]string always marshals
		metadata = string(raw)
	}
	return &journalModel{
		ID:           e.ID.String(),
		Kind:         string(e.Kind),
		Account:      string(e.Account),
		Counterparty: string(e.Counterparty),
		Amount:       e.Amount.String(),
		Rate:         e.Rate.String(),
		Timestamp:    e.Timestamp,
		Metadata:     metadata,
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

	var metadata map[string]string
	if m.Metadata != "" && m.Metadata != "{}" {
		_ = json.Unmarshal([]byte(m.Metadata), &metadata) //nolint:errcheck // best-effort
	}

	return &journal.Entry{
		ID:           entryID,
		Kind:         journal.Kind(m.Kind),
		Account:      types.Address(m.Account),
		Counterparty: types.Address(m.Counterparty),
		Amount:       amount,
		Rate:         rate,
		Timestamp:    m.Timestamp,
		Metadata:     metadata,
	}, nil
}

// ==================== Account Store ====================

func (s *Store) GetAccount(ctx context.Context, addr types.Address) (*account.Account, error) {
	m := new(accountModel)
	err := s.sdb.NewSelect(m).
		Where("address = ?", string(addr)).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, rebase.ErrAccountNotFound
		}
		return nil, err
	}
	return fromAccountModel(m)
}

// PutAccounts upserts all accounts in a single multi-row statement, so the
// write is atomic without an explicit transaction.
func (s *Store) PutAccounts(ctx context.Context, accounts ...*account.Account) error {
	if len(accounts) == 0 {
		return nil
	}
	models := make([]accountModel, len(accounts))
	for i, a := range accounts {
		models[i] = *toAccountModel(a)
		models[i].UpdatedAt = now()
	}
	_, err := s.sdb.NewInsert(&models).
		OnConflict("(address) DO UPDATE").
		Set("principal = EXCLUDED.principal").
		Set("rate = EXCLUDED.rate").
		Set("last_update = EXCLUDED.last_update").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", rebase.ErrTransactionFailed, err)
	}
	return nil
}

func (s *Store) ListAccounts(ctx context.Context, opts account.ListOpts) ([]*account.Account, error) {
	var models []accountModel
	q := s.sdb.NewSelect(&models)

	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("address ASC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	result := make([]*account.Account, len(models))
	for i := range models {
		a, err := fromAccountModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = a
	}
	return result, nil
}

// ==================== Ledger state ====================

func (s *Store) GetGlobalRate(ctx context.Context) (types.Rate, error) {
	value, err := s.getState(ctx, stateKeyGlobalRate)
	if err != nil {
		return types.ZeroRate(), err
	}
	return types.ParseRate(value)
}

func (s *Store) SetGlobalRate(ctx context.Context, rate types.Rate) error {
	return s.setState(ctx, stateKeyGlobalRate, rate.String())
}

func (s *Store) GetOwner(ctx context.Context) (types.Address, error) {
	value, err := s.getState(ctx, stateKeyOwner)
	if err != nil {
		return "", err
	}
	return types.Address(value), nil
}

func (s *Store) SetOwner(ctx context.Context, owner types.Address) error {
	return s.setState(ctx, stateKeyOwner, string(owner))
}

func (s *Store) getState(ctx context.Context, key string) (string, error) {
	m := new(stateModel)
	err := s.sdb.NewSelect(m).
		Where("key = ?", key).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return "", rebase.ErrStateNotFound
		}
		return "", err
	}
	return m.Value, nil
}

func (s *Store) setState(ctx context.Context, key, value string) error {
	m := &stateModel{Key: key, Value: value, UpdatedAt: now()}
	_, err := s.sdb.NewInsert(m).
		OnConflict("(key) DO UPDATE").
		Set("value = EXCLUDED.value").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return err
}

// ==================== Journal Store ====================

func (s *Store) AppendJournal(ctx context.Context, entries []*journal.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	models := make([]journalModel, len(entries))
	for i, e := range entries {
		models[i] = *toJournalModel(e)
	}
	_, err := s.sdb.NewInsert(&models).
		OnConflict("(id) DO NOTHING").
		Exec(ctx)
	return err
}

func (s *Store) QueryJournal(ctx context.Context, opts journal.QueryOpts) ([]*journal.Entry, error) {
	var models []journalModel
	q := s.sdb.NewSelect(&models)

	if opts.Account != "" {
		q = q.Where("(account = ? OR counterparty = ?)",
			string(opts.Account), string(opts.Account))
	}
	if opts.Kind != "" {
		q = q.Where("kind = ?", string(opts.Kind))
	}
	if !opts.Since.IsZero() {
		q = q.Where("timestamp >= ?", opts.Since)
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("timestamp DESC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	result := make([]*journal.Entry, len(models))
	for i := range models {
		e, err := fromJournalModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = e
	}
	return result, nil
}

func (s *Store) PurgeJournal(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.sdb.NewDelete((*journalModel)(nil)).
		Where("timestamp < ?", before).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ==================== Helpers ====================

// now returns the current UTC time.
func now() time.Time {
	return time.Now().UTC()
}

// isNoRows checks for the standard sql.ErrNoRows sentinel.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
