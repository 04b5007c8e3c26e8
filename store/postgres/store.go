// Package postgres implements the Rebase store on PostgreSQL via Grove ORM.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/pgdriver"
	"github.com/xraph/grove/migrate"

	"github.com/xraph/rebase"
	"github.com/xraph/rebase/account"
	"github.com/xraph/rebase/journal"
	rebasestore "github.com/xraph/rebase/store"
	"github.com/xraph/rebase/types"
)

// compile-time interface check
var _ rebasestore.Store = (*Store)(nil)

// Store implements store.Store using PostgreSQL via Grove ORM.
type Store struct {
	db *grove.DB
	pg *pgdriver.PgDB
}

// New creates a new PostgreSQL store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db: db,
		pg: pgdriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the required tables and indexes using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.pg)
	if err != nil {
		return fmt.Errorf("rebase/postgres: create migration executor: %w", err)
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

// ==================== Account Store ====================

func (s *Store) GetAccount(ctx context.Context, addr types.Address) (*account.Account, error) {
	m := new(accountModel)
	err := s.pg.NewSelect(m).
		Where("address = $1", string(addr)).
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
	_, err := s.pg.NewInsert(&models).
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
	q := s.pg.NewSelect(&models)

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
	err := s.pg.NewSelect(m).
		Where("key = $1", key).
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
	_, err := s.pg.NewInsert(m).
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
	_, err := s.pg.NewInsert(&models).
		OnConflict("(id) DO NOTHING").
		Exec(ctx)
	return err
}

func (s *Store) QueryJournal(ctx context.Context, opts journal.QueryOpts) ([]*journal.Entry, error) {
	var models []journalModel
	q := s.pg.NewSelect(&models)

	argIdx := 0
	if opts.Account != "" {
		q = q.Where(fmt.Sprintf("(account = $%d OR counterparty = $%d)", argIdx+1, argIdx+2),
			string(opts.Account), string(opts.Account))
		argIdx += 2
	}
	if opts.Kind != "" {
		argIdx++
		q = q.Where(fmt.Sprintf("kind = $%d", argIdx), string(opts.Kind))
	}
	if !opts.Since.IsZero() {
		argIdx++
		q = q.Where(fmt.Sprintf("timestamp >= $%d", argIdx), opts.Since)
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
	res, err := s.pg.NewDelete((*journalModel)(nil)).
		Where("timestamp < $1", before).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ==================== Helpers ====================

func now() time.Time {
	return time.Now().UTC()
}

// isNoRows checks for the standard sql.ErrNoRows sentinel.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
