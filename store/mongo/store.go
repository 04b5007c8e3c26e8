// Package mongo implements the Rebase store on MongoDB via Grove ORM.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	"github.com/xraph/rebase"
	"github.com/xraph/rebase/account"
	"github.com/xraph/rebase/journal"
	rebasestore "github.com/xraph/rebase/store"
	"github.com/xraph/rebase/types"
)

// Collection name constants.
const (
	colAccounts = "rebase_accounts"
	colState    = "rebase_state"
	colJournal  = "rebase_journal"
)

// compile-time interface check
var _ rebasestore.Store = (*Store)(nil)

// Store implements store.Store using MongoDB via Grove ORM.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB
}

// New creates a new MongoDB store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates indexes for all rebase collections.
func (s *Store) Migrate(ctx context.Context) error {
	indexes := migrationIndexes()

	for col, models := range indexes {
		if len(models) == 0 {
			continue
		}
		_, err := s.mdb.Collection(col).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("%w: %s indexes: %w", rebase.ErrMigrationFailed, col, err)
		}
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
	var m accountModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": string(addr)}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, rebase.ErrAccountNotFound
		}
		return nil, fmt.Errorf("rebase/mongo: get account: %w", err)
	}
	return fromAccountModel(&m)
}

// PutAccounts upserts each account by address. MongoDB guarantees only
// per-document atomicity, so the engine must treat a partial failure here
// as fatal; the error wraps ErrTransactionFailed.
func (s *Store) PutAccounts(ctx context.Context, accounts ...*account.Account) error {
	t := now()
	for _, a := range accounts {
		m := toAccountModel(a)
		m.UpdatedAt = t

		_, err := s.mdb.NewUpdate(m).
			Filter(bson.M{"_id": m.Address}).
			SetUpdate(bson.M{"$set": bson.M{
				"_id":         m.Address,
				"principal":   m.Principal,
				"rate":        m.Rate,
				"last_update": m.LastUpdate,
				"created_at":  m.CreatedAt,
				"updated_at":  m.UpdatedAt,
			}}).
			Upsert().
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("%w: put account %s: %w", rebase.ErrTransactionFailed, m.Address, err)
		}
	}
	return nil
}

func (s *Store) ListAccounts(ctx context.Context, opts account.ListOpts) ([]*account.Account, error) {
	var models []accountModel

	q := s.mdb.NewFind(&models).
		Filter(bson.M{}).
		Sort(bson.D{{Key: "_id", Value: 1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("rebase/mongo: list accounts: %w", err)
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
	var m stateModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": key}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return "", rebase.ErrStateNotFound
		}
		return "", fmt.Errorf("rebase/mongo: get state %s: %w", key, err)
	}
	return m.Value, nil
}

func (s *Store) setState(ctx context.Context, key, value string) error {
	m := &stateModel{Key: key, Value: value, UpdatedAt: now()}

	_, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": key}).
		SetUpdate(bson.M{"$set": bson.M{
			"_id":        key,
			"value":      value,
			"updated_at": m.UpdatedAt,
		}}).
		Upsert().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("rebase/mongo: set state %s: %w", key, err)
	}
	return nil
}

// ==================== Journal Store ====================

func (s *Store) AppendJournal(ctx context.Context, entries []*journal.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	for _, e := range entries {
		m := toJournalModel(e)
		_, err := s.mdb.NewInsert(m).Exec(ctx)
		if err != nil {
			// Skip duplicates so a retried batch is idempotent
			if mongo.IsDuplicateKeyError(err) {
				continue
			}
			return fmt.Errorf("rebase/mongo: append journal entry: %w", err)
		}
	}
	return nil
}

func (s *Store) QueryJournal(ctx context.Context, opts journal.QueryOpts) ([]*journal.Entry, error) {
	var models []journalModel

	filter := bson.M{}
	if opts.Account != "" {
		filter["$or"] = bson.A{
			bson.M{"account": string(opts.Account)},
			bson.M{"counterparty": string(opts.Account)},
		}
	}
	if opts.Kind != "" {
		filter["kind"] = string(opts.Kind)
	}
	if !opts.Since.IsZero() {
		filter["timestamp"] = bson.M{"$gte": opts.Since}
	}

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "timestamp", Value: -1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("rebase/mongo: query journal: %w", err)
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
	res, err := s.mdb.NewDelete((*journalModel)(nil)).
		Filter(bson.M{"timestamp": bson.M{"$lt": before}}).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("rebase/mongo: purge journal: %w", err)
	}
	return res.DeletedCount(), nil
}

// ==================== Helpers ====================

// now returns the current UTC time.
func now() time.Time {
	return time.Now().UTC()
}

// isNoDocuments checks if an error wraps mongo.ErrNoDocuments.
func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// migrationIndexes returns the index definitions for all rebase collections.
func migrationIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		colAccounts: {
			{Keys: bson.D{{Key: "updated_at", Value: -1}}},
		},
		colState: {},
		colJournal: {
			{Keys: bson.D{{Key: "account", Value: 1}, {Key: "timestamp", Value: -1}}},
			{Keys: bson.D{{Key: "counterparty", Value: 1}, {Key: "timestamp", Value: -1}}},
			{Keys: bson.D{{Key: "kind", Value: 1}, {Key: "timestamp", Value: -1}}},
			{
				Keys:    bson.D{{Key: "timestamp", Value: -1}},
				Options: options.Index().SetName("idx_rebase_journal_timestamp"),
			},
		},
	}
}
