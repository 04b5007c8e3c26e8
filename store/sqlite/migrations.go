package sqlite

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the Rebase store.
var Migrations = migrate.NewGroup("rebase")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_rebase_accounts",
			Version: "20240101000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS rebase_accounts (
    address     TEXT PRIMARY KEY,
    principal   TEXT NOT NULL DEFAULT '0',
    rate        TEXT NOT NULL DEFAULT '0',
    last_update TEXT NOT NULL DEFAULT (datetime('now')),
    created_at  TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at  TEXT NOT NULL DEFAULT (datetime('now'))
);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS rebase_accounts`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_rebase_state",
			Version: "20240101000002",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS rebase_state (
    key        TEXT PRIMARY KEY,
    value      TEXT NOT NULL DEFAULT '',
    updated_at TEXT NOT NULL DEFAULT (datetime('now'))
);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS rebase_state`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_rebase_journal",
			Version: "20240101000003",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS rebase_journal (
    id           TEXT PRIMARY KEY,
    kind         TEXT NOT NULL DEFAULT '',
    account      TEXT NOT NULL DEFAULT '',
    counterparty TEXT NOT NULL DEFAULT '',
    amount       TEXT NOT NULL DEFAULT '0',
    rate         TEXT NOT NULL DEFAULT '0',
    timestamp    TEXT NOT NULL DEFAULT (datetime('now')),
    metadata     TEXT NOT NULL DEFAULT '{}',
    created_at   TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_rebase_journal_account ON rebase_journal (account, timestamp);
CREATE INDEX IF NOT EXISTS idx_rebase_journal_counterparty ON rebase_journal (counterparty, timestamp);
CREATE INDEX IF NOT EXISTS idx_rebase_journal_kind ON rebase_journal (kind, timestamp);
CREATE INDEX IF NOT EXISTS idx_rebase_journal_timestamp ON rebase_journal (timestamp);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS rebase_journal`)
				return err
			},
		},
	)
}
