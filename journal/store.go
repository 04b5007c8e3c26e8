package journal

import (
	"context"
	"time"
)

// Store is the per-domain persistence interface for journal entries.
// The unified store.Store embeds these methods.
type Store interface {
	// Append persists a batch of entries.
	Append(ctx context.Context, entries []*Entry) error

	// Query returns entries matching opts, newest first.
	Query(ctx context.Context, opts QueryOpts) ([]*Entry, error)

	// Purge deletes entries older than before and reports how many were
	// removed.
	Purge(ctx context.Context, before time.Time) (int64, error)
}
