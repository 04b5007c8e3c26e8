// Package journal defines the append-only record of ledger and vault
// operations. Every successful mint, burn, transfer, deposit, redemption,
// and rate change produces one entry. Entries are buffered by the engine
// and flushed to the store in batches.
package journal

import (
	"time"

	"github.com/xraph/rebase/id"
	"github.com/xraph/rebase/types"
)

// Kind identifies the operation a journal entry records.
type Kind string

const (
	KindMint       Kind = "mint"
	KindBurn       Kind = "burn"
	KindTransfer   Kind = "transfer"
	KindDeposit    Kind = "deposit"
	KindRedeem     Kind = "redeem"
	KindRateChange Kind = "rate_change"
	KindOwnership  Kind = "ownership"
)

// Entry is one journal record.
//
// Account is the primary subject (minted-to, burned-from, sender). For
// transfers, Counterparty is the recipient; for vault operations it is the
// vault address. Rate carries the rate assigned by the operation, or the
// new global rate for rate changes.
type Entry struct {
	ID           id.JournalEntryID `json:"id"`
	Kind         Kind              `json:"kind"`
	Account      types.Address     `json:"account"`
	Counterparty types.Address     `json:"counterparty,omitempty"`
	Amount       types.Amount      `json:"amount"`
	Rate         types.Rate        `json:"rate"`
	Timestamp    time.Time         `json:"timestamp"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// QueryOpts filters journal listings.
type QueryOpts struct {
	Account types.Address // match Account or Counterparty; empty matches all
	Kind    Kind          // empty matches all
	Since   time.Time     // zero matches all
	Limit   int
	Offset  int
}
