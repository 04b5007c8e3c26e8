package rebase

import "github.com/xraph/rebase/types"

// Re-export common types for convenience so users don't have to import types package.

// Amount is re-exported from types package.
type Amount = types.Amount

// AmountSpec is re-exported from types package.
type AmountSpec = types.AmountSpec

// Rate is re-exported from types package.
type Rate = types.Rate

// Address is re-exported from types package.
type Address = types.Address

// Entity is re-exported from types package.
type Entity = types.Entity

// Re-export Amount and Rate constructors
var (
	NewAmount   = types.NewAmount
	ZeroAmount  = types.ZeroAmount
	ParseAmount = types.ParseAmount
	NewRate     = types.NewRate
	ZeroRate    = types.ZeroRate
	ParseRate   = types.ParseRate
	Exact       = types.Exact
	ExactInt64  = types.ExactInt64
	All         = types.All
)

// Re-export Entity constructor
var NewEntity = types.NewEntity
