// Package types provides common types used across Rebase.
package types

import (
	"encoding/json"
	"fmt"
	"math/big"
)

// Amount represents a quantity of ledger credits or native value in the
// smallest unit. Amounts are arbitrary-precision, non-negative integers;
// balances at 1e18-scale precision overflow int64, so all arithmetic goes
// through math/big.
//
// Amount is an immutable value type: every operation returns a new Amount
// and never mutates its receiver. The zero value is a usable zero amount.
type Amount struct {
	i *big.Int
}

// NewAmount creates an Amount from a non-negative int64.
// It panics if n is negative (programming error).
func NewAmount(n int64) Amount {
	if n < 0 {
		panic(fmt.Sprintf("types: negative amount %d", n))
	}
	return Amount{i: big.NewInt(n)}
}

// ZeroAmount returns the zero amount.
func ZeroAmount() Amount { return Amount{} }

// AmountFromBig creates an Amount from a big.Int, copying the value.
// Returns an error if v is negative.
func AmountFromBig(v *big.Int) (Amount, error) {
	if v == nil {
		return Amount{}, nil
	}
	if v.Sign() < 0 {
		return Amount{}, fmt.Errorf("types: negative amount %s", v)
	}
	return Amount{i: new(big.Int).Set(v)}, nil
}

// ParseAmount parses a base-10 string into an Amount.
func ParseAmount(s string) (Amount, error) {
	if s == "" {
		return Amount{}, nil
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return Amount{}, fmt.Errorf("types: parse amount %q", s)
	}
	return AmountFromBig(v)
}

// MustParseAmount is like ParseAmount but panics on error.
// Use for hardcoded values.
func MustParseAmount(s string) Amount {
	a, err := ParseAmount(s)
	if err != nil {
		panic(err)
	}
	return a
}

// big returns the underlying value, treating a zero-value Amount as zero.
// The result must not be mutated.
func (a Amount) big() *big.Int {
	if a.i == nil {
		return bigZero
	}
	return a.i
}

var bigZero = new(big.Int)

// BigInt returns a copy of the amount as a big.Int.
func (a Amount) BigInt() *big.Int { return new(big.Int).Set(a.big()) }

// Int64 returns the amount as an int64 and whether it fits.
func (a Amount) Int64() (int64, bool) {
	if !a.big().IsInt64() {
		return 0, false
	}
	return a.big().Int64(), true
}

// Arithmetic operations

// Add returns a + other.
func (a Amount) Add(other Amount) Amount {
	return Amount{i: new(big.Int).Add(a.big(), other.big())}
}

// Sub returns a - other. It panics if the result would be negative:
// callers are expected to compare first (balances never go below zero).
func (a Amount) Sub(other Amount) Amount {
	if a.Cmp(other) < 0 {
		panic(fmt.Sprintf("types: amount underflow: %s - %s", a, other))
	}
	return Amount{i: new(big.Int).Sub(a.big(), other.big())}
}

// Comparison methods

// Cmp compares a to other: -1 if a < other, 0 if equal, +1 if a > other.
func (a Amount) Cmp(other Amount) int { return a.big().Cmp(other.big()) }

// Equal returns true if both amounts are equal.
func (a Amount) Equal(other Amount) bool { return a.Cmp(other) == 0 }

// LessThan returns true if a < other.
func (a Amount) LessThan(other Amount) bool { return a.Cmp(other) < 0 }

// GreaterThan returns true if a > other.
func (a Amount) GreaterThan(other Amount) bool { return a.Cmp(other) > 0 }

// IsZero returns true if the amount is zero.
func (a Amount) IsZero() bool { return a.big().Sign() == 0 }

// IsPositive returns true if the amount is greater than zero.
func (a Amount) IsPositive() bool { return a.big().Sign() > 0 }

// String returns the amount as a base-10 string.
func (a Amount) String() string { return a.big().String() }

// MarshalJSON encodes the amount as a decimal string to avoid precision
// loss in JSON number representations.
func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON decodes an amount from a decimal string or a JSON number.
func (a *Amount) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		// Accept bare numbers for hand-written fixtures.
		s = string(data)
	}
	parsed, err := ParseAmount(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// AmountSpec selects how much of a balance an operation applies to.
// The burn-all / transfer-all convention is expressed as an explicit
// variant rather than a max-value magic constant.
type AmountSpec struct {
	all   bool
	value Amount
}

// Exact requests exactly the given amount.
func Exact(a Amount) AmountSpec { return AmountSpec{value: a} }

// ExactInt64 requests exactly the given non-negative int64 amount.
func ExactInt64(n int64) AmountSpec { return Exact(NewAmount(n)) }

// All requests the full settled balance at execution time.
func All() AmountSpec { return AmountSpec{all: true} }

// IsAll returns true if the spec requests the full balance.
func (s AmountSpec) IsAll() bool { return s.all }

// Resolve returns the concrete amount the spec stands for, given the
// settled balance it applies against.
func (s AmountSpec) Resolve(settled Amount) Amount {
	if s.all {
		return settled
	}
	return s.value
}

// String returns "all" or the exact amount.
func (s AmountSpec) String() string {
	if s.all {
		return "all"
	}
	return s.value.String()
}
