package types

import (
	"encoding/json"
	"fmt"
	"math/big"
)

// Rate is a per-second linear interest rate in 1e18-scale fixed point.
// A rate of 5e10 grows a balance by 5e10/1e18 = 0.000005% per second.
//
// Like Amount, Rate is an immutable non-negative value type and its zero
// value is a usable zero rate.
type Rate struct {
	i *big.Int
}

// NewRate creates a Rate from a non-negative int64.
// It panics if n is negative (programming error).
func NewRate(n int64) Rate {
	if n < 0 {
		panic(fmt.Sprintf("types: negative rate %d", n))
	}
	return Rate{i: big.NewInt(n)}
}

// ZeroRate returns the zero rate.
func ZeroRate() Rate { return Rate{} }

// ParseRate parses a base-10 string into a Rate.
func ParseRate(s string) (Rate, error) {
	if s == "" {
		return Rate{}, nil
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return Rate{}, fmt.Errorf("types: parse rate %q", s)
	}
	if v.Sign() < 0 {
		return Rate{}, fmt.Errorf("types: negative rate %s", v)
	}
	return Rate{i: v}, nil
}

// MustParseRate is like ParseRate but panics on error.
func MustParseRate(s string) Rate {
	r, err := ParseRate(s)
	if err != nil {
		panic(err)
	}
	return r
}

func (r Rate) big() *big.Int {
	if r.i == nil {
		return bigZero
	}
	return r.i
}

// BigInt returns a copy of the rate as a big.Int.
func (r Rate) BigInt() *big.Int { return new(big.Int).Set(r.big()) }

// Cmp compares r to other: -1 if r < other, 0 if equal, +1 if r > other.
func (r Rate) Cmp(other Rate) int { return r.big().Cmp(other.big()) }

// Equal returns true if both rates are equal.
func (r Rate) Equal(other Rate) bool { return r.Cmp(other) == 0 }

// LessThan returns true if r < other.
func (r Rate) LessThan(other Rate) bool { return r.Cmp(other) < 0 }

// IsZero returns true if the rate is zero.
func (r Rate) IsZero() bool { return r.big().Sign() == 0 }

// String returns the rate as a base-10 string.
func (r Rate) String() string { return r.big().String() }

// MarshalJSON encodes the rate as a decimal string.
func (r Rate) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

// UnmarshalJSON decodes a rate from a decimal string or a JSON number.
func (r *Rate) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		s = string(data)
	}
	parsed, err := ParseRate(s)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
