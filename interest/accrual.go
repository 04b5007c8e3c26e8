// Package interest implements the linear accrual math for the rebase ledger.
//
// All interest arithmetic is fixed-point over 1e18-scale integers ("ray"
// precision). A balance accrues linearly between settlements:
//
//	balance = principal * (Ray + rate*elapsedSeconds) / Ray
//
// There is no compounding within a single observation; compounding happens
// only across settlements, when accrued interest is folded into principal.
package interest

import (
	"math/big"
	"time"

	"github.com/xraph/rebase/types"
)

// Ray is the fixed-point scaling constant (1e18). Rates and accrual factors
// are expressed in this scale.
var Ray = big.NewInt(1_000_000_000_000_000_000)

// Seconds converts a duration to whole elapsed seconds, clamped at zero.
// Accrual never runs backwards; a negative duration (clock skew between a
// stored LastUpdate and the engine clock) counts as no elapsed time.
func Seconds(elapsed time.Duration) int64 {
	if elapsed <= 0 {
		return 0
	}
	return int64(elapsed / time.Second)
}

// Factor returns the accrual multiplier Ray + rate*elapsedSeconds in ray
// scale. With a zero rate or zero elapsed time the factor is exactly Ray.
func Factor(rate types.Rate, elapsed time.Duration) *big.Int {
	f := new(big.Int).Mul(rate.BigInt(), big.NewInt(Seconds(elapsed)))
	return f.Add(f, Ray)
}

// Accrue returns the redeemable balance for a principal held at the given
// rate for the given elapsed time: principal * Factor / Ray.
//
// The division truncates. The result is always >= principal, since the
// factor is >= Ray for non-negative rates and elapsed times.
func Accrue(principal types.Amount, rate types.Rate, elapsed time.Duration) types.Amount {
	if principal.IsZero() || rate.IsZero() || elapsed <= 0 {
		return principal
	}
	v := new(big.Int).Mul(principal.BigInt(), Factor(rate, elapsed))
	v.Quo(v, Ray)
	a, err := types.AmountFromBig(v)
	if err != nil {
		// Unreachable: the product of non-negative values is non-negative.
		panic(err)
	}
	return a
}
