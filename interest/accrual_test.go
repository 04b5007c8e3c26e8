package interest

import (
	"math/big"
	"testing"
	"time"

	"github.com/xraph/rebase/types"
)

func TestFactor(t *testing.T) {
	tests := []struct {
		name    string
		rate    types.Rate
		elapsed time.Duration
		want    string
	}{
		{"Zero rate", types.ZeroRate(), time.Hour, "1000000000000000000"},
		{"Zero elapsed", types.NewRate(50_000_000_000), 0, "1000000000000000000"},
		{"Negative elapsed clamps", types.NewRate(50_000_000_000), -time.Minute, "1000000000000000000"},
		{"One second", types.NewRate(50_000_000_000), time.Second, "1000000000050000000000"},
		{"1000 seconds", types.NewRate(50_000_000_000), 1000 * time.Second, "1000000050000000000000"},
		{"Sub-second truncates", types.NewRate(50_000_000_000), 999 * time.Millisecond, "1000000000000000000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			want, _ := new(big.Int).SetString(tt.want, 10)
			if got := Factor(tt.rate, tt.elapsed); got.Cmp(want) != 0 {
				t.Errorf("Factor: got %s, want %s", got, want)
			}
		})
	}
}

func TestAccrue(t *testing.T) {
	rate := types.NewRate(50_000_000_000) // 5e10 ray/second

	tests := []struct {
		name      string
		principal types.Amount
		rate      types.Rate
		elapsed   time.Duration
		want      types.Amount
	}{
		{"Zero principal", types.ZeroAmount(), rate, time.Hour, types.ZeroAmount()},
		{"Zero rate identity", types.NewAmount(100000), types.ZeroRate(), time.Hour, types.NewAmount(100000)},
		{"Zero elapsed identity", types.NewAmount(100000), rate, 0, types.NewAmount(100000)},
		// 100000 * 5e10 * 1000 / 1e18 = 5
		{"Deposit scenario", types.NewAmount(100000), rate, 1000 * time.Second, types.NewAmount(100005)},
		// 1 * (1e18 + 5e10) / 1e18 truncates back to 1
		{"Truncation keeps tiny principal", types.NewAmount(1), rate, time.Second, types.NewAmount(1)},
		// Large principal: 1e24 * 5e13 / 1e18 = 5e19 interest
		{
			"Large principal",
			types.MustParseAmount("1000000000000000000000000"),
			rate, 1000 * time.Second,
			types.MustParseAmount("1000050000000000000000000"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Accrue(tt.principal, tt.rate, tt.elapsed); !got.Equal(tt.want) {
				t.Errorf("Accrue: got %s, want %s", got, tt.want)
			}
		})
	}
}

// Equal time steps must accrue equal interest between settlements.
func TestAccrueLinearity(t *testing.T) {
	principal := types.NewAmount(100_000_000)
	rate := types.NewRate(50_000_000_000)

	b1 := Accrue(principal, rate, 500*time.Second)
	b2 := Accrue(principal, rate, 1000*time.Second)
	b3 := Accrue(principal, rate, 1500*time.Second)

	d1 := b2.Sub(b1).BigInt()
	d2 := b3.Sub(b2).BigInt()

	diff := new(big.Int).Sub(d1, d2)
	if diff.CmpAbs(big.NewInt(1)) > 0 {
		t.Errorf("accrual not linear: steps %s vs %s", d1, d2)
	}
}

// Accrued balance never drops below principal.
func TestAccrueNeverBelowPrincipal(t *testing.T) {
	principal := types.NewAmount(7)
	for _, elapsed := range []time.Duration{0, time.Second, time.Minute, 24 * time.Hour} {
		got := Accrue(principal, types.NewRate(1), elapsed)
		if got.LessThan(principal) {
			t.Errorf("elapsed %v: accrued %s below principal %s", elapsed, got, principal)
		}
	}
}
