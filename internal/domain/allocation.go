package domain

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Hundred is the percentage total every legal allocation sums to.
var Hundred = decimal.NewFromInt(100)

// Allocation maps an instrument name to its share of the corpus in percent.
// In steady state the values sum to 100 within rounding tolerance; an
// allocation may be transiently illegal while an interactive edit is applied.
type Allocation map[string]decimal.Decimal

// NewAllocation builds an allocation from plain float percentages, clamping
// every value into [0, 100].
func NewAllocation(values map[string]float64) Allocation {
	a := make(Allocation, len(values))
	for k, v := range values {
		a[k] = ClampPercent(decimal.NewFromFloat(v))
	}
	return a
}

// ClampPercent clamps p into [0, 100].
func ClampPercent(p decimal.Decimal) decimal.Decimal {
	if p.IsNegative() {
		return decimal.Zero
	}
	if p.GreaterThan(Hundred) {
		return Hundred
	}
	return p
}

// Sum returns the total of all percentages.
func (a Allocation) Sum() decimal.Decimal {
	total := decimal.Zero
	for _, v := range a {
		total = total.Add(v)
	}
	return total
}

// Get returns the percentage for an instrument, zero when absent.
func (a Allocation) Get(instrument string) decimal.Decimal {
	if v, ok := a[instrument]; ok {
		return v
	}
	return decimal.Zero
}

// Clone returns an independent copy. A nil allocation clones to an empty one.
func (a Allocation) Clone() Allocation {
	out := make(Allocation, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// Keys returns instrument names in sorted order.
func (a Allocation) Keys() []string {
	return sortedKeys(a)
}

// Float64 returns the allocation as plain floats, for wire payloads and display.
func (a Allocation) Float64() map[string]float64 {
	out := make(map[string]float64, len(a))
	for k, v := range a {
		out[k] = v.InexactFloat64()
	}
	return out
}

// RateTable maps an instrument name to its expected annual yield in percent.
type RateTable map[string]decimal.Decimal

// Clone returns an independent copy.
func (r RateTable) Clone() RateTable {
	out := make(RateTable, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Get returns the rate for an instrument. Missing entries are treated as zero.
func (r RateTable) Get(instrument string) decimal.Decimal {
	if v, ok := r[instrument]; ok {
		return v
	}
	return decimal.Zero
}

// IncomeSources maps an income-source key (rental, pension, ...) to a raw amount.
type IncomeSources map[string]decimal.Decimal

// Clone returns an independent copy. A nil map stays nil so that "absent"
// remains distinguishable from "present but empty".
func (s IncomeSources) Clone() IncomeSources {
	if s == nil {
		return nil
	}
	out := make(IncomeSources, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Withdrawal is the monthly systematic-withdrawal amount.
type Withdrawal struct {
	Monthly decimal.Decimal `yaml:"monthly" json:"monthly"`
}

// NewWithdrawal returns a withdrawal with negative amounts clamped to zero.
func NewWithdrawal(monthly decimal.Decimal) Withdrawal {
	if monthly.IsNegative() {
		monthly = decimal.Zero
	}
	return Withdrawal{Monthly: monthly}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
