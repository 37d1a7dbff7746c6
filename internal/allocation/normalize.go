// Package allocation keeps instrument allocations legal: it rescales them to
// 100%, removes what a holder may not own, clips what exceeds regulatory
// limits, and rebalances after a single interactive edit.
//
// Every function here is pure: inputs are never mutated and results are
// fresh maps.
package allocation

import (
	"github.com/rgehrsitz/corpusplan/internal/domain"
	"github.com/shopspring/decimal"
)

// Normalize rescales a so that its values sum to 100 while keeping their
// relative proportions. When the sum is zero or negative the input is
// returned unchanged (as a copy); it is not spread evenly.
func Normalize(a domain.Allocation) domain.Allocation {
	out := a.Clone()
	total := out.Sum()
	if !total.IsPositive() {
		return out
	}
	for k, v := range out {
		out[k] = v.Mul(domain.Hundred).Div(total)
	}
	return out
}

// Round returns a copy of a with every value rounded to places decimals.
func Round(a domain.Allocation, places int32) domain.Allocation {
	out := make(domain.Allocation, len(a))
	for k, v := range a {
		out[k] = v.Round(places)
	}
	return out
}

// ToAmounts converts percentages into currency amounts of totalCorpus,
// rounded to 2 decimals.
func ToAmounts(totalCorpus decimal.Decimal, a domain.Allocation) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(a))
	for k, v := range a {
		out[k] = totalCorpus.Mul(v).Div(domain.Hundred).Round(2)
	}
	return out
}

// PercentFromAmount converts a currency amount into a percentage of
// totalCorpus, rounded to 2 decimals and capped at 100. With no corpus the
// result is 0.
func PercentFromAmount(amount, totalCorpus decimal.Decimal) decimal.Decimal {
	if !totalCorpus.IsPositive() || amount.IsNegative() {
		return decimal.Zero
	}
	pct := amount.Mul(domain.Hundred).Div(totalCorpus)
	if pct.GreaterThan(domain.Hundred) {
		return domain.Hundred
	}
	return pct.Round(2)
}
