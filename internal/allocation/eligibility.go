package allocation

import (
	"github.com/rgehrsitz/corpusplan/internal/domain"
	"github.com/shopspring/decimal"
)

// FilterMode selects what FilterEligible does with an ineligible instrument.
type FilterMode int

const (
	// Drop removes the instrument from the result.
	Drop FilterMode = iota
	// Zero keeps the instrument with a weight of 0.
	Zero
)

// FilterEligible removes (or zeroes) every instrument the holder may not
// own: disabled rules, ages outside [MinAge, MaxAge], and instruments with
// no rule at all. It does not renormalize.
func FilterEligible(a domain.Allocation, age int, rules domain.RuleSet, mode FilterMode) domain.Allocation {
	out := make(domain.Allocation, len(a))
	for inst, pct := range a {
		rule, ok := rules[inst]
		if ok && rule.EligibleAt(age) {
			out[inst] = pct
			continue
		}
		if mode == Zero {
			out[inst] = decimal.Zero
		}
	}
	return out
}

// ZeroIneligible sets every instrument whose rule rejects the holder to 0 and
// returns the weight removed. Instruments without a rule are left alone.
func ZeroIneligible(a domain.Allocation, age int, rules domain.RuleSet) (domain.Allocation, decimal.Decimal) {
	out := a.Clone()
	removed := decimal.Zero
	for inst, pct := range out {
		rule, ok := rules[inst]
		if !ok || rule.EligibleAt(age) {
			continue
		}
		removed = removed.Add(pct)
		out[inst] = decimal.Zero
	}
	return out, removed
}
