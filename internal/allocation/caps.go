package allocation

import (
	"github.com/rgehrsitz/corpusplan/internal/domain"
	"github.com/shopspring/decimal"
)

// PercentCeilings converts every rule's percentage and absolute caps into a
// percentage ceiling of totalCorpus. With no corpus nothing binds and every
// ceiling is 100. Eligibility is not considered.
func PercentCeilings(totalCorpus decimal.Decimal, rules domain.RuleSet) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(rules))
	for inst, rule := range rules {
		if !totalCorpus.IsPositive() {
			out[inst] = domain.Hundred
			continue
		}
		out[inst] = rule.PercentCeiling(totalCorpus)
	}
	return out
}

// Ceilings is PercentCeilings with ineligibility applied: an instrument the
// holder may not own has a ceiling of 0. This is the maximum a UI should
// offer for each instrument.
func Ceilings(totalCorpus decimal.Decimal, age int, rules domain.RuleSet) map[string]decimal.Decimal {
	out := PercentCeilings(totalCorpus, rules)
	for inst, rule := range rules {
		if !rule.EligibleAt(age) {
			out[inst] = decimal.Zero
		}
	}
	return out
}

// ApplyCaps enforces eligibility and investment caps for a corpus of
// totalCorpus. Weight taken from an ineligible instrument, and any excess
// over an instrument's ceiling, is added directly to absorber rather than
// spread across the other instruments. The returned surplus is the total
// percentage moved.
//
// With totalCorpus <= 0 the input is returned unchanged with zero surplus.
// The result is not renormalized; callers that need a projection-ready
// allocation run Normalize afterwards.
func ApplyCaps(totalCorpus decimal.Decimal, a domain.Allocation, age int, rules domain.RuleSet, absorber string) (domain.Allocation, decimal.Decimal) {
	capped := a.Clone()
	surplus := decimal.Zero

	if !totalCorpus.IsPositive() {
		return capped, surplus
	}

	for _, inst := range capped.Keys() {
		rule, ok := rules[inst]
		if !ok || inst == absorber {
			continue
		}
		pct := capped[inst]

		if !rule.EligibleAt(age) {
			surplus = surplus.Add(pct)
			capped[inst] = decimal.Zero
			continue
		}

		ceiling := rule.PercentCeiling(totalCorpus)
		if pct.GreaterThan(ceiling) {
			surplus = surplus.Add(pct.Sub(ceiling))
			capped[inst] = ceiling
		}
	}

	if surplus.IsPositive() {
		capped[absorber] = capped.Get(absorber).Add(surplus)
	}

	return capped, surplus
}

// Legalize re-derives a projection-ready allocation from a raw one: drop
// weight from ineligible instruments, rescale to 100, enforce caps, and
// rescale again. The surplus moved into absorber by the cap pass is
// returned alongside.
func Legalize(totalCorpus decimal.Decimal, raw domain.Allocation, age int, rules domain.RuleSet, absorber string) (domain.Allocation, decimal.Decimal) {
	a := FilterEligible(raw, age, rules, Zero)
	a = Normalize(a)
	a, surplus := ApplyCaps(totalCorpus, a, age, rules, absorber)
	return Normalize(a), surplus
}
