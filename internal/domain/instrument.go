package domain

import (
	"github.com/shopspring/decimal"
)

// InstrumentRule describes eligibility and investment limits for one
// instrument within one country. Rules are defined at start-up and never
// mutated afterwards.
type InstrumentRule struct {
	Name                string           `yaml:"name" json:"name"`
	MinAge              *int             `yaml:"min_age,omitempty" json:"min_age,omitempty"`
	MaxAge              *int             `yaml:"max_age,omitempty" json:"max_age,omitempty"`
	MaxAllocationPct    *decimal.Decimal `yaml:"max_allocation_pct,omitempty" json:"max_allocation_pct,omitempty"`
	MaxInvestmentAmount *decimal.Decimal `yaml:"max_investment_amount,omitempty" json:"max_investment_amount,omitempty"`
	Enabled             bool             `yaml:"enabled" json:"enabled"`
}

// EligibleAt reports whether a holder of the given age may invest in the
// instrument. An age <= 0 means unknown, which fails any minimum-age bound.
func (r InstrumentRule) EligibleAt(age int) bool {
	if !r.Enabled {
		return false
	}
	if r.MinAge != nil && (age <= 0 || age < *r.MinAge) {
		return false
	}
	if r.MaxAge != nil && age > 0 && age > *r.MaxAge {
		return false
	}
	return true
}

// IsCapped reports whether the rule carries any ceiling below 100%.
func (r InstrumentRule) IsCapped() bool {
	if r.MaxInvestmentAmount != nil {
		return true
	}
	return r.MaxAllocationPct != nil && r.MaxAllocationPct.LessThan(Hundred)
}

// PercentCeiling converts the rule's limits into a percentage of totalCorpus.
// It returns 100 when nothing binds. totalCorpus must be positive.
func (r InstrumentRule) PercentCeiling(totalCorpus decimal.Decimal) decimal.Decimal {
	ceiling := Hundred
	if r.MaxAllocationPct != nil && r.MaxAllocationPct.LessThan(ceiling) {
		ceiling = *r.MaxAllocationPct
	}
	if r.MaxInvestmentAmount != nil && totalCorpus.IsPositive() {
		pct := r.MaxInvestmentAmount.Mul(Hundred).Div(totalCorpus)
		if pct.LessThan(ceiling) {
			ceiling = pct
		}
	}
	if ceiling.IsNegative() {
		return decimal.Zero
	}
	return ceiling
}

// RuleSet is the rule table for one country, keyed by instrument name.
type RuleSet map[string]InstrumentRule

// Clone returns a copy of the rule set. Pointer fields are shared because
// rules are immutable.
func (rs RuleSet) Clone() RuleSet {
	out := make(RuleSet, len(rs))
	for k, v := range rs {
		out[k] = v
	}
	return out
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int { return &v }

// DecimalPtr returns a pointer to a decimal built from v.
func DecimalPtr(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}
