package allocation

import (
	"github.com/rgehrsitz/corpusplan/internal/domain"
	"github.com/rgehrsitz/corpusplan/internal/instruments"
	"github.com/shopspring/decimal"
)

// Rebalancer applies a single user edit to an allocation and returns a legal
// one. Ceilings are computed once for a corpus; build a new Rebalancer when
// the corpus changes.
type Rebalancer struct {
	Rules    domain.RuleSet
	Absorber string
	Ceilings map[string]decimal.Decimal
}

// NewRebalancer prepares a rebalancer for profile's rules at totalCorpus.
// Options are applied to a copy of the profile's rules.
func NewRebalancer(profile *instruments.CountryProfile, totalCorpus decimal.Decimal, opts ...instruments.Option) *Rebalancer {
	p := profile
	if len(opts) > 0 {
		p = &instruments.CountryProfile{Rules: profile.Rules.Clone(), Absorber: profile.Absorber}
		for _, opt := range opts {
			opt(p)
		}
	}
	return &Rebalancer{
		Rules:    p.Rules,
		Absorber: p.Absorber,
		Ceilings: PercentCeilings(totalCorpus, p.Rules),
	}
}

// EditResult is the outcome of one Edit.
type EditResult struct {
	Allocation domain.Allocation `json:"allocation"`
	Instrument string            `json:"instrument"`
	Requested  decimal.Decimal   `json:"requested"`
	Applied    decimal.Decimal   `json:"applied"`
	// Capped is true when the committed value of the edited instrument is
	// lower than requested.
	Capped bool `json:"capped"`
	// FirstPassSurplus and FinalPassSurplus are the percentages clipped and
	// redirected to the absorber by each enforcement pass.
	FirstPassSurplus decimal.Decimal `json:"first_pass_surplus"`
	FinalPassSurplus decimal.Decimal `json:"final_pass_surplus"`
}

// Edit sets instrument to newValue (clamped to [0,100]) and restores
// legality: ineligible instruments are zeroed, over-ceiling instruments are
// clipped into the absorber, the remaining instruments are rescaled to fill
// 100 minus the edited value, and eligibility and ceilings are enforced one
// final time. The final pass has precedence over the user's value.
func (r *Rebalancer) Edit(current domain.Allocation, instrument string, newValue decimal.Decimal, age int) EditResult {
	requested := domain.ClampPercent(newValue)

	work := current.Clone()
	work[instrument] = requested

	work, _ = ZeroIneligible(work, age, r.Rules)
	work, first := r.clip(work)
	work = redistribute(work, instrument)
	work, _ = ZeroIneligible(work, age, r.Rules)
	work, final := r.clip(work)

	applied := work.Get(instrument)
	return EditResult{
		Allocation:       work,
		Instrument:       instrument,
		Requested:        requested,
		Applied:          applied,
		Capped:           applied.LessThan(requested),
		FirstPassSurplus: first,
		FinalPassSurplus: final,
	}
}

// clip enforces ceilings on every instrument except the absorber and adds
// the excess to the absorber.
func (r *Rebalancer) clip(a domain.Allocation) (domain.Allocation, decimal.Decimal) {
	surplus := decimal.Zero
	for _, inst := range a.Keys() {
		if inst == r.Absorber {
			continue
		}
		ceiling, ok := r.Ceilings[inst]
		if !ok {
			continue
		}
		if a[inst].GreaterThan(ceiling) {
			surplus = surplus.Add(a[inst].Sub(ceiling))
			a[inst] = ceiling
		}
	}
	if surplus.IsPositive() {
		a[r.Absorber] = a.Get(r.Absorber).Add(surplus)
	}
	return a, surplus
}

// redistribute holds fixed and rescales the other instruments proportionally
// to fill 100 minus its value. When the others sum to zero nothing changes.
// The held value is clamped to 100 first, since the absorber can be pushed
// past it by the first enforcement pass.
func redistribute(a domain.Allocation, fixed string) domain.Allocation {
	if _, ok := a[fixed]; ok {
		a[fixed] = domain.ClampPercent(a[fixed])
	}
	remaining := domain.Hundred.Sub(a.Get(fixed))
	others := decimal.Zero
	for k, v := range a {
		if k != fixed {
			others = others.Add(v)
		}
	}
	if !others.IsPositive() {
		return a
	}
	for k, v := range a {
		if k != fixed {
			a[k] = v.Mul(remaining).Div(others)
		}
	}
	return a
}
