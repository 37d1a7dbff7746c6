// Package scenario builds and maintains the named scenarios of a plan: the
// default Base, the derived Conservative and Aggressive variants, and the
// user's own clones.
package scenario

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rgehrsitz/corpusplan/internal/allocation"
	"github.com/rgehrsitz/corpusplan/internal/domain"
	"github.com/rgehrsitz/corpusplan/internal/instruments"
	"github.com/rgehrsitz/corpusplan/internal/transform"
	"github.com/shopspring/decimal"
)

// MaxScenarios is the most scenarios a plan may hold.
const MaxScenarios = 3

var (
	ErrScenarioLimit   = errors.New("scenario limit reached")
	ErrBaseScenario    = errors.New("base scenario cannot be deleted")
	ErrUnknownScenario = errors.New("unknown scenario")
	ErrUnknownMode     = errors.New("unknown derivation mode")
)

// Mode names a built-in derivation.
type Mode string

const (
	Conservative Mode = "conservative"
	Aggressive   Mode = "aggressive"
)

// DefaultScenario seeds a Base scenario from the country's age-banded model.
// Ineligible instruments are zeroed and the allocation is rescaled to 100.
// An age <= 0 means unknown.
func DefaultScenario(profile *instruments.CountryProfile, age int) *domain.Scenario {
	m, err := allocation.BuildModel(profile, age, decimal.Zero)
	if err != nil {
		return nil
	}

	income := profile.IncomeSources.Clone()
	if income == nil {
		income = make(domain.IncomeSources)
	}

	return &domain.Scenario{
		Allocations:   m.Allocations,
		Rates:         m.Rates,
		IncomeSources: income,
		Withdrawal:    domain.NewWithdrawal(profile.MonthlyWithdrawal),
	}
}

// DeriveScenario returns a conservative or aggressive variant of base.
// growthInstrument receives the allocation shift. base is not modified.
func DeriveScenario(base *domain.Scenario, mode Mode, growthInstrument string) (*domain.Scenario, error) {
	tmpl, ok := transform.CreateBuiltInTemplates(growthInstrument).Get(string(mode))
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}
	derived, err := transform.ApplyTemplate(base, tmpl)
	if err != nil {
		return nil, fmt.Errorf("derive %s scenario: %w", mode, err)
	}
	return derived, nil
}

// EnsureScenarios makes plan usable: Base is (re)seeded when missing or
// structurally incomplete, Conservative and Aggressive are derived from Base
// when missing, and an active scenario that does not exist falls back to
// Base. It reports whether anything changed; a second call on the same plan
// changes nothing.
func EnsureScenarios(plan *domain.Plan, profile *instruments.CountryProfile, age int) bool {
	if plan == nil || profile == nil {
		return false
	}
	changed := false

	if plan.Scenarios == nil {
		plan.Scenarios = make(map[string]*domain.Scenario)
		changed = true
	}

	base := plan.Scenarios[domain.BaseScenario]
	if base.IsEmpty() {
		base = DefaultScenario(profile, age)
		plan.Scenarios[domain.BaseScenario] = base
		changed = true
	}

	for name, mode := range map[string]Mode{
		domain.ConservativeScenario: Conservative,
		domain.AggressiveScenario:   Aggressive,
	} {
		if sc, ok := plan.Scenarios[name]; ok && sc != nil {
			continue
		}
		derived, err := DeriveScenario(base, mode, profile.Absorber)
		if err != nil {
			derived = base.DeepCopy()
		}
		plan.Scenarios[name] = derived
		changed = true
	}

	if _, ok := plan.Scenarios[plan.ActiveScenario]; !ok {
		plan.ActiveScenario = domain.BaseScenario
		changed = true
	}

	return changed
}

// Hydrate fills keys missing from any scenario's allocations, rates and
// income sources with the country defaults. Existing values are never
// overwritten. It reports whether anything was added.
func Hydrate(plan *domain.Plan, profile *instruments.CountryProfile, age int) bool {
	if plan == nil || profile == nil {
		return false
	}
	defaults := DefaultScenario(profile, age)
	if defaults == nil {
		return false
	}

	changed := false
	for _, sc := range plan.Scenarios {
		if sc == nil {
			continue
		}
		if sc.Allocations == nil {
			sc.Allocations = make(domain.Allocation)
		}
		if sc.Rates == nil {
			sc.Rates = make(domain.RateTable)
		}
		if sc.IncomeSources == nil {
			sc.IncomeSources = make(domain.IncomeSources)
		}
		for k, v := range defaults.Allocations {
			if _, ok := sc.Allocations[k]; !ok {
				sc.Allocations[k] = v
				changed = true
			}
		}
		for k, v := range defaults.Rates {
			if _, ok := sc.Rates[k]; !ok {
				sc.Rates[k] = v
				changed = true
			}
		}
		for k, v := range defaults.IncomeSources {
			if _, ok := sc.IncomeSources[k]; !ok {
				sc.IncomeSources[k] = v
				changed = true
			}
		}
	}
	return changed
}

// Clone copies the active scenario under the next free "Scenario N" name and
// makes the copy active.
func Clone(plan *domain.Plan) (string, error) {
	if len(plan.Scenarios) >= MaxScenarios {
		return "", fmt.Errorf("%w: at most %d scenarios", ErrScenarioLimit, MaxScenarios)
	}
	src := plan.Active()
	if src == nil {
		return "", fmt.Errorf("%w: %q", ErrUnknownScenario, plan.ActiveScenario)
	}

	n := len(plan.Scenarios)
	name := fmt.Sprintf("Scenario %d", n)
	for {
		if _, taken := plan.Scenarios[name]; !taken {
			break
		}
		n++
		name = fmt.Sprintf("Scenario %d", n)
	}

	plan.Scenarios[name] = src.DeepCopy()
	plan.ActiveScenario = name
	return name, nil
}

// Delete removes a scenario. Base cannot be deleted. Deleting the active
// scenario makes Base active.
func Delete(plan *domain.Plan, name string) error {
	if strings.EqualFold(name, domain.BaseScenario) {
		return ErrBaseScenario
	}
	if _, ok := plan.Scenarios[name]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownScenario, name)
	}
	delete(plan.Scenarios, name)
	if plan.ActiveScenario == name {
		plan.ActiveScenario = domain.BaseScenario
	}
	return nil
}

// Select makes name the active scenario.
func Select(plan *domain.Plan, name string) error {
	if _, ok := plan.Scenarios[name]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownScenario, name)
	}
	plan.ActiveScenario = name
	return nil
}
