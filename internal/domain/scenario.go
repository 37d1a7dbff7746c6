package domain

import (
	"sort"
)

// Well-known scenario names.
const (
	BaseScenario         = "Base"
	ConservativeScenario = "Conservative"
	AggressiveScenario   = "Aggressive"
)

// Scenario is a named, self-contained set of allocation, rate, income and
// withdrawal assumptions used to generate one projection run.
type Scenario struct {
	Allocations   Allocation    `yaml:"allocations" json:"allocations"`
	Rates         RateTable     `yaml:"rates" json:"rates"`
	IncomeSources IncomeSources `yaml:"income_sources" json:"income_sources"`
	Withdrawal    Withdrawal    `yaml:"withdrawal" json:"withdrawal"`
}

// IsEmpty reports whether the scenario is structurally incomplete: nil, no
// allocations, no rates, or no income_sources key at all.
func (s *Scenario) IsEmpty() bool {
	if s == nil {
		return true
	}
	if len(s.Allocations) == 0 || len(s.Rates) == 0 {
		return true
	}
	return s.IncomeSources == nil
}

// DeepCopy returns a fully independent copy of the scenario.
func (s *Scenario) DeepCopy() *Scenario {
	if s == nil {
		return nil
	}
	return &Scenario{
		Allocations:   s.Allocations.Clone(),
		Rates:         s.Rates.Clone(),
		IncomeSources: s.IncomeSources.Clone(),
		Withdrawal:    s.Withdrawal,
	}
}

// Plan owns the named scenarios of one user context and tracks which one is
// active. ActiveScenario must always key into Scenarios.
type Plan struct {
	ActiveScenario string               `yaml:"active_scenario" json:"active_scenario"`
	Scenarios      map[string]*Scenario `yaml:"scenarios" json:"scenarios"`
}

// NewPlan returns an empty plan pointing at Base.
func NewPlan() *Plan {
	return &Plan{
		ActiveScenario: BaseScenario,
		Scenarios:      make(map[string]*Scenario),
	}
}

// Active returns the active scenario, or nil when it does not exist.
func (p *Plan) Active() *Scenario {
	if p == nil || p.Scenarios == nil {
		return nil
	}
	return p.Scenarios[p.ActiveScenario]
}

// Names returns scenario names with Base first and the rest sorted.
func (p *Plan) Names() []string {
	if p == nil {
		return nil
	}
	names := make([]string, 0, len(p.Scenarios))
	for name := range p.Scenarios {
		if name != BaseScenario {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	if _, ok := p.Scenarios[BaseScenario]; ok {
		names = append([]string{BaseScenario}, names...)
	}
	return names
}

// DeepCopy returns an independent copy of the plan and all its scenarios.
func (p *Plan) DeepCopy() *Plan {
	if p == nil {
		return nil
	}
	out := &Plan{
		ActiveScenario: p.ActiveScenario,
		Scenarios:      make(map[string]*Scenario, len(p.Scenarios)),
	}
	for name, sc := range p.Scenarios {
		out.Scenarios[name] = sc.DeepCopy()
	}
	return out
}
