package domain

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Keys of the user_data envelope owned by UserProfile. Everything else is
// carried through Extra untouched.
const (
	wireUsername        = "username"
	wireCountry         = "country"
	wireAge             = "age"
	wireProjectionYears = "projection_years"
	wireCorpus          = "initial_corpus"
	wirePlan            = "investment_plan"
	wireJointPOMIS      = "pomis_joint"
)

func floats[M ~map[string]decimal.Decimal](m M) map[string]float64 {
	if m == nil {
		return nil
	}
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[k] = v.InexactFloat64()
	}
	return out
}

// WireMap renders the scenario with plain float numbers.
func (s *Scenario) WireMap() map[string]any {
	income := floats(s.IncomeSources)
	if income == nil {
		income = map[string]float64{}
	}
	return map[string]any{
		"allocations":    floats(s.Allocations),
		"rates":          floats(s.Rates),
		"income_sources": income,
		"withdrawal":     map[string]float64{"monthly": s.Withdrawal.Monthly.InexactFloat64()},
	}
}

// WireMap renders the profile as the user_data dictionary exchanged with the
// backend. Numbers are plain JSON floats.
func (u *UserProfile) WireMap() map[string]any {
	out := make(map[string]any, len(u.Extra)+6)
	for k, v := range u.Extra {
		out[k] = v
	}
	if u.Username != "" {
		out[wireUsername] = u.Username
	}
	if u.Country != "" {
		out[wireCountry] = u.Country
	}
	if u.Age > 0 {
		out[wireAge] = u.Age
	}
	if u.ProjectionYrs > 0 {
		out[wireProjectionYears] = u.ProjectionYrs
	}
	if u.Corpus != nil {
		out[wireCorpus] = floats(u.Corpus)
	}
	if u.JointPOMIS {
		out[wireJointPOMIS] = true
	}
	if u.InvestmentPlan != nil {
		scenarios := make(map[string]any, len(u.InvestmentPlan.Scenarios))
		for name, sc := range u.InvestmentPlan.Scenarios {
			if sc != nil {
				scenarios[name] = sc.WireMap()
			}
		}
		out[wirePlan] = map[string]any{
			"active_scenario": u.InvestmentPlan.ActiveScenario,
			"scenarios":       scenarios,
		}
	}
	return out
}

// ParseUserData decodes a user_data dictionary. Known keys populate the
// profile; unknown keys land in Extra. Stale or partial plans are accepted as
// they are and left for hydration.
func ParseUserData(data []byte) (*UserProfile, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode user data: %w", err)
	}

	u := &UserProfile{}
	decoders := map[string]any{
		wireUsername:        &u.Username,
		wireCountry:         &u.Country,
		wireAge:             &u.Age,
		wireProjectionYears: &u.ProjectionYrs,
		wireCorpus:          &u.Corpus,
		wirePlan:            &u.InvestmentPlan,
		wireJointPOMIS:      &u.JointPOMIS,
	}

	for key, value := range raw {
		target, known := decoders[key]
		if !known {
			var v any
			if err := json.Unmarshal(value, &v); err != nil {
				return nil, fmt.Errorf("decode user data field %q: %w", key, err)
			}
			if u.Extra == nil {
				u.Extra = make(map[string]any)
			}
			u.Extra[key] = v
			continue
		}
		if string(value) == "null" {
			continue
		}
		if err := json.Unmarshal(value, target); err != nil {
			return nil, fmt.Errorf("decode user data field %q: %w", key, err)
		}
	}

	if u.InvestmentPlan != nil && u.InvestmentPlan.Scenarios == nil {
		u.InvestmentPlan.Scenarios = make(map[string]*Scenario)
	}
	return u, nil
}
