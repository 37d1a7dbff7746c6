package allocation

import (
	"fmt"

	"github.com/rgehrsitz/corpusplan/internal/domain"
	"github.com/rgehrsitz/corpusplan/internal/instruments"
	"github.com/shopspring/decimal"
)

// Model is a ready-to-use starting point for a new plan.
type Model struct {
	Country     string                     `json:"country"`
	Age         int                        `json:"age"`
	Allocations domain.Allocation          `json:"allocations"`
	Rates       domain.RateTable           `json:"rates"`
	Amounts     map[string]decimal.Decimal `json:"amounts"`
}

// BuildModel returns the country's age-banded default allocation with
// ineligible instruments zeroed, rescaled to 100 and rounded to 2 decimals.
// Amounts are computed against totalCorpus; with no corpus they are all zero.
func BuildModel(profile *instruments.CountryProfile, age int, totalCorpus decimal.Decimal) (*Model, error) {
	if profile == nil || profile.Model == nil {
		return nil, fmt.Errorf("build model: %w", instruments.ErrUnsupportedCountry)
	}

	raw, rates := profile.Model(age)
	a := FilterEligible(raw, age, profile.Rules, Zero)
	a = Round(Normalize(a), 2)

	return &Model{
		Country:     profile.Code,
		Age:         age,
		Allocations: a,
		Rates:       rates,
		Amounts:     ToAmounts(totalCorpus, a),
	}, nil
}
