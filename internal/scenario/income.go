package scenario

import (
	"github.com/rgehrsitz/corpusplan/internal/domain"
	"github.com/rgehrsitz/corpusplan/internal/instruments"
	"github.com/shopspring/decimal"
)

// Frequency is how often an income source pays out.
type Frequency string

const (
	Monthly Frequency = "monthly"
	Yearly  Frequency = "yearly"
)

var incomeFrequency = map[string]Frequency{
	"rental":          Monthly,
	"pension":         Monthly,
	"annuity":         Monthly,
	"social_security": Monthly,
	"dividends":       Yearly,
	"other":           Yearly,
}

var twelve = decimal.NewFromInt(12)

// IncomeFrequency returns the payout frequency of an income source. Unknown
// sources are monthly.
func IncomeFrequency(key string) Frequency {
	if f, ok := incomeFrequency[key]; ok {
		return f
	}
	return Monthly
}

// Annualize converts a raw income amount to its yearly equivalent.
func Annualize(key string, amount decimal.Decimal) decimal.Decimal {
	if IncomeFrequency(key) == Monthly {
		return amount.Mul(twelve)
	}
	return amount
}

// AnnualIncome sums every source at its yearly equivalent.
func AnnualIncome(sources domain.IncomeSources) decimal.Decimal {
	total := decimal.Zero
	for k, v := range sources {
		total = total.Add(Annualize(k, v))
	}
	return total
}

// VisibleIncomeSources returns the income keys offered at a life stage, in
// the country's display order. Early hides pension and annuity; mid hides
// pension.
func VisibleIncomeSources(stage domain.LifeStage, profile *instruments.CountryProfile) []string {
	hidden := map[string]bool{}
	switch stage {
	case domain.StageEarly:
		hidden["pension"] = true
		hidden["annuity"] = true
	case domain.StageMid:
		hidden["pension"] = true
	}

	out := make([]string, 0, len(profile.IncomeKeys))
	for _, k := range profile.IncomeKeys {
		if !hidden[k] {
			out = append(out, k)
		}
	}
	return out
}

var stagePriority = map[domain.LifeStage][]string{
	domain.StageEarly:      {instruments.SWP},
	domain.StageMid:        {instruments.FD, instruments.SWP},
	domain.StageRetirement: {instruments.POMIS, instruments.FD},
}

// PriorityInstruments returns the instruments a UI should highlight for a
// life stage, limited to those the country offers. SCSS joins the
// retirement list once the holder is old enough.
func PriorityInstruments(stage domain.LifeStage, age int, profile *instruments.CountryProfile) []string {
	candidates := append([]string(nil), stagePriority[stage]...)
	if stage == domain.StageRetirement && age >= instruments.SCSSMinAge {
		candidates = append(candidates, instruments.SCSS)
	}

	out := make([]string, 0, len(candidates))
	for _, k := range candidates {
		if _, ok := profile.Rules[k]; ok {
			out = append(out, k)
		}
	}
	return out
}
