package scenario

import (
	"github.com/rgehrsitz/corpusplan/internal/allocation"
	"github.com/rgehrsitz/corpusplan/internal/domain"
	"github.com/rgehrsitz/corpusplan/internal/instruments"
	"github.com/shopspring/decimal"
)

// BreakdownRow is one instrument's share of the corpus and the yearly income
// it is expected to produce.
type BreakdownRow struct {
	Instrument    string          `json:"instrument"`
	Label         string          `json:"label"`
	AllocationPct decimal.Decimal `json:"allocation_pct"`
	RatePct       decimal.Decimal `json:"rate_pct"`
	Amount        decimal.Decimal `json:"amount"`
	YearlyIncome  decimal.Decimal `json:"yearly_income"`
}

// Breakdown is the per-instrument table for one scenario.
type Breakdown struct {
	Rows            []BreakdownRow  `json:"rows"`
	AllocationTotal decimal.Decimal `json:"allocation_total"`
	AmountTotal     decimal.Decimal `json:"amount_total"`
	IncomeTotal     decimal.Decimal `json:"income_total"`
	// OffTarget is set when the allocation total is outside tolerance of 100.
	OffTarget bool `json:"off_target"`
}

// IncomeBreakdown lists every instrument the country offers, in display
// order, with its allocated amount of totalCorpus and estimated yearly
// income at the scenario's rate.
func IncomeBreakdown(profile *instruments.CountryProfile, sc *domain.Scenario, totalCorpus decimal.Decimal) Breakdown {
	var b Breakdown
	for _, f := range profile.Fields {
		pct := sc.Allocations.Get(f.Key)
		rate := sc.Rates.Get(f.Key)
		amount := totalCorpus.Mul(pct).Div(domain.Hundred).Round(2)
		yearly := amount.Mul(rate).Div(domain.Hundred).Round(2)

		b.Rows = append(b.Rows, BreakdownRow{
			Instrument:    f.Key,
			Label:         f.Label,
			AllocationPct: pct.Round(2),
			RatePct:       rate,
			Amount:        amount,
			YearlyIncome:  yearly,
		})
		b.AllocationTotal = b.AllocationTotal.Add(pct)
		b.AmountTotal = b.AmountTotal.Add(amount)
		b.IncomeTotal = b.IncomeTotal.Add(yearly)
	}
	b.OffTarget = b.AllocationTotal.Sub(domain.Hundred).Abs().GreaterThan(allocation.Tolerance)
	return b
}
