// Package output renders plan summaries for the command line.
package output

import (
	"github.com/shopspring/decimal"

	"github.com/rgehrsitz/corpusplan/internal/domain"
	"github.com/rgehrsitz/corpusplan/internal/instruments"
	"github.com/rgehrsitz/corpusplan/internal/scenario"
)

// ScenarioSummary is one scenario's income breakdown.
type ScenarioSummary struct {
	Name              string             `json:"name"`
	Active            bool               `json:"active"`
	MonthlyWithdrawal decimal.Decimal    `json:"monthly_withdrawal"`
	OtherIncome       decimal.Decimal    `json:"other_income_yearly"`
	Breakdown         scenario.Breakdown `json:"breakdown"`
}

// PlanSummary is everything the formatters render for one profile.
type PlanSummary struct {
	Username    string            `json:"username,omitempty"`
	Country     string            `json:"country"`
	Currency    string            `json:"currency"`
	Age         int               `json:"age"`
	Stage       domain.LifeStage  `json:"stage"`
	TotalCorpus decimal.Decimal   `json:"total_corpus"`
	Priority    []string          `json:"priority_instruments"`
	Scenarios   []ScenarioSummary `json:"scenarios"`
}

// NewPlanSummary builds a summary of every scenario in the profile's plan,
// Base first.
func NewPlanSummary(p *domain.UserProfile, cp *instruments.CountryProfile) *PlanSummary {
	total := p.Corpus.Total()
	stage := domain.StageForAge(p.Age)
	s := &PlanSummary{
		Username:    p.Username,
		Country:     cp.Code,
		Currency:    cp.Currency,
		Age:         p.Age,
		Stage:       stage,
		TotalCorpus: total,
		Priority:    scenario.PriorityInstruments(stage, p.Age, cp),
	}
	for _, name := range p.InvestmentPlan.Names() {
		sc := p.InvestmentPlan.Scenarios[name]
		s.Scenarios = append(s.Scenarios, ScenarioSummary{
			Name:              name,
			Active:            name == p.InvestmentPlan.ActiveScenario,
			MonthlyWithdrawal: sc.Withdrawal.Monthly,
			OtherIncome:       scenario.AnnualIncome(sc.IncomeSources),
			Breakdown:         scenario.IncomeBreakdown(cp, sc, total),
		})
	}
	return s
}

// FormatCurrency formats a decimal as currency
func FormatCurrency(symbol string, amount decimal.Decimal) string {
	return symbol + amount.StringFixed(2)
}

// FormatPercentage formats a decimal as percentage
func FormatPercentage(amount decimal.Decimal) string {
	return amount.StringFixed(2) + "%"
}
