package scenario

import (
	"testing"

	"github.com/rgehrsitz/corpusplan/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestVisibleIncomeSources(t *testing.T) {
	in := profileFor(t, "IN")
	us := profileFor(t, "US")

	tests := []struct {
		name  string
		stage domain.LifeStage
		want  []string
	}{
		{"early", domain.StageEarly, []string{"rental", "dividends", "other"}},
		{"mid", domain.StageMid, []string{"rental", "annuity", "dividends", "other"}},
		{"retirement", domain.StageRetirement, []string{"rental", "pension", "annuity", "dividends", "other"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, VisibleIncomeSources(tt.stage, in))
		})
	}

	assert.Equal(t, []string{"social_security", "rental", "dividends", "other"}, VisibleIncomeSources(domain.StageEarly, us))
}

func TestIncomeFrequency(t *testing.T) {
	assert.Equal(t, Monthly, IncomeFrequency("rental"))
	assert.Equal(t, Monthly, IncomeFrequency("social_security"))
	assert.Equal(t, Yearly, IncomeFrequency("dividends"))
	assert.Equal(t, Yearly, IncomeFrequency("other"))
	assert.Equal(t, Monthly, IncomeFrequency("lottery"))
}

func TestAnnualIncome(t *testing.T) {
	total := AnnualIncome(profileFor(t, "IN").IncomeSources)
	assertDec(t, "532000", total)

	assert.True(t, AnnualIncome(nil).IsZero())
	assertDec(t, "1200", Annualize("pension", decimal.NewFromInt(100)))
	assertDec(t, "100", Annualize("dividends", decimal.NewFromInt(100)))
}

func TestPriorityInstruments(t *testing.T) {
	in := profileFor(t, "IN")
	us := profileFor(t, "US")

	assert.Equal(t, []string{"SWP"}, PriorityInstruments(domain.StageEarly, 30, in))
	assert.Equal(t, []string{"FD", "SWP"}, PriorityInstruments(domain.StageMid, 45, in))
	assert.Equal(t, []string{"POMIS", "FD"}, PriorityInstruments(domain.StageRetirement, 58, in))
	assert.Equal(t, []string{"POMIS", "FD", "SCSS"}, PriorityInstruments(domain.StageRetirement, 65, in))

	assert.Equal(t, []string{"SWP"}, PriorityInstruments(domain.StageMid, 45, us))
	assert.Empty(t, PriorityInstruments(domain.StageRetirement, 70, us))
}

func TestIncomeBreakdown(t *testing.T) {
	in := profileFor(t, "IN")
	sc := DefaultScenario(in, 65)

	b := IncomeBreakdown(in, sc, decimal.NewFromInt(1_000_000))

	assert.Len(t, b.Rows, 4)
	assert.Equal(t, "SWP", b.Rows[0].Instrument)
	assert.Equal(t, "SWP / Market Linked", b.Rows[0].Label)
	assertDec(t, "350000", b.Rows[0].Amount)
	assertDec(t, "28000", b.Rows[0].YearlyIncome)
	assertDec(t, "16250", b.Rows[1].YearlyIncome)
	assertDec(t, "20500", b.Rows[2].YearlyIncome)
	assertDec(t, "11100", b.Rows[3].YearlyIncome)
	assertDec(t, "75900", b.IncomeTotal)
	assertDec(t, "1000000", b.AmountTotal)
	assert.False(t, b.OffTarget)

	sc.Allocations["SWP"] = decimal.NewFromInt(10)
	assert.True(t, IncomeBreakdown(in, sc, decimal.NewFromInt(1_000_000)).OffTarget)
}

func TestSeedFromFields(t *testing.T) {
	sc := &domain.Scenario{
		Allocations: domain.NewAllocation(map[string]float64{"SWP": 40}),
	}
	fields := []FieldTemplate{
		{Name: "ALLOC_SWP", Default: decimal.NewFromInt(60)},
		{Name: "ALLOC_FD", Default: decimal.NewFromInt(140)},
		{Name: "RATE_SWP", Default: decimal.NewFromInt(9)},
		{Name: "INCOME_rental", Default: decimal.NewFromInt(100)},
		{Name: "GLAge", Default: decimal.NewFromInt(45)},
		{Name: "ALLOC_", Default: decimal.NewFromInt(1)},
	}

	assert.True(t, SeedFromFields(sc, fields))
	assertDec(t, "40", sc.Allocations["SWP"], "existing keys are kept")
	assertDec(t, "100", sc.Allocations["FD"], "allocations are clamped")
	assertDec(t, "9", sc.Rates["SWP"])
	assertDec(t, "100", sc.IncomeSources["rental"])
	assert.Len(t, sc.Allocations, 2)

	assert.False(t, SeedFromFields(sc, fields))
}
