package instruments

import (
	"github.com/rgehrsitz/corpusplan/internal/domain"
	"github.com/shopspring/decimal"
)

// Instrument keys.
const (
	SWP       = "SWP"
	FD        = "FD"
	SCSS      = "SCSS"
	POMIS     = "POMIS"
	K401      = "401K"
	IRA       = "IRA"
	Brokerage = "BROKERAGE"
	Pension   = "PENSION"
	ISA       = "ISA"
)

// India government limits, in rupees.
const (
	SCSSMinAge        = 60
	SCSSMaxInvestment = 30_00_000
	POMISMaxSingle    = 4_50_000
	POMISMaxJoint     = 9_00_000
)

func dec(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

func alloc(pairs map[string]float64) domain.Allocation {
	return domain.NewAllocation(pairs)
}

func rates(pairs map[string]float64) domain.RateTable {
	out := make(domain.RateTable, len(pairs))
	for k, v := range pairs {
		out[k] = dec(v)
	}
	return out
}

func income(pairs map[string]float64) domain.IncomeSources {
	out := make(domain.IncomeSources, len(pairs))
	for k, v := range pairs {
		out[k] = dec(v)
	}
	return out
}

func open(name string) domain.InstrumentRule {
	return domain.InstrumentRule{Name: name, Enabled: true}
}

func indiaProfile() *CountryProfile {
	full := domain.DecimalPtr(100)
	return &CountryProfile{
		Code:     "IN",
		Currency: "₹",
		Fields: []Field{
			{Key: SWP, Label: "SWP / Market Linked"},
			{Key: FD, Label: "Fixed Deposits"},
			{Key: SCSS, Label: "Senior Citizen Savings"},
			{Key: POMIS, Label: "Post Office MIS"},
		},
		Rules: domain.RuleSet{
			SWP: {Name: SWP, MaxAllocationPct: full, Enabled: true},
			FD:  {Name: FD, MaxAllocationPct: full, Enabled: true},
			SCSS: {
				Name:                SCSS,
				MinAge:              domain.IntPtr(SCSSMinAge),
				MaxAllocationPct:    full,
				MaxInvestmentAmount: domain.DecimalPtr(SCSSMaxInvestment),
				Enabled:             true,
			},
			POMIS: {
				Name:                POMIS,
				MaxAllocationPct:    full,
				MaxInvestmentAmount: domain.DecimalPtr(POMISMaxSingle),
				Enabled:             true,
			},
		},
		Absorber: SWP,
		Model:    indiaModel,
		IncomeSources: income(map[string]float64{
			"rental":    20000,
			"pension":   2000,
			"annuity":   1500,
			"dividends": 200000,
			"other":     50000,
		}),
		MonthlyWithdrawal: dec(10000),
		IncomeKeys:        []string{"rental", "pension", "annuity", "dividends", "other"},
	}
}

// indiaModel is age banded: retirement (60+), pre-retirement (45+), growth.
func indiaModel(age int) (domain.Allocation, domain.RateTable) {
	var a domain.Allocation
	switch {
	case age >= 60:
		a = alloc(map[string]float64{SWP: 35, FD: 25, SCSS: 25, POMIS: 15})
	case age >= 45:
		a = alloc(map[string]float64{SWP: 55, FD: 30, SCSS: 0, POMIS: 15})
	default:
		a = alloc(map[string]float64{SWP: 70, FD: 20, SCSS: 0, POMIS: 10})
	}
	return a, rates(map[string]float64{SWP: 8.0, FD: 6.5, SCSS: 8.2, POMIS: 7.4})
}

func usProfile() *CountryProfile {
	return &CountryProfile{
		Code:     "US",
		Currency: "$",
		Fields: []Field{
			{Key: SWP, Label: "SWP / Market Linked"},
			{Key: K401, Label: "401(k)"},
			{Key: IRA, Label: "IRA"},
			{Key: Brokerage, Label: "Brokerage"},
		},
		Rules: domain.RuleSet{
			SWP:       open(SWP),
			K401:      open(K401),
			IRA:       open(IRA),
			Brokerage: open(Brokerage),
		},
		Absorber: SWP,
		Model: func(int) (domain.Allocation, domain.RateTable) {
			return alloc(map[string]float64{SWP: 50, K401: 25, IRA: 15, Brokerage: 10}),
				rates(map[string]float64{SWP: 7.5, K401: 7.0, IRA: 6.5, Brokerage: 6.0})
		},
		IncomeSources: income(map[string]float64{
			"social_security": 2000,
			"rental":          0,
			"pension":         0,
			"annuity":         0,
			"dividends":       0,
			"other":           0,
		}),
		MonthlyWithdrawal: dec(2000),
		IncomeKeys:        []string{"social_security", "rental", "pension", "annuity", "dividends", "other"},
	}
}

func ukProfile() *CountryProfile {
	return &CountryProfile{
		Code:     "UK",
		Currency: "£",
		Fields: []Field{
			{Key: SWP, Label: "SWP / Market Linked"},
			{Key: Pension, Label: "Pension"},
			{Key: ISA, Label: "ISA"},
		},
		Rules: domain.RuleSet{
			SWP:     open(SWP),
			Pension: open(Pension),
			ISA:     open(ISA),
		},
		Absorber: SWP,
		Model: func(int) (domain.Allocation, domain.RateTable) {
			return alloc(map[string]float64{SWP: 45, Pension: 35, ISA: 20}),
				rates(map[string]float64{SWP: 7.0, Pension: 6.5, ISA: 6.0})
		},
		IncomeSources: income(map[string]float64{
			"rental":    0,
			"pension":   0,
			"annuity":   0,
			"dividends": 0,
			"other":     0,
		}),
		MonthlyWithdrawal: dec(1000),
		IncomeKeys:        []string{"rental", "pension", "annuity", "dividends", "other"},
	}
}
