package domain

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserProfile_WireMapRoundTrip(t *testing.T) {
	plan := NewPlan()
	plan.Scenarios[BaseScenario] = &Scenario{
		Allocations: NewAllocation(map[string]float64{"SWP": 62.5, "FD": 37.5}),
		Rates:       RateTable{"SWP": decimal.NewFromInt(8)},
		Withdrawal:  NewWithdrawal(decimal.NewFromInt(25000)),
	}
	in := &UserProfile{
		Username:       "ravi",
		Country:        "IN",
		Age:            61,
		Corpus:         Corpus{"PF": decimal.NewFromInt(500000)},
		InvestmentPlan: plan,
		Extra:          map[string]any{"expenses": []any{"rent"}},
	}

	data, err := json.Marshal(in.WireMap())
	require.NoError(t, err)
	assert.Contains(t, string(data), `"SWP":62.5`)
	assert.Contains(t, string(data), `"income_sources":{}`, "nil income renders as an empty object")

	out, err := ParseUserData(data)
	require.NoError(t, err)
	assert.Equal(t, "ravi", out.Username)
	assert.Equal(t, 61, out.Age)
	assert.Equal(t, "500000", out.Corpus["PF"].String())
	assert.Equal(t, []any{"rent"}, out.Extra["expenses"])

	base := out.InvestmentPlan.Scenarios[BaseScenario]
	require.NotNil(t, base)
	assert.Equal(t, "62.5", base.Allocations["SWP"].String())
	assert.Equal(t, "25000", base.Withdrawal.Monthly.String())
	assert.Equal(t, BaseScenario, out.InvestmentPlan.ActiveScenario)
}

func TestParseUserData_PartialAndNull(t *testing.T) {
	out, err := ParseUserData([]byte(`{"country": "US", "investment_plan": {"active_scenario": "Base"}, "age": null}`))
	require.NoError(t, err)
	assert.Equal(t, "US", out.Country)
	assert.Equal(t, 0, out.Age)
	require.NotNil(t, out.InvestmentPlan)
	assert.NotNil(t, out.InvestmentPlan.Scenarios, "missing scenarios map is created")
	assert.Nil(t, out.Extra)
}

func TestParseUserData_Invalid(t *testing.T) {
	_, err := ParseUserData([]byte(`[1,2]`))
	assert.Error(t, err)

	_, err = ParseUserData([]byte(`{"age": "old"}`))
	assert.Error(t, err)
}

func TestUserProfile_IsZero(t *testing.T) {
	var nilProfile *UserProfile
	assert.True(t, nilProfile.IsZero())
	assert.True(t, (&UserProfile{Username: "guest"}).IsZero(), "a bare username is nothing to save")
	assert.False(t, (&UserProfile{Country: "UK"}).IsZero())
}
