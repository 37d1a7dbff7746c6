package compare

import (
	"strings"
	"testing"

	"github.com/rgehrsitz/corpusplan/internal/domain"
	"github.com/rgehrsitz/corpusplan/internal/instruments"
	"github.com/rgehrsitz/corpusplan/internal/scenario"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func indiaPlan(t *testing.T) *domain.Plan {
	t.Helper()
	p, err := instruments.NewRegistry().Profile("IN")
	require.NoError(t, err)
	plan := domain.NewPlan()
	scenario.EnsureScenarios(plan, p, 35)
	return plan
}

func findDelta(deltas []AssumptionDelta, section, key string) *AssumptionDelta {
	for i := range deltas {
		if deltas[i].Section == section && deltas[i].Key == key {
			return &deltas[i]
		}
	}
	return nil
}

func TestDiffScenarios(t *testing.T) {
	plan := indiaPlan(t)
	base := plan.Scenarios[domain.BaseScenario]
	cons := plan.Scenarios[domain.ConservativeScenario]

	deltas := DiffScenarios(base, cons)

	// 4 allocations + 4 rates + 5 income sources + withdrawal
	assert.Len(t, deltas, 14)
	assert.Equal(t, SectionAllocations, deltas[0].Section)
	assert.Equal(t, SectionWithdrawal, deltas[len(deltas)-1].Section)

	swp := findDelta(deltas, SectionAllocations, "SWP")
	require.NotNil(t, swp)
	assert.Equal(t, "-15", swp.Change.String())
	require.NotNil(t, swp.PctChange)
	assert.Equal(t, "-21.43", swp.PctChange.String())

	scss := findDelta(deltas, SectionAllocations, "SCSS")
	require.NotNil(t, scss)
	assert.True(t, scss.Change.IsZero())
	assert.Nil(t, scss.PctChange, "no percent change from zero")

	w := findDelta(deltas, SectionWithdrawal, "monthly")
	require.NotNil(t, w)
	assert.Equal(t, "-20", w.PctChange.String())
}

func TestDiffScenarios_OneSidedKeys(t *testing.T) {
	left := &domain.Scenario{Rates: domain.RateTable{"FD": decimal.NewFromInt(6)}}
	right := &domain.Scenario{Rates: domain.RateTable{"ISA": decimal.NewFromInt(5)}}

	deltas := Changed(DiffScenarios(left, right))

	assert.Len(t, deltas, 2)
	assert.Equal(t, "FD", deltas[0].Key)
	assert.Equal(t, "-6", deltas[0].Change.String())
	assert.Equal(t, "ISA", deltas[1].Key)
	assert.Nil(t, deltas[1].PctChange)

	assert.NotPanics(t, func() { DiffScenarios(nil, nil) })
}

func TestBlendedRate(t *testing.T) {
	plan := indiaPlan(t)

	assert.Equal(t, "7.64", BlendedRate(plan.Scenarios[domain.BaseScenario]).String())
	assert.Equal(t, "6.34", BlendedRate(plan.Scenarios[domain.ConservativeScenario]).String())
	assert.Equal(t, "8.99", BlendedRate(plan.Scenarios[domain.AggressiveScenario]).String())
}

func TestCompareEngine_Compare(t *testing.T) {
	engine := NewCompareEngine(instruments.SWP)

	compSet, err := engine.Compare(indiaPlan(t), CompareOptions{
		BaseScenarioName: domain.BaseScenario,
		Templates:        []string{"conservative", "aggressive"},
	})
	require.NoError(t, err)

	require.Len(t, compSet.AlternativeResults, 2)
	cons := compSet.AlternativeResults[0]
	assert.Equal(t, "Base_conservative", cons.ScenarioName)
	assert.NotEmpty(t, cons.Description)
	assert.Equal(t, "-1.3", cons.RateDiffFromBase.String())
	assert.Equal(t, "-2000", cons.WithdrawalDiffFromBase.String())
	assert.True(t, cons.IncomeDiffFromBase.IsZero())
	assert.Nil(t, findDelta(cons.Deltas, SectionAllocations, "SCSS"), "unchanged rows are dropped")

	require.Len(t, compSet.Recommendations, 2)
	assert.True(t, strings.HasPrefix(compSet.Recommendations[0], "Highest Expected Yield: Base_aggressive"))
	assert.Contains(t, compSet.Recommendations[1], "Base_conservative draws 2000 less")
}

func TestCompareEngine_Errors(t *testing.T) {
	engine := NewCompareEngine(instruments.SWP)
	plan := indiaPlan(t)

	_, err := engine.Compare(plan, CompareOptions{BaseScenarioName: "Missing"})
	assert.Error(t, err)

	_, err = engine.Compare(plan, CompareOptions{BaseScenarioName: domain.BaseScenario, Templates: []string{"nope"}})
	assert.Error(t, err)

	_, err = engine.CompareScenarios(plan, domain.BaseScenario, []string{"Missing"})
	assert.Error(t, err)
}

func TestCompareEngine_CompareScenarios(t *testing.T) {
	engine := NewCompareEngine(instruments.SWP)

	compSet, err := engine.CompareScenarios(indiaPlan(t), domain.BaseScenario, []string{domain.AggressiveScenario})
	require.NoError(t, err)

	assert.Equal(t, "70", compSet.BaseResult.GrowthShare.String())
	agg := compSet.AlternativeResults[0]
	assert.Equal(t, "85", agg.GrowthShare.String())
	assert.Equal(t, "1.35", agg.RateDiffFromBase.String())
	assert.Len(t, compSet.Recommendations, 1)
}

func TestGenerateRecommendations_EmptyAlternatives(t *testing.T) {
	compSet := &ComparisonSet{BaseResult: &ComparisonResult{ScenarioName: "Base"}}
	assert.Empty(t, GenerateRecommendations(compSet))
}
