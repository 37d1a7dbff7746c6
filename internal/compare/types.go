package compare

import (
	"fmt"
	"sort"

	"github.com/rgehrsitz/corpusplan/internal/domain"
	"github.com/rgehrsitz/corpusplan/internal/scenario"
	"github.com/shopspring/decimal"
)

// Assumption sections compared between scenarios.
const (
	SectionAllocations = "allocations"
	SectionRates       = "rates"
	SectionIncome      = "income_sources"
	SectionWithdrawal  = "withdrawal"
)

// AssumptionDelta is the difference of one assumption between two scenarios.
type AssumptionDelta struct {
	Section string          `json:"section"`
	Key     string          `json:"key"`
	Left    decimal.Decimal `json:"left"`
	Right   decimal.Decimal `json:"right"`
	Change  decimal.Decimal `json:"change"`
	// PctChange is nil when Left is zero.
	PctChange *decimal.Decimal `json:"pctChange,omitempty"`
}

// ComparisonResult represents a single scenario with its headline metrics
type ComparisonResult struct {
	ScenarioName string `json:"scenarioName"`
	Description  string `json:"description,omitempty"`

	// Key Metrics
	BlendedRate       decimal.Decimal `json:"blendedRate"`
	AnnualIncome      decimal.Decimal `json:"annualIncome"`
	MonthlyWithdrawal decimal.Decimal `json:"monthlyWithdrawal"`
	GrowthShare       decimal.Decimal `json:"growthShare"`

	// Comparison to Base
	RateDiffFromBase       decimal.Decimal   `json:"rateDiffFromBase"`
	IncomeDiffFromBase     decimal.Decimal   `json:"incomeDiffFromBase"`
	WithdrawalDiffFromBase decimal.Decimal   `json:"withdrawalDiffFromBase"`
	Deltas                 []AssumptionDelta `json:"deltas,omitempty"`
}

// ComparisonSet represents a collection of scenario comparisons
type ComparisonSet struct {
	BaseScenarioName   string             `json:"baseScenarioName"`
	BaseResult         *ComparisonResult  `json:"baseResult"`
	AlternativeResults []ComparisonResult `json:"alternativeResults"`
	Recommendations    []string           `json:"recommendations"`
}

// DiffScenarios compares every assumption of left and right. Keys present on
// only one side compare against zero. Rows are ordered by section, then key.
func DiffScenarios(left, right *domain.Scenario) []AssumptionDelta {
	if left == nil {
		left = &domain.Scenario{}
	}
	if right == nil {
		right = &domain.Scenario{}
	}

	var out []AssumptionDelta
	out = append(out, diffSection(SectionAllocations, left.Allocations, right.Allocations)...)
	out = append(out, diffSection(SectionRates, left.Rates, right.Rates)...)
	out = append(out, diffSection(SectionIncome, left.IncomeSources, right.IncomeSources)...)
	out = append(out, newDelta(SectionWithdrawal, "monthly", left.Withdrawal.Monthly, right.Withdrawal.Monthly))
	return out
}

// Changed filters deltas down to those with a non-zero change.
func Changed(deltas []AssumptionDelta) []AssumptionDelta {
	out := make([]AssumptionDelta, 0, len(deltas))
	for _, d := range deltas {
		if !d.Change.IsZero() {
			out = append(out, d)
		}
	}
	return out
}

func diffSection[M ~map[string]decimal.Decimal](section string, left, right M) []AssumptionDelta {
	keys := make(map[string]struct{}, len(left)+len(right))
	for k := range left {
		keys[k] = struct{}{}
	}
	for k := range right {
		keys[k] = struct{}{}
	}
	sorted := make([]string, 0, len(keys))
	for k := range keys {
		sorted = append(sorted, k)
	}
	sort.Strings(sorted)

	out := make([]AssumptionDelta, 0, len(sorted))
	for _, k := range sorted {
		out = append(out, newDelta(section, k, left[k], right[k]))
	}
	return out
}

func newDelta(section, key string, left, right decimal.Decimal) AssumptionDelta {
	d := AssumptionDelta{
		Section: section,
		Key:     key,
		Left:    left,
		Right:   right,
		Change:  right.Sub(left),
	}
	if !left.IsZero() {
		pct := d.Change.Div(left).Mul(domain.Hundred).Round(2)
		d.PctChange = &pct
	}
	return d
}

// MetricsCalculator extracts key metrics from scenarios
type MetricsCalculator struct {
	// GrowthInstrument is reported as GrowthShare.
	GrowthInstrument string
}

// NewMetricsCalculator creates a new metrics calculator
func NewMetricsCalculator(growthInstrument string) *MetricsCalculator {
	return &MetricsCalculator{GrowthInstrument: growthInstrument}
}

// CalculateMetrics computes all comparison metrics for a scenario
func (mc *MetricsCalculator) CalculateMetrics(name string, sc *domain.Scenario) ComparisonResult {
	return ComparisonResult{
		ScenarioName:      name,
		BlendedRate:       BlendedRate(sc),
		AnnualIncome:      scenario.AnnualIncome(sc.IncomeSources),
		MonthlyWithdrawal: sc.Withdrawal.Monthly,
		GrowthShare:       sc.Allocations.Get(mc.GrowthInstrument),
	}
}

// CalculateComparison computes comparison metrics between a scenario and a base
func (mc *MetricsCalculator) CalculateComparison(result, base ComparisonResult, sc, baseSc *domain.Scenario) ComparisonResult {
	result.RateDiffFromBase = result.BlendedRate.Sub(base.BlendedRate)
	result.IncomeDiffFromBase = result.AnnualIncome.Sub(base.AnnualIncome)
	result.WithdrawalDiffFromBase = result.MonthlyWithdrawal.Sub(base.MonthlyWithdrawal)
	result.Deltas = Changed(DiffScenarios(baseSc, sc))
	return result
}

// BlendedRate is the allocation-weighted expected rate of a scenario, in
// percent, rounded to 2 decimals.
func BlendedRate(sc *domain.Scenario) decimal.Decimal {
	total := decimal.Zero
	for k, pct := range sc.Allocations {
		total = total.Add(pct.Mul(sc.Rates.Get(k)))
	}
	return total.Div(domain.Hundred).Round(2)
}

// GenerateRecommendations highlights the alternatives that beat the base
func GenerateRecommendations(compSet *ComparisonSet) []string {
	recommendations := []string{}

	if len(compSet.AlternativeResults) == 0 || compSet.BaseResult == nil {
		return recommendations
	}

	bestRate := compSet.BaseResult
	for i := range compSet.AlternativeResults {
		alt := &compSet.AlternativeResults[i]
		if alt.BlendedRate.GreaterThan(bestRate.BlendedRate) {
			bestRate = alt
		}
	}
	if bestRate != compSet.BaseResult {
		recommendations = append(recommendations,
			fmt.Sprintf("Highest Expected Yield: %s blends to %s%% (%s points over base)",
				bestRate.ScenarioName, bestRate.BlendedRate.StringFixed(2),
				bestRate.BlendedRate.Sub(compSet.BaseResult.BlendedRate).StringFixed(2)))
	}

	lowestDraw := compSet.BaseResult
	for i := range compSet.AlternativeResults {
		alt := &compSet.AlternativeResults[i]
		if alt.MonthlyWithdrawal.LessThan(lowestDraw.MonthlyWithdrawal) {
			lowestDraw = alt
		}
	}
	if lowestDraw != compSet.BaseResult {
		recommendations = append(recommendations,
			fmt.Sprintf("Most Sustainable Withdrawal: %s draws %s less per month",
				lowestDraw.ScenarioName,
				compSet.BaseResult.MonthlyWithdrawal.Sub(lowestDraw.MonthlyWithdrawal).StringFixed(0)))
	}

	return recommendations
}
