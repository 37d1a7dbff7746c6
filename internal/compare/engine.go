package compare

import (
	"fmt"

	"github.com/rgehrsitz/corpusplan/internal/domain"
	"github.com/rgehrsitz/corpusplan/internal/transform"
)

// CompareEngine orchestrates scenario comparison
type CompareEngine struct {
	MetricsCalculator *MetricsCalculator
	TemplateRegistry  *transform.TemplateRegistry
}

// NewCompareEngine creates a new comparison engine. growthInstrument is the
// country's absorber.
func NewCompareEngine(growthInstrument string) *CompareEngine {
	return &CompareEngine{
		MetricsCalculator: NewMetricsCalculator(growthInstrument),
		TemplateRegistry:  transform.CreateBuiltInTemplates(growthInstrument),
	}
}

// CompareOptions configures comparison behavior
type CompareOptions struct {
	BaseScenarioName string   // Name of the base scenario to compare against
	Templates        []string // List of template names to apply to the base
}

// Compare derives an alternative from the base scenario for every template
// and compares each against the base.
func (ce *CompareEngine) Compare(plan *domain.Plan, options CompareOptions) (*ComparisonSet, error) {
	baseScenario, ok := plan.Scenarios[options.BaseScenarioName]
	if !ok || baseScenario == nil {
		return nil, fmt.Errorf("base scenario %s not found in plan", options.BaseScenarioName)
	}

	baseResult := ce.MetricsCalculator.CalculateMetrics(options.BaseScenarioName, baseScenario)

	alternatives := []ComparisonResult{}
	for _, templateName := range options.Templates {
		template, ok := ce.TemplateRegistry.Get(templateName)
		if !ok {
			return nil, fmt.Errorf("template %s not found", templateName)
		}

		modified, err := transform.ApplyTemplate(baseScenario, template)
		if err != nil {
			return nil, fmt.Errorf("failed to apply template %s: %w", templateName, err)
		}

		altResult := ce.MetricsCalculator.CalculateMetrics(options.BaseScenarioName+"_"+templateName, modified)
		altResult.Description = template.Description
		altResult = ce.MetricsCalculator.CalculateComparison(altResult, baseResult, modified, baseScenario)

		alternatives = append(alternatives, altResult)
	}

	compSet := &ComparisonSet{
		BaseScenarioName:   options.BaseScenarioName,
		BaseResult:         &baseResult,
		AlternativeResults: alternatives,
	}
	compSet.Recommendations = GenerateRecommendations(compSet)

	return compSet, nil
}

// CompareScenarios compares explicit scenarios of the plan (not using templates)
func (ce *CompareEngine) CompareScenarios(plan *domain.Plan, baseScenarioName string, alternativeScenarioNames []string) (*ComparisonSet, error) {
	baseScenario, ok := plan.Scenarios[baseScenarioName]
	if !ok || baseScenario == nil {
		return nil, fmt.Errorf("base scenario %s not found", baseScenarioName)
	}

	baseResult := ce.MetricsCalculator.CalculateMetrics(baseScenarioName, baseScenario)

	alternatives := []ComparisonResult{}
	for _, altName := range alternativeScenarioNames {
		altScenario, ok := plan.Scenarios[altName]
		if !ok || altScenario == nil {
			return nil, fmt.Errorf("alternative scenario %s not found", altName)
		}

		altResult := ce.MetricsCalculator.CalculateMetrics(altName, altScenario)
		altResult = ce.MetricsCalculator.CalculateComparison(altResult, baseResult, altScenario, baseScenario)

		alternatives = append(alternatives, altResult)
	}

	compSet := &ComparisonSet{
		BaseScenarioName:   baseScenarioName,
		BaseResult:         &baseResult,
		AlternativeResults: alternatives,
	}
	compSet.Recommendations = GenerateRecommendations(compSet)

	return compSet, nil
}
