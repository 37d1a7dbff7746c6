package transform

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rgehrsitz/corpusplan/internal/domain"
	"github.com/shopspring/decimal"
)

// Derivation factors for the built-in conservative and aggressive variants.
var (
	ConservativeRateFactor       = decimal.RequireFromString("0.85")
	ConservativeWithdrawalFactor = decimal.RequireFromString("0.8")
	ConservativeGrowthShift      = decimal.NewFromInt(-15)

	AggressiveRateFactor       = decimal.RequireFromString("1.15")
	AggressiveWithdrawalFactor = decimal.RequireFromString("1.2")
	AggressiveGrowthShift      = decimal.NewFromInt(15)
)

// TemplateRegistry manages built-in scenario templates
type TemplateRegistry struct {
	templates map[string]Template
}

// Template represents a named collection of transforms
type Template struct {
	Name        string
	Description string
	Transforms  []ScenarioTransform
}

// NewTemplateRegistry creates an empty template registry
func NewTemplateRegistry() *TemplateRegistry {
	return &TemplateRegistry{
		templates: make(map[string]Template),
	}
}

// Register adds a template to the registry
func (tr *TemplateRegistry) Register(t Template) {
	tr.templates[strings.ToLower(t.Name)] = t
}

// Get retrieves a template by name (case-insensitive)
func (tr *TemplateRegistry) Get(name string) (Template, bool) {
	t, ok := tr.templates[strings.ToLower(name)]
	return t, ok
}

// List returns all registered template names, sorted
func (tr *TemplateRegistry) List() []string {
	names := make([]string, 0, len(tr.templates))
	for name := range tr.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CreateBuiltInTemplates creates the conservative and aggressive variants.
// growthInstrument is the country's growth proxy whose weight is shifted.
func CreateBuiltInTemplates(growthInstrument string) *TemplateRegistry {
	registry := NewTemplateRegistry()

	registry.Register(Template{
		Name:        domain.ConservativeScenario,
		Description: "Rates -15%, withdrawal -20%, 15 points out of growth",
		Transforms: []ScenarioTransform{
			&ScaleRates{Factor: ConservativeRateFactor},
			&ScaleWithdrawal{Factor: ConservativeWithdrawalFactor},
			&ShiftGrowthAllocation{Instrument: growthInstrument, Delta: ConservativeGrowthShift},
		},
	})

	registry.Register(Template{
		Name:        domain.AggressiveScenario,
		Description: "Rates +15%, withdrawal +20%, 15 points into growth",
		Transforms: []ScenarioTransform{
			&ScaleRates{Factor: AggressiveRateFactor},
			&ScaleWithdrawal{Factor: AggressiveWithdrawalFactor},
			&ShiftGrowthAllocation{Instrument: growthInstrument, Delta: AggressiveGrowthShift},
		},
	})

	return registry
}

// ApplyTemplate applies a template to a base scenario
func ApplyTemplate(base *domain.Scenario, template Template) (*domain.Scenario, error) {
	if base == nil {
		return nil, fmt.Errorf("base scenario cannot be nil")
	}
	if len(template.Transforms) == 0 {
		return base.DeepCopy(), nil
	}
	return ApplyTransforms(base, template.Transforms)
}

// ParseTemplateList parses a comma-separated list of template names
func ParseTemplateList(templateList string) []string {
	if templateList == "" {
		return nil
	}

	parts := strings.Split(templateList, ",")
	templates := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			templates = append(templates, trimmed)
		}
	}
	return templates
}

// GetTemplateHelp returns formatted help text for templates and transforms
func GetTemplateHelp(templates *TemplateRegistry, transforms *TransformRegistry) string {
	var sb strings.Builder

	sb.WriteString("Available Templates:\n")
	for _, name := range templates.List() {
		t := templates.templates[name]
		sb.WriteString(fmt.Sprintf("  %-16s %s\n", t.Name, t.Description))
	}

	if transforms != nil {
		sb.WriteString("\nAvailable Transforms:\n")
		for _, name := range transforms.List() {
			sb.WriteString(fmt.Sprintf("  %s\n", name))
		}
	}

	sb.WriteString("\nUsage:\n")
	sb.WriteString("  corpusplan derive profile.yaml --mode conservative\n")
	sb.WriteString("  corpusplan derive profile.yaml --transform scale_rates:factor=0.9 --transform shift_growth:instrument=SWP,delta=-5\n")

	return sb.String()
}
