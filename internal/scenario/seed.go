package scenario

import (
	"strings"

	"github.com/rgehrsitz/corpusplan/internal/domain"
	"github.com/shopspring/decimal"
)

// Field name prefixes used by configuration field templates.
const (
	AllocPrefix  = "ALLOC_"
	RatePrefix   = "RATE_"
	IncomePrefix = "INCOME_"
)

// FieldTemplate is one configured input field with its default value.
type FieldTemplate struct {
	Name    string          `yaml:"name" json:"name"`
	Default decimal.Decimal `yaml:"default" json:"default"`
}

// SeedFromFields fills sc from ALLOC_<key>, RATE_<key> and INCOME_<key>
// field defaults. Keys already present are kept. Other fields are ignored.
// It reports whether anything was added.
func SeedFromFields(sc *domain.Scenario, fields []FieldTemplate) bool {
	if sc.Allocations == nil {
		sc.Allocations = make(domain.Allocation)
	}
	if sc.Rates == nil {
		sc.Rates = make(domain.RateTable)
	}
	if sc.IncomeSources == nil {
		sc.IncomeSources = make(domain.IncomeSources)
	}

	changed := false
	for _, f := range fields {
		switch {
		case strings.HasPrefix(f.Name, AllocPrefix):
			changed = setDefault(sc.Allocations, strings.TrimPrefix(f.Name, AllocPrefix), domain.ClampPercent(f.Default)) || changed
		case strings.HasPrefix(f.Name, RatePrefix):
			changed = setDefault(sc.Rates, strings.TrimPrefix(f.Name, RatePrefix), f.Default) || changed
		case strings.HasPrefix(f.Name, IncomePrefix):
			changed = setDefault(sc.IncomeSources, strings.TrimPrefix(f.Name, IncomePrefix), f.Default) || changed
		}
	}
	return changed
}

func setDefault[M ~map[string]decimal.Decimal](m M, key string, v decimal.Decimal) bool {
	if key == "" {
		return false
	}
	if _, ok := m[key]; ok {
		return false
	}
	m[key] = v
	return true
}
