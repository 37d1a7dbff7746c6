package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/rgehrsitz/corpusplan/internal/domain"
	"github.com/rgehrsitz/corpusplan/internal/instruments"
)

// Bounds for profile validation.
const (
	MaxAge             = 120
	MaxProjectionYears = 60
)

// InputParser handles parsing and validation of user profile files
type InputParser struct {
	registry *instruments.Registry
}

// NewInputParser creates a new input parser backed by the built-in country
// registry.
func NewInputParser() *InputParser {
	return &InputParser{registry: instruments.Default()}
}

// NewInputParserWithRegistry creates a parser that validates against reg.
func NewInputParserWithRegistry(reg *instruments.Registry) *InputParser {
	return &InputParser{registry: reg}
}

// LoadFromFile loads a user profile from a YAML file
func (ip *InputParser) LoadFromFile(filename string) (*domain.UserProfile, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filename, err)
	}
	return ip.Parse(data)
}

// Parse decodes and validates a YAML user profile.
func (ip *InputParser) Parse(data []byte) (*domain.UserProfile, error) {
	var profile domain.UserProfile
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := ip.ValidateProfile(&profile); err != nil {
		return nil, fmt.Errorf("profile validation failed: %w", err)
	}

	return &profile, nil
}

// ValidateProfile validates a user profile. Allocations are not required
// to sum to 100; the planner legalizes them before use.
func (ip *InputParser) ValidateProfile(p *domain.UserProfile) error {
	if p == nil {
		return fmt.Errorf("profile is required")
	}

	cp, err := ip.registry.Profile(p.Country)
	if err != nil {
		return fmt.Errorf("country: %w", err)
	}

	if p.Age < 0 || p.Age > MaxAge {
		return fmt.Errorf("age must be between 0 and %d", MaxAge)
	}
	if p.ProjectionYrs < 0 || p.ProjectionYrs > MaxProjectionYears {
		return fmt.Errorf("projection years must be between 0 and %d", MaxProjectionYears)
	}

	for account, balance := range p.Corpus {
		if balance.IsNegative() {
			return fmt.Errorf("corpus balance for %s cannot be negative", account)
		}
	}

	if p.InvestmentPlan == nil {
		return nil
	}
	if active := p.InvestmentPlan.ActiveScenario; active != "" {
		if _, ok := p.InvestmentPlan.Scenarios[active]; !ok {
			return fmt.Errorf("active scenario %q is not defined", active)
		}
	}
	for name, sc := range p.InvestmentPlan.Scenarios {
		if err := ip.validateScenario(cp, sc); err != nil {
			return fmt.Errorf("scenario %s validation failed: %w", name, err)
		}
	}

	return nil
}

func (ip *InputParser) validateScenario(cp *instruments.CountryProfile, sc *domain.Scenario) error {
	if sc == nil {
		return nil
	}
	for key, v := range sc.Allocations {
		if _, ok := cp.Rules[key]; !ok {
			return fmt.Errorf("unknown instrument %s for %s", key, cp.Code)
		}
		if v.IsNegative() || v.GreaterThan(domain.Hundred) {
			return fmt.Errorf("allocation for %s must be between 0 and 100", key)
		}
	}
	for key, v := range sc.Rates {
		if v.IsNegative() {
			return fmt.Errorf("rate for %s cannot be negative", key)
		}
	}
	for key, v := range sc.IncomeSources {
		if v.IsNegative() {
			return fmt.Errorf("income source %s cannot be negative", key)
		}
	}
	if sc.Withdrawal.Monthly.IsNegative() {
		return fmt.Errorf("monthly withdrawal cannot be negative")
	}
	return nil
}
