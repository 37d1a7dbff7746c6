package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rgehrsitz/corpusplan/internal/domain"
	"github.com/rgehrsitz/corpusplan/internal/instruments"
)

const indiaProfileYAML = `
username: asha
country: IN
age: 62
projection_years: 25
initial_corpus:
  PF: 600000
  FD: 400000
investment_plan:
  active_scenario: Base
  scenarios:
    Base:
      allocations:
        SWP: 35
        FD: 25
        SCSS: 25
        POMIS: 15
      rates:
        SWP: 8
        FD: 6.5
        SCSS: 8.2
        POMIS: 7.4
      income_sources:
        rental: 15000
      withdrawal:
        monthly: 20000
`

func TestParseValidProfile(t *testing.T) {
	p, err := NewInputParser().Parse([]byte(indiaProfileYAML))
	require.NoError(t, err)

	assert.Equal(t, "asha", p.Username)
	assert.Equal(t, "IN", p.Country)
	assert.Equal(t, 62, p.Age)
	assert.Equal(t, 25, p.ProjectionYrs)
	assert.Equal(t, "1000000", p.Corpus.Total().String())

	base := p.InvestmentPlan.Active()
	require.NotNil(t, base)
	assert.Equal(t, "35", base.Allocations.Get("SWP").String())
	assert.Equal(t, "8.2", base.Rates.Get("SCSS").String())
	assert.Equal(t, "15000", base.IncomeSources["rental"].String())
	assert.Equal(t, "20000", base.Withdrawal.Monthly.String())
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.yaml")
	require.NoError(t, os.WriteFile(path, []byte(indiaProfileYAML), 0o600))

	p, err := NewInputParser().LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "asha", p.Username)

	_, err = NewInputParser().LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read file")
}

func TestParseWithoutPlan(t *testing.T) {
	p, err := NewInputParser().Parse([]byte("country: US\nage: 40\n"))
	require.NoError(t, err)
	assert.Nil(t, p.InvestmentPlan)
	assert.Equal(t, "US", p.Country)
}

func TestProfileValidation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"malformed", "country: [", "failed to parse YAML"},
		{"unsupported country", "country: FR\nage: 40\n", "unsupported country"},
		{"age too high", "country: IN\nage: 150\n", "age must be between"},
		{"negative age", "country: IN\nage: -1\n", "age must be between"},
		{"projection years", "country: IN\nage: 40\nprojection_years: 99\n", "projection years"},
		{"negative corpus", "country: UK\ninitial_corpus:\n  ISA: -5\n", "cannot be negative"},
		{
			"unknown active",
			"country: IN\ninvestment_plan:\n  active_scenario: Missing\n  scenarios: {}\n",
			"active scenario",
		},
		{
			"unknown instrument",
			"country: IN\ninvestment_plan:\n  active_scenario: Base\n  scenarios:\n    Base:\n      allocations:\n        ISA: 50\n",
			"unknown instrument ISA",
		},
		{
			"allocation above 100",
			"country: IN\ninvestment_plan:\n  active_scenario: Base\n  scenarios:\n    Base:\n      allocations:\n        FD: 120\n",
			"between 0 and 100",
		},
		{
			"negative withdrawal",
			"country: IN\ninvestment_plan:\n  active_scenario: Base\n  scenarios:\n    Base:\n      withdrawal:\n        monthly: -1\n",
			"monthly withdrawal",
		},
	}

	parser := NewInputParser()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parser.Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidateNilProfile(t *testing.T) {
	assert.Error(t, NewInputParser().ValidateProfile(nil))
}

func TestCustomRegistry(t *testing.T) {
	reg := instruments.NewRegistry()
	parser := NewInputParserWithRegistry(reg)
	err := parser.ValidateProfile(&domain.UserProfile{Country: "IN"})
	assert.ErrorIs(t, err, instruments.ErrUnsupportedCountry)
}
