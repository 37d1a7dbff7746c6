package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rgehrsitz/corpusplan/internal/domain"
	"github.com/rgehrsitz/corpusplan/internal/instruments"
	"github.com/rgehrsitz/corpusplan/internal/scenario"
)

func buildTestSummary(t *testing.T) *PlanSummary {
	t.Helper()
	cp, err := instruments.Default().Profile("IN")
	require.NoError(t, err)

	p := &domain.UserProfile{
		Username:       "asha",
		Country:        "IN",
		Age:            65,
		Corpus:         domain.Corpus{"PF": decimal.NewFromInt(1_000_000)},
		InvestmentPlan: domain.NewPlan(),
	}
	scenario.EnsureScenarios(p.InvestmentPlan, cp, p.Age)
	return NewPlanSummary(p, cp)
}

func TestNewPlanSummary(t *testing.T) {
	s := buildTestSummary(t)

	assert.Equal(t, "IN", s.Country)
	assert.Equal(t, domain.StageRetirement, s.Stage)
	assert.Equal(t, "1000000", s.TotalCorpus.String())
	require.Len(t, s.Scenarios, 3)
	assert.Equal(t, domain.BaseScenario, s.Scenarios[0].Name)
	assert.True(t, s.Scenarios[0].Active)
	assert.Equal(t, "75900", s.Scenarios[0].Breakdown.IncomeTotal.String())
	assert.Contains(t, s.Priority, instruments.SCSS)
}

func TestFormatterFunc(t *testing.T) {
	called := false
	f := FormatterFunc{
		ID: "test-formatter",
		F: func(s *PlanSummary) ([]byte, error) {
			called = true
			return []byte("test output"), nil
		},
	}

	out, err := f.Format(&PlanSummary{})
	require.NoError(t, err)
	assert.True(t, called)
	assert.Equal(t, "test output", string(out))
	assert.Equal(t, "test-formatter", f.Name())
}

func TestWriteFormatted(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	f := FormatterFunc{ID: "x", F: func(*PlanSummary) ([]byte, error) { return []byte("content"), nil }}
	filename, err := WriteFormatted(f, &PlanSummary{}, "txt")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(filename, "plan_summary_"))
	assert.True(t, strings.HasSuffix(filename, ".txt"))

	data, err := os.ReadFile(filename)
	require.NoError(t, err)
	assert.Equal(t, "content", string(data))

	failing := FormatterFunc{ID: "err", F: func(*PlanSummary) ([]byte, error) { return nil, fmt.Errorf("formatter error") }}
	filename, err = WriteFormatted(failing, &PlanSummary{}, "txt")
	assert.Error(t, err)
	assert.Empty(t, filename)
}

func TestConsoleFormatter(t *testing.T) {
	out, err := ConsoleFormatter{}.Format(buildTestSummary(t))
	require.NoError(t, err)

	text := string(out)
	assert.Contains(t, text, "PLAN SUMMARY: IN (age 65, retirement stage)")
	assert.Contains(t, text, "Base (active)")
	assert.Contains(t, text, "Senior Citizen Savings")
	assert.Contains(t, text, "₹75900.00")
	assert.NotContains(t, text, "WARNING")
}

func TestCSVSummarizer(t *testing.T) {
	out, err := CSVSummarizer{}.Format(buildTestSummary(t))
	require.NoError(t, err)

	rows, err := csv.NewReader(strings.NewReader(string(out))).ReadAll()
	require.NoError(t, err)
	// header + 3 scenarios x 4 instruments
	require.Len(t, rows, 13)
	assert.Equal(t, []string{"Base", "true", "SWP", "35.00", "8.00", "350000.00", "28000.00"}, rows[1])
}

func TestJSONFormatter(t *testing.T) {
	out, err := JSONFormatter{}.Format(buildTestSummary(t))
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.Equal(t, "IN", decoded["country"])
	assert.Len(t, decoded["scenarios"], 3)
}

func TestGetFormatterByName(t *testing.T) {
	assert.Equal(t, []string{"console", "csv", "json"}, AvailableFormatterNames())
	assert.Equal(t, []string{"table", "text"}, AvailableFormatAliases())
	assert.Equal(t, "console", GetFormatterByName("TABLE").Name())
	assert.Equal(t, "json", GetFormatterByName("json").Name())
	assert.Nil(t, GetFormatterByName("pdf"))
}
