package compare

import (
	"encoding/csv"
	"strings"
)

// CSVFormatter formats comparison results as CSV, one row per changed
// assumption of every alternative.
type CSVFormatter struct{}

// Format generates CSV output for comparison results
func (cf *CSVFormatter) Format(compSet *ComparisonSet) (string, error) {
	var sb strings.Builder
	writer := csv.NewWriter(&sb)

	header := []string{
		"Scenario",
		"Section",
		"Key",
		"Base",
		"Value",
		"Change",
		"Pct Change",
	}
	if err := writer.Write(header); err != nil {
		return "", err
	}

	for _, alt := range compSet.AlternativeResults {
		for _, d := range alt.Deltas {
			if err := writer.Write(cf.formatRow(alt.ScenarioName, d)); err != nil {
				return "", err
			}
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return "", err
	}

	return sb.String(), nil
}

// formatRow formats one delta as a CSV row
func (cf *CSVFormatter) formatRow(scenarioName string, d AssumptionDelta) []string {
	pct := ""
	if d.PctChange != nil {
		pct = d.PctChange.StringFixed(2)
	}
	return []string{
		scenarioName,
		d.Section,
		d.Key,
		d.Left.StringFixed(2),
		d.Right.StringFixed(2),
		d.Change.StringFixed(2),
		pct,
	}
}
