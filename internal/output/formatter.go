package output

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"
)

// Formatter renders a plan summary.
type Formatter interface {
	Name() string
	Format(s *PlanSummary) ([]byte, error)
}

// FormatterFunc adapts a function to Formatter.
type FormatterFunc struct {
	ID string
	F  func(s *PlanSummary) ([]byte, error)
}

func (f FormatterFunc) Name() string { return f.ID }

func (f FormatterFunc) Format(s *PlanSummary) ([]byte, error) { return f.F(s) }

var formatters = map[string]Formatter{
	"console": ConsoleFormatter{},
	"csv":     CSVSummarizer{},
	"json":    JSONFormatter{},
}

var aliases = map[string]string{
	"table": "console",
	"text":  "console",
}

// GetFormatterByName resolves a name or alias.
func GetFormatterByName(name string) Formatter {
	name = strings.ToLower(name)
	if target, ok := aliases[name]; ok {
		name = target
	}
	return formatters[name]
}

// AvailableFormatterNames lists the canonical formatter names, sorted.
func AvailableFormatterNames() []string {
	names := make([]string, 0, len(formatters))
	for n := range formatters {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// AvailableFormatAliases lists the accepted aliases, sorted.
func AvailableFormatAliases() []string {
	names := make([]string, 0, len(aliases))
	for n := range aliases {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// WriteFormatted formats s and writes it to a timestamped file in the
// working directory, returning the file name.
func WriteFormatted(f Formatter, s *PlanSummary, ext string) (string, error) {
	data, err := f.Format(s)
	if err != nil {
		return "", err
	}
	filename := fmt.Sprintf("plan_summary_%s.%s", time.Now().Format("20060102_150405"), ext)
	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", filename, err)
	}
	return filename, nil
}

// ConsoleFormatter renders aligned text tables.
type ConsoleFormatter struct{}

func (c ConsoleFormatter) Name() string { return "console" }

func (c ConsoleFormatter) Format(s *PlanSummary) ([]byte, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "PLAN SUMMARY: %s (age %d, %s stage)\n", s.Country, s.Age, s.Stage)
	fmt.Fprintln(&buf, strings.Repeat("=", 72))
	fmt.Fprintf(&buf, "Total corpus:   %s\n", FormatCurrency(s.Currency, s.TotalCorpus))
	if len(s.Priority) > 0 {
		fmt.Fprintf(&buf, "Priority:       %s\n", strings.Join(s.Priority, ", "))
	}

	for _, sc := range s.Scenarios {
		marker := ""
		if sc.Active {
			marker = " (active)"
		}
		fmt.Fprintf(&buf, "\n%s%s\n", sc.Name, marker)
		fmt.Fprintln(&buf, strings.Repeat("-", 72))
		fmt.Fprintf(&buf, "%-24s %9s %7s %14s %14s\n", "Instrument", "Alloc", "Rate", "Amount", "Yearly")
		for _, r := range sc.Breakdown.Rows {
			fmt.Fprintf(&buf, "%-24s %9s %7s %14s %14s\n",
				r.Label,
				FormatPercentage(r.AllocationPct),
				FormatPercentage(r.RatePct),
				FormatCurrency(s.Currency, r.Amount),
				FormatCurrency(s.Currency, r.YearlyIncome))
		}
		fmt.Fprintf(&buf, "%-24s %9s %7s %14s %14s\n", "Total",
			FormatPercentage(sc.Breakdown.AllocationTotal), "",
			FormatCurrency(s.Currency, sc.Breakdown.AmountTotal),
			FormatCurrency(s.Currency, sc.Breakdown.IncomeTotal))
		if sc.Breakdown.OffTarget {
			fmt.Fprintln(&buf, "WARNING: allocation does not sum to 100%")
		}
		fmt.Fprintf(&buf, "Monthly withdrawal: %s   Other income (yearly): %s\n",
			FormatCurrency(s.Currency, sc.MonthlyWithdrawal),
			FormatCurrency(s.Currency, sc.OtherIncome))
	}
	return buf.Bytes(), nil
}

// CSVSummarizer writes one row per scenario and instrument.
type CSVSummarizer struct{}

func (c CSVSummarizer) Name() string { return "csv" }

func (c CSVSummarizer) Format(s *PlanSummary) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	header := []string{"Scenario", "Active", "Instrument", "AllocationPct", "RatePct", "Amount", "YearlyIncome"}
	if err := w.Write(header); err != nil {
		return nil, err
	}
	for _, sc := range s.Scenarios {
		for _, r := range sc.Breakdown.Rows {
			row := []string{
				sc.Name,
				fmt.Sprint(sc.Active),
				r.Instrument,
				r.AllocationPct.StringFixed(2),
				r.RatePct.StringFixed(2),
				r.Amount.StringFixed(2),
				r.YearlyIncome.StringFixed(2),
			}
			if err := w.Write(row); err != nil {
				return nil, err
			}
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

// JSONFormatter renders indented JSON.
type JSONFormatter struct{}

func (j JSONFormatter) Name() string { return "json" }

func (j JSONFormatter) Format(s *PlanSummary) ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}
