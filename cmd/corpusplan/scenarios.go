package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/rgehrsitz/corpusplan/internal/compare"
	"github.com/rgehrsitz/corpusplan/internal/domain"
	"github.com/rgehrsitz/corpusplan/internal/output"
	"github.com/rgehrsitz/corpusplan/internal/scenario"
	"github.com/rgehrsitz/corpusplan/internal/transform"
)

// writeProfile writes p back as YAML.
func writeProfile(path string, p *domain.UserProfile) error {
	data, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode profile: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func printScenario(cmd *cobra.Command, name string, sc *domain.Scenario, order []string) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s\n", name)
	fmt.Fprintf(out, "  allocations: %s\n", formatAllocation(order, sc.Allocations))
	fmt.Fprintf(out, "  rates:       %s\n", formatAllocation(order, domain.Allocation(sc.Rates)))
	fmt.Fprintf(out, "  withdrawal:  %s/month\n", sc.Withdrawal.Monthly.StringFixed(2))
	if len(sc.IncomeSources) > 0 {
		fmt.Fprintf(out, "  income:      %s\n", formatAllocation(nil, domain.Allocation(sc.IncomeSources)))
	}
}

func deriveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "derive [profile-file]",
		Short: "Derive a scenario variant from Base",
		Args: func(cmd *cobra.Command, args []string) error {
			if list, _ := cmd.Flags().GetBool("list-templates"); list {
				return nil
			}
			return cobra.ExactArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			transforms := transform.NewTransformRegistry()

			if list, _ := cmd.Flags().GetBool("list-templates"); list {
				fmt.Fprint(cmd.OutOrStdout(), transform.GetTemplateHelp(transform.CreateBuiltInTemplates("SWP"), transforms))
				return nil
			}

			p, err := loadProfile(args[0])
			if err != nil {
				return err
			}
			svc := newPlanner(cmd)
			cp, err := svc.CountryProfile(p)
			if err != nil {
				return err
			}
			if _, err := svc.Prepare(p); err != nil {
				return err
			}
			base := p.InvestmentPlan.Scenarios[domain.BaseScenario]

			mode, _ := cmd.Flags().GetString("mode")
			specs, _ := cmd.Flags().GetStringArray("transform")

			var derived *domain.Scenario
			var label string
			switch {
			case len(specs) > 0:
				ts, err := transforms.ParseTransformSpecs(specs)
				if err != nil {
					return err
				}
				derived, err = transform.ApplyTransforms(base, ts)
				if err != nil {
					return err
				}
				label = "Custom (" + strings.Join(specs, "; ") + ")"
			default:
				derived, err = scenario.DeriveScenario(base, scenario.Mode(strings.ToLower(mode)), cp.Absorber)
				if err != nil {
					return err
				}
				label = mode
			}

			printScenario(cmd, domain.BaseScenario, base, cp.Instruments())
			printScenario(cmd, label, derived, cp.Instruments())
			return nil
		},
	}
	cmd.Flags().String("mode", string(scenario.Conservative), "Derivation mode (conservative, aggressive)")
	cmd.Flags().StringArray("transform", nil, "Transform spec name:key=value,...; repeatable, overrides --mode")
	cmd.Flags().Bool("list-templates", false, "List built-in templates and transforms")
	return cmd
}

func ensureCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ensure [profile-file]",
		Short: "Seed, reseed and hydrate the profile's scenarios",
		Long: "Creates Base from the default model when missing or stale, derives\n" +
			"Conservative and Aggressive, and fills missing keys in every scenario.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadProfile(args[0])
			if err != nil {
				return err
			}
			svc := newPlanner(cmd)
			changed, err := svc.Prepare(p)
			if err != nil {
				return err
			}
			if legal, _ := cmd.Flags().GetBool("legalize"); legal {
				if err := svc.Legalize(p); err != nil {
					return err
				}
			}

			if write, _ := cmd.Flags().GetBool("write"); write {
				if err := writeProfile(args[0], p); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (changed: %v)\n", args[0], changed)
				return nil
			}

			format, _ := cmd.Flags().GetString("format")
			if format == "json" {
				return writeJSON(cmd.OutOrStdout(), p.WireMap())
			}
			data, err := yaml.Marshal(p)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
	cmd.Flags().Bool("legalize", false, "Also normalize and cap every scenario")
	cmd.Flags().Bool("write", false, "Write the result back to the file")
	cmd.Flags().StringP("format", "f", "yaml", "Output format (yaml, json)")
	return cmd
}

func diffCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diff [profile-file]",
		Short: "Compare scenario assumptions against a base scenario",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadProfile(args[0])
			if err != nil {
				return err
			}
			svc := newPlanner(cmd)
			cp, err := svc.CountryProfile(p)
			if err != nil {
				return err
			}
			if _, err := svc.Prepare(p); err != nil {
				return err
			}

			base, _ := cmd.Flags().GetString("base")
			with, _ := cmd.Flags().GetString("with")
			templates, _ := cmd.Flags().GetString("templates")

			engine := compare.NewCompareEngine(cp.Absorber)
			var set *compare.ComparisonSet
			if templates != "" {
				set, err = engine.Compare(p.InvestmentPlan, compare.CompareOptions{
					BaseScenarioName: base,
					Templates:        transform.ParseTemplateList(templates),
				})
			} else {
				names := transform.ParseTemplateList(with)
				if len(names) == 0 {
					for _, n := range p.InvestmentPlan.Names() {
						if n != base {
							names = append(names, n)
						}
					}
				}
				set, err = engine.CompareScenarios(p.InvestmentPlan, base, names)
			}
			if err != nil {
				return err
			}

			format, _ := cmd.Flags().GetString("format")
			out := cmd.OutOrStdout()
			switch format {
			case "csv":
				s, err := (&compare.CSVFormatter{}).Format(set)
				if err != nil {
					return err
				}
				fmt.Fprint(out, s)
			case "json":
				s, err := (&compare.JSONFormatter{Pretty: true}).Format(set)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, s)
			case "compact":
				fmt.Fprintln(out, (&compare.TableFormatter{Currency: cp.Currency}).FormatCompact(set))
			case "table":
				fmt.Fprint(out, (&compare.TableFormatter{Currency: cp.Currency}).Format(set))
			default:
				return fmt.Errorf("unsupported format: %s", format)
			}
			return nil
		},
	}
	cmd.Flags().String("base", domain.BaseScenario, "Base scenario name")
	cmd.Flags().String("with", "", "Comma-separated scenarios to compare (default: all others)")
	cmd.Flags().String("templates", "", "Comma-separated templates to apply to the base instead")
	cmd.Flags().StringP("format", "f", "table", "Output format (table, compact, csv, json)")
	return cmd
}

func planCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan [profile-file]",
		Short: "Show every scenario's allocation and estimated income",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadProfile(args[0])
			if err != nil {
				return err
			}
			svc := newPlanner(cmd)
			cp, err := svc.CountryProfile(p)
			if err != nil {
				return err
			}
			if _, err := svc.Prepare(p); err != nil {
				return err
			}
			summary := output.NewPlanSummary(p, cp)

			format, _ := cmd.Flags().GetString("format")
			f := output.GetFormatterByName(format)
			if f == nil {
				return fmt.Errorf("unsupported format: %s (available: %s)", format, strings.Join(output.AvailableFormatterNames(), ", "))
			}
			if save, _ := cmd.Flags().GetBool("save"); save {
				name, err := output.WriteFormatted(f, summary, extFor(f.Name()))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", name)
				return nil
			}
			data, err := f.Format(summary)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
	cmd.Flags().StringP("format", "f", "console", "Output format (console, csv, json)")
	cmd.Flags().Bool("save", false, "Write the output to a timestamped file")
	return cmd
}

func extFor(formatter string) string {
	if formatter == "console" {
		return "txt"
	}
	return formatter
}

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [profile-file]",
		Short: "Validate a profile file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadProfile(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is valid (%s, age %d, %d scenarios)\n",
				args[0], p.Country, p.Age, scenarioCount(p))
			return nil
		},
	}
}

func scenarioCount(p *domain.UserProfile) int {
	if p.InvestmentPlan == nil {
		return 0
	}
	return len(p.InvestmentPlan.Scenarios)
}
