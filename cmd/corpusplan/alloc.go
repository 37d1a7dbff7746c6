package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/rgehrsitz/corpusplan/internal/allocation"
	"github.com/rgehrsitz/corpusplan/internal/instruments"
	"github.com/rgehrsitz/corpusplan/internal/output"
)

func addHolderFlags(cmd *cobra.Command) {
	cmd.Flags().String("country", "IN", "Country code (IN, US, UK)")
	cmd.Flags().Int("age", 0, "Holder age (0 = unknown)")
	cmd.Flags().String("corpus", "0", "Total corpus amount")
	cmd.Flags().Bool("joint-pomis", false, "Use the joint-holder POMIS limit (IN)")
}

type holder struct {
	profile *instruments.CountryProfile
	age     int
	corpus  decimal.Decimal
}

func holderFromFlags(cmd *cobra.Command) (holder, error) {
	country, _ := cmd.Flags().GetString("country")
	age, _ := cmd.Flags().GetInt("age")
	raw, _ := cmd.Flags().GetString("corpus")
	joint, _ := cmd.Flags().GetBool("joint-pomis")

	corpus, err := decimal.NewFromString(raw)
	if err != nil {
		return holder{}, fmt.Errorf("invalid corpus %q: %w", raw, err)
	}
	var opts []instruments.Option
	if joint {
		opts = append(opts, instruments.WithJointPOMIS())
	}
	cp, err := instruments.Default().Profile(country, opts...)
	if err != nil {
		return holder{}, err
	}
	return holder{profile: cp, age: age, corpus: corpus}, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func modelCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "model",
		Short: "Show the default allocation model for a holder",
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := holderFromFlags(cmd)
			if err != nil {
				return err
			}
			m, err := allocation.BuildModel(h.profile, h.age, h.corpus)
			if err != nil {
				return err
			}

			format, _ := cmd.Flags().GetString("format")
			out := cmd.OutOrStdout()
			if format == "json" {
				return writeJSON(out, m)
			}
			fmt.Fprintf(out, "DEFAULT MODEL: %s, age %d\n", m.Country, m.Age)
			for _, f := range h.profile.Fields {
				fmt.Fprintf(out, "  %-24s %8s  rate %6s  %s\n",
					f.Label,
					output.FormatPercentage(m.Allocations.Get(f.Key)),
					output.FormatPercentage(m.Rates.Get(f.Key)),
					output.FormatCurrency(h.profile.Currency, m.Amounts[f.Key]))
			}
			return nil
		},
	}
	addHolderFlags(cmd)
	cmd.Flags().StringP("format", "f", "table", "Output format (table, json)")
	return cmd
}

func capsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "caps",
		Short: "Enforce eligibility and investment caps on an allocation",
		Long: "Zeroes ineligible instruments and clips every instrument to its ceiling,\n" +
			"moving the excess into the country's absorber. The result is not renormalized.",
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := holderFromFlags(cmd)
			if err != nil {
				return err
			}
			spec, _ := cmd.Flags().GetString("alloc")
			a, err := parseAllocation(spec)
			if err != nil {
				return err
			}

			capped, surplus := allocation.ApplyCaps(h.corpus, a, h.age, h.profile.Rules, h.profile.Absorber)
			ceilings := allocation.Ceilings(h.corpus, h.age, h.profile.Rules)

			format, _ := cmd.Flags().GetString("format")
			out := cmd.OutOrStdout()
			if format == "json" {
				return writeJSON(out, map[string]any{
					"allocations": capped,
					"surplus":     surplus,
					"ceilings":    ceilings,
				})
			}
			fmt.Fprintln(out, formatAllocation(h.profile.Instruments(), capped))
			fmt.Fprintf(out, "surplus moved to %s: %s%%\n", h.profile.Absorber, surplus.StringFixed(2))
			fmt.Fprintf(out, "ceilings: %s\n", formatAllocation(h.profile.Instruments(), ceilings))
			return nil
		},
	}
	addHolderFlags(cmd)
	cmd.Flags().String("alloc", "", "Allocation as INSTRUMENT=PERCENT pairs, e.g. SWP=35,FD=25")
	cmd.Flags().StringP("format", "f", "text", "Output format (text, json)")
	_ = cmd.MarkFlagRequired("alloc")
	return cmd
}

func normalizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "normalize",
		Short: "Rescale an allocation to sum to 100",
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, _ := cmd.Flags().GetString("alloc")
			a, err := parseAllocation(spec)
			if err != nil {
				return err
			}
			places, _ := cmd.Flags().GetInt32("places")
			n := allocation.Round(allocation.Normalize(a), places)
			fmt.Fprintln(cmd.OutOrStdout(), formatAllocation(nil, n))
			fmt.Fprintf(cmd.OutOrStdout(), "sum: %s\n", n.Sum().StringFixed(2))
			return nil
		},
	}
	cmd.Flags().String("alloc", "", "Allocation as INSTRUMENT=PERCENT pairs")
	cmd.Flags().Int32("places", 2, "Decimal places to round to")
	_ = cmd.MarkFlagRequired("alloc")
	return cmd
}

func rebalanceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rebalance [profile-file]",
		Short: "Apply allocation edits to the active scenario through the rebalancer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadProfile(args[0])
			if err != nil {
				return err
			}
			edits, _ := cmd.Flags().GetStringArray("set")
			svc := newPlanner(cmd)
			cp, err := svc.CountryProfile(p)
			if err != nil {
				return err
			}
			if _, err := svc.Prepare(p); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%-8s %s\n", "start", formatAllocation(cp.Instruments(), p.InvestmentPlan.Active().Allocations))
			for _, e := range edits {
				a, err := parseAllocation(e)
				if err != nil {
					return err
				}
				for _, inst := range a.Keys() {
					res, err := svc.Edit(p, inst, a[inst])
					if err != nil {
						return err
					}
					note := ""
					if res.Capped {
						note = fmt.Sprintf("  (capped: asked %s%%)", res.Requested.StringFixed(2))
					}
					fmt.Fprintf(out, "%-8s %s%s\n", inst, formatAllocation(cp.Instruments(), res.Allocation), note)
				}
			}

			if write, _ := cmd.Flags().GetBool("write"); write {
				return writeProfile(args[0], p)
			}
			return nil
		},
	}
	cmd.Flags().StringArray("set", nil, "Edit as INSTRUMENT=PERCENT; repeat for a sequence of edits")
	cmd.Flags().Bool("write", false, "Write the updated profile back to the file")
	_ = cmd.MarkFlagRequired("set")
	return cmd
}
