package main

import (
	"fmt"
	"os"
	"runtime/debug"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/rgehrsitz/corpusplan/internal/config"
	"github.com/rgehrsitz/corpusplan/internal/domain"
	"github.com/rgehrsitz/corpusplan/internal/logging"
	"github.com/rgehrsitz/corpusplan/internal/planner"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "corpusplan %s (commit %s, built %s)\n", version, commit, date)
			if info := buildInfo(); info != "" && verbose(cmd) {
				fmt.Fprintln(cmd.OutOrStdout(), info)
			}
		},
	}
}

func buildInfo() string {
	if bi, ok := debug.ReadBuildInfo(); ok && bi != nil {
		return bi.String()
	}
	return ""
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "corpusplan",
		Short: "Retirement corpus allocation planner",
		Long: "Allocates a retirement corpus across country-specific instruments (IN, US, UK),\n" +
			"enforces eligibility and investment caps, and manages Base, Conservative and\n" +
			"Aggressive scenarios for a projection backend.",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "Application config file (YAML)")
	root.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")
	root.PersistentFlags().Bool("debug", false, "Log planner decisions to stderr")
	root.PersistentFlags().BoolP("verbose", "v", false, "Verbose output")

	root.AddCommand(
		modelCmd(),
		capsCmd(),
		normalizeCmd(),
		rebalanceCmd(),
		deriveCmd(),
		ensureCmd(),
		diffCmd(),
		planCmd(),
		validateCmd(),
		projectCmd(),
		serveCmd(),
		versionCmd(),
	)
	return root
}

func verbose(cmd *cobra.Command) bool {
	v, _ := cmd.Flags().GetBool("verbose")
	return v
}

// appConfig loads the application config named by --config and applies
// --log-level.
func appConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
		cfg.Log.Level = lvl
	}
	return cfg, nil
}

// cliLogger builds the stderr logger. Without --debug only warnings and
// errors are shown.
func cliLogger(cmd *cobra.Command) zerolog.Logger {
	level := "warn"
	if d, _ := cmd.Flags().GetBool("debug"); d {
		level = "debug"
	}
	return logging.New(logging.Config{Level: level, Pretty: true, Out: cmd.ErrOrStderr()})
}

// newPlanner returns a planner that logs through the CLI logger.
func newPlanner(cmd *cobra.Command, opts ...planner.Option) *planner.Service {
	svc := planner.New(nil, opts...)
	svc.SetLogger(logging.NewAdapter(cliLogger(cmd)))
	return svc
}

// loadProfile parses and validates a user profile file.
func loadProfile(path string) (*domain.UserProfile, error) {
	return config.NewInputParser().LoadFromFile(path)
}

// parseAllocation reads "SWP=35,FD=25" into an allocation. Values are not
// clamped so that the engine sees exactly what was asked for.
func parseAllocation(spec string) (domain.Allocation, error) {
	a := make(domain.Allocation)
	if strings.TrimSpace(spec) == "" {
		return a, nil
	}
	for _, pair := range strings.Split(spec, ",") {
		kv := strings.SplitN(pair, "=", 2)
		if len(kv) != 2 {
			return nil, fmt.Errorf("invalid allocation %q, expected INSTRUMENT=PERCENT", pair)
		}
		v, err := decimal.NewFromString(strings.TrimSpace(kv[1]))
		if err != nil {
			return nil, fmt.Errorf("invalid percentage for %s: %w", kv[0], err)
		}
		a[strings.ToUpper(strings.TrimSpace(kv[0]))] = v
	}
	return a, nil
}

// formatAllocation renders an allocation as "KEY=VALUE" pairs in order.
func formatAllocation(order []string, a domain.Allocation) string {
	seen := make(map[string]bool, len(order))
	parts := make([]string, 0, len(a))
	for _, k := range order {
		if v, ok := a[k]; ok {
			parts = append(parts, fmt.Sprintf("%s=%s", k, v.StringFixed(2)))
			seen[k] = true
		}
	}
	var rest []string
	for k := range a {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	for _, k := range rest {
		parts = append(parts, fmt.Sprintf("%s=%s", k, a[k].StringFixed(2)))
	}
	return strings.Join(parts, " ")
}

func main() {
	decimal.MarshalJSONWithoutQuotes = true
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
