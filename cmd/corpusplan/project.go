package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rgehrsitz/corpusplan/internal/domain"
	"github.com/rgehrsitz/corpusplan/internal/planner"
	"github.com/rgehrsitz/corpusplan/internal/projection"
)

func projectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project [profile-file]",
		Short: "Send the profile to the projection backend",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := appConfig(cmd)
			if err != nil {
				return err
			}
			if url, _ := cmd.Flags().GetString("backend"); url != "" {
				cfg.Backend.BaseURL = url
			}
			p, err := loadProfile(args[0])
			if err != nil {
				return err
			}

			user := domain.User{Username: p.Username}
			if u, _ := cmd.Flags().GetString("user"); u != "" {
				user.Username = u
			}
			if g, _ := cmd.Flags().GetBool("guest"); g || user.Username == "" {
				user = domain.User{IsGuest: true}
			}

			client := projection.NewClient(cfg.Projection(), projection.WithLogger(cliLogger(cmd)))
			svc := newPlanner(cmd, planner.WithProjector(client))
			if _, err := svc.Prepare(p); err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Backend.Timeout.Std())
			defer cancel()
			res, err := svc.Project(ctx, p, user)
			if err != nil {
				return fmt.Errorf("projection failed: %w", err)
			}
			return writeJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().String("backend", "", "Projection backend base URL (overrides config)")
	cmd.Flags().String("user", "", "Username to project as (default: profile username)")
	cmd.Flags().Bool("guest", false, "Project as a guest")
	return cmd
}
