package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/rgehrsitz/corpusplan/internal/api"
	"github.com/rgehrsitz/corpusplan/internal/logging"
	"github.com/rgehrsitz/corpusplan/internal/metrics"
	"github.com/rgehrsitz/corpusplan/internal/planner"
	"github.com/rgehrsitz/corpusplan/internal/projection"
	"github.com/rgehrsitz/corpusplan/internal/scheduler"
	"github.com/rgehrsitz/corpusplan/internal/session"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := appConfig(cmd)
			if err != nil {
				return err
			}
			if addr, _ := cmd.Flags().GetString("listen"); addr != "" {
				cfg.Listen = addr
			}

			log := logging.New(logging.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty})
			logging.SetGlobalLogger(log)
			reg := metrics.NewRegistry()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			st, closeStore, err := cfg.OpenStore(ctx)
			if err != nil {
				return fmt.Errorf("failed to open %s store: %w", cfg.Store, err)
			}
			defer func() {
				if err := closeStore(); err != nil {
					log.Error().Err(err).Msg("Failed to close store")
				}
			}()

			client := projection.NewClient(cfg.Projection(),
				projection.WithLogger(log),
				projection.WithMetrics(reg))
			svc := planner.New(nil,
				planner.WithProjector(client),
				planner.WithStore(st),
				planner.WithMetrics(reg))
			svc.SetLogger(logging.NewAdapter(log))

			sessions := session.NewManager(
				session.WithTTL(cfg.Sessions.TTL.Std()),
				session.WithStore(st),
				session.WithMetrics(reg),
				session.WithLogger(log))

			sched := scheduler.New(log)
			if err := sched.AddJob(cfg.Sessions.Sweep, session.NewSweepJob(sessions)); err != nil {
				return err
			}
			sched.Start()
			defer sched.Stop()

			srv := api.New(api.Config{
				Addr:           cfg.Listen,
				Log:            log,
				Planner:        svc,
				Sessions:       sessions,
				Metrics:        reg,
				Version:        version,
				AllowedOrigins: cfg.CORS,
			})

			log.Info().
				Str("store", cfg.Store).
				Str("backend", cfg.Backend.BaseURL).
				Msg("corpusplan starting")

			errCh := make(chan error, 1)
			go func() {
				if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("shutdown: %w", err)
			}
			log.Info().Msg("Server stopped")
			return nil
		},
	}
	cmd.Flags().String("listen", "", "Listen address (overrides config)")
	return cmd
}
