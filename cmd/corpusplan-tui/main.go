package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/rgehrsitz/corpusplan/internal/config"
	"github.com/rgehrsitz/corpusplan/internal/domain"
	"github.com/rgehrsitz/corpusplan/internal/logging"
	"github.com/rgehrsitz/corpusplan/internal/planner"
	"github.com/rgehrsitz/corpusplan/internal/projection"
	"github.com/rgehrsitz/corpusplan/internal/tui"
)

func main() {
	cfgPath := flag.String("config", "", "Application config file (YAML)")
	username := flag.String("user", "", "Sign in as this user (default: the profile's username; empty means guest)")
	logFile := flag.String("log", "", "Write logs to this file")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: corpusplan-tui [flags] <profile-file>\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(1)
	}
	if err := run(flag.Arg(0), *cfgPath, *username, *logFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(profilePath, cfgPath, username, logFile string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	profile, err := config.NewInputParser().LoadFromFile(profilePath)
	if err != nil {
		return err
	}

	// The alt screen owns the terminal; logs go to a file or nowhere.
	var out io.Writer = io.Discard
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
		out = f
	}
	log := logging.New(logging.Config{Level: cfg.Log.Level, Out: out})

	st, closeStore, err := cfg.OpenStore(context.Background())
	if err != nil {
		return err
	}
	defer closeStore()

	client := projection.NewClient(cfg.Projection(), projection.WithLogger(log))
	svc := planner.New(nil, planner.WithProjector(client), planner.WithStore(st))
	svc.SetLogger(logging.NewAdapter(log))

	user := domain.User{Username: profile.Username}
	if username != "" {
		user.Username = username
	}
	user.IsGuest = user.Username == ""

	model, err := tui.NewModel(tui.Options{
		Planner: svc,
		Profile: profile,
		User:    user,
		Timeout: cfg.Backend.Timeout.Std(),
	})
	if err != nil {
		return err
	}

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running TUI: %w", err)
	}
	return nil
}
