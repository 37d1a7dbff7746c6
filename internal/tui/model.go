// Package tui is a terminal allocation editor. Every keystroke that changes
// a percentage runs through the planner's rebalancer, so the screen always
// shows a legal allocation.
package tui

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/rgehrsitz/corpusplan/internal/allocation"
	"github.com/rgehrsitz/corpusplan/internal/domain"
	"github.com/rgehrsitz/corpusplan/internal/instruments"
	"github.com/rgehrsitz/corpusplan/internal/planner"
	"github.com/rgehrsitz/corpusplan/internal/projection"
)

// Scene identifies what the main pane shows.
type Scene int

const (
	SceneAllocations Scene = iota
	SceneCompare
	SceneProjection
)

func (s Scene) String() string {
	switch s {
	case SceneAllocations:
		return "Allocations"
	case SceneCompare:
		return "Compare"
	case SceneProjection:
		return "Projection"
	default:
		return "Unknown"
	}
}

// Options configures a Model.
type Options struct {
	Planner *planner.Service
	Profile *domain.UserProfile
	User    domain.User
	// Timeout bounds projection and save calls.
	Timeout time.Duration
}

// Model represents the entire application state
type Model struct {
	planner *planner.Service
	profile *domain.UserProfile
	user    domain.User
	country *instruments.CountryProfile
	timeout time.Duration

	scene  Scene
	cursor int

	editing bool
	input   textinput.Model

	keys keyMap
	help help.Model

	last       *allocation.EditResult
	projection *projection.Result
	busy       bool
	status     string
	err        error

	width  int
	height int
}

// NewModel prepares the profile's plan and returns the editor model.
func NewModel(opts Options) (Model, error) {
	if opts.Planner == nil {
		return Model{}, errors.New("tui: planner is required")
	}
	if opts.Profile == nil {
		return Model{}, errors.New("tui: profile is required")
	}
	cp, err := opts.Planner.CountryProfile(opts.Profile)
	if err != nil {
		return Model{}, err
	}
	if _, err := opts.Planner.Prepare(opts.Profile); err != nil {
		return Model{}, err
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}

	input := textinput.New()
	input.Placeholder = "0-100"
	input.CharLimit = 6
	input.Width = 8

	return Model{
		planner: opts.Planner,
		profile: opts.Profile,
		user:    opts.User,
		country: cp,
		timeout: opts.Timeout,
		input:   input,
		keys:    defaultKeyMap(),
		help:    help.New(),
		width:   80,
		height:  24,
	}, nil
}

// Init initializes the model (required by tea.Model interface)
func (m Model) Init() tea.Cmd {
	return nil
}

// Profile returns the profile being edited.
func (m Model) Profile() *domain.UserProfile {
	return m.profile
}

// Scene returns the current scene.
func (m Model) Scene() Scene {
	return m.scene
}

// Status returns the last status line.
func (m Model) Status() string {
	return m.status
}

// Err returns the last error shown to the user.
func (m Model) Err() error {
	return m.err
}

// focused returns the instrument under the cursor.
func (m Model) focused() string {
	keys := m.country.Instruments()
	if len(keys) == 0 {
		return ""
	}
	return keys[m.cursor]
}

func (m Model) active() *domain.Scenario {
	return m.profile.InvestmentPlan.Active()
}

// projectCmd runs a projection on a snapshot so later edits cannot race it.
func (m Model) projectCmd() tea.Cmd {
	snapshot := m.profile.Clone()
	svc, user, timeout := m.planner, m.user, m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		res, err := svc.Project(ctx, snapshot, user)
		return ProjectionCompleteMsg{Result: res, Err: err}
	}
}

func (m Model) saveCmd() tea.Cmd {
	snapshot := m.profile.Clone()
	svc, user, timeout := m.planner, m.user, m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return SavedMsg{Err: svc.Save(ctx, snapshot, user)}
	}
}
