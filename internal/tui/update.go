package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"

	"github.com/rgehrsitz/corpusplan/internal/instruments"
	"github.com/rgehrsitz/corpusplan/internal/planner"
)

var (
	stepSmall = decimal.NewFromInt(1)
	stepBig   = decimal.NewFromInt(5)
)

// Update handles all messages and updates the model state
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case ProjectionCompleteMsg:
		m.busy = false
		if msg.Err != nil {
			m.err = msg.Err
			return m, nil
		}
		m.err = nil
		m.projection = msg.Result
		m.scene = SceneProjection
		m.status = fmt.Sprintf("projection ready for %d scenarios", len(msg.Result.ResultsByScenario))
		return m, nil

	case SavedMsg:
		m.busy = false
		if msg.Err != nil {
			m.err = msg.Err
			return m, nil
		}
		m.err = nil
		m.status = "plan saved"
		return m, nil

	case tea.KeyMsg:
		if m.editing {
			return m.updateInput(msg)
		}
		return m.handleKeyPress(msg)
	}

	return m, nil
}

// handleKeyPress processes keyboard input
func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil

	case key.Matches(msg, m.keys.Cancel):
		m.scene = SceneAllocations
		return m, nil

	case key.Matches(msg, m.keys.Compare):
		if m.scene == SceneCompare {
			m.scene = SceneAllocations
		} else {
			m.scene = SceneCompare
		}
		return m, nil

	case key.Matches(msg, m.keys.Project):
		if m.busy {
			return m, nil
		}
		m.busy = true
		m.status = "projecting..."
		return m, m.projectCmd()

	case key.Matches(msg, m.keys.Save):
		if m.user.IsGuest {
			m.status = "guest plans are not saved"
			return m, nil
		}
		if m.busy {
			return m, nil
		}
		m.busy = true
		m.status = "saving..."
		return m, m.saveCmd()

	case key.Matches(msg, m.keys.Next):
		return m.cycleScenario(1), nil

	case key.Matches(msg, m.keys.Prev):
		return m.cycleScenario(-1), nil

	case key.Matches(msg, m.keys.Clone):
		name, err := m.planner.Clone(m.profile, m.user)
		m = m.report(err, fmt.Sprintf("created %s", name))
		return m, nil

	case key.Matches(msg, m.keys.Delete):
		name := m.profile.InvestmentPlan.ActiveScenario
		err := m.planner.Delete(m.profile, m.user, name)
		m = m.report(err, fmt.Sprintf("deleted %s", name))
		return m, nil

	case key.Matches(msg, m.keys.Legalize):
		err := m.planner.Legalize(m.profile)
		m = m.report(err, "all scenarios normalized")
		return m, nil

	case key.Matches(msg, m.keys.Joint):
		return m.toggleJoint(), nil
	}

	if m.scene != SceneAllocations {
		return m, nil
	}

	n := len(m.country.Instruments())
	switch {
	case key.Matches(msg, m.keys.Up):
		m.cursor = (m.cursor - 1 + n) % n
	case key.Matches(msg, m.keys.Down):
		m.cursor = (m.cursor + 1) % n
	case key.Matches(msg, m.keys.Inc):
		m = m.nudge(stepSmall)
	case key.Matches(msg, m.keys.Dec):
		m = m.nudge(stepSmall.Neg())
	case key.Matches(msg, m.keys.IncBig):
		m = m.nudge(stepBig)
	case key.Matches(msg, m.keys.DecBig):
		m = m.nudge(stepBig.Neg())
	case key.Matches(msg, m.keys.Enter):
		m.editing = true
		m.input.SetValue(m.active().Allocations.Get(m.focused()).StringFixed(2))
		m.input.CursorEnd()
		return m, m.input.Focus()
	}
	return m, nil
}

// updateInput handles keys while a value is being typed.
func (m Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.editing = false
		m.input.Blur()
		return m, nil
	case tea.KeyEnter:
		m.editing = false
		m.input.Blur()
		v, err := decimal.NewFromString(strings.TrimSpace(strings.TrimSuffix(m.input.Value(), "%")))
		if err != nil {
			m.err = fmt.Errorf("invalid percentage %q", m.input.Value())
			return m, nil
		}
		return m.apply(v), nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) nudge(delta decimal.Decimal) Model {
	current := m.active().Allocations.Get(m.focused())
	return m.apply(current.Add(delta))
}

// apply runs one rebalancer edit on the focused instrument.
func (m Model) apply(value decimal.Decimal) Model {
	instrument := m.focused()
	res, err := m.planner.Edit(m.profile, instrument, value)
	if err != nil {
		m.err = err
		return m
	}
	m.err = nil
	m.last = &res
	label := m.country.Label(instrument)
	if res.Capped {
		m.status = fmt.Sprintf("%s limited to %s%% (asked %s%%)", label, res.Applied.StringFixed(2), res.Requested.StringFixed(2))
	} else {
		m.status = fmt.Sprintf("%s set to %s%%", label, res.Applied.StringFixed(2))
	}
	return m
}

func (m Model) cycleScenario(dir int) Model {
	names := m.profile.InvestmentPlan.Names()
	if len(names) == 0 {
		return m
	}
	idx := 0
	for i, n := range names {
		if n == m.profile.InvestmentPlan.ActiveScenario {
			idx = i
		}
	}
	next := names[(idx+dir+len(names))%len(names)]
	err := m.planner.Select(m.profile, next)
	return m.report(err, fmt.Sprintf("switched to %s", next))
}

// toggleJoint switches between the single and joint POMIS limits and
// re-legalizes every scenario against the new ceiling.
func (m Model) toggleJoint() Model {
	if _, ok := m.country.Rules[instruments.POMIS]; !ok {
		m.status = fmt.Sprintf("no POMIS in %s", m.country.Code)
		return m
	}
	m.profile.JointPOMIS = !m.profile.JointPOMIS
	cp, err := m.planner.CountryProfile(m.profile)
	if err != nil {
		m.profile.JointPOMIS = !m.profile.JointPOMIS
		return m.report(err, "")
	}
	m.country = cp
	state := "single"
	if m.profile.JointPOMIS {
		state = "joint"
	}
	return m.report(m.planner.Legalize(m.profile), "POMIS limit: "+state+" holder")
}

func (m Model) report(err error, ok string) Model {
	if err != nil {
		if errors.Is(err, planner.ErrGuestForbidden) {
			m.err = errors.New("sign in to manage scenarios")
		} else {
			m.err = err
		}
		return m
	}
	m.err = nil
	m.last = nil
	m.status = ok
	return m
}
