package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rgehrsitz/corpusplan/internal/allocation"
	"github.com/rgehrsitz/corpusplan/internal/compare"
	"github.com/rgehrsitz/corpusplan/internal/domain"
	"github.com/rgehrsitz/corpusplan/internal/scenario"
	"github.com/rgehrsitz/corpusplan/internal/tui/components"
)

// View renders the current state of the application
func (m Model) View() string {
	var content string
	switch m.scene {
	case SceneCompare:
		content = m.renderCompare()
	case SceneProjection:
		content = m.renderProjection()
	default:
		content = m.renderAllocations()
	}

	return AppStyle.Render(lipgloss.JoinVertical(
		lipgloss.Left,
		m.renderTitleBar(),
		m.renderTabs(),
		"",
		content,
		"",
		m.renderStatusBar(),
		m.help.View(m.keys),
	))
}

// renderTitleBar renders the application title and breadcrumb
func (m Model) renderTitleBar() string {
	who := m.user.Username
	if m.user.IsGuest || who == "" {
		who = "guest"
	}
	age := "age unknown"
	if m.profile.Age > 0 {
		age = fmt.Sprintf("age %d", m.profile.Age)
	}
	if m.profile.JointPOMIS {
		who += " (joint)"
	}
	title := TitleStyle.Render("corpusplan")
	sub := SubtitleStyle.Render(fmt.Sprintf(" %s · %s · %s (%s) · %s",
		m.country.Code, who, age, domain.StageForAge(m.profile.Age), m.scene))
	return lipgloss.JoinHorizontal(lipgloss.Top, title, sub)
}

func (m Model) renderTabs() string {
	plan := m.profile.InvestmentPlan
	tabs := make([]string, 0, len(plan.Scenarios))
	for _, name := range plan.Names() {
		if name == plan.ActiveScenario {
			tabs = append(tabs, ActiveTabStyle.Render(name))
		} else {
			tabs = append(tabs, TabStyle.Render(name))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m Model) renderAllocations() string {
	sc := m.active()
	total := m.profile.Corpus.Total()
	ceilings := allocation.Ceilings(total, m.profile.Age, m.country.Rules)

	var b strings.Builder
	for i, f := range m.country.Fields {
		bar := components.NewAllocationBar(f.Label, sc.Allocations.Get(f.Key).InexactFloat64()).
			WithCeiling(ceilings[f.Key].InexactFloat64()).
			WithWidth(barWidth(m.width)).
			SetFocused(i == m.cursor)
		b.WriteString(bar.Render())
		b.WriteString("\n")
	}

	breakdown := scenario.IncomeBreakdown(m.country, sc, total)
	sumLine := fmt.Sprintf("Total %s%%", breakdown.AllocationTotal.StringFixed(2))
	if breakdown.OffTarget {
		sumLine = WarnStyle.Render(sumLine + " (press n to normalize)")
	} else {
		sumLine = OKStyle.Render(sumLine)
	}
	b.WriteString("\n" + sumLine + "\n")
	b.WriteString(fmt.Sprintf("Corpus %s%s · est. yearly income %s%s · withdrawal %s%s/month\n",
		m.country.Currency, total.StringFixed(0),
		m.country.Currency, breakdown.IncomeTotal.StringFixed(0),
		m.country.Currency, sc.Withdrawal.Monthly.StringFixed(0)))

	if priority := scenario.PriorityInstruments(domain.StageForAge(m.profile.Age), m.profile.Age, m.country); len(priority) > 0 {
		labels := make([]string, len(priority))
		for i, k := range priority {
			labels[i] = m.country.Label(k)
		}
		b.WriteString(SubtitleStyle.Render("Suggested focus: " + strings.Join(labels, ", ")))
		b.WriteString("\n")
	}

	if m.editing {
		b.WriteString("\n" + m.country.Label(m.focused()) + ": " + m.input.View() + "%\n")
	}
	return BorderStyle.Render(strings.TrimRight(b.String(), "\n"))
}

func (m Model) renderCompare() string {
	plan := m.profile.InvestmentPlan
	var alts []string
	for _, name := range plan.Names() {
		if name != domain.BaseScenario {
			alts = append(alts, name)
		}
	}
	set, err := compare.NewCompareEngine(m.country.Absorber).CompareScenarios(plan, domain.BaseScenario, alts)
	if err != nil {
		return ErrorStyle.Render(err.Error())
	}
	tf := &compare.TableFormatter{Currency: m.country.Currency}
	return BorderStyle.Render(strings.TrimRight(tf.Format(set), "\n"))
}

func (m Model) renderProjection() string {
	if m.projection == nil {
		return BorderStyle.Render("No projection yet. Press p to run one.")
	}
	var b strings.Builder
	b.WriteString("Projection results\n\n")
	for _, name := range m.projection.Scenarios() {
		marker := "  "
		if name == m.profile.InvestmentPlan.ActiveScenario {
			marker = "▸ "
		}
		b.WriteString(fmt.Sprintf("%s%s (%d bytes)\n", marker, name, len(m.projection.ResultsByScenario[name])))
	}
	if len(m.projection.BaseContext) > 0 {
		b.WriteString(fmt.Sprintf("\nbase context: %d fields\n", len(m.projection.BaseContext)))
	}
	return BorderStyle.Render(strings.TrimRight(b.String(), "\n"))
}

// renderStatusBar renders the status line
func (m Model) renderStatusBar() string {
	if m.err != nil {
		return ErrorStyle.Render("Error: " + m.err.Error())
	}
	if m.last != nil && m.last.FinalPassSurplus.IsPositive() {
		return WarnStyle.Render(m.status + fmt.Sprintf(" · %s%% moved to %s", m.last.FinalPassSurplus.StringFixed(2), m.country.Label(m.country.Absorber)))
	}
	return StatusStyle.Render(m.status)
}

func barWidth(termWidth int) int {
	w := termWidth - 60
	if w < 10 {
		return 10
	}
	if w > 40 {
		return 40
	}
	return w
}
