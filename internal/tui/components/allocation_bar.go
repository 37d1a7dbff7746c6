// Package components holds reusable terminal widgets.
package components

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	colorPrimary = lipgloss.Color("#7D56F4")
	colorAccent  = lipgloss.Color("#F4A261")
	colorMuted   = lipgloss.Color("#6C757D")
	colorDanger  = lipgloss.Color("#E63946")
)

// AllocationBar displays one instrument's percentage against its ceiling.
type AllocationBar struct {
	Label     string
	Value     float64
	Ceiling   float64
	Width     int // Total width of the bar
	IsFocused bool
}

// NewAllocationBar creates a bar with a 100% ceiling.
func NewAllocationBar(label string, value float64) *AllocationBar {
	return &AllocationBar{
		Label:   label,
		Value:   value,
		Ceiling: 100,
		Width:   30,
	}
}

// WithCeiling sets the maximum the holder may allocate.
func (b *AllocationBar) WithCeiling(ceiling float64) *AllocationBar {
	b.Ceiling = ceiling
	return b
}

// WithWidth sets the bar width
func (b *AllocationBar) WithWidth(width int) *AllocationBar {
	b.Width = width
	return b
}

// SetFocused sets the focus state
func (b *AllocationBar) SetFocused(focused bool) *AllocationBar {
	b.IsFocused = focused
	return b
}

// Blocked reports whether the holder may not allocate anything here.
func (b *AllocationBar) Blocked() bool {
	return b.Ceiling <= 0
}

// Render returns a single styled line: label, bar and value.
func (b *AllocationBar) Render() string {
	labelStyle := lipgloss.NewStyle().Width(26)
	if b.IsFocused {
		labelStyle = labelStyle.Bold(true).Foreground(colorPrimary)
	}
	cursor := "  "
	if b.IsFocused {
		cursor = "▸ "
	}

	value := fmt.Sprintf("%6.2f%%", b.Value)
	note := ""
	switch {
	case b.Blocked():
		note = lipgloss.NewStyle().Foreground(colorDanger).Render(" not eligible")
	case b.Ceiling < 100:
		note = lipgloss.NewStyle().Foreground(colorMuted).Render(fmt.Sprintf(" max %.2f%%", b.Ceiling))
	}

	return cursor + labelStyle.Render(b.Label) + b.renderBar() + " " + value + note
}

// renderBar draws the filled portion and marks the ceiling with a tick.
func (b *AllocationBar) renderBar() string {
	width := b.Width
	if width <= 0 {
		width = 30
	}
	filled := clamp(int(math.Round(float64(width)*b.Value/100)), 0, width)
	tick := -1
	if b.Ceiling > 0 && b.Ceiling < 100 {
		tick = clamp(int(math.Round(float64(width)*b.Ceiling/100)), 0, width-1)
	}

	fillStyle := lipgloss.NewStyle().Foreground(colorPrimary)
	if b.IsFocused {
		fillStyle = fillStyle.Foreground(colorAccent)
	}
	emptyStyle := lipgloss.NewStyle().Foreground(colorMuted)

	var sb strings.Builder
	for i := 0; i < width; i++ {
		switch {
		case i == tick:
			sb.WriteString(emptyStyle.Render("┃"))
		case i < filled:
			sb.WriteString(fillStyle.Render("█"))
		default:
			sb.WriteString(emptyStyle.Render("░"))
		}
	}
	return sb.String()
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
