package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	Inc      key.Binding
	Dec      key.Binding
	IncBig   key.Binding
	DecBig   key.Binding
	Enter    key.Binding
	Cancel   key.Binding
	Next     key.Binding
	Prev     key.Binding
	Clone    key.Binding
	Delete   key.Binding
	Legalize key.Binding
	Joint    key.Binding
	Compare  key.Binding
	Project  key.Binding
	Save     key.Binding
	Help     key.Binding
	Quit     key.Binding
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Inc, k.Dec, k.Enter, k.Next, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Inc, k.Dec, k.IncBig, k.DecBig},
		{k.Enter, k.Cancel, k.Legalize, k.Joint},
		{k.Next, k.Prev, k.Clone, k.Delete, k.Compare},
		{k.Project, k.Save, k.Help, k.Quit},
	}
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Inc:      key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "+1%")),
		Dec:      key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "-1%")),
		IncBig:   key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "+5%")),
		DecBig:   key.NewBinding(key.WithKeys("["), key.WithHelp("[", "-5%")),
		Enter:    key.NewBinding(key.WithKeys("enter", "e"), key.WithHelp("enter", "type value")),
		Cancel:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
		Next:     key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next scenario")),
		Prev:     key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "prev scenario")),
		Clone:    key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "clone")),
		Delete:   key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "delete")),
		Legalize: key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "normalize")),
		Joint:    key.NewBinding(key.WithKeys("J"), key.WithHelp("J", "joint POMIS")),
		Compare:  key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "diff vs base")),
		Project:  key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "project")),
		Save:     key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "save")),
		Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}
