package ui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up      key.Binding
	Down    key.Binding
	RunAll  key.Binding
	RunOne  key.Binding
	Fix     key.Binding
	Select  key.Binding
	Filter  key.Binding
	Details key.Binding
	Help    key.Binding
	Quit    key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		RunAll:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "run all")),
		RunOne:  key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "run check")),
		Fix:     key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "fix")),
		Select:  key.NewBinding(key.WithKeys("s", "enter"), key.WithHelp("s", "select")),
		Filter:  key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "filter")),
		Details: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "details")),
		Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.RunAll, k.Fix, k.Select, k.Filter, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Details},
		{k.RunAll, k.RunOne},
		{k.Fix, k.Select, k.Filter},
		{k.Help, k.Quit},
	}
}
