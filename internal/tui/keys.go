package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	Toggle   key.Binding
	CheckAll key.Binding
	Reset    key.Binding
	Delete   key.Binding
	PrevDay  key.Binding
	NextDay  key.Binding
	Today    key.Binding
	MoveNext key.Binding
	Notes    key.Binding
	Metric   key.Binding
	History  key.Binding
	Help     key.Binding
	Quit     key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Toggle:   key.NewBinding(key.WithKeys(" ", "space", "enter"), key.WithHelp("space", "toggle")),
		CheckAll: key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "check all")),
		Reset:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reset day")),
		Delete:   key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "delete task")),
		PrevDay:  key.NewBinding(key.WithKeys("[", "h", "left"), key.WithHelp("[", "prev day")),
		NextDay:  key.NewBinding(key.WithKeys("]", "l", "right"), key.WithHelp("]", "next day")),
		Today:    key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "today")),
		MoveNext: key.NewBinding(key.WithKeys(">"), key.WithHelp(">", "move to tomorrow")),
		Notes:    key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "notes")),
		Metric:   key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "metric")),
		History:  key.NewBinding(key.WithKeys("H"), key.WithHelp("H", "history")),
		Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more")),
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.PrevDay, k.NextDay, k.Today, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Toggle, k.CheckAll, k.Reset},
		{k.Delete, k.MoveNext, k.Notes, k.Metric},
		{k.PrevDay, k.NextDay, k.Today, k.History, k.Quit},
	}
}
