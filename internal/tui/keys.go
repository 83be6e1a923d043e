package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up    key.Binding
	Down  key.Binding
	Left  key.Binding
	Right key.Binding

	Today    key.Binding
	Toggle   key.Binding
	View1    key.Binding
	View2    key.Binding
	View3    key.Binding
	Collapse key.Binding
	Refresh  key.Binding

	Move        key.Binding
	ResizeStart key.Binding
	ResizeEnd   key.Binding
	AllDay      key.Binding
	Confirm     key.Binding
	Cancel      key.Binding

	Help key.Binding
	Quit key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:    key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "previous item")),
		Down:  key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "next item")),
		Left:  key.NewBinding(key.WithKeys("h", "left"), key.WithHelp("h/←", "earlier")),
		Right: key.NewBinding(key.WithKeys("l", "right"), key.WithHelp("l/→", "later")),

		Today:    key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "today")),
		Toggle:   key.NewBinding(key.WithKeys("v", "tab"), key.WithHelp("v", "gantt/calendar")),
		View1:    key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "day / month")),
		View2:    key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "week")),
		View3:    key.NewBinding(key.WithKeys("3"), key.WithHelp("3", "month / day")),
		Collapse: key.NewBinding(key.WithKeys(" ", "c"), key.WithHelp("space", "fold project")),
		Refresh:  key.NewBinding(key.WithKeys("r", "ctrl+r"), key.WithHelp("r", "reload")),

		Move:        key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "move")),
		ResizeStart: key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "resize start")),
		ResizeEnd:   key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "resize end")),
		AllDay:      key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "all-day/timed")),
		Confirm:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "save")),
		Cancel:      key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),

		Help: key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit: key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// gestureKeys is the help shown while a move or resize is in progress.
type gestureKeys struct{ k keyMap }

func (g gestureKeys) ShortHelp() []key.Binding {
	return []key.Binding{g.k.Left, g.k.Right, g.k.Up, g.k.Down, g.k.AllDay, g.k.Confirm, g.k.Cancel}
}

func (g gestureKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{g.ShortHelp()}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Down, k.Up, k.Left, k.Right, k.Move, k.Toggle, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Left, k.Right},
		{k.Today, k.Toggle, k.View1, k.View2, k.View3, k.Collapse, k.Refresh},
		{k.Move, k.ResizeStart, k.ResizeEnd, k.AllDay, k.Confirm, k.Cancel},
		{k.Help, k.Quit},
	}
}
