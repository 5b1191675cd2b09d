package ui

import "github.com/charmbracelet/bubbles/key"

type KeyMap struct {
	Up           key.Binding
	Down         key.Binding
	PageUp       key.Binding
	PageDown     key.Binding
	Home         key.Binding
	End          key.Binding
	Enter        key.Binding
	Back         key.Binding
	SortName     key.Binding
	SortSize     key.Binding
	SortApparent key.Binding
	SortItems    key.Binding
	SortMtime    key.Binding
	DirsFirst    key.Binding
	Apparent     key.Binding
	Hidden       key.Binding
	NaturalSort  key.Binding
	Help         key.Binding
	Quit         key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "move down"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("pgup", "page up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("pgdn", "page down"),
		),
		Home: key.NewBinding(
			key.WithKeys("home", "g"),
			key.WithHelp("home/g", "first entry"),
		),
		End: key.NewBinding(
			key.WithKeys("end", "G"),
			key.WithHelp("end/G", "last entry"),
		),
		Enter: key.NewBinding(
			key.WithKeys("enter", "right", "l"),
			key.WithHelp("→/l/enter", "open directory"),
		),
		Back: key.NewBinding(
			key.WithKeys("left", "h", "backspace"),
			key.WithHelp("←/h", "parent directory"),
		),
		SortName: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "sort by name"),
		),
		SortSize: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "sort by disk usage"),
		),
		SortApparent: key.NewBinding(
			key.WithKeys("A"),
			key.WithHelp("A", "sort by apparent size"),
		),
		SortItems: key.NewBinding(
			key.WithKeys("C"),
			key.WithHelp("C", "sort by item count"),
		),
		SortMtime: key.NewBinding(
			key.WithKeys("M"),
			key.WithHelp("M", "sort by mtime"),
		),
		DirsFirst: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "directories first"),
		),
		Apparent: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "apparent size / disk usage"),
		),
		Hidden: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "show hidden"),
		),
		NaturalSort: key.NewBinding(
			key.WithKeys("N"),
			key.WithHelp("N", "natural name order"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c", "esc"),
			key.WithHelp("q", "quit"),
		),
	}
}

// helpBindings is the order bindings appear in the help overlay.
func (keys KeyMap) helpBindings() []key.Binding {
	return []key.Binding{
		keys.Up, keys.Down, keys.PageUp, keys.PageDown, keys.Home, keys.End,
		keys.Enter, keys.Back,
		keys.SortName, keys.SortSize, keys.SortApparent, keys.SortItems, keys.SortMtime,
		keys.DirsFirst, keys.Apparent, keys.Hidden, keys.NaturalSort,
		keys.Help, keys.Quit,
	}
}
