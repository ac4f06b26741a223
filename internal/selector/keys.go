package selector

import "github.com/charmbracelet/bubbles/key"

// KeyMap holds the selector's key bindings
type KeyMap struct {
	Quit      key.Binding
	Confirm   key.Binding
	Up        key.Binding
	Down      key.Binding
	Backspace key.Binding
	Normal    key.Binding

	// Normal mode only
	Insert     key.Binding
	NormalQuit key.Binding
	NormalUp   key.Binding
	NormalDown key.Binding
}

// DefaultKeyMap returns the standard bindings
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "quit"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "select"),
		),
		Up: key.NewBinding(
			key.WithKeys("up"),
			key.WithHelp("↑", "move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down"),
			key.WithHelp("↓", "move down"),
		),
		Backspace: key.NewBinding(
			key.WithKeys("backspace"),
			key.WithHelp("backspace", "delete"),
		),
		Normal: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "normal mode"),
		),
		Insert: key.NewBinding(
			key.WithKeys("i"),
			key.WithHelp("i", "insert mode"),
		),
		NormalQuit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
		NormalUp: key.NewBinding(
			key.WithKeys("k"),
			key.WithHelp("k", "up"),
		),
		NormalDown: key.NewBinding(
			key.WithKeys("j"),
			key.WithHelp("j", "down"),
		),
	}
}

// ShortHelp returns the bindings worth showing in mode
func (k KeyMap) ShortHelp(mode Mode) []key.Binding {
	switch mode {
	case ModeNormal:
		return []key.Binding{k.NormalDown, k.NormalUp, k.Confirm, k.Insert, k.NormalQuit}
	default:
		return []key.Binding{k.Up, k.Down, k.Confirm, k.Normal, k.Quit}
	}
}
