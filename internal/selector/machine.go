package selector

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/NeverVane/historic/internal/events"
)

// Machine applies events to a State. It holds no state of its own.
type Machine struct {
	matcher   Matcher
	threshold float64
	keys      KeyMap
}

// NewMachine creates a machine that filters with matcher at threshold
func NewMachine(matcher Matcher, threshold float64) *Machine {
	return &Machine{
		matcher:   matcher,
		threshold: threshold,
		keys:      DefaultKeyMap(),
	}
}

// Keys returns the machine's key bindings
func (m *Machine) Keys() KeyMap {
	return m.keys
}

// Update returns the state after ev. A finished state is returned as is.
func (m *Machine) Update(s State, ev events.Event) State {
	if s.Done {
		return s
	}

	switch ev.Kind {
	case events.KindInit:
		return s
	case events.KindQuit, events.KindFailure:
		return quit(s)
	case events.KindSearchQueryChanged:
		return m.setQuery(s, ev.Query)
	case events.KindKey:
		return m.handleKey(s, ev.Key)
	default:
		return s
	}
}

func (m *Machine) handleKey(s State, k tea.Key) State {
	switch {
	case key.Matches(k, m.keys.Quit):
		return quit(s)
	case key.Matches(k, m.keys.Confirm):
		return confirm(s)
	case key.Matches(k, m.keys.Up):
		return moveUp(s)
	case key.Matches(k, m.keys.Down):
		return moveDown(s)
	}

	switch s.Mode {
	case ModeInsert:
		return m.handleInsertKey(s, k)
	case ModeNormal:
		return m.handleNormalKey(s, k)
	default:
		return s
	}
}

func (m *Machine) handleInsertKey(s State, k tea.Key) State {
	switch {
	case key.Matches(k, m.keys.Normal):
		s.Mode = ModeNormal
		return s
	case key.Matches(k, m.keys.Backspace):
		if s.Query == "" {
			return s
		}
		q := []rune(s.Query)
		return m.setQuery(s, string(q[:len(q)-1]))
	case (k.Type == tea.KeyRunes || k.Type == tea.KeySpace) && !k.Alt && !k.Paste:
		return m.setQuery(s, s.Query+string(k.Runes))
	default:
		return s
	}
}

func (m *Machine) handleNormalKey(s State, k tea.Key) State {
	switch {
	case key.Matches(k, m.keys.Insert):
		s.Mode = ModeInsert
		return s
	case key.Matches(k, m.keys.NormalQuit):
		return quit(s)
	case key.Matches(k, m.keys.NormalUp):
		return moveUp(s)
	case key.Matches(k, m.keys.NormalDown):
		return moveDown(s)
	default:
		return s
	}
}

// setQuery replaces the query and recomputes the displayed list
func (m *Machine) setQuery(s State, query string) State {
	if query == s.Query {
		return s
	}

	s.Query = query
	if query == "" {
		s.Filtered = nil
		s.Cursor = lastIndex(s.Candidates)
		return s
	}

	s.Filtered = m.matcher.Score(query, s.Candidates, m.threshold)
	s.Cursor = 0
	return s
}

// The unfiltered list is drawn bottom-to-top and the filtered list
// top-down, so "up" means a higher index only when not filtering.
func moveUp(s State) State {
	if s.Filtering() {
		return moveCursor(s, -1)
	}
	return moveCursor(s, 1)
}

func moveDown(s State) State {
	if s.Filtering() {
		return moveCursor(s, 1)
	}
	return moveCursor(s, -1)
}

func moveCursor(s State, delta int) State {
	n := len(s.Displayed())
	if n == 0 {
		s.Cursor = 0
		return s
	}

	c := s.Cursor + delta
	switch {
	case c < 0:
		c = 0
	case c > n-1:
		c = n - 1
	}
	s.Cursor = c
	return s
}

func confirm(s State) State {
	list := s.Displayed()
	if len(list) == 0 {
		return s
	}

	idx := s.Cursor
	if idx < 0 || idx >= len(list) {
		idx = 0
	}

	s.Selection = list[idx]
	s.Selected = true
	s.Done = true
	return s
}

func quit(s State) State {
	s.Selection = ""
	s.Selected = false
	s.Done = true
	return s
}
