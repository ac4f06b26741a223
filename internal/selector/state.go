// Package selector implements the interactive history selector as a pure
// state machine. Rendering lives in package tui.
package selector

import "fmt"

// Mode is the input mode of the selector
type Mode int

const (
	// ModeInsert edits the query; typed characters filter the list live
	ModeInsert Mode = iota
	// ModeNormal navigates the list
	ModeNormal
)

func (m Mode) String() string {
	switch m {
	case ModeInsert:
		return "INSERT"
	case ModeNormal:
		return "NORMAL"
	default:
		return fmt.Sprintf("MODE(%d)", int(m))
	}
}

// State is a snapshot of the selector. Candidates are ascending by rank.
// Cursor indexes the displayed list (Candidates when Query is empty,
// Filtered otherwise).
type State struct {
	Mode       Mode
	Candidates []string
	Query      string
	Filtered   []string
	Cursor     int

	Selection string
	Selected  bool
	Done      bool
}

// NewState returns the initial state for candidates, with the cursor on the
// highest ranked entry.
func NewState(candidates []string) State {
	return State{
		Mode:       ModeInsert,
		Candidates: candidates,
		Cursor:     lastIndex(candidates),
	}
}

// Displayed returns the list currently shown to the user
func (s State) Displayed() []string {
	if s.Query == "" {
		return s.Candidates
	}
	return s.Filtered
}

// Filtering reports whether a query is narrowing the list
func (s State) Filtering() bool {
	return s.Query != ""
}

func lastIndex(list []string) int {
	if len(list) == 0 {
		return 0
	}
	return len(list) - 1
}
