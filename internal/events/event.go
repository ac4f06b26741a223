// Package events carries terminal input from a background reader to the
// selector loop.
package events

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

// Kind identifies what an Event carries
type Kind int

const (
	// KindInit is delivered once before any input
	KindInit Kind = iota
	// KindQuit ends the run without a selection
	KindQuit
	// KindKey carries one decoded key press
	KindKey
	// KindSearchQueryChanged replaces the search query wholesale
	KindSearchQueryChanged
	// KindFailure reports that input could no longer be read
	KindFailure
)

func (k Kind) String() string {
	switch k {
	case KindInit:
		return "init"
	case KindQuit:
		return "quit"
	case KindKey:
		return "key"
	case KindSearchQueryChanged:
		return "search_query_changed"
	case KindFailure:
		return "failure"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Event is one message on the Channel. Only the field matching Kind is set.
type Event struct {
	Kind  Kind
	Key   tea.Key
	Query string
	Err   error
}

func InitEvent() Event { return Event{Kind: KindInit} }

func QuitEvent() Event { return Event{Kind: KindQuit} }

func KeyEvent(k tea.Key) Event { return Event{Kind: KindKey, Key: k} }

func QueryEvent(q string) Event { return Event{Kind: KindSearchQueryChanged, Query: q} }

func FailureEvent(err error) Event { return Event{Kind: KindFailure, Err: err} }

func (e Event) String() string {
	switch e.Kind {
	case KindKey:
		return "key(" + e.Key.String() + ")"
	case KindSearchQueryChanged:
		return fmt.Sprintf("search_query_changed(%q)", e.Query)
	case KindFailure:
		return fmt.Sprintf("failure(%v)", e.Err)
	default:
		return e.Kind.String()
	}
}
