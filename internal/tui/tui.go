// Package tui runs the interactive history selector on the terminal.
package tui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/NeverVane/historic/internal/apperr"
	"github.com/NeverVane/historic/internal/events"
	"github.com/NeverVane/historic/internal/logger"
	"github.com/NeverVane/historic/internal/selector"
)

const defaultShutdownTimeout = 250 * time.Millisecond

// Options configures a selector run
type Options struct {
	Threshold  float64
	MaxVisible int
	ShowHelp   bool

	// ColorScheme is "dark", "light" or "auto" (ask the terminal)
	ColorScheme string

	// InitialQuery pre-fills the search
	InitialQuery string

	// ShutdownTimeout bounds the wait for the input reader to stop
	ShutdownTimeout time.Duration

	// Matcher defaults to a fuzzy matcher
	Matcher selector.Matcher
}

// Run shows candidates (ascending by rank) and returns the chosen command.
// ok is false if the user quit without choosing. The terminal is restored
// before Run returns, including on error or panic.
func Run(ctx context.Context, candidates []string, opts Options) (selection string, ok bool, err error) {
	log := logger.GetLogger().TUI()

	screen, err := OpenScreen()
	if err != nil {
		return "", false, err
	}
	defer func() {
		if cerr := screen.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	ch := events.NewChannel()
	producer, err := events.NewProducer(screen.Input(), ch)
	if err != nil {
		return "", false, apperr.IO("start input reader", err)
	}
	producer.Start()
	defer func() {
		if serr := producer.Stop(opts.shutdownTimeout()); serr != nil {
			log.WithError(serr).Warn().Msg("Input reader did not stop cleanly")
		}
		ch.Close()
	}()

	applyColorScheme(screen.Renderer(), opts.ColorScheme)

	machine := selector.NewMachine(opts.matcher(), opts.Threshold)
	view := NewView(DefaultStyles(screen.Renderer()), machine.Keys(), ViewOptions{
		MaxVisible: opts.MaxVisible,
		ShowHelp:   opts.ShowHelp,
	})

	render := func(s selector.State) error {
		w, h := screen.Size()
		return screen.Draw(view.Render(s, w, h))
	}

	state := initialState(machine, candidates, opts.InitialQuery)
	log.Debug().Int("candidates", len(candidates)).Msg("Selector started")

	final, err := loop(ctx, ch, machine, render, state)
	if err != nil {
		return "", false, err
	}

	log.Debug().Bool("selected", final.Selected).Msg("Selector finished")
	return final.Selection, final.Selected, nil
}

func initialState(m *selector.Machine, candidates []string, query string) selector.State {
	s := selector.NewState(candidates)
	if query != "" {
		s = m.Update(s, events.QueryEvent(query))
	}
	return s
}

// loop renders, waits for the next event, and applies it until the state
// is done. It is the only consumer of ch.
func loop(ctx context.Context, ch *events.Channel, m *selector.Machine, render func(selector.State) error, s selector.State) (selector.State, error) {
	if err := render(s); err != nil {
		return s, apperr.IO("render selector", err)
	}

	for !s.Done {
		ev, err := ch.Next(ctx)
		if errors.Is(err, events.ErrClosed) {
			ev = events.QuitEvent()
		} else if err != nil {
			return s, fmt.Errorf("failed to wait for input: %w", err)
		}

		if ev.Kind == events.KindFailure {
			return s, apperr.IO("read terminal input", ev.Err)
		}

		s = m.Update(s, ev)
		if s.Done {
			break
		}

		if err := render(s); err != nil {
			return s, apperr.IO("render selector", err)
		}
	}

	return s, nil
}

func applyColorScheme(r *lipgloss.Renderer, scheme string) {
	switch scheme {
	case "dark":
		r.SetHasDarkBackground(true)
	case "light":
		r.SetHasDarkBackground(false)
	}
}

func (o Options) shutdownTimeout() time.Duration {
	if o.ShutdownTimeout <= 0 {
		return defaultShutdownTimeout
	}
	return o.ShutdownTimeout
}

func (o Options) matcher() selector.Matcher {
	if o.Matcher == nil {
		return selector.NewFuzzyMatcher()
	}
	return o.Matcher
}
