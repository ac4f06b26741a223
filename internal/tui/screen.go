package tui

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"

	"github.com/NeverVane/historic/internal/apperr"
	"github.com/NeverVane/historic/internal/logger"
)

const (
	ttyPath       = "/dev/tty"
	defaultWidth  = 80
	defaultHeight = 24
)

// Screen owns the terminal while the selector runs: raw input, the
// alternate screen and a hidden cursor. Close restores all of it.
type Screen struct {
	in       *os.File
	out      *os.File
	tty      *os.File
	output   *termenv.Output
	renderer *lipgloss.Renderer
	oldState *term.State
	logger   *logger.Logger

	closeOnce sync.Once
	closeErr  error
}

// OpenScreen takes over the controlling terminal. Stdout is left alone so
// the selection can be captured by the calling shell.
func OpenScreen() (*Screen, error) {
	s := &Screen{logger: logger.GetLogger().TUI()}

	tty, err := os.OpenFile(ttyPath, os.O_RDWR, 0)
	if err == nil {
		s.tty, s.in, s.out = tty, tty, tty
	} else {
		s.logger.Debug().Err(err).Msg("No controlling terminal, using stdin and stderr")
		s.in, s.out = os.Stdin, os.Stderr
	}

	fd := int(s.in.Fd())
	if !term.IsTerminal(fd) {
		s.closeTTY()
		return nil, apperr.IO("open terminal", errors.New("input is not a terminal"))
	}

	state, err := term.MakeRaw(fd)
	if err != nil {
		s.closeTTY()
		return nil, apperr.IO("enter raw mode", err)
	}
	s.oldState = state

	s.output = termenv.NewOutput(s.out)
	s.renderer = lipgloss.NewRenderer(s.out)
	s.output.AltScreen()
	s.output.HideCursor()
	s.output.ClearScreen()

	s.logger.Debug().Str("device", s.out.Name()).Msg("Terminal acquired")
	return s, nil
}

// Input returns the terminal to read keys from
func (s *Screen) Input() *os.File {
	return s.in
}

// Renderer returns a lipgloss renderer bound to the terminal's color profile
func (s *Screen) Renderer() *lipgloss.Renderer {
	return s.renderer
}

// Size returns the terminal size, or 80x24 if it cannot be read
func (s *Screen) Size() (int, int) {
	w, h, err := term.GetSize(int(s.out.Fd()))
	if err != nil || w <= 0 || h <= 0 {
		return defaultWidth, defaultHeight
	}
	return w, h
}

// Draw replaces the screen contents with frame. The previous frame is
// overwritten in place rather than cleared first, so unchanged rows do not
// flicker.
func (s *Screen) Draw(frame string) error {
	s.output.MoveCursor(1, 1)
	_, err := io.WriteString(s.output, overwriteFrame(frame))
	return err
}

// Close restores the terminal. It is safe to call more than once.
func (s *Screen) Close() error {
	s.closeOnce.Do(func() {
		s.output.ShowCursor()
		s.output.ExitAltScreen()

		if s.oldState != nil {
			if err := term.Restore(int(s.in.Fd()), s.oldState); err != nil {
				s.closeErr = apperr.IO("restore terminal", err)
			}
		}
		s.closeTTY()
		s.logger.Debug().Msg("Terminal restored")
	})
	return s.closeErr
}

func (s *Screen) closeTTY() {
	if s.tty != nil {
		_ = s.tty.Close()
		s.tty = nil
	}
}

var (
	eraseLineRight = termenv.CSI + termenv.EraseLineRightSeq
	eraseBelow     = termenv.CSI + fmt.Sprintf(termenv.EraseDisplaySeq, 0)
)

// overwriteFrame terminates each row of frame with an erase to the end of
// the line and erases everything below the last row. Rows end in CRLF since
// raw mode no longer inserts the carriage return.
func overwriteFrame(frame string) string {
	lines := strings.Split(strings.TrimSuffix(frame, "\n"), "\n")

	var b strings.Builder
	for i, line := range lines {
		b.WriteString(line)
		b.WriteString(eraseLineRight)
		if i < len(lines)-1 {
			b.WriteString("\r\n")
		}
	}
	b.WriteString(eraseBelow)
	return b.String()
}
