package shell

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/NeverVane/historic/internal/apperr"
	"github.com/NeverVane/historic/internal/logger"
)

// Multiplexer identifies the terminal multiplexer hosting the shell
type Multiplexer int

const (
	MultiplexerNone Multiplexer = iota
	MultiplexerTmux
	MultiplexerZellij
)

// String returns the lowercase multiplexer name
func (m Multiplexer) String() string {
	switch m {
	case MultiplexerNone:
		return "none"
	case MultiplexerTmux:
		return "tmux"
	case MultiplexerZellij:
		return "zellij"
	default:
		return fmt.Sprintf("multiplexer(%d)", int(m))
	}
}

// tmuxFormat ends with the session name, the only free-form field, so spaces
// in it survive the split.
const tmuxFormat = "#{window_index}:#{pane_index}:#{session_name}"

// Context is the terminal location a command was typed in
type Context struct {
	Multiplexer Multiplexer
	Session     string
	Window      int
	Pane        int
	WorkingDir  string
}

// CommandRunner runs an external program and returns its stdout
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// ContextCapture detects the terminal context of the current process
type ContextCapture struct {
	logger  *logger.Logger
	run     CommandRunner
	getenv  func(string) string
	getwd   func() (string, error)
	timeout time.Duration
}

// NewContextCapture creates a new context capture instance. timeout bounds
// each multiplexer query.
func NewContextCapture(timeout time.Duration) *ContextCapture {
	return &ContextCapture{
		logger:  logger.GetLogger().Terminal(),
		run:     execRunner,
		getenv:  os.Getenv,
		getwd:   os.Getwd,
		timeout: timeout,
	}
}

// Detect returns the current terminal context. A multiplexer that cannot be
// queried is logged and treated as no multiplexer; only an unknown working
// directory is an error.
func (cc *ContextCapture) Detect(ctx context.Context) (Context, error) {
	wd, err := cc.workingDir()
	if err != nil {
		return Context{}, err
	}

	tc, err := cc.detectMultiplexer(ctx)
	if err != nil {
		cc.logger.WithError(err).Warn().Msg("Multiplexer detection failed, using default session")
		tc = Context{Multiplexer: MultiplexerNone}
	}
	tc.WorkingDir = wd

	cc.logger.Debug().
		Str("multiplexer", tc.Multiplexer.String()).
		Str("session", tc.Session).
		Int("window", tc.Window).
		Int("pane", tc.Pane).
		Msg("Detected terminal context")

	return tc, nil
}

func (cc *ContextCapture) workingDir() (string, error) {
	wd, err := cc.getwd()
	if err == nil && wd != "" {
		return wd, nil
	}

	// The directory may have been removed under the shell
	if pwd := cc.getenv("PWD"); pwd != "" {
		return pwd, nil
	}

	if err == nil {
		err = fmt.Errorf("empty working directory")
	}
	return "", apperr.IO("resolve working directory", err)
}

func (cc *ContextCapture) multiplexer() Multiplexer {
	switch {
	case cc.getenv("TMUX") != "":
		return MultiplexerTmux
	case cc.getenv("ZELLIJ") != "":
		return MultiplexerZellij
	default:
		return MultiplexerNone
	}
}

func (cc *ContextCapture) detectMultiplexer(ctx context.Context) (Context, error) {
	switch m := cc.multiplexer(); m {
	case MultiplexerNone:
		return Context{Multiplexer: MultiplexerNone}, nil
	case MultiplexerTmux:
		return cc.detectTmux(ctx)
	case MultiplexerZellij:
		return cc.detectZellij()
	default:
		return Context{}, apperr.TerminalCapability("detect multiplexer", "unsupported multiplexer "+m.String(), nil)
	}
}

// detectTmux asks the tmux server for the current pane
func (cc *ContextCapture) detectTmux(ctx context.Context) (Context, error) {
	ctx, cancel := context.WithTimeout(ctx, cc.timeout)
	defer cancel()

	out, err := cc.run(ctx, "tmux", "display-message", "-p", "-F", tmuxFormat)
	if err != nil {
		return Context{}, apperr.TerminalCapability("query tmux", "tmux display-message failed", err)
	}

	return parseTmuxOutput(string(out))
}

func parseTmuxOutput(out string) (Context, error) {
	line := strings.TrimRight(out, "\r\n")
	parts := strings.SplitN(line, ":", 3)
	if len(parts) != 3 || parts[2] == "" {
		return Context{}, apperr.TerminalCapability("parse tmux output", fmt.Sprintf("unexpected output %q", line), nil)
	}

	window, err := strconv.Atoi(parts[0])
	if err != nil {
		return Context{}, apperr.TerminalCapability("parse tmux output", "invalid window index", err)
	}
	pane, err := strconv.Atoi(parts[1])
	if err != nil {
		return Context{}, apperr.TerminalCapability("parse tmux output", "invalid pane index", err)
	}

	return Context{
		Multiplexer: MultiplexerTmux,
		Session:     parts[2],
		Window:      window,
		Pane:        pane,
	}, nil
}

// detectZellij reads the variables zellij exports into each pane. Zellij
// does not expose the tab index, so Window stays 0.
func (cc *ContextCapture) detectZellij() (Context, error) {
	session := cc.getenv("ZELLIJ_SESSION_NAME")
	if session == "" {
		return Context{}, apperr.TerminalCapability("query zellij", "ZELLIJ_SESSION_NAME is not set", nil)
	}

	pane, err := strconv.Atoi(cc.getenv("ZELLIJ_PANE_ID"))
	if err != nil {
		return Context{}, apperr.TerminalCapability("query zellij", "invalid ZELLIJ_PANE_ID", err)
	}

	return Context{
		Multiplexer: MultiplexerZellij,
		Session:     session,
		Pane:        pane,
	}, nil
}
