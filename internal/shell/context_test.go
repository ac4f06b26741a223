package shell

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NeverVane/historic/internal/apperr"
)

func newTestCapture(env map[string]string, run CommandRunner) *ContextCapture {
	cc := NewContextCapture(time.Second)
	cc.getenv = func(key string) string { return env[key] }
	cc.getwd = func() (string, error) { return "/home/user/project", nil }
	cc.run = run
	return cc
}

func failRunner(t *testing.T) CommandRunner {
	return func(ctx context.Context, name string, args ...string) ([]byte, error) {
		t.Fatalf("unexpected command %s %v", name, args)
		return nil, nil
	}
}

func TestParseTmuxOutput(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Context
		wantErr bool
	}{
		{
			name:  "simple",
			input: "2:1:work\n",
			want:  Context{Multiplexer: MultiplexerTmux, Session: "work", Window: 2, Pane: 1},
		},
		{
			name:  "session name with spaces and colons",
			input: "0:3:my session: dev\n",
			want:  Context{Multiplexer: MultiplexerTmux, Session: "my session: dev", Window: 0, Pane: 3},
		},
		{
			name:  "no trailing newline",
			input: "10:0:main",
			want:  Context{Multiplexer: MultiplexerTmux, Session: "main", Window: 10},
		},
		{name: "empty", input: "", wantErr: true},
		{name: "missing session", input: "1:2:\n", wantErr: true},
		{name: "too few fields", input: "1:2\n", wantErr: true},
		{name: "non numeric window", input: "x:2:main\n", wantErr: true},
		{name: "non numeric pane", input: "1:y:main\n", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseTmuxOutput(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, apperr.Is(err, apperr.KindTerminalCapability))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDetect_NoMultiplexer(t *testing.T) {
	cc := newTestCapture(map[string]string{}, failRunner(t))

	got, err := cc.Detect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Context{Multiplexer: MultiplexerNone, WorkingDir: "/home/user/project"}, got)
}

func TestDetect_Tmux(t *testing.T) {
	var gotArgs []string
	run := func(ctx context.Context, name string, args ...string) ([]byte, error) {
		_, hasDeadline := ctx.Deadline()
		assert.True(t, hasDeadline)
		gotArgs = append([]string{name}, args...)
		return []byte("4:2:dev\n"), nil
	}
	cc := newTestCapture(map[string]string{"TMUX": "/tmp/tmux-1000/default,123,0"}, run)

	got, err := cc.Detect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Context{
		Multiplexer: MultiplexerTmux,
		Session:     "dev",
		Window:      4,
		Pane:        2,
		WorkingDir:  "/home/user/project",
	}, got)
	assert.Equal(t, []string{"tmux", "display-message", "-p", "-F", tmuxFormat}, gotArgs)
}

func TestDetect_TmuxFailureDegradesToNone(t *testing.T) {
	run := func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return nil, errors.New("no server running")
	}
	cc := newTestCapture(map[string]string{"TMUX": "set"}, run)

	got, err := cc.Detect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, MultiplexerNone, got.Multiplexer)
	assert.Equal(t, "/home/user/project", got.WorkingDir)
}

func TestDetect_Zellij(t *testing.T) {
	cc := newTestCapture(map[string]string{
		"ZELLIJ":              "0",
		"ZELLIJ_SESSION_NAME": "flying-cat",
		"ZELLIJ_PANE_ID":      "7",
	}, failRunner(t))

	got, err := cc.Detect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Context{
		Multiplexer: MultiplexerZellij,
		Session:     "flying-cat",
		Pane:        7,
		WorkingDir:  "/home/user/project",
	}, got)
}

func TestDetect_ZellijMissingPaneDegrades(t *testing.T) {
	cc := newTestCapture(map[string]string{
		"ZELLIJ":              "0",
		"ZELLIJ_SESSION_NAME": "flying-cat",
	}, failRunner(t))

	got, err := cc.Detect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, MultiplexerNone, got.Multiplexer)
}

func TestDetect_WorkingDirFallsBackToPWD(t *testing.T) {
	cc := newTestCapture(map[string]string{"PWD": "/removed/dir"}, failRunner(t))
	cc.getwd = func() (string, error) { return "", errors.New("getwd: no such file or directory") }

	got, err := cc.Detect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "/removed/dir", got.WorkingDir)
}

func TestDetect_WorkingDirUnknown(t *testing.T) {
	cc := newTestCapture(map[string]string{}, failRunner(t))
	cc.getwd = func() (string, error) { return "", errors.New("getwd failed") }

	_, err := cc.Detect(context.Background())
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindIO))
}

func TestMultiplexerString(t *testing.T) {
	assert.Equal(t, "none", MultiplexerNone.String())
	assert.Equal(t, "tmux", MultiplexerTmux.String())
	assert.Equal(t, "zellij", MultiplexerZellij.String())
	assert.Equal(t, "multiplexer(9)", Multiplexer(9).String())
}
