package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "historic", filepath.Base(cfg.ConfigDir))
	assert.Equal(t, cfg.ConfigDir, cfg.DataDir)
	assert.Equal(t, filepath.Join(cfg.DataDir, "historic.db"), cfg.Database.Path)
	assert.Equal(t, filepath.Join(cfg.DataDir, "log"), cfg.Log.Output)
	assert.Equal(t, 0.6, cfg.TUI.FuzzyThreshold)
	assert.Equal(t, 250, cfg.TUI.PollIntervalMS)
	assert.False(t, cfg.Sentry.Enabled)
	assert.NoError(t, cfg.Validate())
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(DataDirEnv, dir)

	cfg, err := Load(filepath.Join(dir, "nope.toml"))
	require.NoError(t, err)

	assert.Equal(t, dir, cfg.DataDir)
	assert.Equal(t, filepath.Join(dir, "historic.db"), cfg.Database.Path)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(DataDirEnv, dir)

	path := filepath.Join(dir, "config.toml")
	content := `
[tui]
fuzzy_threshold = 0.3
max_visible = 12

[log]
level = "debug"
output = "stderr"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 0.3, cfg.TUI.FuzzyThreshold)
	assert.Equal(t, 12, cfg.TUI.MaxVisible)
	assert.Equal(t, 250, cfg.TUI.PollIntervalMS)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "stderr", cfg.Log.Output)
	assert.Equal(t, filepath.Join(dir, "historic.db"), cfg.Database.Path)
}

func TestLoadKeepsZeroThreshold(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(DataDirEnv, dir)

	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[tui]\nfuzzy_threshold = 0.0\n"), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0.0, cfg.TUI.FuzzyThreshold)

	cfg.ApplyDefaults()
	assert.Equal(t, 0.0, cfg.TUI.FuzzyThreshold)
}

func TestLoadDefaultPathUsesConfigDir(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(DataDirEnv, dir)

	content := "[shell]\ntmux_timeout_ms = 900\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0600))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 900, cfg.Shell.TmuxTimeoutMS)
}

func TestLoadRejectsBadFiles(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "syntax", content: "[tui\nfuzzy_threshold = "},
		{name: "threshold above one", content: "[tui]\nfuzzy_threshold = 1.5\n"},
		{name: "unknown level", content: "[log]\nlevel = \"loud\"\n"},
		{name: "unknown scheme", content: "[tui]\ncolor_scheme = \"neon\"\n"},
		{name: "bad sync mode", content: "[database]\nsync_mode = \"sometimes\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			t.Setenv(DataDirEnv, dir)
			path := filepath.Join(dir, "config.toml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0600))

			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestDataDirEnvMustBeAbsoluteAndClean(t *testing.T) {
	t.Setenv(DataDirEnv, "relative/dir")
	_, err := Load("")
	assert.Error(t, err)

	t.Setenv(DataDirEnv, "/tmp/historic/../historic")
	_, err = Load("")
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(DataDirEnv, dir)

	cfg, err := Load("")
	require.NoError(t, err)
	cfg.TUI.FuzzyThreshold = 0.45
	cfg.TUI.ShowHelp = false

	path := filepath.Join(dir, "nested", "config.toml")
	require.NoError(t, cfg.Save(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0.45, loaded.TUI.FuzzyThreshold)
	assert.False(t, loaded.TUI.ShowHelp)
}

func TestEnsureDirectories(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	cfg := DefaultConfig()
	cfg.relocate(dir)

	require.NoError(t, cfg.EnsureDirectories())

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestDurations(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "250ms", cfg.GetPollInterval().String())
	assert.Equal(t, "500ms", cfg.GetTmuxTimeout().String())
	assert.Equal(t, "5s", cfg.GetBusyTimeout().String())
}
