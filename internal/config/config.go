package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// DataDirEnv relocates every historic file into a single directory.
const DataDirEnv = "HISTORIC_DATA_DIR"

// Config represents the complete configuration for historic
type Config struct {
	// Database configuration
	Database DatabaseConfig `toml:"database"`

	// TUI configuration
	TUI TUIConfig `toml:"tui"`

	// Log configuration
	Log LogConfig `toml:"log"`

	// Output configuration
	Output OutputConfig `toml:"output"`

	// Shell integration configuration
	Shell ShellConfig `toml:"shell"`

	// Sentry configuration
	Sentry SentryConfig `toml:"sentry"`

	// Directory paths (computed, not stored in TOML)
	DataDir   string `toml:"-"`
	ConfigDir string `toml:"-"`
}

// DatabaseConfig contains database-related settings
type DatabaseConfig struct {
	// Path to the SQLite database file
	Path string `toml:"path"`

	// Connection pool settings
	MaxOpenConns int `toml:"max_open_conns"`
	MaxIdleConns int `toml:"max_idle_conns"`

	// Milliseconds SQLite waits on a locked database
	BusyTimeoutMS int `toml:"busy_timeout_ms"`

	// WAL mode settings
	WALMode bool `toml:"wal_mode"`

	// Synchronous mode (NORMAL, FULL)
	SyncMode string `toml:"sync_mode"`
}

// TUIConfig contains selector settings
type TUIConfig struct {
	// Minimum similarity (0.0 to 1.0) a candidate needs to stay in the filtered list
	FuzzyThreshold float64 `toml:"fuzzy_threshold"`

	// Upper bound on how long input capture waits before checking for shutdown
	PollIntervalMS int `toml:"poll_interval_ms"`

	// Rows shown in the list, 0 fits the terminal height
	MaxVisible int `toml:"max_visible"`

	// Color scheme (dark, light, auto)
	ColorScheme string `toml:"color_scheme"`

	// Show the key help line under the list
	ShowHelp bool `toml:"show_help"`
}

// LogConfig contains logging settings
type LogConfig struct {
	// Level (debug, info, warn, error)
	Level string `toml:"level"`

	// Output is a file path, "stderr" or "stdout"
	Output string `toml:"output"`

	Timestamp bool `toml:"timestamp"`
	Caller    bool `toml:"caller"`
}

// OutputConfig contains CLI output formatting settings
type OutputConfig struct {
	// Enable colored output
	ColorsEnabled bool `toml:"colors_enabled"`

	// Only color when stdout is a terminal
	AutoDetectTTY bool `toml:"auto_detect_tty"`
}

// ShellConfig contains shell integration settings
type ShellConfig struct {
	// Timeout for querying the terminal multiplexer
	TmuxTimeoutMS int `toml:"tmux_timeout_ms"`

	// Shells that `historic init` can generate integration for
	SupportedShells []string `toml:"supported_shells"`
}

// SentryConfig contains crash reporting settings
type SentryConfig struct {
	Enabled     bool    `toml:"enabled"`
	DSN         string  `toml:"dsn"`
	Environment string  `toml:"environment"`
	SampleRate  float64 `toml:"sample_rate"`
	Debug       bool    `toml:"debug"`
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	baseDir, err := os.UserConfigDir()
	if err != nil {
		homeDir, _ := os.UserHomeDir()
		baseDir = filepath.Join(homeDir, ".config")
	}
	dir := filepath.Join(baseDir, "historic")

	cfg := &Config{
		Database: DatabaseConfig{
			MaxOpenConns:  1,
			MaxIdleConns:  1,
			BusyTimeoutMS: 5000,
			WALMode:       true,
			SyncMode:      "NORMAL",
		},
		TUI: TUIConfig{
			FuzzyThreshold: 0.6,
			PollIntervalMS: 250,
			MaxVisible:     0,
			ColorScheme:    "auto",
			ShowHelp:       true,
		},
		Log: LogConfig{
			Level:     "warn",
			Timestamp: true,
			Caller:    false,
		},
		Output: OutputConfig{
			ColorsEnabled: true,
			AutoDetectTTY: true,
		},
		Shell: ShellConfig{
			TmuxTimeoutMS:   500,
			SupportedShells: []string{"bash", "zsh"},
		},
		Sentry: SentryConfig{
			Enabled:     false,
			Environment: "production",
			SampleRate:  1.0,
		},
	}
	cfg.relocate(dir)

	return cfg
}

// relocate points every path at dir
func (c *Config) relocate(dir string) {
	c.ConfigDir = dir
	c.DataDir = dir
	c.Database.Path = filepath.Join(dir, "historic.db")
	c.Log.Output = filepath.Join(dir, "log")
}

// Load loads configuration from the specified file path
func Load(configPath string) (*Config, error) {
	config := DefaultConfig()

	if err := config.applyEnv(); err != nil {
		return nil, err
	}

	// If no config path specified, use the default location
	if configPath == "" {
		configPath = filepath.Join(config.ConfigDir, "config.toml")
	}

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		// Config file doesn't exist, return defaults
		config.ApplyDefaults()
		return config, nil
	}

	// Load and parse the TOML file
	if _, err := toml.DecodeFile(configPath, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
	}

	// Apply defaults to fill in any missing values
	config.ApplyDefaults()

	// Validate the configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// applyEnv honours HISTORIC_DATA_DIR
func (c *Config) applyEnv() error {
	dataDir := os.Getenv(DataDirEnv)
	if dataDir == "" {
		return nil
	}

	if !filepath.IsAbs(dataDir) {
		return fmt.Errorf("%s must be an absolute path, got: %s", DataDirEnv, dataDir)
	}
	if filepath.Clean(dataDir) != dataDir {
		return fmt.Errorf("%s contains invalid path components: %s", DataDirEnv, dataDir)
	}

	c.relocate(dataDir)
	return nil
}

// Save saves the configuration to the specified file path
func (c *Config) Save(configPath string) error {
	// Ensure the config directory exists
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	file, err := os.OpenFile(configPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	// Encode the configuration as TOML
	encoder := toml.NewEncoder(file)
	if err := encoder.Encode(c); err != nil {
		return fmt.Errorf("failed to encode config as TOML: %w", err)
	}

	return nil
}

// Validate validates the configuration values
func (c *Config) Validate() error {
	// Validate database settings
	if c.Database.Path == "" {
		return fmt.Errorf("database.path must not be empty")
	}
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.BusyTimeoutMS < 0 {
		return fmt.Errorf("database.busy_timeout_ms must be non-negative")
	}
	validSyncModes := map[string]bool{"OFF": true, "NORMAL": true, "FULL": true, "EXTRA": true}
	if !validSyncModes[strings.ToUpper(c.Database.SyncMode)] {
		return fmt.Errorf("database.sync_mode must be one of: OFF, NORMAL, FULL, EXTRA")
	}

	// Validate TUI settings
	if c.TUI.FuzzyThreshold < 0 || c.TUI.FuzzyThreshold > 1 {
		return fmt.Errorf("tui.fuzzy_threshold must be between 0.0 and 1.0")
	}
	if c.TUI.PollIntervalMS <= 0 {
		return fmt.Errorf("tui.poll_interval_ms must be positive")
	}
	if c.TUI.MaxVisible < 0 {
		return fmt.Errorf("tui.max_visible must be non-negative")
	}

	// Validate color scheme
	validColorSchemes := map[string]bool{"dark": true, "light": true, "auto": true}
	if !validColorSchemes[c.TUI.ColorScheme] {
		return fmt.Errorf("tui.color_scheme must be one of: dark, light, auto")
	}

	// Validate log settings
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Log.Level] {
		return fmt.Errorf("log.level must be one of: debug, info, warn, error")
	}

	// Validate shell settings
	if c.Shell.TmuxTimeoutMS <= 0 {
		return fmt.Errorf("shell.tmux_timeout_ms must be positive")
	}

	if c.Sentry.SampleRate < 0 || c.Sentry.SampleRate > 1 {
		return fmt.Errorf("sentry.sample_rate must be between 0.0 and 1.0")
	}

	return nil
}

// EnsureDirectories creates necessary directories for the configuration
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.ConfigDir,
		filepath.Dir(c.Database.Path),
	}
	if c.Log.Output != "stderr" && c.Log.Output != "stdout" && c.Log.Output != "" {
		dirs = append(dirs, filepath.Dir(c.Log.Output))
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

// GetPollInterval returns the input poll interval as a time.Duration
func (c *Config) GetPollInterval() time.Duration {
	return time.Duration(c.TUI.PollIntervalMS) * time.Millisecond
}

// GetTmuxTimeout returns the multiplexer query timeout as a time.Duration
func (c *Config) GetTmuxTimeout() time.Duration {
	return time.Duration(c.Shell.TmuxTimeoutMS) * time.Millisecond
}

// GetBusyTimeout returns the SQLite busy timeout as a time.Duration
func (c *Config) GetBusyTimeout() time.Duration {
	return time.Duration(c.Database.BusyTimeoutMS) * time.Millisecond
}

// ApplyDefaults fills in zero values left by a partial config file
func (c *Config) ApplyDefaults() {
	defaults := DefaultConfig()

	// Database defaults
	if c.Database.Path == "" {
		c.Database.Path = filepath.Join(c.DataDir, "historic.db")
	}
	if c.Database.MaxOpenConns <= 0 {
		c.Database.MaxOpenConns = defaults.Database.MaxOpenConns
	}
	if c.Database.MaxIdleConns <= 0 {
		c.Database.MaxIdleConns = defaults.Database.MaxIdleConns
	}
	if c.Database.BusyTimeoutMS <= 0 {
		c.Database.BusyTimeoutMS = defaults.Database.BusyTimeoutMS
	}
	if c.Database.SyncMode == "" {
		c.Database.SyncMode = defaults.Database.SyncMode
	}

	// TUI defaults; a zero threshold is a valid setting that disables filtering
	if c.TUI.PollIntervalMS <= 0 {
		c.TUI.PollIntervalMS = defaults.TUI.PollIntervalMS
	}
	if c.TUI.ColorScheme == "" {
		c.TUI.ColorScheme = defaults.TUI.ColorScheme
	}

	// Log defaults
	if c.Log.Level == "" {
		c.Log.Level = defaults.Log.Level
	}
	if c.Log.Output == "" {
		c.Log.Output = filepath.Join(c.DataDir, "log")
	}

	// Shell defaults
	if c.Shell.TmuxTimeoutMS <= 0 {
		c.Shell.TmuxTimeoutMS = defaults.Shell.TmuxTimeoutMS
	}
	if len(c.Shell.SupportedShells) == 0 {
		c.Shell.SupportedShells = defaults.Shell.SupportedShells
	}

	if c.Sentry.Environment == "" {
		c.Sentry.Environment = defaults.Sentry.Environment
	}
}
