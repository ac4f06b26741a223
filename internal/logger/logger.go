package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rs/zerolog/pkgerrors"
)

// Logger wraps zerolog.Logger with additional functionality
type Logger struct {
	zerolog.Logger
	level  zerolog.Level
	output io.Writer
}

// Config represents logger configuration
type Config struct {
	// Log level (debug, info, warn, error)
	Level string `toml:"level"`

	// Output destination (stdout, stderr, or file path)
	Output string `toml:"output"`

	// Enable colored output (console outputs only)
	Color bool `toml:"color"`

	// Enable timestamp in logs
	Timestamp bool `toml:"timestamp"`

	// Enable caller information (file:line)
	Caller bool `toml:"caller"`
}

// DefaultConfig returns default logger configuration
func DefaultConfig() *Config {
	return &Config{
		Level:     "error",
		Output:    "stderr",
		Color:     true,
		Timestamp: true,
		Caller:    false,
	}
}

var (
	globalLogger *Logger
	logFile      *os.File
	mu           sync.Mutex
)

// Init initializes the global logger with the provided configuration.
// Calling it again replaces the previous logger and closes its log file.
func Init(config *Config) error {
	if config == nil {
		config = DefaultConfig()
	}

	// Set error stack marshaling
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack

	// Parse log level
	level, err := zerolog.ParseLevel(config.Level)
	if err != nil {
		return fmt.Errorf("invalid log level %s: %w", config.Level, err)
	}

	// Configure output
	var output io.Writer
	var file *os.File
	switch config.Output {
	case "stdout":
		output = os.Stdout
	case "stderr", "":
		output = os.Stderr
	default:
		// The selector owns the terminal, so file output is the normal case
		if err := os.MkdirAll(filepath.Dir(config.Output), 0700); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}

		file, err = os.OpenFile(config.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		output = file
	}

	// Configure console writer for terminal output
	if file == nil && config.Color {
		output = zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: time.RFC3339,
		}
	}

	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		_ = logFile.Close()
	}
	logFile = file

	globalLogger = build(output, level, config.Timestamp, config.Caller)

	// Set global logger
	log.Logger = globalLogger.Logger

	return nil
}

// New builds a standalone logger writing JSON lines to w
func New(w io.Writer, level zerolog.Level) *Logger {
	return build(w, level, false, false)
}

func build(output io.Writer, level zerolog.Level, timestamp, caller bool) *Logger {
	logger := zerolog.New(output).Level(level)

	if timestamp {
		logger = logger.With().Timestamp().Logger()
	}

	if caller {
		logger = logger.With().Caller().Logger()
	}

	return &Logger{
		Logger: logger,
		level:  level,
		output: output,
	}
}

// Close releases the log file, if any
func Close() error {
	mu.Lock()
	defer mu.Unlock()

	if logFile == nil {
		return nil
	}
	err := logFile.Close()
	logFile = nil
	return err
}

// GetLogger returns the global logger instance
func GetLogger() *Logger {
	mu.Lock()
	l := globalLogger
	mu.Unlock()

	if l == nil {
		// Initialize with defaults if not already done
		_ = Init(DefaultConfig())
		mu.Lock()
		l = globalLogger
		mu.Unlock()
	}
	return l
}

// WithField adds a field to the logger context
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{
		Logger: l.Logger.With().Interface(key, value).Logger(),
		level:  l.level,
		output: l.output,
	}
}

// WithError adds an error field to the logger context
func (l *Logger) WithError(err error) *Logger {
	return &Logger{
		Logger: l.Logger.With().Err(err).Logger(),
		level:  l.level,
		output: l.output,
	}
}

// WithComponent adds a component field for structured logging
func (l *Logger) WithComponent(component string) *Logger {
	return l.WithField("component", component)
}

// WithOperation adds an operation field for structured logging
func (l *Logger) WithOperation(operation string) *Logger {
	return l.WithField("operation", operation)
}

// WithSessionID adds a session ID field
func (l *Logger) WithSessionID(sessionID string) *Logger {
	return l.WithField("session_id", sessionID)
}

// Storage creates a logger with storage context
func (l *Logger) Storage() *Logger {
	return l.WithComponent("storage")
}

// Ranking creates a logger with ranking context
func (l *Logger) Ranking() *Logger {
	return l.WithComponent("ranking")
}

// Terminal creates a logger with terminal detection context
func (l *Logger) Terminal() *Logger {
	return l.WithComponent("terminal")
}

// Events creates a logger with input capture context
func (l *Logger) Events() *Logger {
	return l.WithComponent("events")
}

// TUI creates a logger with TUI context
func (l *Logger) TUI() *Logger {
	return l.WithComponent("tui")
}
