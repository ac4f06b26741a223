package output

import (
	"os"

	"golang.org/x/term"

	"github.com/NeverVane/historic/internal/config"
)

// ColorFormatter handles colored output based on configuration
type ColorFormatter struct {
	config  *config.OutputConfig
	enabled bool
	isTTY   bool
	colors  map[StatusType]string
}

// StatusType represents different types of CLI output status
type StatusType string

const (
	StatusSuccess StatusType = "success"
	StatusError   StatusType = "error"
	StatusWarning StatusType = "warning"
	StatusInfo    StatusType = "info"
)

// ANSI escape codes
const (
	Reset = "\033[0m"
	Bold  = "\033[1m"
)

var statusColors = map[StatusType]string{
	StatusSuccess: "\033[32m",
	StatusError:   "\033[31m",
	StatusWarning: "\033[33m",
	StatusInfo:    "\033[34m",
}

// NewColorFormatter creates a color formatter. isTTY reports whether the
// destination is a terminal.
func NewColorFormatter(cfg *config.OutputConfig, isTTY bool) *ColorFormatter {
	cf := &ColorFormatter{
		config: cfg,
		isTTY:  isTTY,
		colors: statusColors,
	}
	cf.SetNoColor(false)
	return cf
}

// SetNoColor disables color output (for --no-color flag)
func (cf *ColorFormatter) SetNoColor(noColor bool) {
	cf.enabled = cf.config.ColorsEnabled && !noColor && (!cf.config.AutoDetectTTY || cf.isTTY)

	// https://no-color.org
	if os.Getenv("NO_COLOR") != "" {
		cf.enabled = false
	}
}

func (cf *ColorFormatter) Success(message string) string {
	return cf.formatStatus("[OK]", message, StatusSuccess)
}

func (cf *ColorFormatter) Error(message string) string {
	return cf.formatStatus("[FAIL]", message, StatusError)
}

func (cf *ColorFormatter) Warning(message string) string {
	return cf.formatStatus("[WARN]", message, StatusWarning)
}

func (cf *ColorFormatter) Info(message string) string {
	return cf.formatStatus("[INFO]", message, StatusInfo)
}

// formatStatus formats a status message with colored indicator
func (cf *ColorFormatter) formatStatus(indicator, message string, statusType StatusType) string {
	return cf.Colorize(indicator, statusType) + " " + message
}

// Colorize applies color to text based on status type
func (cf *ColorFormatter) Colorize(text string, statusType StatusType) string {
	if !cf.enabled {
		return text
	}

	colorCode := cf.colors[statusType]
	if colorCode == "" {
		return text
	}

	return colorCode + text + Reset
}

// Bold makes text bold (if colors are enabled)
func (cf *ColorFormatter) Bold(text string) string {
	if !cf.enabled {
		return text
	}
	return Bold + text + Reset
}

// IsEnabled returns whether colors are currently enabled
func (cf *ColorFormatter) IsEnabled() bool {
	return cf.enabled
}

// isTerminal checks if f is a terminal
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
