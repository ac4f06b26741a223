package output

import (
	"fmt"
	"io"
	"os"

	"github.com/NeverVane/historic/internal/config"
)

// Formatter provides a high-level interface for CLI output formatting.
// Status messages go to the error stream so stdout stays clean for the
// calling shell.
type Formatter struct {
	colorFormatter *ColorFormatter
	out            io.Writer
	errOut         io.Writer
	verboseMode    bool
}

// NewFormatter creates a new formatter instance from config
func NewFormatter(cfg *config.Config) *Formatter {
	return NewFormatterWithWriters(&cfg.Output, os.Stdout, os.Stderr, isTerminal(os.Stderr))
}

// NewFormatterWithWriters creates a formatter writing to out and errOut
func NewFormatterWithWriters(cfg *config.OutputConfig, out, errOut io.Writer, isTTY bool) *Formatter {
	return &Formatter{
		colorFormatter: NewColorFormatter(cfg, isTTY),
		out:            out,
		errOut:         errOut,
	}
}

// SetFlags configures the formatter based on command line flags
func (f *Formatter) SetFlags(verbose, noColor bool) {
	f.verboseMode = verbose
	f.colorFormatter.SetNoColor(noColor)
}

// Success prints a success message
func (f *Formatter) Success(format string, args ...interface{}) {
	fmt.Fprintln(f.errOut, f.colorFormatter.Success(fmt.Sprintf(format, args...)))
}

// Error prints an error message
func (f *Formatter) Error(format string, args ...interface{}) {
	fmt.Fprintln(f.errOut, f.colorFormatter.Error(fmt.Sprintf(format, args...)))
}

// Warning prints a warning message
func (f *Formatter) Warning(format string, args ...interface{}) {
	fmt.Fprintln(f.errOut, f.colorFormatter.Warning(fmt.Sprintf(format, args...)))
}

// Info prints an info message (verbose mode only)
func (f *Formatter) Info(format string, args ...interface{}) {
	if f.verboseMode {
		fmt.Fprintln(f.errOut, f.colorFormatter.Info(fmt.Sprintf(format, args...)))
	}
}

// Println prints a plain line to stdout
func (f *Formatter) Println(format string, args ...interface{}) {
	fmt.Fprintf(f.out, format+"\n", args...)
}

// Bold formats text as bold
func (f *Formatter) Bold(text string) string {
	return f.colorFormatter.Bold(text)
}

// Colorize applies color to text
func (f *Formatter) Colorize(text string, statusType StatusType) string {
	return f.colorFormatter.Colorize(text, statusType)
}

// IsColorsEnabled returns whether colors are enabled
func (f *Formatter) IsColorsEnabled() bool {
	return f.colorFormatter.IsEnabled()
}

// IsVerbose returns whether verbose mode is active
func (f *Formatter) IsVerbose() bool {
	return f.verboseMode
}
