// Package cli provides the command-line interface for git-privacy.
package cli

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// Options holds the CLI runtime options and dependencies shared across
// every subcommand. Encapsulating them here (rather than as package
// globals) keeps commands testable against fake streams and a fake logger.
type Options struct {
	// Global flags
	GitDir  string
	Verbose bool
	JSON    bool
	NoColor bool

	// Runtime state
	Logger *log.Logger
	Styles Styles

	// InvocationID correlates one process's log lines; stamped once at
	// startup, not reused across commands.
	InvocationID string

	// I/O streams (for testing)
	Stdout io.Writer
	Stderr io.Writer
	Stdin  io.Reader
}

// Styles holds the CLI styling configuration.
type Styles struct {
	Title   lipgloss.Style
	Success lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
	Info    lipgloss.Style
	Subtle  lipgloss.Style
	Bold    lipgloss.Style
}

// DefaultStyles returns the default CLI styles.
func DefaultStyles() Styles {
	return Styles{
		Title:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99")),
		Success: lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		Warning: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		Info:    lipgloss.NewStyle().Foreground(lipgloss.Color("33")),
		Subtle:  lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		Bold:    lipgloss.NewStyle().Bold(true),
	}
}

// NewOptions creates a new Options instance with default values.
func NewOptions() *Options {
	id := uuid.NewString()
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		ReportCaller:    false,
	})
	logger = logger.With("invocation", id)
	return &Options{
		Styles:       DefaultStyles(),
		Stdout:       os.Stdout,
		Stderr:       os.Stderr,
		Stdin:        os.Stdin,
		Logger:       logger,
		InvocationID: id,
	}
}

// IsJSON returns true if JSON output is enabled.
func (o *Options) IsJSON() bool { return o.JSON }

// IsVerbose returns true if verbose output is enabled.
func (o *Options) IsVerbose() bool { return o.Verbose }

// PrintSuccess prints a success message.
func (o *Options) PrintSuccess(msg string) { o.println(o.Styles.Success.Render("✓ " + msg)) }

// PrintError prints an error message.
func (o *Options) PrintError(msg string) { o.println(o.Styles.Error.Render("✗ " + msg)) }

// PrintWarning prints a warning message.
func (o *Options) PrintWarning(msg string) { o.println(o.Styles.Warning.Render("⚠ " + msg)) }

// PrintInfo prints an info message.
func (o *Options) PrintInfo(msg string) { o.println(o.Styles.Info.Render("ℹ " + msg)) }

// PrintTitle prints a title.
func (o *Options) PrintTitle(msg string) { o.println(o.Styles.Title.Render(msg)) }

// PrintSubtle prints subtle/muted text.
func (o *Options) PrintSubtle(msg string) { o.println(o.Styles.Subtle.Render(msg)) }

func (o *Options) println(s string) {
	if o.Stdout != nil {
		o.Stdout.Write([]byte(s + "\n"))
	}
}

// CommandOptions holds options shared by a specific command; embed this in
// command-specific option structs.
type CommandOptions struct {
	*Options
}
