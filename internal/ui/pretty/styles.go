// Package pretty provides Lipgloss-based styled output utilities.
package pretty

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"golang.org/x/term"

	"github.com/yaklabco/trackmcp/pkg/catalog"
)

// DefaultTermWidth is used when the output is not a terminal.
const DefaultTermWidth = 100

// Styles contains all styled renderers for CLI output.
type Styles struct {
	// Message levels
	Error   lipgloss.Style
	Warning lipgloss.Style
	Success lipgloss.Style

	// Tool components
	Name     lipgloss.Style
	Stars    lipgloss.Style
	Category lipgloss.Style
	URL      lipgloss.Style
	Topic    lipgloss.Style

	// Moderation status
	Approved lipgloss.Style
	Pending  lipgloss.Style
	Rejected lipgloss.Style

	// Key/value listings
	Key   lipgloss.Style
	Value lipgloss.Style

	// Table styles
	TableHeader    lipgloss.Style
	TableSeparator lipgloss.Style

	// Misc
	Title lipgloss.Style
	Dim   lipgloss.Style
	Bold  lipgloss.Style
}

// NewStyles creates a new Styles with the given color mode.
func NewStyles(colorEnabled bool) *Styles {
	if !colorEnabled {
		return newNoColorStyles()
	}
	return newColorStyles()
}

func newColorStyles() *Styles {
	return &Styles{
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		Warning: lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true),
		Success: lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true),

		Name:     lipgloss.NewStyle().Bold(true),
		Stars:    lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		Category: lipgloss.NewStyle().Foreground(lipgloss.Color("14")),
		URL:      lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Underline(true),
		Topic:    lipgloss.NewStyle().Foreground(lipgloss.Color("13")),

		Approved: lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		Pending:  lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		Rejected: lipgloss.NewStyle().Foreground(lipgloss.Color("9")),

		Key:   lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		Value: lipgloss.NewStyle(),

		TableHeader:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7")),
		TableSeparator: lipgloss.NewStyle().Foreground(lipgloss.Color("8")),

		Title: lipgloss.NewStyle().Bold(true).Underline(true),
		Dim:   lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		Bold:  lipgloss.NewStyle().Bold(true),
	}
}

func newNoColorStyles() *Styles {
	plain := lipgloss.NewStyle()
	return &Styles{
		Error:          plain,
		Warning:        plain,
		Success:        plain,
		Name:           plain,
		Stars:          plain,
		Category:       plain,
		URL:            plain,
		Topic:          plain,
		Approved:       plain,
		Pending:        plain,
		Rejected:       plain,
		Key:            plain,
		Value:          plain,
		TableHeader:    plain,
		TableSeparator: plain,
		Title:          plain,
		Dim:            plain,
		Bold:           plain,
	}
}

// StatusStyle returns the style for a moderation status.
func (s *Styles) StatusStyle(status catalog.Status) lipgloss.Style {
	switch status {
	case catalog.StatusApproved:
		return s.Approved
	case catalog.StatusRejected:
		return s.Rejected
	default:
		return s.Pending
	}
}

// IsColorEnabled determines if color should be enabled based on mode and writer.
// Mode values: "auto" (default), "always", "never".
// In auto mode, color is enabled only if the writer is a TTY and NO_COLOR is not set.
func IsColorEnabled(mode string, writer io.Writer) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	default:
		if os.Getenv("NO_COLOR") != "" {
			return false
		}
		if f, ok := writer.(*os.File); ok {
			return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
		}
		return false
	}
}

// TermWidth returns the width of the terminal behind writer, or
// DefaultTermWidth when it cannot be determined.
func TermWidth(writer io.Writer) int {
	f, ok := writer.(*os.File)
	if !ok {
		return DefaultTermWidth
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil || width <= 0 {
		return DefaultTermWidth
	}
	return width
}
