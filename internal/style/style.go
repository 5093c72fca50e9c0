// Package style provides consistent terminal styling using Lipgloss.
package style

import "github.com/charmbracelet/lipgloss"

var (
	// Success style for positive outcomes
	Success = lipgloss.NewStyle().
		Foreground(lipgloss.Color("10")). // Green
		Bold(true)

	// Warning style for cautionary messages
	Warning = lipgloss.NewStyle().
		Foreground(lipgloss.Color("11")). // Yellow
		Bold(true)

	// Error style for failures
	Error = lipgloss.NewStyle().
		Foreground(lipgloss.Color("9")). // Red
		Bold(true)

	// Info style for informational messages
	Info = lipgloss.NewStyle().
		Foreground(lipgloss.Color("12")) // Blue

	// Dim style for secondary information
	Dim = lipgloss.NewStyle().
		Foreground(lipgloss.Color("8")) // Gray

	// Bold style for emphasis
	Bold = lipgloss.NewStyle().
		Bold(true)

	// Active marks the active profile or stack in listings
	Active = lipgloss.NewStyle().
		Foreground(lipgloss.Color("10")) // Green

	// SuccessPrefix is the checkmark prefix for success messages
	SuccessPrefix = Success.Render("✓")

	// WarningPrefix is the warning prefix
	WarningPrefix = Warning.Render("⚠")

	// ErrorPrefix is the error prefix
	ErrorPrefix = Error.Render("✗")

	// ActiveMarker marks the active entry in list output
	ActiveMarker = Active.Render("*")
)

// Disable strips color and weight from every style. Called when stdout is
// not a terminal or color is off in the settings.
func Disable() {
	plain := lipgloss.NewStyle()
	Success, Warning, Error, Info, Dim, Bold, Active = plain, plain, plain, plain, plain, plain, plain

	SuccessPrefix = "✓"
	WarningPrefix = "⚠"
	ErrorPrefix = "✗"
	ActiveMarker = "*"
}
