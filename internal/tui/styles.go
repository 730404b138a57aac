package tui

import "github.com/charmbracelet/lipgloss"

// Color palette for the dashboard
var (
	PrimaryColor = lipgloss.Color("#7D56F4") // Purple - headers, borders
	SuccessColor = lipgloss.Color("#43BF6D") // Green - outlet on
	ErrorColor   = lipgloss.Color("#FF5555") // Red - errors, overload
	WarningColor = lipgloss.Color("#FFA500") // Orange - warnings
	MutedColor   = lipgloss.Color("#626262") // Gray - secondary info
	TextColor    = lipgloss.Color("#FFFFFF") // White - main content
)

var (
	// TitleStyle is for the dashboard header line
	TitleStyle = lipgloss.NewStyle().
			Foreground(TextColor).
			Bold(true).
			PaddingLeft(1)

	// DeviceStyle is for the device address under the title
	DeviceStyle = lipgloss.NewStyle().
			Foreground(MutedColor).
			PaddingLeft(1)

	// ReadingKeyStyle is for reading labels (e.g., "Current:")
	ReadingKeyStyle = lipgloss.NewStyle().
			Foreground(MutedColor).
			Width(13).
			PaddingLeft(1)

	// ReadingValueStyle is for reading values
	ReadingValueStyle = lipgloss.NewStyle().
				Foreground(TextColor)

	// OutletOnStyle is for outlets that are switched on
	OutletOnStyle = lipgloss.NewStyle().
			Foreground(SuccessColor)

	// OutletOffStyle is for outlets that are switched off
	OutletOffStyle = lipgloss.NewStyle().
			Foreground(MutedColor)

	// SelectedStyle highlights the selected outlet row
	SelectedStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor).
			Bold(true)

	// ErrorStyle is for the error line
	ErrorStyle = lipgloss.NewStyle().
			Foreground(ErrorColor).
			PaddingLeft(1)

	// HelpStyle is for the key binding hints at the bottom
	HelpStyle = lipgloss.NewStyle().
			Foreground(MutedColor).
			PaddingLeft(1)

	// BoxStyle frames the dashboard content
	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(PrimaryColor).
			Padding(0, 1)
)
