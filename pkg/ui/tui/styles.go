package tui

import (
	"github.com/charmbracelet/lipgloss"
)

var (
	pinRed      = lipgloss.Color("#E60023")
	softRed     = lipgloss.Color("#FF5A6E")
	mintGreen   = lipgloss.Color("#3DDC97")
	amber       = lipgloss.Color("#FFB347")
	skyBlue     = lipgloss.Color("#5AC8FA")
	darkBg      = lipgloss.Color("#111111")
	darkBg2     = lipgloss.Color("#1E1E1E")
	dimWhite    = lipgloss.Color("#B0B0B0")
	brightWhite = lipgloss.Color("#FFFFFF")

	baseStyle = lipgloss.NewStyle().
			Background(darkBg).
			Foreground(dimWhite)

	logoStyle = lipgloss.NewStyle().
			Foreground(pinRed).
			Bold(true).
			Padding(1, 0).
			Align(lipgloss.Center)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(pinRed).
			Background(darkBg2).
			Padding(1, 2)

	titleStyle = lipgloss.NewStyle().
			Background(pinRed).
			Foreground(brightWhite).
			Bold(true).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
			Foreground(skyBlue).
			Bold(true).
			Width(16)

	focusedLabelStyle = labelStyle.
				Foreground(pinRed)

	valueStyle = lipgloss.NewStyle().
			Foreground(brightWhite)

	successStyle = lipgloss.NewStyle().
			Foreground(mintGreen).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(softRed).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(amber).
			Bold(true)

	itemStyle = lipgloss.NewStyle().
			PaddingLeft(2)

	itemDimStyle = lipgloss.NewStyle().
			Foreground(dimWhite).
			Faint(true)

	logTimestampStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#666666"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262")).
			Padding(1, 0, 0, 2)
)

// statusStyle picks the style for a run status
func statusStyle(status string) lipgloss.Style {
	switch status {
	case "completed":
		return successStyle
	case "error":
		return errorStyle
	case "stopped":
		return warningStyle
	default:
		return valueStyle
	}
}

// levelColor picks the log line color for a level
func levelColor(level string) lipgloss.Color {
	switch level {
	case "ERROR":
		return softRed
	case "WARN":
		return amber
	case "SUCCESS":
		return mintGreen
	case "INFO":
		return skyBlue
	default:
		return dimWhite
	}
}
