package tui

import "github.com/charmbracelet/lipgloss"

// Colors used throughout the editor TUI.
var (
	colorCyan   = lipgloss.Color("#00FFFF")
	colorGreen  = lipgloss.Color("#00FF00")
	colorYellow = lipgloss.Color("#FFFF00")
	colorRed    = lipgloss.Color("#FF0000")
	colorGray   = lipgloss.Color("#666666")
	colorWhite  = lipgloss.Color("#FFFFFF")
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorCyan)

	headerStyle = lipgloss.NewStyle().
			Foreground(colorCyan)

	savedBadgeStyle = lipgloss.NewStyle().
			Foreground(colorGreen).
			Bold(true)

	dirtyBadgeStyle = lipgloss.NewStyle().
			Foreground(colorYellow).
			Bold(true)

	errorBadgeStyle = lipgloss.NewStyle().
			Foreground(colorRed).
			Bold(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(colorGray)

	placeholderStyle = lipgloss.NewStyle().
				Foreground(colorYellow)

	footerKeyStyle = lipgloss.NewStyle().
			Foreground(colorYellow).
			Bold(true)

	footerDescStyle = lipgloss.NewStyle().
			Foreground(colorGray)

	panelTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorWhite)
)
