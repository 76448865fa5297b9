package tui

import "github.com/charmbracelet/lipgloss"

// Console palette
var (
	ColorAccent = lipgloss.Color("#67B346") // Meraki green for accents
	ColorDim    = lipgloss.Color("#5F6B7A") // secondary text
	ColorDark   = lipgloss.Color("#1F2933") // dark background elements
	ColorText   = lipgloss.Color("#E4E7EB") // primary text
	ColorBad    = lipgloss.Color("#FF6B6B") // errors, offline
	ColorGood   = lipgloss.Color("#4ECDC4") // online, success
	ColorWarn   = lipgloss.Color("#FFE66D") // alerting
	ColorMuted  = lipgloss.Color("#6C757D") // hints
)

var (
	StyleHeader = lipgloss.NewStyle().
			Foreground(ColorAccent).
			Bold(true).
			Border(lipgloss.NormalBorder(), false, false, true, false).
			BorderForeground(ColorDim).
			Padding(0, 1)

	StyleTitle = lipgloss.NewStyle().
			Foreground(ColorAccent).
			Bold(true)

	StyleSubtitle = lipgloss.NewStyle().
			Foreground(ColorDim).
			Italic(true)

	StyleStatusGood = lipgloss.NewStyle().Foreground(ColorGood).Bold(true)
	StyleStatusBad  = lipgloss.NewStyle().Foreground(ColorBad).Bold(true)
	StyleStatusWarn = lipgloss.NewStyle().Foreground(ColorWarn).Bold(true)

	StyleCard = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorDim).
			Padding(0, 1).
			Margin(0, 1)

	StyleApp = lipgloss.NewStyle().Margin(1, 2)

	StyleTopBar = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, true, false).
			BorderForeground(ColorDim).
			Padding(0, 1).
			MarginBottom(1)

	StyleMenuItem = lipgloss.NewStyle().
			Foreground(ColorDim).
			Padding(0, 1)

	StyleMenuItemActive = lipgloss.NewStyle().
				Foreground(ColorDark).
				Background(ColorAccent).
				Bold(true).
				Padding(0, 1)

	StyleMenuKey = lipgloss.NewStyle().
			Foreground(ColorMuted).
			Faint(true)

	StyleHint = lipgloss.NewStyle().
			Foreground(ColorMuted)
)
