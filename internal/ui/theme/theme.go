// Package theme holds the palette and the few shared styles of the client.
package theme

import (
	"charm.land/lipgloss/v2"
)

// Palette.
var (
	Primary   = lipgloss.Color("#6366F1") // indigo
	Secondary = lipgloss.Color("#06B6D4") // cyan
	Accent    = lipgloss.Color("#F59E0B") // clock and highlights
	Success   = lipgloss.Color("#10B981")
	Warning   = lipgloss.Color("#FACC15")
	Error     = lipgloss.Color("#EF4444")
	Text      = lipgloss.Color("#E5E7EB")
	TextDim   = lipgloss.Color("#9CA3AF")
	BgDark    = lipgloss.Color("#111827")
	BgCard    = lipgloss.Color("#1F2937")
	Border    = lipgloss.Color("#374151")
)

var (
	Title = lipgloss.NewStyle().Bold(true).Foreground(Primary)
	Hint  = lipgloss.NewStyle().Foreground(TextDim).Italic(true)

	// Selected is the cursor row in choice lists.
	Selected = lipgloss.NewStyle().Foreground(Primary).Bold(true)

	Correct   = lipgloss.NewStyle().Foreground(Success).Bold(true)
	Incorrect = lipgloss.NewStyle().Foreground(Error).Bold(true)

	// Notice announces a difficulty change or a recoverable failure.
	Notice = lipgloss.NewStyle().Foreground(Warning)
)

// Difficulty badges.
var (
	Easy   = lipgloss.NewStyle().Foreground(Success).Bold(true)
	Medium = lipgloss.NewStyle().Foreground(Warning).Bold(true)
	Hard   = lipgloss.NewStyle().Foreground(Error).Bold(true)
)

// Dialog buttons.
var (
	ButtonActive = lipgloss.NewStyle().
			Background(Primary).
			Foreground(Text).
			Bold(true).
			Padding(0, 2)

	ButtonInactive = lipgloss.NewStyle().
			Foreground(TextDim).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Border).
			Padding(0, 2)
)
