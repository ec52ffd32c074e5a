// Package report turns workflow results into something people and machines
// read: terminal output, failure logs, a webhook post and pushed metrics.
package report

import "github.com/charmbracelet/lipgloss"

// Palette shared with the live view.
var (
	DimColor    = lipgloss.Color("#6c6c6c")
	TextColor   = lipgloss.Color("#e0e0e0")
	AccentColor = lipgloss.Color("#7aa2f7")
	ErrorColor  = lipgloss.Color("#f7768e")
	PassColor   = lipgloss.Color("#9ece6a")
	RunColor    = lipgloss.Color("#e0af68")
	BadgeText   = lipgloss.Color("#323232")
)

var (
	badge = lipgloss.NewStyle().Foreground(BadgeText)

	runsBadge = badge.Background(RunColor)
	passBadge = badge.Background(PassColor)
	failBadge = badge.Background(ErrorColor)
	skipBadge = badge.Background(DimColor)

	passStyle  = lipgloss.NewStyle().Foreground(PassColor)
	errorStyle = lipgloss.NewStyle().Foreground(ErrorColor)
	dimStyle   = lipgloss.NewStyle().Foreground(DimColor)
	boldStyle  = lipgloss.NewStyle().Bold(true)
	titleStyle = lipgloss.NewStyle().Foreground(DimColor).Underline(true)
	accent     = lipgloss.NewStyle().Foreground(AccentColor)
)
