package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/blackcoderx/capter/pkg/report"
)

var (
	StatusActiveStyle = lipgloss.NewStyle().
				Foreground(report.AccentColor)

	StatusDoneStyle = lipgloss.NewStyle().
			Foreground(report.PassColor)

	ProgressFullStyle = lipgloss.NewStyle().
				Foreground(report.AccentColor)

	ProgressEmptyStyle = lipgloss.NewStyle().
				Foreground(report.DimColor)

	CountPassStyle = lipgloss.NewStyle().
			Foreground(report.PassColor)

	CountFailStyle = lipgloss.NewStyle().
			Foreground(report.ErrorColor)

	FooterStyle = lipgloss.NewStyle().
			Foreground(report.DimColor)

	ShortcutKeyStyle = lipgloss.NewStyle().
				Foreground(report.TextColor)

	ShortcutDescStyle = lipgloss.NewStyle().
				Foreground(report.DimColor)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(report.ErrorColor)
)

const (
	progressRune = "━"
	passIcon     = "✓"
	failIcon     = "✕"
	skipIcon     = "○"
)
