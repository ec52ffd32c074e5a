package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// View renders the entire TUI to a string.
func (m Model) View() string {
	if !m.ready {
		return "Starting..."
	}

	var b strings.Builder
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	b.WriteString(m.renderStatus())
	b.WriteString("\n")
	b.WriteString(m.renderProgress(m.width))
	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

// updateViewportContent shows the transcript, following its end unless the
// user scrolled up.
func (m *Model) updateViewportContent() {
	if !m.ready {
		return
	}
	atBottom := m.viewport.AtBottom()
	m.viewport.SetContent(m.transcript.String())
	if atBottom {
		m.viewport.GotoBottom()
	}
}

func (m Model) renderStatus() string {
	switch {
	case m.err != nil:
		return ErrorStyle.Render("  " + m.err.Error())
	case m.finished:
		return StatusDoneStyle.Render(passIcon + " done")
	case m.running != "":
		return m.spinner.View() + " " + m.running
	default:
		return m.spinner.View()
	}
}

// renderProgress draws the bar at the animated position.
func (m Model) renderProgress(width int) string {
	label := fmt.Sprintf(" %d/%d", m.stepsDone, m.totals.Steps)
	barWidth := width - lipgloss.Width(label)
	if barWidth < 10 {
		barWidth = 10
	}

	filled := int(m.animPos*float64(barWidth) + 0.5)
	filled = max(0, min(filled, barWidth))

	return ProgressFullStyle.Render(strings.Repeat(progressRune, filled)) +
		ProgressEmptyStyle.Render(strings.Repeat(progressRune, barWidth-filled)) +
		FooterStyle.Render(label)
}

// renderFooter shows step counts on the left and shortcuts on the right.
func (m Model) renderFooter() string {
	left := strings.Join([]string{
		CountPassStyle.Render(fmt.Sprintf("%s %d", passIcon, m.passed)),
		CountFailStyle.Render(fmt.Sprintf("%s %d", failIcon, m.failed)),
		FooterStyle.Render(fmt.Sprintf("%s %d", skipIcon, m.skipped)),
	}, "  ")

	right := strings.Join([]string{
		ShortcutKeyStyle.Render("pgup/pgdn") + ShortcutDescStyle.Render(" scroll"),
		ShortcutKeyStyle.Render("ctrl+y") + ShortcutDescStyle.Render(" copy"),
		ShortcutKeyStyle.Render("esc") + ShortcutDescStyle.Render(" stop"),
	}, "    ")

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 2 {
		gap = 2
	}
	return left + strings.Repeat(" ", gap) + right
}
