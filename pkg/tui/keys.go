package tui

import (
	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
)

// copyToClipboard is swapped in tests.
var copyToClipboard = clipboard.WriteAll

// handleKeyMsg processes keyboard input and returns the updated model and command.
func (m Model) handleKeyMsg(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc", "q":
		return m.handleStop()

	case "ctrl+y":
		return m.handleCopyTranscript()

	case "pgup", "pgdown", "home", "end", "up", "down":
		return m.handleViewportScroll(msg)

	default:
		return m, nil
	}
}

// handleStop cancels the run and leaves the view.
func (m Model) handleStop() (Model, tea.Cmd) {
	if m.cancel != nil {
		m.cancel()
	}
	return m, tea.Quit
}

// handleCopyTranscript copies what was reported so far, without colors.
func (m Model) handleCopyTranscript() (Model, tea.Cmd) {
	if text := ansi.Strip(m.transcript.String()); text != "" {
		_ = copyToClipboard(text)
	}
	return m, nil
}

// handleViewportScroll passes scroll events to the viewport.
func (m Model) handleViewportScroll(msg tea.KeyMsg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}
