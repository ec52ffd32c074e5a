package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/blackcoderx/capter/pkg/report"
	"github.com/blackcoderx/capter/pkg/workflow"
)

// Init starts the spinner and the progress animation.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, animTick())
}

func animTick() tea.Cmd {
	return tea.Tick(time.Second/60, func(t time.Time) tea.Msg {
		return animTickMsg(t)
	})
}

// Update handles all messages and updates the model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		updated, cmd := m.handleKeyMsg(msg)
		return updated, cmd

	case tea.WindowSizeMsg:
		m = m.handleWindowResize(msg)

	case eventMsg:
		m = m.handleEvent(msg.event)

	case runDoneMsg:
		m.finished = true
		m.err = msg.err
		m.running = ""
		m.updateViewportContent()
		return m, tea.Quit

	case animTickMsg:
		m.animPos, m.animVel = m.animSpring.Update(m.animPos, m.animVel, m.progress())
		if !m.finished {
			cmds = append(cmds, animTick())
		}

	case spinner.TickMsg:
		if !m.finished {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// handleWindowResize adjusts the layout when the terminal is resized.
func (m Model) handleWindowResize(msg tea.WindowSizeMsg) Model {
	m.width = msg.Width
	m.height = msg.Height

	// status line, progress bar, footer
	viewportHeight := m.height - 4
	if viewportHeight < 5 {
		viewportHeight = 5
	}

	if !m.ready {
		m.viewport = viewport.New(m.width, viewportHeight)
		m.ready = true
	} else {
		m.viewport.Width = m.width
		m.viewport.Height = viewportHeight
	}
	m.updateViewportContent()
	return m
}

// handleEvent renders a run event into the transcript and updates counts.
func (m Model) handleEvent(e workflow.Event) Model {
	m.term.OnEvent(e)

	switch e.Type {
	case workflow.StepStart:
		m.running = report.StepLine(e.Definition.Name, e.StepName(), report.Running)
	case workflow.StepDone:
		m.running = ""
		m.stepsDone++
		if e.Passed {
			m.passed++
		} else {
			m.failed++
		}
	case workflow.StepSkipped:
		m.running = ""
		m.stepsDone++
		m.skipped++
	case workflow.WorkflowSkipped:
		m.stepsDone += len(e.Definition.Steps)
		m.skipped += len(e.Definition.Steps)
	}

	m.updateViewportContent()
	return m
}
