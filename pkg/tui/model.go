package tui

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/harmonica"

	"github.com/blackcoderx/capter/pkg/report"
	"github.com/blackcoderx/capter/pkg/workflow"
)

// RunFunc executes the workflows, reporting every event to observer.
type RunFunc func(ctx context.Context, observer workflow.Observer) error

// Model is the Bubble Tea model of the live run view:
// - viewport with everything reported so far
// - the step currently running, with a spinner
// - a progress bar animated with a harmonica spring
type Model struct {
	viewport viewport.Model
	spinner  spinner.Model
	width    int
	height   int
	ready    bool

	// term renders events exactly like the plain reporter, into transcript.
	term       *report.Terminal
	transcript *strings.Builder
	running    string

	totals    report.Totals
	stepsDone int
	passed    int
	failed    int
	skipped   int

	finished bool
	err      error
	cancel   context.CancelFunc

	animSpring harmonica.Spring
	animPos    float64
	animVel    float64
}

// eventMsg wraps a run event for the TUI
type eventMsg struct {
	event workflow.Event
}

// runDoneMsg signals the run has finished
type runDoneMsg struct {
	err error
}

// animTickMsg drives the progress bar spring
type animTickMsg time.Time

// programRef holds the program reference for sending messages from goroutines.
type programRef struct {
	mu      sync.RWMutex
	program *tea.Program
}

// Set updates the program reference (thread-safe).
func (p *programRef) Set(prog *tea.Program) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.program = prog
}

// Send sends a message to the program if it exists (thread-safe).
func (p *programRef) Send(msg tea.Msg) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.program != nil {
		p.program.Send(msg)
	}
}

// NewModel creates the view for defs. cancel stops the run when the user
// quits early.
func NewModel(defs []*workflow.Definition, cancel context.CancelFunc) Model {
	transcript := &strings.Builder{}
	return Model{
		spinner:    newSpinner(),
		term:       report.NewTerminal(transcript, defs),
		transcript: transcript,
		totals:     report.PlanTotals(defs),
		cancel:     cancel,
		animSpring: harmonica.NewSpring(harmonica.FPS(60), 6.0, 1.0),
	}
}

func newSpinner() spinner.Model {
	s := spinner.New()
	s.Spinner = spinner.MiniDot
	s.Style = StatusActiveStyle
	return s
}

// Transcript returns everything reported so far.
func (m Model) Transcript() string {
	return m.transcript.String()
}

// progress is the fraction of planned steps that are done.
func (m Model) progress() float64 {
	if m.totals.Steps == 0 {
		return 1
	}
	return float64(m.stepsDone) / float64(m.totals.Steps)
}
