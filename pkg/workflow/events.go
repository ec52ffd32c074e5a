package workflow

import "github.com/blackcoderx/capter/pkg/assert"

// EventType identifies a lifecycle event of a run.
type EventType int

const (
	RunStart EventType = iota
	StepStart
	StepSkipped
	StepDone
	RunDone
	WorkflowSkipped
)

func (t EventType) String() string {
	switch t {
	case RunStart:
		return "run_start"
	case StepStart:
		return "step_start"
	case StepSkipped:
		return "step_skipped"
	case StepDone:
		return "step_done"
	case RunDone:
		return "run_done"
	case WorkflowSkipped:
		return "workflow_skipped"
	default:
		return "unknown"
	}
}

// Event is a state change during a run, delivered in execution order.
type Event struct {
	Type       EventType
	Definition *Definition
	// Step is the index of the step in Definition.Steps (step events only).
	Step int
	// Results holds the step's check results (StepDone only).
	Results []assert.Result
	// Passed is set on StepDone and RunDone.
	Passed bool
	// Response is the masked exchange of the step (StepDone only).
	Response *RequestRecord
}

// StepName returns the name of the step the event refers to.
func (e Event) StepName() string {
	if e.Definition == nil || e.Step < 0 || e.Step >= len(e.Definition.Steps) {
		return ""
	}
	return e.Definition.Steps[e.Step].Name
}

// Observer receives run events. OnEvent is called on the run's goroutine and
// must not block.
type Observer interface {
	OnEvent(Event)
}

// ObserverFunc adapts a function to an Observer.
type ObserverFunc func(Event)

// OnEvent calls f(e).
func (f ObserverFunc) OnEvent(e Event) {
	f(e)
}

// Observers fans an event out to several observers in order.
type Observers []Observer

// OnEvent delivers e to every observer.
func (o Observers) OnEvent(e Event) {
	for _, observer := range o {
		if observer != nil {
			observer.OnEvent(e)
		}
	}
}

type nopObserver struct{}

func (nopObserver) OnEvent(Event) {}
