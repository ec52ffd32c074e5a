package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/blackcoderx/capter/pkg/assert"
	"github.com/blackcoderx/capter/pkg/compile"
	"github.com/blackcoderx/capter/pkg/workflow"
)

// StepStatus is the badge shown in front of a step.
type StepStatus int

const (
	Running StepStatus = iota
	Passed
	Failed
	Skipped
)

// Done returns Passed or Failed.
func Done(passed bool) StepStatus {
	if passed {
		return Passed
	}
	return Failed
}

// Totals are the planned workflow and step counts of a run.
type Totals struct {
	Workflows int
	Steps     int
}

// PlanTotals counts workflows and steps before anything runs.
func PlanTotals(defs []*workflow.Definition) Totals {
	totals := Totals{Workflows: len(defs)}
	for _, def := range defs {
		totals.Steps += len(def.Steps)
	}
	return totals
}

// StepLine renders ` PASS  users → list users`.
func StepLine(workflowName, stepName string, status StepStatus) string {
	var b string
	switch status {
	case Running:
		b = runsBadge.Render(" RUNS ")
	case Passed:
		b = passBadge.Render(" PASS ")
	case Failed:
		b = failBadge.Render(" FAIL ")
	default:
		b = skipBadge.Render(" SKIP ")
	}
	return fmt.Sprintf("%s %s → %s", b, workflowName, stepName)
}

// AssertionLines renders one line per check, each starting on a new line.
func AssertionLines(results []assert.Result) string {
	var sb strings.Builder
	for _, result := range results {
		icon := passStyle.Render("✓")
		if !result.Passed {
			icon = errorStyle.Render("✕")
		}
		sb.WriteString("\n    ")
		sb.WriteString(icon)
		sb.WriteString(dimStyle.Render(" " + result.Assertion.String()))
	}
	return sb.String()
}

// WorkflowTitle is printed when a workflow starts.
func WorkflowTitle(file string) string {
	return "\n" + titleStyle.Render(file) + "\n\n"
}

// SkippedWorkflow is printed instead of the title for skipped workflows.
func SkippedWorkflow(file string) string {
	return "\n" + titleStyle.Render(file+" [skipped]") + "\n"
}

// Failures lists every failed check with its message.
func Failures(results []*workflow.Result) string {
	var sb strings.Builder
	failed := 0
	for _, result := range results {
		for i := range result.Requests {
			request := &result.Requests[i]
			if request.Response == nil {
				continue
			}
			for _, check := range request.Response.AssertionResults {
				if check.Passed {
					continue
				}
				failed++
				sb.WriteString("\n\n")
				sb.WriteString(errorStyle.Render(fmt.Sprintf(" ▶ %s → %s → %s", result.Name, request.Name, check.Assertion.Property)))
				if check.Message != nil {
					sb.WriteString("\n\n   ")
					sb.WriteString(dimStyle.Render(*check.Message))
				}
			}
		}
	}
	if failed > 0 {
		sb.WriteString("\n\n")
	}
	return sb.String()
}

// SummaryLines renders the closing Workflows/Requests/Time block.
func SummaryLines(s workflow.Summary, totals Totals, elapsed time.Duration) string {
	var sb strings.Builder
	sb.WriteString("\n")
	sb.WriteString(countLine("Workflows", max(totals.Workflows, s.Workflows.Total()), s.Workflows))
	sb.WriteString("\n")
	sb.WriteString(countLine("Requests", max(totals.Steps, s.Requests.Total()), s.Requests))
	sb.WriteString("\n")
	sb.WriteString(boldStyle.Render("Time: "))
	sb.WriteString(dimStyle.Render(fmt.Sprintf("%.1f s", elapsed.Seconds())))
	sb.WriteString("\n")
	return sb.String()
}

func countLine(title string, total int, c workflow.Counts) string {
	parts := make([]string, 0, 3)
	if c.Failed > 0 {
		parts = append(parts, errorStyle.Render(fmt.Sprintf("%d failed", c.Failed)))
	}
	if c.Passed > 0 {
		parts = append(parts, passStyle.Render(fmt.Sprintf("%d passed", c.Passed)))
	}
	if c.Skipped > 0 {
		parts = append(parts, dimStyle.Render(fmt.Sprintf("%d skipped", c.Skipped)))
	}

	suffix := fmt.Sprintf(", %d total", total)
	if len(parts) == 0 {
		suffix = fmt.Sprintf("0 of %d total", total)
	}
	return boldStyle.Render(title+": ") + strings.Join(parts, ", ") + dimStyle.Render(suffix)
}

// Terminal prints run progress line by line. It is the reporter used when
// stdout is not a terminal or --debug is set.
type Terminal struct {
	out     io.Writer
	totals  Totals
	started time.Time
	now     func() time.Time
	dump    func(string) string
}

// NewTerminal creates a Terminal for the given workflows.
func NewTerminal(out io.Writer, defs []*workflow.Definition) *Terminal {
	return &Terminal{
		out:     out,
		totals:  PlanTotals(defs),
		started: time.Now(),
		now:     time.Now,
	}
}

// WithBodyDump makes t print the response body of every failed step as JSON
// passed through render.
func (t *Terminal) WithBodyDump(render func(string) string) *Terminal {
	t.dump = render
	return t
}

// OnEvent implements workflow.Observer.
func (t *Terminal) OnEvent(e workflow.Event) {
	def := e.Definition
	switch e.Type {
	case workflow.RunStart:
		fmt.Fprint(t.out, WorkflowTitle(def.File))
	case workflow.WorkflowSkipped:
		fmt.Fprint(t.out, SkippedWorkflow(def.File))
	case workflow.StepSkipped:
		fmt.Fprintln(t.out, StepLine(def.Name, e.StepName(), Skipped))
	case workflow.StepDone:
		fmt.Fprintln(t.out, StepLine(def.Name, e.StepName(), Done(e.Passed)))
		if e.Passed {
			return
		}
		fmt.Fprintln(t.out, AssertionLines(e.Results))
		if t.dump != nil && e.Response != nil && e.Response.Response != nil {
			fmt.Fprintln(t.out)
			fmt.Fprintln(t.out, t.dump(compile.ToJSON(e.Response.Response.Body)))
		}
		if e.Step < len(def.Steps)-1 {
			fmt.Fprintln(t.out)
		}
	}
}

// Summarize prints failed checks and the closing counts.
func (t *Terminal) Summarize(results []*workflow.Result) {
	fmt.Fprint(t.out, Failures(results))
	fmt.Fprint(t.out, SummaryLines(workflow.Summarize(results), t.totals, t.now().Sub(t.started)))
}
