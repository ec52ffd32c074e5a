package workflow

import (
	"context"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/blackcoderx/capter/pkg/assert"
	"github.com/blackcoderx/capter/pkg/compile"
	"github.com/blackcoderx/capter/pkg/core"
	"github.com/blackcoderx/capter/pkg/transport"
)

// HTTPClient sends compiled step requests. Transport failures are reported
// in the Response, never as errors.
type HTTPClient interface {
	Execute(ctx context.Context, req transport.Request) transport.Response
}

// Runner executes workflow definitions one step at a time.
type Runner struct {
	client      HTTPClient
	environ     []string
	environment map[string]any
	log         *logrus.Entry
	now         func() time.Time
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithEnviron replaces the process environment seeded under `env`.
func WithEnviron(environ []string) RunnerOption {
	return func(r *Runner) {
		r.environ = environ
	}
}

// WithEnvironment merges the values of an environment file into `env`.
// Workflow `env` entries still take precedence.
func WithEnvironment(values map[string]any) RunnerOption {
	return func(r *Runner) {
		r.environment = values
	}
}

// WithRunnerLogger sets the logger for step tracing.
func WithRunnerLogger(log *logrus.Entry) RunnerOption {
	return func(r *Runner) {
		r.log = log
	}
}

// NewRunner creates a runner sending requests through client.
func NewRunner(client HTTPClient, opts ...RunnerOption) *Runner {
	r := &Runner{
		client:  client,
		environ: os.Environ(),
		log:     logrus.NewEntry(logrus.StandardLogger()),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes every step of def in order and reports progress to observer.
// Failed checks and unreachable hosts are part of the Result; the returned
// error is always a configuration error.
func (r *Runner) Run(ctx context.Context, def *Definition, observer Observer) (*Result, error) {
	if observer == nil {
		observer = nopObserver{}
	}

	result := &Result{
		ID:        uuid.NewString(),
		File:      def.File,
		Name:      def.Name,
		Workflow:  def,
		CreatedAt: r.now().UTC(),
		Passed:    true,
	}

	if def.Skip {
		result.Skipped = true
		observer.OnEvent(Event{Type: WorkflowSkipped, Definition: def, Step: -1})
		return result, nil
	}

	log := r.log.WithField("workflow", def.Name)
	runCtx := NewContext(r.environ, r.environment, def.Env)
	started := time.Now()

	observer.OnEvent(Event{Type: RunStart, Definition: def, Step: -1})

	result.Requests = make([]RequestRecord, 0, len(def.Steps))
	for i := range def.Steps {
		step := &def.Steps[i]
		observer.OnEvent(Event{Type: StepStart, Definition: def, Step: i})

		if step.Skip {
			log.WithField("step", step.Name).Debug("step skipped")
			observer.OnEvent(Event{Type: StepSkipped, Definition: def, Step: i})
			continue
		}

		record, passed, err := r.runStep(ctx, def, step, i, runCtx, log)
		if err != nil {
			return nil, core.WithLocation(err, def.Name, step.Name)
		}

		observer.OnEvent(Event{
			Type:       StepDone,
			Definition: def,
			Step:       i,
			Results:    record.Response.AssertionResults,
			Passed:     passed,
			Response:   record,
		})

		result.Requests = append(result.Requests, *record)
		if !passed {
			result.Passed = false
		}
	}

	result.RunTime = time.Since(started).Milliseconds()
	observer.OnEvent(Event{Type: RunDone, Definition: def, Step: -1, Passed: result.Passed})
	return result, nil
}

// runStep performs one step and returns its masked record.
func (r *Runner) runStep(ctx context.Context, def *Definition, step *Step, index int, runCtx *Context, log *logrus.Entry) (*RequestRecord, bool, error) {
	req, err := buildRequest(def, step, runCtx.Tree())
	if err != nil {
		return nil, false, err
	}

	raw := RequestRecord{
		CreatedAt: r.now().UTC(),
		URL:       req.URL.Raw,
		Name:      step.Name,
		Method:    req.Method,
		Headers:   req.Headers.Raw,
		Query:     req.Query.Raw,
		Body:      req.Body.Raw,
		Order:     index,
		IsGraphQL: req.IsGraphQL,
	}
	if step.ID != "" {
		runCtx.Set(step.ID, "request", raw)
	}

	log.WithFields(logrus.Fields{
		"step":   step.Name,
		"method": req.Method,
		"url":    req.URL.Masked,
	}).Debug("running step")

	resp := r.client.Execute(ctx, req.transportRequest())

	response := ResponseRecord{
		CreatedAt:    r.now().UTC(),
		Status:       resp.Status,
		StatusText:   resp.StatusText,
		Headers:      compile.Normalize(resp.Headers),
		Body:         compile.Normalize(resp.Body),
		ResponseTime: resp.Duration.Milliseconds(),
	}

	data := assert.Data{
		Status:   resp.Status,
		Body:     resp.Body,
		Headers:  resp.Headers,
		Duration: response.ResponseTime,
	}

	passed := true
	response.AssertionResults = make([]assert.Result, 0, len(step.Assertions))
	for _, spec := range step.Assertions {
		checked, err := assert.Run(spec.Check(), runCtx.Tree(), data)
		if err != nil {
			return nil, false, withField(err, "assertions")
		}
		if !checked.Passed {
			passed = false
		}
		response.AssertionResults = append(response.AssertionResults, checked)
	}

	log.WithFields(logrus.Fields{
		"step":     step.Name,
		"status":   resp.StatusText,
		"duration": response.ResponseTime,
		"passed":   passed,
	}).Debug("step done")

	if step.ID != "" {
		runCtx.Set(step.ID, "response", response)
	}

	masked := raw
	masked.URL = req.URL.Masked
	masked.Headers = req.Headers.Masked
	masked.Query = req.Query.Masked
	masked.Body = req.Body.Masked
	maskedResponse := response
	maskedResponse.Headers = DeepReplace(response.Headers, step.Options.Mask)
	maskedResponse.Body = DeepReplace(response.Body, step.Options.Mask)
	masked.Response = &maskedResponse

	return &masked, passed, nil
}
