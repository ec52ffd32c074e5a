package workflow

import (
	"time"

	"github.com/blackcoderx/capter/pkg/assert"
)

// RequestRecord is the captured request of one step. The copy stored in the
// run Context holds real values; the copy in Result is masked.
type RequestRecord struct {
	CreatedAt time.Time       `json:"created_at"`
	URL       string          `json:"url"`
	Name      string          `json:"name"`
	Method    string          `json:"method"`
	Headers   any             `json:"headers"`
	Query     any             `json:"query"`
	Body      any             `json:"body"`
	Order     int             `json:"order"`
	IsGraphQL bool            `json:"is_graphql"`
	Response  *ResponseRecord `json:"response,omitempty"`
}

// Passed reports whether every check of the step passed.
func (r *RequestRecord) Passed() bool {
	if r.Response == nil {
		return true
	}
	for _, result := range r.Response.AssertionResults {
		if !result.Passed {
			return false
		}
	}
	return true
}

// ResponseRecord is the captured response of one step. Status is nil when
// nothing came back; StatusText then says why.
type ResponseRecord struct {
	CreatedAt        time.Time       `json:"created_at"`
	Status           *int            `json:"status"`
	StatusText       string          `json:"status_text"`
	Headers          any             `json:"headers"`
	Body             any             `json:"body"`
	ResponseTime     int64           `json:"response_time"`
	AssertionResults []assert.Result `json:"assertion_results"`
}

// Result is the outcome of running one workflow.
type Result struct {
	ID        string          `json:"id"`
	File      string          `json:"file,omitempty"`
	Name      string          `json:"name"`
	Workflow  *Definition     `json:"workflow"`
	CreatedAt time.Time       `json:"created_at"`
	RunTime   int64           `json:"run_time"`
	Passed    bool            `json:"passed"`
	Skipped   bool            `json:"skipped"`
	Requests  []RequestRecord `json:"requests"`
}

// Summary counts results the way the final report shows them.
type Summary struct {
	Workflows Counts
	Requests  Counts
	Checks    Counts
}

// Counts splits a total by outcome.
type Counts struct {
	Passed  int
	Failed  int
	Skipped int
}

// Total is the sum of all outcomes.
func (c Counts) Total() int {
	return c.Passed + c.Failed + c.Skipped
}

// Summarize counts workflows, requests and checks across results.
func Summarize(results []*Result) Summary {
	var s Summary
	for _, result := range results {
		switch {
		case result.Skipped:
			s.Workflows.Skipped++
		case result.Passed:
			s.Workflows.Passed++
		default:
			s.Workflows.Failed++
		}

		if result.Workflow != nil && !result.Skipped {
			s.Requests.Skipped += len(result.Workflow.Steps) - len(result.Requests)
		}
		for i := range result.Requests {
			request := &result.Requests[i]
			if request.Passed() {
				s.Requests.Passed++
			} else {
				s.Requests.Failed++
			}
			if request.Response == nil {
				continue
			}
			for _, check := range request.Response.AssertionResults {
				if check.Passed {
					s.Checks.Passed++
				} else {
					s.Checks.Failed++
				}
			}
		}
	}
	return s
}
