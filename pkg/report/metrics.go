package report

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/blackcoderx/capter/pkg/workflow"
)

// MetricsJob is the Pushgateway job name runs are grouped under.
const MetricsJob = "capter"

// Metrics collects run telemetry for a Pushgateway.
type Metrics struct {
	registry   *prometheus.Registry
	workflows  *prometheus.CounterVec
	steps      *prometheus.CounterVec
	assertions *prometheus.CounterVec
	duration   prometheus.Histogram
}

// NewMetrics creates the collectors on a private registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		workflows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "capter_workflows_total",
			Help: "Workflows run, by result",
		}, []string{"result"}),
		steps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "capter_steps_total",
			Help: "Steps run, by result",
		}, []string{"result"}),
		assertions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "capter_assertions_total",
			Help: "Checks evaluated, by result",
		}, []string{"result"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "capter_request_duration_seconds",
			Help:    "Time from sending a request to reading its response",
			Buckets: prometheus.DefBuckets,
		}),
	}
	m.registry.MustRegister(m.workflows, m.steps, m.assertions, m.duration)
	return m
}

// Registry exposes the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Observe adds the outcome of results to the collectors.
func (m *Metrics) Observe(results []*workflow.Result) {
	s := workflow.Summarize(results)
	add(m.workflows, s.Workflows)
	add(m.steps, s.Requests)
	add(m.assertions, s.Checks)

	for _, result := range results {
		for i := range result.Requests {
			if response := result.Requests[i].Response; response != nil && response.Status != nil {
				m.duration.Observe(float64(response.ResponseTime) / 1000)
			}
		}
	}
}

func add(vec *prometheus.CounterVec, c workflow.Counts) {
	vec.WithLabelValues("passed").Add(float64(c.Passed))
	vec.WithLabelValues("failed").Add(float64(c.Failed))
	vec.WithLabelValues("skipped").Add(float64(c.Skipped))
}

// Push sends the collected metrics to the Pushgateway at url, grouped by run.
func (m *Metrics) Push(ctx context.Context, url, runID string) error {
	err := push.New(url, MetricsJob).
		Gatherer(m.registry).
		Grouping("run_id", runID).
		PushContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to push metrics: %w", err)
	}
	return nil
}

// PushMetrics observes results and pushes them in one go.
func PushMetrics(ctx context.Context, url, runID string, results []*workflow.Result) error {
	m := NewMetrics()
	m.Observe(results)
	return m.Push(ctx, url, runID)
}
