package workflow

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	assertpkg "github.com/blackcoderx/capter/pkg/assert"
	"github.com/blackcoderx/capter/pkg/core"
	"github.com/blackcoderx/capter/pkg/transport"
)

// recorder collects events for inspection.
type recorder struct {
	events []Event
}

func (r *recorder) OnEvent(e Event) {
	r.events = append(r.events, e)
}

func (r *recorder) types() []EventType {
	out := make([]EventType, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

func loadDefinition(t *testing.T, doc string) *Definition {
	t.Helper()
	var def Definition
	require.NoError(t, yaml.Unmarshal([]byte(doc), &def))
	return &def
}

func newTestRunner() *Runner {
	return NewRunner(transport.New(2*time.Second), WithEnviron([]string{"HOME=/home/test"}))
}

func TestRunner_Run_ChainsSteps(t *testing.T) {
	var itemPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == "/list":
			_, _ = w.Write([]byte(`[{"id": 1}]`))
		case strings.HasPrefix(r.URL.Path, "/item/"):
			itemPath = r.URL.Path
			_, _ = w.Write([]byte(`{"name": "first"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	def := loadDefinition(t, `
name: chained
env:
  URL: `+server.URL+`
steps:
  - name: step1
    id: a
    url: ${{ env.URL }}/list
    assertions:
      - !expect status to_equal 200
      - !expect body.0.id to_equal 1
  - name: step2
    url: ${{ env.URL }}/item/${{ a.response.body.0.id }}
    assertions:
      - !expect body.name to_equal first
      - !!expect status to_equal 404
`)
	require.NoError(t, Preflight(def))

	events := &recorder{}
	result, err := newTestRunner().Run(context.Background(), def, events)
	require.NoError(t, err)

	assert.True(t, result.Passed)
	assert.False(t, result.Skipped)
	assert.NotEmpty(t, result.ID)
	assert.Equal(t, "/item/1", itemPath)
	require.Len(t, result.Requests, 2)
	assert.Equal(t, server.URL+"/item/1", result.Requests[1].URL)
	assert.Equal(t, 1, result.Requests[1].Order)

	first := result.Requests[0].Response
	require.NotNil(t, first)
	require.Len(t, first.AssertionResults, 2)
	for _, r := range first.AssertionResults {
		assert.True(t, r.Passed)
		assert.Nil(t, r.Message)
	}

	assert.Equal(t, []EventType{
		RunStart,
		StepStart, StepDone,
		StepStart, StepDone,
		RunDone,
	}, events.types())
	assert.True(t, events.events[len(events.events)-1].Passed)
}

func TestRunner_Run_KeepsExactValues(t *testing.T) {
	var itemPath, itemBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/list":
			_, _ = w.Write([]byte(`[{"id": 9007199254740993, "price": 1.50}]`))
		default:
			itemPath = r.URL.Path
			data, _ := io.ReadAll(r.Body)
			itemBody = string(data)
			_, _ = w.Write([]byte(`{}`))
		}
	}))
	defer server.Close()

	def := loadDefinition(t, `
name: exact
env:
  URL: `+server.URL+`
  ZIP: "01234"
steps:
  - name: list
    id: a
    url: ${{ env.URL }}/list
    assertions:
      - !expect body.0.id to_equal 9007199254740993
      - !expect body.0.price to_equal 1.50
  - name: item
    method: post
    url: ${{ env.URL }}/item/${{ a.response.body.0.id }}
    body:
      id: ${{ a.response.body.0.id }}
      zip: ${{ env.ZIP }}
    assertions:
      - !expect status to_equal 200
`)
	require.NoError(t, Preflight(def))

	result, err := newTestRunner().Run(context.Background(), def, nil)
	require.NoError(t, err)

	assert.True(t, result.Passed)
	assert.Equal(t, "/item/9007199254740993", itemPath)
	assert.JSONEq(t, `{"id": 9007199254740993, "zip": "01234"}`, itemBody)
	assert.Contains(t, itemBody, `9007199254740993`)
}

// fixedClient answers every request with the same response.
type fixedClient struct {
	resp transport.Response
	reqs []transport.Request
}

func (c *fixedClient) Execute(_ context.Context, req transport.Request) transport.Response {
	c.reqs = append(c.reqs, req)
	return c.resp
}

func TestRunner_Run_FailingCheck(t *testing.T) {
	code := 100
	client := &fixedClient{resp: transport.Response{Status: &code, StatusText: "Continue"}}

	def := &Definition{
		Name: "status",
		URL:  "http://api.test",
		Steps: []Step{{
			Name:       "above",
			Assertions: []AssertionSpec{{Text: "status to_be_above 199"}},
		}},
	}

	result, err := NewRunner(client).Run(context.Background(), def, nil)
	require.NoError(t, err)
	require.Len(t, result.Requests, 1)
	require.Len(t, client.reqs, 1)
	assert.Equal(t, http.MethodGet, client.reqs[0].Method)

	checks := result.Requests[0].Response.AssertionResults
	require.Len(t, checks, 1)
	assert.False(t, checks[0].Passed)
	require.NotNil(t, checks[0].Message)
	assert.Equal(t, "expected 100 to be above 199", *checks[0].Message)
	assert.False(t, result.Passed)
}

func TestRunner_Run_SkippedStep(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	def := &Definition{
		Name: "skips",
		URL:  server.URL,
		Steps: []Step{
			{Name: "skipped", ID: "s", Skip: true, Assertions: []AssertionSpec{{Text: "status to_equal 500"}}},
			{Name: "runs", Assertions: []AssertionSpec{
				{Text: "status to_equal 200"},
				{Text: "body to_be_null"},
			}},
		},
	}

	runner := newTestRunner()
	events := &recorder{}
	result, err := runner.Run(context.Background(), def, ObserverFunc(func(e Event) {
		events.OnEvent(e)
	}))
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.True(t, result.Passed)
	require.Len(t, result.Requests, 1)
	assert.Equal(t, 1, result.Requests[0].Order)
	assert.Equal(t, []EventType{RunStart, StepStart, StepSkipped, StepStart, StepDone, RunDone}, events.types())
	assert.Equal(t, 0, events.events[2].Step)
	assert.Equal(t, "skipped", events.events[2].StepName())
}

func TestRunner_Run_SkippedStepWritesNoContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"seen": "` + r.URL.Query().Get("v") + `"}`))
	}))
	defer server.Close()

	def := &Definition{
		Name: "skips",
		URL:  server.URL,
		Steps: []Step{
			{Name: "skipped", ID: "s", Skip: true},
			{
				Name:       "reads",
				Query:      map[string]any{"v": "${{ s.request.url }}"},
				Assertions: []AssertionSpec{{Text: "body.seen to_be_empty"}},
			},
		},
	}

	result, err := newTestRunner().Run(context.Background(), def, nil)
	require.NoError(t, err)
	assert.True(t, result.Passed)
}

func TestRunner_Run_SkippedWorkflow(t *testing.T) {
	def := &Definition{Name: "off", Skip: true, Steps: []Step{{Name: "never"}}}

	events := &recorder{}
	result, err := newTestRunner().Run(context.Background(), def, events)
	require.NoError(t, err)

	assert.True(t, result.Skipped)
	assert.True(t, result.Passed)
	assert.Empty(t, result.Requests)
	assert.Equal(t, []EventType{WorkflowSkipped}, events.types())
}

func TestRunner_Run_Masking(t *testing.T) {
	var gotAuth, gotKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotKey = r.URL.Query().Get("key")
		w.Header().Set("X-Session", "sess-1")
		_, _ = w.Write([]byte(`{"user": {"name": "ada", "token": "tok-9"}, "items": [{"token": "tok-8"}]}`))
	}))
	defer server.Close()

	def := &Definition{
		Name: "secrets",
		URL:  server.URL,
		Steps: []Step{{
			Name:    "login",
			ID:      "login",
			Query:   map[string]any{"key": "${{ mask env.SECRET }}"},
			Headers: map[string]any{"Authorization": "Bearer ${{ mask env.SECRET }}"},
			Assertions: []AssertionSpec{
				{Text: "headers.authorization to_be_undefined"},
				{Text: "body.user.name to_equal ${{ mask env.SECRET }}"},
				{Text: "body.user.name to_equal ada"},
			},
			Options: StepOptions{Mask: []string{"token", "x-session"}},
		}},
	}

	runner := NewRunner(transport.New(2*time.Second), WithEnviron([]string{"SECRET=s3cret"}))
	result, err := runner.Run(context.Background(), def, nil)
	require.NoError(t, err)

	assert.Equal(t, "Bearer s3cret", gotAuth)
	assert.Equal(t, "s3cret", gotKey)

	record := result.Requests[0]
	assert.Equal(t, map[string]any{"Authorization": "Bearer ****"}, record.Headers)
	assert.Equal(t, map[string]any{"key": "****"}, record.Query)

	checks := record.Response.AssertionResults
	require.Len(t, checks, 3)
	assert.True(t, checks[0].Passed)
	assert.False(t, checks[1].Passed)
	require.NotNil(t, checks[1].Message)
	assert.Equal(t, assertpkg.HiddenMessage, *checks[1].Message)
	assert.True(t, checks[2].Passed)

	body := record.Response.Body.(map[string]any)
	assert.Equal(t, "****", body["user"].(map[string]any)["token"])
	assert.Equal(t, "ada", body["user"].(map[string]any)["name"])
	assert.Equal(t, "****", body["items"].([]any)[0].(map[string]any)["token"])
	assert.Equal(t, "****", record.Response.Headers.(map[string]any)["x-session"])

	out, err := json.Marshal(result)
	require.NoError(t, err)
	assert.NotContains(t, string(out), "s3cret")
	assert.NotContains(t, string(out), "tok-9")
}

func TestRunner_Run_ContextKeepsRawValues(t *testing.T) {
	var secondBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			data, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(data, &secondBody)
		}
		_, _ = w.Write([]byte(`{"token": "tok-1"}`))
	}))
	defer server.Close()

	def := &Definition{
		Name: "raw",
		URL:  server.URL,
		Steps: []Step{
			{Name: "login", ID: "login", Options: StepOptions{Mask: []string{"token"}}},
			{
				Name:   "use",
				Method: "post",
				Body:   map[string]any{"token": "${{ login.response.body.token }}", "sent": "${{ login.request.method }}"},
			},
		},
	}

	result, err := newTestRunner().Run(context.Background(), def, nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"token": "tok-1", "sent": "GET"}, secondBody)
	assert.Equal(t, "POST", result.Requests[1].Method)
}

func TestRunner_Run_GraphQL(t *testing.T) {
	var gotMethod, gotContentType string
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotContentType = r.Header.Get("Content-Type")
		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &gotBody)
		_, _ = w.Write([]byte(`{"data": {"user": {"id": "7"}}}`))
	}))
	defer server.Close()

	def := loadDefinition(t, `
name: graphql
url: `+server.URL+`/graphql
env:
  ID: 7
steps:
  - name: user
    graphql:
      query: "query { user(id: ${{ env.ID }}) { id } }"
      variables:
        id: ${{ env.ID }}
    assertions:
      - !expect body.data.user.id to_equal 7
`)

	result, err := newTestRunner().Run(context.Background(), def, nil)
	require.NoError(t, err)

	assert.True(t, result.Passed)
	assert.True(t, result.Requests[0].IsGraphQL)
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "application/json", gotContentType)
	assert.Equal(t, map[string]any{
		"query":     "query { user(id: 7) { id } }",
		"variables": map[string]any{"id": float64(7)},
	}, gotBody)
}

func TestRunner_Run_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := server.URL
	server.Close()

	def := &Definition{
		Name: "down",
		URL:  addr,
		Steps: []Step{{
			Name:       "ping",
			Assertions: []AssertionSpec{{Text: "status to_be_null"}},
		}},
	}

	result, err := newTestRunner().Run(context.Background(), def, nil)
	require.NoError(t, err)
	response := result.Requests[0].Response
	assert.Nil(t, response.Status)
	assert.Equal(t, "connection refused", response.StatusText)
	assert.True(t, result.Passed)
}

func TestRunner_Run_ConfigError(t *testing.T) {
	def := &Definition{
		Name: "broken",
		Steps: []Step{{
			Name:       "no url",
			Assertions: []AssertionSpec{{Text: "status to_equal 200"}},
		}},
	}

	_, err := newTestRunner().Run(context.Background(), def, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrConfig)
	assert.ErrorIs(t, err, core.ErrMissingURL)
	assert.Equal(t, core.ExitConfig, core.ExitCode(err))
	assert.Contains(t, err.Error(), `broken: step "no url"`)
}

func TestPreflight(t *testing.T) {
	tests := []struct {
		name    string
		def     Definition
		wantErr error
	}{
		{
			name: "valid",
			def: Definition{Name: "ok", URL: "http://x", Steps: []Step{{
				Name:       "s",
				Headers:    map[string]any{"a": "${{ mask env.A }}"},
				Assertions: []AssertionSpec{{Text: "status to_equal ${{ env.CODE }}"}},
			}}},
		},
		{
			name:    "missing name",
			def:     Definition{URL: "http://x"},
			wantErr: core.ErrMissingName,
		},
		{
			name:    "missing url",
			def:     Definition{Name: "n", Steps: []Step{{Name: "s"}}},
			wantErr: core.ErrMissingURL,
		},
		{
			name:    "bad template in body",
			def:     Definition{Name: "n", URL: "http://x", Steps: []Step{{Name: "s", Body: map[string]any{"a": []any{"${{ a b c }}"}}}}},
			wantErr: core.ErrInvalidTemplate,
		},
		{
			name:    "bad template in graphql",
			def:     Definition{Name: "n", URL: "http://x", Steps: []Step{{Name: "s", GraphQL: &GraphQL{Query: "${{ hide x }}"}}}},
			wantErr: core.ErrInvalidTemplate,
		},
		{
			name:    "unknown test",
			def:     Definition{Name: "n", URL: "http://x", Steps: []Step{{Name: "s", Assertions: []AssertionSpec{{Text: "status to_be 200"}}}}},
			wantErr: core.ErrInvalidAssertion,
		},
		{
			name: "skipped steps are not checked",
			def:  Definition{Name: "n", Steps: []Step{{Name: "s", Skip: true}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Preflight(&tt.def)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, core.ErrConfig)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
