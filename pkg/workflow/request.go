package workflow

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/blackcoderx/capter/pkg/assert"
	"github.com/blackcoderx/capter/pkg/compile"
	"github.com/blackcoderx/capter/pkg/core"
	"github.com/blackcoderx/capter/pkg/transport"
)

// compiledRequest is a step request with both tracks resolved.
type compiledRequest struct {
	Method    string
	URL       compile.Compiled
	Query     compile.CompiledValue
	Headers   compile.CompiledValue
	Body      compile.CompiledValue
	IsGraphQL bool
}

func createMethod(def *Definition, step *Step) string {
	switch {
	case step.Method != "":
		return strings.ToUpper(step.Method)
	case def.Method != "":
		return strings.ToUpper(def.Method)
	case step.GraphQL != nil:
		return http.MethodPost
	default:
		return http.MethodGet
	}
}

func urlSource(def *Definition, step *Step) (string, error) {
	if step.URL != "" {
		return step.URL, nil
	}
	if def.URL != "" {
		return def.URL, nil
	}
	return "", core.NewConfigError("url", "no url on the step or the workflow", core.ErrMissingURL)
}

func headersSource(step *Step) map[string]any {
	if step.Headers == nil && step.GraphQL == nil {
		return nil
	}
	headers := make(map[string]any, len(step.Headers)+1)
	for key, value := range step.Headers {
		headers[key] = compile.Normalize(value)
	}
	if step.GraphQL != nil {
		headers["content-type"] = "application/json"
	}
	return headers
}

func querySource(step *Step) any {
	if step.Query == nil {
		return nil
	}
	return compile.Normalize(step.Query)
}

func bodySource(step *Step) any {
	if step.GraphQL != nil {
		body := map[string]any{"query": step.GraphQL.Query}
		if step.GraphQL.Variables != nil {
			body["variables"] = compile.Normalize(step.GraphQL.Variables)
		}
		return body
	}
	return compile.Normalize(step.Body)
}

func buildRequest(def *Definition, step *Step, ctx map[string]any) (*compiledRequest, error) {
	rawURL, err := urlSource(def, step)
	if err != nil {
		return nil, err
	}

	req := &compiledRequest{
		Method:    createMethod(def, step),
		IsGraphQL: step.GraphQL != nil,
	}
	if req.URL, err = compile.CompileString(rawURL, ctx); err != nil {
		return nil, withField(err, "url")
	}
	if req.Query, err = compile.CompileValue(querySource(step), ctx); err != nil {
		return nil, withField(err, "query")
	}
	if req.Headers, err = compile.CompileValue(headersSource(step), ctx); err != nil {
		return nil, withField(err, "headers")
	}
	if req.Body, err = compile.CompileValue(bodySource(step), ctx); err != nil {
		return nil, withField(err, "body")
	}
	return req, nil
}

// transportRequest returns the real request to send.
func (r *compiledRequest) transportRequest() transport.Request {
	query, _ := r.Query.Raw.(map[string]any)
	headers, _ := r.Headers.Raw.(map[string]any)
	return transport.Request{
		Method:  r.Method,
		URL:     r.URL.Raw,
		Query:   query,
		Headers: headers,
		Body:    r.Body.Raw,
	}
}

// withField names the part of the step a configuration error came from.
func withField(err error, field string) error {
	var cfg *core.ConfigError
	if errors.As(err, &cfg) {
		copied := *cfg
		copied.Field = field
		return &copied
	}
	return err
}

// Preflight checks a definition for configuration errors without resolving
// anything, so a broken workflow is reported before any request is made.
func Preflight(def *Definition) error {
	if strings.TrimSpace(def.Name) == "" {
		return core.WithLocation(core.NewConfigError("name", "workflow has no name", core.ErrMissingName), def.File, "")
	}
	if err := compile.Validate(def.URL); err != nil {
		return core.WithLocation(withField(err, "url"), def.Name, "")
	}

	for i := range def.Steps {
		step := &def.Steps[i]
		if err := preflightStep(def, step); err != nil {
			return core.WithLocation(err, def.Name, stepLabel(step, i))
		}
	}
	return nil
}

func preflightStep(def *Definition, step *Step) error {
	if step.Skip {
		return nil
	}
	if strings.TrimSpace(step.Name) == "" {
		return core.NewConfigError("name", "step has no name", core.ErrMissingName)
	}

	rawURL, err := urlSource(def, step)
	if err != nil {
		return err
	}
	if err := compile.Validate(rawURL); err != nil {
		return withField(err, "url")
	}
	if err := compile.ValidateValue(querySource(step)); err != nil {
		return withField(err, "query")
	}
	if err := compile.ValidateValue(headersSource(step)); err != nil {
		return withField(err, "headers")
	}
	field := "body"
	if step.GraphQL != nil {
		field = "graphql"
	}
	if err := compile.ValidateValue(bodySource(step)); err != nil {
		return withField(err, field)
	}
	for _, spec := range step.Assertions {
		if err := assert.Validate(spec.Text); err != nil {
			return withField(err, "assertions")
		}
	}
	return nil
}

func stepLabel(step *Step, index int) string {
	if step.Name != "" {
		return step.Name
	}
	return fmt.Sprintf("#%d", index+1)
}
