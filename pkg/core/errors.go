// Package core holds the pieces shared by every capter package: configuration
// errors, exit codes, run options and the .capter folder bootstrap.
package core

import (
	"errors"
	"fmt"
)

// ErrConfig marks an invalid workflow definition. Any error wrapping it aborts
// the whole run before (or instead of) issuing further requests.
var ErrConfig = errors.New("configuration error")

// Sentinel causes for the most common definition problems.
var (
	ErrInvalidTemplate  = errors.New("invalid template")
	ErrInvalidAssertion = errors.New("could not parse assertion")
	ErrUnknownTest      = errors.New("unknown assertion test")
	ErrMissingURL       = errors.New("no url found")
	ErrMissingName      = errors.New("missing field `name`")
)

// ConfigError describes where in a workflow a definition problem was found.
type ConfigError struct {
	Workflow string // workflow name or file
	Step     string // step name, empty for workflow-level problems
	Field    string // offending field (url, assertions, ...)
	Message  string
	Err      error
}

// NewConfigError creates a ConfigError wrapping err.
func NewConfigError(field, message string, err error) *ConfigError {
	return &ConfigError{
		Field:   field,
		Message: message,
		Err:     err,
	}
}

func (e *ConfigError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Field != "" {
		msg = fmt.Sprintf("%s: %s", e.Field, msg)
	}
	if e.Step != "" {
		msg = fmt.Sprintf("step %q: %s", e.Step, msg)
	}
	if e.Workflow != "" {
		msg = fmt.Sprintf("%s: %s", e.Workflow, msg)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// Is makes every ConfigError match ErrConfig.
func (e *ConfigError) Is(target error) bool {
	return target == ErrConfig
}

// WithLocation returns a copy of the error annotated with workflow and step.
// Fields that are already set are kept.
func WithLocation(err error, workflow, step string) error {
	var cerr *ConfigError
	if !errors.As(err, &cerr) {
		return err
	}
	located := *cerr
	if located.Workflow == "" {
		located.Workflow = workflow
	}
	if located.Step == "" {
		located.Step = step
	}
	return &located
}
