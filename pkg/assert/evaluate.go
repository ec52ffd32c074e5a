package assert

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/blackcoderx/capter/pkg/compile"
)

// HiddenMessage replaces the message of any check that used `mask`.
const HiddenMessage = "hidden"

// Data is what a step's checks can look at.
type Data struct {
	Status   *int
	Body     any
	Headers  map[string]string
	Duration int64 // milliseconds
}

// Tree returns data as the JSON-like tree properties are resolved against.
func (d Data) Tree() map[string]any {
	var status any
	if d.Status != nil {
		status = json.Number(strconv.Itoa(*d.Status))
	}
	return map[string]any{
		"status":   status,
		"body":     compile.Normalize(d.Body),
		"headers":  compile.Normalize(d.Headers),
		"duration": json.Number(strconv.FormatInt(d.Duration, 10)),
	}
}

// Check is a check as written in a workflow, before compilation.
type Check struct {
	Text   string
	Invert bool
}

// Result is the reportable outcome of one check. Assertion and Message never
// carry values produced by a masked placeholder.
type Result struct {
	Passed    bool    `json:"passed"`
	Message   *string `json:"message"`
	Assertion Spec    `json:"assertion"`
}

// Evaluate runs a parsed check against data. The message is empty when the
// check passed.
func Evaluate(spec Spec, data Data) (bool, string) {
	return evaluateTree(spec, data.Tree())
}

func evaluateTree(spec Spec, tree map[string]any) (bool, string) {
	actual := compile.Lookup(tree, spec.Property)
	expected := spec.Value

	var p predicate
	switch spec.Test {
	case ToEqual:
		p = toEqual
	case ToBeAbove:
		p = toBeAbove
	case ToBeAtLeast:
		p = toBeAtLeast
	case ToBeBelow:
		p = toBeBelow
	case ToBeAtMost:
		p = toBeAtMost
	case ToBeTrue:
		p = toBeTrue
	case ToBeFalse:
		p = toBeFalse
	case ToBeNull:
		p = toBeNull
	case ToExist:
		p = toExist
	case ToBeUndefined:
		p = toBeUndefined
	case ToBeObject:
		p = toBeObject
	case ToBeArray:
		p = toBeArray
	case ToBeString:
		p = toBeString
	case ToBeNumber:
		p = toBeNumber
	case ToBeBoolean:
		p = toBeBoolean
	case ToContain:
		p = toContain
	case ToHaveLength:
		p = toHaveLength
	case ToBeEmpty:
		p = toBeEmpty
	case ToMatch:
		p = toMatch
	default:
		return false, fmt.Sprintf("unknown test %s", spec.Test)
	}

	message := p(actual, expected, spec.Invert)
	return message == "", message
}

// Run compiles check against ctx, evaluates the real values and reports the
// masked ones. Template and parse failures are configuration errors.
func Run(check Check, ctx any, data Data) (Result, error) {
	compiled, err := compile.CompileString(check.Text, ctx)
	if err != nil {
		return Result{}, err
	}

	raw, err := Parse(compiled.Raw)
	if err != nil {
		return Result{}, err
	}
	masked, err := Parse(compiled.Masked)
	if err != nil {
		return Result{}, err
	}
	raw.Invert = check.Invert
	masked.Invert = check.Invert

	passed, message := Evaluate(raw, data)

	result := Result{Passed: passed, Assertion: masked}
	switch {
	case compiled.IsMasked():
		hidden := HiddenMessage
		result.Message = &hidden
	case message != "":
		result.Message = &message
	}
	return result, nil
}

// Validate checks a check's syntax without resolving it. Checks containing
// placeholders can only be parsed once compiled, so only their template syntax
// is verified here.
func Validate(text string) error {
	if err := compile.Validate(text); err != nil {
		return err
	}
	if compile.HasPlaceholder(text) {
		return nil
	}
	_, err := Parse(text)
	return err
}
