package assert

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/blackcoderx/capter/pkg/compile"
	"github.com/blackcoderx/capter/pkg/core"
)

// Spec is a parsed check.
type Spec struct {
	Property string `json:"property"`
	Test     Test   `json:"test"`
	Value    any    `json:"value"`
	Invert   bool   `json:"invert"`
}

// Parse turns a compiled check such as `body.0.id to_equal 1` into a Spec.
//
// Tokens are separated by any run of whitespace. The property may be split
// over two tokens (`body data.0.title to_be_string`), so the known test names
// are what tells path and test apart:
//
//	x to_be_array          property x, no value
//	x data.0 to_be_empty   property x.data.0, no value
//	x to_equal a b         property x, value "a b"
//	x data.0 to_equal a b  property x.data.0, value "a b"
//
// The value is kept as text; each test converts it as it needs.
func Parse(text string) (Spec, error) {
	tokens := strings.Fields(text)
	if len(tokens) == 0 {
		return Spec{}, parseError(text)
	}
	// A placeholder that compiled to nothing leaves `x to_equal ` behind.
	if last := tokens[len(tokens)-1]; takesOperand(last) && endsInSpace(text) {
		tokens = append(tokens, "")
	}
	base, rest := tokens[0], tokens[1:]

	noOperand := func(token string) (Test, bool) {
		t, ok := testsByName[token]
		return t, ok && !t.TakesOperand()
	}
	anyTest := func(token string) (Test, bool) {
		t, ok := testsByName[token]
		return t, ok
	}

	if len(rest) == 1 {
		if t, ok := noOperand(rest[0]); ok {
			return Spec{Property: base, Test: t}, nil
		}
	}
	if len(rest) == 2 {
		if t, ok := noOperand(rest[1]); ok {
			return Spec{Property: base + "." + rest[0], Test: t}, nil
		}
	}
	if len(rest) > 1 {
		if t, ok := anyTest(rest[0]); ok {
			return Spec{Property: base, Test: t, Value: strings.Join(rest[1:], " ")}, nil
		}
	}
	if len(rest) > 2 {
		if t, ok := anyTest(rest[1]); ok {
			return Spec{Property: base + "." + rest[0], Test: t, Value: strings.Join(rest[2:], " ")}, nil
		}
	}

	return Spec{}, parseError(text)
}

func parseError(text string) error {
	return core.NewConfigError("assertions", fmt.Sprintf("could not parse assertion [%s]", text), core.ErrInvalidAssertion)
}

func takesOperand(token string) bool {
	t, ok := testsByName[token]
	return ok && t.TakesOperand()
}

func endsInSpace(text string) bool {
	return text != strings.TrimRightFunc(text, unicode.IsSpace)
}

// String renders s back into check syntax.
func (s Spec) String() string {
	var sb strings.Builder
	if s.Invert {
		sb.WriteString("not ")
	}
	sb.WriteString(s.Property)
	sb.WriteString(" ")
	sb.WriteString(s.Test.String())
	if s.Test.TakesOperand() {
		sb.WriteString(" ")
		sb.WriteString(compile.Stringify(s.Value))
	}
	return sb.String()
}
