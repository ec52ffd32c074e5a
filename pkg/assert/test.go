// Package assert implements the check language of workflow steps:
// `<property> <test> [value]`, e.g. `status to_equal 200`.
package assert

import (
	"encoding/json"
	"fmt"

	"github.com/blackcoderx/capter/pkg/core"
)

// Test is one of the closed set of assertion tests.
type Test int

const (
	ToEqual Test = iota + 1
	ToBeAbove
	ToBeAtLeast
	ToBeBelow
	ToBeAtMost
	ToBeTrue
	ToBeFalse
	ToBeNull
	ToExist
	ToBeUndefined
	ToBeObject
	ToBeArray
	ToBeString
	ToBeNumber
	ToBeBoolean
	ToContain
	ToHaveLength
	ToBeEmpty
	ToMatch
)

var testNames = map[Test]string{
	ToEqual:       "to_equal",
	ToBeAbove:     "to_be_above",
	ToBeAtLeast:   "to_be_at_least",
	ToBeBelow:     "to_be_below",
	ToBeAtMost:    "to_be_at_most",
	ToBeTrue:      "to_be_true",
	ToBeFalse:     "to_be_false",
	ToBeNull:      "to_be_null",
	ToExist:       "to_exist",
	ToBeUndefined: "to_be_undefined",
	ToBeObject:    "to_be_object",
	ToBeArray:     "to_be_array",
	ToBeString:    "to_be_string",
	ToBeNumber:    "to_be_number",
	ToBeBoolean:   "to_be_boolean",
	ToContain:     "to_contain",
	ToHaveLength:  "to_have_length",
	ToBeEmpty:     "to_be_empty",
	ToMatch:       "to_match",
}

var testsByName = func() map[string]Test {
	m := make(map[string]Test, len(testNames))
	for t, name := range testNames {
		m[name] = t
	}
	return m
}()

func (t Test) String() string {
	if name, ok := testNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Test(%d)", int(t))
}

// TakesOperand reports whether the test compares against an expected value.
func (t Test) TakesOperand() bool {
	switch t {
	case ToEqual, ToBeAbove, ToBeAtLeast, ToBeBelow, ToBeAtMost, ToContain, ToHaveLength, ToMatch:
		return true
	default:
		return false
	}
}

// ParseTest returns the test with the given name.
func ParseTest(name string) (Test, error) {
	if t, ok := testsByName[name]; ok {
		return t, nil
	}
	return 0, core.NewConfigError("assertions", fmt.Sprintf("assertion not found: `%s`", name), core.ErrUnknownTest)
}

// MarshalJSON renders the test by name.
func (t Test) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON reads a test name.
func (t *Test) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	parsed, err := ParseTest(name)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
