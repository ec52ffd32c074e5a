package assert

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/blackcoderx/capter/pkg/compile"
)

// predicate checks actual against expected. An empty message means the check
// passed.
type predicate func(actual, expected any, not bool) string

func to(not bool) string {
	if not {
		return "to not"
	}
	return "to"
}

func didPass(result, not bool) bool {
	return result != not
}

// js renders a value the way messages show it: strings quoted.
func js(v any) string {
	return compile.ToJSON(v)
}

// operandText renders an expected value in messages. Numeric operands read
// as numbers, anything else as JSON.
func operandText(v any) string {
	if s, ok := v.(string); ok {
		if _, numeric := compile.Number(s); numeric {
			return strings.TrimSpace(s)
		}
	}
	return js(v)
}

func check(result, not bool, format string, args ...any) string {
	if didPass(result, not) {
		return ""
	}
	return fmt.Sprintf(format, args...)
}

func toEqual(a, b any, not bool) string {
	as, bs := compile.Stringify(a), compile.Stringify(b)
	return check(as == bs, not, "expected %s %s equal %s", as, to(not), bs)
}

func compare(verb string, cmp func(a, b float64) bool) predicate {
	return func(a, b any, not bool) string {
		an, aok := compile.Number(a)
		bn, bok := compile.Number(b)
		if !aok || !bok {
			return fmt.Sprintf("expected %s and %s to be numbers", js(a), operandText(b))
		}
		return check(cmp(an, bn), not, "expected %s %s be %s %s", js(a), to(not), verb, operandText(b))
	}
}

var (
	toBeAbove   = compare("above", func(a, b float64) bool { return a > b })
	toBeAtLeast = compare("at least", func(a, b float64) bool { return a >= b })
	toBeBelow   = compare("below", func(a, b float64) bool { return a < b })
	toBeAtMost  = compare("at most", func(a, b float64) bool { return a <= b })
)

func boolean(want bool) predicate {
	return func(a, _ any, not bool) string {
		v, ok := a.(bool)
		return check(ok && v == want, not, "expected %s %s be %t", js(a), to(not), want)
	}
}

func kind(description string, is func(v any) bool) predicate {
	return func(a, _ any, not bool) string {
		return check(is(a), not, "expected %s %s %s", js(a), to(not), description)
	}
}

func isNull(v any) bool { return v == nil }

func is[T any](v any) bool {
	_, ok := v.(T)
	return ok
}

var (
	toBeTrue      = boolean(true)
	toBeFalse     = boolean(false)
	toBeNull      = kind("be null", isNull)
	toBeUndefined = kind("be undefined", isNull)
	toExist       = kind("exist", func(v any) bool { return v != nil })
	toBeObject    = kind("be an object", is[map[string]any])
	toBeArray     = kind("be an array", is[[]any])
	toBeString    = kind("be a string", is[string])
	toBeNumber    = kind("be a number", compile.IsNumber)
	toBeBoolean   = kind("be a boolean", is[bool])
)

func toContain(a, b any, not bool) string {
	want := compile.Stringify(b)

	var result bool
	if items, ok := a.([]any); ok {
		// Elements match by string form, so `ids to_contain 7` finds the number 7.
		result = slices.ContainsFunc(items, func(item any) bool {
			return compile.Stringify(item) == want
		})
	} else {
		result = strings.Contains(compile.Stringify(a), want)
	}
	return check(result, not, "expected %s %s contain %s", js(a), to(not), js(b))
}

func toHaveLength(a, b any, not bool) string {
	want, ok := compile.Number(b)
	if !ok {
		return fmt.Sprintf("expected %s to be string or array", js(a))
	}

	var typ string
	var length int
	switch v := a.(type) {
	case []any:
		typ, length = "array", len(v)
	case string:
		typ, length = "string", utf8.RuneCountInString(v)
	default:
		return fmt.Sprintf("expected %s to be string or array", js(a))
	}

	return check(float64(length) == want, not, "expected %s %s have length %s but got %d",
		typ, to(not), strconv.FormatFloat(want, 'f', -1, 64), length)
}

// emptyTypeMessage is reported for values that have no notion of emptiness.
const emptyTypeMessage = "expected an array, string or object"

func toBeEmpty(a, _ any, not bool) string {
	switch v := a.(type) {
	case []any:
		return check(len(v) == 0, not, "expected array %s be empty", to(not))
	case string:
		return check(v == "", not, "expected string %s be empty", to(not))
	case map[string]any:
		return check(len(v) == 0, not, "expected object %s be empty", to(not))
	default:
		return emptyTypeMessage
	}
}

func toMatch(a, b any, not bool) string {
	pattern := compile.Stringify(b)
	re, err := regexp.Compile(pattern)
	if err != nil {
		return fmt.Sprintf("invalid pattern %s: %v", js(b), err)
	}
	return check(re.MatchString(compile.Stringify(a)), not, "expected %s %s match %s", js(a), to(not), js(b))
}
