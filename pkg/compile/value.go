package compile

import (
	"encoding/json"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// CompiledValue holds the two compiled versions of a config tree. Both have
// the same shape.
type CompiledValue struct {
	Raw    any `json:"raw"`
	Masked any `json:"masked"`
}

// CompileValue walks an arbitrary config tree (maps, sequences, scalars) and
// compiles every string in it. A string that contained placeholders is
// re-read as a scalar afterwards, so `${{ user.age }}` used as a whole value
// yields a number instead of a numeric string.
func CompileValue(tree any, ctx any) (CompiledValue, error) {
	raw, err := walk(tree, ctx, Raw)
	if err != nil {
		return CompiledValue{}, err
	}
	masked, err := walk(tree, ctx, Masked)
	if err != nil {
		return CompiledValue{}, err
	}
	return CompiledValue{Raw: raw, Masked: masked}, nil
}

// ValidateValue runs Validate on every string in tree.
func ValidateValue(tree any) error {
	_, err := walk(tree, nil, Raw)
	return err
}

func walk(node any, ctx any, track Track) (any, error) {
	switch v := node.(type) {
	case string:
		compiled, err := compileTrack(v, ctx, track)
		if err != nil {
			return nil, err
		}
		if !HasPlaceholder(v) {
			return compiled, nil
		}
		return parseScalar(compiled), nil
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, val := range v {
			compiled, err := walk(val, ctx, track)
			if err != nil {
				return nil, err
			}
			out[key] = compiled
		}
		return out, nil
	case []any:
		out := make([]any, len(v))
		for i, val := range v {
			compiled, err := walk(val, ctx, track)
			if err != nil {
				return nil, err
			}
			out[i] = compiled
		}
		return out, nil
	default:
		return v, nil
	}
}

// numberPattern is the JSON number grammar. Leading zeros, hex, octal and
// underscores do not match, so `01234` stays text.
var numberPattern = regexp.MustCompile(`^-?(0|[1-9][0-9]*)(\.[0-9]+)?([eE][+-]?[0-9]+)?$`)

// parseScalar returns the typed value of s: a json.Number with the exact
// digits, a YAML boolean or an explicit null. Anything else, including the
// empty string, stays a string.
func parseScalar(s string) any {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return s
	}
	if numberPattern.MatchString(trimmed) {
		return json.Number(trimmed)
	}

	var v any
	if err := yaml.Unmarshal([]byte(trimmed), &v); err != nil {
		return s
	}
	switch t := v.(type) {
	case bool:
		return t
	case nil:
		// Comments also decode to nil; only explicit nulls count.
		switch trimmed {
		case "null", "Null", "NULL", "~":
			return nil
		}
	}
	return s
}
