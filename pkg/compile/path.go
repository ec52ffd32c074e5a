// Package compile resolves `${{ path }}` and `${{ mask path }}` placeholders
// against a JSON-like tree, producing a raw and a masked result side by side.
package compile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// Resolve looks up a dot-separated path (`user.friends.0.name`) in tree.
// Object nodes are indexed by key, array nodes by unsigned integer segments.
// The boolean is false when any segment is missing; a JSON null that is
// present yields (nil, true).
func Resolve(tree any, path string) (any, bool) {
	node := tree
	for _, segment := range strings.Split(path, ".") {
		switch current := node.(type) {
		case map[string]any:
			next, ok := current[segment]
			if !ok {
				return nil, false
			}
			node = next
		case []any:
			idx, err := strconv.ParseUint(segment, 10, 64)
			if err != nil || idx >= uint64(len(current)) {
				return nil, false
			}
			node = current[idx]
		default:
			return nil, false
		}
	}
	return node, true
}

// Lookup is Resolve with missing values collapsed to nil.
func Lookup(tree any, path string) any {
	v, _ := Resolve(tree, path)
	return v
}

// Stringify renders a value the way it is substituted into templates:
// strings verbatim, everything else as compact JSON.
func Stringify(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ToJSON(v)
}

// ToJSON renders v as compact JSON without HTML escaping.
func ToJSON(v any) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Sprint(v)
	}
	return strings.TrimSuffix(buf.String(), "\n")
}

// Normalize converts YAML-decoded or typed Go values into the plain JSON tree
// shape (map[string]any, []any, string, json.Number, bool, nil) used by
// Resolve. Numbers keep their exact digits as json.Number.
func Normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = Normalize(val)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = Normalize(val)
		}
		return out
	case map[string]string:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = val
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = Normalize(val)
		}
		return out
	case nil, string, bool, json.Number:
		return t
	case int:
		return json.Number(strconv.Itoa(t))
	case int64:
		return json.Number(strconv.FormatInt(t, 10))
	case uint64:
		return json.Number(strconv.FormatUint(t, 10))
	case float32:
		return floatNumber(float64(t))
	case float64:
		return floatNumber(t)
	default:
		// Structs and other typed values take the JSON route.
		data, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		out, err := DecodeJSON(data)
		if err != nil {
			return fmt.Sprint(t)
		}
		return out
	}
}

// floatNumber renders f with the shortest exact digits. NaN and infinities
// have no JSON form and stay float64.
func floatNumber(f float64) any {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return f
	}
	return json.Number(strconv.FormatFloat(f, 'f', -1, 64))
}

// DecodeJSON decodes a single JSON document, keeping numbers as json.Number.
func DecodeJSON(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("unexpected data after JSON value")
	}
	return out, nil
}

// Number returns v as a float64 if it is a number or a numeric string.
func Number(v any) (float64, bool) {
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case float64:
		return n, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// IsNumber reports whether v is a JSON number.
func IsNumber(v any) bool {
	switch v.(type) {
	case json.Number, float64:
		return true
	default:
		return false
	}
}
