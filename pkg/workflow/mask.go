package workflow

import (
	"slices"

	"github.com/blackcoderx/capter/pkg/compile"
)

// DeepReplace returns a copy of value where every object entry whose key is
// in keys has its value replaced by the mask marker, at any depth. value is
// not modified.
func DeepReplace(value any, keys []string) any {
	if len(keys) == 0 {
		return value
	}
	switch v := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, val := range v {
			if slices.Contains(keys, key) {
				out[key] = compile.MaskMarker
				continue
			}
			out[key] = DeepReplace(val, keys)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, val := range v {
			out[i] = DeepReplace(val, keys)
		}
		return out
	default:
		return v
	}
}
