// Package storage reads what capter works from on disk: workflow documents,
// environment files and the glob that selects them.
package storage

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/blackcoderx/capter/pkg/core"
	"github.com/blackcoderx/capter/pkg/workflow"
)

// LoadWorkflow reads, validates and decodes the workflow document at path.
// When the document sets no `file`, the cleaned path is used.
func LoadWorkflow(path string) (*workflow.Definition, error) {
	path = filepath.Clean(path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, core.WithLocation(core.NewConfigError("file", fmt.Sprintf("failed to read %s", path), err), path, "")
	}

	def, err := ParseWorkflow(data)
	if err != nil {
		return nil, core.WithLocation(err, path, "")
	}
	if def.File == "" {
		def.File = path
	}
	return def, nil
}

// ParseWorkflow validates a document against the workflow schema and decodes
// it. Problems are configuration errors.
func ParseWorkflow(data []byte) (*workflow.Definition, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, parseError(err)
	}
	if node.Kind == 0 {
		return nil, core.NewConfigError("document", "empty document", core.ErrMissingName)
	}

	if err := ValidateDocument(NodeValue(&node)); err != nil {
		return nil, err
	}

	var def workflow.Definition
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&def); err != nil && !errors.Is(err, io.EOF) {
		return nil, parseError(err)
	}
	return &def, nil
}

func parseError(err error) error {
	return core.NewConfigError("document", fmt.Sprintf("failed to parse: %v", err), err)
}

// NodeValue converts a YAML node into a plain JSON-like tree. Scalars with a
// custom tag (such as `!expect`) become their string value.
func NodeValue(node *yaml.Node) any {
	switch node.Kind {
	case yaml.DocumentNode:
		if len(node.Content) == 0 {
			return nil
		}
		return NodeValue(node.Content[0])
	case yaml.MappingNode:
		out := make(map[string]any, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			out[node.Content[i].Value] = NodeValue(node.Content[i+1])
		}
		return out
	case yaml.SequenceNode:
		out := make([]any, 0, len(node.Content))
		for _, item := range node.Content {
			out = append(out, NodeValue(item))
		}
		return out
	case yaml.AliasNode:
		return NodeValue(node.Alias)
	case yaml.ScalarNode:
		switch node.Tag {
		case "!!int", "!!float", "!!bool", "!!null":
			var v any
			if err := node.Decode(&v); err == nil {
				return normalizeScalar(v)
			}
		}
		return node.Value
	default:
		return nil
	}
}

func normalizeScalar(v any) any {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case uint64:
		return float64(n)
	default:
		return v
	}
}
