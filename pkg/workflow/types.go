// Package workflow runs a workflow definition: its steps in order, each
// request compiled against what earlier steps captured, each response checked
// by its assertions.
package workflow

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/blackcoderx/capter/pkg/assert"
)

// Definition is one workflow document.
type Definition struct {
	File   string         `yaml:"file,omitempty" json:"file,omitempty"`
	Name   string         `yaml:"name" json:"name"`
	URL    string         `yaml:"url,omitempty" json:"url,omitempty"`
	Method string         `yaml:"method,omitempty" json:"method,omitempty"`
	Env    map[string]any `yaml:"env,omitempty" json:"env,omitempty"`
	Steps  []Step         `yaml:"steps" json:"steps"`
	Skip   bool           `yaml:"skip,omitempty" json:"skip,omitempty"`
}

// Step is a single request of a workflow.
type Step struct {
	Name       string          `yaml:"name" json:"name"`
	ID         string          `yaml:"id,omitempty" json:"id,omitempty"`
	URL        string          `yaml:"url,omitempty" json:"url,omitempty"`
	Method     string          `yaml:"method,omitempty" json:"method,omitempty"`
	Query      map[string]any  `yaml:"query,omitempty" json:"query,omitempty"`
	Headers    map[string]any  `yaml:"headers,omitempty" json:"headers,omitempty"`
	Body       any             `yaml:"body,omitempty" json:"body,omitempty"`
	GraphQL    *GraphQL        `yaml:"graphql,omitempty" json:"graphql,omitempty"`
	Assertions []AssertionSpec `yaml:"assertions" json:"assertions"`
	Options    StepOptions     `yaml:"options,omitempty" json:"options,omitempty"`
	Skip       bool            `yaml:"skip,omitempty" json:"skip,omitempty"`
}

// GraphQL turns a step into a GraphQL POST.
type GraphQL struct {
	Query     string `yaml:"query" json:"query"`
	Variables any    `yaml:"variables,omitempty" json:"variables,omitempty"`
}

// StepOptions holds per-step reporting options.
type StepOptions struct {
	// Mask lists response keys whose values are replaced in reported output.
	Mask []string `yaml:"mask,omitempty" json:"mask,omitempty"`
}

// AssertionSpec is a check as written: `!expect <check>` or, inverted,
// `!!expect <check>`.
type AssertionSpec struct {
	Text   string `json:"text"`
	Invert bool   `json:"invert"`
}

// YAML tags that mark assertions. `!!expect` goes through the secondary tag
// handle and so arrives expanded.
const (
	expectTag         = "!expect"
	expectNotTag      = "!!expect"
	expectNotTagLong  = "tag:yaml.org,2002:expect"
	expectNotTagAlias = "!expect_not"
)

// UnmarshalYAML reads a tagged scalar. Untagged strings count as `!expect`.
func (a *AssertionSpec) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: assertion must be a string", node.Line)
	}

	switch node.Tag {
	case expectTag, "!!str", "":
		a.Invert = false
	case expectNotTag, expectNotTagLong, expectNotTagAlias:
		a.Invert = true
	default:
		return fmt.Errorf("line %d: unknown assertion tag %s", node.Line, node.Tag)
	}
	a.Text = node.Value
	return nil
}

// MarshalYAML writes the check back with its tag.
func (a AssertionSpec) MarshalYAML() (any, error) {
	tag := expectTag
	if a.Invert {
		tag = expectNotTagAlias
	}
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: a.Text}, nil
}

// Check converts a to what the assertion runner takes.
func (a AssertionSpec) Check() assert.Check {
	return assert.Check{Text: a.Text, Invert: a.Invert}
}
