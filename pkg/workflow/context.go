package workflow

import (
	"strings"

	"github.com/blackcoderx/capter/pkg/compile"
)

// Context is the data templates of one run resolve against. It starts with
// `env` and grows by `<id>.request` and `<id>.response` as steps complete.
// A Context belongs to a single run and is not safe for concurrent use.
type Context struct {
	tree map[string]any
}

// NewContext seeds a context. Later sources override earlier ones: the
// process environment (KEY=VALUE pairs), then each of the given maps.
func NewContext(environ []string, envs ...map[string]any) *Context {
	env := make(map[string]any, len(environ))
	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			continue
		}
		env[key] = value
	}
	for _, overrides := range envs {
		for key, value := range overrides {
			env[key] = compile.Normalize(value)
		}
	}
	return &Context{tree: map[string]any{"env": env}}
}

// Tree returns the underlying tree. Callers must treat it as read-only.
func (c *Context) Tree() map[string]any {
	return c.tree
}

// Set stores value under `<id>.<key>`. Reusing an id overwrites earlier data.
func (c *Context) Set(id, key string, value any) {
	entry, ok := c.tree[id].(map[string]any)
	if !ok {
		entry = make(map[string]any, 2)
		c.tree[id] = entry
	}
	entry[key] = compile.Normalize(value)
}
