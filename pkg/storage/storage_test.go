package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackcoderx/capter/pkg/core"
)

const usersWorkflow = `name: users
env:
  URL: http://localhost:3000
steps:
  - name: list users
    id: users
    url: ${{ env.URL }}/users
    query:
      limit: 10
    assertions:
      - !expect status to_equal 200
      - !!expect body to_be_empty
  - name: first user
    url: ${{ env.URL }}/users/${{ users.response.body.0.id }}
    options:
      mask: [email]
    assertions:
      - body.id to_exist
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestLoadWorkflow(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "users.yml")
	writeFile(t, path, usersWorkflow)

	def, err := LoadWorkflow(path)
	require.NoError(t, err)

	assert.Equal(t, "users", def.Name)
	assert.Equal(t, path, def.File)
	require.Len(t, def.Steps, 2)
	assert.Equal(t, "status to_equal 200", def.Steps[0].Assertions[0].Text)
	assert.False(t, def.Steps[0].Assertions[0].Invert)
	assert.True(t, def.Steps[0].Assertions[1].Invert)
	assert.Equal(t, []string{"email"}, def.Steps[1].Options.Mask)
	assert.Equal(t, "body.id to_exist", def.Steps[1].Assertions[0].Text)
}

func TestLoadWorkflow_KeepsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "named.yml")
	writeFile(t, path, "file: custom.yml\nname: named\nsteps: []\n")

	def, err := LoadWorkflow(path)
	require.NoError(t, err)
	assert.Equal(t, "custom.yml", def.File)
}

func TestLoadWorkflow_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{name: "missing name", doc: "steps:\n  - name: a\n    url: http://x\n"},
		{name: "unknown field", doc: "name: a\nsteps: []\ntimeout: 3\n"},
		{name: "step without name", doc: "name: a\nsteps:\n  - url: http://x\n"},
		{name: "bad method", doc: "name: a\nmethod: FETCH\nsteps: []\n"},
		{name: "bad assertion type", doc: "name: a\nsteps:\n  - name: s\n    assertions:\n      - [a, b]\n"},
		{name: "unknown tag", doc: "name: a\nsteps:\n  - name: s\n    assertions:\n      - !assert status to_equal 200\n"},
		{name: "not yaml", doc: "name: [unclosed\n"},
		{name: "empty", doc: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "bad.yml")
			writeFile(t, path, tt.doc)

			_, err := LoadWorkflow(path)
			require.Error(t, err)
			assert.ErrorIs(t, err, core.ErrConfig)
			assert.Equal(t, core.ExitConfig, core.ExitCode(err))
		})
	}
}

func TestLoadWorkflow_MissingFile(t *testing.T) {
	_, err := LoadWorkflow(filepath.Join(t.TempDir(), "nope.yml"))
	assert.ErrorIs(t, err, core.ErrConfig)
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "b.test.yml"), usersWorkflow)
	writeFile(t, filepath.Join(dir, "a.test.yml"), usersWorkflow)
	writeFile(t, filepath.Join(dir, "nested", "deep", "c.test.yaml"), usersWorkflow)
	writeFile(t, filepath.Join(dir, "notes.txt"), "x")
	writeFile(t, filepath.Join(dir, "environments", "dev.yaml"), "URL: http://dev\n")

	got, err := Discover(filepath.Join(dir, "**", "*.test.{yml,yaml}"))
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.test.yml"),
		filepath.Join(dir, "b.test.yml"),
		filepath.Join(dir, "nested", "deep", "c.test.yaml"),
	}, got)

	got, err = Discover(dir)
	require.NoError(t, err)
	assert.Len(t, got, 3)

	got, err = Discover(filepath.Join(dir, "*.json"))
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = Discover("[")
	assert.ErrorIs(t, err, core.ErrUsage)
}

func TestLoadEnvironment(t *testing.T) {
	base := t.TempDir()
	writeFile(t, filepath.Join(base, "environments", "dev.yaml"), "URL: http://dev\nTOKEN: \"{{env:CAPTER_TEST_TOKEN}}\"\nMISSING: \"{{env:CAPTER_TEST_UNSET}}\"\nPORT: 8080\n")
	writeFile(t, filepath.Join(base, "environments", "prod.yml"), "URL: http://prod\n")
	t.Setenv("CAPTER_TEST_TOKEN", "abc")

	env, err := LoadEnvironment(base, "dev")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"URL":     "http://dev",
		"TOKEN":   "abc",
		"MISSING": "{{env:CAPTER_TEST_UNSET}}",
		"PORT":    json.Number("8080"),
	}, env)

	env, err = LoadEnvironment(base, "prod")
	require.NoError(t, err)
	assert.Equal(t, "http://prod", env["URL"])

	_, err = LoadEnvironment(base, "staging")
	assert.ErrorIs(t, err, core.ErrUsage)
	assert.Contains(t, err.Error(), "dev, prod")

	_, err = LoadEnvironment(base, "../../etc/passwd")
	assert.ErrorIs(t, err, core.ErrUsage)

	names, err := ListEnvironments(base)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"dev", "prod"}, names)
}

func TestValidatePathWithinDir(t *testing.T) {
	dir := t.TempDir()

	got, err := ValidatePathWithinDir("a/b.log", dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "a", "b.log"), got)

	for _, bad := range []string{"../x", "/etc/passwd", "a/../../x"} {
		_, err := ValidatePathWithinDir(bad, dir)
		assert.Error(t, err, bad)
	}
}
