package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/blackcoderx/capter/pkg/compile"
	"github.com/blackcoderx/capter/pkg/core"
)

// varPattern matches {{env:VAR_NAME}}
var varPattern = regexp.MustCompile(`\{\{([^}]+)\}\}`)

// EnvironmentsDir returns the folder holding environment files.
func EnvironmentsDir(baseDir string) string {
	return filepath.Join(baseDir, "environments")
}

// LoadEnvironment loads `<baseDir>/environments/<name>.yaml` (or `.yml`).
// String values may reference the process environment as {{env:VAR}}.
func LoadEnvironment(baseDir, name string) (map[string]any, error) {
	dir := EnvironmentsDir(baseDir)

	var filePath string
	for _, ext := range []string{".yaml", ".yml"} {
		candidate, err := ValidatePathWithinDir(name+ext, dir)
		if err != nil {
			return nil, fmt.Errorf("invalid environment %q: %w", name, core.ErrUsage)
		}
		if _, err := os.Stat(candidate); err == nil {
			filePath = candidate
			break
		}
	}
	if filePath == "" {
		available, _ := ListEnvironments(baseDir)
		return nil, fmt.Errorf("environment %q not found (available: %s): %w", name, strings.Join(available, ", "), core.ErrUsage)
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read environment file: %w", err)
	}

	var env map[string]any
	if err := yaml.Unmarshal(data, &env); err != nil {
		return nil, core.NewConfigError("environment", fmt.Sprintf("failed to parse %s: %v", filePath, err), err)
	}

	out := make(map[string]any, len(env))
	for key, value := range env {
		if s, ok := value.(string); ok {
			out[key] = resolveEnvRefs(s)
			continue
		}
		out[key] = compile.Normalize(value)
	}
	return out, nil
}

// ListEnvironments lists the names of all environment files.
func ListEnvironments(baseDir string) ([]string, error) {
	envDir := EnvironmentsDir(baseDir)

	if _, err := os.Stat(envDir); os.IsNotExist(err) {
		return []string{}, nil
	}

	entries, err := os.ReadDir(envDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read environments directory: %w", err)
	}

	var envs []string
	for _, entry := range entries {
		if !entry.IsDir() && (strings.HasSuffix(entry.Name(), ".yaml") || strings.HasSuffix(entry.Name(), ".yml")) {
			name := strings.TrimSuffix(strings.TrimSuffix(entry.Name(), ".yaml"), ".yml")
			envs = append(envs, name)
		}
	}

	return envs, nil
}

// resolveEnvRefs resolves {{env:VAR}} references in a string. Unknown
// variables are left in place.
func resolveEnvRefs(text string) string {
	return varPattern.ReplaceAllStringFunc(text, func(match string) string {
		varName := strings.TrimPrefix(strings.TrimSuffix(match, "}}"), "{{")
		varName = strings.TrimSpace(varName)

		if strings.HasPrefix(varName, "env:") {
			sysVar := strings.TrimPrefix(varName, "env:")
			if val, ok := os.LookupEnv(sysVar); ok {
				return val
			}
		}
		return match
	})
}
