package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/blackcoderx/capter/pkg/core"
)

// Discover returns the files matching a glob such as `.capter/**/*.yml`,
// sorted so runs are reproducible. A directory pattern matches every YAML
// file below it except environment files.
func Discover(pattern string) ([]string, error) {
	if !doublestar.ValidatePathPattern(pattern) {
		return nil, fmt.Errorf("invalid search glob: `%s`: %w", pattern, core.ErrUsage)
	}

	var skipDir string
	if info, err := os.Stat(pattern); err == nil && info.IsDir() {
		skipDir = EnvironmentsDir(pattern) + string(filepath.Separator)
		pattern = filepath.Join(pattern, "**", "*.{yml,yaml}")
	}

	matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("invalid search glob: `%s`: %w", pattern, core.ErrUsage)
	}

	if skipDir != "" {
		matches = slices.DeleteFunc(matches, func(path string) bool {
			return strings.HasPrefix(path, skipDir)
		})
	}

	sort.Strings(matches)
	return matches, nil
}
