package storage

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ValidatePathWithinDir resolves filePath against dir and rejects results
// outside of dir, such as `../../etc/passwd` or absolute paths elsewhere.
func ValidatePathWithinDir(filePath, dir string) (string, error) {
	targetPath := filePath
	if !filepath.IsAbs(targetPath) {
		targetPath = filepath.Join(dir, targetPath)
	}

	absPath, err := filepath.Abs(targetPath)
	if err != nil {
		return "", fmt.Errorf("invalid path: %w", err)
	}

	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve directory: %w", err)
	}

	// Trailing separator so /logs-evil does not match /logs.
	if !strings.HasSuffix(absDir, string(filepath.Separator)) {
		absDir += string(filepath.Separator)
	}

	if absPath != strings.TrimSuffix(absDir, string(filepath.Separator)) &&
		!strings.HasPrefix(absPath, absDir) {
		return "", fmt.Errorf("access denied: %s is outside %s", filePath, dir)
	}

	return absPath, nil
}
