package core

import (
	"fmt"
	"os"

	"github.com/aymanbagabas/go-udiff"
)

// FileChange describes what writing a file would do to the current content.
type FileChange struct {
	// Path is the file being written
	Path string
	// IsNewFile is true if the file does not exist yet
	IsNewFile bool
	// Identical is true if the file already has the wanted content
	Identical bool
	// Diff is the unified diff from the current to the wanted content
	Diff string
}

// PlanFileChange compares the file at path with content without writing.
func PlanFileChange(path, content string) (*FileChange, error) {
	change := &FileChange{Path: path}

	existing, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		change.IsNewFile = true
	case err != nil:
		return nil, fmt.Errorf("failed to read existing file: %w", err)
	}

	original := string(existing)
	if !change.IsNewFile && original == content {
		change.Identical = true
		return change, nil
	}

	change.Diff = generateDiff(path, original, content)
	return change, nil
}

// PlanExample is PlanFileChange for the example workflow.
func PlanExample() (*FileChange, error) {
	return PlanFileChange(ExampleWorkflowFile, ExampleWorkflow)
}

// generateDiff creates a unified diff with 3 lines of context.
func generateDiff(filename, original, modified string) string {
	edits := udiff.Strings(original, modified)
	unified, err := udiff.ToUnified("a/"+filename, "b/"+filename, original, edits, 3)
	if err != nil {
		return fmt.Sprintf("--- a/%s\n+++ b/%s\n(diff generation failed)\n", filename, filename)
	}
	return unified
}
