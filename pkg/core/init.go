package core

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const CapterFolderName = ".capter"

// ExampleWorkflowFile is created by `capter init`.
var ExampleWorkflowFile = filepath.Join(CapterFolderName, "example.test.yml")

// ExampleWorkflow is the content written to ExampleWorkflowFile.
const ExampleWorkflow = `name: example
env:
  URL: https://fake-api.capter.io
steps:
  - name: check health
    url: ${{ env.URL }}/api/health
    assertions:
      - !expect status to_equal 200
      - !expect body.ok to_equal true
`

// Config represents the project configuration in .capter/config.json.
// Every key is also a flag of `capter test`; flags win.
type Config struct {
	Timeout  int     `json:"timeout"`
	Rate     float64 `json:"rate"`
	Webhook  string  `json:"webhook"`
	LogLevel string  `json:"log_level"`
}

// InitializeCapterFolder creates the .capter directory with its default files
// if they don't exist yet. It never touches the example workflow; see
// WriteExample.
func InitializeCapterFolder() error {
	if _, err := os.Stat(CapterFolderName); os.IsNotExist(err) {
		if err := os.Mkdir(CapterFolderName, 0755); err != nil {
			return fmt.Errorf("failed to create %s folder: %w", CapterFolderName, err)
		}

		if err := createDefaultConfig(); err != nil {
			return err
		}

		if err := os.Mkdir(filepath.Join(CapterFolderName, "environments"), 0755); err != nil {
			return fmt.Errorf("failed to create environments folder: %w", err)
		}

		if err := createDefaultEnvironment(); err != nil {
			return err
		}
	}

	// Folders created by older versions may lack these.
	ensureDir(filepath.Join(CapterFolderName, "environments"))
	ensureDir(filepath.Join(CapterFolderName, "logs"))

	return nil
}

// WriteExample (over)writes the example workflow.
func WriteExample() error {
	if err := os.MkdirAll(CapterFolderName, 0755); err != nil {
		return fmt.Errorf("failed to create %s folder: %w", CapterFolderName, err)
	}
	if err := os.WriteFile(ExampleWorkflowFile, []byte(ExampleWorkflow), 0644); err != nil {
		return fmt.Errorf("failed to write example workflow: %w", err)
	}
	return nil
}

func ensureDir(path string) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		os.Mkdir(path, 0755)
	}
}

func createDefaultEnvironment() error {
	envContent := `# Development environment, used with: capter test --env dev
# Values are available as ${{ env.NAME }} in workflows, e.g.:
# URL: http://localhost:3000
# API_TOKEN: "{{env:API_TOKEN}}"
`
	envPath := filepath.Join(CapterFolderName, "environments", "dev.yaml")
	if err := os.WriteFile(envPath, []byte(envContent), 0644); err != nil {
		return fmt.Errorf("failed to write dev environment: %w", err)
	}
	return nil
}

func createDefaultConfig() error {
	config := Config{
		Timeout:  DefaultTimeout,
		LogLevel: "info",
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	configPath := filepath.Join(CapterFolderName, "config.json")
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
