package report

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/blackcoderx/capter/pkg/compile"
	"github.com/blackcoderx/capter/pkg/storage"
	"github.com/blackcoderx/capter/pkg/workflow"
)

// LogDir is where failure logs are written, relative to the project.
var LogDir = filepath.Join(".capter", "logs")

// WriteFailureLogs writes one human readable log per failed workflow to dir,
// named after the workflow file, and returns the paths written. Existing logs
// of the same name are replaced. Failed workflows whose files share a base name
// are named after their whole path instead.
func WriteFailureLogs(dir string, results []*workflow.Result) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log folder: %w", err)
	}

	var failed []*workflow.Result
	for _, result := range results {
		if !result.Passed && !result.Skipped {
			failed = append(failed, result)
		}
	}

	bases := make(map[string]int, len(failed))
	for _, result := range failed {
		bases[filepath.Base(logSource(result))]++
	}

	var written []string
	for _, result := range failed {
		file := logSource(result)
		name := filepath.Base(file)
		if bases[name] > 1 {
			name = flattenPath(file)
		}
		path, err := storage.ValidatePathWithinDir(name+".log", dir)
		if err != nil {
			return written, err
		}
		if err := writeLog(path, file, result); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	return written, nil
}

func logSource(result *workflow.Result) string {
	if result.File != "" {
		return result.File
	}
	return result.Name
}

// flattenPath turns `checks/users.yml` into `checks_users.yml`.
func flattenPath(file string) string {
	clean := filepath.ToSlash(filepath.Clean(file))
	clean = strings.TrimPrefix(clean, filepath.ToSlash(filepath.VolumeName(file)))
	return strings.ReplaceAll(strings.TrimLeft(clean, "/"), "/", "_")
}

func writeLog(path, file string, result *workflow.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	fmt.Fprintf(w, "%s [%s]\n\n", result.Name, file)
	fmt.Fprint(w, "Steps:\n\n")

	for i := range result.Requests {
		request := &result.Requests[i]
		field(w, "  ", "Name", request.Name)
		field(w, "  ", "Passed", fmt.Sprint(request.Passed()))
		field(w, "  ", "Created at", request.CreatedAt.Format(time.RFC3339Nano))
		field(w, "  ", "URL", request.Method+" "+request.URL)
		field(w, "  ", "Query", compile.ToJSON(request.Query))
		field(w, "  ", "Headers", compile.ToJSON(request.Headers))
		field(w, "  ", "Body", compile.ToJSON(request.Body))

		if response := request.Response; response != nil {
			fmt.Fprint(w, "  Response:\n\n")
			field(w, "    ", "Status", compile.ToJSON(response.Status))
			field(w, "    ", "Status text", compile.ToJSON(response.StatusText))
			field(w, "    ", "Headers", compile.ToJSON(response.Headers))
			field(w, "    ", "Body", compile.ToJSON(response.Body))
		}

		fmt.Fprint(w, "  ---\n\n")
	}
	fmt.Fprint(w, "---\n\n")

	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to write log file: %w", err)
	}
	return nil
}

func field(w *bufio.Writer, indent, name, value string) {
	fmt.Fprintf(w, "%s%s:\n%s  %s\n\n", indent, name, indent, value)
}
