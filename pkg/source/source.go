// Package source describes where a run was started from: a developer's
// terminal or a CI pipeline, and for CI the commit and pull request involved.
package source

import (
	"os"
	"strings"

	"github.com/google/uuid"
)

// Kind is `cli` or `ci`.
type Kind string

const (
	CLI Kind = "cli"
	CI  Kind = "ci"
)

// RunSource is sent along with results to the webhook.
type RunSource struct {
	RunID      string         `json:"run_id"`
	Source     Kind           `json:"source"`
	SHA        string         `json:"sha,omitempty"`
	Repository string         `json:"repository,omitempty"`
	Branch     string         `json:"branch,omitempty"`
	CI         string         `json:"ci,omitempty"`
	Commit     *Commit        `json:"commit,omitempty"`
	PR         *PullRequest   `json:"pr,omitempty"`
	Meta       map[string]any `json:"meta,omitempty"`
}

// Commit is the commit a CI run was triggered for.
type Commit struct {
	SHA     string `json:"sha,omitempty"`
	Message string `json:"message,omitempty"`
}

// PullRequest is the pull request a CI run belongs to.
type PullRequest struct {
	ID     int    `json:"id,omitempty"`
	Number int    `json:"number,omitempty"`
	Title  string `json:"title,omitempty"`
	Head   *Ref   `json:"head,omitempty"`
	Base   *Ref   `json:"base,omitempty"`
}

// Ref is a git ref with the sha it pointed to.
type Ref struct {
	Ref string `json:"ref,omitempty"`
	SHA string `json:"sha,omitempty"`
}

// vendor is a CI service recognised by its environment.
type vendor struct {
	name      string
	detect    string
	branchEnv []string
	shaEnv    string
}

var vendors = []vendor{
	{name: "GitHub Actions", detect: "GITHUB_ACTIONS", branchEnv: []string{"GITHUB_HEAD_REF", "GITHUB_REF_NAME"}, shaEnv: "GITHUB_SHA"},
	{name: "GitLab CI", detect: "GITLAB_CI", branchEnv: []string{"CI_COMMIT_REF_NAME"}, shaEnv: "CI_COMMIT_SHA"},
	{name: "CircleCI", detect: "CIRCLECI", branchEnv: []string{"CIRCLE_BRANCH"}, shaEnv: "CIRCLE_SHA1"},
	{name: "Travis CI", detect: "TRAVIS", branchEnv: []string{"TRAVIS_BRANCH"}, shaEnv: "TRAVIS_COMMIT"},
	{name: "Buildkite", detect: "BUILDKITE", branchEnv: []string{"BUILDKITE_BRANCH"}, shaEnv: "BUILDKITE_COMMIT"},
	{name: "Bitbucket Pipelines", detect: "BITBUCKET_BUILD_NUMBER", branchEnv: []string{"BITBUCKET_BRANCH"}, shaEnv: "BITBUCKET_COMMIT"},
	{name: "Jenkins", detect: "JENKINS_URL", branchEnv: []string{"BRANCH_NAME", "GIT_BRANCH"}, shaEnv: "GIT_COMMIT"},
}

// Getenv looks up an environment variable.
type Getenv func(key string) string

// Detect builds the RunSource of the current process.
func Detect() *RunSource {
	return DetectFrom(os.Getenv)
}

// DetectFrom builds a RunSource from the given environment lookup.
func DetectFrom(getenv Getenv) *RunSource {
	source := &RunSource{RunID: uuid.NewString(), Source: CLI}

	v, ok := detectVendor(getenv)
	if !ok {
		if isTruthy(getenv("CI")) {
			source.Source = CI
		}
		return source
	}

	source.Source = CI
	source.CI = v.name
	source.SHA = getenv(v.shaEnv)
	for _, key := range v.branchEnv {
		if branch := getenv(key); branch != "" {
			source.Branch = branch
			break
		}
	}

	if v.detect == "GITHUB_ACTIONS" {
		source.fromGitHubActions(getenv)
	}
	return source
}

func detectVendor(getenv Getenv) (vendor, bool) {
	for _, v := range vendors {
		if getenv(v.detect) != "" {
			return v, true
		}
	}
	return vendor{}, false
}

func isTruthy(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes":
		return true
	default:
		return false
	}
}
