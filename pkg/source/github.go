package source

import (
	"encoding/json"
	"os"
)

// githubEvent is the part of $GITHUB_EVENT_PATH we read.
type githubEvent struct {
	Ref         string              `json:"ref"`
	PullRequest *githubPullRequest  `json:"pull_request"`
	HeadCommit  *githubCommitRecord `json:"head_commit"`
}

type githubPullRequest struct {
	ID     int        `json:"id"`
	Number int        `json:"number"`
	Title  string     `json:"title"`
	Head   *githubRef `json:"head"`
	Base   *githubRef `json:"base"`
}

type githubRef struct {
	Ref string `json:"ref"`
	SHA string `json:"sha"`
}

type githubCommitRecord struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

var githubMetaKeys = []string{
	"GITHUB_HEAD_REF",
	"GITHUB_BASE_REF",
	"GITHUB_WORKFLOW",
	"GITHUB_RUN_ID",
	"GITHUB_ACTOR",
}

// fromGitHubActions fills in what the GitHub Actions environment and event
// payload say about the run. The event payload wins over the environment.
func (s *RunSource) fromGitHubActions(getenv Getenv) {
	s.SHA = getenv("GITHUB_SHA")
	s.Repository = getenv("GITHUB_REPOSITORY")

	s.Meta = make(map[string]any, len(githubMetaKeys))
	for _, key := range githubMetaKeys {
		s.Meta[key] = getenv(key)
	}

	event, ok := readGitHubEvent(getenv("GITHUB_EVENT_PATH"))
	if !ok {
		return
	}
	s.applyGitHubEvent(event)
}

func (s *RunSource) applyGitHubEvent(event *githubEvent) {
	if commit := event.HeadCommit; commit != nil {
		s.SHA = commit.ID
		s.Branch = event.Ref
		s.Commit = &Commit{SHA: commit.ID, Message: commit.Message}
	}

	if pr := event.PullRequest; pr != nil {
		s.PR = &PullRequest{
			ID:     pr.ID,
			Number: pr.Number,
			Title:  pr.Title,
			Head:   (*Ref)(pr.Head),
			Base:   (*Ref)(pr.Base),
		}
		if pr.Head != nil {
			s.SHA = pr.Head.SHA
			s.Branch = pr.Head.Ref
		}
	}
}

func readGitHubEvent(path string) (*githubEvent, bool) {
	if path == "" {
		return nil, false
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	var event githubEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, false
	}
	return &event, true
}
