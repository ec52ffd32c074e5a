package tui

import (
	"bytes"
	"encoding/json"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
)

// bodyWrap is the column response bodies are wrapped at in the debug dump.
const bodyWrap = 100

var bodyRenderer = sync.OnceValues(func() (*glamour.TermRenderer, error) {
	return glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(bodyWrap),
	)
})

// HighlightJSON renders a response body for the debug dump. JSON is indented
// from its source text, so numbers print exactly as received, then colored as
// a fenced block. Anything else, or a renderer failure, comes back untouched.
func HighlightJSON(body string) string {
	indented, ok := indentJSON(body)
	if !ok {
		return body
	}

	renderer, err := bodyRenderer()
	if err != nil {
		return indented
	}
	out, err := renderer.Render("```json\n" + indented + "\n```")
	if err != nil {
		return indented
	}
	return strings.TrimSpace(out)
}

func indentJSON(body string) (string, bool) {
	if !json.Valid([]byte(body)) {
		return "", false
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, []byte(body), "", "  "); err != nil {
		return "", false
	}
	return buf.String(), true
}
