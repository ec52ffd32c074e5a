package compile

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/blackcoderx/capter/pkg/core"
)

// MaskMarker replaces masked values in the masked track.
const MaskMarker = "****"

const maskKeyword = "mask"

var placeholderPattern = regexp.MustCompile(`\$\{\{(.*?)}}`)

// Track selects which of the two compiled results a walk produces.
type Track int

const (
	Raw Track = iota
	Masked
)

// Compiled is the result of compiling a string: the real value and the value
// safe to report.
type Compiled struct {
	Raw    string `json:"raw"`
	Masked string `json:"masked"`
}

// IsMasked reports whether compiling replaced anything with the mask marker.
func (c Compiled) IsMasked() bool {
	return c.Raw != c.Masked
}

// placeholder is one parsed `${{ ... }}` expression.
type placeholder struct {
	path   string
	masked bool
}

func parsePlaceholder(match string) (placeholder, error) {
	body := placeholderPattern.FindStringSubmatch(match)[1]
	parts := strings.Fields(body)

	switch len(parts) {
	case 0:
		return placeholder{}, nil
	case 1:
		return placeholder{path: parts[0]}, nil
	case 2:
		if parts[0] != maskKeyword {
			break
		}
		return placeholder{path: parts[1], masked: true}, nil
	}
	return placeholder{}, core.NewConfigError("template", fmt.Sprintf("invalid template: `%s`", match), core.ErrInvalidTemplate)
}

// HasPlaceholder reports whether text contains at least one placeholder.
func HasPlaceholder(text string) bool {
	return placeholderPattern.MatchString(text)
}

// Validate checks the placeholder syntax of text without resolving anything.
func Validate(text string) error {
	for _, match := range placeholderPattern.FindAllString(text, -1) {
		if _, err := parsePlaceholder(match); err != nil {
			return err
		}
	}
	return nil
}

// CompileString expands every placeholder in text against ctx.
//
// Missing or null values become the empty string, strings are inserted as is
// and anything else is rendered as compact JSON. Substituted values are never
// scanned for further placeholders.
func CompileString(text string, ctx any) (Compiled, error) {
	raw, err := compileTrack(text, ctx, Raw)
	if err != nil {
		return Compiled{}, err
	}
	masked, err := compileTrack(text, ctx, Masked)
	if err != nil {
		return Compiled{}, err
	}
	return Compiled{Raw: raw, Masked: masked}, nil
}

func compileTrack(text string, ctx any, track Track) (string, error) {
	var firstErr error
	out := placeholderPattern.ReplaceAllStringFunc(text, func(match string) string {
		p, err := parsePlaceholder(match)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			return match
		}
		value, found := Resolve(ctx, p.path)
		if !found || value == nil {
			return ""
		}
		if p.masked && track == Masked {
			return MaskMarker
		}
		return Stringify(value)
	})
	if firstErr != nil {
		return "", firstErr
	}
	return out, nil
}
