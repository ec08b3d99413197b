package engine

import (
	"fmt"
	"strings"

	"github.com/draftpad/urlcontext/pkg/contextapi"
	"github.com/draftpad/urlcontext/pkg/linkscan"
)

// Hint is a trailing inline label for one link occurrence.
type Hint struct {
	URL   string
	Range linkscan.Range
	Label string
}

// HintProvider computes inline hint labels over an engine's view.
type HintProvider struct {
	engine *Engine
}

// NewHintProvider registers a hint provider against e.
func NewHintProvider(e *Engine) *HintProvider {
	return &HintProvider{engine: e}
}

// InlineHints returns a label for every occurrence on lines startLine
// through endLine (inclusive) whose context is cached or being fetched.
// Occurrences the cache knows nothing about get no hint.
func (p *HintProvider) InlineHints(startLine, endLine int) []Hint {
	view := p.engine.Snapshot()
	var hints []Hint
	for _, occ := range view.Extraction().All() {
		if occ.Line < startLine || occ.Line > endLine {
			continue
		}
		label, ok := hintLabel(view, occ.URL)
		if !ok {
			continue
		}
		hints = append(hints, Hint{URL: occ.URL, Range: occ.Range, Label: label})
	}
	return hints
}

func hintLabel(view View, url string) (string, bool) {
	if entry, ok := view.Lookup(url); ok {
		if entry.Failed() {
			return "⚠ " + entry.Err.Error(), true
		}
		label := successLabel(entry.Context)
		return label, label != ""
	}
	if view.Pending(url) {
		return "loading", true
	}
	return "", false
}

// successLabel renders "<tokens> tokens • <type>" with absent parts omitted.
func successLabel(c *contextapi.Context) string {
	parts := make([]string, 0, 2)
	if c.Tokens > 0 {
		parts = append(parts, fmt.Sprintf("%d tokens", c.Tokens))
	}
	if c.Type != "" {
		parts = append(parts, c.Type)
	}
	return strings.Join(parts, " • ")
}
