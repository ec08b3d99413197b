package engine

import (
	"github.com/draftpad/urlcontext/pkg/linkscan"
)

// Style classes hosts map to their own rendering.
const (
	StyleResolved = "urlcontext-resolved"
	StyleError    = "urlcontext-error"
)

// Decoration marks one occurrence with a style class.
type Decoration struct {
	Range linkscan.Range
	Style string
}

// DecorationProvider computes whole-document link styling.
type DecorationProvider struct {
	engine *Engine
}

// NewDecorationProvider registers a decoration provider against e.
func NewDecorationProvider(e *Engine) *DecorationProvider {
	return &DecorationProvider{engine: e}
}

// Decorations returns one decoration per occurrence in document order.
// Occurrences whose entry is a failure get the error style; everything else,
// including pending and uncached links, gets the resolved style.
func (p *DecorationProvider) Decorations() []Decoration {
	view := p.engine.Snapshot()
	occs := view.Extraction().All()
	decos := make([]Decoration, 0, len(occs))
	for _, occ := range occs {
		style := StyleResolved
		if entry, ok := view.Lookup(occ.URL); ok && entry.Failed() {
			style = StyleError
		}
		decos = append(decos, Decoration{Range: occ.Range, Style: style})
	}
	return decos
}
