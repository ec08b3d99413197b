package engine

import (
	"fmt"
	"strings"

	"github.com/draftpad/urlcontext/pkg/linkscan"
)

// HoverCard is what a host renders when the cursor rests on a link.
type HoverCard struct {
	URL         string
	Range       linkscan.Range
	Loading     bool
	Title       string
	Type        string
	Tokens      int
	Description string
	Error       string
	CanExpand   bool
}

// Render formats the card as plain text for hosts without a rich hover UI.
func (c *HoverCard) Render() string {
	if c == nil {
		return ""
	}
	if c.Loading {
		return "Loading context for " + c.URL + "..."
	}
	if c.Error != "" {
		return "⚠ " + c.Error
	}
	var sb strings.Builder
	sb.WriteString(c.Title)
	if c.Type != "" {
		sb.WriteString(" — ")
		sb.WriteString(c.Type)
	}
	fmt.Fprintf(&sb, ", %d tokens", c.Tokens)
	if c.Description != "" {
		sb.WriteString("\n")
		sb.WriteString(c.Description)
	}
	if c.CanExpand {
		sb.WriteString("\nExpand inline available")
	}
	return sb.String()
}

// HoverProvider renders hover cards from an engine's view. It is a pure
// reader: it never fetches and never mutates cache or document.
type HoverProvider struct {
	engine *Engine
}

// NewHoverProvider registers a hover provider against e.
func NewHoverProvider(e *Engine) *HoverProvider {
	return &HoverProvider{engine: e}
}

// Hover returns the card for the link under pos. It returns nil when pos is
// not on a link, or when nothing is known about the link yet (not cached,
// not being fetched).
func (p *HoverProvider) Hover(pos linkscan.Position) *HoverCard {
	view := p.engine.Snapshot()
	occ, ok := view.Extraction().OccurrenceAt(pos)
	if !ok {
		return nil
	}
	card := &HoverCard{URL: occ.URL, Range: occ.Range}
	if entry, cached := view.Lookup(occ.URL); cached {
		if entry.Failed() {
			card.Error = entry.Err.Error()
			return card
		}
		card.Title = entry.Context.Title
		card.Type = entry.Context.Type
		card.Tokens = entry.Context.Tokens
		card.Description = entry.Context.Description
		card.CanExpand = entry.Context.Content != ""
		return card
	}
	if view.Pending(occ.URL) {
		card.Loading = true
		return card
	}
	return nil
}
