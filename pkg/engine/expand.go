package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/draftpad/urlcontext/pkg/linkscan"
)

// ErrExpansionTargetMissing is returned when an expansion is requested for a
// target that has no usable cached content.
var ErrExpansionTargetMissing = errors.New("no context available to expand")

// Expand replaces rng, which must cover an occurrence of url from the latest
// scan, with the URL's cached content. An uncached URL is fetched first,
// joining any in-flight request for it. Failure entries and contexts without
// content leave the document untouched and return ErrExpansionTargetMissing.
func (e *Engine) Expand(ctx context.Context, url string, rng linkscan.Range) error {
	entry := e.cache.Fetch(ctx, url)
	if entry.Failed() {
		e.statusReporter().Error(fmt.Sprintf("Cannot expand %s: %v", url, entry.Err))
		return fmt.Errorf("%w: %s: %v", ErrExpansionTargetMissing, url, entry.Err)
	}
	if entry.Context.Content == "" {
		e.statusReporter().Error(fmt.Sprintf("Cannot expand %s: no textual content", url))
		return fmt.Errorf("%w: %s has no textual content", ErrExpansionTargetMissing, url)
	}
	if err := e.doc.ReplaceRange(rng, entry.Context.Content); err != nil {
		return fmt.Errorf("replacing link with content: %w", err)
	}
	e.log.Debug().Str("url", url).Int("tokens", entry.Context.Tokens).Msg("Expanded URL context into document")
	e.statusReporter().Status(fmt.Sprintf("Expanded %s (%d tokens)", url, entry.Context.Tokens))
	e.HandleContentChanged()
	return nil
}

// ExpandAt expands the occurrence covering pos, if any.
func (e *Engine) ExpandAt(ctx context.Context, pos linkscan.Position) error {
	occ, ok := e.Snapshot().Extraction().OccurrenceAt(pos)
	if !ok {
		return fmt.Errorf("%w: no link at %d:%d", ErrExpansionTargetMissing, pos.Line, pos.Col)
	}
	return e.Expand(ctx, occ.URL, occ.Range)
}
