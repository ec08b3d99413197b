// Package textdoc provides an in-memory text document for hosts that don't
// bring their own editor buffer (CLI, tests).
package textdoc

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/draftpad/urlcontext/pkg/linkscan"
)

// ErrOutOfBounds is returned when a position or range does not address the
// current document content.
var ErrOutOfBounds = errors.New("position outside document bounds")

// Buffer is a line-oriented mutable text document. All positions are
// zero-based with byte-offset columns, matching linkscan.
type Buffer struct {
	mu    sync.RWMutex
	lines []string
}

// New creates a buffer from the given text. Line endings are preserved as-is;
// the buffer splits on "\n" only.
func New(text string) *Buffer {
	return &Buffer{lines: strings.Split(text, "\n")}
}

// Text returns the full document content.
func (b *Buffer) Text() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return strings.Join(b.lines, "\n")
}

// LineCount returns the number of lines in the buffer.
func (b *Buffer) LineCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.lines)
}

// Line returns the content of line i without its terminator.
func (b *Buffer) Line(i int) (string, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if i < 0 || i >= len(b.lines) {
		return "", false
	}
	return b.lines[i], true
}

// ReplaceRange replaces the half-open range r with replacement. The
// replacement may contain newlines; the buffer is re-split accordingly.
func (b *Buffer) ReplaceRange(r linkscan.Range, replacement string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.checkPosition(r.Start); err != nil {
		return err
	}
	if err := b.checkPosition(r.End); err != nil {
		return err
	}
	if r.End.Before(r.Start) {
		return fmt.Errorf("%w: range end before start", ErrOutOfBounds)
	}

	prefix := b.lines[r.Start.Line][:r.Start.Col]
	suffix := b.lines[r.End.Line][r.End.Col:]
	merged := strings.Split(prefix+replacement+suffix, "\n")

	replaced := make([]string, 0, len(b.lines)-(r.End.Line-r.Start.Line+1)+len(merged))
	replaced = append(replaced, b.lines[:r.Start.Line]...)
	replaced = append(replaced, merged...)
	replaced = append(replaced, b.lines[r.End.Line+1:]...)
	b.lines = replaced
	return nil
}

// Insert inserts text at the given position without removing anything.
func (b *Buffer) Insert(at linkscan.Position, text string) error {
	return b.ReplaceRange(linkscan.Range{Start: at, End: at}, text)
}

// Append adds text at the end of the document.
func (b *Buffer) Append(text string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	last := len(b.lines) - 1
	merged := strings.Split(b.lines[last]+text, "\n")
	b.lines = append(b.lines[:last], merged...)
}

// End returns the position just past the last byte of the document.
func (b *Buffer) End() linkscan.Position {
	b.mu.RLock()
	defer b.mu.RUnlock()
	last := len(b.lines) - 1
	return linkscan.Position{Line: last, Col: len(b.lines[last])}
}

func (b *Buffer) checkPosition(p linkscan.Position) error {
	if p.Line < 0 || p.Line >= len(b.lines) {
		return fmt.Errorf("%w: line %d of %d", ErrOutOfBounds, p.Line, len(b.lines))
	}
	if p.Col < 0 || p.Col > len(b.lines[p.Line]) {
		return fmt.Errorf("%w: col %d on line %d (len %d)", ErrOutOfBounds, p.Col, p.Line, len(b.lines[p.Line]))
	}
	return nil
}
