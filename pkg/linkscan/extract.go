// Package linkscan finds URL occurrences and their positions in plain text.
//
// Scanning is a pure function of the input text: no I/O, no state. Markdown
// links `[label](url)` are recognized before bare URLs so that a URL written
// inside link syntax is not counted twice.
package linkscan

import (
	"regexp"
	"sort"
	"strings"
)

// Markdown link matcher; the capture group is the inner URL.
var markdownLinkRegex = regexp.MustCompile(`\[[^\]]*]\((https?://[^\s)]+)\)`)

// Bare URL matcher - matches http/https URLs up to the next whitespace.
var bareURLRegex = regexp.MustCompile(`https?://\S+`)

// Characters commonly stuck to the end of a URL by surrounding prose.
const trailingPunctuation = `)]},.;:!?'"`

// Occurrence is one concrete appearance of a URL at a specific text position.
// Ranges never span lines; scanning is line by line.
type Occurrence struct {
	URL   string `json:"url"`
	Range Range  `json:"range"`
	Line  int    `json:"line"`
}

// Extraction is the result of scanning a buffer: every URL occurrence in
// document order, grouped per URL. It is built once and never mutated, so a
// reference can be shared across readers; callers must not modify the
// returned slices.
type Extraction struct {
	order []string
	byURL map[string][]Occurrence
	all   []Occurrence
}

// URLs returns the distinct URLs in first-seen document order.
func (e *Extraction) URLs() []string {
	if e == nil {
		return nil
	}
	return e.order
}

// Occurrences returns all occurrences of the given URL in document order.
func (e *Extraction) Occurrences(url string) []Occurrence {
	if e == nil {
		return nil
	}
	return e.byURL[url]
}

// All returns every occurrence in document order.
func (e *Extraction) All() []Occurrence {
	if e == nil {
		return nil
	}
	return e.all
}

// Len returns the total number of occurrences.
func (e *Extraction) Len() int {
	if e == nil {
		return 0
	}
	return len(e.all)
}

// Empty reports whether the scan found no URLs at all.
func (e *Extraction) Empty() bool {
	return e.Len() == 0
}

// OccurrenceAt returns the occurrence whose range contains pos, if any.
func (e *Extraction) OccurrenceAt(pos Position) (Occurrence, bool) {
	if e == nil {
		return Occurrence{}, false
	}
	for _, occ := range e.all {
		if occ.Range.Contains(pos) {
			return occ, true
		}
	}
	return Occurrence{}, false
}

func (e *Extraction) add(occ Occurrence) {
	if _, seen := e.byURL[occ.URL]; !seen {
		e.order = append(e.order, occ.URL)
	}
	e.byURL[occ.URL] = append(e.byURL[occ.URL], occ)
	e.all = append(e.all, occ)
}

// span is a half-open byte interval within a single line.
type span struct {
	start, end int
}

func (s span) overlaps(other span) bool {
	return s.start < other.end && other.start < s.end
}

// Extract scans text and returns every URL occurrence with its position.
// URLs are recorded exactly as written: no normalization, so variants that
// differ only by a trailing slash or query string are distinct keys. The same
// URL appearing more than once yields one key with multiple occurrences.
func Extract(text string) *Extraction {
	result := &Extraction{byURL: make(map[string][]Occurrence)}
	for lineIndex, line := range strings.Split(text, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if line == "" {
			continue
		}
		scanLine(result, lineIndex, line)
	}
	return result
}

func scanLine(result *Extraction, lineIndex int, line string) {
	var occs []Occurrence
	var zones []span

	// Markdown links first. The full match (label and parens included) is an
	// exclusion zone; the registered occurrence covers the inner URL only,
	// kept exactly as written.
	for _, m := range markdownLinkRegex.FindAllStringSubmatchIndex(line, -1) {
		zones = append(zones, span{m[0], m[1]})
		occs = append(occs, Occurrence{
			URL:   line[m[2]:m[3]],
			Range: lineRange(lineIndex, m[2], m[3]),
			Line:  lineIndex,
		})
	}

	// Bare URLs, skipping anything already claimed by markdown syntax.
	for _, m := range bareURLRegex.FindAllStringIndex(line, -1) {
		match := span{m[0], m[1]}
		if overlapsAny(match, zones) {
			continue
		}
		raw := line[match.start:match.end]
		trimmed := strings.TrimRight(raw, trailingPunctuation)
		if !hasHost(trimmed) {
			continue
		}
		occs = append(occs, Occurrence{
			URL:   trimmed,
			Range: lineRange(lineIndex, match.start, match.start+len(trimmed)),
			Line:  lineIndex,
		})
	}

	// Left-to-right order within the line; spans never overlap.
	sort.Slice(occs, func(i, j int) bool {
		return occs[i].Range.Start.Col < occs[j].Range.Start.Col
	})
	for _, occ := range occs {
		result.add(occ)
	}
}

func overlapsAny(s span, zones []span) bool {
	for _, zone := range zones {
		if s.overlaps(zone) {
			return true
		}
	}
	return false
}

// hasHost reports whether anything remains after the scheme separator, so
// that a stripped-down match like "https://" is not treated as a URL.
func hasHost(url string) bool {
	idx := strings.Index(url, "://")
	return idx >= 0 && idx+3 < len(url)
}

func lineRange(line, startCol, endCol int) Range {
	return Range{
		Start: Position{Line: line, Col: startCol},
		End:   Position{Line: line, Col: endCol},
	}
}
