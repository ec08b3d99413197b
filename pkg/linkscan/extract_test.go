package linkscan

import (
	"testing"
)

func TestExtractMarkdownThenBareSameURL(t *testing.T) {
	ext := Extract("[l](https://u.example) https://u.example")

	occs := ext.Occurrences("https://u.example")
	if len(occs) != 2 {
		t.Fatalf("expected 2 occurrences, got %d", len(occs))
	}
	if len(ext.URLs()) != 1 {
		t.Fatalf("expected a single cache key, got %v", ext.URLs())
	}
	if occs[0].Range.Start.Col != 4 || occs[0].Range.End.Col != 21 {
		t.Fatalf("unexpected markdown span: %+v", occs[0].Range)
	}
	if occs[1].Range.Start.Col != 23 || occs[1].Range.End.Col != 40 {
		t.Fatalf("unexpected bare span: %+v", occs[1].Range)
	}
	if !occs[0].Range.Start.Before(occs[1].Range.Start) {
		t.Fatal("occurrences not in document order")
	}
}

func TestExtractStripsTrailingPunctuation(t *testing.T) {
	ext := Extract("see https://x.com/a).")

	urls := ext.URLs()
	if len(urls) != 1 || urls[0] != "https://x.com/a" {
		t.Fatalf("expected stripped URL, got %v", urls)
	}
	occ := ext.Occurrences("https://x.com/a")[0]
	if occ.Range.Start.Col != 4 || occ.Range.End.Col != 19 {
		t.Fatalf("span not shrunk with the stripped URL: %+v", occ.Range)
	}
}

func TestExtractMarkdownURLKeptAsWritten(t *testing.T) {
	ext := Extract("[doc](https://e.com/a.)")

	if len(ext.URLs()) != 1 || ext.URLs()[0] != "https://e.com/a." {
		t.Fatalf("markdown URL should not be punctuation-stripped: %v", ext.URLs())
	}
}

func TestExtractNoDoubleCountInsideMarkdown(t *testing.T) {
	ext := Extract("[see https://a.com docs](https://b.com)")

	if ext.Len() != 1 {
		t.Fatalf("expected 1 occurrence, got %d: %v", ext.Len(), ext.All())
	}
	if ext.URLs()[0] != "https://b.com" {
		t.Fatalf("expected inner URL only, got %v", ext.URLs())
	}
}

func TestExtractSameURLTwiceOnOneLine(t *testing.T) {
	ext := Extract("https://a.com https://a.com")

	if len(ext.URLs()) != 1 {
		t.Fatalf("expected one key, got %v", ext.URLs())
	}
	if got := len(ext.Occurrences("https://a.com")); got != 2 {
		t.Fatalf("expected 2 occurrences, got %d", got)
	}
}

func TestExtractVariantsAreDistinctKeys(t *testing.T) {
	ext := Extract("https://a.com https://a.com/ https://a.com?x=1")

	if len(ext.URLs()) != 3 {
		t.Fatalf("expected 3 distinct keys, got %v", ext.URLs())
	}
}

func TestExtractDocumentOrderAcrossLines(t *testing.T) {
	text := "intro\nhttps://first.example\n\nthen [x](https://second.example) and https://third.example\n"
	ext := Extract(text)

	want := []string{"https://first.example", "https://second.example", "https://third.example"}
	got := ext.URLs()
	if len(got) != len(want) {
		t.Fatalf("expected %d URLs, got %v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order mismatch at %d: got %q, want %q", i, got[i], want[i])
		}
	}
	all := ext.All()
	for i := 1; i < len(all); i++ {
		if !all[i-1].Range.Start.Before(all[i].Range.Start) {
			t.Fatalf("All() not in document order: %+v", all)
		}
	}
}

func TestExtractEmptyAndSchemeOnly(t *testing.T) {
	if !Extract("").Empty() {
		t.Fatal("empty text should yield no occurrences")
	}
	if !Extract("\n\n\n").Empty() {
		t.Fatal("blank lines should yield no occurrences")
	}
	if ext := Extract("broken https://)."); !ext.Empty() {
		t.Fatalf("scheme-only match should be discarded, got %v", ext.URLs())
	}
}

func TestExtractHandlesCRLF(t *testing.T) {
	ext := Extract("x https://a.com\r\nnext line")

	if len(ext.URLs()) != 1 || ext.URLs()[0] != "https://a.com" {
		t.Fatalf("carriage return leaked into URL: %v", ext.URLs())
	}
}

func TestOccurrenceAt(t *testing.T) {
	ext := Extract("see https://x.com/a here")

	occ, ok := ext.OccurrenceAt(Position{Line: 0, Col: 10})
	if !ok {
		t.Fatal("expected an occurrence at a position inside the URL")
	}
	if occ.URL != "https://x.com/a" {
		t.Fatalf("unexpected URL: %q", occ.URL)
	}
	if _, ok := ext.OccurrenceAt(Position{Line: 0, Col: 2}); ok {
		t.Fatal("expected no occurrence on plain text")
	}
	// End of the half-open range is outside it.
	if _, ok := ext.OccurrenceAt(occ.Range.End); ok {
		t.Fatal("range end should be exclusive")
	}
}

func TestRangeHelpers(t *testing.T) {
	a := Range{Start: Position{Line: 1, Col: 2}, End: Position{Line: 1, Col: 8}}
	b := Range{Start: Position{Line: 1, Col: 8}, End: Position{Line: 1, Col: 12}}
	if a.Intersects(b) {
		t.Fatal("touching half-open ranges must not intersect")
	}
	c := Range{Start: Position{Line: 1, Col: 7}, End: Position{Line: 2, Col: 0}}
	if !a.Intersects(c) {
		t.Fatal("overlapping ranges should intersect")
	}
	if !a.Contains(Position{Line: 1, Col: 2}) || a.Contains(Position{Line: 1, Col: 8}) {
		t.Fatal("Contains must honor half-open bounds")
	}
}
