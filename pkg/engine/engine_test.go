package engine

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/draftpad/urlcontext/pkg/contextapi"
	"github.com/draftpad/urlcontext/pkg/linkscan"
	"github.com/draftpad/urlcontext/pkg/textdoc"
)

type statusRecorder struct {
	mu       sync.Mutex
	statuses []string
	errors   []string
}

func (r *statusRecorder) Status(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses = append(r.statuses, msg)
}

func (r *statusRecorder) Error(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors = append(r.errors, msg)
}

func (r *statusRecorder) lastError() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.errors) == 0 {
		return ""
	}
	return r.errors[len(r.errors)-1]
}

// newContextServer serves the context service wire contract: JSON metadata
// for *.json URLs, a 415 refusal for *.html, 502 for everything else.
func newContextServer(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	hits := new(atomic.Int32)
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/context", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		target := r.URL.Query().Get("url")
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(target, ".json"):
			json.NewEncoder(w).Encode(contextapi.Context{
				Title:       "data.json",
				Type:        "json",
				Tokens:      2,
				Description: "8 B",
				Content:     `{"a":1}`,
			})
		case strings.HasSuffix(target, ".html"):
			w.WriteHeader(http.StatusUnsupportedMediaType)
			json.NewEncoder(w).Encode(contextapi.ErrorResponse{Error: "HTML pages are not supported as context"})
		default:
			w.WriteHeader(http.StatusBadGateway)
			json.NewEncoder(w).Encode(contextapi.ErrorResponse{Error: "upstream unreachable"})
		}
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, hits
}

func TestEngineScenario(t *testing.T) {
	srv, hits := newContextServer(t)
	client := contextapi.NewClient(contextapi.ClientConfig{BaseURL: srv.URL})
	doc := textdoc.New("Meeting notes, see https://files.test/data.json for numbers")
	eng := New(doc, client, Config{DebounceDelay: time.Hour}, zerolog.Nop())
	defer eng.Close()

	var mu sync.Mutex
	var batches [][]*Entry
	cancel := eng.Subscribe(func(u Update) {
		if u.Kind == UpdateContexts {
			mu.Lock()
			batches = append(batches, u.Entries)
			mu.Unlock()
		}
	})
	defer cancel()

	eng.Flush()

	mu.Lock()
	if len(batches) != 1 || len(batches[0]) != 1 {
		mu.Unlock()
		t.Fatalf("expected one settled batch with one entry, got %d batches", len(batches))
	}
	mu.Unlock()

	hints := NewHintProvider(eng).InlineHints(0, 0)
	if len(hints) != 1 || hints[0].Label != "2 tokens • json" {
		t.Fatalf("unexpected hints: %+v", hints)
	}

	occ := eng.Snapshot().Extraction().Occurrences("https://files.test/data.json")[0]
	card := NewHoverProvider(eng).Hover(occ.Range.Start)
	if card == nil || card.Title != "data.json" || !card.CanExpand {
		t.Fatalf("unexpected hover card: %+v", card)
	}

	// A failing URL joins the document.
	doc.Append("\nand https://files.test/page.html")
	eng.HandleContentChanged()
	eng.Flush()

	hints = NewHintProvider(eng).InlineHints(0, 10)
	if len(hints) != 2 {
		t.Fatalf("expected hints for both links, got %+v", hints)
	}
	if hints[1].Label != "⚠ HTML pages are not supported as context" {
		t.Fatalf("unexpected failure hint: %q", hints[1].Label)
	}

	decos := NewDecorationProvider(eng).Decorations()
	if len(decos) != 2 || decos[0].Style != StyleResolved || decos[1].Style != StyleError {
		t.Fatalf("unexpected decorations: %+v", decos)
	}

	// Edits without new URLs cause no new fetches.
	before := hits.Load()
	doc.Append("\nplain text edit")
	eng.HandleContentChanged()
	eng.Flush()
	if hits.Load() != before {
		t.Fatal("edit without new URLs must not refetch")
	}

	// Expand the resolved link in place.
	occ = eng.Snapshot().Extraction().Occurrences("https://files.test/data.json")[0]
	if err := eng.Expand(context.Background(), occ.URL, occ.Range); err != nil {
		t.Fatalf("Expand failed: %v", err)
	}
	text := doc.Text()
	if !strings.Contains(text, `see {"a":1} for numbers`) {
		t.Fatalf("content not spliced in: %q", text)
	}
	if strings.Contains(text, "https://files.test/data.json") {
		t.Fatalf("expanded URL still present: %q", text)
	}

	// Expanding the failed link leaves the document untouched.
	occ = eng.Snapshot().Extraction().Occurrences("https://files.test/page.html")[0]
	textBefore := doc.Text()
	err := eng.Expand(context.Background(), occ.URL, occ.Range)
	if !errors.Is(err, ErrExpansionTargetMissing) {
		t.Fatalf("expected ErrExpansionTargetMissing, got %v", err)
	}
	if doc.Text() != textBefore {
		t.Fatal("failed expansion must not mutate the document")
	}

	// One upstream hit per distinct URL across the whole scenario.
	if got := hits.Load(); got != 2 {
		t.Fatalf("expected 2 upstream fetches total, got %d", got)
	}
}

func TestEngineSubscribeCancel(t *testing.T) {
	eng := newIdleEngine(t, newCountingFetcher(), "no links")

	updates := 0
	cancel := eng.Subscribe(func(u Update) {
		if u.Engine != eng.ID() {
			t.Errorf("update carries wrong engine ID %q", u.Engine)
		}
		updates++
	})

	eng.HandleContentChanged()
	if updates != 1 {
		t.Fatalf("expected 1 scan update, got %d", updates)
	}
	cancel()
	eng.HandleContentChanged()
	if updates != 1 {
		t.Fatalf("cancelled subscriber still notified, got %d updates", updates)
	}
}

func TestEngineCloseStopsWork(t *testing.T) {
	fetcher := newCountingFetcher()
	doc := textdoc.New("see https://a.test/x")
	eng := New(doc, fetcher, Config{DebounceDelay: time.Hour}, zerolog.Nop())

	eng.Close()
	eng.Close() // idempotent

	eng.HandleContentChanged()
	eng.Flush()
	if fetcher.total() != 0 {
		t.Fatalf("closed engine fetched %d times", fetcher.total())
	}
}

func TestExpandAt(t *testing.T) {
	fetcher := newCountingFetcher()
	doc := textdoc.New("x https://a.test/ok y")
	eng := New(doc, fetcher, Config{DebounceDelay: time.Hour}, zerolog.Nop())
	defer eng.Close()

	err := eng.ExpandAt(context.Background(), linkscan.Position{Line: 0, Col: 5})
	if err != nil {
		t.Fatalf("ExpandAt failed: %v", err)
	}
	if got := doc.Text(); got != "x body y" {
		t.Fatalf("unexpected text after expansion: %q", got)
	}

	err = eng.ExpandAt(context.Background(), linkscan.Position{Line: 0, Col: 0})
	if !errors.Is(err, ErrExpansionTargetMissing) {
		t.Fatalf("expected ErrExpansionTargetMissing off-link, got %v", err)
	}
}

func TestExpandReportsFailures(t *testing.T) {
	fetcher := newCountingFetcher()
	fetcher.setFail("https://a.test/down", errors.New("connection refused"))
	doc := textdoc.New("see https://a.test/down")
	eng := New(doc, fetcher, Config{DebounceDelay: time.Hour}, zerolog.Nop())
	defer eng.Close()

	rec := &statusRecorder{}
	eng.SetReporter(rec)

	occ := eng.Snapshot().Extraction().Occurrences("https://a.test/down")[0]
	err := eng.Expand(context.Background(), occ.URL, occ.Range)
	if !errors.Is(err, ErrExpansionTargetMissing) {
		t.Fatalf("expected ErrExpansionTargetMissing, got %v", err)
	}
	if got := rec.lastError(); !strings.Contains(got, "Cannot expand https://a.test/down") {
		t.Fatalf("unexpected status line: %q", got)
	}
}
