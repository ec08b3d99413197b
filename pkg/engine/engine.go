package engine

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/draftpad/urlcontext/pkg/linkscan"
)

// Document is the host text surface the engine scans and mutates. The engine
// never caches text between scans; every pass re-reads Text().
type Document interface {
	Text() string
	ReplaceRange(r linkscan.Range, replacement string) error
}

// StatusReporter receives user-facing status lines from engine actions.
type StatusReporter interface {
	Status(msg string)
	Error(msg string)
}

// NopReporter discards all status messages.
type NopReporter struct{}

func (NopReporter) Status(string) {}
func (NopReporter) Error(string)  {}

// UpdateKind says why subscribers are being notified.
type UpdateKind string

const (
	// UpdateScan fires synchronously on every content change, after the
	// extraction snapshot has been replaced.
	UpdateScan UpdateKind = "scan"
	// UpdateContexts fires once per fetch batch, after every fetch in the
	// batch has settled.
	UpdateContexts UpdateKind = "contexts"
)

// Update is delivered to callbacks registered via Subscribe.
type Update struct {
	Engine  string
	Kind    UpdateKind
	Entries []*Entry // settled entries, UpdateContexts only
}

// Config holds the tunables of a single engine instance.
type Config struct {
	DebounceDelay        time.Duration `yaml:"debounce_delay" json:"debounce_delay"`
	MaxConcurrentFetches int           `yaml:"max_concurrent_fetches" json:"max_concurrent_fetches"`
}

// WithDefaults fills in zero fields with the package defaults.
func (c Config) WithDefaults() Config {
	if c.DebounceDelay <= 0 {
		c.DebounceDelay = DefaultDebounceDelay
	}
	if c.MaxConcurrentFetches <= 0 {
		c.MaxConcurrentFetches = DefaultMaxConcurrentFetches
	}
	return c
}

// Engine binds exactly one Document to a context cache and keeps them in
// sync as the document changes. Each instance is self-contained: cache,
// subscribers and providers all hang off the handle, so multiple engines
// coexist in one process without shared state.
type Engine struct {
	id    string
	doc   Document
	cache *Cache
	coord *Coordinator
	log   zerolog.Logger

	mu          sync.RWMutex
	reporter    StatusReporter
	extraction  *linkscan.Extraction
	subscribers map[int]func(Update)
	nextSubID   int
	closed      bool
}

// New creates an engine over doc, resolving context through fetcher. The
// current content is scanned and scheduled immediately.
func New(doc Document, fetcher Fetcher, cfg Config, log zerolog.Logger) *Engine {
	cfg = cfg.WithDefaults()
	id := uuid.NewString()
	log = log.With().Str("component", "urlcontext-engine").Str("engine_id", id).Logger()
	e := &Engine{
		id:          id,
		doc:         doc,
		reporter:    NopReporter{},
		log:         log,
		subscribers: make(map[int]func(Update)),
	}
	e.cache = NewCache(fetcher, log)
	e.coord = NewCoordinator(e.cache, cfg.DebounceDelay, cfg.MaxConcurrentFetches, e.notifySettled, log)
	e.HandleContentChanged()
	return e
}

// ID returns the engine instance ID.
func (e *Engine) ID() string {
	return e.id
}

// Cache returns the engine's context cache.
func (e *Engine) Cache() *Cache {
	return e.cache
}

// SetReporter routes user-facing status lines to r. Passing nil silences
// them again.
func (e *Engine) SetReporter(r StatusReporter) {
	if r == nil {
		r = NopReporter{}
	}
	e.mu.Lock()
	e.reporter = r
	e.mu.Unlock()
}

func (e *Engine) statusReporter() StatusReporter {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.reporter
}

// HandleContentChanged re-scans the document. The extraction snapshot is
// replaced synchronously so presentation sees new link positions at once;
// fetching is left to the debounced coordinator.
func (e *Engine) HandleContentChanged() {
	ext := linkscan.Extract(e.doc.Text())
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.extraction = ext
	e.mu.Unlock()

	e.notify(Update{Engine: e.id, Kind: UpdateScan})
	e.coord.Schedule(ext)
}

// Snapshot returns a read view for providers: the extraction snapshot from
// the last scan plus live cache lookups.
func (e *Engine) Snapshot() View {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return View{engine: e.id, ext: e.extraction, cache: e.cache}
}

// Subscribe registers fn for updates. The returned cancel function removes
// the subscription; Close drops all of them.
func (e *Engine) Subscribe(fn func(Update)) (cancel func()) {
	e.mu.Lock()
	id := e.nextSubID
	e.nextSubID++
	e.subscribers[id] = fn
	e.mu.Unlock()
	return func() {
		e.mu.Lock()
		delete(e.subscribers, id)
		e.mu.Unlock()
	}
}

// Flush forces the pending fetch batch to run now and waits for it to
// settle.
func (e *Engine) Flush() {
	e.coord.Flush()
}

// Close stops the coordinator and drops all subscribers. The cache stays
// readable so a late presentation pass doesn't race teardown.
func (e *Engine) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	e.subscribers = make(map[int]func(Update))
	e.mu.Unlock()
	e.coord.Close()
	e.log.Debug().Msg("Engine closed")
}

func (e *Engine) notifySettled(entries []*Entry) {
	e.notify(Update{Engine: e.id, Kind: UpdateContexts, Entries: entries})
}

func (e *Engine) notify(update Update) {
	e.mu.RLock()
	fns := make([]func(Update), 0, len(e.subscribers))
	for _, fn := range e.subscribers {
		fns = append(fns, fn)
	}
	e.mu.RUnlock()
	for _, fn := range fns {
		fn(update)
	}
}

// View is a provider-facing read surface: an immutable extraction snapshot
// plus live cache lookups. Views are cheap; take a fresh one per
// presentation pass.
type View struct {
	engine string
	ext    *linkscan.Extraction
	cache  *Cache
}

// Extraction returns the snapshot's extraction.
func (v View) Extraction() *linkscan.Extraction {
	return v.ext
}

// Lookup returns the cached entry for url, if any.
func (v View) Lookup(url string) (*Entry, bool) {
	return v.cache.Lookup(url)
}

// Pending reports whether url is being fetched right now.
func (v View) Pending(url string) bool {
	return v.cache.Pending(url)
}
