// Package engine keeps a document's URL links and their fetched context in
// sync: it caches context per URL, deduplicates concurrent fetches, batches
// new fetches behind a debounce timer, and exposes read-only providers for
// presentation plus an inline expansion action.
package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/draftpad/urlcontext/pkg/contextapi"
)

// Fetcher resolves context metadata for a URL. contextapi.Client implements
// this against the context service.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*contextapi.Context, error)
}

// FetcherFunc adapts a plain function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, url string) (*contextapi.Context, error)

func (f FetcherFunc) Fetch(ctx context.Context, url string) (*contextapi.Context, error) {
	return f(ctx, url)
}

// Entry is the settled outcome of fetching one URL: Context on success, Err
// on failure. Entries are immutable once stored. Failures stay cached just
// like successes; only Invalidate clears them.
type Entry struct {
	URL       string
	Context   *contextapi.Context
	Err       error
	FetchedAt time.Time
}

// Failed reports whether the fetch behind this entry failed.
func (e *Entry) Failed() bool {
	return e.Err != nil
}

type inflight struct {
	done  chan struct{}
	entry *Entry
}

// Cache stores one Entry per exact URL string. URLs are never normalized:
// trailing-slash and query variants are distinct keys.
type Cache struct {
	fetcher Fetcher
	log     zerolog.Logger

	mu      sync.RWMutex
	entries map[string]*Entry
	pending map[string]*inflight
}

// NewCache creates a cache that resolves misses through fetcher.
func NewCache(fetcher Fetcher, log zerolog.Logger) *Cache {
	return &Cache{
		fetcher: fetcher,
		log:     log.With().Str("component", "context-cache").Logger(),
		entries: make(map[string]*Entry),
		pending: make(map[string]*inflight),
	}
}

// Lookup returns the cached entry for url, if any. It never performs I/O.
func (c *Cache) Lookup(url string) (*Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[url]
	return entry, ok
}

// Pending reports whether a fetch for url is currently in flight.
func (c *Cache) Pending(url string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.pending[url]
	return ok
}

// Len returns the number of settled entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Fetch returns the entry for url, performing at most one upstream call no
// matter how many goroutines ask at once. A settled entry is returned without
// I/O. Callers hitting an in-flight fetch block until it settles and receive
// the same entry as the caller that started it.
func (c *Cache) Fetch(ctx context.Context, url string) *Entry {
	c.mu.Lock()
	if entry, ok := c.entries[url]; ok {
		c.mu.Unlock()
		return entry
	}
	if fl, ok := c.pending[url]; ok {
		c.mu.Unlock()
		<-fl.done
		return fl.entry
	}
	fl := &inflight{done: make(chan struct{})}
	c.pending[url] = fl
	c.mu.Unlock()

	fetched, err := c.fetcher.Fetch(ctx, url)
	if err == nil && fetched == nil {
		err = errors.New("fetcher returned no context")
	}
	entry := &Entry{URL: url, Context: fetched, Err: err, FetchedAt: time.Now()}
	if err != nil {
		entry.Context = nil
	}

	c.mu.Lock()
	c.entries[url] = entry
	delete(c.pending, url)
	c.mu.Unlock()
	// Publish before waking the joiners.
	fl.entry = entry
	close(fl.done)

	if err != nil {
		c.log.Debug().Err(err).Str("url", url).Msg("Context fetch failed, caching failure")
	} else {
		c.log.Debug().Str("url", url).Str("type", entry.Context.Type).Int("tokens", entry.Context.Tokens).Msg("Cached context")
	}
	return entry
}

// Invalidate drops the settled entry for url so the next fetch hits the
// service again. In-flight fetches are unaffected. The engine never calls
// this itself; it exists as a manual recovery path for hosts.
func (c *Cache) Invalidate(url string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, url)
}
