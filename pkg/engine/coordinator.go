package engine

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/draftpad/urlcontext/pkg/linkscan"
)

// DefaultDebounceDelay is how long the coordinator waits after the last
// content change before fetching newly seen URLs.
const DefaultDebounceDelay = 500 * time.Millisecond

// DefaultMaxConcurrentFetches bounds how many URLs one batch resolves at once.
const DefaultMaxConcurrentFetches = 4

// Coordinator turns a stream of extractions into debounced fetch batches.
// Scheduling within the debounce window resets the timer and replaces the
// pending extraction, so only the latest one is consulted when the timer
// fires. URLs that disappear from the document before the timer fires are
// never fetched; fetches already in flight are never cancelled.
type Coordinator struct {
	cache     *Cache
	delay     time.Duration
	maxFetch  int
	onSettled func([]*Entry)
	log       zerolog.Logger

	mu      sync.Mutex
	timer   *time.Timer
	latest  *linkscan.Extraction
	closed  bool
	batches sync.WaitGroup
}

// NewCoordinator creates a coordinator fetching into cache. onSettled may be
// nil; otherwise it is called once per batch, after every fetch in the batch
// has settled.
func NewCoordinator(cache *Cache, delay time.Duration, maxFetch int, onSettled func([]*Entry), log zerolog.Logger) *Coordinator {
	if delay <= 0 {
		delay = DefaultDebounceDelay
	}
	if maxFetch <= 0 {
		maxFetch = DefaultMaxConcurrentFetches
	}
	return &Coordinator{
		cache:     cache,
		delay:     delay,
		maxFetch:  maxFetch,
		onSettled: onSettled,
		log:       log.With().Str("component", "fetch-coordinator").Logger(),
	}
}

// Schedule records ext as the latest extraction and starts or resets the
// debounce timer.
func (c *Coordinator) Schedule(ext *linkscan.Extraction) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.latest = ext
	if c.timer != nil {
		c.timer.Reset(c.delay)
		c.log.Trace().Int("urls", len(ext.URLs())).Msg("Debounce timer reset")
	} else {
		c.timer = time.AfterFunc(c.delay, c.fire)
		c.log.Trace().Int("urls", len(ext.URLs())).Msg("Debounce timer started")
	}
}

// Flush fires the pending batch immediately, ignoring the debounce delay. It
// returns after the batch has settled and onSettled has run.
func (c *Coordinator) Flush() {
	c.fire()
}

func (c *Coordinator) fire() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	ext := c.latest
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.batches.Add(1)
	c.mu.Unlock()
	defer c.batches.Done()

	if ext == nil {
		return
	}
	var targets []string
	for _, url := range ext.URLs() {
		if _, cached := c.cache.Lookup(url); cached {
			continue
		}
		if c.cache.Pending(url) {
			continue
		}
		targets = append(targets, url)
	}
	if len(targets) == 0 {
		return
	}

	c.log.Debug().Int("count", len(targets)).Msg("Fetching context batch")
	entries := make([]*Entry, len(targets))
	var eg errgroup.Group
	eg.SetLimit(c.maxFetch)
	for i, url := range targets {
		eg.Go(func() error {
			// Batches outlive the edits that scheduled them, so fetches get a
			// fresh context rather than one a host could cancel.
			entries[i] = c.cache.Fetch(context.Background(), url)
			return nil
		})
	}
	_ = eg.Wait()

	if c.onSettled != nil {
		c.onSettled(entries)
	}
}

// Close stops the timer and waits for any running batch to settle. A
// scheduled but unfired extraction is dropped without fetching.
func (c *Coordinator) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.mu.Unlock()
	c.batches.Wait()
}
