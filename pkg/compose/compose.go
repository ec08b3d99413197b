// Package compose turns dropped files, large pastes and bare URLs into
// markdown the document can hold: blobs go to the paste store and come back
// as links, URLs gain their page title as a label.
package compose

import (
	"context"
	"fmt"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"

	"github.com/draftpad/urlcontext/pkg/engine"
	"github.com/draftpad/urlcontext/pkg/linkscan"
	"github.com/draftpad/urlcontext/pkg/pasteapi"
)

// Config holds the compose tunables.
type Config struct {
	// UploadThreshold is the pasted-text size in bytes above which the text
	// is uploaded to the paste store and replaced by a link.
	UploadThreshold int `yaml:"upload_threshold" json:"upload_threshold"`
	// FetchTimeout bounds the page fetch behind Linkify.
	FetchTimeout time.Duration `yaml:"fetch_timeout" json:"fetch_timeout"`
	MaxPageBytes int64         `yaml:"max_page_bytes" json:"max_page_bytes"`
	// UserAgent is sent on Linkify page fetches. Defaults to a browser UA
	// since many sites answer bots with empty shells.
	UserAgent string `yaml:"user_agent" json:"user_agent"`
}

const browserUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// WithDefaults fills in zero fields with sensible defaults.
func (c Config) WithDefaults() Config {
	if c.UploadThreshold <= 0 {
		c.UploadThreshold = 8192
	}
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = 10 * time.Second
	}
	if c.MaxPageBytes <= 0 {
		c.MaxPageBytes = 10 * 1024 * 1024
	}
	if c.UserAgent == "" {
		c.UserAgent = browserUserAgent
	}
	return c
}

// Inserter writes attachment and paste results into documents.
type Inserter struct {
	store    *pasteapi.Client
	cfg      Config
	http     *http.Client
	reporter engine.StatusReporter
	log      zerolog.Logger
}

// NewInserter creates an Inserter backed by the given paste store client.
func NewInserter(store *pasteapi.Client, cfg Config, log zerolog.Logger) *Inserter {
	cfg = cfg.WithDefaults()
	return &Inserter{
		store:    store,
		cfg:      cfg,
		http:     &http.Client{Timeout: cfg.FetchTimeout},
		reporter: engine.NopReporter{},
		log:      log.With().Str("component", "compose").Logger(),
	}
}

// SetReporter routes user-facing messages to r. A nil r silences them.
func (i *Inserter) SetReporter(r engine.StatusReporter) {
	if r == nil {
		r = engine.NopReporter{}
	}
	i.reporter = r
}

// AttachFile uploads a dropped file and inserts a markdown link to it at the
// given position. When the upload fails and the payload is textual, the raw
// text is inserted instead so the content is not lost; the failure is
// reported once either way.
func (i *Inserter) AttachFile(ctx context.Context, doc engine.Document, at linkscan.Position, name, contentType string, data []byte) error {
	retrievalURL, err := i.store.Put(ctx, contentType, data)
	if err != nil {
		i.reporter.Error(fmt.Sprintf("Failed to upload %s: %v", name, err))
		i.log.Warn().Err(err).Str("name", name).Msg("Attachment upload failed")
		if !textual(data) {
			return err
		}
		if insertErr := insertAt(doc, at, string(data)); insertErr != nil {
			return fmt.Errorf("inserting raw attachment text: %w", insertErr)
		}
		return nil
	}

	if err := insertAt(doc, at, fmt.Sprintf("[%s](%s)", name, retrievalURL)); err != nil {
		return fmt.Errorf("inserting attachment link: %w", err)
	}
	i.log.Debug().
		Str("name", name).
		Str("url", retrievalURL).
		Int("size", len(data)).
		Msg("Attached file as link")
	return nil
}

// PasteText inserts pasted text at the given position. Text above the upload
// threshold goes to the paste store and is replaced by a link; on upload
// failure the text is inserted verbatim after reporting once.
func (i *Inserter) PasteText(ctx context.Context, doc engine.Document, at linkscan.Position, text string) error {
	if len(text) <= i.cfg.UploadThreshold {
		return insertAt(doc, at, text)
	}

	retrievalURL, err := i.store.Put(ctx, "text/plain; charset=utf-8", []byte(text))
	if err != nil {
		i.reporter.Error(fmt.Sprintf("Failed to upload pasted text: %v", err))
		i.log.Warn().Err(err).Int("size", len(text)).Msg("Paste upload failed")
		return insertAt(doc, at, text)
	}

	label := fmt.Sprintf("pasted text (%s)", humanize.IBytes(uint64(len(text))))
	if err := insertAt(doc, at, fmt.Sprintf("[%s](%s)", label, retrievalURL)); err != nil {
		return fmt.Errorf("inserting paste link: %w", err)
	}
	i.log.Debug().
		Str("url", retrievalURL).
		Int("size", len(text)).
		Msg("Uploaded large paste as link")
	return nil
}

func insertAt(doc engine.Document, at linkscan.Position, text string) error {
	return doc.ReplaceRange(linkscan.Range{Start: at, End: at}, text)
}

// textual reports whether data can be inserted into a text document as-is.
func textual(data []byte) bool {
	return len(data) > 0 && utf8.Valid(data)
}
