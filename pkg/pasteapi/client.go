package pasteapi

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ClientConfig holds configuration for the paste store client.
type ClientConfig struct {
	// Endpoint is the upload target, e.g. http://localhost:29340/v1/paste.
	// Retrieval requests for bare IDs go to Endpoint/<id>.
	Endpoint     string        `yaml:"endpoint" json:"endpoint"`
	Timeout      time.Duration `yaml:"timeout" json:"timeout"`
	UserAgent    string        `yaml:"user_agent" json:"user_agent"`
	MaxBodyBytes int64         `yaml:"max_body_bytes" json:"max_body_bytes"`
}

// WithDefaults fills in zero fields with sensible defaults.
func (c ClientConfig) WithDefaults() ClientConfig {
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.UserAgent == "" {
		c.UserAgent = "draftpad-urlcontext/0.1"
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = 16 * 1024 * 1024
	}
	return c
}

// Paste is a blob fetched back from the store.
type Paste struct {
	ContentType string
	Content     []byte
}

// Client talks to the paste store over HTTP.
type Client struct {
	cfg  ClientConfig
	http *http.Client
}

// NewClient creates a paste store client.
func NewClient(cfg ClientConfig) *Client {
	cfg = cfg.WithDefaults()
	return &Client{
		cfg: cfg,
		http: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// Put uploads data under the given content type and returns the retrieval
// URL the store handed back.
func (c *Client) Put(ctx context.Context, contentType string, data []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(data))
	if err != nil {
		return "", &StoreUnavailableError{Endpoint: c.cfg.Endpoint, Err: err}
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", &StoreUnavailableError{Endpoint: c.cfg.Endpoint, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.cfg.MaxBodyBytes))
	if err != nil {
		return "", &StoreUnavailableError{Endpoint: c.cfg.Endpoint, Err: fmt.Errorf("reading response body: %w", err)}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &StoreUnavailableError{
			Endpoint: c.cfg.Endpoint,
			Err:      fmt.Errorf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(body))),
		}
	}

	retrievalURL := strings.TrimSpace(string(body))
	if parsed, err := url.Parse(retrievalURL); err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return "", &StoreUnavailableError{
			Endpoint: c.cfg.Endpoint,
			Err:      fmt.Errorf("invalid retrieval URL %q", retrievalURL),
		}
	}
	return retrievalURL, nil
}

// Get fetches a stored paste. target can be a bare ID or a full retrieval
// URL as returned by Put.
func (c *Client) Get(ctx context.Context, target string) (*Paste, error) {
	endpoint := target
	if !strings.HasPrefix(target, "http://") && !strings.HasPrefix(target, "https://") {
		endpoint = strings.TrimSuffix(c.cfg.Endpoint, "/") + "/" + target
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &StoreUnavailableError{Endpoint: endpoint, Err: err}
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &StoreUnavailableError{Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, target)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &StoreUnavailableError{
			Endpoint: endpoint,
			Err:      fmt.Errorf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(body))),
		}
	}

	content, err := io.ReadAll(io.LimitReader(resp.Body, c.cfg.MaxBodyBytes))
	if err != nil {
		return nil, &StoreUnavailableError{Endpoint: endpoint, Err: fmt.Errorf("reading response body: %w", err)}
	}
	return &Paste{
		ContentType: resp.Header.Get("Content-Type"),
		Content:     content,
	}, nil
}
