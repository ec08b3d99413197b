package contextapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ClientConfig holds configuration for the context service client.
type ClientConfig struct {
	BaseURL      string        `yaml:"base_url" json:"base_url"`
	Timeout      time.Duration `yaml:"timeout" json:"timeout"`
	UserAgent    string        `yaml:"user_agent" json:"user_agent"`
	MaxBodyBytes int64         `yaml:"max_body_bytes" json:"max_body_bytes"`
}

// WithDefaults fills in zero fields with sensible defaults.
func (c ClientConfig) WithDefaults() ClientConfig {
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
	if c.UserAgent == "" {
		c.UserAgent = "draftpad-urlcontext/0.1"
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = 10 * 1024 * 1024
	}
	return c
}

// Client talks to the context service over HTTP.
type Client struct {
	cfg  ClientConfig
	http *http.Client
}

// NewClient creates a context service client. baseURL points at the service
// root, e.g. http://localhost:29340.
func NewClient(cfg ClientConfig) *Client {
	cfg = cfg.WithDefaults()
	return &Client{
		cfg: cfg,
		http: &http.Client{
			Timeout: cfg.Timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 5 {
					return fmt.Errorf("too many redirects")
				}
				return nil
			},
		},
	}
}

// Fetch asks the context service to resolve metadata for target. Refusals
// from the service come back as *UnsupportedContentError, everything else
// that goes wrong as *TransportError.
func (c *Client) Fetch(ctx context.Context, target string) (*Context, error) {
	endpoint := strings.TrimSuffix(c.cfg.BaseURL, "/") + "/v1/context?url=" + url.QueryEscape(target)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &TransportError{URL: target, Err: err}
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &TransportError{URL: target, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.cfg.MaxBodyBytes))
	if err != nil {
		return nil, &TransportError{URL: target, Err: fmt.Errorf("reading response body: %w", err)}
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		var out Context
		if err := json.Unmarshal(body, &out); err != nil {
			return nil, &TransportError{URL: target, Err: fmt.Errorf("decoding response: %w", err)}
		}
		if out.URL == "" {
			out.URL = target
		}
		return &out, nil
	}

	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
		// 4xx means the service looked at the URL and said no. 5xx means the
		// service itself (or its upstream) failed and a retry could succeed.
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return nil, &UnsupportedContentError{URL: target, Message: errResp.Error}
		}
		return nil, &TransportError{URL: target, Err: errors.New(errResp.Error)}
	}
	return nil, &TransportError{URL: target, Err: fmt.Errorf("http %d: %s", resp.StatusCode, string(body))}
}
