// Package contextsvc implements the context service: it fetches a URL,
// derives title/type/token metadata from the response, and refuses content
// that cannot serve as context.
package contextsvc

import (
	"time"
)

// Config holds the context service tunables.
type Config struct {
	FetchTimeout time.Duration `yaml:"fetch_timeout" json:"fetch_timeout"`
	UserAgent    string        `yaml:"user_agent" json:"user_agent"`
	MaxBodyBytes int64         `yaml:"max_body_bytes" json:"max_body_bytes"`
	MaxRedirects int           `yaml:"max_redirects" json:"max_redirects"`
	// AllowPrivate permits fetching loopback and RFC1918 hosts. Off by
	// default; tests and single-user local setups turn it on.
	AllowPrivate bool `yaml:"allow_private" json:"allow_private"`
	// TokenEncoding selects exact token counting with the named tiktoken
	// encoding (e.g. "cl100k_base"). Empty keeps the byte-length estimate.
	TokenEncoding string `yaml:"token_encoding" json:"token_encoding"`
	// CacheSize and CacheTTL bound the resolve cache. Successful resolves
	// are served from memory until they expire or get evicted.
	CacheSize int           `yaml:"cache_size" json:"cache_size"`
	CacheTTL  time.Duration `yaml:"cache_ttl" json:"cache_ttl"`
}

// WithDefaults fills in zero fields with sensible defaults.
func (c Config) WithDefaults() Config {
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = 10 * time.Second
	}
	if c.UserAgent == "" {
		c.UserAgent = "draftpad-urlcontext/0.1"
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = 10 * 1024 * 1024
	}
	if c.MaxRedirects <= 0 {
		c.MaxRedirects = 5
	}
	if c.CacheSize <= 0 {
		c.CacheSize = 512
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = 1 * time.Hour
	}
	return c
}
