package contextsvc

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"

	"github.com/draftpad/urlcontext/pkg/contextapi"
)

type resolveCacheEntry struct {
	ctx       *contextapi.Context
	expiresAt time.Time
}

// Resolver fetches URLs and turns responses into context metadata.
type Resolver struct {
	cfg   Config
	http  *http.Client
	cache *lru.Cache[string, resolveCacheEntry]
	log   zerolog.Logger
}

// NewResolver creates a resolver with the given config.
func NewResolver(cfg Config, log zerolog.Logger) (*Resolver, error) {
	cfg = cfg.WithDefaults()
	cache, err := lru.New[string, resolveCacheEntry](cfg.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating resolve cache: %w", err)
	}
	return &Resolver{
		cfg: cfg,
		http: &http.Client{
			Timeout: cfg.FetchTimeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= cfg.MaxRedirects {
					return fmt.Errorf("too many redirects")
				}
				return nil
			},
		},
		cache: cache,
		log:   log.With().Str("component", "context-resolver").Logger(),
	}, nil
}

// Resolve fetches target and derives its context metadata. Failures come
// back as *RespError carrying the HTTP status the service should answer
// with; only successful resolves are cached.
func (r *Resolver) Resolve(ctx context.Context, target string) (*contextapi.Context, error) {
	if cached, ok := r.cache.Get(target); ok {
		if time.Now().Before(cached.expiresAt) {
			return cached.ctx, nil
		}
		r.cache.Remove(target)
	}

	parsed, err := url.Parse(target)
	if err != nil {
		return nil, &RespError{Status: http.StatusBadRequest, Message: fmt.Sprintf("invalid URL: %v", err)}
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, &RespError{Status: http.StatusBadRequest, Message: "URL must use http or https"}
	}
	if !r.cfg.AllowPrivate && !isAllowedHost(parsed.Hostname()) {
		return nil, &RespError{Status: http.StatusBadRequest, Message: "URL host is not allowed"}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &RespError{Status: http.StatusBadRequest, Message: fmt.Sprintf("invalid URL: %v", err)}
	}
	req.Header.Set("User-Agent", r.cfg.UserAgent)
	req.Header.Set("Accept", "*/*")

	resp, err := r.http.Do(req)
	if err != nil {
		return nil, &RespError{Status: http.StatusBadGateway, Message: fmt.Sprintf("fetching %s: %v", target, err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &RespError{Status: http.StatusBadGateway, Message: fmt.Sprintf("upstream returned http %d", resp.StatusCode)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, r.cfg.MaxBodyBytes+1))
	if err != nil {
		return nil, &RespError{Status: http.StatusBadGateway, Message: fmt.Sprintf("reading %s: %v", target, err)}
	}
	if int64(len(body)) > r.cfg.MaxBodyBytes {
		return nil, &RespError{
			Status:  http.StatusRequestEntityTooLarge,
			Message: fmt.Sprintf("content exceeds the %s limit", humanize.IBytes(uint64(r.cfg.MaxBodyBytes))),
		}
	}

	contentType := normalizeContentType(resp.Header.Get("Content-Type"))
	if strings.Contains(contentType, "text/html") || strings.Contains(contentType, "application/xhtml") {
		return nil, ErrHTMLNotSupported
	}

	resolved := &contextapi.Context{
		URL:         target,
		Title:       deriveTitle(parsed),
		Type:        deriveType(contentType),
		Tokens:      r.countTokens(body),
		Description: fmt.Sprintf("%s • %s", humanize.IBytes(uint64(len(body))), contentType),
	}
	if utf8.Valid(body) {
		resolved.Content = string(body)
	}

	r.cache.Add(target, resolveCacheEntry{ctx: resolved, expiresAt: time.Now().Add(r.cfg.CacheTTL)})
	r.log.Debug().Str("url", target).Str("type", resolved.Type).Int("tokens", resolved.Tokens).Msg("Resolved context")
	return resolved, nil
}

// normalizeContentType strips parameters like charset and lowercases the
// media type.
func normalizeContentType(value string) string {
	if value == "" {
		return "application/octet-stream"
	}
	parts := strings.Split(value, ";")
	return strings.ToLower(strings.TrimSpace(parts[0]))
}

// deriveType maps a media type onto the coarse context type vocabulary:
// "json", "text", the subtype, or "binary".
func deriveType(contentType string) string {
	if contentType == "application/json" || strings.HasSuffix(contentType, "+json") {
		return "json"
	}
	if strings.HasPrefix(contentType, "text/") {
		return "text"
	}
	if slash := strings.Index(contentType, "/"); slash >= 0 {
		sub := contentType[slash+1:]
		if sub != "" && sub != "octet-stream" {
			return sub
		}
	}
	return "binary"
}

// deriveTitle uses the last path segment of the URL, falling back to the
// host for bare roots.
func deriveTitle(parsed *url.URL) string {
	base := path.Base(parsed.Path)
	if base != "" && base != "." && base != "/" {
		return base
	}
	return parsed.Host
}

var blockedCIDRs = []*net.IPNet{
	mustParseCIDR("127.0.0.0/8"),
	mustParseCIDR("10.0.0.0/8"),
	mustParseCIDR("172.16.0.0/12"),
	mustParseCIDR("192.168.0.0/16"),
	mustParseCIDR("169.254.0.0/16"),
	mustParseCIDR("::1/128"),
}

func mustParseCIDR(value string) *net.IPNet {
	_, parsed, err := net.ParseCIDR(value)
	if err != nil {
		panic(fmt.Sprintf("invalid CIDR %q: %v", value, err))
	}
	return parsed
}

func isAllowedHost(host string) bool {
	host = strings.ToLower(host)
	if host == "localhost" {
		return false
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return true
	}
	if ip4 := ip.To4(); ip4 != nil {
		ip = ip4
	}
	for _, cidr := range blockedCIDRs {
		if cidr.Contains(ip) {
			return false
		}
	}
	return true
}
