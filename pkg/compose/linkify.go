package compose

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/dyatlov/go-opengraph/opengraph"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// Linkify turns a bare URL into a markdown link labeled with the page title:
// OpenGraph title first, then the document title or first heading. Any
// failure along the way returns the URL unchanged.
func (i *Inserter) Linkify(ctx context.Context, rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return rawURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return rawURL
	}
	req.Header.Set("User-Agent", i.cfg.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := i.http.Do(req)
	if err != nil {
		i.log.Debug().Err(err).Str("url", rawURL).Msg("Linkify fetch failed")
		return rawURL
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return rawURL
	}
	contentType := resp.Header.Get("Content-Type")
	if !strings.Contains(contentType, "text/html") && !strings.Contains(contentType, "application/xhtml") {
		return rawURL
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, i.cfg.MaxPageBytes))
	if err != nil {
		return rawURL
	}

	title := pageTitle(string(body))
	if title == "" {
		return rawURL
	}
	return "[" + title + "](" + rawURL + ")"
}

// pageTitle pulls a display title out of an HTML page.
func pageTitle(body string) string {
	og := opengraph.NewOpenGraph()
	if err := og.ProcessHTML(strings.NewReader(body)); err == nil && og.Title != "" {
		return cleanTitle(og.Title)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return ""
	}
	if title := doc.Find("title").First().Text(); title != "" {
		return cleanTitle(title)
	}
	if h1 := doc.Find("h1").First().Text(); h1 != "" {
		return cleanTitle(h1)
	}
	if h2 := doc.Find("h2").First().Text(); h2 != "" {
		return cleanTitle(h2)
	}
	return ""
}

// cleanTitle normalizes whitespace, caps the length and keeps the text safe
// inside a markdown link label.
func cleanTitle(title string) string {
	title = whitespaceRe.ReplaceAllString(strings.TrimSpace(title), " ")
	// Square brackets would close the label early.
	title = strings.ReplaceAll(title, "[", "(")
	title = strings.ReplaceAll(title, "]", ")")

	if len(title) > 120 {
		title = title[:120]
		if lastSpace := strings.LastIndex(title, " "); lastSpace > 60 {
			title = title[:lastSpace]
		}
		title += "..."
	}
	return title
}
