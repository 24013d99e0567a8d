// Package source scrapes listing announcements from the exchange support center.
package source

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/raykavin/autoblacklist/pkg/core"
	"golang.org/x/net/html"
)

const (
	DefaultIndexURL  = "https://support.binance.com/hc/en-us/sections/115000106672-New-Listings"
	DefaultTimeout   = 10 * time.Second
	defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
	maxBodySize      = 4 << 20
)

// Config controls where and how pages are fetched.
type Config struct {
	IndexURL  string
	LinkClass string // class of the announcement anchors on the index page
	MetaClass string // class of the element holding the <time> tag on a detail page
	Timeout   time.Duration
	UserAgent string
}

// HTMLSource implements core.ListingSource over plain HTTP.
type HTMLSource struct {
	cfg    Config
	client *http.Client
	base   *url.URL
}

var _ core.ListingSource = (*HTMLSource)(nil)

// NewHTMLSource validates cfg and fills the defaults.
func NewHTMLSource(cfg Config) (*HTMLSource, error) {
	if cfg.IndexURL == "" {
		cfg.IndexURL = DefaultIndexURL
	}
	if cfg.LinkClass == "" {
		cfg.LinkClass = "article-list-link"
	}
	if cfg.MetaClass == "" {
		cfg.MetaClass = "meta-data"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}

	base, err := url.Parse(cfg.IndexURL)
	if err != nil {
		return nil, fmt.Errorf("invalid index url: %w", err)
	}

	return &HTMLSource{
		cfg:    cfg,
		client: newHTTPClient(cfg.Timeout),
		base:   base,
	}, nil
}

// newHTTPClient returns a client whose every request is bounded by timeout.
func newHTTPClient(timeout time.Duration) *http.Client {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 5 * time.Second,
	}
	return &http.Client{Timeout: timeout, Transport: transport}
}

// FetchIndex returns the announcements of the index page, links resolved to absolute URLs.
func (s *HTMLSource) FetchIndex(ctx context.Context) ([]core.Announcement, error) {
	doc, err := s.fetch(ctx, s.cfg.IndexURL)
	if err != nil {
		return nil, err
	}

	announcements := make([]core.Announcement, 0)
	walk(doc, func(n *html.Node) bool {
		if n.Data != "a" || !hasClass(n, s.cfg.LinkClass) {
			return true
		}

		href := attr(n, "href")
		ref, err := url.Parse(href)
		if href == "" || err != nil {
			return false
		}

		announcements = append(announcements, core.Announcement{
			Title: strings.Join(strings.Fields(text(n)), " "),
			URL:   s.base.ResolveReference(ref).String(),
		})
		return false
	})

	return announcements, nil
}

// FetchReleaseDate reads the datetime attribute of the first <time> inside the meta block.
func (s *HTMLSource) FetchReleaseDate(ctx context.Context, pageURL string) (time.Time, error) {
	doc, err := s.fetch(ctx, pageURL)
	if err != nil {
		return time.Time{}, err
	}

	var stamp string
	walk(doc, func(n *html.Node) bool {
		if stamp != "" {
			return false
		}
		if !hasClass(n, s.cfg.MetaClass) {
			return true
		}
		walk(n, func(c *html.Node) bool {
			if stamp == "" && c.Data == "time" {
				stamp = attr(c, "datetime")
			}
			return stamp == ""
		})
		return false
	})

	if stamp == "" {
		return time.Time{}, fmt.Errorf("no release date found in %s", pageURL)
	}

	return ParseTimestamp(stamp)
}

func (s *HTMLSource) fetch(ctx context.Context, pageURL string) (*html.Node, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", s.cfg.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("get %s: unexpected status %d", pageURL, resp.StatusCode)
	}

	doc, err := html.Parse(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", pageURL, err)
	}

	return doc, nil
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	time.DateTime,
	time.DateOnly,
}

// ParseTimestamp parses an ISO-8601 date time. Values without a zone are taken as
// local time, the clock listing ages are measured against.
func ParseTimestamp(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range timestampLayouts {
		if ts, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", value)
}

// walk visits n and its descendants depth first; visit returns false to skip the children.
func walk(n *html.Node, visit func(*html.Node) bool) {
	if n.Type == html.ElementNode && !visit(n) {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, visit)
	}
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func text(n *html.Node) string {
	var b strings.Builder
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(n)
	return b.String()
}
