package crawler

import (
	"fmt"
	"io"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// Parser extracts anchor targets from HTML and resolves them to absolute
// URLs within a single seed's origin.
//
// Design decision: We use golang.org/x/net/html rather than regex because:
//  1. It correctly handles malformed HTML common on the web
//  2. Nested and unclosed anchors resolve the same way browsers treat them
//  3. More maintainable than attribute-scraping regex patterns
type Parser struct {
	// base is the seed URL. Relative hrefs join against it.
	base *url.URL

	// origin is the scheme://host[:port] prefix that bounds the crawl.
	origin string

	// prefix is the full seed URL string used for the same-origin filter.
	prefix string
}

// NewParser creates a Parser scoped to the origin of seedURL.
// The seed must be absolute (scheme and host present).
func NewParser(seedURL string) (*Parser, error) {
	u, err := url.Parse(seedURL)
	if err != nil {
		return nil, fmt.Errorf("invalid seed URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid seed URL %q: scheme and host are required", seedURL)
	}

	return &Parser{
		base:   u,
		origin: u.Scheme + "://" + u.Host,
		prefix: u.Scheme + "://" + u.Host,
	}, nil
}

// Origin returns the scheme://host prefix that bounds this parser.
func (p *Parser) Origin() string {
	return p.origin
}

// ExtractLinks parses HTML and returns every anchor target that resolves
// inside the seed's origin, as absolute URL strings in document order.
//
// Resolution rules:
//   - an href starting with "/" is joined to the origin root (scheme+host)
//   - an href without an http/https scheme is joined to the seed as a
//     relative path
//   - anything else is taken as already absolute
//
// Off-origin links are discarded silently; they are not broken links.
// Empty and malformed hrefs are skipped without error. The returned slice
// is NOT deduplicated: deduplication is the engine's job via its visited
// set, and duplicate discoveries matter for broken-link referrer reporting.
func (p *Parser) ExtractLinks(r io.Reader) ([]string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse HTML: %w", err)
	}

	links := make([]string, 0)

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			if href := getAttr(n, "href"); href != "" {
				if resolved, ok := p.resolve(href); ok {
					links = append(links, resolved)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return links, nil
}

// resolve turns an href into an absolute URL and reports whether it falls
// inside the seed's origin.
func (p *Parser) resolve(href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" || href == "#" {
		return "", false
	}

	// Non-navigable schemes are never crawl candidates.
	if strings.HasPrefix(href, "javascript:") ||
		strings.HasPrefix(href, "mailto:") ||
		strings.HasPrefix(href, "tel:") ||
		strings.HasPrefix(href, "data:") {
		return "", false
	}

	var resolved string
	switch {
	case strings.HasPrefix(href, "/"):
		// Root-relative: join to the origin root.
		resolved = p.origin + href
	case !strings.HasPrefix(href, "http"):
		// Relative path: join to the seed base.
		resolved = strings.TrimRight(p.base.String(), "/") + "/" + href
	default:
		resolved = href
	}

	// Same-origin restriction: only URLs with the seed's origin prefix
	// are candidates for the frontier.
	if !strings.HasPrefix(resolved, p.prefix) {
		return "", false
	}

	// Drop candidates that would not survive a fetch attempt anyway.
	if _, err := url.Parse(resolved); err != nil {
		return "", false
	}

	return resolved, true
}

// getAttr retrieves an attribute value from an HTML node.
func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}
