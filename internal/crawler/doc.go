// Package crawler implements the crawl engine: fetching pages, extracting
// in-origin links, matching keywords, and driving the breadth-first traversal.
//
// # Architecture
//
// The package is built from four pieces:
//
//   - Fetcher: performs a single HTTP GET and classifies the outcome
//   - Parser: extracts anchor targets and resolves them within the seed origin
//   - Matcher: finds whole-word, case-insensitive keyword occurrences
//   - Spider: owns the frontier and visited set and drives the cycle
//
// The Spider dequeues one URL at a time in FIFO order, which guarantees a
// level-order traversal of the site. Discovered links are validated with an
// independent fetch so broken links can be reported immediately; the link is
// enqueued either way and simply fails again when dequeued.
//
// # Failure semantics
//
// Nothing inside the per-URL cycle is fatal. Fetch failures are logged and
// the URL stays marked visited so it is never retried; malformed links are
// skipped; a page with no keyword match produces no result. The only errors
// Crawl returns are an invalid seed URL and context cancellation.
//
// # Usage
//
//	fetcher := crawler.NewFetcher(httpClient)
//	matcher, err := crawler.NewMatcher([]string{"hiring", "golang"})
//	spider := crawler.NewSpider(fetcher, matcher)
//	report, err := spider.Crawl(ctx, "https://example.com")
package crawler
