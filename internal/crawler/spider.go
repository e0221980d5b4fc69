package crawler

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/sitegrep/sitegrep/internal/model"
	"golang.org/x/sync/errgroup"
)

// DefaultValidateWorkers bounds the concurrent validation fetches issued
// for the links discovered on a single page.
const DefaultValidateWorkers = 4

// Spider drives the breadth-first crawl of one seed at a time.
// It owns the frontier (a FIFO queue) and the visited set, and delegates
// fetching, link extraction, and keyword matching to its collaborators.
//
// Per-URL states: Pending (in frontier) -> Fetching -> Matched, Unmatched,
// or FetchFailed -> Visited. Visited is terminal regardless of the fetch
// outcome: a URL is spent the moment it is dequeued, which prevents retry
// loops on persistently failing pages.
type Spider struct {
	// fetcher performs all HTTP requests, visits and validations alike.
	fetcher *Fetcher

	// matcher scans fetched bodies for keywords.
	matcher *Matcher

	// logger records fetch failures and broken links. Never nil.
	logger *slog.Logger

	// maxPages bounds successful page fetches per crawl. 0 = unbounded.
	maxPages int

	// validateWorkers bounds concurrent validation fetches per page.
	validateWorkers int

	// shareVisited keeps the visited set across Crawl calls so multiple
	// seeds in one run never revisit each other's URLs.
	shareVisited bool

	// visited tracks dequeued URLs. Guarded by mu so the validation
	// workers and any future fetch workers observe a consistent set.
	visited map[string]bool
	mu      sync.Mutex
}

// SpiderOption configures a Spider.
type SpiderOption func(*Spider)

// WithLogger sets the logger used for fetch failures and broken links.
func WithLogger(logger *slog.Logger) SpiderOption {
	return func(s *Spider) {
		s.logger = logger
	}
}

// WithMaxPages bounds the number of successfully fetched pages per crawl.
// 0 means unbounded.
func WithMaxPages(n int) SpiderOption {
	return func(s *Spider) {
		s.maxPages = n
	}
}

// WithValidateWorkers bounds the concurrent validation fetches issued for
// one page's discovered links. Values below 1 fall back to sequential.
func WithValidateWorkers(n int) SpiderOption {
	return func(s *Spider) {
		if n > 0 {
			s.validateWorkers = n
		}
	}
}

// WithSharedVisited shares one visited set across all seeds crawled by
// this Spider. The default is a fresh set per seed.
func WithSharedVisited(shared bool) SpiderOption {
	return func(s *Spider) {
		s.shareVisited = shared
	}
}

// NewSpider creates a Spider with the given collaborators.
func NewSpider(fetcher *Fetcher, matcher *Matcher, opts ...SpiderOption) *Spider {
	s := &Spider{
		fetcher:         fetcher,
		matcher:         matcher,
		validateWorkers: DefaultValidateWorkers,
		visited:         make(map[string]bool),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = slog.Default()
	}

	return s
}

// Crawl traverses the site rooted at seedURL breadth-first and returns a
// report of matched pages and broken links.
//
// The frontier starts with the seed. Each iteration dequeues the head URL,
// skips it if already visited, marks it visited, fetches it, matches
// keywords, and enqueues newly discovered in-origin links. Fetch failures
// are logged and never abort the traversal; the only error returns are an
// invalid seed and context cancellation, and a cancelled crawl still
// returns the partial report built so far.
func (s *Spider) Crawl(ctx context.Context, seedURL string) (*model.CrawlReport, error) {
	parser, err := NewParser(seedURL)
	if err != nil {
		return nil, err
	}

	if !s.shareVisited {
		s.mu.Lock()
		s.visited = make(map[string]bool)
		s.mu.Unlock()
	}

	report := model.NewCrawlReport(seedURL)
	start := time.Now()
	defer func() {
		report.Elapsed = time.Since(start)
	}()

	frontier := []string{seedURL}

	for len(frontier) > 0 {
		select {
		case <-ctx.Done():
			report.Cancelled = true
			return report, ctx.Err()
		default:
		}

		if s.maxPages > 0 && report.PagesCrawled >= s.maxPages {
			break
		}

		current := frontier[0]
		frontier = frontier[1:]

		// Deduplication happens here, not at enqueue: the frontier may
		// hold the same URL several times via different referrers.
		if s.isVisited(current) {
			continue
		}
		s.markVisited(current)
		report.URLsVisited++

		s.logger.Debug("crawling", "url", current)

		result, err := s.fetcher.Fetch(ctx, current, "")
		if err != nil {
			// FetchFailed is still a terminal Visited state; log and move on.
			s.logger.Warn("fetch failed", "url", current, "error", err)
			continue
		}
		report.PagesCrawled++

		if found := s.matcher.Match(string(result.Body)); len(found) > 0 {
			report.Results = append(report.Results, model.PageResult{
				URL:      current,
				Keywords: found,
			})
		}

		links, err := parser.ExtractLinks(bytes.NewReader(result.Body))
		if err != nil {
			s.logger.Warn("link extraction failed", "url", current, "error", err)
			continue
		}

		candidates := make([]string, 0, len(links))
		for _, link := range links {
			if !s.isVisited(link) {
				candidates = append(candidates, link)
			}
		}

		broken := s.validateLinks(ctx, current, candidates)

		// Enqueue in discovery order regardless of validation outcome:
		// a broken link fails again when dequeued and is skipped there.
		for i, candidate := range candidates {
			if broken[i] {
				s.logger.Warn("broken link found", "href", candidate, "referrer", current)
				report.BrokenLinks = append(report.BrokenLinks, model.BrokenLink{
					Href:     candidate,
					Referrer: current,
				})
			}
			frontier = append(frontier, candidate)
		}
	}

	return report, nil
}

// validateLinks independently fetches each candidate to check reachability,
// purely for immediate broken-link reporting. The candidate is fetched
// again later when it is dequeued from the frontier; the double fetch
// trades efficiency for reporting the break against the referring page.
//
// Fetches run concurrently up to validateWorkers, but the returned slice
// is indexed by candidate so the caller can keep discovery order.
func (s *Spider) validateLinks(ctx context.Context, referrer string, candidates []string) []bool {
	broken := make([]bool, len(candidates))
	if len(candidates) == 0 {
		return broken
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.validateWorkers)

	for i, candidate := range candidates {
		i, candidate := i, candidate
		g.Go(func() error {
			_, err := s.fetcher.Fetch(ctx, candidate, referrer)
			// An abandoned in-flight fetch during shutdown is not a
			// broken link.
			if err != nil && ctx.Err() == nil {
				broken[i] = true
			}
			return nil
		})
	}

	// Workers never return errors; Wait only orders the broken writes.
	_ = g.Wait()

	return broken
}

// isVisited checks whether a URL has been dequeued before.
func (s *Spider) isVisited(rawURL string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.visited[rawURL]
}

// markVisited marks a URL as spent. Called on dequeue, before the fetch,
// so a URL whose fetch fails is never retried.
func (s *Spider) markVisited(rawURL string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.visited[rawURL] = true
}

// VisitedCount returns the number of URLs in the visited set.
func (s *Spider) VisitedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.visited)
}

// Reset clears the visited set. Only meaningful with shared visited state.
func (s *Spider) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.visited = make(map[string]bool)
}
