package model

import "time"

// CrawlReport holds everything produced by crawling a single seed.
//
// Design decision: We accumulate results in the report rather than streaming
// them through callbacks because:
//  1. Result sets are small relative to total memory (one entry per matched page)
//  2. The report can be handed to any Writer after the crawl finishes
//  3. A partial report remains usable when the crawl is cancelled
type CrawlReport struct {
	// Seed is the URL the crawl started from. It also defines the origin
	// boundary: only URLs sharing the seed's scheme+host are visited.
	Seed string `json:"seed"`

	// StartedAt is when the crawl of this seed began.
	StartedAt time.Time `json:"started_at"`

	// Elapsed is the wall-clock duration of the crawl.
	Elapsed time.Duration `json:"elapsed"`

	// PagesCrawled counts pages fetched successfully (status 200).
	PagesCrawled int `json:"pages_crawled"`

	// URLsVisited counts URLs dequeued and marked visited during this
	// crawl, including URLs whose fetch failed.
	URLsVisited int `json:"urls_visited"`

	// Results are the pages that matched at least one keyword.
	Results []PageResult `json:"results"`

	// BrokenLinks are discovered links whose validation fetch failed.
	BrokenLinks []BrokenLink `json:"broken_links"`

	// Cancelled is true when the crawl was interrupted before the
	// frontier emptied. Results collected so far are still valid.
	Cancelled bool `json:"cancelled,omitempty"`
}

// NewCrawlReport creates an empty report for the given seed.
func NewCrawlReport(seed string) *CrawlReport {
	return &CrawlReport{
		Seed:        seed,
		StartedAt:   time.Now(),
		Results:     make([]PageResult, 0),
		BrokenLinks: make([]BrokenLink, 0),
	}
}

// RunReport aggregates the per-seed reports of one invocation.
// This is the unit handed to report writers and the database layer.
type RunReport struct {
	// StartedAt is when the run began (before the first seed).
	StartedAt time.Time `json:"started_at"`

	// Seeds are the seed URLs in crawl order.
	Seeds []string `json:"seeds"`

	// Keywords are the configured keywords in match-priority order.
	Keywords []string `json:"keywords"`

	// Reports holds one CrawlReport per seed, in seed order.
	Reports []*CrawlReport `json:"reports"`
}

// NewRunReport creates an empty run report for the given seeds and keywords.
func NewRunReport(seeds, keywords []string) *RunReport {
	return &RunReport{
		StartedAt: time.Now(),
		Seeds:     seeds,
		Keywords:  keywords,
		Reports:   make([]*CrawlReport, 0, len(seeds)),
	}
}

// Add appends a completed per-seed report.
func (r *RunReport) Add(report *CrawlReport) {
	r.Reports = append(r.Reports, report)
}

// AllResults returns the page results of every seed, in seed order.
// The returned slice is freshly allocated; callers may modify it.
func (r *RunReport) AllResults() []PageResult {
	results := make([]PageResult, 0)
	for _, report := range r.Reports {
		results = append(results, report.Results...)
	}
	return results
}

// AllBrokenLinks returns the broken links of every seed, in seed order.
func (r *RunReport) AllBrokenLinks() []BrokenLink {
	links := make([]BrokenLink, 0)
	for _, report := range r.Reports {
		links = append(links, report.BrokenLinks...)
	}
	return links
}

// TotalPages returns the number of successfully fetched pages across all seeds.
func (r *RunReport) TotalPages() int {
	var total int
	for _, report := range r.Reports {
		total += report.PagesCrawled
	}
	return total
}

// Cancelled reports whether any seed's crawl was interrupted.
func (r *RunReport) Cancelled() bool {
	for _, report := range r.Reports {
		if report.Cancelled {
			return true
		}
	}
	return false
}
