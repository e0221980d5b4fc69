package model

// PageResult records a page whose body matched at least one configured keyword.
// Results are append-only over a run; the engine never removes or rewrites one.
type PageResult struct {
	// URL is the visited page URL (the URL that was dequeued, not the
	// post-redirect URL).
	URL string `json:"url"`

	// Keywords are the matched keywords in configured keyword order,
	// not first-occurrence order. Never empty: a PageResult is only
	// produced when at least one keyword matched.
	Keywords []string `json:"keywords"`
}

// BrokenLink records a discovered link whose validation fetch did not succeed.
// Broken links are logged and reported but still enqueued; when the engine
// later dequeues one it fails again and is simply skipped.
type BrokenLink struct {
	// Href is the resolved absolute URL of the broken link.
	Href string `json:"href"`

	// Referrer is the page on which the link was discovered.
	Referrer string `json:"referrer"`
}
