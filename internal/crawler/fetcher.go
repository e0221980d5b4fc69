package crawler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"golang.org/x/net/html/charset"
	"golang.org/x/time/rate"
)

// DefaultUserAgent is the identifying header sent with every request.
// A realistic browser User-Agent avoids trivial bot blocking on sites that
// gate content on it; the value is fixed for the lifetime of a Fetcher.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// DefaultMaxBodySize limits the response body size to read.
// 5MB is sufficient for HTML pages while preventing memory exhaustion.
const DefaultMaxBodySize = 5 * 1024 * 1024

// ErrMalformedURL is returned (wrapped in a TransportError) when a URL is
// not syntactically fetchable. Such URLs are never attempted over the wire.
var ErrMalformedURL = errors.New("malformed URL: missing scheme or host")

// TransportError reports a network-level failure: connection refused, DNS
// failure, timeout, or a URL that could not be attempted at all.
type TransportError struct {
	// URL is the URL that could not be reached.
	URL string

	// Referrer is the page that linked to the URL, empty for seeds.
	Referrer string

	// Err is the underlying transport error.
	Err error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	if e.Referrer != "" {
		return fmt.Sprintf("fetch %s (referrer %s): %v", e.URL, e.Referrer, e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As.
func (e *TransportError) Unwrap() error { return e.Err }

// StatusError reports a response whose final status was not 200.
// It is distinct from TransportError so diagnostics can tell an unreachable
// host apart from a reachable one returning an error page.
type StatusError struct {
	// URL is the requested URL.
	URL string

	// Referrer is the page that linked to the URL, empty for seeds.
	Referrer string

	// StatusCode is the final HTTP status after redirects.
	StatusCode int
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch %s: status %d", e.URL, e.StatusCode)
}

// FetchResult is the successful outcome of a fetch.
//
// Design decision: Fetch returns an explicit (result, error) pair rather
// than a nil-body sentinel so that "no content" can never be confused with
// "fetch failed". The engine inspects the error type to classify failures.
type FetchResult struct {
	// FinalURL is the URL after following redirects. It equals the
	// requested URL when no redirect occurred.
	FinalURL string

	// StatusCode is always 200 on a successful fetch.
	StatusCode int

	// Body is the response body, decoded to UTF-8 and capped at the
	// fetcher's maximum body size.
	Body []byte
}

// Fetcher performs HTTP GETs with a shared client and a fixed identifying
// header, and classifies each outcome as success, status failure, or
// transport failure.
//
// Design decision: We require an external *http.Client because:
//  1. The client carries shared state (connection pool, timeout, cookies)
//     that must be owned by the caller, not ambient globals
//  2. Tests can substitute a client pointed at a fixture server
type Fetcher struct {
	// client is the shared HTTP client. Its Timeout bounds every request.
	client *http.Client

	// limiter throttles outgoing requests. Nil means unlimited.
	limiter *rate.Limiter

	// userAgent is the fixed identifying header.
	userAgent string

	// maxBodySize caps how much of a response body is read.
	maxBodySize int64

	// logger receives redirect observations and is never nil.
	logger *slog.Logger
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithUserAgent overrides the identifying User-Agent header.
func WithUserAgent(ua string) FetcherOption {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// WithMaxBodySize sets the maximum response body size in bytes.
func WithMaxBodySize(size int64) FetcherOption {
	return func(f *Fetcher) {
		f.maxBodySize = size
	}
}

// WithRateLimit throttles requests to the given rate and burst.
// A politeness setting; rps <= 0 disables throttling.
func WithRateLimit(rps float64, burst int) FetcherOption {
	return func(f *Fetcher) {
		if rps > 0 {
			f.limiter = rate.NewLimiter(rate.Limit(rps), burst)
		}
	}
}

// WithFetcherLogger sets the logger used for redirect observations.
func WithFetcherLogger(logger *slog.Logger) FetcherOption {
	return func(f *Fetcher) {
		f.logger = logger
	}
}

// NewFetcher creates a Fetcher using the given HTTP client.
func NewFetcher(client *http.Client, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		client:      client,
		userAgent:   DefaultUserAgent,
		maxBodySize: DefaultMaxBodySize,
	}

	for _, opt := range opts {
		opt(f)
	}

	if f.logger == nil {
		f.logger = slog.Default()
	}

	return f
}

// Fetch performs one GET for rawURL, following redirects transparently.
// The referrer is only used for diagnostics.
//
// It returns a FetchResult when the final status is exactly 200, a
// *StatusError for any other status, and a *TransportError for network
// failures, timeouts, and URLs that are not syntactically fetchable.
func (f *Fetcher) Fetch(ctx context.Context, rawURL, referrer string) (*FetchResult, error) {
	// Malformed input is a client-side error; never attempted over the wire.
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, &TransportError{URL: rawURL, Referrer: referrer, Err: err}
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, &TransportError{URL: rawURL, Referrer: referrer, Err: ErrMalformedURL}
	}

	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, &TransportError{URL: rawURL, Referrer: referrer, Err: err}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &TransportError{URL: rawURL, Referrer: referrer, Err: err}
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &TransportError{URL: rawURL, Referrer: referrer, Err: err}
	}
	defer resp.Body.Close()

	finalURL := rawURL
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	// A redirect is an observability signal, not a failure.
	if finalURL != rawURL {
		f.logger.Info("request redirected",
			"url", rawURL,
			"finalURL", finalURL,
		)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{URL: rawURL, Referrer: referrer, StatusCode: resp.StatusCode}
	}

	// Decode legacy charsets to UTF-8 so the matcher sees comparable text.
	limited := io.LimitReader(resp.Body, f.maxBodySize)
	reader, err := charset.NewReader(limited, resp.Header.Get("Content-Type"))
	if err != nil {
		reader = limited
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, &TransportError{URL: rawURL, Referrer: referrer, Err: err}
	}

	return &FetchResult{
		FinalURL:   finalURL,
		StatusCode: resp.StatusCode,
		Body:       body,
	}, nil
}
