package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values. Network-facing defaults mirror the behavior
// of a cautious single-process crawler: bounded bodies, bounded request
// rate, and a finite per-request timeout so traversal always makes progress.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "sitegrep"

	// DefaultTimeout bounds each HTTP request. A timed-out fetch is
	// treated exactly like a non-200 response.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxPages of 0 means the crawl is bounded only by the
	// frontier emptying. Large sites can be capped via --max-pages.
	DefaultMaxPages = 0

	// DefaultRequestsPerSecond throttles outgoing fetches. This covers
	// both visits and validation fetches on the shared client.
	DefaultRequestsPerSecond = 10

	// DefaultBurst is the token bucket burst for the rate limiter.
	DefaultBurst = 20

	// DefaultValidateWorkers bounds concurrent broken-link validation
	// fetches per page.
	DefaultValidateWorkers = 4

	// DefaultOutputFile is the well-known name of the tabular result file.
	DefaultOutputFile = "pages_with_keywords.csv"

	// DefaultErrorLog is the well-known name of the diagnostics log.
	DefaultErrorLog = "errors.log"
)

// Config holds all options for a sitegrep run.
// It is populated from CLI flags merged with the optional config file and
// passed through the application via dependency injection rather than
// global state, so tests can substitute fakes.
type Config struct {
	// Seeds are the crawl roots; each also defines an origin boundary.
	// File-sourced seeds come first, flag-sourced seeds are appended.
	Seeds []string

	// Keywords are matched whole-word and case-insensitively against
	// each fetched page. Same merge order as Seeds.
	Keywords []string

	// Timeout is the per-request HTTP timeout.
	Timeout time.Duration

	// MaxPages bounds successfully fetched pages per seed. 0 = unbounded.
	MaxPages int

	// RequestsPerSecond throttles all fetches. 0 disables throttling.
	RequestsPerSecond float64

	// Burst is the rate limiter burst size.
	Burst int

	// ValidateWorkers bounds concurrent validation fetches per page.
	ValidateWorkers int

	// SharedVisited shares one visited set across all seeds of the run
	// instead of a fresh set per seed.
	SharedVisited bool

	// MaxBodySize caps how many bytes of a response body are read.
	// 0 means the crawler default.
	MaxBodySize int64

	// UserAgent overrides the fixed identifying header when non-empty.
	UserAgent string

	// OutputFile is where the tabular result report is written.
	OutputFile string

	// ErrorLog is where timestamped diagnostic records are appended.
	ErrorLog string

	// Verbose enables slog.LevelDebug output on stderr.
	Verbose bool

	// JSONReport writes an additional JSON report.
	// Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport writes an additional Markdown report.
	// Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is the destination of the JSON/Markdown report.
	// Empty means stdout.
	ReportFile string

	// ConfigFilePath is the explicit config file path, if any. When
	// empty, .sitegrep is searched in the current and home directories.
	ConfigFilePath string

	// DBDir is the directory holding the run-history SQLite database.
	DBDir string

	// SaveToDB controls whether the run is recorded in the database.
	SaveToDB bool
}

// NewConfig creates a Config with default values.
//
// Design decision: We use a constructor instead of relying on zero values
// because most defaults are non-zero, and the constructor doubles as
// documentation of what those defaults are.
func NewConfig() *Config {
	return &Config{
		Timeout:           DefaultTimeout,
		MaxPages:          DefaultMaxPages,
		RequestsPerSecond: DefaultRequestsPerSecond,
		Burst:             DefaultBurst,
		ValidateWorkers:   DefaultValidateWorkers,
		OutputFile:        DefaultOutputFile,
		ErrorLog:          DefaultErrorLog,
		DBDir:             XDGDataDir(),
		SaveToDB:          true,
	}
}

// XDGDataDir returns the XDG data directory for sitegrep.
// On Linux: ~/.local/share/sitegrep
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// Validate checks the configuration and returns the first problem found.
// It is called once after flag parsing and file merging, before any
// network activity, so startup failures never produce a partial crawl.
func (c *Config) Validate() error {
	if len(c.Seeds) == 0 {
		return ErrNoSeeds
	}
	if len(c.Keywords) == 0 {
		return ErrNoKeywords
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.MaxPages < 0 {
		return ErrInvalidMaxPages
	}
	if c.RequestsPerSecond < 0 {
		return ErrInvalidRate
	}
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}
	return nil
}
