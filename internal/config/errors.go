package config

import "errors"

// Configuration validation errors.
// These are returned by Config.Validate() and surface as terminal startup
// failures; no partial crawl is attempted when any of them occurs.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances in Validate() so callers can use errors.Is()
// for programmatic handling while still getting a readable message.
var (
	// ErrNoSeeds is returned when neither the config file nor the command
	// line supplied any seed URLs.
	ErrNoSeeds = errors.New("no seed URLs provided: pass them as arguments or in the config file")

	// ErrNoKeywords is returned when neither the config file nor the
	// command line supplied any keywords.
	ErrNoKeywords = errors.New("no keywords provided: use --keywords or the config file")

	// ErrInvalidTimeout is returned when the request timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidMaxPages is returned when the page bound is negative.
	// Zero means unbounded.
	ErrInvalidMaxPages = errors.New("invalid max pages: must be non-negative")

	// ErrInvalidRate is returned when the request rate is negative.
	// Zero disables throttling.
	ErrInvalidRate = errors.New("invalid request rate: must be non-negative")

	// ErrInvalidMaxBodySize is returned when the body size cap is not positive.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be positive")

	// ErrConflictingReportFormats is returned when both --json and
	// --markdown are specified. Only one extra format at a time.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")
)
