package crawler

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrNoKeywords is returned when a Matcher is constructed without keywords.
var ErrNoKeywords = errors.New("no keywords to match")

// Matcher scans page text for whole-word, case-insensitive occurrences of
// configured keywords. Patterns are compiled once at construction.
//
// Design decision: Keywords pass through regexp.QuoteMeta so seed-provided
// input like "c.v." or "50%" is matched literally instead of being
// interpreted as a pattern, which would either crash compilation or match
// silently wrong text.
type Matcher struct {
	// keywords holds the configured keywords in input order.
	keywords []string

	// patterns holds one compiled pattern per keyword, same order.
	patterns []*regexp.Regexp
}

// NewMatcher compiles a Matcher for the given keywords.
// Keyword order is preserved: Match reports hits in this order, not in
// first-occurrence order. Empty or whitespace-only keywords are rejected.
func NewMatcher(keywords []string) (*Matcher, error) {
	if len(keywords) == 0 {
		return nil, ErrNoKeywords
	}

	m := &Matcher{
		keywords: make([]string, 0, len(keywords)),
		patterns: make([]*regexp.Regexp, 0, len(keywords)),
	}

	for _, keyword := range keywords {
		if strings.TrimSpace(keyword) == "" {
			return nil, fmt.Errorf("empty keyword at position %d", len(m.keywords))
		}

		// \b boundaries make "cat" miss the token "Cats": the match must
		// be a whole word, not a substring of a larger token.
		pattern, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(keyword) + `\b`)
		if err != nil {
			return nil, fmt.Errorf("compile keyword %q: %w", keyword, err)
		}

		m.keywords = append(m.keywords, keyword)
		m.patterns = append(m.patterns, pattern)
	}

	return m, nil
}

// Keywords returns the configured keywords in match-priority order.
func (m *Matcher) Keywords() []string {
	return m.keywords
}

// Match returns the keywords found in text, in configured keyword order.
// An empty result means no keyword matched; it is not a failure.
func (m *Matcher) Match(text string) []string {
	found := make([]string, 0)
	for i, pattern := range m.patterns {
		if pattern.MatchString(text) {
			found = append(found, m.keywords[i])
		}
	}
	return found
}
