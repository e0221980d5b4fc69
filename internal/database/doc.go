// Package database provides SQLite-based persistence for crawl run history.
// Each run stores its seeds, keywords, matched pages, and broken links so
// past runs can be listed and re-examined with the history command.
package database
