// Package log provides structured logging for the crawler.
// It builds slog loggers that write to the terminal, to the diagnostics
// file, or to both at once.
package log
