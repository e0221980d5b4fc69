package log

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// TeeHandler fans a log record out to multiple slog handlers.
// It is used to send crawl diagnostics both to the terminal and to the
// persistent diagnostics file.
//
// Design decision: We use a handler wrapper rather than a custom logger
// because:
//  1. It integrates seamlessly with standard slog APIs
//  2. It works with any combination of underlying handlers (text, JSON, etc.)
//  3. Components only ever see a plain *slog.Logger
type TeeHandler struct {
	// handlers receive every record in order.
	handlers []slog.Handler
}

// NewTeeHandler creates a TeeHandler forwarding to all given handlers.
// Nil handlers are skipped.
func NewTeeHandler(handlers ...slog.Handler) *TeeHandler {
	hs := make([]slog.Handler, 0, len(handlers))
	for _, h := range handlers {
		if h != nil {
			hs = append(hs, h)
		}
	}
	return &TeeHandler{handlers: hs}
}

// Enabled reports whether any underlying handler handles the given level.
func (h *TeeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

// Handle forwards the record to every handler enabled for its level.
// All handlers are attempted even if one fails.
func (h *TeeHandler) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, handler := range h.handlers {
		if !handler.Enabled(ctx, r.Level) {
			continue
		}
		if err := handler.Handle(ctx, r.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// WithAttrs returns a new handler with the given attributes added.
func (h *TeeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	handlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		handlers[i] = handler.WithAttrs(attrs)
	}
	return &TeeHandler{handlers: handlers}
}

// WithGroup returns a new handler with the given group name.
func (h *TeeHandler) WithGroup(name string) slog.Handler {
	handlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		handlers[i] = handler.WithGroup(name)
	}
	return &TeeHandler{handlers: handlers}
}

// levelFor maps the verbose flag to a log level.
// Quiet runs report warnings and errors only.
func levelFor(verbose bool) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	return slog.LevelWarn
}

// NewLogger creates a slog.Logger writing human-readable text to w.
//
// Parameters:
//   - w: The io.Writer to write log output to (typically os.Stderr)
//   - verbose: If true, sets log level to Debug; otherwise Warn
func NewLogger(w io.Writer, verbose bool) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: levelFor(verbose),
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// NewDiagnosticsLogger creates a logger that writes to the terminal and
// appends to the diagnostics file at path. Fetch failures and broken
// links land in the file so they survive the run.
//
// The returned close function flushes and closes the file and must be
// called when the run finishes. On failure to open the file the error
// is returned and no logger is created.
func NewDiagnosticsLogger(path string, terminal io.Writer, verbose bool) (*slog.Logger, func() error, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open diagnostics file: %w", err)
	}

	opts := &slog.HandlerOptions{
		Level: levelFor(verbose),
	}

	// The file always records warnings regardless of terminal verbosity.
	fileOpts := &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}

	handler := NewTeeHandler(
		slog.NewTextHandler(terminal, opts),
		slog.NewTextHandler(file, fileOpts),
	)

	return slog.New(handler), file.Close, nil
}
