package report

import (
	"encoding/csv"
	"io"
	"strings"

	"github.com/sitegrep/sitegrep/internal/model"
)

// CSVWriter outputs the tabular result report: a header row followed by
// one row per matched page with the matched keywords comma-joined.
//
// Design decision: We use the standard encoding/csv package because the
// format is a fixed two-column table; quoting and escaping are the only
// hard parts and stdlib handles both.
type CSVWriter struct {
	baseWriter

	// includeBrokenLinks appends a broken-links section after the
	// results when enabled.
	includeBrokenLinks bool
}

// CSVWriterOption configures a CSVWriter.
type CSVWriterOption func(*CSVWriter)

// WithBrokenLinks appends a broken-links table after the results.
func WithBrokenLinks(include bool) CSVWriterOption {
	return func(w *CSVWriter) {
		w.includeBrokenLinks = include
	}
}

// NewCSVWriter creates a CSVWriter that outputs to the given writer.
func NewCSVWriter(output io.Writer, opts ...CSVWriterOption) *CSVWriter {
	w := &CSVWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs every matched page of the run as CSV.
func (w *CSVWriter) Write(run *model.RunReport) (int, error) {
	counter := &countingWriter{w: w.output}
	cw := csv.NewWriter(counter)

	if err := cw.Write([]string{"url", "keywords"}); err != nil {
		return counter.n, err
	}

	for _, result := range run.AllResults() {
		record := []string{result.URL, strings.Join(result.Keywords, ", ")}
		if err := cw.Write(record); err != nil {
			return counter.n, err
		}
	}

	if w.includeBrokenLinks {
		if err := w.writeBrokenLinks(cw, run); err != nil {
			return counter.n, err
		}
	}

	cw.Flush()
	return counter.n, cw.Error()
}

// writeBrokenLinks appends the broken-link records.
func (w *CSVWriter) writeBrokenLinks(cw *csv.Writer, run *model.RunReport) error {
	links := run.AllBrokenLinks()
	if len(links) == 0 {
		return nil
	}

	if err := cw.Write([]string{"broken_link", "referrer"}); err != nil {
		return err
	}
	for _, link := range links {
		if err := cw.Write([]string{link.Href, link.Referrer}); err != nil {
			return err
		}
	}
	return nil
}
