package report

import (
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"
	"github.com/sitegrep/sitegrep/internal/model"
)

// MarkdownWriter outputs the run report as GitHub Flavored Markdown,
// suitable for sharing or committing alongside documentation.
//
// Design decision: We use the nao1215/markdown library for fluent,
// type-safe markdown generation instead of string concatenation.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the full run report in Markdown format.
func (w *MarkdownWriter) Write(run *model.RunReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeSummary(md, run)
	w.writeResults(md, run)
	w.writeBrokenLinks(md, run)

	return len(md.String()), md.Build()
}

// writeSummary writes the run-level summary table.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, run *model.RunReport) {
	md.H1("Crawl Report")
	md.PlainText("")

	status := "Complete"
	if run.Cancelled() {
		status = "Cancelled (partial results)"
	}

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Run Date", run.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Seeds", strings.Join(run.Seeds, ", ")},
			{"Keywords", strings.Join(run.Keywords, ", ")},
			{"Pages Crawled", strconv.Itoa(run.TotalPages())},
			{"Matched Pages", strconv.Itoa(len(run.AllResults()))},
			{"Broken Links", strconv.Itoa(len(run.AllBrokenLinks()))},
			{"Status", status},
		},
	})
	md.PlainText("")
}

// writeResults writes the matched pages table.
func (w *MarkdownWriter) writeResults(md *markdown.Markdown, run *model.RunReport) {
	md.H2("Matched Pages")

	results := run.AllResults()
	if len(results) == 0 {
		md.PlainText("No pages matched the configured keywords.")
		md.PlainText("")
		return
	}

	rows := make([][]string, 0, len(results))
	for _, result := range results {
		rows = append(rows, []string{result.URL, strings.Join(result.Keywords, ", ")})
	}

	md.Table(markdown.TableSet{
		Header: []string{"URL", "Keywords"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeBrokenLinks writes the broken-links table.
func (w *MarkdownWriter) writeBrokenLinks(md *markdown.Markdown, run *model.RunReport) {
	md.H2("Broken Links")

	links := run.AllBrokenLinks()
	if len(links) == 0 {
		md.PlainText("No broken links found.")
		return
	}

	rows := make([][]string, 0, len(links))
	for _, link := range links {
		rows = append(rows, []string{link.Href, link.Referrer})
	}

	md.Table(markdown.TableSet{
		Header: []string{"Link", "Referrer"},
		Rows:   rows,
	})
}
