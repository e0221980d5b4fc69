package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"

	"github.com/sitegrep/sitegrep/internal/model"
)

// createTestRun creates a run report with sample data for testing.
func createTestRun() *model.RunReport {
	run := model.NewRunReport([]string{"http://example.test"}, []string{"hiring", "golang"})

	report := model.NewCrawlReport("http://example.test")
	report.PagesCrawled = 3
	report.URLsVisited = 4
	report.Results = append(report.Results,
		model.PageResult{URL: "http://example.test/jobs", Keywords: []string{"hiring", "golang"}},
		model.PageResult{URL: "http://example.test/about", Keywords: []string{"hiring"}},
	)
	report.BrokenLinks = append(report.BrokenLinks,
		model.BrokenLink{Href: "http://example.test/gone", Referrer: "http://example.test"},
	)
	run.Add(report)

	return run
}

// TestCSVWriter tests the tabular result sink.
func TestCSVWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes header and one row per result", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewCSVWriter(&buf)

		n, err := w.Write(createTestRun())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != buf.Len() {
			t.Errorf("reported %d bytes, wrote %d", n, buf.Len())
		}

		records, err := csv.NewReader(&buf).ReadAll()
		if err != nil {
			t.Fatalf("output is not valid CSV: %v", err)
		}

		if len(records) != 3 {
			t.Fatalf("expected header + 2 rows, got %d records", len(records))
		}
		if records[0][0] != "url" || records[0][1] != "keywords" {
			t.Errorf("unexpected header %v", records[0])
		}
		if records[1][0] != "http://example.test/jobs" {
			t.Errorf("unexpected first row %v", records[1])
		}
		if records[1][1] != "hiring, golang" {
			t.Errorf("expected comma-joined keywords, got %q", records[1][1])
		}
	})

	t.Run("optionally appends broken links", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewCSVWriter(&buf, WithBrokenLinks(true))

		if _, err := w.Write(createTestRun()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "broken_link,referrer") {
			t.Error("expected broken-links header")
		}
		if !strings.Contains(output, "http://example.test/gone") {
			t.Error("expected broken link row")
		}
	})

	t.Run("writes only the header for an empty run", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		w := NewCSVWriter(&buf)

		run := model.NewRunReport([]string{"http://example.test"}, []string{"nope"})
		run.Add(model.NewCrawlReport("http://example.test"))

		if _, err := w.Write(run); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if got := strings.TrimSpace(buf.String()); got != "url,keywords" {
			t.Errorf("expected bare header, got %q", got)
		}
	})
}

// TestJSONWriter tests JSON serialization of the run report.
func TestJSONWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	w := NewJSONWriter(&buf, WithPrettyPrint())

	if _, err := w.Write(createTestRun()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var decoded model.RunReport
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}

	if len(decoded.Reports) != 1 {
		t.Fatalf("expected 1 seed report, got %d", len(decoded.Reports))
	}
	if len(decoded.Reports[0].Results) != 2 {
		t.Errorf("expected 2 results, got %d", len(decoded.Reports[0].Results))
	}
}

// TestMarkdownWriter tests the Markdown report sections.
func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	w := NewMarkdownWriter(&buf)

	if _, err := w.Write(createTestRun()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	output := buf.String()
	for _, want := range []string{
		"# Crawl Report",
		"## Matched Pages",
		"## Broken Links",
		"http://example.test/jobs",
		"http://example.test/gone",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected output to contain %q", want)
		}
	}
}

// TestMultiWriter tests fan-out to several writers.
func TestMultiWriter(t *testing.T) {
	t.Parallel()

	var csvBuf, jsonBuf bytes.Buffer
	mw := NewMultiWriter(NewCSVWriter(&csvBuf), NewJSONWriter(&jsonBuf))

	if _, err := mw.Write(createTestRun()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if csvBuf.Len() == 0 {
		t.Error("expected CSV output")
	}
	if jsonBuf.Len() == 0 {
		t.Error("expected JSON output")
	}
}
