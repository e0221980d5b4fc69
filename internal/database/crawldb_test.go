package database

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sitegrep/sitegrep/internal/model"
)

// openTestDB opens a fresh database in a temporary directory.
func openTestDB(t *testing.T) *CrawlDB {
	t.Helper()

	cdb, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() {
		if err := cdb.Close(); err != nil {
			t.Errorf("failed to close database: %v", err)
		}
	})
	return cdb
}

// sampleRun builds a run report with one matched page and one broken link.
func sampleRun(started time.Time) *model.RunReport {
	run := model.NewRunReport([]string{"http://example.test"}, []string{"hiring"})
	run.StartedAt = started

	report := model.NewCrawlReport("http://example.test")
	report.StartedAt = started
	report.PagesCrawled = 2
	report.URLsVisited = 3
	report.Results = append(report.Results,
		model.PageResult{URL: "http://example.test/jobs", Keywords: []string{"hiring"}},
	)
	report.BrokenLinks = append(report.BrokenLinks,
		model.BrokenLink{Href: "http://example.test/gone", Referrer: "http://example.test"},
	)
	run.Add(report)

	return run
}

// TestOpen tests database creation behavior.
func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("creates database file and directory", func(t *testing.T) {
		t.Parallel()

		dbDir := filepath.Join(t.TempDir(), "data")
		cdb, err := Open(dbDir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer cdb.Close() //nolint:errcheck

		if _, err := os.Stat(filepath.Join(dbDir, dbFileName)); err != nil {
			t.Errorf("database file not created: %v", err)
		}
	})

	t.Run("refuses to create when disabled", func(t *testing.T) {
		t.Parallel()

		opts := Options{CreateIfNotExists: false}
		if _, err := Open(t.TempDir(), opts); err == nil {
			t.Error("expected error for missing database")
		}
	})
}

// TestSaveRunAndGetRun tests the round trip through the schema.
func TestSaveRunAndGetRun(t *testing.T) {
	t.Parallel()

	cdb := openTestDB(t)
	ctx := context.Background()

	started := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	id, err := cdb.SaveRun(ctx, sampleRun(started))
	if err != nil {
		t.Fatalf("failed to save run: %v", err)
	}
	if id == 0 {
		t.Fatal("expected non-zero run ID")
	}

	got, err := cdb.GetRun(ctx, id)
	if err != nil {
		t.Fatalf("failed to load run: %v", err)
	}

	if len(got.Seeds) != 1 || got.Seeds[0] != "http://example.test" {
		t.Errorf("unexpected seeds %v", got.Seeds)
	}
	if len(got.Keywords) != 1 || got.Keywords[0] != "hiring" {
		t.Errorf("unexpected keywords %v", got.Keywords)
	}
	if got.TotalPages() != 2 {
		t.Errorf("expected 2 pages crawled, got %d", got.TotalPages())
	}

	results := got.AllResults()
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].URL != "http://example.test/jobs" {
		t.Errorf("unexpected result URL %q", results[0].URL)
	}
	if len(results[0].Keywords) != 1 || results[0].Keywords[0] != "hiring" {
		t.Errorf("unexpected result keywords %v", results[0].Keywords)
	}

	links := got.AllBrokenLinks()
	if len(links) != 1 {
		t.Fatalf("expected 1 broken link, got %d", len(links))
	}
	if links[0].Href != "http://example.test/gone" || links[0].Referrer != "http://example.test" {
		t.Errorf("unexpected broken link %+v", links[0])
	}
}

// TestGetRunNotFound tests the missing-row error path.
func TestGetRunNotFound(t *testing.T) {
	t.Parallel()

	cdb := openTestDB(t)

	if _, err := cdb.GetRun(context.Background(), 9999); err == nil {
		t.Error("expected error for unknown run ID")
	}
}

// TestListRuns tests ordering and limiting of the history listing.
func TestListRuns(t *testing.T) {
	t.Parallel()

	cdb := openTestDB(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		if _, err := cdb.SaveRun(ctx, sampleRun(base.Add(time.Duration(i)*time.Hour))); err != nil {
			t.Fatalf("failed to save run %d: %v", i, err)
		}
	}

	t.Run("newest first", func(t *testing.T) {
		summaries, err := cdb.ListRuns(ctx, 0)
		if err != nil {
			t.Fatalf("failed to list runs: %v", err)
		}
		if len(summaries) != 3 {
			t.Fatalf("expected 3 runs, got %d", len(summaries))
		}
		for i := 1; i < len(summaries); i++ {
			if summaries[i].StartedAt.After(summaries[i-1].StartedAt) {
				t.Error("runs not ordered newest first")
			}
		}
		if summaries[0].Matches != 1 || summaries[0].BrokenLinks != 1 {
			t.Errorf("unexpected counts in summary %+v", summaries[0])
		}
	})

	t.Run("honors limit", func(t *testing.T) {
		summaries, err := cdb.ListRuns(ctx, 2)
		if err != nil {
			t.Fatalf("failed to list runs: %v", err)
		}
		if len(summaries) != 2 {
			t.Errorf("expected 2 runs, got %d", len(summaries))
		}
	})
}

// TestSaveRunCancelled tests that the cancelled flag survives a round trip.
func TestSaveRunCancelled(t *testing.T) {
	t.Parallel()

	cdb := openTestDB(t)
	ctx := context.Background()

	run := sampleRun(time.Now().UTC())
	run.Reports[0].Cancelled = true

	id, err := cdb.SaveRun(ctx, run)
	if err != nil {
		t.Fatalf("failed to save run: %v", err)
	}

	got, err := cdb.GetRun(ctx, id)
	if err != nil {
		t.Fatalf("failed to load run: %v", err)
	}
	if !got.Cancelled() {
		t.Error("expected cancelled flag to persist")
	}
}
