package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/sitegrep/sitegrep/internal/config"
	"github.com/sitegrep/sitegrep/internal/database"
	"github.com/sitegrep/sitegrep/internal/report"
)

// NewHistoryCmd creates the history command.
// This command lists and inspects past runs stored in the database.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "List and inspect past crawl runs",
		Long: `History shows crawl runs recorded in the local database.

Without arguments it lists recent runs with their seeds, keywords, and
result counts. Given a run ID it prints the full results of that run.

Examples:
  # List the 20 most recent runs
  sitegrep history

  # List all recorded runs
  sitegrep history --limit 0

  # Show the full results of run 5
  sitegrep history 5

  # Show run 5 as JSON
  sitegrep history --json 5`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().IntP("limit", "n", 20,
		"Maximum number of runs to list (0 = all)")
	cmd.Flags().BoolP("json", "j", false,
		"Output the selected run in JSON format")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	// Parse the run ID before opening the database so bad input fails fast
	var runID int64
	if len(args) == 1 {
		var err error
		runID, err = strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid run ID %q: %w", args[0], err)
		}
	}

	// Existing history only; a missing database means nothing was recorded
	dbDir := config.XDGDataDir()
	db, err := database.Open(dbDir, database.Options{EnableWAL: true})
	if err != nil {
		return fmt.Errorf("no crawl history found (run 'sitegrep crawl' first): %w", err)
	}
	defer db.Close() //nolint:errcheck // Read-only handle, best effort close

	ctx := context.Background()

	if runID > 0 {
		jsonOutput, err := cmd.Flags().GetBool("json")
		if err != nil {
			return err
		}
		return showRun(ctx, cmd, db, runID, jsonOutput)
	}

	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}
	return listRuns(ctx, cmd, db, limit)
}

// listRuns prints a table of recent runs.
func listRuns(ctx context.Context, cmd *cobra.Command, db *database.CrawlDB, limit int) error {
	summaries, err := db.ListRuns(ctx, limit)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	out := cmd.OutOrStdout()

	if len(summaries) == 0 {
		fmt.Fprintln(out, "No crawl runs recorded yet.")
		return nil
	}

	fmt.Fprintf(out, "%-4s %-19s %-7s %-7s %-6s %s\n",
		"ID", "Started", "Pages", "Matches", "Broken", "Seeds")
	for _, s := range summaries {
		status := ""
		if s.Cancelled {
			status = " (cancelled)"
		}
		fmt.Fprintf(out, "%-4d %-19s %-7d %-7d %-6d %s%s\n",
			s.ID,
			s.StartedAt.Local().Format("2006-01-02 15:04:05"),
			s.PagesCrawled,
			s.Matches,
			s.BrokenLinks,
			strings.Join(s.Seeds, ", "),
			status,
		)
	}

	return nil
}

// showRun prints the full results of a single run.
func showRun(ctx context.Context, cmd *cobra.Command, db *database.CrawlDB, runID int64, jsonOutput bool) error {
	run, err := db.GetRun(ctx, runID)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	if jsonOutput {
		writer := report.NewJSONWriter(out, report.WithPrettyPrint())
		_, err := writer.Write(run)
		return err
	}

	fmt.Fprintf(out, "Run %d\n", runID)
	fmt.Fprintf(out, "  Started:  %s\n", run.StartedAt.Local().Format(time.RFC1123))
	fmt.Fprintf(out, "  Seeds:    %s\n", strings.Join(run.Seeds, ", "))
	fmt.Fprintf(out, "  Keywords: %s\n", strings.Join(run.Keywords, ", "))
	fmt.Fprintf(out, "  Pages:    %d\n", run.TotalPages())
	if run.Cancelled() {
		fmt.Fprintln(out, "  Status:   cancelled (partial results)")
	}
	fmt.Fprintln(out)

	results := run.AllResults()
	if len(results) == 0 {
		fmt.Fprintln(out, "No pages matched.")
	} else {
		fmt.Fprintf(out, "Matched pages (%d):\n", len(results))
		for _, r := range results {
			fmt.Fprintf(out, "  %s  [%s]\n", r.URL, strings.Join(r.Keywords, ", "))
		}
	}

	links := run.AllBrokenLinks()
	if len(links) > 0 {
		fmt.Fprintf(out, "\nBroken links (%d):\n", len(links))
		for _, l := range links {
			fmt.Fprintf(out, "  %s  (on %s)\n", l.Href, l.Referrer)
		}
	}

	return nil
}
