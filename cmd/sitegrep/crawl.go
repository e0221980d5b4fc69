package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sitegrep/sitegrep/internal/config"
	"github.com/sitegrep/sitegrep/internal/crawler"
	"github.com/sitegrep/sitegrep/internal/database"
	"github.com/sitegrep/sitegrep/internal/log"
	"github.com/sitegrep/sitegrep/internal/model"
	"github.com/sitegrep/sitegrep/internal/report"
)

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl [seed-url...]",
		Short: "Crawl websites and report pages containing keywords",
		Long: `Crawl visits each seed URL and follows links breadth-first, never
leaving the seed's origin. Every successfully fetched page is checked
for the configured keywords (whole words, case-insensitive), and each
matching page is recorded with the keywords found on it.

Every link discovered on a page is also fetched once for validation;
links that fail are recorded as broken together with the page that
referenced them.

Results are written to pages_with_keywords.csv in the current
directory. Diagnostics (fetch failures, broken links) are appended to
errors.log.

Examples:
  # Crawl one site for two keywords
  sitegrep crawl --keywords hiring,golang https://example.com

  # Seeds and keywords from a config file
  sitegrep crawl -c crawl.yaml

  # Mix: config file values come first, command line values after
  sitegrep crawl -c crawl.yaml --keywords extra https://another.example

  # Cap the crawl and emit a Markdown report
  sitegrep crawl -k hiring -p 100 --markdown -o report.md https://example.com

Configuration file (.sitegrep) example:
  seeds:
    - https://example.com
  keywords:
    - hiring
    - golang
  maxPages: 500
  requestsPerSecond: 5`,
		Args: cobra.ArbitraryArgs,
		RunE: runCrawlCmd,
	}

	// Crawl input flags
	cmd.Flags().StringSliceP("keywords", "k", nil,
		"Keywords to search for (comma-separated, repeatable)")
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .sitegrep in current or home directory)")

	// Crawl behavior flags
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Connection timeout for each request")
	cmd.Flags().IntP("max-pages", "p", config.DefaultMaxPages,
		"Maximum number of pages to crawl per seed (0 = unlimited)")
	cmd.Flags().Float64("rate", config.DefaultRequestsPerSecond,
		"Maximum requests per second (0 = unlimited)")
	cmd.Flags().Bool("shared-visited", false,
		"Share the visited set across all seeds instead of one per seed")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write the JSON/Markdown report to the specified file path")

	// History flags
	cmd.Flags().Bool("no-db", false,
		"Do not record this run in the local history database")

	return cmd
}

// runCrawlCmd executes the crawl command.
func runCrawlCmd(cmd *cobra.Command, args []string) error {
	// Build config from flags and the optional config file
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	// Validate configuration before any network activity
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	// Set up structured logging to the terminal and the diagnostics file
	logger, closeLog, err := log.NewDiagnosticsLogger(cfg.ErrorLog, os.Stderr, cfg.Verbose)
	if err != nil {
		return err
	}
	defer closeLog() //nolint:errcheck // Best effort flush on exit
	slog.SetDefault(logger)

	// Set up context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	return runCrawl(ctx, cfg, logger)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from cobra command flags.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()

	var err error

	cfg.Keywords, err = cmd.Flags().GetStringSlice("keywords")
	if err != nil {
		return nil, err
	}

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	cfg.Timeout, err = cmd.Flags().GetDuration("timeout")
	if err != nil {
		return nil, err
	}

	cfg.MaxPages, err = cmd.Flags().GetInt("max-pages")
	if err != nil {
		return nil, err
	}

	cfg.RequestsPerSecond, err = cmd.Flags().GetFloat64("rate")
	if err != nil {
		return nil, err
	}

	cfg.SharedVisited, err = cmd.Flags().GetBool("shared-visited")
	if err != nil {
		return nil, err
	}

	cfg.JSONReport, err = cmd.Flags().GetBool("json")
	if err != nil {
		return nil, err
	}

	cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown")
	if err != nil {
		return nil, err
	}

	cfg.ReportFile, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}

	noDB, err := cmd.Flags().GetBool("no-db")
	if err != nil {
		return nil, err
	}
	cfg.SaveToDB = !noDB

	cfg.Verbose = getVerboseFlag(cmd)

	// Positional arguments are seed URLs
	cfg.Seeds = args

	// Merge the config file. File-sourced seeds and keywords come first;
	// command-line values are appended after them.
	// If the user explicitly specified a config file path, error if not
	// found. If no path was specified, a missing file is fine.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	if configPath != "" {
		cf, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		cf.Apply(cfg)
	} else if explicitConfigPath {
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	}

	return cfg, nil
}

// runCrawl executes the crawl across all seeds.
func runCrawl(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	logger.Info("starting crawl",
		"seeds", cfg.Seeds,
		"keywords", cfg.Keywords,
		"maxPages", cfg.MaxPages,
		"saveToDB", cfg.SaveToDB,
	)

	// Open database connection if saving is enabled
	var db *database.CrawlDB
	if cfg.SaveToDB {
		var err error
		db, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close() //nolint:errcheck // Read-mostly handle, best effort close
		logger.Info("database opened", "dir", cfg.DBDir)
	}

	matcher, err := crawler.NewMatcher(cfg.Keywords)
	if err != nil {
		return fmt.Errorf("invalid keywords: %w", err)
	}

	fetcherOpts := []crawler.FetcherOption{
		crawler.WithFetcherLogger(logger),
		crawler.WithRateLimit(cfg.RequestsPerSecond, cfg.Burst),
	}
	if cfg.UserAgent != "" {
		fetcherOpts = append(fetcherOpts, crawler.WithUserAgent(cfg.UserAgent))
	}
	if cfg.MaxBodySize > 0 {
		fetcherOpts = append(fetcherOpts, crawler.WithMaxBodySize(cfg.MaxBodySize))
	}

	fetcher := crawler.NewFetcher(
		&http.Client{Timeout: cfg.Timeout},
		fetcherOpts...,
	)

	spider := crawler.NewSpider(fetcher, matcher,
		crawler.WithLogger(logger),
		crawler.WithMaxPages(cfg.MaxPages),
		crawler.WithValidateWorkers(cfg.ValidateWorkers),
		crawler.WithSharedVisited(cfg.SharedVisited),
	)

	run := model.NewRunReport(cfg.Seeds, matcher.Keywords())

	// Crawl seeds one at a time; a failing seed never aborts the run
	for _, seed := range cfg.Seeds {
		if ctx.Err() != nil {
			logger.Info("crawl cancelled", "remainingSeed", seed)
			break
		}

		fmt.Printf("Crawling %s...\n", seed)
		startTime := time.Now()

		seedReport, err := spider.Crawl(ctx, seed)
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("crawl failed", "seed", seed, "error", err)
			fmt.Fprintf(os.Stderr, "Crawl error for %s: %v\n", seed, err)
			if seedReport == nil {
				continue
			}
		}
		run.Add(seedReport)

		elapsed := time.Since(startTime)
		fmt.Printf("Crawled %d pages in %s (%d matches, %d broken links)\n\n",
			seedReport.PagesCrawled,
			elapsed.Round(time.Millisecond),
			len(seedReport.Results),
			len(seedReport.BrokenLinks),
		)
	}

	// The CSV result file is always written, even for an empty or
	// cancelled run, so downstream tooling can rely on its presence.
	if err := writeResultFile(cfg, run); err != nil {
		return fmt.Errorf("failed to write result file: %w", err)
	}
	fmt.Printf("Results written to %s\n", cfg.OutputFile)

	// Optional JSON/Markdown report
	if cfg.JSONReport || cfg.MarkdownReport {
		if err := outputReport(cfg, run); err != nil {
			logger.Error("report failed", "error", err)
		}
	}

	// Save to database if enabled
	if err := saveRunReport(ctx, db, run, logger); err != nil {
		logger.Error("failed to save run", "error", err)
	}

	if run.Cancelled() {
		fmt.Println("Crawl was cancelled; results are partial.")
	}

	return nil
}

// writeResultFile writes the tabular result file with its well-known name.
func writeResultFile(cfg *config.Config, run *model.RunReport) error {
	f, err := os.OpenFile(cfg.OutputFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer f.Close() //nolint:errcheck // Double close after successful Close is harmless

	writer := report.NewCSVWriter(f)
	if _, err := writer.Write(run); err != nil {
		return err
	}

	return f.Close()
}

// outputReport outputs the run report in the requested format.
func outputReport(cfg *config.Config, run *model.RunReport) error {
	// Determine output destination
	var output *os.File
	if cfg.ReportFile != "" {
		// Create directories if they don't exist
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close() //nolint:errcheck // Best effort close for report output
		output = f
	} else {
		output = os.Stdout
	}

	var writer report.Writer
	switch {
	case cfg.JSONReport:
		writer = report.NewJSONWriter(output, report.WithPrettyPrint())
	case cfg.MarkdownReport:
		writer = report.NewMarkdownWriter(output)
	default:
		return nil
	}

	_, err := writer.Write(run)
	return err
}

// saveRunReport saves the run report to the database if enabled.
// If db is nil, this function is a no-op.
func saveRunReport(ctx context.Context, db *database.CrawlDB, run *model.RunReport, logger *slog.Logger) error {
	if db == nil {
		return nil
	}

	// Use a fresh context so a cancelled crawl still records its
	// partial results.
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	id, err := db.SaveRun(saveCtx, run)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}

	logger.Info("run saved to database", "runID", id)
	return nil
}
