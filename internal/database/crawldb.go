package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/sitegrep/sitegrep/internal/model"
)

// dbFileName is the SQLite database file name inside the data directory.
const dbFileName = "sitegrep.db"

// CrawlDB provides SQLite-based storage for crawl run history.
// It manages connection pooling and provides methods for saving and
// querying runs.
type CrawlDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures CrawlDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent
	// performance. Recommended for most use cases.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a CrawlDB at the specified directory.
// If CreateIfNotExists is false and the database doesn't exist, an error
// is returned instead of creating an empty history.
func Open(dbDir string, opts Options) (*CrawlDB, error) {
	dbPath := filepath.Join(dbDir, dbFileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// modernc.org/sqlite uses mode=rw to prevent creating new files and
	// mode=rwc to allow creation.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	cdb := &CrawlDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := cdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return cdb, nil
}

// Close closes the database connection.
func (cdb *CrawlDB) Close() error {
	return cdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (cdb *CrawlDB) createTables() error {
	schema := `
	-- One row per invocation of the crawl command
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		started_at DATETIME NOT NULL,
		seeds TEXT NOT NULL,
		keywords TEXT NOT NULL,
		pages_crawled INTEGER NOT NULL DEFAULT 0,
		cancelled INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);

	-- Matched pages, append-only per run
	CREATE TABLE IF NOT EXISTS results (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		url TEXT NOT NULL,
		keywords TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_results_run ON results(run_id);

	-- Broken links discovered during a run
	CREATE TABLE IF NOT EXISTS broken_links (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		href TEXT NOT NULL,
		referrer TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_broken_run ON broken_links(run_id);
	`

	_, err := cdb.db.ExecContext(context.Background(), schema)
	return err
}

// RunSummary is one row of the run-history listing.
type RunSummary struct {
	ID           int64
	StartedAt    time.Time
	Seeds        []string
	Keywords     []string
	PagesCrawled int
	Matches      int
	BrokenLinks  int
	Cancelled    bool
}

// SaveRun persists a completed run and returns its row ID.
// All inserts happen in one transaction so a run is recorded entirely or
// not at all.
func (cdb *CrawlDB) SaveRun(ctx context.Context, run *model.RunReport) (int64, error) {
	seedsJSON, err := json.Marshal(run.Seeds)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize seeds: %w", err)
	}
	keywordsJSON, err := json.Marshal(run.Keywords)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize keywords: %w", err)
	}

	tx, err := cdb.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // No-op after commit

	cancelled := 0
	if run.Cancelled() {
		cancelled = 1
	}

	result, err := tx.ExecContext(ctx,
		`INSERT INTO runs (started_at, seeds, keywords, pages_crawled, cancelled) VALUES (?, ?, ?, ?, ?)`,
		run.StartedAt.UTC(), string(seedsJSON), string(keywordsJSON), run.TotalPages(), cancelled,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}

	runID, err := result.LastInsertId()
	if err != nil {
		return 0, err
	}

	for _, pageResult := range run.AllResults() {
		keywordsJSON, err := json.Marshal(pageResult.Keywords)
		if err != nil {
			return 0, fmt.Errorf("failed to serialize result keywords: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO results (run_id, url, keywords) VALUES (?, ?, ?)`,
			runID, pageResult.URL, string(keywordsJSON),
		); err != nil {
			return 0, fmt.Errorf("failed to insert result: %w", err)
		}
	}

	for _, link := range run.AllBrokenLinks() {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO broken_links (run_id, href, referrer) VALUES (?, ?, ?)`,
			runID, link.Href, link.Referrer,
		); err != nil {
			return 0, fmt.Errorf("failed to insert broken link: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit run: %w", err)
	}

	return runID, nil
}

// ListRuns returns the most recent runs, newest first.
// A limit of 0 returns all runs.
func (cdb *CrawlDB) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	query := `
	SELECT r.id, r.started_at, r.seeds, r.keywords, r.pages_crawled, r.cancelled,
		(SELECT COUNT(*) FROM results WHERE run_id = r.id),
		(SELECT COUNT(*) FROM broken_links WHERE run_id = r.id)
	FROM runs r
	ORDER BY r.started_at DESC, r.id DESC
	`
	args := make([]any, 0, 1)
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := cdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	summaries := make([]RunSummary, 0)
	for rows.Next() {
		var s RunSummary
		var seedsJSON, keywordsJSON string
		var cancelled int
		if err := rows.Scan(&s.ID, &s.StartedAt, &seedsJSON, &keywordsJSON,
			&s.PagesCrawled, &cancelled, &s.Matches, &s.BrokenLinks); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		if err := json.Unmarshal([]byte(seedsJSON), &s.Seeds); err != nil {
			return nil, fmt.Errorf("failed to decode seeds: %w", err)
		}
		if err := json.Unmarshal([]byte(keywordsJSON), &s.Keywords); err != nil {
			return nil, fmt.Errorf("failed to decode keywords: %w", err)
		}
		s.Cancelled = cancelled != 0
		summaries = append(summaries, s)
	}

	return summaries, rows.Err()
}

// GetRun reconstructs a stored run report by ID.
// Per-seed boundaries are not stored, so the reconstructed run holds a
// single aggregate report carrying all results and broken links.
func (cdb *CrawlDB) GetRun(ctx context.Context, id int64) (*model.RunReport, error) {
	var seedsJSON, keywordsJSON string
	var startedAt time.Time
	var pagesCrawled, cancelled int

	err := cdb.db.QueryRowContext(ctx,
		`SELECT started_at, seeds, keywords, pages_crawled, cancelled FROM runs WHERE id = ?`, id,
	).Scan(&startedAt, &seedsJSON, &keywordsJSON, &pagesCrawled, &cancelled)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query run %d: %w", id, err)
	}

	run := &model.RunReport{StartedAt: startedAt}
	if err := json.Unmarshal([]byte(seedsJSON), &run.Seeds); err != nil {
		return nil, fmt.Errorf("failed to decode seeds: %w", err)
	}
	if err := json.Unmarshal([]byte(keywordsJSON), &run.Keywords); err != nil {
		return nil, fmt.Errorf("failed to decode keywords: %w", err)
	}

	aggregate := model.NewCrawlReport("")
	aggregate.StartedAt = startedAt
	aggregate.PagesCrawled = pagesCrawled
	aggregate.Cancelled = cancelled != 0
	if len(run.Seeds) > 0 {
		aggregate.Seed = run.Seeds[0]
	}

	rows, err := cdb.db.QueryContext(ctx,
		`SELECT url, keywords FROM results WHERE run_id = ? ORDER BY id`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query results: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var result model.PageResult
		var kwJSON string
		if err := rows.Scan(&result.URL, &kwJSON); err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		if err := json.Unmarshal([]byte(kwJSON), &result.Keywords); err != nil {
			return nil, fmt.Errorf("failed to decode result keywords: %w", err)
		}
		aggregate.Results = append(aggregate.Results, result)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	linkRows, err := cdb.db.QueryContext(ctx,
		`SELECT href, referrer FROM broken_links WHERE run_id = ? ORDER BY id`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query broken links: %w", err)
	}
	defer linkRows.Close()

	for linkRows.Next() {
		var link model.BrokenLink
		if err := linkRows.Scan(&link.Href, &link.Referrer); err != nil {
			return nil, fmt.Errorf("failed to scan broken link: %w", err)
		}
		aggregate.BrokenLinks = append(aggregate.BrokenLinks, link)
	}
	if err := linkRows.Err(); err != nil {
		return nil, err
	}

	run.Reports = []*model.CrawlReport{aggregate}
	return run, nil
}
