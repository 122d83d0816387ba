package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/a11yreport/internal/model"
)

// FileName is the name of the history database inside its directory.
const FileName = "a11yreport.db"

// scannedAtLayout keeps stored scan times lexically sortable.
const scannedAtLayout = "2006-01-02T15:04:05.000Z07:00"

// ErrNotFound is returned when a requested run does not exist.
var ErrNotFound = errors.New("run not found")

// ReportDB stores report runs and their issues.
type ReportDB struct {
	db     *sql.DB
	dbPath string
}

// Options configures ReportDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates the history database in dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*ReportDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

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

	// mode=rw refuses to create a missing file.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	rdb := &ReportDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := rdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return rdb, nil
}

// Path returns the database file path.
func (rdb *ReportDB) Path() string {
	return rdb.dbPath
}

// Close closes the database connection.
func (rdb *ReportDB) Close() error {
	return rdb.db.Close()
}

func (rdb *ReportDB) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS report_runs (
		id TEXT PRIMARY KEY,
		url TEXT NOT NULL,
		source TEXT NOT NULL,
		scanned_at TEXT NOT NULL,
		engine TEXT,
		engine_version TEXT,
		critical INTEGER DEFAULT 0,
		serious INTEGER DEFAULT 0,
		moderate INTEGER DEFAULT 0,
		minor INTEGER DEFAULT 0,
		issue_count INTEGER DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_runs_url ON report_runs(url);
	CREATE INDEX IF NOT EXISTS idx_runs_scanned_at ON report_runs(scanned_at);

	CREATE TABLE IF NOT EXISTS run_issues (
		run_id TEXT NOT NULL REFERENCES report_runs(id) ON DELETE CASCADE,
		ordinal INTEGER NOT NULL,
		fingerprint TEXT NOT NULL,
		rule TEXT NOT NULL,
		impact TEXT,
		target TEXT,
		parent TEXT,
		screenshot TEXT,
		PRIMARY KEY (run_id, ordinal)
	);

	CREATE INDEX IF NOT EXISTS idx_issues_fingerprint ON run_issues(fingerprint);
	`

	_, err := rdb.db.ExecContext(context.Background(), schema)
	return err
}

// Run is one stored report run: a single results file.
type Run struct {
	ID            string
	URL           string
	Source        string
	ScannedAt     time.Time
	Engine        string
	EngineVersion string
	Critical      int
	Serious       int
	Moderate      int
	Minor         int
	IssueCount    int
	CreatedAt     time.Time
}

// IssueRecord is the stored form of one issue.
type IssueRecord struct {
	Ordinal     int
	Fingerprint string
	Rule        string
	Impact      model.Impact
	Target      string
	Parent      string
	Screenshot  string
}

// SaveRun stores run and its issues in one transaction and returns the
// generated run ID. IssueCount is set from issues.
func (rdb *ReportDB) SaveRun(ctx context.Context, run *Run, issues []IssueRecord) (string, error) {
	id := uuid.NewString()

	tx, err := rdb.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback() //nolint:errcheck // no-op after commit
	}()

	_, err = tx.ExecContext(ctx, `
	INSERT INTO report_runs (id, url, source, scanned_at, engine, engine_version,
		critical, serious, moderate, minor, issue_count)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		id,
		run.URL,
		run.Source,
		run.ScannedAt.UTC().Format(scannedAtLayout),
		run.Engine,
		run.EngineVersion,
		run.Critical,
		run.Serious,
		run.Moderate,
		run.Minor,
		len(issues),
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO run_issues (run_id, ordinal, fingerprint, rule, impact, target, parent, screenshot)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return "", fmt.Errorf("failed to prepare issue insert: %w", err)
	}
	defer stmt.Close()

	for i, issue := range issues {
		if _, err := stmt.ExecContext(ctx,
			id,
			i,
			issue.Fingerprint,
			issue.Rule,
			string(issue.Impact),
			issue.Target,
			issue.Parent,
			issue.Screenshot,
		); err != nil {
			return "", fmt.Errorf("failed to insert issue %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit run: %w", err)
	}

	run.ID = id
	run.IssueCount = len(issues)
	return id, nil
}

const runColumns = `id, url, source, scanned_at, engine, engine_version,
	critical, serious, moderate, minor, issue_count, created_at`

// GetRun retrieves a run by ID.
func (rdb *ReportDB) GetRun(ctx context.Context, id string) (*Run, error) {
	row := rdb.db.QueryRowContext(ctx, "SELECT "+runColumns+" FROM report_runs WHERE id = ?", id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// ListRuns returns every run of url, newest scan first.
func (rdb *ReportDB) ListRuns(ctx context.Context, url string) ([]Run, error) {
	return rdb.queryRuns(ctx, "SELECT "+runColumns+`
	FROM report_runs
	WHERE url = ?
	ORDER BY scanned_at DESC, created_at DESC`, url)
}

// LatestRuns returns at most n runs of url, newest scan first.
func (rdb *ReportDB) LatestRuns(ctx context.Context, url string, n int) ([]Run, error) {
	return rdb.queryRuns(ctx, "SELECT "+runColumns+`
	FROM report_runs
	WHERE url = ?
	ORDER BY scanned_at DESC, created_at DESC
	LIMIT ?`, url, n)
}

// ListURLs returns every URL with at least one stored run.
func (rdb *ReportDB) ListURLs(ctx context.Context) ([]string, error) {
	rows, err := rdb.db.QueryContext(ctx, `
	SELECT DISTINCT url FROM report_runs
	ORDER BY url
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list urls: %w", err)
	}
	defer rows.Close()

	var urls []string
	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			return nil, fmt.Errorf("failed to scan url: %w", err)
		}
		urls = append(urls, url)
	}

	return urls, rows.Err()
}

// GetRunIssues returns the issues of a run in their original order.
func (rdb *ReportDB) GetRunIssues(ctx context.Context, runID string) ([]IssueRecord, error) {
	rows, err := rdb.db.QueryContext(ctx, `
	SELECT ordinal, fingerprint, rule, impact, target, parent, screenshot
	FROM run_issues
	WHERE run_id = ?
	ORDER BY ordinal
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get run issues: %w", err)
	}
	defer rows.Close()

	var issues []IssueRecord
	for rows.Next() {
		var (
			rec    IssueRecord
			impact sql.NullString
			target sql.NullString
			parent sql.NullString
			shot   sql.NullString
		)
		if err := rows.Scan(&rec.Ordinal, &rec.Fingerprint, &rec.Rule, &impact, &target, &parent, &shot); err != nil {
			return nil, fmt.Errorf("failed to scan issue: %w", err)
		}
		rec.Impact = model.Impact(impact.String)
		rec.Target = target.String
		rec.Parent = parent.String
		rec.Screenshot = shot.String
		issues = append(issues, rec)
	}

	return issues, rows.Err()
}

func (rdb *ReportDB) queryRuns(ctx context.Context, query string, args ...any) ([]Run, error) {
	rows, err := rdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, *run)
	}

	return runs, rows.Err()
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(s rowScanner) (*Run, error) {
	var (
		run           Run
		scannedAt     string
		createdAt     string
		engine        sql.NullString
		engineVersion sql.NullString
	)
	if err := s.Scan(
		&run.ID,
		&run.URL,
		&run.Source,
		&scannedAt,
		&engine,
		&engineVersion,
		&run.Critical,
		&run.Serious,
		&run.Moderate,
		&run.Minor,
		&run.IssueCount,
		&createdAt,
	); err != nil {
		return nil, err
	}
	run.Engine = engine.String
	run.EngineVersion = engineVersion.String
	run.ScannedAt = parseTimestamp(scannedAt)
	run.CreatedAt = parseTimestamp(createdAt)
	return &run, nil
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	scannedAtLayout,
	"2006-01-02 15:04:05",  // SQLite default datetime format
	"2006-01-02T15:04:05Z", // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",  // ISO 8601 without timezone
	time.RFC3339Nano,
}

// parseTimestamp returns the zero time when no format matches.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
