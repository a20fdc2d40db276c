// Package journal records the history of sync runs in an embedded SQLite
// database (<config-dir>/journal.db).
//
// Every push or pull appends one row to sync_runs with the run's counts,
// warnings and failure, so `ghtower history` can show what happened to a
// project without re-reading GitHub.
package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/githubtower/ghtower/internal/syncer"
)

// timeFormat has a fixed width so stored timestamps sort as text.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// Run is one recorded sync run.
type Run struct {
	ID         string
	Project    string
	Direction  string
	Model      string
	RemoteID   int64
	NodeID     string
	StartedAt  time.Time
	FinishedAt time.Time

	ColumnsCreated int
	CardsCreated   int
	CardsSkipped   int
	Cancelled      bool
	MetadataOnly   bool
	Warnings       []string

	// Error is the failure message, empty for a successful run.
	Error string
}

// OK reports whether the run finished without error.
func (r *Run) OK() bool {
	return r.Error == ""
}

// Duration is the wall time of the run.
func (r *Run) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// FromResult builds a Run from a sync result. res may be nil when the run
// failed before producing one.
func FromResult(project string, res *syncer.Result, started, finished time.Time, runErr error) *Run {
	run := &Run{
		Project:    project,
		StartedAt:  started,
		FinishedAt: finished,
	}
	if res != nil {
		if res.Project != "" {
			run.Project = res.Project
		}
		run.Direction = string(res.Direction)
		run.Model = string(res.Model)
		run.RemoteID = res.RemoteID
		run.NodeID = res.NodeID
		run.ColumnsCreated = res.ColumnsCreated
		run.CardsCreated = res.CardsCreated
		run.CardsSkipped = res.CardsSkipped
		run.Cancelled = res.Cancelled
		run.MetadataOnly = res.MetadataOnly
		run.Warnings = append([]string(nil), res.Warnings...)
	}
	if runErr != nil {
		run.Error = runErr.Error()
	}
	return run
}

// DB is the journal database.
type DB struct {
	conn *sql.DB
	path string
}

// Open opens (creating if needed) the journal at path and initializes
// its schema. The caller must Close it.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}

	conn, err := sql.Open("sqlite3", fmt.Sprintf("file:%s", path))
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping journal: %w", err)
	}
	conn.SetMaxOpenConns(1)

	db := &DB{conn: conn, path: path}

	if _, err := db.conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}
	if err := db.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// Path returns the database file.
func (db *DB) Path() string {
	return db.path
}

// Close closes the database.
func (db *DB) Close() error {
	if db.conn == nil {
		return nil
	}
	if err := db.conn.Close(); err != nil {
		return fmt.Errorf("failed to close journal: %w", err)
	}
	db.conn = nil
	return nil
}

func (db *DB) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS sync_runs (
		id TEXT PRIMARY KEY,
		project TEXT NOT NULL,
		direction TEXT NOT NULL DEFAULT '',
		model TEXT NOT NULL DEFAULT '',
		remote_id INTEGER NOT NULL DEFAULT 0,
		node_id TEXT NOT NULL DEFAULT '',
		started_at TEXT NOT NULL,
		finished_at TEXT NOT NULL,
		columns_created INTEGER NOT NULL DEFAULT 0,
		cards_created INTEGER NOT NULL DEFAULT 0,
		cards_skipped INTEGER NOT NULL DEFAULT 0,
		cancelled INTEGER NOT NULL DEFAULT 0,
		metadata_only INTEGER NOT NULL DEFAULT 0,
		warnings TEXT,  -- JSON array
		error TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_sync_runs_project ON sync_runs(project, started_at);
	`
	if _, err := db.conn.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to initialize journal schema: %w", err)
	}
	return nil
}

// Record appends run to the journal, assigning an ID when it has none.
func (db *DB) Record(ctx context.Context, run *Run) error {
	if run.Project == "" {
		return fmt.Errorf("invalid run: project is required")
	}
	if run.ID == "" {
		run.ID = uuid.New().String()
	}

	warnings, err := json.Marshal(run.Warnings)
	if err != nil {
		return fmt.Errorf("failed to marshal warnings: %w", err)
	}

	query := `
	INSERT INTO sync_runs (
		id, project, direction, model, remote_id, node_id,
		started_at, finished_at, columns_created, cards_created, cards_skipped,
		cancelled, metadata_only, warnings, error
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = db.conn.ExecContext(ctx, query,
		run.ID,
		run.Project,
		run.Direction,
		run.Model,
		run.RemoteID,
		run.NodeID,
		run.StartedAt.UTC().Format(timeFormat),
		run.FinishedAt.UTC().Format(timeFormat),
		run.ColumnsCreated,
		run.CardsCreated,
		run.CardsSkipped,
		boolToInt(run.Cancelled),
		boolToInt(run.MetadataOnly),
		string(warnings),
		run.Error,
	)
	if err != nil {
		return fmt.Errorf("failed to record run %s: %w", run.ID, err)
	}
	return nil
}

// Filter selects runs for Query.
type Filter struct {
	// Project limits the runs to one project; empty means every project.
	Project string

	// Since drops runs started before it; zero means no bound.
	Since time.Time

	// Limit caps the number of runs; zero or less means no limit.
	Limit int
}

// List returns up to limit runs, newest first. An empty project lists
// every project; a limit of zero or less means no limit.
func (db *DB) List(ctx context.Context, project string, limit int) ([]*Run, error) {
	return db.Query(ctx, Filter{Project: project, Limit: limit})
}

// Query returns the runs matching f, newest first.
func (db *DB) Query(ctx context.Context, f Filter) ([]*Run, error) {
	query := `
	SELECT id, project, direction, model, remote_id, node_id,
		started_at, finished_at, columns_created, cards_created, cards_skipped,
		cancelled, metadata_only, warnings, error
	FROM sync_runs
	WHERE (? = '' OR project = ?)
		AND (? = '' OR started_at >= ?)
	ORDER BY started_at DESC, rowid DESC
	LIMIT ?
	`
	limit := f.Limit
	if limit <= 0 {
		limit = -1
	}
	since := ""
	if !f.Since.IsZero() {
		since = f.Since.UTC().Format(timeFormat)
	}

	rows, err := db.conn.QueryContext(ctx, query, f.Project, f.Project, since, since, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}
	return runs, nil
}

// Last returns the newest run of project, or nil when there is none.
func (db *DB) Last(ctx context.Context, project string) (*Run, error) {
	runs, err := db.List(ctx, project, 1)
	if err != nil || len(runs) == 0 {
		return nil, err
	}
	return runs[0], nil
}

// Prune deletes all but the newest keep runs of each project and returns
// the number of rows removed.
func (db *DB) Prune(ctx context.Context, keep int) (int64, error) {
	query := `
	DELETE FROM sync_runs WHERE id IN (
		SELECT id FROM (
			SELECT id, ROW_NUMBER() OVER (
				PARTITION BY project ORDER BY started_at DESC, rowid DESC
			) AS n
			FROM sync_runs
		) WHERE n > ?
	)
	`
	res, err := db.conn.ExecContext(ctx, query, keep)
	if err != nil {
		return 0, fmt.Errorf("failed to prune runs: %w", err)
	}
	return res.RowsAffected()
}

func scanRun(rows *sql.Rows) (*Run, error) {
	var (
		run                 Run
		started, finished   string
		cancelled, metadata int
		warnings            sql.NullString
	)
	err := rows.Scan(
		&run.ID, &run.Project, &run.Direction, &run.Model, &run.RemoteID, &run.NodeID,
		&started, &finished, &run.ColumnsCreated, &run.CardsCreated, &run.CardsSkipped,
		&cancelled, &metadata, &warnings, &run.Error,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}

	if run.StartedAt, err = time.Parse(timeFormat, started); err != nil {
		return nil, fmt.Errorf("invalid started_at for run %s: %w", run.ID, err)
	}
	if run.FinishedAt, err = time.Parse(timeFormat, finished); err != nil {
		return nil, fmt.Errorf("invalid finished_at for run %s: %w", run.ID, err)
	}
	run.Cancelled = cancelled != 0
	run.MetadataOnly = metadata != 0

	if warnings.Valid && warnings.String != "" && warnings.String != "null" {
		if err := json.Unmarshal([]byte(warnings.String), &run.Warnings); err != nil {
			return nil, fmt.Errorf("failed to unmarshal warnings for run %s: %w", run.ID, err)
		}
	}
	return &run, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
