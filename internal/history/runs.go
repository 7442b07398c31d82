package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned by Get for an unknown run id.
var ErrNotFound = errors.New("run not found")

var migrations = []Migration{
	{
		Version:     1,
		Description: "create runs table",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
				CREATE TABLE runs (
					id           TEXT     PRIMARY KEY,
					command      TEXT     NOT NULL,
					project      TEXT     NOT NULL,
					export_dir   TEXT     NOT NULL,
					output_path  TEXT     NOT NULL DEFAULT '',
					devices      INTEGER  NOT NULL DEFAULT 0,
					entries      INTEGER  NOT NULL DEFAULT 0,
					skipped      INTEGER  NOT NULL DEFAULT 0,
					zip_sha256   TEXT     NOT NULL DEFAULT '',
					error        TEXT     NOT NULL DEFAULT '',
					started_at   DATETIME NOT NULL,
					duration_ms  INTEGER  NOT NULL
				);
				CREATE INDEX idx_runs_started ON runs(started_at);
			`)
			return err
		},
	},
}

// Run is one recorded generation.
type Run struct {
	ID         string
	Command    string
	Project    string
	ExportDir  string
	OutputPath string
	Devices    int
	Entries    int
	Skipped    int
	ZipSHA256  string
	Error      string
	StartedAt  time.Time
	Duration   time.Duration
}

// Succeeded reports whether the run finished without error.
func (r *Run) Succeeded() bool { return r.Error == "" }

// Record stores run, assigning an id when it has none.
func (s *Store) Record(ctx context.Context, run *Run) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, command, project, export_dir, output_path, devices, entries,
			skipped, zip_sha256, error, started_at, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Command, run.Project, run.ExportDir, run.OutputPath,
		run.Devices, run.Entries, run.Skipped, run.ZipSHA256, run.Error,
		run.StartedAt.UTC(), run.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("record run %s: %w", run.ID, err)
	}
	return nil
}

const runColumns = `id, command, project, export_dir, output_path, devices, entries,
	skipped, zip_sha256, error, started_at, duration_ms`

// List returns up to limit runs, newest first. limit <= 0 returns every run.
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+runColumns+" FROM runs ORDER BY started_at DESC, id LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Get returns the run with the given id.
func (s *Store) Get(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+runColumns+" FROM runs WHERE id = ?", id)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return r, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (Run, error) {
	var (
		r  Run
		ms int64
	)
	err := sc.Scan(&r.ID, &r.Command, &r.Project, &r.ExportDir, &r.OutputPath,
		&r.Devices, &r.Entries, &r.Skipped, &r.ZipSHA256, &r.Error, &r.StartedAt, &ms)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	r.Duration = time.Duration(ms) * time.Millisecond
	return r, nil
}
