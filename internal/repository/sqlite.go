package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

const createSQLiteRunTable = `
CREATE TABLE IF NOT EXISTS patrol_run (
	run_id				INTEGER	PRIMARY KEY AUTOINCREMENT,
	digest				TEXT	UNIQUE NOT NULL,
	width				INTEGER	NOT NULL,
	height				INTEGER	NOT NULL,
	visited				INTEGER	NOT NULL,
	exit				TEXT	NULL,
	loop_count			INTEGER	NOT NULL,
	loop_obstructions	TEXT	NOT NULL,
	patrol_ms			REAL	NOT NULL,
	search_ms			REAL	NOT NULL,
	created_at			INTEGER	NOT NULL
);
CREATE INDEX IF NOT EXISTS patrol_run_size_idx ON patrol_run (width, height);`

// SQLite stores runs in a local database file. Timestamps are kept as
// unix milliseconds.
type SQLite struct {
	db *sql.DB
}

func NewSQLite(ctx context.Context, path string) (*SQLite, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.ExecContext(ctx, createSQLiteRunTable); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("unable to create tables: %w", err)
	}
	return &SQLite{db}, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func isUniqueViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return false
}

func (s *SQLite) CreateRun(ctx context.Context, run Run) (*Run, error) {
	exit, loops, err := encodeRun(run)
	if err != nil {
		return nil, err
	}
	run.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO patrol_run (
			digest, width, height, visited, exit,
			loop_count, loop_obstructions, patrol_ms, search_ms, created_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.Digest, run.Width, run.Height, run.Visited, exit,
		run.LoopCount(), loops, run.PatrolMs, run.SearchMs,
		run.CreatedAt.UnixMilli(),
	)
	if isUniqueViolation(err) {
		return nil, ErrRunExists
	} else if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	run.RunId = int(id)
	return &run, nil
}

func scanSQLiteRun(row scanner) (*Run, error) {
	var (
		r         runRow
		createdAt int64
	)
	err := row.Scan(
		&r.run.RunId, &r.run.Digest, &r.run.Width, &r.run.Height,
		&r.run.Visited, &r.exit, &r.loops, &r.run.PatrolMs,
		&r.run.SearchMs, &createdAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRunNotFound
	} else if err != nil {
		return nil, err
	}
	r.run.CreatedAt = time.UnixMilli(createdAt).UTC()
	return r.decode()
}

func (s *SQLite) GetRun(ctx context.Context, runId int) (*Run, error) {
	return scanSQLiteRun(s.db.QueryRowContext(ctx,
		`SELECT `+runColumns+` FROM patrol_run WHERE run_id = ?`,
		runId,
	))
}

func (s *SQLite) GetRunByDigest(ctx context.Context, digest string) (*Run, error) {
	return scanSQLiteRun(s.db.QueryRowContext(ctx,
		`SELECT `+runColumns+` FROM patrol_run WHERE digest = ?`,
		digest,
	))
}

func (s *SQLite) ListRuns(ctx context.Context, filter RunFilter) ([]Run, error) {
	where, named := filter.WhereClause()
	args := make([]any, 0, len(named)+1)
	for name, value := range named {
		args = append(args, sql.Named(name, value))
	}
	args = append(args, sql.Named("limit", filter.limit()))

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM patrol_run`+where+
			` ORDER BY run_id DESC LIMIT @limit`,
		args...,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanSQLiteRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}
