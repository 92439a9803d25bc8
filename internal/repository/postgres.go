package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const createPostgresRunTable = `
CREATE TABLE IF NOT EXISTS patrol_run (
	run_id				bigint	GENERATED ALWAYS AS IDENTITY
								PRIMARY KEY,
	digest				text	UNIQUE NOT NULL,
	width				integer	NOT NULL,
	height				integer	NOT NULL,
	visited				integer	NOT NULL,
	exit				text	NULL,
	loop_count			integer	NOT NULL,
	loop_obstructions	jsonb	NOT NULL,
	patrol_ms			double precision NOT NULL,
	search_ms			double precision NOT NULL,
	created_at			timestamp with time zone
								DEFAULT now()
								NOT NULL
);
CREATE INDEX IF NOT EXISTS patrol_run_size_idx ON patrol_run (width, height);`

type Postgres struct {
	db *pgxpool.Pool
}

func NewPostgres(ctx context.Context, dbUrl string) (*Postgres, error) {
	poolConfig, err := pgxpool.ParseConfig(dbUrl)
	if err != nil {
		return nil, err
	}
	db, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}
	if _, err := db.Exec(ctx, createPostgresRunTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("unable to create tables: %w", err)
	}
	return &Postgres{db}, nil
}

func (pg *Postgres) Close() error {
	pg.db.Close()
	return nil
}

func (pg *Postgres) CreateRun(ctx context.Context, run Run) (*Run, error) {
	exit, loops, err := encodeRun(run)
	if err != nil {
		return nil, err
	}
	err = pg.db.QueryRow(ctx, `
		INSERT INTO patrol_run (
			digest, width, height, visited, exit,
			loop_count, loop_obstructions, patrol_ms, search_ms
		)
		VALUES (
			@digest, @width, @height, @visited, @exit,
			@loop_count, @loop_obstructions, @patrol_ms, @search_ms
		)
		RETURNING run_id, created_at`,
		pgx.NamedArgs{
			"digest":            run.Digest,
			"width":             run.Width,
			"height":            run.Height,
			"visited":           run.Visited,
			"exit":              exit,
			"loop_count":        run.LoopCount(),
			"loop_obstructions": loops,
			"patrol_ms":         run.PatrolMs,
			"search_ms":         run.SearchMs,
		}).Scan(&run.RunId, &run.CreatedAt)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return nil, ErrRunExists
	} else if err != nil {
		return nil, err
	}
	return &run, nil
}

func scanPostgresRun(row scanner) (*Run, error) {
	var r runRow
	err := row.Scan(
		&r.run.RunId, &r.run.Digest, &r.run.Width, &r.run.Height,
		&r.run.Visited, &r.exit, &r.loops, &r.run.PatrolMs,
		&r.run.SearchMs, &r.run.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrRunNotFound
	} else if err != nil {
		return nil, err
	}
	return r.decode()
}

func (pg *Postgres) GetRun(ctx context.Context, runId int) (*Run, error) {
	return scanPostgresRun(pg.db.QueryRow(ctx,
		`SELECT `+runColumns+` FROM patrol_run WHERE run_id = $1`,
		runId,
	))
}

func (pg *Postgres) GetRunByDigest(ctx context.Context, digest string) (*Run, error) {
	return scanPostgresRun(pg.db.QueryRow(ctx,
		`SELECT `+runColumns+` FROM patrol_run WHERE digest = $1`,
		digest,
	))
}

func (pg *Postgres) ListRuns(ctx context.Context, filter RunFilter) ([]Run, error) {
	where, args := filter.WhereClause()
	args["limit"] = filter.limit()
	rows, err := pg.db.Query(ctx,
		`SELECT `+runColumns+` FROM patrol_run`+where+
			` ORDER BY run_id DESC LIMIT @limit`,
		args,
	)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Run, error) {
		run, err := scanPostgresRun(row)
		if err != nil {
			return Run{}, err
		}
		return *run, nil
	})
}
