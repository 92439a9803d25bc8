package repository

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/blake2b"

	"github.com/drewmcarthur/guard-patrol/internal/patrol"
)

var (
	ErrRunNotFound = errors.New("run not found")
	ErrRunExists   = errors.New("run already exists")
)

// Run is a persisted [patrol.Report], keyed by the digest of its grid.
type Run struct {
	RunId            int               `json:"run_id"`
	Digest           string            `json:"digest"`
	Width            int               `json:"width"`
	Height           int               `json:"height"`
	Visited          int               `json:"visited"`
	Exit             *patrol.Direction `json:"exit"`
	LoopObstructions []patrol.Location `json:"loop_obstructions"`
	PatrolMs         float64           `json:"patrol_ms"`
	SearchMs         float64           `json:"search_ms"`
	CreatedAt        time.Time         `json:"created_at"`
}

func NewRun(digest string, report *patrol.Report) Run {
	return Run{
		Digest:           digest,
		Width:            report.Width,
		Height:           report.Height,
		Visited:          report.Visited,
		Exit:             report.Exit,
		LoopObstructions: report.LoopObstructions,
		PatrolMs:         float64(report.PatrolTime) / float64(time.Millisecond),
		SearchMs:         float64(report.SearchTime) / float64(time.Millisecond),
	}
}

func (r Run) LoopCount() int {
	return len(r.LoopObstructions)
}

// Digest identifies a grid by its content.
func Digest(grid *patrol.Grid) string {
	sum := blake2b.Sum256([]byte(grid.String()))
	return hex.EncodeToString(sum[:])
}

type Store interface {
	// CreateRun fails with [ErrRunExists] when a run with the same digest
	// is already stored.
	CreateRun(ctx context.Context, run Run) (*Run, error)
	GetRun(ctx context.Context, runId int) (*Run, error)
	GetRunByDigest(ctx context.Context, digest string) (*Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]Run, error)
	Close() error
}

const DefaultListLimit = 50

type RunFilter struct {
	Width  *int
	Height *int
	Limit  int
}

func (f RunFilter) WhereClause() (string, pgx.NamedArgs) {
	args := pgx.NamedArgs{}
	whereClauses := []string{}
	if f.Width != nil {
		args["width"] = *f.Width
		whereClauses = append(whereClauses, "width = @width")
	}
	if f.Height != nil {
		args["height"] = *f.Height
		whereClauses = append(whereClauses, "height = @height")
	}
	if len(whereClauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(whereClauses, " AND "), args
}

func (f RunFilter) limit() int {
	if f.Limit <= 0 {
		return DefaultListLimit
	}
	return f.Limit
}

// run columns in the order every scan expects them
const runColumns = `run_id, digest, width, height, visited, exit,
	loop_obstructions, patrol_ms, search_ms, created_at`

type scanner interface {
	Scan(dest ...any) error
}

type runRow struct {
	run   Run
	exit  *string
	loops []byte
}

func (r *runRow) decode() (*Run, error) {
	if r.exit != nil {
		dir, err := patrol.ParseDirection(*r.exit)
		if err != nil {
			return nil, fmt.Errorf("run %d: %w", r.run.RunId, err)
		}
		r.run.Exit = &dir
	}
	if err := json.Unmarshal(r.loops, &r.run.LoopObstructions); err != nil {
		return nil, fmt.Errorf("run %d: unable to decode obstructions: %w", r.run.RunId, err)
	}
	return &r.run, nil
}

func encodeRun(run Run) (exit *string, loops string, err error) {
	if run.Exit != nil {
		s := run.Exit.String()
		exit = &s
	}
	obstructions := run.LoopObstructions
	if obstructions == nil {
		obstructions = []patrol.Location{}
	}
	b, err := json.Marshal(obstructions)
	if err != nil {
		return nil, "", err
	}
	return exit, string(b), nil
}
