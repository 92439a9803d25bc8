package repository

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drewmcarthur/guard-patrol/internal/patrol"
)

const example = `....#.....
.........#
..........
..#.......
.......#..
..........
.#..^.....
........#.
#.........
......#...`

func TestDigest(t *testing.T) {
	a, err := patrol.Parse(example)
	require.NoError(t, err)
	b, err := patrol.Parse(example + "\r\n")
	require.NoError(t, err)
	assert.Equal(t, Digest(a), Digest(b))
	assert.Len(t, Digest(a), 64)

	b.SetCharAt(patrol.Location{X: 0, Y: 0}, patrol.Wall)
	assert.NotEqual(t, Digest(a), Digest(b))
}

func TestNewRun(t *testing.T) {
	g, err := patrol.Parse(example)
	require.NoError(t, err)
	report, err := patrol.Analyze(context.Background(), g)
	require.NoError(t, err)
	report.PatrolTime = 1500 * time.Microsecond

	run := NewRun(Digest(g), report)
	assert.Equal(t, 41, run.Visited)
	assert.Equal(t, 6, run.LoopCount())
	assert.Equal(t, patrol.Down, *run.Exit)
	assert.InDelta(t, 1.5, run.PatrolMs, 1e-9)
}

func TestRunFilterWhereClause(t *testing.T) {
	where, args := RunFilter{}.WhereClause()
	assert.Empty(t, where)
	assert.Empty(t, args)

	width, height := 3, 4
	where, args = RunFilter{Width: &width, Height: &height}.WhereClause()
	assert.Equal(t, " WHERE width = @width AND height = @height", where)
	assert.Equal(t, pgx.NamedArgs{"width": 3, "height": 4}, args)
}
