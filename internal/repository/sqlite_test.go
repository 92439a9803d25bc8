package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drewmcarthur/guard-patrol/internal/config"
	"github.com/drewmcarthur/guard-patrol/internal/patrol"
)

func setupTestStore(t *testing.T) Store {
	t.Helper()
	s, err := Open(context.Background(), config.Store{
		Driver: config.DriverSQLite,
		DSN:    filepath.Join(t.TempDir(), "runs.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testRun(digest string, width, height int) Run {
	exit := patrol.Down
	return Run{
		Digest:  digest,
		Width:   width,
		Height:  height,
		Visited: 41,
		Exit:    &exit,
		LoopObstructions: []patrol.Location{
			{X: 3, Y: 6}, {X: 6, Y: 7},
		},
		PatrolMs: 0.5,
		SearchMs: 12.25,
	}
}

func TestStoreCreateAndGet(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)

	created, err := s.CreateRun(ctx, testRun("abc", 10, 10))
	require.NoError(t, err)
	assert.Positive(t, created.RunId)
	assert.WithinDuration(t, time.Now(), created.CreatedAt, time.Minute)

	got, err := s.GetRun(ctx, created.RunId)
	require.NoError(t, err)
	assert.True(t, created.CreatedAt.Equal(got.CreatedAt))
	got.CreatedAt = created.CreatedAt
	assert.Equal(t, created, got)

	got, err = s.GetRunByDigest(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, created.RunId, got.RunId)
	assert.Equal(t, 2, got.LoopCount())
}

func TestStoreLoopingRun(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)

	run := testRun("loop", 4, 4)
	run.Exit = nil
	run.LoopObstructions = nil
	created, err := s.CreateRun(ctx, run)
	require.NoError(t, err)

	got, err := s.GetRun(ctx, created.RunId)
	require.NoError(t, err)
	assert.Nil(t, got.Exit)
	assert.Equal(t, []patrol.Location{}, got.LoopObstructions)
}

func TestStoreNotFound(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)

	_, err := s.GetRun(ctx, 42)
	assert.ErrorIs(t, err, ErrRunNotFound)
	_, err = s.GetRunByDigest(ctx, "nothing")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestStoreDuplicateDigest(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)

	_, err := s.CreateRun(ctx, testRun("same", 10, 10))
	require.NoError(t, err)
	_, err = s.CreateRun(ctx, testRun("same", 10, 10))
	assert.ErrorIs(t, err, ErrRunExists)
}

func TestStoreListRuns(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)

	for i, size := range [][2]int{{10, 10}, {5, 5}, {10, 10}, {10, 4}} {
		_, err := s.CreateRun(ctx, testRun(string(rune('a'+i)), size[0], size[1]))
		require.NoError(t, err)
	}

	runs, err := s.ListRuns(ctx, RunFilter{})
	require.NoError(t, err)
	require.Len(t, runs, 4)
	assert.Equal(t, "d", runs[0].Digest)

	width, height := 10, 10
	runs, err = s.ListRuns(ctx, RunFilter{Width: &width, Height: &height})
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "c", runs[0].Digest)
	assert.Equal(t, "a", runs[1].Digest)

	runs, err = s.ListRuns(ctx, RunFilter{Width: &width, Limit: 1})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "d", runs[0].Digest)
}
