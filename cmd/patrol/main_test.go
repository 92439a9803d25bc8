package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drewmcarthur/guard-patrol/internal/config"
	"github.com/drewmcarthur/guard-patrol/internal/patrol"
	"github.com/drewmcarthur/guard-patrol/internal/repository"
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

func TestMain(m *testing.M) {
	patrol.Log.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: true,
	})
	m.Run()
}

func newTestApp(t *testing.T, withStore bool) *application {
	t.Helper()
	logger, _ := test.NewNullLogger()
	app := &application{
		log:     logger,
		workers: 2,
		ws:      config.NewWebSocket(),
	}
	if withStore {
		store, err := repository.NewSQLite(context.Background(), filepath.Join(t.TempDir(), "runs.db"))
		require.NoError(t, err)
		t.Cleanup(func() { store.Close() })
		app.store = store
	}
	return app
}

func postGrid(t *testing.T, h http.Handler, query, grid string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/patrol"+query, strings.NewReader(grid)))
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return rec, body
}

func TestHandlePatrol(t *testing.T) {
	h := newTestApp(t, true).Router()

	rec, body := postGrid(t, h, "?workers=4", example)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.EqualValues(t, 41, body["visited"])
	assert.Equal(t, "down", body["exit"])
	assert.Len(t, body["loop_obstructions"], 6)
	assert.Equal(t, false, body["cached"])
	assert.NotContains(t, body, "trace")

	rec, body = postGrid(t, h, "?trace=true", example+"\n")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["cached"])
	assert.EqualValues(t, 1, body["run_id"])
	assert.Equal(t, 41, strings.Count(body["trace"].(string), "X")+1)
}

func TestHandlePatrolWithoutStore(t *testing.T) {
	h := newTestApp(t, false).Router()

	for range 2 {
		rec, body := postGrid(t, h, "", example)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, false, body["cached"])
		assert.EqualValues(t, 0, body["run_id"])
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/runs", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlePatrolBadInput(t *testing.T) {
	h := newTestApp(t, false).Router()

	tests := []struct {
		name  string
		query string
		grid  string
		code  int
	}{
		{"empty", "", "", http.StatusBadRequest},
		{"ragged", "", "...\n.^", http.StatusBadRequest},
		{"workers", "?workers=many", example, http.StatusBadRequest},
		{"no guard", "", "...\n...", http.StatusUnprocessableEntity},
		{"two guards", "", ".^.\n.<.", http.StatusUnprocessableEntity},
		{"unknown char", "", ">.a", http.StatusUnprocessableEntity},
		{"too large", "", strings.Repeat(".", maxGridBytes+1), http.StatusRequestEntityTooLarge},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			rec, body := postGrid(t, h, test.query, test.grid)
			assert.Equal(t, test.code, rec.Code)
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestHandleRuns(t *testing.T) {
	h := newTestApp(t, true).Router()

	rec, _ := postGrid(t, h, "", example)
	require.Equal(t, http.StatusOK, rec.Code)
	rec, _ = postGrid(t, h, "", "...\n.^.")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/runs?width=10", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var runs []repository.Run
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &runs))
	require.Len(t, runs, 1)
	assert.Equal(t, 10, runs[0].Height)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/runs/2", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var run repository.Run
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &run))
	assert.Equal(t, 3, run.Width)
	assert.Equal(t, 2, run.Visited)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/runs/99", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/runs/abc", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestConnectWs(t *testing.T) {
	server := httptest.NewServer(newTestApp(t, true).Router())
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/v1/patrol/connect"
	c, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.WriteMessage(websocket.TextMessage, []byte(example)))

	trials, loops := 0, 0
	for {
		var msg wsMessage
		require.NoError(t, c.ReadJSON(&msg))
		if msg.Type == "run" {
			require.NotNil(t, msg.Run)
			assert.Equal(t, 41, msg.Run.Visited)
			assert.Equal(t, 6, msg.Run.LoopCount())
			assert.Positive(t, msg.Run.RunId)
			break
		}
		require.Equal(t, "trial", msg.Type, msg.Error)
		trials++
		if msg.Trial.Loop {
			loops++
		}
	}
	assert.Equal(t, 91, trials)
	assert.Equal(t, 6, loops)

	require.NoError(t, c.WriteMessage(websocket.TextMessage, []byte("..\n.")))
	var msg wsMessage
	require.NoError(t, c.ReadJSON(&msg))
	assert.Equal(t, "error", msg.Type)
	assert.NotEmpty(t, msg.Error)
}

func TestSolve(t *testing.T) {
	path := filepath.Join(t.TempDir(), "input.txt")
	require.NoError(t, os.WriteFile(path, []byte(example+"\n"), 0o600))

	app := newTestApp(t, true)
	var out bytes.Buffer
	require.NoError(t, app.solve(context.Background(), path, true, &out))

	lines := strings.Split(out.String(), "\n")
	assert.Equal(t, "Solving map with dimensions 10x10", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "Part 1: 41 (left the grid down)"), lines[1])
	assert.Equal(t, "....#.....", lines[2])
	assert.Equal(t, "....XXXXX#", lines[3])
	assert.True(t, strings.HasPrefix(lines[12], "Part 2: 6 in"), lines[12])

	runs, err := app.store.ListRuns(context.Background(), repository.RunFilter{})
	require.NoError(t, err)
	assert.Len(t, runs, 1)

	assert.Error(t, app.solve(context.Background(), filepath.Join(t.TempDir(), "missing.txt"), false, &out))
}
