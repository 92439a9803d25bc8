package main

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/schema"

	"github.com/drewmcarthur/guard-patrol/internal/patrol"
	"github.com/drewmcarthur/guard-patrol/internal/repository"
)

const maxGridBytes = 1 << 20

var dec = schema.NewDecoder()

func init() {
	dec.IgnoreUnknownKeys(true)
}

type PatrolParams struct {
	Workers int  `schema:"workers"`
	Trace   bool `schema:"trace"`
}

type RunsParams struct {
	Limit  int  `schema:"limit"`
	Width  *int `schema:"width"`
	Height *int `schema:"height"`
}

type patrolResponse struct {
	*repository.Run
	Cached bool   `json:"cached"`
	Trace  string `json:"trace,omitempty"`
}

// isInputError reports errors caused by a well-formed grid the guard
// cannot patrol.
func isInputError(err error) bool {
	var (
		unknown   *patrol.UnknownCharError
		ambiguous *patrol.AmbiguousGuardError
	)
	return errors.As(err, &unknown) ||
		errors.As(err, &ambiguous) ||
		errors.Is(err, patrol.ErrNoGuard)
}

// tracePath draws the unobstructed patrol onto a copy of grid.
func tracePath(grid *patrol.Grid) (string, error) {
	guard, err := patrol.NewGuard(grid)
	if err != nil {
		return "", err
	}
	if err := guard.Patrol(); !patrol.IsLoop(err) {
		if _, ok := patrol.ExitDirection(err); !ok {
			return "", err
		}
	}
	return grid.MarkPath(guard.VisitedLocations()).String(), nil
}

func (app *application) handleStatus(w http.ResponseWriter, r *http.Request) {
	app.replyWithJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"workers": app.workers,
		"store":   app.store != nil,
	})
}

func (app *application) handlePatrol(w http.ResponseWriter, r *http.Request) {
	var params PatrolParams
	if err := dec.Decode(&params, r.URL.Query()); err != nil {
		app.badRequest(w, err)
		return
	}

	grid, err := patrol.ReadGrid(http.MaxBytesReader(w, r.Body, maxGridBytes))
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		app.replyWithJSON(w, http.StatusRequestEntityTooLarge, wrapError(err))
		return
	} else if err != nil {
		app.badRequest(w, err)
		return
	}

	var opts []patrol.SearchOption
	if params.Workers > 0 {
		opts = append(opts, patrol.Workers(min(params.Workers, app.workers)))
	}

	run, cached, err := app.analyze(r.Context(), grid, opts...)
	if isInputError(err) {
		app.unprocessable(w, err)
		return
	} else if err != nil {
		app.internalError(w, "unable to analyze grid", err)
		return
	}

	resp := patrolResponse{Run: run, Cached: cached}
	if params.Trace {
		if resp.Trace, err = tracePath(grid); err != nil {
			app.internalError(w, "unable to trace patrol", err)
			return
		}
	}
	app.replyWithJSON(w, http.StatusOK, resp)
}

func (app *application) handleListRuns(w http.ResponseWriter, r *http.Request) {
	var params RunsParams
	if err := dec.Decode(&params, r.URL.Query()); err != nil {
		app.badRequest(w, err)
		return
	}
	runs, err := app.store.ListRuns(r.Context(), repository.RunFilter{
		Width:  params.Width,
		Height: params.Height,
		Limit:  params.Limit,
	})
	if err != nil {
		app.internalError(w, "unable to list runs", err)
		return
	}
	app.replyWithJSON(w, http.StatusOK, runs)
}

func (app *application) handleGetRun(w http.ResponseWriter, r *http.Request) {
	runId, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		app.badRequest(w, err)
		return
	}
	run, err := app.store.GetRun(r.Context(), runId)
	if errors.Is(err, repository.ErrRunNotFound) {
		app.notFound(w)
		return
	} else if err != nil {
		app.internalError(w, "unable to fetch run", err)
		return
	}
	app.replyWithJSON(w, http.StatusOK, run)
}
