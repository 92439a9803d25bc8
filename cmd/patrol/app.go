package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/drewmcarthur/guard-patrol/internal/config"
	"github.com/drewmcarthur/guard-patrol/internal/patrol"
	"github.com/drewmcarthur/guard-patrol/internal/repository"
)

type application struct {
	log     *logrus.Logger
	store   repository.Store // nil when runs are not persisted
	workers int
	ws      *config.WebSocket
}

// compute runs both patrol phases on grid without consulting the store.
func (app *application) compute(
	ctx context.Context, grid *patrol.Grid, opts ...patrol.SearchOption,
) (*repository.Run, error) {
	digest := repository.Digest(grid)
	opts = append([]patrol.SearchOption{patrol.Workers(app.workers)}, opts...)
	report, err := patrol.Analyze(ctx, grid, patrol.WithSearch(opts...))
	if err != nil {
		return nil, err
	}
	run := repository.NewRun(digest, report)
	app.log.WithFields(logrus.Fields{
		"digest":  digest,
		"visited": run.Visited,
		"loops":   run.LoopCount(),
	}).Info("grid analyzed")
	return &run, nil
}

// save persists run unless an identical grid was stored first, in which
// case the stored run wins.
func (app *application) save(ctx context.Context, run *repository.Run) (*repository.Run, error) {
	if app.store == nil {
		return run, nil
	}
	created, err := app.store.CreateRun(ctx, *run)
	if errors.Is(err, repository.ErrRunExists) {
		app.log.WithField("digest", run.Digest).Debug("run already stored")
		return app.store.GetRunByDigest(ctx, run.Digest)
	}
	return created, err
}

// analyze returns the stored run for grid if there is one and computes
// and stores it otherwise.
func (app *application) analyze(
	ctx context.Context, grid *patrol.Grid, opts ...patrol.SearchOption,
) (run *repository.Run, cached bool, err error) {
	if app.store != nil {
		run, err = app.store.GetRunByDigest(ctx, repository.Digest(grid))
		if err == nil {
			return run, true, nil
		} else if !errors.Is(err, repository.ErrRunNotFound) {
			return nil, false, err
		}
	}
	run, err = app.compute(ctx, grid, opts...)
	if err != nil {
		return nil, false, err
	}
	run, err = app.save(ctx, run)
	return run, false, err
}

func (app *application) Router() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /v1/status", app.handleStatus)
	mux.HandleFunc("POST /v1/patrol", app.handlePatrol)
	mux.HandleFunc("/v1/patrol/connect", app.handleConnectWs)

	if app.store != nil {
		mux.HandleFunc("GET /v1/runs", app.handleListRuns)
		mux.HandleFunc("GET /v1/runs/{id}", app.handleGetRun)
	}

	return mux
}

func (app *application) badRequest(w http.ResponseWriter, err error) {
	app.replyWithJSON(w, http.StatusBadRequest, wrapError(err))
}

func (app *application) unprocessable(w http.ResponseWriter, err error) {
	app.replyWithJSON(w, http.StatusUnprocessableEntity, wrapError(err))
}

func (app *application) notFound(w http.ResponseWriter) {
	app.replyWithJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
}

func (app *application) internalError(w http.ResponseWriter, msg string, err error) {
	app.replyWithJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	app.log.WithError(err).Error(msg)
}

func (app *application) replyWithJSON(w http.ResponseWriter, statusCode int, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		app.log.WithError(err).Error("failed to marshal json")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if _, err := w.Write(payload); err != nil {
		app.log.WithError(err).Error("failed to send data")
	}
}

func wrapError(err error) map[string]string {
	return map[string]string{
		"error": err.Error(),
	}
}
