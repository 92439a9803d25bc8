package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/drewmcarthur/guard-patrol/internal/patrol"
	"github.com/drewmcarthur/guard-patrol/internal/repository"
)

// solve prints both results for the grid stored at path.
func (app *application) solve(ctx context.Context, path string, trace bool, out io.Writer) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("unable to open grid: %w", err)
	}
	defer f.Close()

	grid, err := patrol.ReadGrid(f)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	digest := repository.Digest(grid)
	fmt.Fprintf(out, "Solving map with dimensions %dx%d\n", grid.Width(), grid.Height())

	opts := []patrol.AnalyzeOption{patrol.WithSearch(patrol.Workers(app.workers))}
	if trace {
		opts = append(opts, patrol.WithPath())
	}
	report, err := patrol.Analyze(ctx, grid, opts...)
	if err != nil {
		return err
	}

	if report.Exited() {
		fmt.Fprintf(out, "Part 1: %d (left the grid %s) in %v\n",
			report.Visited, *report.Exit, report.PatrolTime)
	} else {
		fmt.Fprintf(out, "Part 1: %d (stuck in a loop) in %v\n",
			report.Visited, report.PatrolTime)
	}
	if trace {
		fmt.Fprintln(out, grid.MarkPath(report.Path))
	}
	fmt.Fprintf(out, "Part 2: %d in %v\n", len(report.LoopObstructions), report.SearchTime)

	run := repository.NewRun(digest, report)
	saved, err := app.save(ctx, &run)
	if err != nil {
		return fmt.Errorf("unable to save run: %w", err)
	}
	if app.store != nil {
		app.log.WithField("run_id", saved.RunId).Info("run saved")
	}
	return nil
}
