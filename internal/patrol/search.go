package patrol

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

var Log = logrus.New()

// Trial is the outcome of patrolling with one extra obstruction in place.
type Trial struct {
	Location Location `json:"location"`
	Loop     bool     `json:"loop"`
	Steps    int      `json:"steps"`
}

type searchOptions struct {
	workers int
	onTrial func(Trial)
}

type SearchOption = func(*searchOptions) error

// Workers spreads the trials over n goroutines, each working on its own
// copy of the grid. The caller's grid is left untouched in that case.
func Workers(n int) SearchOption {
	return func(o *searchOptions) error {
		if n < 1 {
			return fmt.Errorf("invalid worker count %d", n)
		}
		o.workers = n
		return nil
	}
}

// OnTrial registers fn to be called after every trial. Calls never
// overlap, but with more than one worker they are not in row-major order.
func OnTrial(fn func(Trial)) SearchOption {
	return func(o *searchOptions) error {
		o.onTrial = fn
		return nil
	}
}

// FindLoopObstructions tries a wall on every cell that is neither a wall
// nor the guard and returns, row-major, the cells where that wall traps
// the guard in a loop. Every trial restarts the guard from its marker.
//
// The grid is mutated while the search runs and is restored cell by cell,
// so it is byte-identical to its input once the call returns, even on
// error. An [*UnknownCharError] met during a trial aborts the search.
func FindLoopObstructions(
	ctx context.Context, grid *Grid, opts ...SearchOption,
) ([]Location, error) {
	o := searchOptions{workers: 1}
	for _, opt := range opts {
		if err := opt(&o); err != nil {
			return nil, err
		}
	}

	start, err := StartPose(grid)
	if err != nil {
		return nil, err
	}

	log := Log.WithFields(logrus.Fields{
		"grid":    fmt.Sprintf("%dx%d", grid.width, grid.height),
		"start":   start.String(),
		"workers": o.workers,
	})
	log.Debug("obstruction search started")

	var found []Location
	if o.workers > 1 {
		found, err = searchParallel(ctx, grid, start, o)
	} else {
		found, err = searchRows(ctx, grid, start, 0, grid.height, o.onTrial)
	}
	if err != nil {
		log.WithError(err).Debug("obstruction search aborted")
		return nil, err
	}

	log.WithField("loops", len(found)).Debug("obstruction search finished")
	return found, nil
}

func searchParallel(
	ctx context.Context, grid *Grid, start Pose, o searchOptions,
) ([]Location, error) {
	onTrial := o.onTrial
	if onTrial != nil {
		var mu sync.Mutex
		onTrial = func(t Trial) {
			mu.Lock()
			defer mu.Unlock()
			o.onTrial(t)
		}
	}

	rows := make([][]Location, grid.height)
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers)
	for y := range grid.height {
		g.Go(func() error {
			found, err := searchRows(gCtx, grid.Clone(), start, y, y+1, onTrial)
			if err != nil {
				return err
			}
			rows[y] = found
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return slices.Concat(rows...), nil
}

func searchRows(
	ctx context.Context, grid *Grid, start Pose, fromY, toY int, onTrial func(Trial),
) ([]Location, error) {
	var found []Location
	for y := fromY; y < toY; y++ {
		for x := range grid.width {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			loc := Location{X: x, Y: y}
			trial, ok, err := runTrial(grid, start, loc)
			if err != nil {
				return nil, fmt.Errorf("trial at %s: %w", loc, err)
			}
			if !ok {
				continue
			}
			if onTrial != nil {
				onTrial(trial)
			}
			if trial.Loop {
				found = append(found, loc)
			}
		}
	}
	return found, nil
}

// runTrial reports ok = false for cells that are not candidates.
func runTrial(grid *Grid, start Pose, loc Location) (trial Trial, ok bool, err error) {
	if c := grid.CharAt(loc); c == Wall || IsGuard(c) {
		return Trial{}, false, nil
	}

	trial.Location = loc
	err = grid.WithObstruction(loc, func() error {
		guard := newGuardAt(grid, start)
		err := guard.Patrol()
		trial.Steps = guard.Steps()
		if IsLoop(err) {
			trial.Loop = true
			return nil
		}
		if _, exited := ExitDirection(err); exited {
			return nil
		}
		return err
	})
	if err != nil {
		return Trial{}, false, err
	}

	Log.WithFields(logrus.Fields{
		"location": loc.String(),
		"loop":     trial.Loop,
		"steps":    trial.Steps,
	}).Trace("trial")
	return trial, true, nil
}
