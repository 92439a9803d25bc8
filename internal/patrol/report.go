package patrol

import (
	"context"
	"fmt"
	"time"
)

// Report holds both results for one grid: how much of it an unobstructed
// patrol covers and where a single extra wall would trap the guard.
type Report struct {
	Width            int           `json:"width"`
	Height           int           `json:"height"`
	Start            Pose          `json:"start"`
	Visited          int           `json:"visited"`
	Exit             *Direction    `json:"exit"`
	Path             []Location    `json:"path,omitempty"`
	LoopObstructions []Location    `json:"loop_obstructions"`
	PatrolTime       time.Duration `json:"patrol_time"`
	SearchTime       time.Duration `json:"search_time"`
}

// Exited reports whether the unobstructed patrol left the grid. A guard
// that loops on the grid as given has no exit.
func (r Report) Exited() bool {
	return r.Exit != nil
}

type AnalyzeOption = func(*analyzeOptions)

type analyzeOptions struct {
	path   bool
	search []SearchOption
}

// WithPath keeps the visited locations of the unobstructed patrol.
func WithPath() AnalyzeOption {
	return func(o *analyzeOptions) { o.path = true }
}

func WithSearch(opts ...SearchOption) AnalyzeOption {
	return func(o *analyzeOptions) { o.search = append(o.search, opts...) }
}

// Analyze runs a full patrol on grid and then the obstruction search.
func Analyze(ctx context.Context, grid *Grid, opts ...AnalyzeOption) (*Report, error) {
	var o analyzeOptions
	for _, opt := range opts {
		opt(&o)
	}

	started := time.Now()
	guard, err := NewGuard(grid)
	if err != nil {
		return nil, err
	}
	report := &Report{
		Width:  grid.Width(),
		Height: grid.Height(),
		Start:  guard.Pose(),
	}

	err = guard.Patrol()
	if dir, ok := ExitDirection(err); ok {
		report.Exit = &dir
	} else if !IsLoop(err) {
		return nil, fmt.Errorf("patrol: %w", err)
	}
	report.Visited = guard.NumLocationsVisited()
	if o.path {
		report.Path = guard.VisitedLocations()
	}
	report.PatrolTime = time.Since(started)

	started = time.Now()
	report.LoopObstructions, err = FindLoopObstructions(ctx, grid, o.search...)
	if err != nil {
		return nil, fmt.Errorf("obstruction search: %w", err)
	}
	if report.LoopObstructions == nil {
		report.LoopObstructions = []Location{}
	}
	report.SearchTime = time.Since(started)

	return report, nil
}
