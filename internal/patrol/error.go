package patrol

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEmptyGrid = errors.New("empty grid")
	ErrNoGuard   = errors.New("no guard marker on grid")
)

// OutOfBoundsError reports an attempt to leave the grid across the edge
// in Direction.
type OutOfBoundsError struct {
	Direction Direction
}

// [OutOfBoundsError] implements [error]
func (e *OutOfBoundsError) Error() string {
	return "out of bounds: " + e.Direction.String()
}

// StuckInLoopError reports a pose that was already present in the
// guard's history.
type StuckInLoopError struct {
	Pose Pose
}

func (e *StuckInLoopError) Error() string {
	return "stuck in loop at " + e.Pose.String()
}

// UnknownCharError reports a cell the guard can neither walk into nor
// turn away from.
type UnknownCharError struct {
	Char rune
}

func (e *UnknownCharError) Error() string {
	return fmt.Sprintf("unknown char %q", e.Char)
}

type RaggedRowError struct {
	Row, Want, Got int
}

func (e *RaggedRowError) Error() string {
	return fmt.Sprintf("row %d has %d cells, want %d", e.Row, e.Got, e.Want)
}

// AmbiguousGuardError is returned when a grid holds more than one guard
// marker. No marker is preferred over another.
type AmbiguousGuardError struct {
	Locations []Location
}

func (e *AmbiguousGuardError) Error() string {
	locs := make([]string, len(e.Locations))
	for i, l := range e.Locations {
		locs[i] = l.String()
	}
	return "ambiguous guard markers at " + strings.Join(locs, ", ")
}

// IsLoop reports whether err ends a patrol in a cycle.
func IsLoop(err error) bool {
	var e *StuckInLoopError
	return errors.As(err, &e)
}

// ExitDirection reports the edge a patrol ended on, if it left the grid.
func ExitDirection(err error) (Direction, bool) {
	var e *OutOfBoundsError
	if errors.As(err, &e) {
		return e.Direction, true
	}
	return 0, false
}
