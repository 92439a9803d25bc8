package patrol

import "fmt"

// Guard walks a grid: straight ahead while the way is open, turning right
// in front of a wall. Every pose it takes is remembered so that a repeat
// is detected as a loop.
type Guard struct {
	grid    *Grid
	current Pose
	history History
	steps   int
}

// NewGuard places a guard on the grid's guard marker, facing the way the
// marker points.
func NewGuard(grid *Grid) (*Guard, error) {
	start, err := StartPose(grid)
	if err != nil {
		return nil, err
	}
	return newGuardAt(grid, start), nil
}

// StartPose is the pose implied by the grid's guard marker.
func StartPose(grid *Grid) (Pose, error) {
	loc, err := grid.FindGuard()
	if err != nil {
		return Pose{}, err
	}
	dir, ok := DirectionOf(grid.CharAt(loc))
	if !ok {
		// FindGuard only returns markers
		panic(fmt.Sprintf("patrol: no direction for marker %q", grid.CharAt(loc)))
	}
	return Pose{Location: loc, Direction: dir}, nil
}

func newGuardAt(grid *Grid, start Pose) *Guard {
	return &Guard{
		grid:    grid,
		current: start,
		history: newHistory(start),
	}
}

func (g *Guard) Pose() Pose { return g.current }

// Steps is the number of successful steps taken, turns included.
func (g *Guard) Steps() int { return g.steps }

func (g *Guard) turn() error {
	g.current.Direction = g.current.Direction.TurnRight()
	return g.history.Push(g.current)
}

// Step advances the guard by one move or one turn. The returned error is
// terminal: [*OutOfBoundsError] when the guard walks off the grid,
// [*StuckInLoopError] when the new pose was seen before and
// [*UnknownCharError] when the cell ahead is not part of the alphabet.
func (g *Guard) Step() error {
	next := g.current.Location.MoveIn(g.current.Direction)

	c, err := g.grid.TryCharAt(next)
	if err != nil {
		return err
	}

	switch {
	case c == Wall:
		if err := g.turn(); err != nil {
			return err
		}
	case canMoveTo(c):
		loc, err := next.Location()
		if err != nil {
			return err
		}
		g.current.Location = loc
		if err := g.history.Push(g.current); err != nil {
			return err
		}
	default:
		return &UnknownCharError{Char: c}
	}

	g.steps++
	return nil
}

// Patrol steps until the guard stops and returns the reason it stopped.
func (g *Guard) Patrol() error {
	for {
		if err := g.Step(); err != nil {
			return err
		}
	}
}

func (g *Guard) NumLocationsVisited() int {
	return len(g.history.Locations())
}

func (g *Guard) VisitedLocations() []Location {
	return g.history.Locations()
}
