package patrol

import "fmt"

// Location is a validated, non-negative cell coordinate. Locations are
// only obtained from a [Grid] (bounds checked) or from [MaybeLocation.Location].
type Location struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (l Location) String() string {
	return fmt.Sprintf("%d:%d", l.X, l.Y)
}

// MoveIn returns the neighbouring coordinate in direction d. The result
// has not been bounds checked.
func (l Location) MoveIn(d Direction) MaybeLocation {
	return MaybeLocation{X: l.X + d.Dx(), Y: l.Y + d.Dy()}
}

// MaybeLocation is a signed coordinate that may lie outside of any grid.
type MaybeLocation struct {
	X, Y int
}

// Location converts m into a [Location], rejecting negative coordinates.
// The upper bounds are the grid's business.
func (m MaybeLocation) Location() (Location, error) {
	switch {
	case m.X < 0:
		return Location{}, &OutOfBoundsError{Direction: Left}
	case m.Y < 0:
		return Location{}, &OutOfBoundsError{Direction: Up}
	}
	return Location{X: m.X, Y: m.Y}, nil
}

// Pose is the complete state of a guard: where it stands and where it faces.
type Pose struct {
	Location  Location  `json:"location"`
	Direction Direction `json:"direction"`
}

func (p Pose) String() string {
	return fmt.Sprintf("%s %s", p.Location, p.Direction)
}
