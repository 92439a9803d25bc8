package patrol

import "slices"

// History is the set of poses a guard has been in.
type History map[Pose]struct{}

func newHistory(start Pose) History {
	return History{start: {}}
}

// Push records p. A pose seen before means the guard is looping.
func (h History) Push(p Pose) error {
	if _, ok := h[p]; ok {
		return &StuckInLoopError{Pose: p}
	}
	h[p] = struct{}{}
	return nil
}

func (h History) Contains(p Pose) bool {
	_, ok := h[p]
	return ok
}

// Locations returns the distinct locations in h, row-major.
func (h History) Locations() []Location {
	seen := make(map[Location]struct{}, len(h))
	for p := range h {
		seen[p.Location] = struct{}{}
	}
	locs := make([]Location, 0, len(seen))
	for loc := range seen {
		locs = append(locs, loc)
	}
	slices.SortFunc(locs, compareLocations)
	return locs
}

func compareLocations(a, b Location) int {
	if a.Y != b.Y {
		return a.Y - b.Y
	}
	return a.X - b.X
}
