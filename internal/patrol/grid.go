package patrol

import (
	"fmt"
	"io"
	"iter"
	"slices"
	"strings"
	"unicode/utf8"
)

const (
	Open    = '.'
	Visited = 'X'
	Wall    = '#'
)

// Grid is a rectangular character map the guard patrols. Cells are stored
// row-major.
type Grid struct {
	cells         []rune
	width, height int
}

// Parse builds a grid from newline separated rows. Trailing blank lines
// and carriage returns are ignored; every remaining row must be as long
// as the first one.
func Parse(text string) (*Grid, error) {
	rows := strings.Split(text, "\n")
	for i := range rows {
		rows[i] = strings.TrimSuffix(rows[i], "\r")
	}
	for len(rows) > 0 && rows[len(rows)-1] == "" {
		rows = rows[:len(rows)-1]
	}
	if len(rows) == 0 {
		return nil, ErrEmptyGrid
	}

	width := utf8.RuneCountInString(rows[0])
	g := &Grid{
		cells:  make([]rune, 0, width*len(rows)),
		width:  width,
		height: len(rows),
	}
	for y, row := range rows {
		if n := utf8.RuneCountInString(row); n != width {
			return nil, &RaggedRowError{Row: y, Want: width, Got: n}
		}
		g.cells = append(g.cells, []rune(row)...)
	}
	return g, nil
}

func ReadGrid(r io.Reader) (*Grid, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("unable to read grid: %w", err)
	}
	return Parse(string(b))
}

func (g *Grid) Width() int  { return g.width }
func (g *Grid) Height() int { return g.height }

// CheckInBounds reports which edge m lies beyond, if any.
func (g *Grid) CheckInBounds(m MaybeLocation) error {
	switch {
	case m.X < 0:
		return &OutOfBoundsError{Direction: Left}
	case m.Y < 0:
		return &OutOfBoundsError{Direction: Up}
	case m.Y >= g.height:
		return &OutOfBoundsError{Direction: Down}
	case m.X >= g.width:
		return &OutOfBoundsError{Direction: Right}
	}
	return nil
}

// TryCharAt validates m against the grid before reading it.
func (g *Grid) TryCharAt(m MaybeLocation) (rune, error) {
	if err := g.CheckInBounds(m); err != nil {
		return 0, err
	}
	loc, err := m.Location()
	if err != nil {
		return 0, err
	}
	return g.CharAt(loc), nil
}

// CharAt reads an already validated location.
func (g *Grid) CharAt(loc Location) rune {
	return g.cells[loc.Y*g.width+loc.X]
}

func (g *Grid) SetCharAt(loc Location, c rune) {
	g.cells[loc.Y*g.width+loc.X] = c
}

// Cells yields every location of the grid, row by row.
func (g *Grid) Cells() iter.Seq[Location] {
	return func(yield func(Location) bool) {
		for y := range g.height {
			for x := range g.width {
				if !yield(Location{X: x, Y: y}) {
					return
				}
			}
		}
	}
}

// FindGuard locates the single guard marker on the grid.
func (g *Grid) FindGuard() (Location, error) {
	var found []Location
	for loc := range g.Cells() {
		if IsGuard(g.CharAt(loc)) {
			found = append(found, loc)
		}
	}
	switch len(found) {
	case 0:
		return Location{}, ErrNoGuard
	case 1:
		return found[0], nil
	default:
		return Location{}, &AmbiguousGuardError{Locations: found}
	}
}

// WithObstruction places a wall at loc for the duration of fn. The
// original cell is put back however fn returns, panics included.
func (g *Grid) WithObstruction(loc Location, fn func() error) error {
	if err := g.CheckInBounds(MaybeLocation(loc)); err != nil {
		return err
	}
	prev := g.CharAt(loc)
	g.SetCharAt(loc, Wall)
	defer g.SetCharAt(loc, prev)
	return fn()
}

func (g *Grid) Clone() *Grid {
	return &Grid{
		cells:  slices.Clone(g.cells),
		width:  g.width,
		height: g.height,
	}
}

func (g *Grid) Equal(other *Grid) bool {
	return g.width == other.width &&
		g.height == other.height &&
		slices.Equal(g.cells, other.cells)
}

// MarkPath returns a copy of the grid with every open cell in locs
// marked as visited.
func (g *Grid) MarkPath(locs []Location) *Grid {
	marked := g.Clone()
	for _, loc := range locs {
		if marked.CharAt(loc) == Open {
			marked.SetCharAt(loc, Visited)
		}
	}
	return marked
}

func (g *Grid) String() string {
	var b strings.Builder
	for y := range g.height {
		if y > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(string(g.cells[y*g.width : (y+1)*g.width]))
	}
	return b.String()
}

func IsGuard(c rune) bool {
	_, ok := DirectionOf(c)
	return ok
}

func canMoveTo(c rune) bool {
	return c == Open || c == Visited || IsGuard(c)
}
