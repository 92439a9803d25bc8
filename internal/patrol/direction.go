package patrol

import (
	"encoding/json"
	"fmt"
)

// Direction is one of the four cardinal headings a guard can face.
// Values are ordered clockwise so that turning right is an increment.
type Direction int8

const (
	Up Direction = iota
	Right
	Down
	Left
)

var directionNames = [...]string{
	Up:    "up",
	Right: "right",
	Down:  "down",
	Left:  "left",
}

func (d Direction) String() string {
	if d < Up || d > Left {
		return fmt.Sprintf("Direction(%d)", int8(d))
	}
	return directionNames[d]
}

// Dx is the horizontal unit delta of d.
func (d Direction) Dx() int {
	switch d {
	case Right:
		return 1
	case Left:
		return -1
	default:
		return 0
	}
}

// Dy is the vertical unit delta of d. Rows grow downwards.
func (d Direction) Dy() int {
	switch d {
	case Down:
		return 1
	case Up:
		return -1
	default:
		return 0
	}
}

func (d Direction) TurnRight() Direction {
	return (d + 1) % 4
}

// Marker is the canonical guard marker facing d.
func (d Direction) Marker() rune {
	switch d {
	case Up:
		return '^'
	case Right:
		return '>'
	case Down:
		return 'v'
	default:
		return '<'
	}
}

// DirectionOf maps a guard marker to the heading it implies.
func DirectionOf(marker rune) (Direction, bool) {
	switch marker {
	case '^':
		return Up, true
	case '>':
		return Right, true
	case 'v', 'V':
		return Down, true
	case '<':
		return Left, true
	}
	return 0, false
}

// [Direction] implements [json.Marshaler]
func (d Direction) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Direction) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	dir, err := ParseDirection(s)
	if err != nil {
		return err
	}
	*d = dir
	return nil
}

// ParseDirection is the inverse of [Direction.String].
func ParseDirection(s string) (Direction, error) {
	for i, name := range directionNames {
		if name == s {
			return Direction(i), nil
		}
	}
	return 0, fmt.Errorf("invalid direction %q", s)
}
