// Package grid holds the static structure of a building: walls, doors, objects
// and the free floor pedestrians walk on.
package grid

import (
	"errors"
)

var (
	// ErrMalformedMap indicates an empty grid or rows of differing lengths.
	ErrMalformedMap = errors.New("grid: malformed map")
)

// Cell is the content of a single grid position.
type Cell uint8

const (
	Empty Cell = iota
	Wall
	Door
	Object
	Void
)

// String returns the map code of the cell.
func (c Cell) String() string {
	return string(rune('0' + c))
}

// Blocked reports whether pedestrians and distance rays cannot cross the cell.
func (c Cell) Blocked() bool {
	return c == Wall || c == Object || c == Void
}

// Walkable reports whether a pedestrian may step onto the cell.
func (c Cell) Walkable() bool {
	return c == Empty || c == Door
}

// cellFromRune maps a map code to a Cell. Unknown codes are floor.
func cellFromRune(r rune) Cell {
	switch r {
	case '1':
		return Wall
	case '2':
		return Door
	case '3':
		return Object
	case '4':
		return Void
	default:
		return Empty
	}
}

// Point is a (row, col) coordinate.
type Point struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Direction is the orientation of a grouped door.
type Direction string

const (
	Horizontal Direction = "H"
	Vertical   Direction = "V"
)

// DoorSpec is a run of adjacent door cells starting at (Row, Col).
type DoorSpec struct {
	Row       int       `json:"row"`
	Col       int       `json:"col"`
	Size      int       `json:"size"`
	Direction Direction `json:"direction"`
}

// Cells expands the door into per-cell coordinates. A non-positive size is
// treated as a single cell, and an unknown direction yields only the origin.
func (d DoorSpec) Cells() []Point {
	size := d.Size
	if size <= 0 {
		size = 1
	}

	switch d.Direction {
	case Horizontal:
		cells := make([]Point, 0, size)
		for i := 0; i < size; i++ {
			cells = append(cells, Point{Row: d.Row, Col: d.Col + i})
		}
		return cells
	case Vertical:
		cells := make([]Point, 0, size)
		for i := 0; i < size; i++ {
			cells = append(cells, Point{Row: d.Row + i, Col: d.Col})
		}
		return cells
	default:
		return []Point{{Row: d.Row, Col: d.Col}}
	}
}
