package grid

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Map is a rectangular building grid stored row-major.
type Map struct {
	rows, cols int
	cells      []Cell
	exits      []Point
}

// Load parses newline separated rows of single-digit codes. Blank lines are
// ignored and unknown codes are read as Empty.
func Load(text string) (*Map, error) {
	var rows [][]Cell
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}
		row := make([]Cell, 0, utf8.RuneCountInString(line))
		for _, r := range line {
			row = append(row, cellFromRune(r))
		}
		rows = append(rows, row)
	}

	return FromCells(rows)
}

// FromCells builds a map from a cell matrix, copying it.
func FromCells(rows [][]Cell) (*Map, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, fmt.Errorf("%w: grid must have at least one row and one column", ErrMalformedMap)
	}
	cols := len(rows[0])
	m := &Map{
		rows:  len(rows),
		cols:  cols,
		cells: make([]Cell, 0, len(rows)*cols),
	}
	for i, row := range rows {
		if len(row) != cols {
			return nil, fmt.Errorf("%w: row %d has %d columns, want %d", ErrMalformedMap, i, len(row), cols)
		}
		m.cells = append(m.cells, row...)
	}
	m.exits = m.findExits()

	return m, nil
}

// Rows returns the number of rows.
func (m *Map) Rows() int { return m.rows }

// Cols returns the number of columns.
func (m *Map) Cols() int { return m.cols }

// Index returns the row-major index of (row, col). The position must be in bounds.
func (m *Map) Index(row, col int) int {
	return row*m.cols + col
}

// InBounds reports whether (row, col) lies inside the grid.
func (m *Map) InBounds(row, col int) bool {
	return row >= 0 && row < m.rows && col >= 0 && col < m.cols
}

// At returns the cell at (row, col); positions outside the grid read as Void.
func (m *Map) At(row, col int) Cell {
	if !m.InBounds(row, col) {
		return Void
	}
	return m.cells[m.Index(row, col)]
}

// Walkable reports whether a pedestrian may stand on (row, col).
func (m *Map) Walkable(row, col int) bool {
	return m.At(row, col).Walkable()
}

// Cells returns a copy of the cell matrix.
func (m *Map) Cells() [][]Cell {
	out := make([][]Cell, m.rows)
	for i := range out {
		out[i] = make([]Cell, m.cols)
		copy(out[i], m.cells[i*m.cols:(i+1)*m.cols])
	}
	return out
}

// Exits returns the door cells in row-major order.
func (m *Map) Exits() []Point {
	out := make([]Point, len(m.exits))
	copy(out, m.exits)
	return out
}

func (m *Map) findExits() []Point {
	var exits []Point
	for i, c := range m.cells {
		if c == Door {
			exits = append(exits, Point{Row: i / m.cols, Col: i % m.cols})
		}
	}
	return exits
}

// EmptyPositions returns every Empty cell in row-major order.
func (m *Map) EmptyPositions() []Point {
	var out []Point
	for i, c := range m.cells {
		if c == Empty {
			out = append(out, Point{Row: i / m.cols, Col: i % m.cols})
		}
	}
	return out
}

// Clone returns a deep copy of the map.
func (m *Map) Clone() *Map {
	c := &Map{
		rows:  m.rows,
		cols:  m.cols,
		cells: make([]Cell, len(m.cells)),
		exits: make([]Point, len(m.exits)),
	}
	copy(c.cells, m.cells)
	copy(c.exits, m.exits)
	return c
}

// RewriteDoors turns every current door into wall and opens the given doors.
// Door cells falling outside the grid are skipped.
func (m *Map) RewriteDoors(doors []DoorSpec) {
	for _, p := range m.exits {
		m.cells[m.Index(p.Row, p.Col)] = Wall
	}
	for _, d := range doors {
		for _, p := range d.Cells() {
			if !m.InBounds(p.Row, p.Col) {
				continue
			}
			m.cells[m.Index(p.Row, p.Col)] = Door
		}
	}
	m.exits = m.findExits()
}

// Configure returns a copy of the map with its doors replaced by doors. The
// receiver is left untouched, so a shared base map may be configured from
// several goroutines.
func (m *Map) Configure(doors []DoorSpec) *Map {
	c := m.Clone()
	c.RewriteDoors(doors)
	return c
}

// String renders the map back to its text form.
func (m *Map) String() string {
	var b strings.Builder
	b.Grow(m.rows * (m.cols + 1))
	for r := 0; r < m.rows; r++ {
		for c := 0; c < m.cols; c++ {
			b.WriteString(m.cells[m.Index(r, c)].String())
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// ExtractDoors groups the door cells into DoorSpecs. Horizontal runs of two or
// more cells become H doors; the remaining cells are grouped into vertical runs.
// Specs are ordered by the row-major position of their first cell.
func (m *Map) ExtractDoors() []DoorSpec {
	used := make([]bool, len(m.cells))
	var doors []DoorSpec

	for r := 0; r < m.rows; r++ {
		for c := 0; c < m.cols; {
			if m.At(r, c) != Door {
				c++
				continue
			}
			end := c
			for end+1 < m.cols && m.At(r, end+1) == Door {
				end++
			}
			if end > c {
				for k := c; k <= end; k++ {
					used[m.Index(r, k)] = true
				}
			}
			c = end + 1
		}
	}

	for r := 0; r < m.rows; r++ {
		for c := 0; c < m.cols; c++ {
			idx := m.Index(r, c)
			if m.cells[idx] != Door {
				continue
			}
			if used[idx] {
				// start of a horizontal run
				if c == 0 || !used[m.Index(r, c-1)] {
					size := 1
					for c+size < m.cols && used[m.Index(r, c+size)] {
						size++
					}
					doors = append(doors, DoorSpec{Row: r, Col: c, Size: size, Direction: Horizontal})
				}
				continue
			}
			if r > 0 && m.At(r-1, c) == Door && !used[m.Index(r-1, c)] {
				continue
			}
			size := 1
			for r+size < m.rows && m.At(r+size, c) == Door && !used[m.Index(r+size, c)] {
				size++
			}
			doors = append(doors, DoorSpec{Row: r, Col: c, Size: size, Direction: Vertical})
		}
	}

	return doors
}
