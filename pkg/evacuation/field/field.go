// Package field computes distance fields over a building grid: the wall field
// (distance to the nearest wall or object) and the static field (distance to the
// nearest exit).
package field

import (
	"github.com/mihai-snyk/evacuation-planner/pkg/evacuation/grid"
)

// direction is a unit step on the grid.
type direction struct {
	dr, dc int
}

func (d direction) diagonal() bool {
	return d.dr != 0 && d.dc != 0
}

var (
	top         = direction{-1, 0}
	topRight    = direction{-1, 1}
	right       = direction{0, 1}
	bottomRight = direction{1, 1}
	bottom      = direction{1, 0}
	bottomLeft  = direction{1, -1}
	left        = direction{0, -1}
	topLeft     = direction{-1, -1}

	directions = [8]direction{top, topRight, right, bottomRight, bottom, bottomLeft, left, topLeft}
)

// DistanceField holds, for every cell, the number of 8-neighbour steps to the
// nearest seed along a path that never cuts a blocked corner. Seeds, blocked
// cells and cells no path reaches hold 0.
type DistanceField struct {
	rows, cols int
	values     []uint32
	reached    []bool
	seed       []bool
	max        uint32
}

// NewWallField builds the distance-to-wall field of m. Walls and objects are seeds.
func NewWallField(m *grid.Map) *DistanceField {
	return build(m, func(c grid.Cell) bool { return c == grid.Wall || c == grid.Object })
}

// NewStaticField builds the distance-to-exit field of m. Doors are seeds.
func NewStaticField(m *grid.Map) *DistanceField {
	return build(m, func(c grid.Cell) bool { return c == grid.Door })
}

func build(m *grid.Map, isSeed func(grid.Cell) bool) *DistanceField {
	f := &DistanceField{
		rows:    m.Rows(),
		cols:    m.Cols(),
		values:  make([]uint32, m.Rows()*m.Cols()),
		reached: make([]bool, m.Rows()*m.Cols()),
		seed:    make([]bool, m.Rows()*m.Cols()),
	}

	var queue []grid.Point
	for r := 0; r < f.rows; r++ {
		for c := 0; c < f.cols; c++ {
			if !isSeed(m.At(r, c)) {
				continue
			}
			idx := f.index(r, c)
			f.seed[idx] = true
			f.reached[idx] = true
			queue = append(queue, grid.Point{Row: r, Col: c})
		}
	}

	f.propagate(m, queue)

	for i := range f.values {
		if f.seed[i] || m.At(i/f.cols, i%f.cols).Blocked() {
			f.values[i] = 0
			continue
		}
		if f.values[i] > f.max {
			f.max = f.values[i]
		}
	}

	return f
}

// propagate floods outward from the queued seeds in FIFO order, so every cell
// is first reached with its final value.
func (f *DistanceField) propagate(m *grid.Map, queue []grid.Point) {
	for head := 0; head < len(queue); head++ {
		p := queue[head]
		next := f.values[f.index(p.Row, p.Col)] + 1
		for _, d := range directions {
			if !canStep(m, p.Row, p.Col, d) {
				continue
			}
			nr, nc := p.Row+d.dr, p.Col+d.dc
			idx := f.index(nr, nc)
			if f.reached[idx] {
				continue
			}
			f.values[idx] = next
			f.reached[idx] = true
			queue = append(queue, grid.Point{Row: nr, Col: nc})
		}
	}
}

// canStep reports whether (row, col) connects to its neighbour along d. The
// neighbour must not be blocked, and a diagonal step needs both orthogonal
// cells it passes between to be open, the same rule pedestrians move by.
func canStep(m *grid.Map, row, col int, d direction) bool {
	if m.At(row+d.dr, col+d.dc).Blocked() {
		return false
	}
	if d.diagonal() {
		return !m.At(row+d.dr, col).Blocked() && !m.At(row, col+d.dc).Blocked()
	}
	return true
}

func (f *DistanceField) index(row, col int) int {
	return row*f.cols + col
}

func (f *DistanceField) inBounds(row, col int) bool {
	return row >= 0 && row < f.rows && col >= 0 && col < f.cols
}

// Rows returns the number of rows.
func (f *DistanceField) Rows() int { return f.rows }

// Cols returns the number of columns.
func (f *DistanceField) Cols() int { return f.cols }

// Value returns the distance stored at (row, col), or 0 outside the grid.
func (f *DistanceField) Value(row, col int) uint32 {
	if !f.inBounds(row, col) {
		return 0
	}
	return f.values[f.index(row, col)]
}

// Reached reports whether (row, col) is a seed or was reached by a ray.
func (f *DistanceField) Reached(row, col int) bool {
	if !f.inBounds(row, col) {
		return false
	}
	return f.reached[f.index(row, col)]
}

// Max returns the largest distance in the field.
func (f *DistanceField) Max() uint32 {
	return f.max
}

// Values returns a copy of the field as a matrix.
func (f *DistanceField) Values() [][]uint32 {
	out := make([][]uint32, f.rows)
	for r := range out {
		out[r] = make([]uint32, f.cols)
		copy(out[r], f.values[r*f.cols:(r+1)*f.cols])
	}
	return out
}
