package crowd

import (
	"math"

	"github.com/mihai-snyk/evacuation-planner/pkg/evacuation/grid"
)

// neighborhood lists the eight moves in a fixed order so that candidate
// enumeration, and therefore tie breaking, is reproducible.
var neighborhood = [8]grid.Point{
	{Row: -1, Col: 0},
	{Row: -1, Col: 1},
	{Row: 0, Col: 1},
	{Row: 1, Col: 1},
	{Row: 1, Col: 0},
	{Row: 1, Col: -1},
	{Row: 0, Col: -1},
	{Row: -1, Col: -1},
}

// Cost is the potential of cell (row, col) for p:
//
//	KD*dynamic + KS*static + KW*exp(WallCoefficient*wall) + KI*density
//
// Cells the static field never reached are priced one step beyond its maximum.
func (s *State) Cost(p *Pedestrian, row, col int) float64 {
	static := float64(s.static.Value(row, col))
	if !s.static.Reached(row, col) {
		static = float64(s.static.Max()) + 1
	}
	wall := math.Exp(s.cfg.WallCoefficient * float64(s.wall.Value(row, col)))
	dynamic := s.dynamic[s.grid.Index(row, col)]

	return p.KD*dynamic + p.KS*static + p.KW*wall + p.KI*float64(s.density(p, row, col))
}

// density counts the occupied neighbours of (row, col), not counting p.
func (s *State) density(p *Pedestrian, row, col int) int {
	n := 0
	for _, d := range neighborhood {
		r, c := row+d.Row, col+d.Col
		if r == p.Row && c == p.Col {
			continue
		}
		if s.Occupied(r, c) {
			n++
		}
	}
	return n
}

// intention returns the cell p wants to move to: the cheapest of staying put and
// every free walkable neighbour. Diagonal moves may not cut wall corners.
func (s *State) intention(p *Pedestrian) grid.Point {
	stay := grid.Point{Row: p.Row, Col: p.Col}
	best := s.Cost(p, p.Row, p.Col)
	candidates := []grid.Point{stay}

	for _, d := range neighborhood {
		r, c := p.Row+d.Row, p.Col+d.Col
		if !s.grid.Walkable(r, c) || s.Occupied(r, c) {
			continue
		}
		if d.Row != 0 && d.Col != 0 && (!s.grid.Walkable(p.Row+d.Row, p.Col) || !s.grid.Walkable(p.Row, p.Col+d.Col)) {
			continue
		}
		cost := s.Cost(p, r, c)
		switch {
		case cost < best:
			best = cost
			candidates = append(candidates[:0], grid.Point{Row: r, Col: c})
		case cost == best:
			candidates = append(candidates, grid.Point{Row: r, Col: c})
		}
	}

	if len(candidates) == 1 {
		return candidates[0]
	}
	return candidates[s.rng.IntN(len(candidates))]
}
