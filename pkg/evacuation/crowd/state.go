package crowd

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/go-logr/logr"

	"github.com/mihai-snyk/evacuation-planner/pkg/evacuation/field"
	"github.com/mihai-snyk/evacuation-planner/pkg/evacuation/grid"
)

var (
	// ErrNotWalkable indicates a pedestrian placed on a cell that is not floor.
	ErrNotWalkable = errors.New("crowd: cell is not walkable")
	// ErrCellOccupied indicates a pedestrian placed on a cell that is taken.
	ErrCellOccupied = errors.New("crowd: cell is already occupied")
)

const (
	DefaultWallCoefficient = -1.0
	DefaultDynamicDecay    = 0.2
	DefaultMaxIterations   = 10000
)

// Config tunes the movement model.
type Config struct {
	// WallCoefficient is the exponent factor of the wall term,
	// KW*exp(WallCoefficient*wallDistance).
	WallCoefficient float64
	// DynamicDecay is the fraction of the dynamic field lost every tick.
	DynamicDecay float64
	// MaxIterations caps the number of ticks of a run.
	MaxIterations int
}

// DefaultConfig returns the default movement model.
func DefaultConfig() Config {
	return Config{
		WallCoefficient: DefaultWallCoefficient,
		DynamicDecay:    DefaultDynamicDecay,
		MaxIterations:   DefaultMaxIterations,
	}
}

// Result summarises a finished run.
type Result struct {
	// Iterations is the number of ticks executed.
	Iterations int `json:"iterations"`
	// Distance is the total length walked by all pedestrians.
	Distance float64 `json:"distance"`
	// Evacuated counts pedestrians that reached a door.
	Evacuated int `json:"evacuated"`
	// Remaining counts pedestrians still inside when the run ended.
	Remaining int `json:"remaining"`
}

// State is the occupancy grid and the tick engine of one simulation run. It is
// not safe for concurrent use.
type State struct {
	grid   *grid.Map
	wall   *field.DistanceField
	static *field.DistanceField
	cfg    Config
	rng    *rand.Rand
	logger logr.Logger

	occupied []bool
	dynamic  []float64
	active   []*Pedestrian

	iterations int
	distance   float64
	evacuated  int
}

// NewState prepares an empty crowd on m. The fields must have been built from m.
func NewState(m *grid.Map, wall, static *field.DistanceField, cfg Config, rng *rand.Rand, logger logr.Logger) *State {
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = DefaultMaxIterations
	}
	return &State{
		grid:     m,
		wall:     wall,
		static:   static,
		cfg:      cfg,
		rng:      rng,
		logger:   logger,
		occupied: make([]bool, m.Rows()*m.Cols()),
		dynamic:  make([]float64, m.Rows()*m.Cols()),
	}
}

// Place puts p on the grid at its current position.
func (s *State) Place(p *Pedestrian) error {
	if s.grid.At(p.Row, p.Col) != grid.Empty {
		return fmt.Errorf("%w: pedestrian %d at (%d,%d)", ErrNotWalkable, p.ID, p.Row, p.Col)
	}
	idx := s.grid.Index(p.Row, p.Col)
	if s.occupied[idx] {
		return fmt.Errorf("%w: pedestrian %d at (%d,%d)", ErrCellOccupied, p.ID, p.Row, p.Col)
	}
	s.occupied[idx] = true
	s.active = append(s.active, p)
	return nil
}

// Occupied reports whether a pedestrian stands on (row, col).
func (s *State) Occupied(row, col int) bool {
	if !s.grid.InBounds(row, col) {
		return false
	}
	return s.occupied[s.grid.Index(row, col)]
}

// Active returns the pedestrians still inside the building.
func (s *State) Active() []*Pedestrian {
	return s.active
}

// Run ticks until every pedestrian has left or the iteration cap is hit.
func (s *State) Run() Result {
	for len(s.active) > 0 && s.iterations < s.cfg.MaxIterations {
		s.Tick()
	}
	if len(s.active) > 0 {
		s.logger.V(4).Info("iteration cap reached", "iterations", s.iterations, "remaining", len(s.active))
	}
	return s.Result()
}

// Result returns the metrics accumulated so far.
func (s *State) Result() Result {
	return Result{
		Iterations: s.iterations,
		Distance:   s.distance,
		Evacuated:  s.evacuated,
		Remaining:  len(s.active),
	}
}

// Tick advances the crowd by one step. Every pedestrian first picks a target
// against the occupancy at the start of the tick; contested targets are then
// granted to one claimant by a speed weighted draw.
func (s *State) Tick() {
	s.iterations++

	targets := make([]grid.Point, len(s.active))
	for i, p := range s.active {
		targets[i] = s.intention(p)
	}

	claims := make(map[int][]*Pedestrian)
	var order []int
	for i, p := range s.active {
		t := targets[i]
		if t.Row == p.Row && t.Col == p.Col {
			continue
		}
		idx := s.grid.Index(t.Row, t.Col)
		if _, ok := claims[idx]; !ok {
			order = append(order, idx)
		}
		claims[idx] = append(claims[idx], p)
	}

	left := make(map[int]bool)
	moved := 0
	for _, idx := range order {
		claimants := claims[idx]
		winner := claimants[0]
		if len(claimants) > 1 {
			winner = s.pickWeighted(claimants)
		}
		row, col := idx/s.grid.Cols(), idx%s.grid.Cols()
		if s.move(winner, row, col) {
			left[winner.ID] = true
		}
		moved++
	}

	if len(left) > 0 {
		kept := s.active[:0]
		for _, p := range s.active {
			if !left[p.ID] {
				kept = append(kept, p)
			}
		}
		s.active = kept
	}

	if s.cfg.DynamicDecay > 0 {
		keep := 1 - s.cfg.DynamicDecay
		for i := range s.dynamic {
			s.dynamic[i] *= keep
		}
	}

	if logger := s.logger.V(5); logger.Enabled() {
		logger.Info("tick", "iteration", s.iterations, "moved", moved, "evacuated", s.evacuated, "active", len(s.active))
	}
}

// move relocates p to (row, col) and reports whether p left the building.
func (s *State) move(p *Pedestrian, row, col int) bool {
	from := s.grid.Index(p.Row, p.Col)
	s.occupied[from] = false
	s.dynamic[from]++

	step := 1.0
	if p.Row != row && p.Col != col {
		step = math.Sqrt2
	}
	s.distance += step
	p.Row, p.Col = row, col

	if s.grid.At(row, col) == grid.Door {
		s.evacuated++
		return true
	}
	s.occupied[s.grid.Index(row, col)] = true
	return false
}

func (s *State) pickWeighted(claimants []*Pedestrian) *Pedestrian {
	total := 0.0
	for _, p := range claimants {
		total += p.Speed
	}
	x := s.rng.Float64() * total
	for _, p := range claimants {
		x -= p.Speed
		if x < 0 {
			return p
		}
	}
	return claimants[len(claimants)-1]
}
