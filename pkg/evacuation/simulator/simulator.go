// Package simulator runs complete evacuation scenarios: it builds the distance
// fields of a configured map, places the crowd and ticks it until everyone
// has left.
package simulator

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/go-logr/logr"

	"github.com/mihai-snyk/evacuation-planner/pkg/evacuation/crowd"
	"github.com/mihai-snyk/evacuation-planner/pkg/evacuation/field"
	"github.com/mihai-snyk/evacuation-planner/pkg/evacuation/grid"
)

var (
	// ErrNoExits indicates a map without any door cell.
	ErrNoExits = errors.New("simulator: map has no exits")
	// ErrCrowdOverflow indicates more pedestrians than free cells.
	ErrCrowdOverflow = errors.New("simulator: not enough empty cells for the crowd")
	// ErrInvalidPlacement indicates a pinned pedestrian on a cell it cannot hold.
	ErrInvalidPlacement = errors.New("simulator: invalid pedestrian placement")
)

// Streams keep the scenario and simulation generators independent even when
// both seeds are equal.
const (
	scenarioStream   = 0x5ce4a210
	simulationStream = 0x51a1a710
)

// Seeds select the randomness of one run.
type Seeds struct {
	// Scenario drives pedestrian placement.
	Scenario uint64 `json:"scenario_seed"`
	// Simulation drives tie breaking and conflict resolution.
	Simulation uint64 `json:"simulation_seed"`
}

// Scenario is everything a run depends on.
type Scenario struct {
	Map         *grid.Map
	Pedestrians []crowd.Descriptor
	Seeds       Seeds
}

// WithDoors returns a copy of the scenario whose map has exactly the given doors.
// The map of sc is not modified.
func (sc Scenario) WithDoors(doors []grid.DoorSpec) Scenario {
	sc.Map = sc.Map.Configure(doors)
	return sc
}

// Simulator runs scenarios. It holds no per-run state and may be shared by
// goroutines as long as they do not share a Map they mutate.
type Simulator struct {
	cfg    crowd.Config
	logger logr.Logger
}

// New returns a Simulator using the movement model cfg.
func New(cfg crowd.Config, logger logr.Logger) *Simulator {
	return &Simulator{
		cfg:    cfg,
		logger: logger.WithName("simulator"),
	}
}

// Simulate runs sc to completion. The result only depends on sc and the
// Simulator configuration.
func (s *Simulator) Simulate(ctx context.Context, sc Scenario) (crowd.Result, error) {
	if err := ctx.Err(); err != nil {
		return crowd.Result{}, err
	}
	if sc.Map == nil {
		return crowd.Result{}, fmt.Errorf("%w: nil map", grid.ErrMalformedMap)
	}
	if len(sc.Map.Exits()) == 0 {
		return crowd.Result{}, ErrNoExits
	}

	wall := field.NewWallField(sc.Map)
	static := field.NewStaticField(sc.Map)

	rng := rand.New(rand.NewPCG(sc.Seeds.Simulation, simulationStream))
	state := crowd.NewState(sc.Map, wall, static, s.cfg, rng, s.logger)

	if err := place(state, sc); err != nil {
		return crowd.Result{}, err
	}

	res := state.Run()
	s.logger.V(4).Info("simulation finished",
		"scenarioSeed", sc.Seeds.Scenario,
		"simulationSeed", sc.Seeds.Simulation,
		"pedestrians", len(sc.Pedestrians),
		"iterations", res.Iterations,
		"distance", res.Distance,
		"remaining", res.Remaining)

	return res, nil
}

// place puts pinned pedestrians on their cells and scatters the rest over the
// empty cells in an order drawn from the scenario seed.
func place(state *crowd.State, sc Scenario) error {
	for id, d := range sc.Pedestrians {
		if !d.HasPosition() {
			continue
		}
		if err := state.Place(crowd.NewPedestrian(id, d, *d.Row, *d.Col)); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidPlacement, err)
		}
	}

	free := sc.Map.EmptyPositions()
	rng := rand.New(rand.NewPCG(sc.Seeds.Scenario, scenarioStream))
	rng.Shuffle(len(free), func(i, j int) { free[i], free[j] = free[j], free[i] })

	next := 0
	for id, d := range sc.Pedestrians {
		if d.HasPosition() {
			continue
		}
		for next < len(free) && state.Occupied(free[next].Row, free[next].Col) {
			next++
		}
		if next == len(free) {
			return fmt.Errorf("%w: %d pedestrians, %d empty cells", ErrCrowdOverflow, len(sc.Pedestrians), len(sc.Map.EmptyPositions()))
		}
		if err := state.Place(crowd.NewPedestrian(id, d, free[next].Row, free[next].Col)); err != nil {
			return err
		}
		next++
	}
	return nil
}
