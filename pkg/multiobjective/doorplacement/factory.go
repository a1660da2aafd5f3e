package doorplacement

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"sync/atomic"

	"github.com/go-logr/logr"
	"github.com/patrickmn/go-cache"
	"github.com/samber/lo"
	"github.com/sourcegraph/conc/panics"
	"github.com/sourcegraph/conc/pool"
	"golang.org/x/sync/singleflight"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/mihai-snyk/evacuation-planner/pkg/evacuation/crowd"
	"github.com/mihai-snyk/evacuation-planner/pkg/evacuation/grid"
	"github.com/mihai-snyk/evacuation-planner/pkg/evacuation/simulator"
	"github.com/mihai-snyk/evacuation-planner/pkg/multiobjective/framework"
)

const (
	// DefaultPenalty replaces every objective of a configuration that could not
	// be evaluated.
	DefaultPenalty = 1e6

	// AuxIterations is the Auxiliary key of the mean iteration count.
	AuxIterations = "iterations"
	// AuxDistance is the Auxiliary key of the mean walked distance.
	AuxDistance = "distance"
)

// ErrNoCandidates is returned for a base map without any door to choose from.
var ErrNoCandidates = errors.New("doorplacement: base map has no candidate doors")

// Simulator runs one evacuation scenario.
type Simulator interface {
	Simulate(ctx context.Context, sc simulator.Scenario) (crowd.Result, error)
}

// Options tune the factory.
type Options struct {
	// ScenarioSeeds lists the placements every configuration is averaged over.
	ScenarioSeeds  []uint64
	SimulationSeed uint64
	// ThreeObjectives optimizes [doors, iterations, distance] instead of
	// [doors, distance].
	ThreeObjectives bool
	// InitialDoorDensity is the probability of a door being open in a random
	// gene. Zero means min(0.5, 2/len).
	InitialDoorDensity float64
	// BitFlipRate is the per-bit mutation probability. Zero means 1/len.
	BitFlipRate float64
	// Penalty is the objective value of failed evaluations. Zero means DefaultPenalty.
	Penalty float64
	// TrialWorkers bounds the concurrent trials of one evaluation.
	TrialWorkers int
}

// Factory builds door-placement chromosomes. Every distinct gene is simulated
// at most once per Factory.
type Factory struct {
	base        *grid.Map
	candidates  []grid.DoorSpec
	pedestrians []crowd.Descriptor
	sim         Simulator
	opts        Options

	// cache maps Gene.Key to the evaluated objectives and auxiliary metrics.
	cache       *cache.Cache
	group       singleflight.Group
	simulations atomic.Int64
	logger      logr.Logger
}

var _ framework.Factory[Gene] = &Factory{}

type evaluation struct {
	objectives framework.ObjectiveSpacePoint
	auxiliary  map[string]float64
}

// NewFactory returns a factory choosing among the doors of base.
func NewFactory(base *grid.Map, pedestrians []crowd.Descriptor, sim Simulator, opts Options, logger logr.Logger) (*Factory, error) {
	candidates := base.ExtractDoors()
	if len(candidates) == 0 {
		return nil, ErrNoCandidates
	}
	if len(opts.ScenarioSeeds) == 0 {
		opts.ScenarioSeeds = []uint64{0}
	}
	if opts.InitialDoorDensity <= 0 {
		opts.InitialDoorDensity = math.Min(0.5, 2/float64(len(candidates)))
	}
	if opts.BitFlipRate <= 0 {
		opts.BitFlipRate = 1 / float64(len(candidates))
	}
	if opts.Penalty == 0 {
		opts.Penalty = DefaultPenalty
	}
	if opts.TrialWorkers <= 0 {
		opts.TrialWorkers = 1
	}

	return &Factory{
		base:        base.Clone(),
		candidates:  candidates,
		pedestrians: pedestrians,
		sim:         sim,
		opts:        opts,
		cache:       cache.New(cache.NoExpiration, 0),
		logger:      logger.WithName("doorplacement"),
	}, nil
}

// Candidates returns the candidate doors, aligned with gene bits.
func (f *Factory) Candidates() []grid.DoorSpec {
	return append([]grid.DoorSpec(nil), f.candidates...)
}

// GeneLength is the number of bits of every gene.
func (f *Factory) GeneLength() int {
	return len(f.candidates)
}

// Simulations returns the number of simulator runs so far.
func (f *Factory) Simulations() int64 {
	return f.simulations.Load()
}

// CacheSize returns the number of evaluated configurations.
func (f *Factory) CacheSize() int {
	return f.cache.ItemCount()
}

// Decode returns the doors selected by gene.
func (f *Factory) Decode(gene Gene) []grid.DoorSpec {
	return lo.Filter(f.candidates, func(_ grid.DoorSpec, i int) bool {
		return i < len(gene) && gene[i]
	})
}

// New returns a random gene with at least one open door.
func (f *Factory) New(rng *rand.Rand) Gene {
	gene := make(Gene, len(f.candidates))
	for i := range gene {
		gene[i] = rng.Float64() < f.opts.InitialDoorDensity
	}
	if gene.Count() == 0 {
		gene[rng.IntN(len(gene))] = true
	}
	return gene
}

// Crossover performs half-uniform crossover: the children exchange half of the
// bits in which the parents differ.
func (f *Factory) Crossover(rng *rand.Rand, a, b Gene) (Gene, Gene) {
	return framework.HalfUniformCrossover(rng, a, b)
}

// Mutate flips every bit with probability BitFlipRate.
func (f *Factory) Mutate(rng *rand.Rand, gene Gene) Gene {
	return framework.BitFlip(rng, gene, f.opts.BitFlipRate)
}

// Key implements framework.Factory.
func (f *Factory) Key(gene Gene) string {
	return gene.Key()
}

// Build evaluates gene, simulating it only if no earlier call did.
func (f *Factory) Build(ctx context.Context, generation int, gene Gene) (*framework.Chromosome[Gene], error) {
	key := gene.Key()

	ev, err := f.lookup(ctx, key, gene)
	if err != nil {
		return nil, err
	}

	return &framework.Chromosome[Gene]{
		Generation: generation,
		Gene:       gene,
		Objectives: append(framework.ObjectiveSpacePoint(nil), ev.objectives...),
		Auxiliary:  ev.auxiliary,
	}, nil
}

func (f *Factory) lookup(ctx context.Context, key string, gene Gene) (evaluation, error) {
	if v, ok := f.cache.Get(key); ok {
		return v.(evaluation), nil
	}

	v, err, _ := f.group.Do(key, func() (interface{}, error) {
		if v, ok := f.cache.Get(key); ok {
			return v, nil
		}
		ev, err := f.evaluate(ctx, gene)
		if err != nil {
			return nil, err
		}
		f.cache.Set(key, ev, cache.NoExpiration)
		return ev, nil
	})
	if err != nil {
		return evaluation{}, err
	}
	return v.(evaluation), nil
}

// evaluate simulates gene once per scenario seed and averages the trials. Only
// context cancellation is returned as an error; failed or panicking trials are
// priced with the penalty.
func (f *Factory) evaluate(ctx context.Context, gene Gene) (evaluation, error) {
	if err := ctx.Err(); err != nil {
		return evaluation{}, err
	}
	doors := f.Decode(gene)
	logger := f.logger.WithValues("gene", gene.Key())

	if len(doors) == 0 {
		logger.V(4).Info("Configuration without doors, applying penalty")
		return f.penalty(), nil
	}

	sc := simulator.Scenario{
		Map:         f.base,
		Pedestrians: f.pedestrians,
	}.WithDoors(doors)

	results := make([]crowd.Result, len(f.opts.ScenarioSeeds))
	p := pool.New().WithErrors().WithContext(ctx).WithMaxGoroutines(f.opts.TrialWorkers)
	for i, seed := range f.opts.ScenarioSeeds {
		p.Go(func(ctx context.Context) error {
			trial := sc
			trial.Seeds = simulator.Seeds{Scenario: seed, Simulation: f.opts.SimulationSeed}
			f.simulations.Add(1)
			var res crowd.Result
			var err error
			if r := panics.Try(func() { res, err = f.sim.Simulate(ctx, trial) }); r != nil {
				err = r.AsError()
			}
			if err != nil {
				return fmt.Errorf("scenario seed %d: %w", seed, err)
			}
			if res.Remaining > 0 {
				return fmt.Errorf("scenario seed %d: %d pedestrians never left", seed, res.Remaining)
			}
			results[i] = res
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return evaluation{}, ctxErr
		}
		logger.Error(err, "Simulation failed, applying penalty")
		return f.penalty(), nil
	}

	iterations := stat.Mean(lo.Map(results, func(r crowd.Result, _ int) float64 { return float64(r.Iterations) }), nil)
	distance := stat.Mean(lo.Map(results, func(r crowd.Result, _ int) float64 { return r.Distance }), nil)
	numDoors := float64(gene.Count())

	var objectives framework.ObjectiveSpacePoint
	if f.opts.ThreeObjectives {
		objectives = framework.ObjectiveSpacePoint{numDoors, iterations, distance}
	} else {
		objectives = framework.ObjectiveSpacePoint{numDoors, distance}
	}
	if floats.HasNaN(objectives) || math.IsInf(floats.Max(objectives), 0) || math.IsInf(floats.Min(objectives), 0) {
		logger.Error(nil, "Non-finite objectives, applying penalty", "objectives", objectives)
		return f.penalty(), nil
	}

	logger.V(4).Info("Configuration evaluated", "doors", numDoors, "iterations", iterations, "distance", distance)
	return evaluation{
		objectives: objectives,
		auxiliary:  map[string]float64{AuxIterations: iterations, AuxDistance: distance},
	}, nil
}

func (f *Factory) penalty() evaluation {
	n := 2
	if f.opts.ThreeObjectives {
		n = 3
	}
	objectives := make(framework.ObjectiveSpacePoint, n)
	for i := range objectives {
		objectives[i] = f.opts.Penalty
	}
	return evaluation{
		objectives: objectives,
		auxiliary:  map[string]float64{AuxIterations: f.opts.Penalty, AuxDistance: f.opts.Penalty},
	}
}
