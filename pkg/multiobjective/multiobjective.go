// Package multiobjective wires the evacuation simulator, the door-placement
// factory and NSGA-II into a single optimizer.
package multiobjective

import (
	"context"
	"fmt"

	"k8s.io/klog/v2"

	"github.com/mihai-snyk/evacuation-planner/apis/config"
	"github.com/mihai-snyk/evacuation-planner/pkg/evacuation/crowd"
	"github.com/mihai-snyk/evacuation-planner/pkg/evacuation/grid"
	"github.com/mihai-snyk/evacuation-planner/pkg/evacuation/simulator"
	"github.com/mihai-snyk/evacuation-planner/pkg/multiobjective/algorithms"
	"github.com/mihai-snyk/evacuation-planner/pkg/multiobjective/doorplacement"
	"github.com/mihai-snyk/evacuation-planner/pkg/multiobjective/framework"
	"github.com/mihai-snyk/evacuation-planner/pkg/multiobjective/util"
)

const (
	Name = "DoorPlacement"
)

// Planner searches door placements of one building.
type Planner struct {
	cfg       *config.Configuration
	factory   *doorplacement.Factory
	algorithm framework.Algorithm[doorplacement.Gene]
}

// Stats summarises the work of a finished optimization.
type Stats struct {
	// Configurations is the number of distinct genes evaluated.
	Configurations int
	// Simulations is the number of simulator runs.
	Simulations int64
}

// New creates a planner choosing among the doors of base. The logger is taken
// from ctx.
func New(ctx context.Context, cfg *config.Configuration, base *grid.Map, pedestrians []crowd.Descriptor) (*Planner, error) {
	logger := klog.FromContext(ctx)
	logger.V(5).Info("creating instance of planner", "candidateDoors", len(base.ExtractDoors()), "pedestrians", len(pedestrians))

	sim := simulator.New(cfg.Simulation.CrowdConfig(), logger)
	factory, err := doorplacement.NewFactory(base, pedestrians, sim, cfg.FactoryOptions(), logger)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", Name, err)
	}

	return &Planner{
		cfg:       cfg,
		factory:   factory,
		algorithm: algorithms.NewNSGAII(cfg.NSGA.AlgorithmConfig(), factory, algorithms.NewTournamentSelector[doorplacement.Gene](), logger),
	}, nil
}

func (p *Planner) Name() string {
	return Name
}

// Candidates returns the doors a gene chooses from.
func (p *Planner) Candidates() []grid.DoorSpec {
	return p.factory.Candidates()
}

// Optimize runs the search and returns the Pareto front in export form.
func (p *Planner) Optimize(ctx context.Context) ([]util.Solution, error) {
	logger := klog.FromContext(ctx)
	logger.V(2).Info("running the optimization",
		"algorithm", p.algorithm.Name(),
		"populationSize", p.cfg.NSGA.PopulationSize,
		"generations", p.cfg.NSGA.Generations,
		"threeObjectives", p.cfg.NSGA.UseThreeObjectives)

	front, err := p.algorithm.Run(ctx)
	if err != nil {
		return nil, err
	}
	return util.ToSolutions(front, p.factory), nil
}

// Stats reports the evaluation work done so far.
func (p *Planner) Stats() Stats {
	return Stats{
		Configurations: p.factory.CacheSize(),
		Simulations:    p.factory.Simulations(),
	}
}
