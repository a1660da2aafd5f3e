package algorithms

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"

	"github.com/go-logr/logr"
	"k8s.io/apimachinery/pkg/util/sets"
	"k8s.io/client-go/util/workqueue"

	"github.com/mihai-snyk/evacuation-planner/pkg/multiobjective/framework"
)

const (
	Name = "NSGA-II"

	defaultMaxStall = 50
)

// ErrEmptyPopulation is returned when not a single chromosome could be built.
var ErrEmptyPopulation = errors.New("nsga2: empty initial population")

// Identity decides when two chromosomes count as the same population member.
type Identity string

const (
	// Phenotype identifies chromosomes by their objective vector.
	Phenotype Identity = "phenotype"
	// Genotype identifies chromosomes by their gene key.
	Genotype Identity = "genotype"
)

// Config holds the NSGA-II parameters.
type Config struct {
	PopulationSize int
	Generations    int
	CrossoverRate  float64
	MutationRate   float64
	Identity       Identity
	// Workers bounds the number of concurrent Build calls.
	Workers int
	// MaxStall is the number of consecutive attempts that add no new member
	// after which a population stays smaller than PopulationSize.
	MaxStall int
	Seed     uint64
}

// NSGAII represents the NSGA-II algorithm bound to one problem.
type NSGAII[G any] struct {
	cfg      Config
	factory  framework.Factory[G]
	selector framework.Selector[G]
	rng      *rand.Rand
	logger   logr.Logger
}

var _ framework.Algorithm[int] = &NSGAII[int]{}

// NewNSGAII creates a new instance of NSGA-II with given parameters.
func NewNSGAII[G any](cfg Config, factory framework.Factory[G], selector framework.Selector[G], logger logr.Logger) *NSGAII[G] {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.MaxStall <= 0 {
		cfg.MaxStall = defaultMaxStall
	}
	if cfg.Identity == "" {
		cfg.Identity = Phenotype
	}
	return &NSGAII[G]{
		cfg:      cfg,
		factory:  factory,
		selector: selector,
		rng:      rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15)),
		logger:   logger.WithName("nsga2"),
	}
}

func (n *NSGAII[G]) Name() string {
	return Name
}

// Run evolves the population for the configured number of generations and
// returns the first front of the final merged population.
func (n *NSGAII[G]) Run(ctx context.Context) ([]*framework.Chromosome[G], error) {
	population, err := n.initialize(ctx)
	if err != nil {
		return nil, err
	}
	fronts := n.rank(population)

	for gen := 1; gen <= n.cfg.Generations; gen++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		offspring, err := n.offspring(ctx, gen, population)
		if err != nil {
			return nil, fmt.Errorf("generation %d: %w", gen, err)
		}

		// Combine populations
		merged := make([]*framework.Chromosome[G], 0, len(population)+len(offspring))
		merged = append(merged, population...)
		merged = append(merged, offspring...)

		fronts = n.rank(merged)
		population = n.survivors(fronts)

		n.logger.V(2).Info("Generation finished",
			"generation", gen,
			"offspring", len(offspring),
			"fronts", len(fronts),
			"paretoSize", len(fronts[0]),
			"distinctGenes", n.genotypes(population))
	}

	return fronts[0], nil
}

// initialize builds a population of distinct random chromosomes.
func (n *NSGAII[G]) initialize(ctx context.Context) ([]*framework.Chromosome[G], error) {
	population, err := n.fill(ctx, 0, nil, func(count int) []G {
		genes := make([]G, count)
		for i := range genes {
			genes[i] = n.factory.New(n.rng)
		}
		return genes
	})
	if err != nil {
		return nil, err
	}
	if len(population) == 0 {
		return nil, ErrEmptyPopulation
	}
	return population, nil
}

// offspring breeds new chromosomes distinct from population and from each other.
func (n *NSGAII[G]) offspring(ctx context.Context, gen int, population []*framework.Chromosome[G]) ([]*framework.Chromosome[G], error) {
	return n.fill(ctx, gen, population, func(count int) []G {
		genes := make([]G, 0, count+1)
		for len(genes) < count {
			parent1 := n.selector.Select(n.rng, population)
			parent2 := n.selector.Select(n.rng, population)

			child1, child2 := parent1.Gene, parent2.Gene
			if n.rng.Float64() < n.cfg.CrossoverRate {
				child1, child2 = n.factory.Crossover(n.rng, parent1.Gene, parent2.Gene)
			}
			if n.rng.Float64() < n.cfg.MutationRate {
				child1 = n.factory.Mutate(n.rng, child1)
			}
			if n.rng.Float64() < n.cfg.MutationRate {
				child2 = n.factory.Mutate(n.rng, child2)
			}
			genes = append(genes, child1, child2)
		}
		return genes[:count]
	})
}

// fill builds batches of genes produced by breed until PopulationSize new
// members, unseen in existing, were collected or MaxStall batches in a row
// added nothing.
func (n *NSGAII[G]) fill(ctx context.Context, gen int, existing []*framework.Chromosome[G], breed func(count int) []G) ([]*framework.Chromosome[G], error) {
	seen := sets.New[string]()
	for _, c := range existing {
		seen.Insert(n.identity(c))
	}

	out := make([]*framework.Chromosome[G], 0, n.cfg.PopulationSize)
	for stall := 0; len(out) < n.cfg.PopulationSize && stall < n.cfg.MaxStall; {
		genes := breed(n.cfg.PopulationSize - len(out))
		built, err := n.build(ctx, gen, genes)
		if err != nil {
			return nil, err
		}

		added := 0
		for _, c := range built {
			key := n.identity(c)
			if seen.Has(key) || len(out) == n.cfg.PopulationSize {
				continue
			}
			seen.Insert(key)
			out = append(out, c)
			added++
		}
		if added == 0 {
			stall++
		} else {
			stall = 0
		}
	}

	if len(out) < n.cfg.PopulationSize {
		n.logger.V(2).Info("Solution space exhausted", "generation", gen, "wanted", n.cfg.PopulationSize, "got", len(out))
	}
	return out, nil
}

// build evaluates genes concurrently. The result keeps the order of genes.
func (n *NSGAII[G]) build(ctx context.Context, gen int, genes []G) ([]*framework.Chromosome[G], error) {
	built := make([]*framework.Chromosome[G], len(genes))
	errs := make([]error, len(genes))

	workqueue.ParallelizeUntil(ctx, n.cfg.Workers, len(genes), func(i int) {
		built[i], errs[i] = n.factory.Build(ctx, gen, genes[i])
	})

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return built, nil
}

// rank sorts chromosomes into fronts and assigns crowding distances.
func (n *NSGAII[G]) rank(chromosomes []*framework.Chromosome[G]) [][]*framework.Chromosome[G] {
	fronts := framework.NonDominatedSort(chromosomes)
	for _, front := range fronts {
		framework.CrowdingDistance(front)
	}
	return fronts
}

// survivors adds whole fronts while they fit and fills the remaining slots from
// the next front by crowded comparison.
func (n *NSGAII[G]) survivors(fronts [][]*framework.Chromosome[G]) []*framework.Chromosome[G] {
	population := make([]*framework.Chromosome[G], 0, n.cfg.PopulationSize)
	for _, front := range fronts {
		if len(population)+len(front) <= n.cfg.PopulationSize {
			population = append(population, front...)
			continue
		}

		rest := make([]*framework.Chromosome[G], len(front))
		copy(rest, front)
		sort.SliceStable(rest, func(i, j int) bool {
			return framework.Crowded(rest[i], rest[j])
		})
		population = append(population, rest[:n.cfg.PopulationSize-len(population)]...)
		break
	}
	return population
}

func (n *NSGAII[G]) identity(c *framework.Chromosome[G]) string {
	if n.cfg.Identity == Genotype {
		return n.factory.Key(c.Gene)
	}
	return c.Objectives.Key()
}

// genotypes counts the distinct genes of population.
func (n *NSGAII[G]) genotypes(population []*framework.Chromosome[G]) int {
	keys := sets.New[string]()
	for _, c := range population {
		keys.Insert(n.factory.Key(c.Gene))
	}
	return keys.Len()
}
