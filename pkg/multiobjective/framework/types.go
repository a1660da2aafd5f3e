package framework

import (
	"context"
	"math/rand/v2"
	"strconv"
	"strings"
)

// ObjectiveSpacePoint represents an N-dimensional point in the objective space.
// As an example, for a problem with 2 objective functions f1 and f2, a point
// in the objective space could be [f1(x'), f2(x')], for the input of x'.
// Every objective is minimized.
type ObjectiveSpacePoint []float64

// Key returns a canonical string for p, equal for equal points.
func (p ObjectiveSpacePoint) Key() string {
	var b strings.Builder
	for i, v := range p {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
	}
	return b.String()
}

// Chromosome is a gene together with its evaluation.
type Chromosome[G any] struct {
	// Generation in which the chromosome was built.
	Generation int
	Gene       G
	Objectives ObjectiveSpacePoint
	// Auxiliary holds metrics that are reported but not optimized.
	Auxiliary map[string]float64

	// Rank is the index of the non-dominated front, 0 being the best.
	Rank int
	// Distance is the crowding distance inside the front.
	Distance float64
}

// Factory describes the contract a specific problem needs to implement so that
// a generic algorithm can create, evaluate and vary its genes.
//
// Genes handed to Build are never modified afterwards: Crossover and Mutate
// must return fresh genes and leave their inputs untouched.
type Factory[G any] interface {
	// New returns a random gene.
	New(rng *rand.Rand) G
	// Build evaluates gene. Build is called concurrently.
	Build(ctx context.Context, generation int, gene G) (*Chromosome[G], error)
	// Crossover recombines two parents into two children.
	Crossover(rng *rand.Rand, a, b G) (G, G)
	// Mutate returns a mutated copy of gene.
	Mutate(rng *rand.Rand, gene G) G
	// Key returns a canonical string identifying gene.
	Key(gene G) string
}

// Selector picks a parent out of a ranked population.
type Selector[G any] interface {
	Select(rng *rand.Rand, population []*Chromosome[G]) *Chromosome[G]
}

// Algorithm describes the contract that a MOO algorithm needs to implement.
type Algorithm[G any] interface {
	Name() string
	// Run returns the Pareto front found.
	Run(ctx context.Context) ([]*Chromosome[G], error)
}
