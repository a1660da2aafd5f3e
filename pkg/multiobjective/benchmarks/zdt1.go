package benchmarks

import (
	"context"
	"math"
	"math/rand/v2"
	"strconv"
	"strings"

	"github.com/mihai-snyk/evacuation-planner/pkg/multiobjective/framework"
)

const (
	Name = "ZDT1"
)

// ZDT1 is a benchmark function used to test the correctness
// of multi-objective algorithms. For more details, check the article below:
// https://datacrayon.com/practical-evolutionary-algorithms/synthetic-objective-functions-and-zdt1/
//
// Genes are real vectors in [0, 1]^numVars varied with simulated binary
// crossover and polynomial mutation.
type ZDT1 struct {
	numVars int
}

var _ framework.Factory[[]float64] = &ZDT1{}

func NewZDT1(numVars int) *ZDT1 {
	return &ZDT1{
		numVars,
	}
}

func (p *ZDT1) Name() string {
	return Name
}

// Objectives evaluates both ZDT1 objectives at x.
func (p *ZDT1) Objectives(x []float64) framework.ObjectiveSpacePoint {
	return framework.ObjectiveSpacePoint{p.f1(x), p.f2(x)}
}

func (p *ZDT1) f1(x []float64) float64 {
	return x[0]
}

func (p *ZDT1) f2(x []float64) float64 {
	g := 1.0
	for i := 1; i < len(x); i++ {
		g += 9.0 * x[i] / float64(len(x)-1)
	}
	return g * (1.0 - math.Sqrt(x[0]/g))
}

// New returns a uniformly random point of the search space.
func (p *ZDT1) New(rng *rand.Rand) []float64 {
	vars := make([]float64, p.numVars)
	for j := range vars {
		vars[j] = rng.Float64()
	}
	return vars
}

// Build implements framework.Factory.
func (p *ZDT1) Build(_ context.Context, generation int, x []float64) (*framework.Chromosome[[]float64], error) {
	return &framework.Chromosome[[]float64]{
		Generation: generation,
		Gene:       x,
		Objectives: p.Objectives(x),
	}, nil
}

// Crossover performs SBX (Simulated Binary Crossover).
func (p *ZDT1) Crossover(rng *rand.Rand, parent1, parent2 []float64) ([]float64, []float64) {
	return framework.SBX(rng, parent1, parent2, p.Bounds())
}

// Mutate performs polynomial mutation, each variable with probability 1/numVars.
func (p *ZDT1) Mutate(rng *rand.Rand, x []float64) []float64 {
	return framework.PolynomialMutation(rng, x, 1.0/float64(len(x)), p.Bounds())
}

// Bounds returns the unit interval for every variable.
func (p *ZDT1) Bounds() []framework.Bounds {
	b := make([]framework.Bounds, p.numVars)
	for i := range b {
		b[i] = framework.Bounds{L: 0, H: 1}
	}
	return b
}

// Key implements framework.Factory.
func (p *ZDT1) Key(x []float64) string {
	parts := make([]string, len(x))
	for i, v := range x {
		parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strings.Join(parts, ",")
}

// TrueParetoFront generates numPoints points on the true Pareto front for ZDT1
func (p *ZDT1) TrueParetoFront(numPoints int) []framework.ObjectiveSpacePoint {
	points := make([]framework.ObjectiveSpacePoint, numPoints)
	for i := 0; i < numPoints; i++ {
		x := float64(i) / float64(numPoints-1)
		points[i] = framework.ObjectiveSpacePoint{
			x, 1.0 - math.Sqrt(x),
		}
	}
	return points
}
