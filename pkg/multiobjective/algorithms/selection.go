package algorithms

import (
	"math/rand/v2"

	"github.com/mihai-snyk/evacuation-planner/pkg/multiobjective/framework"
)

// TournamentSelector picks the best of Size random contestants by crowded
// comparison.
type TournamentSelector[G any] struct {
	Size int
}

var _ framework.Selector[int] = TournamentSelector[int]{}

// NewTournamentSelector returns a binary tournament.
func NewTournamentSelector[G any]() TournamentSelector[G] {
	return TournamentSelector[G]{Size: 2}
}

// Select implements framework.Selector.
func (s TournamentSelector[G]) Select(rng *rand.Rand, population []*framework.Chromosome[G]) *framework.Chromosome[G] {
	k := max(s.Size, 1)
	best := population[rng.IntN(len(population))]

	for i := 1; i < k; i++ {
		contestant := population[rng.IntN(len(population))]
		if framework.Crowded(contestant, best) {
			best = contestant
		}
	}

	return best
}
