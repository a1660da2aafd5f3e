package framework

import (
	"math"
	"sort"
)

// NonDominatedSort partitions population into fronts and sets every
// chromosome's Rank to the index of its front.
func NonDominatedSort[G any](population []*Chromosome[G]) [][]*Chromosome[G] {
	if len(population) == 0 {
		return nil
	}

	dominated := make([][]int, len(population))
	domCount := make([]int, len(population))

	// Calculate domination for each chromosome
	for i := range population {
		for j := range population {
			if i == j {
				continue
			}
			if Dominates(population[i].Objectives, population[j].Objectives) {
				dominated[i] = append(dominated[i], j)
			} else if Dominates(population[j].Objectives, population[i].Objectives) {
				domCount[i]++
			}
		}
	}

	// Find first front
	var current []int
	for i := range population {
		if domCount[i] == 0 {
			current = append(current, i)
		}
	}

	// Find subsequent fronts
	var fronts [][]*Chromosome[G]
	for rank := 0; len(current) > 0; rank++ {
		front := make([]*Chromosome[G], 0, len(current))
		var next []int
		for _, idx := range current {
			population[idx].Rank = rank
			front = append(front, population[idx])
			for _, d := range dominated[idx] {
				domCount[d]--
				if domCount[d] == 0 {
					next = append(next, d)
				}
			}
		}
		fronts = append(fronts, front)
		current = next
	}

	return fronts
}

// Dominates reports whether a is no worse than b in every objective and
// strictly better in at least one.
func Dominates(a, b ObjectiveSpacePoint) bool {
	better := false
	for i := range a {
		if a[i] > b[i] {
			return false
		}
		if a[i] < b[i] {
			better = true
		}
	}
	return better
}

// CrowdingDistance calculates crowding distance for the chromosomes of a front.
// The front is reordered.
func CrowdingDistance[G any](front []*Chromosome[G]) {
	if len(front) <= 2 {
		for _, c := range front {
			c.Distance = math.Inf(1)
		}
		return
	}

	for _, c := range front {
		c.Distance = 0
	}

	for m := range front[0].Objectives {
		// Sort by each objective
		sort.SliceStable(front, func(i, j int) bool {
			return front[i].Objectives[m] < front[j].Objectives[m]
		})

		// Set boundary points to infinity
		front[0].Distance = math.Inf(1)
		front[len(front)-1].Distance = math.Inf(1)

		objectiveRange := front[len(front)-1].Objectives[m] - front[0].Objectives[m]
		if objectiveRange == 0 {
			continue
		}

		// Calculate distance for intermediate points
		for i := 1; i < len(front)-1; i++ {
			front[i].Distance += (front[i+1].Objectives[m] - front[i-1].Objectives[m]) / objectiveRange
		}
	}
}

// Crowded reports whether a is preferred over b: lower rank first, then larger
// crowding distance.
func Crowded[G any](a, b *Chromosome[G]) bool {
	if a.Rank != b.Rank {
		return a.Rank < b.Rank
	}
	return a.Distance > b.Distance
}
