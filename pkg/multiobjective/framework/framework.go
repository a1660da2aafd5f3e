package framework

import (
	"math"
	"math/rand/v2"
	"slices"
)

// Bounds is the closed interval a real variable is kept in.
type Bounds struct {
	L float64
	H float64
}

// Clamp returns v limited to b.
func (b Bounds) Clamp(v float64) float64 {
	return math.Max(b.L, math.Min(b.H, v))
}

// SBX performs simulated binary crossover on two real vectors and returns two
// fresh children. Both parents must have len(bounds) variables.
func SBX(rng *rand.Rand, parent1, parent2 []float64, bounds []Bounds) ([]float64, []float64) {
	child1 := make([]float64, len(parent1))
	child2 := make([]float64, len(parent2))

	for i := range parent1 {
		var beta float64
		if rng.Float64() <= 0.5 {
			beta = math.Pow(2*rng.Float64(), 1.0/3.0)
		} else {
			beta = math.Pow(1.0/(2*(1.0-rng.Float64())), 1.0/3.0)
		}

		child1[i] = bounds[i].Clamp(0.5 * ((1+beta)*parent1[i] + (1-beta)*parent2[i]))
		child2[i] = bounds[i].Clamp(0.5 * ((1-beta)*parent1[i] + (1+beta)*parent2[i]))
	}

	return child1, child2
}

// PolynomialMutation returns a copy of x where every variable is perturbed with
// probability rate by a step scaled to the width of its bounds.
func PolynomialMutation(rng *rand.Rand, x []float64, rate float64, bounds []Bounds) []float64 {
	out := slices.Clone(x)
	for i := range out {
		if rng.Float64() >= rate {
			continue
		}
		var delta float64
		if rng.Float64() <= 0.5 {
			delta = math.Pow(2*rng.Float64(), 1.0/3.0) - 1
		} else {
			delta = 1 - math.Pow(2*(1-rng.Float64()), 1.0/3.0)
		}
		out[i] = bounds[i].Clamp(out[i] + delta*(bounds[i].H-bounds[i].L))
	}
	return out
}

// HalfUniformCrossover swaps exactly half of the bits in which the parents
// differ, chosen at random, and returns two fresh children.
func HalfUniformCrossover(rng *rand.Rand, parent1, parent2 []bool) ([]bool, []bool) {
	child1, child2 := slices.Clone(parent1), slices.Clone(parent2)

	var diff []int
	for i := range child1 {
		if child1[i] != child2[i] {
			diff = append(diff, i)
		}
	}
	rng.Shuffle(len(diff), func(i, j int) { diff[i], diff[j] = diff[j], diff[i] })
	for _, i := range diff[:len(diff)/2] {
		child1[i], child2[i] = child2[i], child1[i]
	}
	return child1, child2
}

// BitFlip returns a copy of bits where every bit is flipped with probability
// rate.
func BitFlip(rng *rand.Rand, bits []bool, rate float64) []bool {
	out := slices.Clone(bits)
	for i := range out {
		if rng.Float64() < rate {
			out[i] = !out[i]
		}
	}
	return out
}
