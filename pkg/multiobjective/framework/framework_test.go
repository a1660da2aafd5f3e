package framework

import (
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoundsClamp(t *testing.T) {
	b := Bounds{L: -1, H: 2}
	assert.Equal(t, -1.0, b.Clamp(-5))
	assert.Equal(t, 0.5, b.Clamp(0.5))
	assert.Equal(t, 2.0, b.Clamp(3))
}

func TestRealOperatorsStayInBounds(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))
	bounds := []Bounds{{L: 0, H: 1}, {L: -2, H: 2}, {L: 5, H: 6}}

	for range 500 {
		a := []float64{rng.Float64(), 4*rng.Float64() - 2, 5 + rng.Float64()}
		b := []float64{rng.Float64(), 4*rng.Float64() - 2, 5 + rng.Float64()}
		aCopy := slices.Clone(a)

		c1, c2 := SBX(rng, a, b, bounds)
		m := PolynomialMutation(rng, a, 1, bounds)

		require.Equal(t, aCopy, a)
		for _, x := range [][]float64{c1, c2, m} {
			for i, v := range x {
				require.GreaterOrEqual(t, v, bounds[i].L)
				require.LessOrEqual(t, v, bounds[i].H)
			}
		}
	}
}

func TestPolynomialMutationZeroRate(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 1))
	x := []float64{0.1, 0.2}
	assert.Equal(t, x, PolynomialMutation(rng, x, 0, []Bounds{{0, 1}, {0, 1}}))
}

func TestHalfUniformCrossover(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 8))
	a := []bool{true, true, true, true, false, false}
	b := []bool{false, false, false, false, false, true}

	for range 100 {
		c1, c2 := HalfUniformCrossover(rng, a, b)

		// Five bits differ, so two of them are exchanged.
		swapped := 0
		for i := range a {
			if c1[i] != a[i] {
				swapped++
			}
			// Every bit of a child comes from one of the parents.
			require.True(t, (c1[i] == a[i] && c2[i] == b[i]) || (c1[i] == b[i] && c2[i] == a[i]))
		}
		assert.Equal(t, 2, swapped)
	}
	assert.Equal(t, []bool{true, true, true, true, false, false}, a)
	assert.Equal(t, []bool{false, false, false, false, false, true}, b)
}

func TestBitFlip(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	bits := []bool{true, false, true}

	assert.Equal(t, []bool{false, true, false}, BitFlip(rng, bits, 1))
	assert.Equal(t, bits, BitFlip(rng, bits, 0))
	assert.Equal(t, []bool{true, false, true}, bits)
}
