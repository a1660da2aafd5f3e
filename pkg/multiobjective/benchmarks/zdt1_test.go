package benchmarks

import (
	"context"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZDT1Objectives(t *testing.T) {
	p := NewZDT1(3)

	// On the true front g == 1.
	got := p.Objectives([]float64{0.25, 0, 0})
	assert.InDelta(t, 0.25, got[0], 1e-12)
	assert.InDelta(t, 0.5, got[1], 1e-12)

	// g = 1 + 9*(1+1)/2 = 10.
	got = p.Objectives([]float64{0.4, 1, 1})
	assert.InDelta(t, 0.4, got[0], 1e-12)
	assert.InDelta(t, 10*(1-math.Sqrt(0.04)), got[1], 1e-12)
}

func TestZDT1Operators(t *testing.T) {
	p := NewZDT1(6)
	rng := rand.New(rand.NewPCG(1, 2))

	for range 200 {
		a, b := p.New(rng), p.New(rng)
		aCopy := append([]float64(nil), a...)

		c1, c2 := p.Crossover(rng, a, b)
		m := p.Mutate(rng, a)

		require.Equal(t, aCopy, a, "parents must not be modified")
		for _, x := range [][]float64{c1, c2, m} {
			require.Len(t, x, 6)
			for _, v := range x {
				require.GreaterOrEqual(t, v, 0.0)
				require.LessOrEqual(t, v, 1.0)
			}
		}
	}
}

func TestZDT1Build(t *testing.T) {
	p := NewZDT1(2)
	c, err := p.Build(context.Background(), 7, []float64{1, 0})
	require.NoError(t, err)
	assert.Equal(t, 7, c.Generation)
	assert.InDelta(t, 1.0, c.Objectives[0], 1e-12)
	assert.InDelta(t, 0.0, c.Objectives[1], 1e-12)
	assert.Equal(t, "1,0", p.Key(c.Gene))
}

func TestTrueParetoFront(t *testing.T) {
	front := NewZDT1(30).TrueParetoFront(5)
	require.Len(t, front, 5)
	assert.Equal(t, 0.0, front[0][0])
	assert.Equal(t, 1.0, front[0][1])
	assert.Equal(t, 1.0, front[4][0])
	assert.Equal(t, 0.0, front[4][1])
}
