package framework

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chromosomes(points ...ObjectiveSpacePoint) []*Chromosome[int] {
	out := make([]*Chromosome[int], len(points))
	for i, p := range points {
		out[i] = &Chromosome[int]{Gene: i, Objectives: p}
	}
	return out
}

func genes(front []*Chromosome[int]) []int {
	out := make([]int, len(front))
	for i, c := range front {
		out[i] = c.Gene
	}
	return out
}

func TestDominates(t *testing.T) {
	tests := []struct {
		name string
		a, b ObjectiveSpacePoint
		want bool
	}{
		{"better in all", ObjectiveSpacePoint{1, 1}, ObjectiveSpacePoint{2, 2}, true},
		{"better in one", ObjectiveSpacePoint{1, 2}, ObjectiveSpacePoint{2, 2}, true},
		{"equal", ObjectiveSpacePoint{2, 2}, ObjectiveSpacePoint{2, 2}, false},
		{"trade-off", ObjectiveSpacePoint{1, 3}, ObjectiveSpacePoint{2, 2}, false},
		{"worse", ObjectiveSpacePoint{3, 3}, ObjectiveSpacePoint{2, 2}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Dominates(tt.a, tt.b))
		})
	}
}

func TestNonDominatedSort(t *testing.T) {
	population := chromosomes(
		ObjectiveSpacePoint{1, 5}, // 0: front 0
		ObjectiveSpacePoint{2, 2}, // 1: front 0
		ObjectiveSpacePoint{5, 1}, // 2: front 0
		ObjectiveSpacePoint{3, 3}, // 3: front 1
		ObjectiveSpacePoint{2, 2}, // 4: duplicate of 1, front 0
		ObjectiveSpacePoint{4, 4}, // 5: front 2
	)

	fronts := NonDominatedSort(population)
	require.Len(t, fronts, 3)
	assert.ElementsMatch(t, []int{0, 1, 2, 4}, genes(fronts[0]))
	assert.ElementsMatch(t, []int{3}, genes(fronts[1]))
	assert.ElementsMatch(t, []int{5}, genes(fronts[2]))

	for rank, front := range fronts {
		for _, c := range front {
			assert.Equal(t, rank, c.Rank)
		}
	}

	// No member of a front is dominated by another member of the same front,
	// and every member of front k+1 is dominated by someone in front k.
	for k, front := range fronts {
		for _, a := range front {
			for _, b := range front {
				assert.False(t, Dominates(a.Objectives, b.Objectives))
			}
			if k == 0 {
				continue
			}
			found := false
			for _, p := range fronts[k-1] {
				found = found || Dominates(p.Objectives, a.Objectives)
			}
			assert.True(t, found, "chromosome %d in front %d has no dominator in front %d", a.Gene, k, k-1)
		}
	}
}

func TestNonDominatedSort_Empty(t *testing.T) {
	assert.Nil(t, NonDominatedSort[int](nil))
}

func TestCrowdingDistance(t *testing.T) {
	front := chromosomes(
		ObjectiveSpacePoint{0, 4},
		ObjectiveSpacePoint{1, 3},
		ObjectiveSpacePoint{3, 1},
		ObjectiveSpacePoint{4, 0},
	)
	CrowdingDistance(front)

	byGene := make(map[int]float64)
	for _, c := range front {
		byGene[c.Gene] = c.Distance
	}
	assert.True(t, math.IsInf(byGene[0], 1))
	assert.True(t, math.IsInf(byGene[3], 1))
	// (3-0)/4 for each of the two objectives.
	assert.InDelta(t, 1.5, byGene[1], 1e-12)
	assert.InDelta(t, 1.5, byGene[2], 1e-12)
}

func TestCrowdingDistance_SmallFronts(t *testing.T) {
	for n := 1; n <= 2; n++ {
		front := make([]ObjectiveSpacePoint, n)
		for i := range front {
			front[i] = ObjectiveSpacePoint{float64(i), float64(-i)}
		}
		cs := chromosomes(front...)
		CrowdingDistance(cs)
		for _, c := range cs {
			assert.True(t, math.IsInf(c.Distance, 1))
		}
	}
}

func TestCrowded(t *testing.T) {
	a := &Chromosome[int]{Rank: 0, Distance: 0.1}
	b := &Chromosome[int]{Rank: 1, Distance: math.Inf(1)}
	c := &Chromosome[int]{Rank: 0, Distance: 0.5}

	assert.True(t, Crowded(a, b))
	assert.True(t, Crowded(c, a))
	assert.False(t, Crowded(a, a))
}

func TestObjectiveSpacePointKey(t *testing.T) {
	assert.Equal(t, "1,2.5,1e+06", ObjectiveSpacePoint{1, 2.5, 1e6}.Key())
	assert.Equal(t, ObjectiveSpacePoint{0.1, 3}.Key(), ObjectiveSpacePoint{0.1, 3}.Key())
	assert.NotEqual(t, ObjectiveSpacePoint{1, 23}.Key(), ObjectiveSpacePoint{12, 3}.Key())
	assert.Equal(t, "", ObjectiveSpacePoint{}.Key())
}
