package crowd_test

import (
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/klog/v2/ktesting"

	"github.com/mihai-snyk/evacuation-planner/pkg/evacuation/crowd"
	"github.com/mihai-snyk/evacuation-planner/pkg/evacuation/field"
	"github.com/mihai-snyk/evacuation-planner/pkg/evacuation/grid"
)

func newState(t *testing.T, text string, seed uint64) (*crowd.State, *grid.Map) {
	t.Helper()
	m, err := grid.Load(text)
	require.NoError(t, err)
	logger, _ := ktesting.NewTestContext(t)
	rng := rand.New(rand.NewPCG(seed, seed))
	return crowd.NewState(m, field.NewWallField(m), field.NewStaticField(m), crowd.DefaultConfig(), rng, logger), m
}

func walker(id, row, col int) *crowd.Pedestrian {
	return &crowd.Pedestrian{
		ID: id, Row: row, Col: col, Speed: 1,
		Coefficients: crowd.Coefficients{KD: 1, KS: 1, KW: 0.5, KI: 0.5},
	}
}

func TestRun_Corridor(t *testing.T) {
	for seed := uint64(0); seed < 20; seed++ {
		s, _ := newState(t, "11111\n11111\n00002\n11111\n11111\n", seed)
		require.NoError(t, s.Place(walker(0, 2, 0)))

		res := s.Run()
		assert.Equal(t, crowd.Result{Iterations: 4, Distance: 4.0, Evacuated: 1, Remaining: 0}, res, "seed %d", seed)
	}
}

func TestPlace_Errors(t *testing.T) {
	s, _ := newState(t, "1112\n1001\n1111\n", 1)

	require.NoError(t, s.Place(walker(0, 1, 1)))
	assert.True(t, errors.Is(s.Place(walker(1, 1, 1)), crowd.ErrCellOccupied))
	assert.True(t, errors.Is(s.Place(walker(2, 0, 0)), crowd.ErrNotWalkable))
	assert.True(t, errors.Is(s.Place(walker(3, 0, 3)), crowd.ErrNotWalkable), "doors cannot hold a pedestrian")
	assert.True(t, errors.Is(s.Place(walker(4, 7, 7)), crowd.ErrNotWalkable))
}

const junction = "" +
	"1111111\n" +
	"1000001\n" +
	"1110111\n" +
	"1112111\n"

func TestTick_ConflictHasSingleWinner(t *testing.T) {
	for seed := uint64(0); seed < 20; seed++ {
		s, _ := newState(t, junction, seed)
		a, b := walker(0, 1, 2), walker(1, 1, 4)
		a.KD, a.KW, a.KI = 0, 0, 0
		b.KD, b.KW, b.KI = 0, 0, 0
		require.NoError(t, s.Place(a))
		require.NoError(t, s.Place(b))

		s.Tick()

		atJunction := 0
		for _, p := range []*crowd.Pedestrian{a, b} {
			if p.Row == 1 && p.Col == 3 {
				atJunction++
			}
		}
		assert.Equal(t, 1, atJunction, "seed %d: exactly one claimant must win", seed)
		assert.Equal(t, 1.0, s.Result().Distance)

		res := s.Run()
		assert.Equal(t, 2, res.Evacuated)
		assert.Equal(t, 0, res.Remaining)
		assert.GreaterOrEqual(t, res.Iterations, 5)
	}
}

func TestTick_FasterClaimantUsuallyWins(t *testing.T) {
	fastWins := 0
	for seed := uint64(0); seed < 200; seed++ {
		s, _ := newState(t, junction, seed)
		slow, fast := walker(0, 1, 2), walker(1, 1, 4)
		fast.Speed = 1000
		for _, p := range []*crowd.Pedestrian{slow, fast} {
			p.KD, p.KW, p.KI = 0, 0, 0
			require.NoError(t, s.Place(p))
		}
		s.Tick()
		if fast.Col == 3 {
			fastWins++
		}
	}
	assert.Greater(t, fastWins, 190)
}

func TestTick_AtMostOnePedestrianPerCell(t *testing.T) {
	text := "" +
		"1111111111\n" +
		"1000000001\n" +
		"1000000001\n" +
		"1000330001\n" +
		"1000000001\n" +
		"1000000002\n" +
		"1000000002\n" +
		"1111111111\n"
	s, m := newState(t, text, 7)

	rng := rand.New(rand.NewPCG(3, 3))
	empty := m.EmptyPositions()
	rng.Shuffle(len(empty), func(i, j int) { empty[i], empty[j] = empty[j], empty[i] })
	for id := 0; id < 25; id++ {
		require.NoError(t, s.Place(walker(id, empty[id].Row, empty[id].Col)))
	}

	for tick := 0; tick < 200 && len(s.Active()) > 0; tick++ {
		s.Tick()
		seen := make(map[grid.Point]bool)
		for _, p := range s.Active() {
			pos := grid.Point{Row: p.Row, Col: p.Col}
			require.Falsef(t, seen[pos], "tick %d: two pedestrians at %v", tick, pos)
			seen[pos] = true
			require.True(t, s.Occupied(p.Row, p.Col))
			require.Equal(t, grid.Empty, m.At(p.Row, p.Col))
		}
	}
	res := s.Result()
	assert.Equal(t, 25, res.Evacuated+res.Remaining)
}

func TestRun_IterationCap(t *testing.T) {
	m, err := grid.Load("111\n101\n111\n")
	require.NoError(t, err)
	logger, _ := ktesting.NewTestContext(t)
	cfg := crowd.DefaultConfig()
	cfg.MaxIterations = 25
	s := crowd.NewState(m, field.NewWallField(m), field.NewStaticField(m), cfg, rand.New(rand.NewPCG(1, 1)), logger)
	require.NoError(t, s.Place(walker(0, 1, 1)))

	res := s.Run()
	assert.Equal(t, crowd.Result{Iterations: 25, Distance: 0, Evacuated: 0, Remaining: 1}, res)
}
