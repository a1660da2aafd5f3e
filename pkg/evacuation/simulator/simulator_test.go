package simulator_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/klog/v2/ktesting"
	"k8s.io/utils/ptr"

	"github.com/mihai-snyk/evacuation-planner/pkg/evacuation/crowd"
	"github.com/mihai-snyk/evacuation-planner/pkg/evacuation/grid"
	"github.com/mihai-snyk/evacuation-planner/pkg/evacuation/simulator"
)

const office = "" +
	"1111211111\n" +
	"1000000001\n" +
	"1003300001\n" +
	"1000000002\n" +
	"1000000002\n" +
	"1000033001\n" +
	"1000000001\n" +
	"1111111111\n"

const hall = "" +
	"1111211111\n" +
	"1000000001\n" +
	"1000000001\n" +
	"1000000002\n" +
	"1000000002\n" +
	"1000000001\n" +
	"1111111111\n"

func person(n int) []crowd.Descriptor {
	out := make([]crowd.Descriptor, n)
	for i := range out {
		out[i] = crowd.Descriptor{
			Speed:        1 + float64(i%3)*0.5,
			Coefficients: crowd.Coefficients{KD: 0.3, KS: 1, KW: 0.5, KI: 0.2},
		}
	}
	return out
}

func newSimulator(t *testing.T) (*simulator.Simulator, context.Context) {
	logger, ctx := ktesting.NewTestContext(t)
	return simulator.New(crowd.DefaultConfig(), logger), ctx
}

func TestSimulate_CorridorEndToEnd(t *testing.T) {
	sim, ctx := newSimulator(t)
	m, err := grid.Load("11111\n11111\n00002\n11111\n11111\n")
	require.NoError(t, err)

	for seed := uint64(0); seed < 10; seed++ {
		res, err := sim.Simulate(ctx, simulator.Scenario{
			Map: m,
			Pedestrians: []crowd.Descriptor{{
				Speed:        1,
				Coefficients: crowd.Coefficients{KD: 1, KS: 1, KW: 1, KI: 1},
				Row:          ptr.To(2), Col: ptr.To(0),
			}},
			Seeds: simulator.Seeds{Scenario: 11, Simulation: seed},
		})
		require.NoError(t, err)
		assert.Equal(t, 4, res.Iterations)
		assert.Equal(t, 4.0, res.Distance)
	}
}

func TestSimulate_RoomWithDoorInWall(t *testing.T) {
	sim, ctx := newSimulator(t)
	m, err := grid.Load("" +
		"11111\n" +
		"10001\n" +
		"00002\n" +
		"10001\n" +
		"11111\n")
	require.NoError(t, err)

	for seed := uint64(0); seed < 50; seed++ {
		res, err := sim.Simulate(ctx, simulator.Scenario{
			Map: m,
			Pedestrians: []crowd.Descriptor{{
				Speed:        1,
				Coefficients: crowd.Coefficients{KD: 1, KS: 1, KW: 1, KI: 1},
				Row:          ptr.To(2), Col: ptr.To(0),
			}},
			Seeds: simulator.Seeds{Scenario: 11, Simulation: seed},
		})
		require.NoError(t, err)
		assert.Equal(t, crowd.Result{Iterations: 4, Distance: 4.0, Evacuated: 1}, res, "simulation seed %d", seed)
	}
}

func TestSimulate_Deterministic(t *testing.T) {
	sim, ctx := newSimulator(t)
	m, err := grid.Load(hall)
	require.NoError(t, err)

	sc := simulator.Scenario{Map: m, Pedestrians: person(20), Seeds: simulator.Seeds{Scenario: 3, Simulation: 9}}
	first, err := sim.Simulate(ctx, sc)
	require.NoError(t, err)
	second, err := sim.Simulate(ctx, sc)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 20, first.Evacuated)
	assert.Equal(t, 0, first.Remaining)
	assert.Greater(t, first.Distance, 0.0)
}

func TestSimulate_DoesNotMutateMap(t *testing.T) {
	sim, ctx := newSimulator(t)
	m, err := grid.Load(office)
	require.NoError(t, err)
	before := m.String()

	sc := simulator.Scenario{Map: m, Pedestrians: person(5), Seeds: simulator.Seeds{Scenario: 1, Simulation: 1}}
	_, err = sim.Simulate(ctx, sc.WithDoors([]grid.DoorSpec{{Row: 0, Col: 4, Size: 1, Direction: grid.Horizontal}}))
	require.NoError(t, err)

	assert.Equal(t, before, m.String())
}

func TestSimulate_Errors(t *testing.T) {
	sim, ctx := newSimulator(t)
	m, err := grid.Load(office)
	require.NoError(t, err)

	t.Run("NoExits", func(t *testing.T) {
		sc := simulator.Scenario{Map: m, Pedestrians: person(1)}.WithDoors(nil)
		_, err := sim.Simulate(ctx, sc)
		assert.True(t, errors.Is(err, simulator.ErrNoExits))
	})

	t.Run("CrowdOverflow", func(t *testing.T) {
		_, err := sim.Simulate(ctx, simulator.Scenario{Map: m, Pedestrians: person(len(m.EmptyPositions()) + 1)})
		assert.True(t, errors.Is(err, simulator.ErrCrowdOverflow))
	})

	t.Run("PinnedOnWall", func(t *testing.T) {
		peds := person(1)
		peds[0].Row, peds[0].Col = ptr.To(0), ptr.To(0)
		_, err := sim.Simulate(ctx, simulator.Scenario{Map: m, Pedestrians: peds})
		assert.True(t, errors.Is(err, simulator.ErrInvalidPlacement))
		assert.True(t, errors.Is(err, crowd.ErrNotWalkable))
	})

	t.Run("Canceled", func(t *testing.T) {
		canceled, cancel := context.WithCancel(ctx)
		cancel()
		_, err := sim.Simulate(canceled, simulator.Scenario{Map: m, Pedestrians: person(1)})
		assert.True(t, errors.Is(err, context.Canceled))
	})
}

func TestSimulate_ScenarioSeedChangesPlacement(t *testing.T) {
	sim, ctx := newSimulator(t)
	m, err := grid.Load(office)
	require.NoError(t, err)

	results := make(map[crowd.Result]bool)
	for seed := uint64(0); seed < 8; seed++ {
		res, err := sim.Simulate(ctx, simulator.Scenario{Map: m, Pedestrians: person(6), Seeds: simulator.Seeds{Scenario: seed}})
		require.NoError(t, err)
		results[res] = true
	}
	assert.Greater(t, len(results), 1, "different placements should give different runs")
}
