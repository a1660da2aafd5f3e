package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/klog/v2/ktesting"

	"github.com/mihai-snyk/evacuation-planner/pkg/multiobjective/util"
)

func TestRun(t *testing.T) {
	_, ctx := ktesting.NewTestContext(t)
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		return path
	}

	opts := &options{
		configPath: write("nsga.yaml", `
nsga_config:
  population_size: 4
  generations: 2
  crossover_rate: 0.9
  mutation_rate: 0.5
  workers: 2
simulation_params:
  scenario_seed: [1, 2]
  simulation_seed: 3
`),
		mapPath: write("map.txt", "1121111\n1000001\n2000001\n1000002\n1111111\n"),
		pedestrianPath: write("individuals.json",
			`{"caracterizations": [{"label": "adult", "amount": 4, "speed": 1, "KD": 0.2, "KS": 1, "KW": 0.3, "KI": 0.2}]}`),
		output: filepath.Join(dir, "front.json"),
	}
	require.NoError(t, run(ctx, opts))

	data, err := os.ReadFile(opts.output)
	require.NoError(t, err)
	var solutions []util.Solution
	require.NoError(t, json.Unmarshal(data, &solutions))
	require.NotEmpty(t, solutions)
	for i, s := range solutions {
		assert.Equal(t, i, s.SolutionID)
		assert.Len(t, s.Gene, 3)
		assert.Len(t, s.Objectives, 2)
		assert.Equal(t, "NSGA-II-Cached-2obj", s.Algorithm)
	}
}

func TestRun_MissingFlags(t *testing.T) {
	_, ctx := ktesting.NewTestContext(t)
	err := run(ctx, &options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--config is required")
	assert.Contains(t, err.Error(), "--map is required")
}
