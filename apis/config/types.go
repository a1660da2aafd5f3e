/*
Copyright 2024 The Kubernetes Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package config holds the run configuration of the door-placement optimizer
// and the evacuation simulator.
package config

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Configuration is the unified configuration file layout
type Configuration struct {
	// NSGA configures the optimizer
	NSGA NSGAConfig `json:"nsga_config"`

	// Simulation configures every simulation run by the optimizer
	Simulation SimulationParams `json:"simulation_params"`
}

// NSGAConfig defines the genetic search parameters
type NSGAConfig struct {
	// PopulationSize is the number of chromosomes kept after each generation
	PopulationSize int `json:"population_size" env:"POPULATION_SIZE" validate:"gte=2"`

	// Generations is the number of generations to evolve
	Generations int `json:"generations" env:"GENERATIONS" validate:"gte=0"`

	// CrossoverRate is the probability of recombining two selected parents.
	// Unset means DefaultCrossoverRate; 0 disables crossover.
	CrossoverRate *float64 `json:"crossover_rate,omitempty" env:"CROSSOVER_RATE" validate:"omitempty,gte=0,lte=1"`

	// MutationRate is the probability of mutating each child
	MutationRate float64 `json:"mutation_rate" env:"MUTATION_RATE" validate:"gte=0,lte=1"`

	// UseThreeObjectives optimizes [doors, iterations, distance] instead of
	// [doors, distance] with iterations reported as an auxiliary metric
	UseThreeObjectives bool `json:"use_three_objectives" env:"USE_THREE_OBJECTIVES"`

	// PopulationIdentity is either "phenotype" (objective vector) or "genotype" (gene)
	PopulationIdentity string `json:"population_identity,omitempty" env:"POPULATION_IDENTITY" validate:"oneof=phenotype genotype"`

	// BitFlipRate is the per-door mutation probability, 0 for 1/len(gene)
	BitFlipRate float64 `json:"bit_flip_rate,omitempty" env:"BIT_FLIP_RATE" validate:"gte=0,lte=1"`

	// InitialDoorDensity is the probability of a door being open in a random gene,
	// 0 for min(0.5, 2/len(gene))
	InitialDoorDensity float64 `json:"initial_door_density,omitempty" env:"INITIAL_DOOR_DENSITY" validate:"gte=0,lte=1"`

	// Penalty is the objective value assigned to failed evaluations
	Penalty float64 `json:"penalty,omitempty" env:"PENALTY" validate:"gt=0"`

	// Workers bounds concurrent chromosome evaluations
	Workers int `json:"workers,omitempty" env:"WORKERS" validate:"gte=1"`

	// MaxStall bounds the consecutive attempts that find no new chromosome
	MaxStall int `json:"max_stall,omitempty" env:"MAX_STALL" validate:"gte=1"`

	// Seed drives the optimizer random generator
	Seed uint64 `json:"seed,omitempty" env:"SEED"`
}

// SimulationParams defines how each door configuration is simulated
type SimulationParams struct {
	// ScenarioSeeds selects the pedestrian placements results are averaged over
	ScenarioSeeds SeedList `json:"scenario_seed" env:"SCENARIO_SEED" validate:"min=1"`

	// SimulationSeed drives tie breaking and conflict resolution
	SimulationSeed uint64 `json:"simulation_seed" env:"SIMULATION_SEED"`

	// Draw is accepted for compatibility and ignored
	Draw bool `json:"draw,omitempty"`

	// WallCoefficient scales the wall distance inside the repulsion term
	WallCoefficient float64 `json:"wall_coefficient,omitempty" env:"WALL_COEFFICIENT" validate:"lt=0"`

	// DynamicDecay is the fraction of the dynamic field lost every tick.
	// Unset means the crowd default; 0 keeps the trail forever.
	DynamicDecay *float64 `json:"dynamic_decay,omitempty" env:"DYNAMIC_DECAY" validate:"omitempty,gte=0,lte=1"`

	// MaxIterations caps the ticks of one simulation
	MaxIterations int `json:"max_iterations,omitempty" env:"MAX_ITERATIONS" validate:"gte=1"`

	// TrialWorkers bounds the concurrent scenario seeds of one evaluation
	TrialWorkers int `json:"trial_workers,omitempty" env:"TRIAL_WORKERS" validate:"gte=1"`
}

// SeedList is a list of seeds that may also be written as a single number.
type SeedList []uint64

// UnmarshalJSON accepts either a number or a list of numbers.
func (s *SeedList) UnmarshalJSON(data []byte) error {
	var single uint64
	if err := json.Unmarshal(data, &single); err == nil {
		*s = SeedList{single}
		return nil
	}
	var list []uint64
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("scenario_seed must be a number or a list of numbers: %w", err)
	}
	*s = list
	return nil
}

// UnmarshalText reads a comma separated list, as found in environment variables.
func (s *SeedList) UnmarshalText(text []byte) error {
	var list SeedList
	for _, part := range strings.Split(string(text), ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := strconv.ParseUint(part, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid seed %q: %w", part, err)
		}
		list = append(list, v)
	}
	*s = list
	return nil
}
