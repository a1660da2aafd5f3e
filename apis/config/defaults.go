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

package config

import (
	"runtime"

	"k8s.io/utils/ptr"

	"github.com/mihai-snyk/evacuation-planner/pkg/evacuation/crowd"
	"github.com/mihai-snyk/evacuation-planner/pkg/multiobjective/algorithms"
	"github.com/mihai-snyk/evacuation-planner/pkg/multiobjective/doorplacement"
)

const (
	DefaultCrossoverRate      = 0.8
	DefaultPopulationIdentity = "phenotype"
	DefaultMaxStall           = 50
)

// SetDefaults fills every unset optional field.
func SetDefaults(c *Configuration) {
	SetDefaultsNSGAConfig(&c.NSGA)
	SetDefaultsSimulationParams(&c.Simulation)
}

// SetDefaultsNSGAConfig fills the unset optional optimizer fields.
func SetDefaultsNSGAConfig(c *NSGAConfig) {
	if c.CrossoverRate == nil {
		c.CrossoverRate = ptr.To(DefaultCrossoverRate)
	}
	if c.PopulationIdentity == "" {
		c.PopulationIdentity = DefaultPopulationIdentity
	}
	if c.Penalty == 0 {
		c.Penalty = doorplacement.DefaultPenalty
	}
	if c.Workers == 0 {
		c.Workers = runtime.GOMAXPROCS(0)
	}
	if c.MaxStall == 0 {
		c.MaxStall = DefaultMaxStall
	}
}

// SetDefaultsSimulationParams fills the unset optional simulation fields.
func SetDefaultsSimulationParams(c *SimulationParams) {
	if len(c.ScenarioSeeds) == 0 {
		c.ScenarioSeeds = SeedList{0}
	}
	if c.WallCoefficient == 0 {
		c.WallCoefficient = crowd.DefaultWallCoefficient
	}
	if c.DynamicDecay == nil {
		c.DynamicDecay = ptr.To(crowd.DefaultDynamicDecay)
	}
	if c.MaxIterations == 0 {
		c.MaxIterations = crowd.DefaultMaxIterations
	}
	if c.TrialWorkers == 0 {
		c.TrialWorkers = 1
	}
}

// CrowdConfig returns the movement model parameters.
func (p SimulationParams) CrowdConfig() crowd.Config {
	return crowd.Config{
		WallCoefficient: p.WallCoefficient,
		DynamicDecay:    ptr.Deref(p.DynamicDecay, crowd.DefaultDynamicDecay),
		MaxIterations:   p.MaxIterations,
	}
}

// FactoryOptions returns the door-placement factory options.
func (c Configuration) FactoryOptions() doorplacement.Options {
	return doorplacement.Options{
		ScenarioSeeds:      append([]uint64(nil), c.Simulation.ScenarioSeeds...),
		SimulationSeed:     c.Simulation.SimulationSeed,
		ThreeObjectives:    c.NSGA.UseThreeObjectives,
		InitialDoorDensity: c.NSGA.InitialDoorDensity,
		BitFlipRate:        c.NSGA.BitFlipRate,
		Penalty:            c.NSGA.Penalty,
		TrialWorkers:       c.Simulation.TrialWorkers,
	}
}

// AlgorithmConfig returns the NSGA-II engine parameters.
func (c NSGAConfig) AlgorithmConfig() algorithms.Config {
	return algorithms.Config{
		PopulationSize: c.PopulationSize,
		Generations:    c.Generations,
		CrossoverRate:  ptr.Deref(c.CrossoverRate, DefaultCrossoverRate),
		MutationRate:   c.MutationRate,
		Identity:       algorithms.Identity(c.PopulationIdentity),
		Workers:        c.Workers,
		MaxStall:       c.MaxStall,
		Seed:           c.Seed,
	}
}
