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
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"sigs.k8s.io/yaml"
)

// EnvPrefix prefixes the environment variables overriding file settings,
// e.g. EVAC_POPULATION_SIZE or EVAC_SCENARIO_SEED=1,2,3.
const EnvPrefix = "EVAC_"

// ErrMissingKeys is returned when a mandatory optimizer setting is absent.
var ErrMissingKeys = errors.New("configuration missing required keys")

// requiredKeys must be present in the optimizer section.
var requiredKeys = []string{"population_size", "generations", "mutation_rate"}

// Load reads a configuration file. See Parse.
func Load(path string) (*Configuration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes a YAML or JSON configuration in either the unified layout
// ({nsga_config, simulation_params}) or the legacy flat optimizer layout, then
// applies defaults, environment overrides and validation, in that order.
func Parse(data []byte) (*Configuration, error) {
	raw, err := yaml.YAMLToJSON(data)
	if err != nil {
		return nil, err
	}

	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, fmt.Errorf("configuration must be an object: %w", err)
	}

	cfg := &Configuration{}
	section := raw
	if unified, ok := probe["nsga_config"]; ok {
		if err := json.Unmarshal(raw, cfg); err != nil {
			return nil, err
		}
		section = unified
	} else if err := json.Unmarshal(raw, &cfg.NSGA); err != nil {
		return nil, err
	}

	if err := checkRequired(section); err != nil {
		return nil, err
	}

	SetDefaults(cfg)
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("environment overrides: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func checkRequired(section json.RawMessage) error {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(section, &keys); err != nil {
		return fmt.Errorf("nsga_config must be an object: %w", err)
	}
	var missing []string
	for _, k := range requiredKeys {
		if _, ok := keys[k]; !ok {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingKeys, strings.Join(missing, ", "))
	}
	return nil
}
