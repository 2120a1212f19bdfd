package cmd

import (
	"fmt"

	"github.com/sirupsen/logrus"

	sim "github.com/inference-sim/metabolism-sim/sim"
)

// networkOverrides holds CLI values that replace fields of the YAML file.
// Nil pointers mean "flag not set".
type networkOverrides struct {
	Seed    *int64
	Horizon *int64
}

// loadNetworkConfig reads the network file, applies CLI overrides and validates the result.
func loadNetworkConfig(path string, o networkOverrides) (*sim.NetworkSpec, error) {
	if path == "" {
		return nil, fmt.Errorf("--config is required")
	}
	spec, err := sim.LoadNetwork(path)
	if err != nil {
		return nil, err
	}
	if o.Seed != nil {
		logrus.Infof("--seed %d overrides network seed %d", *o.Seed, spec.Seed)
		spec.Seed = *o.Seed
	}
	if o.Horizon != nil {
		logrus.Infof("--horizon %d overrides network horizon %v", *o.Horizon, spec.Horizon)
		spec.Horizon = sim.Time(*o.Horizon)
	}
	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("invalid network %s: %w", path, err)
	}
	return spec, nil
}
