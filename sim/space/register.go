package space

import (
	"math/rand"

	"github.com/inference-sim/metabolism-sim/sim"
)

func init() {
	sim.NewSpaceFunc = func(cfg sim.SpaceConfig, rng *rand.Rand) sim.Atomic {
		return NewSpace(cfg, rng)
	}
}
