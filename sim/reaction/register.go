// register.go wires the reaction constructors into the sim package's
// registration variables (NewReactionFunc, NewEnzymeFunc), breaking the import
// cycle between sim/ (network builder) and sim/reaction/ (implementation).
package reaction

import (
	"math/rand"

	"github.com/inference-sim/metabolism-sim/sim"
)

func init() {
	sim.NewReactionFunc = func(cfg sim.ReactionConfig, rng *rand.Rand) sim.Atomic {
		return NewReaction(cfg, rng)
	}
	sim.NewEnzymeFunc = func(cfg sim.EnzymeConfig, rng *rand.Rand) sim.Atomic {
		return NewEnzyme(cfg, rng)
	}
}
