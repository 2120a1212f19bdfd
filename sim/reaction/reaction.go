// Package reaction implements the Reaction and Enzyme atomic models.
//
// Both bind incoming reactant tickets into per-compartment counters, reject
// each ticket with probability koff, and fire products once every
// participating compartment holds enough tickets for a whole turnover.
// The Enzyme model additionally reports released enzyme units to its space.
package reaction

import (
	"fmt"
	"math/rand"

	"github.com/inference-sim/metabolism-sim/sim"
)

// Reaction simulates the binding kinetics of one reaction across its compartments.
type Reaction struct {
	engine
	site *site
}

// NewReaction creates a Reaction model. Every compartment of cfg.Info must
// have a port in cfg.Ports.
func NewReaction(cfg sim.ReactionConfig, rng *rand.Rand) *Reaction {
	info := cfg.Info
	r := &Reaction{
		engine: newEngine("reaction "+info.ID, cfg.RejectRate, cfg.Ports, rng),
		site:   newSite(&info),
	}
	r.checkPorts(&info)
	return r
}

func (r *Reaction) siteFor(msg sim.Reactant) *site {
	if msg.ReactionID != r.site.info.ID {
		panic(fmt.Sprintf("%s: received ticket for reaction %q", r.name, msg.ReactionID))
	}
	return r.site
}

// InternalTransition commits the task that just fired.
func (r *Reaction) InternalTransition() {
	r.internal()
}

// ExternalTransition binds the incoming tickets.
func (r *Reaction) ExternalTransition(elapsed sim.Time, in sim.Bag) {
	r.external(elapsed, in, r.siteFor)
}

// ConfluenceTransition runs the internal transition, then the external one with zero elapsed.
func (r *Reaction) ConfluenceTransition(_ sim.Time, in sim.Bag) {
	sim.Confluence(r, in)
}

// Output returns the products (and returned tickets) due now.
func (r *Reaction) Output() sim.Bag {
	return r.output()
}

// TimeAdvance returns the delay until the next pending task.
func (r *Reaction) TimeAdvance() sim.Time {
	return r.tasks.TimeAdvance()
}

// Stats returns the model counters.
func (r *Reaction) Stats() sim.ModelStats {
	return r.stats
}

// ID returns the reaction id.
func (r *Reaction) ID() string {
	return r.site.info.ID
}

// SubstrateComps returns a copy of the substrate-side ticket counters.
func (r *Reaction) SubstrateComps() map[string]int {
	return copyComps(r.site.substrateComps)
}

// ProductComps returns a copy of the product-side ticket counters.
func (r *Reaction) ProductComps() map[string]int {
	return copyComps(r.site.productComps)
}

// Pending returns the scheduled tasks in firing order.
func (r *Reaction) Pending() []sim.Task[sim.Bag] {
	return r.tasks.Tasks()
}
