package reaction

import (
	"fmt"
	"math/rand"

	"github.com/inference-sim/metabolism-sim/sim"
)

// Enzyme simulates one enzyme species handling several reactions at once.
// Each reaction keeps its own ticket pools; the only shared resource is the
// enzyme's free amount, which the owning Space manages.
type Enzyme struct {
	engine
	id       string
	location sim.Address
	sites    map[string]*site
}

// NewEnzyme creates an Enzyme model. cfg.Ports must bind every compartment
// touched by its reactions and the enzyme's own compartment.
func NewEnzyme(cfg sim.EnzymeConfig, rng *rand.Rand) *Enzyme {
	if len(cfg.Reactions) == 0 {
		panic(fmt.Sprintf("enzyme %s: no reactions", cfg.ID))
	}
	e := &Enzyme{
		engine:   newEngine("enzyme "+cfg.ID, cfg.RejectRate, cfg.Ports, rng),
		id:       cfg.ID,
		location: cfg.Location,
		sites:    make(map[string]*site, len(cfg.Reactions)),
	}
	for id, info := range cfg.Reactions {
		if info == nil || info.ID != id {
			panic(fmt.Sprintf("enzyme %s: reaction entry %q is inconsistent", cfg.ID, id))
		}
		e.sites[id] = newSite(info)
		e.checkPorts(info)
	}
	infoPort := cfg.Ports.MustAt(cfg.Location.Compartment)
	e.release = func(units int) sim.Bag {
		if units == 0 {
			return nil
		}
		e.stats.EnzymesReleased += units
		return sim.Bag{{Port: infoPort, Msg: sim.Information{EnzymeID: e.id, Released: units, Location: e.location}}}
	}
	return e
}

func (e *Enzyme) siteFor(msg sim.Reactant) *site {
	s, ok := e.sites[msg.ReactionID]
	if !ok {
		panic(fmt.Sprintf("%s: does not catalyse reaction %q", e.name, msg.ReactionID))
	}
	return s
}

// InternalTransition commits the task that just fired.
func (e *Enzyme) InternalTransition() {
	e.internal()
}

// ExternalTransition binds the incoming tickets, reaction by reaction.
func (e *Enzyme) ExternalTransition(elapsed sim.Time, in sim.Bag) {
	e.external(elapsed, in, e.siteFor)
}

// ConfluenceTransition runs the internal transition, then the external one with zero elapsed.
func (e *Enzyme) ConfluenceTransition(_ sim.Time, in sim.Bag) {
	sim.Confluence(e, in)
}

// Output returns products and enzyme release notices due now.
func (e *Enzyme) Output() sim.Bag {
	return e.output()
}

// TimeAdvance returns the delay until the next pending task.
func (e *Enzyme) TimeAdvance() sim.Time {
	return e.tasks.TimeAdvance()
}

// Stats returns the model counters.
func (e *Enzyme) Stats() sim.ModelStats {
	return e.stats
}

// ID returns the enzyme id.
func (e *Enzyme) ID() string {
	return e.id
}

// SubstrateComps returns a copy of the substrate counters of reaction rid.
func (e *Enzyme) SubstrateComps(rid string) map[string]int {
	return copyComps(e.siteFor(sim.Reactant{ReactionID: rid}).substrateComps)
}

// ProductComps returns a copy of the product counters of reaction rid.
func (e *Enzyme) ProductComps(rid string) map[string]int {
	return copyComps(e.siteFor(sim.Reactant{ReactionID: rid}).productComps)
}
