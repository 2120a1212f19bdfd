// Package router implements a stateless fan-out model. A Router forwards
// every message it receives, with zero delay, to the output port its routing
// table binds to the message's key.
package router

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/inference-sim/metabolism-sim/sim"
)

// Router re-routes bags by reaction id, enzyme id or compartment.
type Router struct {
	key     sim.RouteKey
	table   sim.RoutingTable[string]
	pending sim.Bag
	stats   sim.ModelStats
}

// NewRouter creates a Router. An unknown key kind panics.
func NewRouter(cfg sim.RouterConfig) *Router {
	switch cfg.Key {
	case sim.RouteByReaction, sim.RouteByEnzyme, sim.RouteByCompartment:
	default:
		panic(fmt.Sprintf("router: unknown route key %q", cfg.Key))
	}
	return &Router{key: cfg.Key, table: cfg.Table}
}

// keyOf extracts the routing key from msg.
func keyOf(k sim.RouteKey, msg sim.Message) (string, bool) {
	switch m := msg.(type) {
	case sim.Reactant:
		switch k {
		case sim.RouteByReaction:
			return m.ReactionID, true
		case sim.RouteByEnzyme:
			return m.EnzymeID, true
		case sim.RouteByCompartment:
			return m.Origin, true
		}
	case sim.Information:
		switch k {
		case sim.RouteByEnzyme:
			return m.EnzymeID, true
		case sim.RouteByCompartment:
			return m.Location.Compartment, true
		}
	}
	return "", false
}

// InternalTransition drops the forwarded bag.
func (r *Router) InternalTransition() {
	r.stats.MessagesRouted += len(r.pending)
	r.pending = nil
}

// ExternalTransition stores the bag for immediate forwarding.
func (r *Router) ExternalTransition(_ sim.Time, in sim.Bag) {
	for _, env := range in {
		key, ok := keyOf(r.key, env.Msg)
		if !ok {
			panic(fmt.Sprintf("router: cannot key %s message by %s", env.Msg.Kind(), r.key))
		}
		// fail on arrival rather than at output time
		r.table.MustAt(key)
	}
	r.pending = r.pending.Merge(in)
}

// ConfluenceTransition forwards the pending bag, then takes the new one.
func (r *Router) ConfluenceTransition(_ sim.Time, in sim.Bag) {
	sim.Confluence(r, in)
}

// Output returns the pending messages on their routed ports.
func (r *Router) Output() sim.Bag {
	if len(r.pending) == 0 {
		return nil
	}
	out := make(sim.Bag, 0, len(r.pending))
	for _, env := range r.pending {
		key, _ := keyOf(r.key, env.Msg)
		out = append(out, sim.Envelope{Port: r.table.MustAt(key), Msg: env.Msg})
	}
	logrus.Tracef("router(%s): forwarding %d message(s)", r.key, len(out))
	return out
}

// TimeAdvance is zero while messages are pending.
func (r *Router) TimeAdvance() sim.Time {
	if len(r.pending) > 0 {
		return sim.Zero
	}
	return sim.Infinity
}

// Stats returns the model counters.
func (r *Router) Stats() sim.ModelStats {
	return r.stats
}
