package router

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inference-sim/metabolism-sim/sim"
)

func reactant(rid, eid string) sim.Envelope {
	return sim.Envelope{Msg: sim.Reactant{ReactionID: rid, EnzymeID: eid, Origin: "cyt", Direction: sim.STP, Tickets: 1}}
}

func TestRouter_ForwardsByEnzymeWithZeroDelay(t *testing.T) {
	// GIVEN a router keyed by enzyme id
	r := NewRouter(sim.RouterConfig{
		Key:   sim.RouteByEnzyme,
		Table: sim.RoutingTableOf(map[string]int{"hk": 0, "pfk": 1}),
	})
	assert.Equal(t, sim.Infinity, r.TimeAdvance())

	// WHEN tickets for both enzymes arrive
	r.ExternalTransition(7, sim.Bag{reactant("r1", "pfk"), reactant("r2", "hk")})

	// THEN they are due immediately on the enzymes' ports, in arrival order
	assert.Equal(t, sim.Zero, r.TimeAdvance())
	out := r.Output()
	require.Len(t, out, 2)
	assert.Equal(t, 1, out[0].Port)
	assert.Equal(t, 0, out[1].Port)

	// WHEN the router fires it becomes passive
	r.InternalTransition()
	assert.Equal(t, sim.Infinity, r.TimeAdvance())
	assert.Empty(t, r.Output())
	assert.Equal(t, 2, r.Stats().MessagesRouted)
}

func TestRouter_KeyKinds(t *testing.T) {
	info := sim.Envelope{Msg: sim.Information{EnzymeID: "hk", Released: 1, Location: sim.Address{Compartment: "cyt"}}}
	tests := []struct {
		name string
		key  sim.RouteKey
		env  sim.Envelope
		want int
	}{
		{"reactant by reaction", sim.RouteByReaction, reactant("r1", "hk"), 4},
		{"reactant by enzyme", sim.RouteByEnzyme, reactant("r1", "hk"), 5},
		{"reactant by origin", sim.RouteByCompartment, reactant("r1", "hk"), 6},
		{"information by enzyme", sim.RouteByEnzyme, info, 5},
		{"information by location", sim.RouteByCompartment, info, 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRouter(sim.RouterConfig{
				Key:   tt.key,
				Table: sim.RoutingTableOf(map[string]int{"r1": 4, "hk": 5, "cyt": 6}),
			})
			r.ExternalTransition(0, sim.Bag{tt.env})
			out := r.Output()
			require.Len(t, out, 1)
			assert.Equal(t, tt.want, out[0].Port)
		})
	}
}

func TestRouter_Confluence_ForwardsOldBagFirst(t *testing.T) {
	r := NewRouter(sim.RouterConfig{Key: sim.RouteByReaction, Table: sim.RoutingTableOf(map[string]int{"a": 0, "b": 1})})
	r.ExternalTransition(0, sim.Bag{reactant("a", "")})

	r.ConfluenceTransition(0, sim.Bag{reactant("b", "")})

	out := r.Output()
	require.Len(t, out, 1)
	assert.Equal(t, 1, out[0].Port)
	assert.Equal(t, 1, r.Stats().MessagesRouted)
}

func TestRouter_ContractViolations(t *testing.T) {
	table := sim.RoutingTableOf(map[string]int{"hk": 0})

	assert.Panics(t, func() { NewRouter(sim.RouterConfig{Key: "metabolite", Table: table}) })

	r := NewRouter(sim.RouterConfig{Key: sim.RouteByEnzyme, Table: table})
	assert.PanicsWithValue(t, "routing table missing entry for pfk", func() {
		r.ExternalTransition(0, sim.Bag{reactant("r1", "pfk")})
	})
	assert.Panics(t, func() {
		r.ExternalTransition(0, sim.Bag{{Msg: sim.Product{Metabolites: sim.Amounts{"x": 1}}}})
	})

	byReaction := NewRouter(sim.RouterConfig{Key: sim.RouteByReaction, Table: table})
	assert.Panics(t, func() {
		byReaction.ExternalTransition(0, sim.Bag{{Msg: sim.Information{EnzymeID: "hk"}}})
	})
}
