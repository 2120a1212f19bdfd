package sim

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inference-sim/metabolism-sim/sim/trace"
)

const minimalNetwork = `
seed: 7
horizon: 19
spaces:
  - id: cytosol
    interval: 10
    send_delay: 1
    metabolites: {glc: 3, atp: 3}
reactions:
  - id: hk
    location: {compartment: cytosol, reaction_set: glycolysis}
    substrates: {cytosol: {metabolites: {glc: 1, atp: 1}}}
    products: {cytosol: {metabolites: {g6p: 1, adp: 1}}}
    kon_stp: .inf
    koff_stp: 0
    rate: 5
enzymes:
  - id: hexokinase
    location: {compartment: cytosol, reaction_set: glycolysis}
    amount: 2
    reactions: [hk]
    reject_rate: 1
`

// spaceView is the read-only surface of sim/space.Space used by these tests.
type spaceView interface {
	Metabolites() Amounts
	EnzymeAmount(id string) int
}

func mustParse(t *testing.T, doc string) *NetworkSpec {
	t.Helper()
	spec, err := ParseNetwork([]byte(doc))
	require.NoError(t, err)
	return spec
}

func TestParseNetwork_DecodesFields(t *testing.T) {
	spec := mustParse(t, minimalNetwork)

	assert.Equal(t, int64(7), spec.Seed)
	assert.Equal(t, Time(19), spec.Horizon)
	require.Len(t, spec.Reactions, 1)
	hk := spec.Reactions[0]
	assert.True(t, math.IsInf(hk.KonSTP, 1))
	assert.Equal(t, Address{Compartment: "cytosol", ReactionSet: "glycolysis"}, hk.Location)
	assert.Equal(t, Amounts{"glc": 1, "atp": 1}, hk.Substrates["cytosol"].Metabolites)
	assert.Equal(t, []string{"hk"}, spec.Enzymes[0].Reactions)
}

func TestParseNetwork_RejectsUnknownFields(t *testing.T) {
	_, err := ParseNetwork([]byte("seed: 1\nhorizon: 10\nspacez: []\n"))
	assert.Error(t, err)
}

func TestLoadNetwork_MissingFile(t *testing.T) {
	_, err := LoadNetwork(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestNetworkSpec_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(n *NetworkSpec)
	}{
		{"zero horizon", func(n *NetworkSpec) { n.Horizon = 0 }},
		{"infinite horizon", func(n *NetworkSpec) { n.Horizon = Infinity }},
		{"no spaces", func(n *NetworkSpec) { n.Spaces = nil }},
		{"duplicate space", func(n *NetworkSpec) { n.Spaces = append(n.Spaces, n.Spaces[0]) }},
		{"zero interval", func(n *NetworkSpec) { n.Spaces[0].Interval = 0 }},
		{"negative metabolite", func(n *NetworkSpec) { n.Spaces[0].Metabolites["glc"] = -1 }},
		{"koff above one", func(n *NetworkSpec) { n.Reactions[0].KoffSTP = 1.5 }},
		{"empty products", func(n *NetworkSpec) { n.Reactions[0].Products = nil }},
		{"unknown compartment", func(n *NetworkSpec) {
			n.Reactions[0].Products = Stoichiometry{"nucleus": {Metabolites: Amounts{"g6p": 1}}}
		}},
		{"duplicate reaction", func(n *NetworkSpec) { n.Reactions = append(n.Reactions, n.Reactions[0]) }},
		{"enzyme unknown reaction", func(n *NetworkSpec) { n.Enzymes[0].Reactions = []string{"pfk"} }},
		{"enzyme without reactions", func(n *NetworkSpec) { n.Enzymes[0].Reactions = nil }},
		{"enzyme negative amount", func(n *NetworkSpec) { n.Enzymes[0].Amount = -2 }},
		{"enzyme in unknown space", func(n *NetworkSpec) { n.Enzymes[0].Location.Compartment = "golgi" }},
		{"duplicate enzyme", func(n *NetworkSpec) { n.Enzymes = append(n.Enzymes, n.Enzymes[0]) }},
		{"standalone unknown", func(n *NetworkSpec) { n.StandaloneReactions = []StandaloneSpec{{Reaction: "nope"}} }},
		{"injection into enzyme reaction", func(n *NetworkSpec) {
			n.Injections = []InjectionSpec{{Reaction: "hk", Compartment: "cytosol", Direction: STP, Tickets: 1}}
		}},
		{"injection without target", func(n *NetworkSpec) { n.Injections = []InjectionSpec{{At: 1}} }},
		{"injection into unknown space", func(n *NetworkSpec) {
			n.Injections = []InjectionSpec{{Space: "golgi", Metabolites: Amounts{"glc": 1}}}
		}},
		{"empty metabolite injection", func(n *NetworkSpec) { n.Injections = []InjectionSpec{{Space: "cytosol"}} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := mustParse(t, minimalNetwork)
			require.NoError(t, spec.Validate())
			tt.mutate(spec)
			assert.Error(t, spec.Validate())
		})
	}
}

func TestNetworkSpec_Validate_StandaloneInjections(t *testing.T) {
	base := func() *NetworkSpec {
		spec := mustParse(t, minimalNetwork)
		spec.StandaloneReactions = []StandaloneSpec{{Reaction: "hk", RejectRate: 1}}
		return spec
	}
	ok := InjectionSpec{Reaction: "hk", Compartment: "cytosol", Direction: STP, Tickets: 2}

	spec := base()
	spec.Injections = []InjectionSpec{ok}
	require.NoError(t, spec.Validate())

	bad := []InjectionSpec{
		{Reaction: "hk", Compartment: "cytosol", Direction: PTS, Tickets: 1},
		{Reaction: "hk", Compartment: "cytosol", Direction: "sideways", Tickets: 1},
		{Reaction: "hk", Compartment: "ext", Direction: STP, Tickets: 1},
		{Reaction: "hk", Compartment: "cytosol", Direction: STP, Tickets: 0},
		{Reaction: "hk", Space: "cytosol", Compartment: "cytosol", Direction: STP, Tickets: 1},
		{At: -1, Reaction: "hk", Compartment: "cytosol", Direction: STP, Tickets: 1},
	}
	for i, inj := range bad {
		spec := base()
		spec.Injections = []InjectionSpec{inj}
		assert.Error(t, spec.Validate(), "case %d", i)
	}
}

func TestNetworkSpec_Validate_EnzymeMustBindInItsSpace(t *testing.T) {
	spec := mustParse(t, minimalNetwork)
	spec.Spaces = append(spec.Spaces, SpaceSpec{ID: "ext", Interval: 10})
	spec.Reactions[0].Substrates = Stoichiometry{"ext": {Metabolites: Amounts{"glc": 1}}}

	assert.ErrorContains(t, spec.Validate(), "outside the enzyme's compartment")
}

func TestNetworkSpec_Build_Topology(t *testing.T) {
	spec := mustParse(t, minimalNetwork)

	s, err := spec.Build()
	require.NoError(t, err)

	assert.Equal(t, []string{"space:cytosol", "router:cytosol/glycolysis", "enzyme:hexokinase"}, s.ModelIDs())
	assert.Equal(t, []portRef{{"router:cytosol/glycolysis", 0}}, s.couplings[portRef{"space:cytosol", 0}])
	assert.Equal(t, []portRef{{"enzyme:hexokinase", 0}}, s.couplings[portRef{"router:cytosol/glycolysis", 0}])
	assert.Equal(t, []portRef{{"space:cytosol", 0}}, s.couplings[portRef{"enzyme:hexokinase", 0}])
	assert.Equal(t, Time(19), s.Horizon)
}

func TestNetworkSpec_Build_RunsOneBindingCycle(t *testing.T) {
	// GIVEN two hexokinase units with certain binding and no unbinding
	spec := mustParse(t, minimalNetwork)
	s, err := spec.Build()
	require.NoError(t, err)

	// WHEN run to tick 19
	s.Run()

	// THEN one selection at 10 sends two tickets, the router forwards them at
	// 11, and both turnovers return products and enzymes at 16
	assert.Equal(t, Time(16), s.Clock)
	assert.Equal(t, int64(4), s.Metrics.Steps)
	m, _ := s.Model("space:cytosol")
	cytosol := m.(spaceView)
	assert.Equal(t, Amounts{"glc": 1, "atp": 1, "g6p": 2, "adp": 2}, cytosol.Metabolites())
	assert.Equal(t, 2, cytosol.EnzymeAmount("hexokinase"))

	total := s.Metrics.Totals()
	assert.Equal(t, 1, total.Selections)
	assert.Equal(t, 2, total.ReactionsStarted)
	assert.Equal(t, 2, total.TicketsAccepted)
	assert.Equal(t, 2, total.TurnoversSTP)
	assert.Equal(t, 2, total.EnzymesReleased)
	assert.Equal(t, 1, total.MessagesRouted)
	assert.Equal(t, int64(0), s.Metrics.RootOutputs)
}

func TestNetworkSpec_Build_StandaloneReactionFedByInjection(t *testing.T) {
	// GIVEN a transporter fed with tickets from outside the network
	spec := mustParse(t, `
seed: 1
horizon: 100
spaces:
  - {id: cytosol, interval: 10, send_delay: 1}
  - {id: ext, interval: 10, send_delay: 1}
reactions:
  - id: glut
    location: {compartment: ext, reaction_set: membrane}
    substrates: {ext: {metabolites: {glc: 1}, tickets: 2}}
    products: {cytosol: {metabolites: {glc: 1}}}
    koff_stp: 0
    rate: 8
standalone_reactions:
  - {reaction: glut, reject_rate: 2}
injections:
  - {at: 3, reaction: glut, compartment: ext, direction: stp, tickets: 5}
  - {at: 4, space: ext, metabolites: {glc: 9}}
`)
	s, err := spec.Build()
	require.NoError(t, err)
	assert.Equal(t, []string{"space:cytosol", "space:ext", "reaction:glut"}, s.ModelIDs())

	s.Run()

	// THEN two turnovers deliver two glucose into the cytosol at 11
	m, _ := s.Model("space:cytosol")
	assert.Equal(t, Amounts{"glc": 2}, m.(spaceView).Metabolites())
	assert.Equal(t, 2, s.Metrics.Totals().TurnoversSTP)
	assert.Equal(t, int64(2), s.Metrics.Injections)

	// AND the metabolite injection landed in ext
	m, _ = s.Model("space:ext")
	assert.Equal(t, 9, m.(spaceView).Metabolites()["glc"])
}

func TestNetworkSpec_Build_SameSeedSameRun(t *testing.T) {
	run := func(seed int64) (*trace.SimulationTrace, ModelStats) {
		spec, err := LoadNetwork(filepath.Join("..", "examples", "glycolysis.yaml"))
		require.NoError(t, err)
		spec.Seed = seed
		spec.Horizon = 600
		s, err := spec.Build()
		require.NoError(t, err)
		s.Trace = trace.NewSimulationTrace(trace.TraceConfig{Level: trace.TraceLevelAll})
		s.Run()
		return s.Trace, s.Metrics.Totals()
	}

	trace1, totals1 := run(42)
	trace2, totals2 := run(42)

	assert.Equal(t, trace1.Outputs, trace2.Outputs)
	assert.Equal(t, totals1, totals2)
	assert.Positive(t, totals1.TurnoversSTP)
	assert.Positive(t, totals1.ReactionsStarted)
}

func TestExampleNetwork_EnzymeUnitsNeverExceedDeclared(t *testing.T) {
	spec, err := LoadNetwork(filepath.Join("..", "examples", "glycolysis.yaml"))
	require.NoError(t, err)
	require.NoError(t, spec.Validate())
	s, err := spec.Build()
	require.NoError(t, err)

	s.Run()

	m, _ := s.Model("space:cytosol")
	cytosol := m.(spaceView)
	for _, e := range spec.Enzymes {
		got := cytosol.EnzymeAmount(e.ID)
		assert.GreaterOrEqual(t, got, 0, e.ID)
		assert.LessOrEqual(t, got, e.Amount, e.ID)
	}
	for name, n := range cytosol.Metabolites() {
		assert.GreaterOrEqual(t, n, 0, name)
	}
}

func TestBuild_RequiresRegisteredModels(t *testing.T) {
	saved := NewSpaceFunc
	NewSpaceFunc = nil
	defer func() { NewSpaceFunc = saved }()

	_, err := mustParse(t, minimalNetwork).Build()
	assert.Error(t, err)
}
