package sim

import (
	"bytes"
	"fmt"
	"math/rand"
	"os"
	"sort"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Registration variables are set by init() in the model sub-packages
// (sim/reaction, sim/space, sim/router), breaking the import cycle between
// the network builder and the model implementations.
var (
	NewReactionFunc func(cfg ReactionConfig, rng *rand.Rand) Atomic
	NewEnzymeFunc   func(cfg EnzymeConfig, rng *rand.Rand) Atomic
	NewSpaceFunc    func(cfg SpaceConfig, rng *rand.Rand) Atomic
	NewRouterFunc   func(cfg RouterConfig) Atomic
)

// NetworkSpec is the YAML definition of a metabolic network.
type NetworkSpec struct {
	Seed                int64            `yaml:"seed"`
	Horizon             Time             `yaml:"horizon"`
	Spaces              []SpaceSpec      `yaml:"spaces"`
	Reactions           []ReactionInfo   `yaml:"reactions"`
	Enzymes             []EnzymeSpec     `yaml:"enzymes"`
	StandaloneReactions []StandaloneSpec `yaml:"standalone_reactions"`
	Injections          []InjectionSpec  `yaml:"injections"`
}

// SpaceSpec declares one compartment.
type SpaceSpec struct {
	ID          string  `yaml:"id"`
	Interval    Time    `yaml:"interval"`
	SendDelay   Time    `yaml:"send_delay"`
	Volume      float64 `yaml:"volume"` // litres; 0 selects the default
	Metabolites Amounts `yaml:"metabolites"`
}

// EnzymeSpec declares an enzyme species and the reactions it catalyses.
type EnzymeSpec struct {
	ID         string   `yaml:"id"`
	Location   Address  `yaml:"location"`
	Amount     int      `yaml:"amount"`
	Reactions  []string `yaml:"reactions"`
	RejectRate Time     `yaml:"reject_rate"`
}

// StandaloneSpec instantiates a reaction model fed by injections rather
// than by an enzyme.
type StandaloneSpec struct {
	Reaction   string `yaml:"reaction"`
	RejectRate Time   `yaml:"reject_rate"`
}

// InjectionSpec is one external input. Exactly one of Reaction (tickets for
// a standalone reaction) or Space (metabolites fed into a compartment) is set.
type InjectionSpec struct {
	At          Time      `yaml:"at"`
	Reaction    string    `yaml:"reaction,omitempty"`
	Compartment string    `yaml:"compartment,omitempty"`
	Direction   Direction `yaml:"direction,omitempty"`
	Tickets     int       `yaml:"tickets,omitempty"`
	Space       string    `yaml:"space,omitempty"`
	Metabolites Amounts   `yaml:"metabolites,omitempty"`
}

// Model id helpers.
func SpaceModelID(compartment string) string { return "space:" + compartment }
func RouterModelID(addr Address) string      { return "router:" + addr.String() }
func EnzymeModelID(id string) string         { return "enzyme:" + id }
func ReactionModelID(id string) string       { return "reaction:" + id }

// LoadNetwork reads and strictly parses a YAML network definition.
func LoadNetwork(path string) (*NetworkSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading network config: %w", err)
	}
	return ParseNetwork(data)
}

// ParseNetwork strictly parses a YAML network definition. Unknown fields are errors.
func ParseNetwork(data []byte) (*NetworkSpec, error) {
	var spec NetworkSpec
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&spec); err != nil {
		return nil, fmt.Errorf("parsing network config: %w", err)
	}
	return &spec, nil
}

// Validate checks ids, references and parameter ranges.
func (n *NetworkSpec) Validate() error {
	if n.Horizon <= 0 || n.Horizon.IsInf() {
		return fmt.Errorf("horizon must be finite and positive, got %v", n.Horizon)
	}
	if len(n.Spaces) == 0 {
		return fmt.Errorf("at least one space required")
	}
	spaces := make(map[string]bool, len(n.Spaces))
	for i, s := range n.Spaces {
		prefix := fmt.Sprintf("space[%d]", i)
		if s.ID == "" {
			return fmt.Errorf("%s: id required", prefix)
		}
		if spaces[s.ID] {
			return fmt.Errorf("%s: duplicate space %q", prefix, s.ID)
		}
		spaces[s.ID] = true
		if s.Interval <= 0 || s.Interval.IsInf() {
			return fmt.Errorf("%s: interval must be finite and positive, got %v", prefix, s.Interval)
		}
		if s.SendDelay < 0 || s.SendDelay.IsInf() {
			return fmt.Errorf("%s: send_delay must be finite and non-negative, got %v", prefix, s.SendDelay)
		}
		if s.Volume < 0 {
			return fmt.Errorf("%s: volume must be non-negative, got %g", prefix, s.Volume)
		}
		if err := validateAmounts(prefix+".metabolites", s.Metabolites); err != nil {
			return err
		}
	}

	reactions := make(map[string]*ReactionInfo, len(n.Reactions))
	for i := range n.Reactions {
		r := &n.Reactions[i]
		if err := r.Validate(); err != nil {
			return fmt.Errorf("reaction[%d]: %w", i, err)
		}
		if _, dup := reactions[r.ID]; dup {
			return fmt.Errorf("reaction[%d]: duplicate reaction %q", i, r.ID)
		}
		reactions[r.ID] = r
		if !spaces[r.Location.Compartment] {
			return fmt.Errorf("reaction %s: location in unknown compartment %q", r.ID, r.Location.Compartment)
		}
		for _, side := range []Stoichiometry{r.Substrates, r.Products} {
			for _, c := range side.Compartments() {
				if !spaces[c] {
					return fmt.Errorf("reaction %s: unknown compartment %q", r.ID, c)
				}
			}
		}
	}

	enzymes := make(map[string]bool, len(n.Enzymes))
	for i, e := range n.Enzymes {
		prefix := fmt.Sprintf("enzyme[%d]", i)
		if e.ID == "" {
			return fmt.Errorf("%s: id required", prefix)
		}
		if enzymes[e.ID] {
			return fmt.Errorf("%s: duplicate enzyme %q", prefix, e.ID)
		}
		enzymes[e.ID] = true
		if !spaces[e.Location.Compartment] {
			return fmt.Errorf("enzyme %s: location in unknown compartment %q", e.ID, e.Location.Compartment)
		}
		if e.Amount < 0 {
			return fmt.Errorf("enzyme %s: amount must be non-negative, got %d", e.ID, e.Amount)
		}
		if e.RejectRate < 0 || e.RejectRate.IsInf() {
			return fmt.Errorf("enzyme %s: reject_rate must be finite and non-negative, got %v", e.ID, e.RejectRate)
		}
		if len(e.Reactions) == 0 {
			return fmt.Errorf("enzyme %s: at least one reaction required", e.ID)
		}
		seen := make(map[string]bool, len(e.Reactions))
		for _, rid := range e.Reactions {
			r, ok := reactions[rid]
			if !ok {
				return fmt.Errorf("enzyme %s: unknown reaction %q", e.ID, rid)
			}
			if seen[rid] {
				return fmt.Errorf("enzyme %s: reaction %q listed twice", e.ID, rid)
			}
			seen[rid] = true
			// tickets are only ever emitted by the space holding the enzyme
			if err := bindsOnlyIn(r, STP, e.Location.Compartment); err != nil {
				return fmt.Errorf("enzyme %s: %w", e.ID, err)
			}
			if r.Reversible {
				if err := bindsOnlyIn(r, PTS, e.Location.Compartment); err != nil {
					return fmt.Errorf("enzyme %s: %w", e.ID, err)
				}
			}
		}
	}

	standalone := make(map[string]bool, len(n.StandaloneReactions))
	for i, s := range n.StandaloneReactions {
		if _, ok := reactions[s.Reaction]; !ok {
			return fmt.Errorf("standalone_reactions[%d]: unknown reaction %q", i, s.Reaction)
		}
		if standalone[s.Reaction] {
			return fmt.Errorf("standalone_reactions[%d]: duplicate reaction %q", i, s.Reaction)
		}
		standalone[s.Reaction] = true
		if s.RejectRate < 0 || s.RejectRate.IsInf() {
			return fmt.Errorf("standalone_reactions[%d]: reject_rate must be finite and non-negative, got %v", i, s.RejectRate)
		}
	}

	for i, inj := range n.Injections {
		prefix := fmt.Sprintf("injections[%d]", i)
		if inj.At < 0 || inj.At.IsInf() {
			return fmt.Errorf("%s: at must be finite and non-negative, got %v", prefix, inj.At)
		}
		switch {
		case inj.Reaction != "" && inj.Space != "":
			return fmt.Errorf("%s: set either reaction or space, not both", prefix)
		case inj.Space != "":
			if !spaces[inj.Space] {
				return fmt.Errorf("%s: unknown space %q", prefix, inj.Space)
			}
			if err := validateAmounts(prefix+".metabolites", inj.Metabolites); err != nil {
				return err
			}
			if !inj.Metabolites.Any() {
				return fmt.Errorf("%s: metabolites must not be empty", prefix)
			}
		case inj.Reaction != "":
			if !standalone[inj.Reaction] {
				return fmt.Errorf("%s: reaction %q is not a standalone reaction", prefix, inj.Reaction)
			}
			r := reactions[inj.Reaction]
			if !inj.Direction.IsValid() {
				return fmt.Errorf("%s: direction must be stp or pts, got %q", prefix, inj.Direction)
			}
			if inj.Direction == PTS && !r.Reversible {
				return fmt.Errorf("%s: reaction %s is not reversible", prefix, r.ID)
			}
			if _, ok := r.Side(inj.Direction)[inj.Compartment]; !ok {
				return fmt.Errorf("%s: compartment %q does not take part in %s %s", prefix, inj.Compartment, r.ID, inj.Direction)
			}
			if inj.Tickets <= 0 {
				return fmt.Errorf("%s: tickets must be positive, got %d", prefix, inj.Tickets)
			}
		default:
			return fmt.Errorf("%s: reaction or space required", prefix)
		}
	}
	return nil
}

func validateAmounts(prefix string, a Amounts) error {
	for _, m := range a.Keys() {
		if a[m] < 0 {
			return fmt.Errorf("%s[%s] must be non-negative, got %d", prefix, m, a[m])
		}
	}
	return nil
}

func bindsOnlyIn(r *ReactionInfo, d Direction, compartment string) error {
	for _, c := range r.Side(d).Compartments() {
		if c != compartment {
			return fmt.Errorf("reaction %s binds %s tickets in %q, outside the enzyme's compartment %q", r.ID, d, c, compartment)
		}
	}
	return nil
}

// Build validates the network and assembles a Simulator: one Space per
// compartment, one Router per reaction-set address keyed by enzyme id, one
// Enzyme per enzyme species and one Reaction per standalone reaction.
func (n *NetworkSpec) Build() (*Simulator, error) {
	if err := n.Validate(); err != nil {
		return nil, err
	}
	if NewSpaceFunc == nil || NewRouterFunc == nil || NewEnzymeFunc == nil || NewReactionFunc == nil {
		return nil, fmt.Errorf("model constructors not registered; import sim/space, sim/router and sim/reaction")
	}

	reactions := make(map[string]*ReactionInfo, len(n.Reactions))
	for i := range n.Reactions {
		info := n.Reactions[i]
		reactions[info.ID] = &info
	}
	enzymes := make([]*Enzyme, len(n.Enzymes))
	for i, es := range n.Enzymes {
		e := &Enzyme{ID: es.ID, Location: es.Location, Amount: es.Amount, Reactions: make(map[string]*ReactionInfo, len(es.Reactions))}
		for _, rid := range es.Reactions {
			e.Reactions[rid] = reactions[rid]
		}
		enzymes[i] = e
	}

	// reaction-set address -> enzymes catalysing a reaction located there
	byAddress := make(map[Address][]string)
	for _, e := range enzymes {
		for _, addr := range reactionAddresses(e) {
			byAddress[addr] = append(byAddress[addr], e.ID)
		}
	}
	addresses := make([]Address, 0, len(byAddress))
	for addr, ids := range byAddress {
		sort.Strings(ids)
		addresses = append(addresses, addr)
	}
	sort.Slice(addresses, func(i, j int) bool { return addresses[i].String() < addresses[j].String() })

	simulator := NewSimulator(n.Horizon)
	rngs := NewPartitionedRNG(NewSimulationKey(n.Seed))
	var couplings []Coupling

	for _, s := range n.Spaces {
		id := SpaceModelID(s.ID)
		var located []*Enzyme
		for _, e := range enzymes {
			if e.Location.Compartment == s.ID {
				located = append(located, e)
			}
		}
		ports := NewRoutingTable[Address]()
		for _, addr := range addresses {
			for _, e := range located {
				if _, bound := ports.Lookup(addr); !bound && catalysesAt(e, addr) {
					ports.Set(addr, ports.Len())
					couplings = append(couplings, Coupling{From: id, FromPort: ports.At(addr), To: RouterModelID(addr)})
				}
			}
		}
		if len(located) == 0 {
			logrus.Warnf("space %s holds no enzymes; its metabolites only change through products and injections", s.ID)
		}
		model := NewSpaceFunc(SpaceConfig{
			Compartment:  s.ID,
			IntervalTime: s.Interval,
			SendDelay:    s.SendDelay,
			Volume:       s.Volume,
			Metabolites:  s.Metabolites,
			Enzymes:      located,
			Ports:        ports,
		}, rngs.ForModel(id))
		if err := simulator.AddModel(id, model); err != nil {
			return nil, err
		}
	}

	for _, addr := range addresses {
		id := RouterModelID(addr)
		table := NewRoutingTable[string]()
		for i, eid := range byAddress[addr] {
			table.Set(eid, i)
			couplings = append(couplings, Coupling{From: id, FromPort: i, To: EnzymeModelID(eid)})
		}
		if err := simulator.AddModel(id, NewRouterFunc(RouterConfig{Key: RouteByEnzyme, Table: table})); err != nil {
			return nil, err
		}
	}

	for i, e := range enzymes {
		id := EnzymeModelID(e.ID)
		comps := []string{e.Location.Compartment}
		for _, r := range e.Reactions {
			comps = append(comps, r.Substrates.Compartments()...)
			comps = append(comps, r.Products.Compartments()...)
		}
		ports, cs := compartmentPorts(id, comps)
		couplings = append(couplings, cs...)
		if e.Amount == 0 {
			logrus.Warnf("enzyme %s starts with zero free units", e.ID)
		}
		model := NewEnzymeFunc(EnzymeConfig{
			ID:         e.ID,
			Location:   e.Location,
			Reactions:  e.Reactions,
			RejectRate: n.Enzymes[i].RejectRate,
			Ports:      ports,
		}, rngs.ForModel(id))
		if err := simulator.AddModel(id, model); err != nil {
			return nil, err
		}
	}

	for _, s := range n.StandaloneReactions {
		id := ReactionModelID(s.Reaction)
		info := reactions[s.Reaction]
		ports, cs := compartmentPorts(id, append(info.Substrates.Compartments(), info.Products.Compartments()...))
		couplings = append(couplings, cs...)
		model := NewReactionFunc(ReactionConfig{Info: *info, RejectRate: s.RejectRate, Ports: ports}, rngs.ForModel(id))
		if err := simulator.AddModel(id, model); err != nil {
			return nil, err
		}
	}

	for _, c := range couplings {
		if err := simulator.Couple(c); err != nil {
			return nil, err
		}
	}

	for _, inj := range n.Injections {
		var err error
		if inj.Space != "" {
			err = simulator.Inject(inj.At, SpaceModelID(inj.Space), Bag{{Msg: Product{Metabolites: inj.Metabolites.Clone()}}})
		} else {
			err = simulator.Inject(inj.At, ReactionModelID(inj.Reaction), Bag{{Msg: Reactant{
				ReactionID: inj.Reaction,
				Origin:     inj.Compartment,
				Direction:  inj.Direction,
				Tickets:    inj.Tickets,
			}}})
		}
		if err != nil {
			return nil, err
		}
	}

	logrus.Debugf("random streams: %v", rngs.Streams())
	logrus.Infof("network built: %d spaces, %d routers, %d enzymes, %d standalone reactions, %d couplings",
		len(n.Spaces), len(addresses), len(enzymes), len(n.StandaloneReactions), len(couplings))
	return simulator, nil
}

// reactionAddresses returns the distinct locations of e's reactions.
func reactionAddresses(e *Enzyme) []Address {
	seen := make(map[Address]bool)
	var out []Address
	for _, rid := range e.ReactionIDs() {
		addr := e.Reactions[rid].Location
		if !seen[addr] {
			seen[addr] = true
			out = append(out, addr)
		}
	}
	return out
}

func catalysesAt(e *Enzyme, addr Address) bool {
	for _, r := range e.Reactions {
		if r.Location == addr {
			return true
		}
	}
	return false
}

// compartmentPorts assigns one output port per distinct compartment, in
// sorted order, and couples each to the compartment's space.
func compartmentPorts(from string, comps []string) (RoutingTable[string], []Coupling) {
	sort.Strings(comps)
	ports := NewRoutingTable[string]()
	var couplings []Coupling
	for _, c := range comps {
		if _, bound := ports.Lookup(c); bound {
			continue
		}
		ports.Set(c, ports.Len())
		couplings = append(couplings, Coupling{From: from, FromPort: ports.At(c), To: SpaceModelID(c)})
	}
	return ports, couplings
}
