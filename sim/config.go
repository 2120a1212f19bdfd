package sim

import (
	"fmt"
	"math"
	"sort"
)

// Participant is one compartment's share of a reaction side.
type Participant struct {
	Metabolites Amounts `yaml:"metabolites"` // carried by one ticket from this compartment
	Tickets     int     `yaml:"tickets"`     // tickets bound per turnover (0 means 1)
}

// TicketsPerTurnover returns the number of tickets one turnover needs.
func (p Participant) TicketsPerTurnover() int {
	if p.Tickets <= 0 {
		return 1
	}
	return p.Tickets
}

// Stoichiometry maps compartment -> participant for one reaction side.
type Stoichiometry map[string]Participant

// Compartments returns the participating compartments in sorted order.
func (s Stoichiometry) Compartments() []string {
	out := make([]string, 0, len(s))
	for c := range s {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// TicketsPerTurnover returns the tickets one turnover binds across all compartments.
func (s Stoichiometry) TicketsPerTurnover() int {
	total := 0
	for _, p := range s {
		total += p.TicketsPerTurnover()
	}
	return total
}

// ReactionInfo holds the static parameters of one reaction.
type ReactionInfo struct {
	ID         string        `yaml:"id"`
	Location   Address       `yaml:"location"`
	Substrates Stoichiometry `yaml:"substrates"`
	Products   Stoichiometry `yaml:"products"`
	KonSTP     float64       `yaml:"kon_stp"`
	KonPTS     float64       `yaml:"kon_pts"`
	KoffSTP    float64       `yaml:"koff_stp"`
	KoffPTS    float64       `yaml:"koff_pts"`
	Reversible bool          `yaml:"reversible"`
	Rate       Time          `yaml:"rate"` // delay from fully bound to product emission
}

// Side returns the stoichiometry a ticket travelling in d binds to.
func (r *ReactionInfo) Side(d Direction) Stoichiometry {
	if d == STP {
		return r.Substrates
	}
	return r.Products
}

// Koff returns the unbinding probability for d.
func (r *ReactionInfo) Koff(d Direction) float64 {
	if d == STP {
		return r.KoffSTP
	}
	return r.KoffPTS
}

// Kon returns the binding constant for d.
func (r *ReactionInfo) Kon(d Direction) float64 {
	if d == STP {
		return r.KonSTP
	}
	return r.KonPTS
}

// Validate checks the invariants the models rely on.
func (r *ReactionInfo) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("reaction id must not be empty")
	}
	if len(r.Substrates) == 0 {
		return fmt.Errorf("reaction %s: at least one substrate compartment required", r.ID)
	}
	if len(r.Products) == 0 {
		return fmt.Errorf("reaction %s: at least one product compartment required", r.ID)
	}
	for name, side := range map[string]Stoichiometry{"substrates": r.Substrates, "products": r.Products} {
		for c, p := range side {
			if p.Tickets < 0 {
				return fmt.Errorf("reaction %s: %s[%s].tickets must be non-negative, got %d", r.ID, name, c, p.Tickets)
			}
			for m, n := range p.Metabolites {
				if n < 0 {
					return fmt.Errorf("reaction %s: %s[%s].%s must be non-negative, got %d", r.ID, name, c, m, n)
				}
			}
		}
	}
	for name, koff := range map[string]float64{"koff_stp": r.KoffSTP, "koff_pts": r.KoffPTS} {
		if math.IsNaN(koff) || koff < 0 || koff > 1 {
			return fmt.Errorf("reaction %s: %s must be in [0, 1], got %f", r.ID, name, koff)
		}
	}
	for name, kon := range map[string]float64{"kon_stp": r.KonSTP, "kon_pts": r.KonPTS} {
		if math.IsNaN(kon) || kon < 0 {
			return fmt.Errorf("reaction %s: %s must be non-negative, got %f", r.ID, name, kon)
		}
	}
	if r.Rate < 0 || r.Rate.IsInf() {
		return fmt.Errorf("reaction %s: rate must be finite and non-negative, got %v", r.ID, r.Rate)
	}
	return nil
}

// Enzyme is an enzyme species located in a space.
type Enzyme struct {
	ID        string
	Location  Address
	Amount    int // free units
	Reactions map[string]*ReactionInfo
}

// ReactionIDs returns the catalysed reaction ids in sorted order.
func (e *Enzyme) ReactionIDs() []string {
	ids := make([]string, 0, len(e.Reactions))
	for id := range e.Reactions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ReactionConfig parameterizes a Reaction model.
type ReactionConfig struct {
	Info       ReactionInfo
	RejectRate Time                // delay before rejected tickets go home
	Ports      RoutingTable[string] // compartment -> output port
}

// EnzymeConfig parameterizes an Enzyme model.
type EnzymeConfig struct {
	ID         string
	Location   Address
	Reactions  map[string]*ReactionInfo
	RejectRate Time
	Ports      RoutingTable[string] // compartment -> output port; Location.Compartment receives Information
}

// SpaceConfig parameterizes a Space model.
type SpaceConfig struct {
	Compartment  string
	IntervalTime Time    // selection cadence
	SendDelay    Time    // selection -> emission latency
	Volume       float64 // litres
	Metabolites  Amounts
	Enzymes      []*Enzyme
	Ports        RoutingTable[Address] // reaction set address -> output port
}

// RouteKey selects the message field a Router keys on.
type RouteKey string

const (
	RouteByReaction    RouteKey = "reaction"
	RouteByEnzyme      RouteKey = "enzyme"
	RouteByCompartment RouteKey = "compartment"
)

// RouterConfig parameterizes a Router model.
type RouterConfig struct {
	Key   RouteKey
	Table RoutingTable[string]
}
