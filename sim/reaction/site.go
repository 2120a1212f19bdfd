package reaction

import (
	"fmt"
	"math/rand"

	"github.com/inference-sim/metabolism-sim/sim"
)

// site holds the ticket counters of one reaction. Every participating
// compartment is seeded at construction, so lookups never create keys.
type site struct {
	info           *sim.ReactionInfo
	substrateComps map[string]int
	productComps   map[string]int
}

func newSite(info *sim.ReactionInfo) *site {
	if len(info.Substrates) == 0 || len(info.Products) == 0 {
		panic(fmt.Sprintf("reaction %s: stoichiometry must name at least one compartment per side", info.ID))
	}
	s := &site{
		info:           info,
		substrateComps: make(map[string]int, len(info.Substrates)),
		productComps:   make(map[string]int, len(info.Products)),
	}
	for c := range info.Substrates {
		s.substrateComps[c] = 0
	}
	for c := range info.Products {
		s.productComps[c] = 0
	}
	return s
}

func (s *site) comps(d sim.Direction) map[string]int {
	if d == sim.STP {
		return s.substrateComps
	}
	return s.productComps
}

// bind draws one Bernoulli trial per ticket: a ticket is accepted when the
// draw is at least koff, so koff is exactly the rejection probability.
func (s *site) bind(rng *rand.Rand, r sim.Reactant) (accepted, rejected int) {
	if !r.Direction.IsValid() {
		panic(fmt.Sprintf("reaction %s: invalid direction %q", s.info.ID, r.Direction))
	}
	if r.Direction == sim.PTS && !s.info.Reversible {
		panic(fmt.Sprintf("reaction %s: irreversible reaction received %s ticket from %s", s.info.ID, r.Direction, r.Origin))
	}
	if r.Tickets < 0 {
		panic(fmt.Sprintf("reaction %s: negative ticket count %d", s.info.ID, r.Tickets))
	}
	comps := s.comps(r.Direction)
	if _, ok := comps[r.Origin]; !ok {
		panic(fmt.Sprintf("reaction %s: compartment %q does not take part in %s", s.info.ID, r.Origin, r.Direction))
	}
	koff := s.info.Koff(r.Direction)
	for i := 0; i < r.Tickets; i++ {
		if rng.Float64() >= koff {
			accepted++
		} else {
			rejected++
		}
	}
	comps[r.Origin] += accepted
	return accepted, rejected
}

// totalReadyFor returns how many complete turnovers the counters allow:
// the minimum over compartments of count / tickets-per-turnover.
func totalReadyFor(comps map[string]int, side sim.Stoichiometry) int {
	if len(comps) == 0 {
		panic("totalReadyFor: empty compartment map")
	}
	ready := -1
	for c, n := range comps {
		r := n / side[c].TicketsPerTurnover()
		if ready < 0 || r < ready {
			ready = r
		}
	}
	return ready
}

// takeReady removes the tickets of every complete turnover and returns the
// number of turnovers per direction.
func (s *site) takeReady() (stpReady, ptsReady int) {
	stpReady = totalReadyFor(s.substrateComps, s.info.Substrates)
	if stpReady > 0 {
		consume(s.substrateComps, s.info.Substrates, stpReady, s.info.ID)
	}
	if s.info.Reversible {
		ptsReady = totalReadyFor(s.productComps, s.info.Products)
		if ptsReady > 0 {
			consume(s.productComps, s.info.Products, ptsReady, s.info.ID)
		}
	}
	return stpReady, ptsReady
}

func consume(comps map[string]int, side sim.Stoichiometry, turnovers int, id string) {
	for c := range comps {
		comps[c] -= turnovers * side[c].TicketsPerTurnover()
		if comps[c] < 0 {
			panic(fmt.Sprintf("reaction %s: ticket counter for %s went negative (%d)", id, c, comps[c]))
		}
	}
}

func copyComps(comps map[string]int) map[string]int {
	out := make(map[string]int, len(comps))
	for c, n := range comps {
		out[c] = n
	}
	return out
}

// emission builds the Product messages for turnovers fired towards side.
func emission(side sim.Stoichiometry, turnovers int, ports sim.RoutingTable[string]) sim.Bag {
	var bag sim.Bag
	for _, c := range side.Compartments() {
		p := side[c]
		amounts := p.Metabolites.Scale(turnovers * p.TicketsPerTurnover())
		if amounts.Total() == 0 {
			continue
		}
		bag = append(bag, sim.Envelope{Port: ports.MustAt(c), Msg: sim.Product{Metabolites: amounts}})
	}
	return bag
}
