package reaction

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/inference-sim/metabolism-sim/sim"
)

type rejectKey struct {
	reaction  string
	origin    string
	direction sim.Direction
}

// engine is the binding/firing machinery shared by Reaction and Enzyme.
// Scheduler payloads are the output bags due at each delay.
type engine struct {
	name       string
	rejectRate sim.Time
	ports      sim.RoutingTable[string]
	rng        *rand.Rand
	tasks      *sim.TaskScheduler[sim.Bag]
	stats      sim.ModelStats

	// release reports freed enzyme units; nil for plain reactions.
	release func(units int) sim.Bag
}

func newEngine(name string, rejectRate sim.Time, ports sim.RoutingTable[string], rng *rand.Rand) engine {
	if rng == nil {
		panic(fmt.Sprintf("%s: rng must not be nil", name))
	}
	if rejectRate < 0 || rejectRate.IsInf() {
		panic(fmt.Sprintf("%s: reject rate must be finite and non-negative, got %v", name, rejectRate))
	}
	return engine{
		name:       name,
		rejectRate: rejectRate,
		ports:      ports,
		rng:        rng,
		tasks:      sim.NewTaskScheduler[sim.Bag](),
	}
}

// checkPorts verifies once that every compartment of info has an output port.
func (e *engine) checkPorts(info *sim.ReactionInfo) {
	for _, side := range []sim.Stoichiometry{info.Substrates, info.Products} {
		for c := range side {
			e.ports.MustAt(c)
		}
	}
}

func (e *engine) output() sim.Bag {
	var out sim.Bag
	for _, bag := range e.tasks.Next() {
		out = out.Merge(bag)
	}
	return out
}

func (e *engine) internal() {
	e.tasks.Advance()
}

// external ages pending tasks, binds every ticket in the bag, schedules the
// return of rejected tickets and then fires whatever became ready.
func (e *engine) external(elapsed sim.Time, in sim.Bag, siteFor func(sim.Reactant) *site) {
	e.tasks.Update(elapsed)

	rejected := make(map[rejectKey]int)
	var touched []*site
	seen := make(map[*site]bool)
	for _, env := range in {
		r, ok := env.Msg.(sim.Reactant)
		if !ok {
			panic(fmt.Sprintf("%s: unexpected %s message on port %d", e.name, env.Msg.Kind(), env.Port))
		}
		s := siteFor(r)
		accepted, rej := s.bind(e.rng, r)
		e.stats.TicketsAccepted += accepted
		e.stats.TicketsRejected += rej
		if rej > 0 {
			rejected[rejectKey{reaction: r.ReactionID, origin: r.Origin, direction: r.Direction}] += rej
		}
		if !seen[s] {
			seen[s] = true
			touched = append(touched, s)
		}
		logrus.Tracef("%s: %s accepted=%d rejected=%d", e.name, r, accepted, rej)
	}

	if len(rejected) > 0 {
		e.tasks.Add(e.rejectRate, e.rejectionBag(rejected, siteFor))
	}
	for _, s := range touched {
		e.lookForNewReactions(s)
	}
}

func (e *engine) rejectionBag(rejected map[rejectKey]int, siteFor func(sim.Reactant) *site) sim.Bag {
	keys := make([]rejectKey, 0, len(rejected))
	for k := range rejected {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].reaction != keys[j].reaction {
			return keys[i].reaction < keys[j].reaction
		}
		if keys[i].origin != keys[j].origin {
			return keys[i].origin < keys[j].origin
		}
		return keys[i].direction < keys[j].direction
	})

	var bag sim.Bag
	units := 0
	for _, k := range keys {
		n := rejected[k]
		units += n
		s := siteFor(sim.Reactant{ReactionID: k.reaction})
		amounts := s.info.Side(k.direction)[k.origin].Metabolites.Scale(n)
		if amounts.Total() == 0 {
			continue
		}
		bag = append(bag, sim.Envelope{Port: e.ports.MustAt(k.origin), Msg: sim.Product{Metabolites: amounts}})
	}
	if e.release != nil {
		bag = bag.Merge(e.release(units))
	}
	return bag
}

// lookForNewReactions fires every complete turnover of s after the reaction rate.
func (e *engine) lookForNewReactions(s *site) {
	stpReady, ptsReady := s.takeReady()
	if stpReady > 0 {
		bag := emission(s.info.Products, stpReady, e.ports)
		if e.release != nil {
			bag = bag.Merge(e.release(stpReady * s.info.Substrates.TicketsPerTurnover()))
		}
		e.tasks.Add(s.info.Rate, bag)
		e.stats.TurnoversSTP += stpReady
		logrus.Debugf("%s: %s fires %d turnover(s) stp in %v", e.name, s.info.ID, stpReady, s.info.Rate)
	}
	if ptsReady > 0 {
		bag := emission(s.info.Substrates, ptsReady, e.ports)
		if e.release != nil {
			bag = bag.Merge(e.release(ptsReady * s.info.Products.TicketsPerTurnover()))
		}
		e.tasks.Add(s.info.Rate, bag)
		e.stats.TurnoversPTS += ptsReady
		logrus.Debugf("%s: %s fires %d turnover(s) pts in %v", e.name, s.info.ID, ptsReady, s.info.Rate)
	}
}
