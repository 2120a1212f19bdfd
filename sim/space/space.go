// Package space implements the Space atomic model: a compartment's free
// metabolite pool plus the enzymes located in it.
//
// A space cycles through two scheduled states. SELECTING_FOR_REACTION decides
// which enzyme units bind which reactions; SENDING_REACTIONS emits the
// resulting reactant tickets a short, fixed delay later. While any metabolite
// is present the space re-arms a selection every interval.
package space

import (
	"fmt"
	"math/rand"

	"github.com/sirupsen/logrus"

	"github.com/inference-sim/metabolism-sim/sim"
)

type state int

const (
	selectingForReaction state = iota
	sendingReactions
)

func (s state) String() string {
	switch s {
	case selectingForReaction:
		return "SELECTING_FOR_REACTION"
	case sendingReactions:
		return "SENDING_REACTIONS"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

type task struct {
	state state
	bag   sim.Bag // reactants to send; empty for selections
}

func isSelecting(t task) bool { return t.state == selectingForReaction }

// Space owns a compartment's free metabolites and enzyme units.
type Space struct {
	compartment string
	interval    sim.Time
	sendDelay   sim.Time
	volume      float64
	metabolites sim.Amounts
	enzymes     []*sim.Enzyme
	byID        map[string]*sim.Enzyme
	ports       sim.RoutingTable[sim.Address]
	rng         *rand.Rand
	tasks       *sim.TaskScheduler[task]
	stats       sim.ModelStats
}

// NewSpace creates a Space. Enzymes are copied; cfg is not mutated.
// Every enzyme reaction location must have a port in cfg.Ports.
func NewSpace(cfg sim.SpaceConfig, rng *rand.Rand) *Space {
	if rng == nil {
		panic(fmt.Sprintf("space %s: rng must not be nil", cfg.Compartment))
	}
	if cfg.IntervalTime <= 0 || cfg.IntervalTime.IsInf() {
		panic(fmt.Sprintf("space %s: interval must be finite and positive, got %v", cfg.Compartment, cfg.IntervalTime))
	}
	if cfg.SendDelay < 0 || cfg.SendDelay.IsInf() {
		panic(fmt.Sprintf("space %s: send delay must be finite and non-negative, got %v", cfg.Compartment, cfg.SendDelay))
	}
	volume := cfg.Volume
	if volume <= 0 {
		volume = DefaultVolume
	}
	s := &Space{
		compartment: cfg.Compartment,
		interval:    cfg.IntervalTime,
		sendDelay:   cfg.SendDelay,
		volume:      volume,
		metabolites: cfg.Metabolites.Clone(),
		byID:        make(map[string]*sim.Enzyme, len(cfg.Enzymes)),
		ports:       cfg.Ports,
		rng:         rng,
		tasks:       sim.NewTaskScheduler[task](),
	}
	for _, e := range cfg.Enzymes {
		if _, dup := s.byID[e.ID]; dup {
			panic(fmt.Sprintf("space %s: duplicate enzyme %s", cfg.Compartment, e.ID))
		}
		if e.Amount < 0 {
			panic(fmt.Sprintf("space %s: enzyme %s has negative amount %d", cfg.Compartment, e.ID, e.Amount))
		}
		cp := *e
		s.enzymes = append(s.enzymes, &cp)
		s.byID[e.ID] = &cp
		for _, rid := range cp.ReactionIDs() {
			s.ports.MustAt(cp.Reactions[rid].Location)
		}
	}
	s.setNextSelection()
	return s
}

// InternalTransition commits the fired task. A fired selection builds the
// next reactant bag and schedules it for sending.
func (s *Space) InternalTransition() {
	fired := s.tasks.Next()
	if len(fired) > 0 {
		s.tasks.Advance()
	}
	for _, t := range fired {
		if t.state != selectingForReaction {
			continue
		}
		bag := s.selectMetabolitesToReact()
		if len(bag) > 0 {
			s.tasks.Add(s.sendDelay, task{state: sendingReactions, bag: mergeReactants(bag)})
		}
	}
	s.setNextSelection()
}

// ExternalTransition folds arriving metabolites and released enzymes into the space.
func (s *Space) ExternalTransition(elapsed sim.Time, in sim.Bag) {
	s.tasks.Update(elapsed)
	for _, env := range in {
		switch msg := env.Msg.(type) {
		case sim.Product:
			s.metabolites.Add(msg.Metabolites)
		case sim.Information:
			e, ok := s.byID[msg.EnzymeID]
			if !ok {
				panic(fmt.Sprintf("space %s: release notice for unknown enzyme %q", s.compartment, msg.EnzymeID))
			}
			if msg.Released < 0 {
				panic(fmt.Sprintf("space %s: negative release %d for %s", s.compartment, msg.Released, msg.EnzymeID))
			}
			e.Amount += msg.Released
		default:
			panic(fmt.Sprintf("space %s: unexpected %s message on port %d", s.compartment, env.Msg.Kind(), env.Port))
		}
	}
	s.setNextSelection()
}

// ConfluenceTransition runs the internal transition, then the external one with zero elapsed.
func (s *Space) ConfluenceTransition(_ sim.Time, in sim.Bag) {
	sim.Confluence(s, in)
}

// Output returns the reactant tickets due now.
func (s *Space) Output() sim.Bag {
	var out sim.Bag
	for _, t := range s.tasks.Next() {
		out = out.Merge(t.bag)
	}
	return out
}

// TimeAdvance returns the delay until the next task. An idle space polls
// itself every interval instead of passivating.
func (s *Space) TimeAdvance() sim.Time {
	if s.tasks.Empty() {
		return s.interval
	}
	return s.tasks.TimeAdvance()
}

// setNextSelection arms a selection after the interval when material is
// present and no selection is already pending.
func (s *Space) setNextSelection() {
	if !s.metabolites.Any() || s.tasks.ExistsFunc(isSelecting) {
		return
	}
	s.tasks.Add(s.interval, task{state: selectingForReaction})
	logrus.Tracef("space %s: %s armed in %v", s.compartment, selectingForReaction, s.interval)
}

// Stats returns the model counters.
func (s *Space) Stats() sim.ModelStats {
	return s.stats
}

// Compartment returns the compartment id.
func (s *Space) Compartment() string {
	return s.compartment
}

// Metabolites returns a copy of the free pool.
func (s *Space) Metabolites() sim.Amounts {
	return s.metabolites.Clone()
}

// EnzymeAmount returns the free units of enzyme id.
func (s *Space) EnzymeAmount(id string) int {
	e, ok := s.byID[id]
	if !ok {
		return 0
	}
	return e.Amount
}

// SelectionPending reports whether a selection is scheduled.
func (s *Space) SelectionPending() bool {
	return s.tasks.ExistsFunc(isSelecting)
}

// mergeReactants sums tickets of identical (port, reaction, enzyme, origin,
// direction) entries, keeping first-occurrence order.
func mergeReactants(bag sim.Bag) sim.Bag {
	type key struct {
		port      int
		reaction  string
		enzyme    string
		origin    string
		direction sim.Direction
	}
	index := make(map[key]int, len(bag))
	out := make(sim.Bag, 0, len(bag))
	for _, env := range bag {
		r := env.Msg.(sim.Reactant)
		k := key{env.Port, r.ReactionID, r.EnzymeID, r.Origin, r.Direction}
		if i, ok := index[k]; ok {
			merged := out[i].Msg.(sim.Reactant)
			merged.Tickets += r.Tickets
			out[i].Msg = merged
			continue
		}
		index[k] = len(out)
		out = append(out, env)
	}
	return out
}
