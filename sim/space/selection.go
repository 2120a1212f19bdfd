package space

import (
	"math"

	"github.com/sirupsen/logrus"

	"github.com/inference-sim/metabolism-sim/sim"
)

const (
	// Avogadro converts molecule counts to moles.
	Avogadro = 6.02214076e23
	// DefaultVolume is used when a space declares no volume, in litres.
	DefaultVolume = 1e-21
)

type candidate struct {
	info      *sim.ReactionInfo
	direction sim.Direction
}

// selectMetabolitesToReact lets every free enzyme unit, in random order,
// draw at most one reaction to start. Triggered reactions consume their
// requirement from the pool and one unit of the enzyme.
func (s *Space) selectMetabolitesToReact() sim.Bag {
	s.stats.Selections++

	var units []*sim.Enzyme
	for _, e := range s.enzymes {
		for i := 0; i < e.Amount; i++ {
			units = append(units, e)
		}
	}
	s.rng.Shuffle(len(units), func(i, j int) { units[i], units[j] = units[j], units[i] })

	var bag sim.Bag
	for _, e := range units {
		c, ok := s.chooseReaction(e)
		if !ok {
			continue
		}
		s.metabolites.Sub(c.info.Side(c.direction)[s.compartment].Metabolites)
		if e.Amount <= 0 {
			panic("space " + s.compartment + ": enzyme " + e.ID + " triggered without free units")
		}
		e.Amount--
		s.stats.ReactionsStarted++
		bag = append(bag, sim.Envelope{
			Port: s.ports.MustAt(c.info.Location),
			Msg: sim.Reactant{
				ReactionID: c.info.ID,
				EnzymeID:   e.ID,
				Origin:     s.compartment,
				Direction:  c.direction,
				Tickets:    1,
			},
		})
	}
	logrus.Debugf("space %s: %d unit(s) considered, %d reaction(s) started", s.compartment, len(units), len(bag))
	return bag
}

// chooseReaction draws one uniform variate against the concatenated forward
// and reverse thresholds of e's reactions. Thresholds summing above one are
// normalized; otherwise the remainder means "no reaction this cycle".
func (s *Space) chooseReaction(e *sim.Enzyme) (candidate, bool) {
	ids := e.ReactionIDs()
	son := make([]float64, len(ids))
	pon := make([]float64, len(ids))
	total := 0.0
	for i, rid := range ids {
		info := e.Reactions[rid]
		son[i] = s.bindingThreshold(info, sim.STP)
		if info.Reversible {
			pon[i] = s.bindingThreshold(info, sim.PTS)
		}
		total += son[i] + pon[i]
	}
	if total == 0 {
		return candidate{}, false
	}
	if total > 1 {
		for i := range ids {
			son[i] /= total
			pon[i] /= total
		}
	}

	rv := s.rng.Float64()
	partial := 0.0
	for i, rid := range ids {
		partial += son[i]
		if rv < partial {
			return candidate{info: e.Reactions[rid], direction: sim.STP}, true
		}
	}
	for i, rid := range ids {
		partial += pon[i]
		if rv < partial {
			return candidate{info: e.Reactions[rid], direction: sim.PTS}, true
		}
	}
	return candidate{}, false
}

// bindingThreshold is exp(-1 / (kon * Π conc(m)^n)) over the metabolites the
// reaction takes from this compartment in direction d. It is zero when the
// compartment does not take part or cannot cover the requirement.
func (s *Space) bindingThreshold(info *sim.ReactionInfo, d sim.Direction) float64 {
	p, ok := info.Side(d)[s.compartment]
	if !ok || !s.metabolites.Covers(p.Metabolites) {
		return 0
	}
	kon := info.Kon(d)
	if kon <= 0 {
		return 0
	}
	if math.IsInf(kon, 1) {
		return 1
	}
	conc := 1.0
	for _, m := range p.Metabolites.Keys() {
		conc *= math.Pow(s.concentration(m), float64(p.Metabolites[m]))
	}
	if conc == 0 {
		return 0
	}
	return math.Exp(-1 / (kon * conc))
}

// concentration returns the molar concentration of m in the space.
func (s *Space) concentration(m string) float64 {
	return float64(s.metabolites[m]) / (Avogadro * s.volume)
}
