// Implements the flat coordinator that drives a network of atomic models.
// Each step routes the outputs of the imminent models through the couplings,
// then applies internal, external or confluent transitions in registration
// order.

package sim

import (
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/inference-sim/metabolism-sim/sim/trace"
)

// Coupling connects an output port of one model to an input port of another.
type Coupling struct {
	From     string
	FromPort int
	To       string
	ToPort   int
}

type portRef struct {
	model string
	port  int
}

// injection is an external input bag addressed to one model.
type injection struct {
	to  string
	bag Bag
}

// Simulator is the root coordinator of a flat network of atomic models.
type Simulator struct {
	Clock   Time
	Horizon Time

	models     []*modelEntry
	byID       map[string]*modelEntry
	couplings  map[portRef][]portRef
	injections *TaskScheduler[injection]
	queue      *eventHeap
	started    bool

	Metrics *Metrics
	Trace   *trace.SimulationTrace // nil disables output tracing
}

// NewSimulator creates an empty coordinator that stops after horizon.
func NewSimulator(horizon Time) *Simulator {
	return &Simulator{
		Horizon:    horizon,
		byID:       make(map[string]*modelEntry),
		couplings:  make(map[portRef][]portRef),
		injections: NewTaskScheduler[injection](),
		queue:      newEventHeap(),
		Metrics:    NewMetrics(),
	}
}

// AddModel registers an atomic model under id. Registration order is the
// processing order for simultaneous events.
func (s *Simulator) AddModel(id string, m Atomic) error {
	if m == nil {
		return fmt.Errorf("model %q cannot be nil", id)
	}
	if id == "" {
		return fmt.Errorf("model id cannot be empty")
	}
	if _, exists := s.byID[id]; exists {
		return fmt.Errorf("model %s already exists", id)
	}
	if s.started {
		return fmt.Errorf("cannot add model %s after the run started", id)
	}
	e := &modelEntry{id: id, index: len(s.models), model: m, tLast: s.Clock}
	e.tNext = s.Clock.Add(checkedAdvance(id, m))
	s.models = append(s.models, e)
	s.byID[id] = e
	s.queue.schedule(e)
	return nil
}

// Couple adds a connection. One output port may fan out to several inputs.
func (s *Simulator) Couple(c Coupling) error {
	if _, ok := s.byID[c.From]; !ok {
		return fmt.Errorf("coupling from unknown model %q", c.From)
	}
	if _, ok := s.byID[c.To]; !ok {
		return fmt.Errorf("coupling to unknown model %q", c.To)
	}
	if c.FromPort < 0 || c.ToPort < 0 {
		return fmt.Errorf("coupling %s:%d -> %s:%d has a negative port", c.From, c.FromPort, c.To, c.ToPort)
	}
	from := portRef{c.From, c.FromPort}
	s.couplings[from] = append(s.couplings[from], portRef{c.To, c.ToPort})
	return nil
}

// Inject schedules bag as external input to model to at absolute time at.
func (s *Simulator) Inject(at Time, to string, bag Bag) error {
	if _, ok := s.byID[to]; !ok {
		return fmt.Errorf("injection into unknown model %q", to)
	}
	if at < s.Clock || at.IsInf() {
		return fmt.Errorf("injection at %v is outside [%v, inf)", at, s.Clock)
	}
	s.injections.Add(at.Sub(s.Clock), injection{to: to, bag: bag})
	return nil
}

// Model returns the model registered under id.
func (s *Simulator) Model(id string) (Atomic, bool) {
	e, ok := s.byID[id]
	if !ok {
		return nil, false
	}
	return e.model, true
}

// ModelIDs returns the registered ids in registration order.
func (s *Simulator) ModelIDs() []string {
	ids := make([]string, len(s.models))
	for i, e := range s.models {
		ids[i] = e.id
	}
	return ids
}

// NextEventTime returns the time of the earliest pending model event or injection.
func (s *Simulator) NextEventTime() Time {
	next := s.Clock.Add(s.injections.TimeAdvance())
	if e := s.queue.peek(); e != nil {
		next = Min(next, e.tNext)
	}
	return next
}

// Run processes events until the next one lies past the horizon or every
// model is passive.
func (s *Simulator) Run() {
	s.started = true
	for {
		t := s.NextEventTime()
		if t.IsInf() || t > s.Horizon {
			break
		}
		s.Step(t)
	}
	s.collectStats()
	logrus.Infof("[tick %07d] Simulation ended", s.Clock)
}

// Step advances the clock to t and performs one simultaneous-event step.
func (s *Simulator) Step(t Time) {
	if t < s.Clock {
		panic(fmt.Sprintf("simulation clock went backwards: %v -> %v", s.Clock, t))
	}
	s.started = true
	s.injections.Update(t.Sub(s.Clock))
	s.Clock = t
	s.Metrics.Steps++

	var imminents []*modelEntry
	for e := s.queue.peek(); e != nil && e.tNext == t; e = s.queue.peek() {
		imminents = append(imminents, s.queue.popNext())
	}
	sort.Slice(imminents, func(i, j int) bool { return imminents[i].index < imminents[j].index })
	logrus.Debugf("[tick %07d] %d imminent model(s)", t, len(imminents))

	inbox := make(map[string]Bag)
	for _, e := range imminents {
		for _, env := range e.model.Output() {
			s.route(e.id, env, inbox)
		}
	}
	if s.injections.TimeAdvance() == Zero {
		for _, inj := range s.injections.Next() {
			inbox[inj.to] = inbox[inj.to].Merge(inj.bag)
			s.Metrics.Injections++
		}
		s.injections.Advance()
	}

	isImminent := make(map[string]bool, len(imminents))
	for _, e := range imminents {
		isImminent[e.id] = true
	}
	for _, e := range s.models {
		bag, receiving := inbox[e.id]
		switch {
		case isImminent[e.id] && receiving:
			e.model.ConfluenceTransition(t.Sub(e.tLast), bag)
			s.Metrics.ConfluentTransitions++
		case isImminent[e.id]:
			e.model.InternalTransition()
			s.Metrics.InternalTransitions++
		case receiving:
			e.model.ExternalTransition(t.Sub(e.tLast), bag)
			s.Metrics.ExternalTransitions++
		default:
			continue
		}
		e.tLast = t
		e.tNext = t.Add(checkedAdvance(e.id, e.model))
		if isImminent[e.id] {
			s.queue.schedule(e)
		} else {
			s.queue.reschedule(e)
		}
	}
}

// route delivers one output envelope along its couplings. Envelopes on
// uncoupled ports leave the network.
func (s *Simulator) route(from string, env Envelope, inbox map[string]Bag) {
	targets := s.couplings[portRef{from, env.Port}]
	root := len(targets) == 0
	if root {
		s.Metrics.RootOutputs++
	}
	for _, to := range targets {
		inbox[to.model] = append(inbox[to.model], Envelope{Port: to.port, Msg: env.Msg})
		s.Metrics.MessagesDelivered++
	}
	if s.Trace.Wants(root) {
		s.Trace.RecordOutput(trace.OutputRecord{
			Clock:  int64(s.Clock),
			Model:  from,
			Port:   env.Port,
			Kind:   env.Msg.Kind(),
			Detail: fmt.Sprint(env.Msg),
			Root:   root,
		})
	}
}

// collectStats snapshots per-model counters into Metrics.
func (s *Simulator) collectStats() {
	s.Metrics.FinalClock = s.Clock
	for _, e := range s.models {
		if r, ok := e.model.(StatsReporter); ok {
			s.Metrics.Models[e.id] = r.Stats()
		}
	}
}

func checkedAdvance(id string, m Atomic) Time {
	ta := m.TimeAdvance()
	if ta < 0 {
		panic(fmt.Sprintf("model %s returned negative time advance %v", id, ta))
	}
	return ta
}
