package sim

// Atomic is the contract every leaf simulation model satisfies.
//
// The model's state is its pending tasks plus its counters. The initial and
// terminal state is: nothing scheduled, empty Output, TimeAdvance == Infinity.
type Atomic interface {
	// InternalTransition commits the model's own imminent event.
	InternalTransition()
	// ExternalTransition ages pending work by elapsed, then folds in the bag.
	ExternalTransition(elapsed Time, in Bag)
	// ConfluenceTransition handles an internal event coinciding with input.
	ConfluenceTransition(elapsed Time, in Bag)
	// Output returns the messages due at TimeAdvance. It must not mutate state.
	Output() Bag
	// TimeAdvance returns the time until the next internal event.
	TimeAdvance() Time
}

// Confluence applies the internal-then-external policy shared by all models:
// internal consequences settle before new input is folded in.
func Confluence(m Atomic, in Bag) {
	m.InternalTransition()
	m.ExternalTransition(Zero, in)
}

// ModelStats are counters a model exposes for reporting.
type ModelStats struct {
	TicketsAccepted  int
	TicketsRejected  int
	TurnoversSTP     int
	TurnoversPTS     int
	EnzymesReleased  int
	Selections       int
	ReactionsStarted int
	MessagesRouted   int
}

// Add accumulates other into s.
func (s *ModelStats) Add(other ModelStats) {
	s.TicketsAccepted += other.TicketsAccepted
	s.TicketsRejected += other.TicketsRejected
	s.TurnoversSTP += other.TurnoversSTP
	s.TurnoversPTS += other.TurnoversPTS
	s.EnzymesReleased += other.EnzymesReleased
	s.Selections += other.Selections
	s.ReactionsStarted += other.ReactionsStarted
	s.MessagesRouted += other.MessagesRouted
}

// StatsReporter is implemented by models that keep ModelStats.
type StatsReporter interface {
	Stats() ModelStats
}
