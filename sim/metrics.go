// Tracks simulation-wide coordinator counters and per-model statistics.

package sim

import (
	"fmt"
	"io"
	"os"
	"sort"
)

// Metrics aggregates statistics about the simulation
// for final reporting.
type Metrics struct {
	Steps                int64 // simultaneous-event steps executed
	InternalTransitions  int64
	ExternalTransitions  int64
	ConfluentTransitions int64
	MessagesDelivered    int64 // envelopes routed along couplings
	RootOutputs          int64 // envelopes on uncoupled ports
	Injections           int64 // external input bags delivered
	FinalClock           Time

	Models map[string]ModelStats // model ID -> counters at the end of the run
}

// NewMetrics returns zeroed Metrics.
func NewMetrics() *Metrics {
	return &Metrics{Models: make(map[string]ModelStats)}
}

// Totals sums the per-model counters.
func (m *Metrics) Totals() ModelStats {
	var total ModelStats
	for _, s := range m.Models {
		total.Add(s)
	}
	return total
}

// ModelIDs returns the ids with recorded stats in sorted order.
func (m *Metrics) ModelIDs() []string {
	ids := make([]string, 0, len(m.Models))
	for id := range m.Models {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Print displays aggregated metrics at the end of the simulation.
func (m *Metrics) Print() {
	m.Fprint(os.Stdout)
}

// Fprint writes the metrics summary to w.
func (m *Metrics) Fprint(w io.Writer) {
	total := m.Totals()
	_, _ = fmt.Fprintln(w, "=== Simulation Metrics ===")
	_, _ = fmt.Fprintf(w, "Final Clock          : %v\n", m.FinalClock)
	_, _ = fmt.Fprintf(w, "Steps                : %d\n", m.Steps)
	_, _ = fmt.Fprintf(w, "Transitions          : internal=%d external=%d confluent=%d\n",
		m.InternalTransitions, m.ExternalTransitions, m.ConfluentTransitions)
	_, _ = fmt.Fprintf(w, "Messages Delivered   : %d\n", m.MessagesDelivered)
	_, _ = fmt.Fprintf(w, "Root Outputs         : %d\n", m.RootOutputs)
	_, _ = fmt.Fprintf(w, "Injections           : %d\n", m.Injections)
	_, _ = fmt.Fprintf(w, "Selections           : %d\n", total.Selections)
	_, _ = fmt.Fprintf(w, "Reactions Started    : %d\n", total.ReactionsStarted)
	_, _ = fmt.Fprintf(w, "Tickets              : accepted=%d rejected=%d\n", total.TicketsAccepted, total.TicketsRejected)
	_, _ = fmt.Fprintf(w, "Turnovers            : stp=%d pts=%d\n", total.TurnoversSTP, total.TurnoversPTS)
	_, _ = fmt.Fprintf(w, "Enzymes Released     : %d\n", total.EnzymesReleased)
	if total.TicketsAccepted+total.TicketsRejected > 0 {
		rate := float64(total.TicketsRejected) / float64(total.TicketsAccepted+total.TicketsRejected)
		_, _ = fmt.Fprintf(w, "Rejection Rate       : %.4f\n", rate)
	}
}
