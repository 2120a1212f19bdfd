// Package observability exports simulation statistics to Prometheus and
// wraps simulation runs in OpenTelemetry spans.
package observability

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/inference-sim/metabolism-sim/sim"
)

// SimCollector bundles Prometheus metrics mirroring sim.Metrics.
type SimCollector struct {
	gatherer prometheus.Gatherer

	Steps        prometheus.Counter
	Transitions  *prometheus.CounterVec
	Messages     *prometheus.CounterVec
	Injections   prometheus.Counter
	ModelCounter *prometheus.CounterVec
	FinalClock   prometheus.Gauge
	RunDuration  prometheus.Histogram
}

// NewSimCollector registers simulation metrics against the provided
// registerer, defaulting to the global Prometheus registry when nil.
func NewSimCollector(reg prometheus.Registerer) (*SimCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	steps, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "metabolism_sim_steps_total",
		Help: "Simultaneous-event steps executed by the coordinator.",
	}), "metabolism_sim_steps_total")
	if err != nil {
		return nil, err
	}
	transitions, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "metabolism_sim_transitions_total",
		Help: "Atomic model transitions, labeled by kind (internal, external, confluent).",
	}, []string{"kind"}), "metabolism_sim_transitions_total")
	if err != nil {
		return nil, err
	}
	messages, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "metabolism_sim_messages_total",
		Help: "Output envelopes, labeled by destination (coupled, root).",
	}, []string{"destination"}), "metabolism_sim_messages_total")
	if err != nil {
		return nil, err
	}
	injections, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "metabolism_sim_injections_total",
		Help: "External input bags delivered into the network.",
	}), "metabolism_sim_injections_total")
	if err != nil {
		return nil, err
	}
	modelCounter, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "metabolism_sim_model_events_total",
		Help: "Per-model counters, labeled by model id and counter name.",
	}, []string{"model", "counter"}), "metabolism_sim_model_events_total")
	if err != nil {
		return nil, err
	}
	finalClock, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "metabolism_sim_final_clock_ticks",
		Help: "Simulation clock when the run ended.",
	}), "metabolism_sim_final_clock_ticks")
	if err != nil {
		return nil, err
	}
	runDuration, err := registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "metabolism_sim_run_duration_seconds",
		Help:    "Wall-clock duration of simulation runs.",
		Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 10, 30, 60, 300},
	}), "metabolism_sim_run_duration_seconds")
	if err != nil {
		return nil, err
	}

	return &SimCollector{
		gatherer:     gatherer,
		Steps:        steps,
		Transitions:  transitions,
		Messages:     messages,
		Injections:   injections,
		ModelCounter: modelCounter,
		FinalClock:   finalClock,
		RunDuration:  runDuration,
	}, nil
}

// Observe adds the counters of one finished run.
func (c *SimCollector) Observe(m *sim.Metrics, wall time.Duration) {
	if c == nil || m == nil {
		return
	}
	c.Steps.Add(float64(m.Steps))
	c.Transitions.WithLabelValues("internal").Add(float64(m.InternalTransitions))
	c.Transitions.WithLabelValues("external").Add(float64(m.ExternalTransitions))
	c.Transitions.WithLabelValues("confluent").Add(float64(m.ConfluentTransitions))
	c.Messages.WithLabelValues("coupled").Add(float64(m.MessagesDelivered))
	c.Messages.WithLabelValues("root").Add(float64(m.RootOutputs))
	c.Injections.Add(float64(m.Injections))
	c.FinalClock.Set(float64(m.FinalClock))
	c.RunDuration.Observe(wall.Seconds())

	for _, id := range m.ModelIDs() {
		for name, v := range statFields(m.Models[id]) {
			if v > 0 {
				c.ModelCounter.WithLabelValues(id, name).Add(float64(v))
			}
		}
	}
}

// WriteTextfile writes every gathered metric in the Prometheus text format.
func (c *SimCollector) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, c.gatherer); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

func statFields(s sim.ModelStats) map[string]int {
	return map[string]int{
		"tickets_accepted":  s.TicketsAccepted,
		"tickets_rejected":  s.TicketsRejected,
		"turnovers_stp":     s.TurnoversSTP,
		"turnovers_pts":     s.TurnoversPTS,
		"enzymes_released":  s.EnzymesReleased,
		"selections":        s.Selections,
		"reactions_started": s.ReactionsStarted,
		"messages_routed":   s.MessagesRouted,
	}
}

func registerCounter(reg prometheus.Registerer, c prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return c, nil
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}

func registerHistogram(reg prometheus.Registerer, h prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(h); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return h, nil
}
