// Package trace provides output-trace recording for simulation runs.
// The package has no dependency on sim/; it stores pure data types.
package trace

// OutputRecord captures one message a model emitted during a step.
type OutputRecord struct {
	Clock  int64
	Model  string // emitting model id
	Port   int    // output port of the emitting model
	Kind   string // reactant, product or information
	Detail string // human-readable payload
	Root   bool   // true when the port is not coupled to any model
}
