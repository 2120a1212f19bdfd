// Package sim provides the discrete-event engine for simulating metabolic
// reaction networks as coupled parallel-DEVS models.
//
// # Reading Guide
//
// Start with these files to understand the kernel:
//   - atomic.go: the Atomic model contract and the shared confluence policy
//   - scheduler.go: TaskScheduler, the relative-delay task list every model is built on
//   - simulator.go: the flat coordinator that steps imminent models and routes their outputs
//   - network.go: the YAML network definition and Build, which wires a Simulator from it
//
// # Architecture
//
// The sim package defines the value types (Amounts, Time, messages, routing
// tables) and the coordinator; the atomic models live in sub-packages:
//   - sim/space/: compartments holding free metabolites and enzymes, selecting reactions on a fixed cadence
//   - sim/reaction/: enzyme-catalysed and standalone reactions binding reactant tickets
//   - sim/router/: zero-delay fan-out of messages to per-enzyme ports
//   - sim/trace/: output trace recording, summaries and SQLite persistence
//
// Sub-packages register their constructors via init() functions that set
// package-level factory variables (NewSpaceFunc, NewEnzymeFunc,
// NewReactionFunc, NewRouterFunc). Importing sim alone does not make Build
// usable; the binary blank-imports the model packages.
//
// # Determinism
//
// Each model draws from its own stream derived from the network seed and the
// model id (see rng.go), and simultaneous events are processed in model
// registration order. Two runs of the same network with the same seed produce
// identical traces.
package sim
