package trace

// TraceLevel controls the verbosity of output tracing.
type TraceLevel string

const (
	// TraceLevelNone disables tracing (zero overhead).
	TraceLevelNone TraceLevel = "none"
	// TraceLevelRoot captures outputs on uncoupled ports only.
	TraceLevelRoot TraceLevel = "root"
	// TraceLevelAll captures every model output.
	TraceLevelAll TraceLevel = "all"
)

// validTraceLevels maps accepted trace level strings.
var validTraceLevels = map[TraceLevel]bool{
	TraceLevelNone: true,
	TraceLevelRoot: true,
	TraceLevelAll:  true,
	"":             true, // empty defaults to none
}

// IsValidTraceLevel returns true if the given level string is a recognized trace level.
func IsValidTraceLevel(level string) bool {
	return validTraceLevels[TraceLevel(level)]
}

// TraceConfig controls trace collection behavior.
type TraceConfig struct {
	Level TraceLevel
}

// SimulationTrace collects output records during a simulation.
type SimulationTrace struct {
	Config  TraceConfig
	Outputs []OutputRecord
}

// NewSimulationTrace creates a SimulationTrace ready for recording.
func NewSimulationTrace(config TraceConfig) *SimulationTrace {
	return &SimulationTrace{
		Config:  config,
		Outputs: make([]OutputRecord, 0),
	}
}

// Wants reports whether a record with the given root flag should be kept.
func (st *SimulationTrace) Wants(root bool) bool {
	if st == nil {
		return false
	}
	switch st.Config.Level {
	case TraceLevelAll:
		return true
	case TraceLevelRoot:
		return root
	default:
		return false
	}
}

// RecordOutput appends an output record.
func (st *SimulationTrace) RecordOutput(record OutputRecord) {
	st.Outputs = append(st.Outputs, record)
}
