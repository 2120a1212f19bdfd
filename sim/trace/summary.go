package trace

// TraceSummary aggregates statistics from a SimulationTrace.
type TraceSummary struct {
	TotalOutputs int
	RootOutputs  int
	FirstClock   int64
	LastClock    int64
	ByKind       map[string]int // message kind → count
	ByModel      map[string]int // model ID → count of recorded outputs
	UniqueModels int
}

// Summarize computes aggregate statistics from a SimulationTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(st *SimulationTrace) *TraceSummary {
	summary := &TraceSummary{
		ByKind:  make(map[string]int),
		ByModel: make(map[string]int),
	}
	if st == nil || len(st.Outputs) == 0 {
		return summary
	}

	summary.TotalOutputs = len(st.Outputs)
	summary.FirstClock = st.Outputs[0].Clock
	for _, r := range st.Outputs {
		summary.ByKind[r.Kind]++
		summary.ByModel[r.Model]++
		if r.Root {
			summary.RootOutputs++
		}
		if r.Clock < summary.FirstClock {
			summary.FirstClock = r.Clock
		}
		if r.Clock > summary.LastClock {
			summary.LastClock = r.Clock
		}
	}

	summary.UniqueModels = len(summary.ByModel)

	return summary
}
