package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sim "github.com/inference-sim/metabolism-sim/sim"
	"github.com/inference-sim/metabolism-sim/sim/trace"
)

const testNetwork = `
seed: 7
horizon: 19
spaces:
  - id: cytosol
    interval: 10
    send_delay: 1
    metabolites: {glc: 3, atp: 3}
reactions:
  - id: hk
    location: {compartment: cytosol, reaction_set: glycolysis}
    substrates: {cytosol: {metabolites: {glc: 1, atp: 1}}}
    products: {cytosol: {metabolites: {g6p: 1, adp: 1}}}
    kon_stp: .inf
    koff_stp: 0
    rate: 5
enzymes:
  - id: hexokinase
    location: {compartment: cytosol, reaction_set: glycolysis}
    amount: 2
    reactions: [hk]
    reject_rate: 1
`

func writeNetwork(t *testing.T, doc string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "net.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))
	return path
}

func TestLoadNetworkConfig_AppliesOverrides(t *testing.T) {
	// GIVEN a network with seed 7 and horizon 19
	path := writeNetwork(t, testNetwork)
	seed, horizon := int64(99), int64(50)

	// WHEN both overrides are set
	spec, err := loadNetworkConfig(path, networkOverrides{Seed: &seed, Horizon: &horizon})

	// THEN the CLI values win
	require.NoError(t, err)
	assert.Equal(t, int64(99), spec.Seed)
	assert.Equal(t, sim.Time(50), spec.Horizon)
}

func TestLoadNetworkConfig_KeepsFileValuesWithoutOverrides(t *testing.T) {
	spec, err := loadNetworkConfig(writeNetwork(t, testNetwork), networkOverrides{})
	require.NoError(t, err)
	assert.Equal(t, int64(7), spec.Seed)
	assert.Equal(t, sim.Time(19), spec.Horizon)
}

func TestLoadNetworkConfig_Errors(t *testing.T) {
	zero := int64(0)
	tests := []struct {
		name string
		path func(t *testing.T) string
		o    networkOverrides
	}{
		{"empty path", func(t *testing.T) string { return "" }, networkOverrides{}},
		{"missing file", func(t *testing.T) string { return filepath.Join(t.TempDir(), "none.yaml") }, networkOverrides{}},
		{"invalid override", func(t *testing.T) string { return writeNetwork(t, testNetwork) }, networkOverrides{Horizon: &zero}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadNetworkConfig(tt.path(t), tt.o)
			assert.Error(t, err)
		})
	}
}

func TestRunSimulation_PrintsMetrics(t *testing.T) {
	var out bytes.Buffer
	s, err := runSimulation(context.Background(), runOptions{
		ConfigPath: writeNetwork(t, testNetwork),
		Out:        &out,
	})

	require.NoError(t, err)
	assert.Equal(t, sim.Time(16), s.Clock)
	assert.Nil(t, s.Trace)
	assert.Contains(t, out.String(), "=== Simulation Metrics ===")
	assert.Contains(t, out.String(), "Turnovers            : stp=2 pts=0")
}

func TestRunSimulation_SavesTraceToSQLite(t *testing.T) {
	// GIVEN a full trace requested into a database file
	path := writeNetwork(t, testNetwork)
	db := filepath.Join(t.TempDir(), "traces", "run.db")

	s, err := runSimulation(context.Background(), runOptions{
		ConfigPath: path,
		TraceLevel: trace.TraceLevelAll,
		TraceDB:    db,
	})
	require.NoError(t, err)
	require.NotNil(t, s.Trace)
	require.NotEmpty(t, s.Trace.Outputs)

	// THEN the stored run matches the in-memory trace
	store, err := trace.OpenSQLiteStore(db)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	got, err := store.Outputs(context.Background(), "net.yaml-seed-7")
	require.NoError(t, err)
	assert.Equal(t, s.Trace.Outputs, got)
	summary, err := store.Summary(context.Background(), "net.yaml-seed-7")
	require.NoError(t, err)
	assert.Equal(t, len(s.Trace.Outputs), summary.TotalOutputs)
}

func TestRunSimulation_TraceDBDefaultsToRootLevel(t *testing.T) {
	s, err := runSimulation(context.Background(), runOptions{
		ConfigPath: writeNetwork(t, testNetwork),
		TraceLevel: trace.TraceLevelNone,
		TraceDB:    filepath.Join(t.TempDir(), "run.db"),
	})
	require.NoError(t, err)
	require.NotNil(t, s.Trace)
	assert.Equal(t, trace.TraceLevelRoot, s.Trace.Config.Level)
}

func TestRunSimulation_WritesMetricsTextfile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "sim.prom")
	_, err := runSimulation(context.Background(), runOptions{
		ConfigPath: writeNetwork(t, testNetwork),
		MetricsOut: out,
	})
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, "metabolism_sim_steps_total 4")
	assert.Contains(t, text, "metabolism_sim_final_clock_ticks 16")
	assert.NotContains(t, text, "go_goroutines")
}

func TestRunSimulation_SeedOverrideChangesRunID(t *testing.T) {
	seed := int64(11)
	db := filepath.Join(t.TempDir(), "run.db")
	_, err := runSimulation(context.Background(), runOptions{
		ConfigPath: writeNetwork(t, testNetwork),
		Overrides:  networkOverrides{Seed: &seed},
		TraceLevel: trace.TraceLevelAll,
		TraceDB:    db,
	})
	require.NoError(t, err)

	store, err := trace.OpenSQLiteStore(db)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	got, err := store.Outputs(context.Background(), "net.yaml-seed-11")
	require.NoError(t, err)
	assert.NotEmpty(t, got)
}

func TestRunSimulation_Otel(t *testing.T) {
	var spans bytes.Buffer
	_, err := runSimulation(context.Background(), runOptions{
		ConfigPath: writeNetwork(t, testNetwork),
		Otel:       true,
		OtelWriter: &spans,
	})
	require.NoError(t, err)
	assert.Contains(t, spans.String(), "simulation.run")
}

func TestRunSimulation_Errors(t *testing.T) {
	_, err := runSimulation(context.Background(), runOptions{
		ConfigPath: writeNetwork(t, testNetwork),
		TraceLevel: "verbose",
	})
	assert.Error(t, err)

	_, err = runSimulation(context.Background(), runOptions{})
	assert.Error(t, err)
}

func TestRunID(t *testing.T) {
	assert.Equal(t, "glycolysis.yaml-seed-42", runID("examples/glycolysis.yaml", 42))
}
