package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/inference-sim/metabolism-sim/internal/observability"
	sim "github.com/inference-sim/metabolism-sim/sim"
	"github.com/inference-sim/metabolism-sim/sim/trace"

	// model constructors register themselves with sim
	_ "github.com/inference-sim/metabolism-sim/sim/reaction"
	_ "github.com/inference-sim/metabolism-sim/sim/router"
	_ "github.com/inference-sim/metabolism-sim/sim/space"
)

var (
	configPath string // Network definition (YAML)
	seed       int64  // Overrides the network seed when set
	horizon    int64  // Overrides the network horizon when set (in ticks)
	logLevel   string // Log verbosity level
	traceLevel string // Output trace verbosity: none, root, all
	traceDB    string // SQLite file receiving the output trace
	metricsOut string // Prometheus textfile receiving run metrics
	otelOn     bool   // Export a run span to stderr
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "metabolism-sim",
	Short: "Discrete-event simulator for metabolic reaction networks",
}

// runOptions is the resolved input of one run.
type runOptions struct {
	ConfigPath string
	Overrides  networkOverrides
	TraceLevel trace.TraceLevel
	TraceDB    string
	MetricsOut string
	Otel       bool
	OtelWriter io.Writer
	Out        io.Writer // metrics summary
}

// runCmd executes the simulation using parameters from CLI flags
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a metabolic network simulation",
	Run: func(cmd *cobra.Command, args []string) {
		setLogLevel()

		opts := runOptions{
			ConfigPath: configPath,
			TraceLevel: trace.TraceLevel(traceLevel),
			TraceDB:    traceDB,
			MetricsOut: metricsOut,
			Otel:       otelOn,
			OtelWriter: os.Stderr,
			Out:        os.Stdout,
		}
		if cmd.Flags().Changed("seed") {
			opts.Overrides.Seed = &seed
		}
		if cmd.Flags().Changed("horizon") {
			opts.Overrides.Horizon = &horizon
		}
		if _, err := runSimulation(cmd.Context(), opts); err != nil {
			logrus.Fatalf("%v", err)
		}
		logrus.Info("Simulation complete.")
	},
}

// validateCmd loads and validates a network without running it
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a metabolic network definition",
	Run: func(cmd *cobra.Command, args []string) {
		setLogLevel()
		spec, err := loadNetworkConfig(configPath, networkOverrides{})
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		fmt.Printf("%s: %d spaces, %d reactions, %d enzymes, %d standalone reactions, %d injections\n",
			configPath, len(spec.Spaces), len(spec.Reactions), len(spec.Enzymes), len(spec.StandaloneReactions), len(spec.Injections))
	},
}

func setLogLevel() {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %s", logLevel)
	}
	logrus.SetLevel(level)
}

// runSimulation builds the network, runs it and persists the requested artefacts.
func runSimulation(ctx context.Context, opts runOptions) (*sim.Simulator, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if !trace.IsValidTraceLevel(string(opts.TraceLevel)) {
		return nil, fmt.Errorf("unknown trace level %q; valid: none, root, all", opts.TraceLevel)
	}
	spec, err := loadNetworkConfig(opts.ConfigPath, opts.Overrides)
	if err != nil {
		return nil, err
	}

	shutdown, err := observability.InitTracing(ctx, observability.TracingConfig{Enabled: opts.Otel, Writer: opts.OtelWriter})
	if err != nil {
		return nil, err
	}
	defer observability.ShutdownWithTimeout(ctx, shutdown)

	s, err := spec.Build()
	if err != nil {
		return nil, err
	}
	level := opts.TraceLevel
	if opts.TraceDB != "" && (level == "" || level == trace.TraceLevelNone) {
		level = trace.TraceLevelRoot
	}
	if level != "" && level != trace.TraceLevelNone {
		s.Trace = trace.NewSimulationTrace(trace.TraceConfig{Level: level})
	}

	logrus.Infof("Starting simulation of %s with seed=%d, horizon=%vticks", opts.ConfigPath, spec.Seed, spec.Horizon)
	_, span := observability.StartRun(ctx, opts.ConfigPath, spec.Seed, spec.Horizon)
	startTime := time.Now()
	s.Run()
	wall := time.Since(startTime)
	observability.EndRun(span, s.Metrics)

	if opts.Out != nil {
		s.Metrics.Fprint(opts.Out)
	}
	if s.Trace != nil {
		summary := trace.Summarize(s.Trace)
		logrus.Infof("trace: %d outputs (%d root) from %d models", summary.TotalOutputs, summary.RootOutputs, summary.UniqueModels)
	}
	if opts.TraceDB != "" {
		if err := saveTrace(ctx, opts.TraceDB, runID(opts.ConfigPath, spec.Seed), s.Trace); err != nil {
			return s, err
		}
	}
	if opts.MetricsOut != "" {
		// a private registry keeps Go runtime collectors out of the textfile
		collector, err := observability.NewSimCollector(prometheus.NewRegistry())
		if err != nil {
			return s, err
		}
		collector.Observe(s.Metrics, wall)
		if err := collector.WriteTextfile(opts.MetricsOut); err != nil {
			return s, err
		}
	}
	return s, nil
}

func saveTrace(ctx context.Context, path, run string, st *trace.SimulationTrace) error {
	store, err := trace.OpenSQLiteStore(path)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()
	if err := store.Save(ctx, run, st); err != nil {
		return fmt.Errorf("save trace %s: %w", run, err)
	}
	logrus.Infof("trace saved to %s as run %s", path, run)
	return nil
}

// runID names a run by its network file and seed.
func runID(configPath string, seed int64) string {
	return fmt.Sprintf("%s-seed-%d", filepath.Base(configPath), seed)
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	for _, c := range []*cobra.Command{runCmd, validateCmd} {
		c.Flags().StringVar(&configPath, "config", "", "Network definition file (YAML)")
		c.Flags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")
	}

	runCmd.Flags().Int64Var(&seed, "seed", 42, "Seed for the per-model random streams (overrides the network seed)")
	runCmd.Flags().Int64Var(&horizon, "horizon", 0, "Simulation horizon in ticks (overrides the network horizon)")
	runCmd.Flags().StringVar(&traceLevel, "trace-level", "none", "Output trace verbosity (none, root, all)")
	runCmd.Flags().StringVar(&traceDB, "trace-db", "", "SQLite file receiving the output trace")
	runCmd.Flags().StringVar(&metricsOut, "metrics-out", "", "Prometheus textfile receiving run metrics")
	runCmd.Flags().BoolVar(&otelOn, "otel", false, "Export an OpenTelemetry span for the run to stderr")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(validateCmd)
}
