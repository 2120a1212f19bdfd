package observability

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/inference-sim/metabolism-sim/sim"
)

const tracerName = "github.com/inference-sim/metabolism-sim"

// TracingConfig governs how run tracing is initialised.
type TracingConfig struct {
	Enabled     bool
	ServiceName string
	Writer      io.Writer // span sink; defaults to stderr
}

// InitTracing installs a tracer provider exporting spans to cfg.Writer, or a
// noop provider when tracing is disabled. It returns a shutdown function that
// flushes pending spans.
func InitTracing(ctx context.Context, cfg TracingConfig) (func(context.Context) error, error) {
	if !cfg.Enabled {
		otel.SetTracerProvider(noop.NewTracerProvider())
		logrus.Debug("tracing disabled; using noop tracer provider")
		return func(context.Context) error { return nil }, nil
	}

	w := cfg.Writer
	if w == nil {
		w = os.Stderr
	}
	exp, err := stdouttrace.New(
		stdouttrace.WithWriter(w),
		stdouttrace.WithPrettyPrint(),
		stdouttrace.WithoutTimestamps(),
	)
	if err != nil {
		return nil, fmt.Errorf("create stdout exporter: %w", err)
	}

	service := cfg.ServiceName
	if service == "" {
		service = "metabolism-sim"
	}
	res, err := resource.New(ctx, resource.WithAttributes(attribute.String("service.name", service)))
	if err != nil {
		return nil, fmt.Errorf("create resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	logrus.Infof("tracing enabled (service %s)", service)
	return tp.Shutdown, nil
}

// StartRun opens the span covering one simulation run.
func StartRun(ctx context.Context, network string, seed int64, horizon sim.Time) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "simulation.run", trace.WithAttributes(
		attribute.String("network", network),
		attribute.Int64("seed", seed),
		attribute.Int64("horizon", int64(horizon)),
	))
}

// EndRun records the run's totals on span and ends it.
func EndRun(span trace.Span, m *sim.Metrics) {
	if m != nil {
		total := m.Totals()
		span.SetAttributes(
			attribute.Int64("steps", m.Steps),
			attribute.Int64("final_clock", int64(m.FinalClock)),
			attribute.Int64("root_outputs", m.RootOutputs),
			attribute.Int("turnovers_stp", total.TurnoversSTP),
			attribute.Int("turnovers_pts", total.TurnoversPTS),
			attribute.Int("tickets_rejected", total.TicketsRejected),
		)
	}
	span.End()
}

// ShutdownWithTimeout invokes the provided shutdown function with a bounded
// timeout, logging errors in the shutdown path.
func ShutdownWithTimeout(ctx context.Context, shutdown func(context.Context) error) {
	if shutdown == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := shutdown(ctx); err != nil {
		logrus.Warnf("tracing shutdown failed: %v", err)
	}
}
