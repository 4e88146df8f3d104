// Package telemetry wraps the real OpenTelemetry SDK behind an Options
// struct passed to New, the Options shape the teacher's hand-rolled
// middlewares/otel tracer used, so the pipeline executor configures
// telemetry the same way it configures every other concern.
package telemetry

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// Options configures the tracer/meter pair the pipeline uses to emit
// spans and counters.
type Options struct {
	ServiceName    string
	ServiceVersion string

	// InstallGlobal, when true, registers the constructed providers as
	// the process-wide otel.TracerProvider/MeterProvider (New does this
	// once per process; a test harness that builds many Telemetry values
	// should leave this false and use Tracer()/the counters directly).
	InstallGlobal bool
}

// Telemetry bundles the tracer and counters the pipeline executor
// instruments its spans/metrics with.
type Telemetry struct {
	tracer trace.Tracer

	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider

	Executed metric.Int64Counter
	Skipped  metric.Int64Counter
	Failed   metric.Int64Counter
}

// New builds a Telemetry backed by a real, in-process OpenTelemetry SDK
// TracerProvider/MeterProvider pair (no exporter wired by default — a
// caller that wants spans/metrics shipped somewhere registers an
// exporter-backed sdktrace.WithBatcher/sdkmetric.WithReader option in a
// fuller deployment; this sample keeps the SDK itself in the hot path so
// span/attribute semantics match production even without a collector).
func New(opts Options) (*Telemetry, error) {
	if opts.ServiceName == "" {
		opts.ServiceName = "reqrep-transform"
	}

	tp := sdktrace.NewTracerProvider()
	mp := sdkmetric.NewMeterProvider()
	if opts.InstallGlobal {
		otel.SetTracerProvider(tp)
		otel.SetMeterProvider(mp)
	}

	tracer := tp.Tracer(opts.ServiceName, trace.WithInstrumentationVersion(opts.ServiceVersion))
	meter := mp.Meter(opts.ServiceName)

	executed, err := meter.Int64Counter("reqrep.transform.executed")
	if err != nil {
		return nil, err
	}
	skipped, err := meter.Int64Counter("reqrep.transform.skipped")
	if err != nil {
		return nil, err
	}
	failed, err := meter.Int64Counter("reqrep.transform.failed")
	if err != nil {
		return nil, err
	}

	return &Telemetry{
		tracer:         tracer,
		TracerProvider: tp,
		MeterProvider:  mp,
		Executed:       executed,
		Skipped:        skipped,
		Failed:         failed,
	}, nil
}

// Tracer exposes the underlying tracer for span creation.
func (t *Telemetry) Tracer() trace.Tracer { return t.tracer }
