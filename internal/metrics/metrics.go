package metrics

import (
	"context"
	"io"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// MeterName is the instrumentation scope for kiln's instruments.
const MeterName = "kiln"

const (
	outcomeOK     = "ok"
	outcomeFailed = "failed"
)

// Recorder records build and config reload metrics.
type Recorder struct {
	builds        metric.Int64Counter
	buildDuration metric.Int64Histogram
	reloads       metric.Int64Counter
}

// New creates the instruments on meter.
func New(meter metric.Meter) (*Recorder, error) {
	builds, err := meter.Int64Counter(
		"kiln.builds",
		metric.WithDescription("Number of compiles by kind and outcome"),
	)
	if err != nil {
		return nil, err
	}

	buildDuration, err := meter.Int64Histogram(
		"kiln.build.duration",
		metric.WithDescription("Duration of compiles"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	reloads, err := meter.Int64Counter(
		"kiln.config.reloads",
		metric.WithDescription("Number of project config reloads by outcome"),
	)
	if err != nil {
		return nil, err
	}

	return &Recorder{
		builds:        builds,
		buildDuration: buildDuration,
		reloads:       reloads,
	}, nil
}

// RecordBuild records one compile of the given kind.
func (r *Recorder) RecordBuild(ctx context.Context, kind string, d time.Duration, ok bool) {
	attrs := metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("outcome", outcome(ok)),
	)
	r.builds.Add(ctx, 1, attrs)
	r.buildDuration.Record(ctx, d.Milliseconds(), attrs)
}

// RecordConfigReload records one config reload.
func (r *Recorder) RecordConfigReload(ctx context.Context, err error) {
	r.reloads.Add(ctx, 1, metric.WithAttributes(
		attribute.String("outcome", outcome(err == nil)),
	))
}

func outcome(ok bool) string {
	if ok {
		return outcomeOK
	}
	return outcomeFailed
}

// NewStdoutProvider returns a MeterProvider that writes collected metrics
// to w every interval. Callers must Shutdown it to flush the final batch.
func NewStdoutProvider(w io.Writer, interval time.Duration) (*sdkmetric.MeterProvider, error) {
	exporter, err := stdoutmetric.New(
		stdoutmetric.WithWriter(w),
		stdoutmetric.WithPrettyPrint(),
	)
	if err != nil {
		return nil, err
	}

	return sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(
			exporter,
			sdkmetric.WithInterval(interval),
		)),
	), nil
}
