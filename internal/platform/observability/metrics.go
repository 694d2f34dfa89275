package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// NewMeterProvider exports to an OTLP collector when endpoint is set;
// otherwise instruments record into a provider with no reader.
func NewMeterProvider(ctx context.Context, serviceName string, endpoint string, insecure bool) (*sdkmetric.MeterProvider, error) {
	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(serviceName),
	)
	if endpoint == "" {
		return sdkmetric.NewMeterProvider(sdkmetric.WithResource(res)), nil
	}

	opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(endpoint)}
	if insecure {
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}
	exporter, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create metric exporter: %w", err)
	}
	return sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter,
			sdkmetric.WithInterval(15*time.Second),
		)),
	), nil
}

// StageMetrics records rate, errors and duration per pipeline stage.
type StageMetrics struct {
	runs     metric.Int64Counter
	failures metric.Int64Counter
	skipped  metric.Int64Counter
	duration metric.Float64Histogram
}

func NewStageMetrics(meter metric.Meter) (*StageMetrics, error) {
	runs, err := meter.Int64Counter("girthgov.stage.runs",
		metric.WithDescription("Pipeline stage executions"),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		return nil, err
	}
	failures, err := meter.Int64Counter("girthgov.stage.failures",
		metric.WithDescription("Pipeline stage executions that returned an error"),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		return nil, err
	}
	skipped, err := meter.Int64Counter("girthgov.stage.skipped",
		metric.WithDescription("Stage runs skipped because another worker held the lease"),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		return nil, err
	}
	duration, err := meter.Float64Histogram("girthgov.stage.duration",
		metric.WithDescription("Pipeline stage latency"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}
	return &StageMetrics{runs: runs, failures: failures, skipped: skipped, duration: duration}, nil
}

func (m *StageMetrics) Record(ctx context.Context, stage string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("stage", stage))
	m.runs.Add(ctx, 1, attrs)
	if err != nil {
		m.failures.Add(ctx, 1, attrs)
	}
	m.duration.Record(ctx, float64(elapsed.Microseconds())/1000, attrs)
}

func (m *StageMetrics) RecordSkipped(ctx context.Context, stage string) {
	if m == nil {
		return
	}
	m.skipped.Add(ctx, 1, metric.WithAttributes(attribute.String("stage", stage)))
}
