package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStageMetricsRecordsRunsAndFailures(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	metrics, err := NewStageMetrics(provider.Meter("test"))
	require.NoError(t, err)

	ctx := context.Background()
	metrics.Record(ctx, "poll_forge", 15*time.Millisecond, nil)
	metrics.Record(ctx, "poll_forge", 20*time.Millisecond, errors.New("boom"))
	metrics.RecordSkipped(ctx, "poll_forge")

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	sums := map[string]int64{}
	var histogramCount uint64
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				for _, point := range data.DataPoints {
					sums[m.Name] += point.Value
				}
			case metricdata.Histogram[float64]:
				for _, point := range data.DataPoints {
					histogramCount += point.Count
				}
			}
		}
	}
	assert.Equal(t, int64(2), sums["girthgov.stage.runs"])
	assert.Equal(t, int64(1), sums["girthgov.stage.failures"])
	assert.Equal(t, int64(1), sums["girthgov.stage.skipped"])
	assert.Equal(t, uint64(2), histogramCount)
}

func TestNilStageMetricsIsNoop(t *testing.T) {
	var metrics *StageMetrics
	metrics.Record(context.Background(), "scoring", time.Millisecond, nil)
	metrics.RecordSkipped(context.Background(), "scoring")
}

func TestMeterProviderWithoutEndpoint(t *testing.T) {
	provider, err := NewMeterProvider(context.Background(), "girthgov-test", "", true)
	require.NoError(t, err)
	require.NoError(t, provider.Shutdown(context.Background()))
}
