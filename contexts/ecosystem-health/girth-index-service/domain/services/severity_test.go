package services

import (
	"testing"

	"girthgov/contexts/ecosystem-health/girth-index-service/domain/entities"

	"github.com/stretchr/testify/assert"
)

func ptr(v float64) *float64 { return &v }

func TestGini(t *testing.T) {
	assert.Equal(t, 0.0, Gini(nil))
	assert.InDelta(t, 0.0, Gini([]float64{5, 5, 5, 5}), 1e-9)
	assert.InDelta(t, 0.75, Gini([]float64{0, 0, 0, 100}), 1e-9)
	assert.InDelta(t, 0.75, Gini([]float64{100, -3, 0, 0}), 1e-9, "negative balances count as zero")
}

func TestRawMetricValues(t *testing.T) {
	values := RawMetricValues(entities.TelemetrySample{
		ActiveWallets24h: 30,
		ActiveWallets7d:  100,
		Balances:         []float64{0, 0, 0, 100},
		PositiveEvents:   10,
		NegativeEvents:   30,
		EventsLastHour:   420,
	})
	assert.InDelta(t, 0.3, values[entities.MetricRetention], 1e-9)
	assert.InDelta(t, 0.75, values[entities.MetricBalance], 1e-9)
	assert.InDelta(t, -0.5, values[entities.MetricSentiment], 1e-9)
	assert.InDelta(t, 420.0, values[entities.MetricThroughput], 1e-9)
}

func TestSmooth(t *testing.T) {
	assert.Equal(t, 10.0, Smooth(10, nil, 0.6))
	assert.InDelta(t, 8.0, Smooth(10, ptr(5), 0.6), 1e-9)
	assert.Equal(t, 10.0, Smooth(10, ptr(5), 0), "invalid alpha disables smoothing")
}

func TestMetricSeverity(t *testing.T) {
	assert.InDelta(t, 4.0, MetricSeverity(entities.MetricRetention, 0.3, nil), 1e-9)
	assert.Equal(t, 0.0, MetricSeverity(entities.MetricRetention, 0.8, nil))
	assert.InDelta(t, 5.0, MetricSeverity(entities.MetricBalance, 0.75, nil), 1e-9)
	assert.InDelta(t, 5.0, MetricSeverity(entities.MetricSentiment, -0.5, nil), 1e-9)
	assert.Equal(t, 0.0, MetricSeverity(entities.MetricSentiment, 0.9, nil))
	assert.Equal(t, 0.0, MetricSeverity(entities.MetricThroughput, 50, nil))
	assert.InDelta(t, 5.0, MetricSeverity(entities.MetricThroughput, 50, ptr(100)), 1e-9)
	assert.Equal(t, 5.0, MetricSeverity(entities.MetricThroughput, 400, ptr(100)), "spikes are anomalies too")
	assert.Equal(t, 10.0, MetricSeverity(entities.MetricThroughput, 0, ptr(100)))
}

func TestMetricEscalates(t *testing.T) {
	cases := []struct {
		name     string
		severity float64
		previous *float64
		want     bool
	}{
		{"first severe sample", 8, nil, true},
		{"first mild sample", 3, nil, false},
		{"crossing upward", 6, ptr(4), true},
		{"staying severe", 8, ptr(8), false},
		{"worsening while severe", 9, ptr(5), false},
		{"recovering", 2, ptr(8), false},
	}
	for _, tc := range cases {
		if got := MetricEscalates(tc.severity, tc.previous, 5); got != tc.want {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}
}

func TestContextSeverity(t *testing.T) {
	assert.Equal(t, 5, ContextSeverity(4.6))
	assert.Equal(t, 10, ContextSeverity(42))
	assert.Equal(t, 0, ContextSeverity(-1))
}
