package services

import (
	"math"
	"sort"

	"girthgov/contexts/ecosystem-health/girth-index-service/domain/entities"
)

const throughputSpikeFactor = 3.0

// RawMetricValues derives the un-smoothed value of every metric type.
func RawMetricValues(sample entities.TelemetrySample) map[entities.MetricType]float64 {
	values := map[entities.MetricType]float64{
		entities.MetricRetention:  0,
		entities.MetricBalance:    Gini(sample.Balances),
		entities.MetricSentiment:  0,
		entities.MetricThroughput: float64(sample.EventsLastHour),
	}
	if sample.ActiveWallets7d > 0 {
		values[entities.MetricRetention] = clamp(float64(sample.ActiveWallets24h)/float64(sample.ActiveWallets7d), 0, 1)
	}
	if total := sample.PositiveEvents + sample.NegativeEvents; total > 0 {
		values[entities.MetricSentiment] = float64(sample.PositiveEvents-sample.NegativeEvents) / float64(total)
	}
	return values
}

// Smooth applies exponential decay toward the previous smoothed value.
func Smooth(raw float64, previous *float64, alpha float64) float64 {
	if previous == nil {
		return raw
	}
	if alpha <= 0 || alpha > 1 {
		alpha = 1
	}
	return alpha*raw + (1-alpha)*(*previous)
}

// MetricEscalates reports whether a metric crossed into the escalation band.
// A metric that stays at or above threshold escalates only on the way in.
func MetricEscalates(severity float64, previousSeverity *float64, threshold float64) bool {
	if severity < threshold {
		return false
	}
	return previousSeverity == nil || *previousSeverity < threshold
}

// MetricSeverity scores a smoothed value on the 0..10 scale.
func MetricSeverity(metric entities.MetricType, value float64, previous *float64) float64 {
	switch metric {
	case entities.MetricRetention:
		return clamp((0.5-value)*20, 0, 10)
	case entities.MetricBalance:
		return clamp((value-0.5)*20, 0, 10)
	case entities.MetricSentiment:
		return clamp(-value*10, 0, 10)
	case entities.MetricThroughput:
		if previous == nil || *previous <= 0 {
			return 0
		}
		if value > *previous*throughputSpikeFactor {
			return 5
		}
		return clamp((*previous-value) / *previous * 10, 0, 10)
	default:
		return 0
	}
}

// ContextSeverity rounds a metric severity onto the decision context scale.
func ContextSeverity(severity float64) int {
	return int(math.Round(clamp(severity, 0, 10)))
}

// Gini returns the Gini coefficient of non-negative balances; 0 is perfect
// equality.
func Gini(values []float64) float64 {
	sorted := make([]float64, 0, len(values))
	sum := 0.0
	for _, v := range values {
		if v < 0 || math.IsNaN(v) {
			v = 0
		}
		sorted = append(sorted, v)
		sum += v
	}
	n := len(sorted)
	if n == 0 || sum == 0 {
		return 0
	}
	sort.Float64s(sorted)
	weighted := 0.0
	for i, v := range sorted {
		weighted += float64(i+1) * v
	}
	return (2*weighted)/(float64(n)*sum) - float64(n+1)/float64(n)
}
