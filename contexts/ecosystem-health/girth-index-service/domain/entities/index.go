package entities

import (
	"encoding/json"
	"time"
)

// GirthIndexID is the fixed key of the singleton index row.
const GirthIndexID = "global"

// GirthIndex is the composite ecosystem health snapshot. Version increases by
// one on every accepted write.
type GirthIndex struct {
	Resonance       float64
	TapSurge        TapSurgeTier
	LegionMorale    LegionMoraleTier
	OracleStability OracleStabilityTier
	LastUpdated     time.Time
	Version         int64
}

// InitialGirthIndex is the state before any event has been scored.
func InitialGirthIndex(now time.Time) GirthIndex {
	return GirthIndex{
		Resonance:       50,
		TapSurge:        TapSurgeDormant,
		LegionMorale:    MoraleSteadfast,
		OracleStability: StabilityStable,
		LastUpdated:     now,
	}
}

type MetricType string

const (
	MetricRetention  MetricType = "retention"
	MetricBalance    MetricType = "balance"
	MetricSentiment  MetricType = "sentiment"
	MetricThroughput MetricType = "throughput"
)

func AllMetricTypes() []MetricType {
	return []MetricType{MetricRetention, MetricBalance, MetricSentiment, MetricThroughput}
}

// EcosystemMetric is an immutable smoothed sample.
type EcosystemMetric struct {
	MetricID      string
	Type          MetricType
	Value         float64
	RawValue      float64
	PreviousValue *float64
	Severity      float64
	Source        string
	Timestamp     time.Time
}

// DecisionContext is an anomaly handed to governance. Severity is on the
// integer 0..10 scale.
type DecisionContext struct {
	ContextID string
	Type      string
	Severity  int
	Snapshot  json.RawMessage
	CreatedAt time.Time
}

// Context types emitted by this service.
const (
	ContextStabilityCollapse = "oracle_stability_collapse"
	ContextMoraleCollapse    = "legion_morale_collapse"
	ContextResonanceFade     = "resonance_fade"
	ContextTapSurgePeak      = "tap_surge_peak"
	ContextMetricAnomaly     = "metric_anomaly"
)

// TelemetrySample is one read of ecosystem counters.
type TelemetrySample struct {
	ActiveWallets24h int
	ActiveWallets7d  int
	Balances         []float64
	PositiveEvents   int
	NegativeEvents   int
	EventsLastHour   int
	SampledAt        time.Time
}
