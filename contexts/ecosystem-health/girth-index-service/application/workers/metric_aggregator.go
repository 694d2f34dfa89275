package workers

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	application "girthgov/contexts/ecosystem-health/girth-index-service/application"
	"girthgov/contexts/ecosystem-health/girth-index-service/domain/entities"
	"girthgov/contexts/ecosystem-health/girth-index-service/domain/services"
	"girthgov/contexts/ecosystem-health/girth-index-service/ports"
)

// MetricAggregator samples telemetry into smoothed EcosystemMetrics and
// escalates a metric as a decision context when its severity crosses the
// escalation threshold.
type MetricAggregator struct {
	Telemetry ports.TelemetrySource
	Metrics   ports.MetricRepository
	Contexts  ports.DecisionContextWriter
	Clock     ports.Clock
	IDGen     ports.IDGenerator
	// DecayAlpha weights the new sample against the previous metric.
	DecayAlpha float64
	// EscalationSeverity is the metric severity at which a context is opened.
	EscalationSeverity float64
	Source             string
	Logger             *slog.Logger
}

type AggregationOutcome struct {
	Metrics     []entities.EcosystemMetric
	Escalations int
}

func (w MetricAggregator) RunOnce(ctx context.Context) (AggregationOutcome, error) {
	logger := application.ResolveLogger(w.Logger)
	alpha := w.DecayAlpha
	if alpha <= 0 || alpha > 1 {
		alpha = 0.6
	}
	threshold := w.EscalationSeverity
	if threshold <= 0 {
		threshold = 5
	}
	source := w.Source
	if source == "" {
		source = "telemetry"
	}
	now := w.now()

	sample, err := w.Telemetry.SampleTelemetry(ctx, now)
	if err != nil {
		logger.Error("telemetry sample failed",
			"event", "girth_metrics_sample_failed",
			"module", "ecosystem-health/girth-index-service",
			"layer", "worker",
			"error", err.Error(),
		)
		return AggregationOutcome{}, err
	}

	raw := services.RawMetricValues(sample)
	outcome := AggregationOutcome{}
	for _, metricType := range entities.AllMetricTypes() {
		previous, found, err := w.Metrics.LatestMetric(ctx, metricType)
		if err != nil {
			return outcome, err
		}
		var previousValue, previousSeverity *float64
		if found {
			value, severity := previous.Value, previous.Severity
			previousValue, previousSeverity = &value, &severity
		}

		value := services.Smooth(raw[metricType], previousValue, alpha)
		metricID, err := w.IDGen.NewID(ctx)
		if err != nil {
			return outcome, err
		}
		metric := entities.EcosystemMetric{
			MetricID:      metricID,
			Type:          metricType,
			Value:         value,
			RawValue:      raw[metricType],
			PreviousValue: previousValue,
			Severity:      services.MetricSeverity(metricType, value, previousValue),
			Source:        source,
			Timestamp:     now,
		}
		if err := w.Metrics.AppendMetric(ctx, metric); err != nil {
			logger.Error("metric append failed",
				"event", "girth_metrics_append_failed",
				"module", "ecosystem-health/girth-index-service",
				"layer", "worker",
				"metric_type", string(metricType),
				"error", err.Error(),
			)
			return outcome, err
		}
		outcome.Metrics = append(outcome.Metrics, metric)

		if !services.MetricEscalates(metric.Severity, previousSeverity, threshold) {
			continue
		}
		if err := w.escalate(ctx, metric); err != nil {
			logger.Error("metric escalation failed",
				"event", "girth_metrics_escalation_failed",
				"module", "ecosystem-health/girth-index-service",
				"layer", "worker",
				"metric_type", string(metricType),
				"error", err.Error(),
			)
			return outcome, err
		}
		outcome.Escalations++
		logger.Warn("metric escalated to governance",
			"event", "girth_metrics_escalated",
			"module", "ecosystem-health/girth-index-service",
			"layer", "worker",
			"metric_type", string(metricType),
			"severity", metric.Severity,
			"value", metric.Value,
		)
	}

	logger.Info("metric aggregation completed",
		"event", "girth_metrics_completed",
		"module", "ecosystem-health/girth-index-service",
		"layer", "worker",
		"metrics", len(outcome.Metrics),
		"escalations", outcome.Escalations,
	)
	return outcome, nil
}

type metricSnapshot struct {
	MetricID      string   `json:"metric_id"`
	MetricType    string   `json:"metric_type"`
	Value         float64  `json:"value"`
	RawValue      float64  `json:"raw_value"`
	PreviousValue *float64 `json:"previous_value,omitempty"`
	Severity      float64  `json:"severity"`
}

func (w MetricAggregator) escalate(ctx context.Context, metric entities.EcosystemMetric) error {
	snapshot, err := json.Marshal(metricSnapshot{
		MetricID:      metric.MetricID,
		MetricType:    string(metric.Type),
		Value:         metric.Value,
		RawValue:      metric.RawValue,
		PreviousValue: metric.PreviousValue,
		Severity:      metric.Severity,
	})
	if err != nil {
		return err
	}
	contextID, err := w.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	return w.Contexts.AppendDecisionContext(ctx, entities.DecisionContext{
		ContextID: contextID,
		Type:      entities.ContextMetricAnomaly + ":" + string(metric.Type),
		Severity:  services.ContextSeverity(metric.Severity),
		Snapshot:  snapshot,
		CreatedAt: metric.Timestamp,
	})
}

func (w MetricAggregator) now() time.Time {
	if w.Clock == nil {
		return time.Now().UTC()
	}
	return w.Clock.Now().UTC()
}
