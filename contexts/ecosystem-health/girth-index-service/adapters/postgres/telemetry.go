package postgresadapter

import (
	"context"
	"time"

	"girthgov/contexts/ecosystem-health/girth-index-service/domain/entities"
	"girthgov/contexts/ecosystem-health/girth-index-service/ports"
)

// SampleTelemetry reads ecosystem counters from game_events and the voting
// reward ledger.
func (r *Repository) SampleTelemetry(ctx context.Context, now time.Time) (entities.TelemetrySample, error) {
	now = now.UTC()
	sample := entities.TelemetrySample{SampledAt: now}
	db := r.db.WithContext(ctx)

	var active24h, active7d, lastHour int64
	if err := db.Model(&gameEventModel{}).
		Where("occurred_at >= ?", now.Add(-24*time.Hour)).
		Distinct("wallet").
		Count(&active24h).Error; err != nil {
		return sample, r.logError("girth_repo_telemetry_active_24h_failed", err)
	}
	if err := db.Model(&gameEventModel{}).
		Where("occurred_at >= ?", now.Add(-7*24*time.Hour)).
		Distinct("wallet").
		Count(&active7d).Error; err != nil {
		return sample, r.logError("girth_repo_telemetry_active_7d_failed", err)
	}
	if err := db.Model(&gameEventModel{}).
		Where("occurred_at >= ?", now.Add(-time.Hour)).
		Count(&lastHour).Error; err != nil {
		return sample, r.logError("girth_repo_telemetry_throughput_failed", err)
	}

	var typeCounts []struct {
		EventType string
		Total     int
	}
	if err := db.Model(&gameEventModel{}).
		Select("event_type, COUNT(*) AS total").
		Where("occurred_at >= ?", now.Add(-24*time.Hour)).
		Group("event_type").
		Scan(&typeCounts).Error; err != nil {
		return sample, r.logError("girth_repo_telemetry_sentiment_failed", err)
	}
	for _, row := range typeCounts {
		eventType := entities.EventType(row.EventType)
		switch {
		case eventType.Positive():
			sample.PositiveEvents += row.Total
		case eventType.Negative():
			sample.NegativeEvents += row.Total
		}
	}

	var balances []float64
	if err := db.Table("wallet_ledgers").Pluck("reward_balance", &balances).Error; err != nil {
		return sample, r.logError("girth_repo_telemetry_balances_failed", err)
	}

	sample.ActiveWallets24h = int(active24h)
	sample.ActiveWallets7d = int(active7d)
	sample.EventsLastHour = int(lastHour)
	sample.Balances = balances
	return sample, nil
}

var _ ports.TelemetrySource = (*Repository)(nil)
