package ports

import (
	"context"
	"time"

	"girthgov/contexts/ecosystem-health/girth-index-service/domain/entities"
)

type EventRepository interface {
	// AppendEvents stores new events; duplicate event ids are ignored.
	AppendEvents(ctx context.Context, events []entities.GameEvent) (int, error)
	// ClaimUnprocessedEvents atomically marks up to limit unprocessed events
	// processed at claimedAt and returns them ordered by OccurredAt. Concurrent
	// claimers never receive the same event.
	ClaimUnprocessedEvents(ctx context.Context, limit int, claimedAt time.Time) ([]entities.GameEvent, error)
	// ReleaseEvents clears ProcessedAt so a failed cycle is retried.
	ReleaseEvents(ctx context.Context, eventIDs []string) error
	ListEventsSince(ctx context.Context, since time.Time) ([]entities.GameEvent, error)
}

type IndexRepository interface {
	GetIndex(ctx context.Context) (entities.GirthIndex, error)
	// SaveIndex writes idx with Version = expectedVersion+1 only if the stored
	// version still equals expectedVersion; otherwise ErrVersionConflict.
	// Escalation contexts commit in the same transaction.
	SaveIndex(
		ctx context.Context,
		idx entities.GirthIndex,
		expectedVersion int64,
		escalations []entities.DecisionContext,
	) (entities.GirthIndex, error)
}

type MetricRepository interface {
	LatestMetric(ctx context.Context, metricType entities.MetricType) (entities.EcosystemMetric, bool, error)
	AppendMetric(ctx context.Context, metric entities.EcosystemMetric) error
	ListMetrics(ctx context.Context, metricType entities.MetricType, limit int) ([]entities.EcosystemMetric, error)
}

type DecisionContextWriter interface {
	AppendDecisionContext(ctx context.Context, decisionContext entities.DecisionContext) error
}

type TelemetrySource interface {
	SampleTelemetry(ctx context.Context, now time.Time) (entities.TelemetrySample, error)
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}
