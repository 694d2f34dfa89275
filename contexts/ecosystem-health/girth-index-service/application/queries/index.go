package queries

import (
	"context"
	"errors"
	"time"

	"girthgov/contexts/ecosystem-health/girth-index-service/domain/entities"
	domainerrors "girthgov/contexts/ecosystem-health/girth-index-service/domain/errors"
	"girthgov/contexts/ecosystem-health/girth-index-service/ports"
)

type IndexQueries struct {
	Index   ports.IndexRepository
	Metrics ports.MetricRepository
	Clock   ports.Clock
}

// CurrentIndex returns the stored index, or the initial index at version 0
// when nothing has been scored yet.
func (q IndexQueries) CurrentIndex(ctx context.Context) (entities.GirthIndex, error) {
	idx, err := q.Index.GetIndex(ctx)
	if errors.Is(err, domainerrors.ErrIndexNotFound) {
		now := time.Now().UTC()
		if q.Clock != nil {
			now = q.Clock.Now().UTC()
		}
		return entities.InitialGirthIndex(now), nil
	}
	return idx, err
}

// RecentMetrics lists the newest metrics first. An empty type lists all.
func (q IndexQueries) RecentMetrics(ctx context.Context, metricType string, limit int) ([]entities.EcosystemMetric, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	if metricType != "" {
		known := false
		for _, candidate := range entities.AllMetricTypes() {
			if string(candidate) == metricType {
				known = true
				break
			}
		}
		if !known {
			return nil, domainerrors.ErrInvalidMetricType
		}
	}
	return q.Metrics.ListMetrics(ctx, entities.MetricType(metricType), limit)
}
