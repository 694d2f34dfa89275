package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"girthgov/contexts/ecosystem-health/girth-index-service/domain/entities"
	domainerrors "girthgov/contexts/ecosystem-health/girth-index-service/domain/errors"
	"girthgov/contexts/ecosystem-health/girth-index-service/ports"

	"github.com/google/uuid"
)

type Store struct {
	mu sync.RWMutex

	events    map[string]entities.GameEvent
	index     *entities.GirthIndex
	metrics   []entities.EcosystemMetric
	contexts  []entities.DecisionContext
	telemetry entities.TelemetrySample
	now       time.Time

	// FailNextSave forces the next SaveIndex to report a version conflict.
	FailNextSave bool
	// ContextSink, when set, receives every committed decision context.
	ContextSink func(entities.DecisionContext)
}

func NewStore(seed []entities.GameEvent) *Store {
	events := make(map[string]entities.GameEvent, len(seed))
	for _, event := range seed {
		events[event.EventID] = event
	}
	return &Store{events: events}
}

func (s *Store) SetNow(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now.UTC()
}

func (s *Store) SetIndex(idx entities.GirthIndex) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.index = &idx
}

func (s *Store) SetTelemetry(sample entities.TelemetrySample) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.telemetry = sample
	s.telemetry.Balances = append([]float64(nil), sample.Balances...)
}

func (s *Store) Event(eventID string) (entities.GameEvent, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	event, ok := s.events[eventID]
	return event, ok
}

func (s *Store) DecisionContexts() []entities.DecisionContext {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]entities.DecisionContext(nil), s.contexts...)
}

func (s *Store) AppendEvents(_ context.Context, events []entities.GameEvent) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	accepted := 0
	for _, event := range events {
		id := strings.TrimSpace(event.EventID)
		if _, exists := s.events[id]; exists {
			continue
		}
		s.events[id] = event
		accepted++
	}
	return accepted, nil
}

func (s *Store) ClaimUnprocessedEvents(_ context.Context, limit int, claimedAt time.Time) ([]entities.GameEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pending := make([]entities.GameEvent, 0)
	for _, event := range s.events {
		if event.ProcessedAt == nil {
			pending = append(pending, event)
		}
	}
	sort.Slice(pending, func(i, j int) bool {
		if pending[i].OccurredAt.Equal(pending[j].OccurredAt) {
			return pending[i].EventID < pending[j].EventID
		}
		return pending[i].OccurredAt.Before(pending[j].OccurredAt)
	})
	if limit > 0 && len(pending) > limit {
		pending = pending[:limit]
	}
	claimed := claimedAt.UTC()
	for i := range pending {
		pending[i].ProcessedAt = &claimed
		s.events[pending[i].EventID] = pending[i]
	}
	return pending, nil
}

func (s *Store) ReleaseEvents(_ context.Context, eventIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range eventIDs {
		event, ok := s.events[id]
		if !ok {
			continue
		}
		event.ProcessedAt = nil
		s.events[id] = event
	}
	return nil
}

func (s *Store) ListEventsSince(_ context.Context, since time.Time) ([]entities.GameEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.GameEvent, 0)
	for _, event := range s.events {
		if !event.OccurredAt.Before(since) {
			items = append(items, event)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].OccurredAt.Before(items[j].OccurredAt) })
	return items, nil
}

func (s *Store) GetIndex(_ context.Context) (entities.GirthIndex, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.index == nil {
		return entities.GirthIndex{}, domainerrors.ErrIndexNotFound
	}
	return *s.index, nil
}

func (s *Store) SaveIndex(
	_ context.Context,
	idx entities.GirthIndex,
	expectedVersion int64,
	escalations []entities.DecisionContext,
) (entities.GirthIndex, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailNextSave {
		s.FailNextSave = false
		return entities.GirthIndex{}, domainerrors.ErrVersionConflict
	}
	current := int64(0)
	if s.index != nil {
		current = s.index.Version
	}
	if current != expectedVersion {
		return entities.GirthIndex{}, domainerrors.ErrVersionConflict
	}
	idx.Version = expectedVersion + 1
	s.index = &idx
	s.contexts = append(s.contexts, escalations...)
	s.forwardLocked(escalations...)
	return idx, nil
}

func (s *Store) LatestMetric(_ context.Context, metricType entities.MetricType) (entities.EcosystemMetric, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := len(s.metrics) - 1; i >= 0; i-- {
		if s.metrics[i].Type == metricType {
			return s.metrics[i], true, nil
		}
	}
	return entities.EcosystemMetric{}, false, nil
}

func (s *Store) AppendMetric(_ context.Context, metric entities.EcosystemMetric) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metrics = append(s.metrics, metric)
	return nil
}

func (s *Store) ListMetrics(_ context.Context, metricType entities.MetricType, limit int) ([]entities.EcosystemMetric, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.EcosystemMetric, 0)
	for i := len(s.metrics) - 1; i >= 0 && (limit <= 0 || len(items) < limit); i-- {
		if metricType == "" || s.metrics[i].Type == metricType {
			items = append(items, s.metrics[i])
		}
	}
	return items, nil
}

func (s *Store) AppendDecisionContext(_ context.Context, decisionContext entities.DecisionContext) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contexts = append(s.contexts, decisionContext)
	s.forwardLocked(decisionContext)
	return nil
}

func (s *Store) forwardLocked(items ...entities.DecisionContext) {
	if s.ContextSink == nil {
		return
	}
	for _, item := range items {
		s.ContextSink(item)
	}
}

func (s *Store) SampleTelemetry(_ context.Context, now time.Time) (entities.TelemetrySample, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sample := s.telemetry
	sample.Balances = append([]float64(nil), s.telemetry.Balances...)
	sample.SampledAt = now
	return sample, nil
}

func (s *Store) Now() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.now.IsZero() {
		return time.Now().UTC()
	}
	return s.now
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

var (
	_ ports.EventRepository       = (*Store)(nil)
	_ ports.IndexRepository       = (*Store)(nil)
	_ ports.MetricRepository      = (*Store)(nil)
	_ ports.DecisionContextWriter = (*Store)(nil)
	_ ports.TelemetrySource       = (*Store)(nil)
	_ ports.Clock                 = (*Store)(nil)
	_ ports.IDGenerator           = (*Store)(nil)
)
