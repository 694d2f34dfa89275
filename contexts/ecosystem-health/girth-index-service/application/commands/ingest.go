package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "girthgov/contexts/ecosystem-health/girth-index-service/application"
	"girthgov/contexts/ecosystem-health/girth-index-service/domain/entities"
	domainerrors "girthgov/contexts/ecosystem-health/girth-index-service/domain/errors"
	"girthgov/contexts/ecosystem-health/girth-index-service/ports"
)

const (
	DefaultMaxBatch = 500
	maxClockSkew    = 5 * time.Minute
	maxTapsPerEvent = 100000
)

type EventInput struct {
	EventID        string
	Wallet         string
	SessionID      string
	Type           string
	Taps           int
	EvolutionLevel int
	OccurredAt     time.Time
}

type IngestEventsCommand struct {
	Events []EventInput
}

type IngestEventsResult struct {
	Accepted   int
	Duplicates int
}

// IngestEventsUseCase validates gameplay telemetry and queues it for scoring.
type IngestEventsUseCase struct {
	Events   ports.EventRepository
	Clock    ports.Clock
	IDGen    ports.IDGenerator
	MaxBatch int
	Logger   *slog.Logger
}

func (uc IngestEventsUseCase) Execute(ctx context.Context, cmd IngestEventsCommand) (IngestEventsResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	maxBatch := uc.MaxBatch
	if maxBatch <= 0 {
		maxBatch = DefaultMaxBatch
	}
	if len(cmd.Events) == 0 {
		return IngestEventsResult{}, domainerrors.ErrInvalidEventInput
	}
	if len(cmd.Events) > maxBatch {
		logger.Warn("event ingest batch rejected",
			"event", "girth_ingest_batch_too_large",
			"module", "ecosystem-health/girth-index-service",
			"layer", "application",
			"batch_size", len(cmd.Events),
			"max_batch", maxBatch,
		)
		return IngestEventsResult{}, domainerrors.ErrEventBatchTooLarge
	}

	now := uc.now()
	events := make([]entities.GameEvent, 0, len(cmd.Events))
	for _, input := range cmd.Events {
		event, err := uc.toEvent(ctx, input, now)
		if err != nil {
			logger.Warn("event ingest validation failed",
				"event", "girth_ingest_validation_failed",
				"module", "ecosystem-health/girth-index-service",
				"layer", "application",
				"wallet", strings.TrimSpace(input.Wallet),
				"event_type", strings.TrimSpace(input.Type),
			)
			return IngestEventsResult{}, err
		}
		events = append(events, event)
	}

	accepted, err := uc.Events.AppendEvents(ctx, events)
	if err != nil {
		logger.Error("event ingest persist failed",
			"event", "girth_ingest_persist_failed",
			"module", "ecosystem-health/girth-index-service",
			"layer", "application",
			"batch_size", len(events),
			"error", err.Error(),
		)
		return IngestEventsResult{}, err
	}

	logger.Info("events ingested",
		"event", "girth_ingest_completed",
		"module", "ecosystem-health/girth-index-service",
		"layer", "application",
		"accepted", accepted,
		"duplicates", len(events)-accepted,
	)
	return IngestEventsResult{Accepted: accepted, Duplicates: len(events) - accepted}, nil
}

func (uc IngestEventsUseCase) toEvent(ctx context.Context, input EventInput, now time.Time) (entities.GameEvent, error) {
	eventType := entities.EventType(strings.TrimSpace(input.Type))
	wallet := strings.TrimSpace(input.Wallet)
	if wallet == "" || !eventType.Valid() || input.Taps < 0 || input.Taps > maxTapsPerEvent || input.EvolutionLevel < 0 {
		return entities.GameEvent{}, domainerrors.ErrInvalidEventInput
	}
	occurredAt := input.OccurredAt.UTC()
	if occurredAt.IsZero() {
		occurredAt = now
	}
	if occurredAt.After(now.Add(maxClockSkew)) {
		return entities.GameEvent{}, domainerrors.ErrInvalidEventInput
	}

	eventID := strings.TrimSpace(input.EventID)
	if eventID == "" {
		id, err := uc.IDGen.NewID(ctx)
		if err != nil {
			return entities.GameEvent{}, err
		}
		eventID = id
	}
	return entities.GameEvent{
		EventID:        eventID,
		Wallet:         wallet,
		SessionID:      strings.TrimSpace(input.SessionID),
		Type:           eventType,
		Taps:           input.Taps,
		EvolutionLevel: input.EvolutionLevel,
		OccurredAt:     occurredAt,
		ReceivedAt:     now,
	}, nil
}

func (uc IngestEventsUseCase) now() time.Time {
	if uc.Clock == nil {
		return time.Now().UTC()
	}
	return uc.Clock.Now().UTC()
}
