package workers

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	application "girthgov/contexts/governance/voting-ledger/application"
	"girthgov/contexts/governance/voting-ledger/ports"
)

// OutboxRelay publishes ledger events written alongside votes.
type OutboxRelay struct {
	Outbox    ports.OutboxRepository
	Publisher ports.EventPublisher
	Clock     ports.Clock
	BatchSize int
	Logger    *slog.Logger
}

// RunOnce stops on the first failed publish; the row stays pending for the next cycle.
func (r OutboxRelay) RunOnce(ctx context.Context) (int, error) {
	logger := application.ResolveLogger(r.Logger)
	limit := r.BatchSize
	if limit <= 0 {
		limit = 100
	}

	pending, err := r.Outbox.ListPendingOutbox(ctx, limit)
	if err != nil {
		logger.Error("voting outbox list failed",
			"event", "voting_ledger_outbox_list_failed",
			"module", "governance/voting-ledger",
			"layer", "worker",
			"error", err.Error(),
		)
		return 0, err
	}
	if len(pending) == 0 {
		return 0, nil
	}

	now := time.Now().UTC()
	if r.Clock != nil {
		now = r.Clock.Now().UTC()
	}
	published := 0
	for _, row := range pending {
		var event ports.EventEnvelope
		if err := json.Unmarshal(row.Payload, &event); err != nil {
			logger.Error("voting outbox decode failed",
				"event", "voting_ledger_outbox_decode_failed",
				"module", "governance/voting-ledger",
				"layer", "worker",
				"outbox_id", row.OutboxID,
				"error", err.Error(),
			)
			return published, err
		}
		topic := event.EventType
		if topic == "" {
			topic = row.EventType
		}
		if err := r.Publisher.Publish(ctx, topic, event); err != nil {
			logger.Error("voting outbox publish failed",
				"event", "voting_ledger_outbox_publish_failed",
				"module", "governance/voting-ledger",
				"layer", "worker",
				"outbox_id", row.OutboxID,
				"event_type", event.EventType,
				"error", err.Error(),
			)
			return published, err
		}
		if err := r.Outbox.MarkOutboxPublished(ctx, row.OutboxID, now); err != nil {
			return published, err
		}
		published++
	}

	logger.Info("voting outbox relayed",
		"event", "voting_ledger_outbox_relay_completed",
		"module", "governance/voting-ledger",
		"layer", "worker",
		"published_count", published,
	)
	return published, nil
}
