package application

import (
	"encoding/json"
	"time"

	"girthgov/contexts/governance/voting-ledger/ports"
)

const (
	EventVoteCast    = "vote.cast"
	EventVoteChanged = "vote.changed"
)

// NewVoteEnvelope partitions ledger events by poll.
func NewVoteEnvelope(eventID string, eventType string, pollID string, occurredAt time.Time, data map[string]any) (ports.EventEnvelope, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return ports.EventEnvelope{}, err
	}
	return ports.EventEnvelope{
		EventID:          eventID,
		EventType:        eventType,
		OccurredAt:       occurredAt.UTC(),
		SourceService:    "voting-ledger",
		TraceID:          eventID,
		SchemaVersion:    1,
		PartitionKeyPath: "poll_id",
		PartitionKey:     pollID,
		Data:             payload,
	}, nil
}
