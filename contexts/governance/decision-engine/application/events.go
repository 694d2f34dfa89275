package application

import (
	"encoding/json"
	"time"

	"girthgov/contexts/governance/decision-engine/ports"
)

const (
	EventDecisionExecuted  = "decision.executed"
	EventPollCreated       = "poll.created"
	EventPollAdminNotice   = "poll.admin_notification"
	EventPollStatusChanged = "poll.status_changed"
	EventPollCompleted     = "poll.completed"
	EventPollAnalyzed      = "poll.analyzed"
	EventBrakeChanged      = "governance.brake_changed"
	EventConfigChanged     = "governance.config_changed"
)

// NewEnvelope builds a governance event. partitionKeyPath names the data
// field that partitionKey was taken from.
func NewEnvelope(
	eventID string,
	eventType string,
	partitionKeyPath string,
	partitionKey string,
	occurredAt time.Time,
	data map[string]any,
) (ports.EventEnvelope, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return ports.EventEnvelope{}, err
	}
	return ports.EventEnvelope{
		EventID:          eventID,
		EventType:        eventType,
		OccurredAt:       occurredAt.UTC(),
		SourceService:    "decision-engine",
		TraceID:          eventID,
		SchemaVersion:    1,
		PartitionKeyPath: partitionKeyPath,
		PartitionKey:     partitionKey,
		Data:             payload,
	}, nil
}
