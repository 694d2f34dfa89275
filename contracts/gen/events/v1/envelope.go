package v1

import (
	"encoding/json"
	"time"
)

// Envelope is the versioned event envelope shared by the governance outbox,
// the in-process bus, and the Redis event stream.
// Fields are append-only; consumers tolerate unknown keys.
type Envelope struct {
	EventID          string          `json:"event_id"`
	EventType        string          `json:"event_type"`
	OccurredAt       time.Time       `json:"occurred_at"`
	SourceService    string          `json:"source_service"`
	TraceID          string          `json:"trace_id,omitempty"`
	SchemaVersion    int             `json:"schema_version"`
	PartitionKeyPath string          `json:"partition_key_path"`
	PartitionKey     string          `json:"partition_key"`
	Data             json.RawMessage `json:"data"`
}

// Topic returns the stream topic for the envelope. Events route by type.
func (e Envelope) Topic() string {
	return e.EventType
}
