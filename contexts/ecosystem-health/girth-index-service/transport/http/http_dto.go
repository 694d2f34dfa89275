package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type GameEventRequest struct {
	EventID        string `json:"event_id,omitempty"`
	Wallet         string `json:"wallet"`
	SessionID      string `json:"session_id,omitempty"`
	EventType      string `json:"event_type"`
	Taps           int    `json:"taps,omitempty"`
	EvolutionLevel int    `json:"evolution_level,omitempty"`
	OccurredAt     string `json:"occurred_at,omitempty"`
}

type IngestEventsRequest struct {
	Events []GameEventRequest `json:"events"`
}

type IngestEventsResponse struct {
	Accepted   int `json:"accepted"`
	Duplicates int `json:"duplicates"`
}

type GirthIndexDTO struct {
	Resonance       float64 `json:"resonance"`
	TapSurge        string  `json:"tap_surge"`
	LegionMorale    string  `json:"legion_morale"`
	OracleStability string  `json:"oracle_stability"`
	LastUpdated     string  `json:"last_updated"`
	Version         int64   `json:"version"`
}

type GirthIndexResponse struct {
	Index GirthIndexDTO `json:"index"`
}

type EcosystemMetricDTO struct {
	MetricID      string   `json:"metric_id"`
	MetricType    string   `json:"metric_type"`
	Value         float64  `json:"value"`
	RawValue      float64  `json:"raw_value"`
	PreviousValue *float64 `json:"previous_value,omitempty"`
	Severity      float64  `json:"severity"`
	Source        string   `json:"source"`
	Timestamp     string   `json:"timestamp"`
}

type ListMetricsResponse struct {
	Items []EcosystemMetricDTO `json:"items"`
}
