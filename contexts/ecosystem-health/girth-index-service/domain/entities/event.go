package entities

import "time"

type EventType string

const (
	EventTap                 EventType = "tap"
	EventAchievementUnlocked EventType = "achievement_unlocked"
	EventUpgradePurchased    EventType = "upgrade_purchased"
	EventMegaSlap            EventType = "mega_slap"
	EventEvolution           EventType = "evolution"
	EventStreakMilestone     EventType = "streak_milestone"
	EventSessionStarted      EventType = "session_started"
	EventSessionAbandoned    EventType = "session_abandoned"
	EventRageQuit            EventType = "rage_quit"
	EventErrorReported       EventType = "error_reported"
	EventRefundRequested     EventType = "refund_requested"
)

var knownEventTypes = map[EventType]struct{}{
	EventTap:                 {},
	EventAchievementUnlocked: {},
	EventUpgradePurchased:    {},
	EventMegaSlap:            {},
	EventEvolution:           {},
	EventStreakMilestone:     {},
	EventSessionStarted:      {},
	EventSessionAbandoned:    {},
	EventRageQuit:            {},
	EventErrorReported:       {},
	EventRefundRequested:     {},
}

func (t EventType) Valid() bool {
	_, ok := knownEventTypes[t]
	return ok
}

// Positive events count toward community sentiment.
func (t EventType) Positive() bool {
	switch t {
	case EventAchievementUnlocked, EventUpgradePurchased, EventMegaSlap, EventEvolution, EventStreakMilestone:
		return true
	default:
		return false
	}
}

func (t EventType) Negative() bool {
	switch t {
	case EventSessionAbandoned, EventRageQuit, EventErrorReported, EventRefundRequested:
		return true
	default:
		return false
	}
}

// GameEvent is one unit of gameplay telemetry. ProcessedAt is set when the
// scoring engine claims the event.
type GameEvent struct {
	EventID        string
	Wallet         string
	SessionID      string
	Type           EventType
	Taps           int
	EvolutionLevel int
	OccurredAt     time.Time
	ReceivedAt     time.Time
	ProcessedAt    *time.Time
}
