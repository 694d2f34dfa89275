package entities

import (
	"encoding/json"
	"time"
)

// EmergencyBrakeID is the fixed id of the singleton brake row.
const EmergencyBrakeID = "global"

type EmergencyBrake struct {
	Active      bool
	Reason      string
	ActivatedBy string
	ActivatedAt *time.Time
	ExpiresAt   *time.Time
	Version     int64
}

// Engaged reports whether the brake currently suppresses poll creation.
func (b EmergencyBrake) Engaged(now time.Time) bool {
	if !b.Active || b.ExpiresAt == nil {
		return false
	}
	return now.Before(*b.ExpiresAt)
}

type AdminActionType string

const (
	ActionApprovePoll     AdminActionType = "approve_poll"
	ActionRejectPoll      AdminActionType = "reject_poll"
	ActionEmergencyBrake  AdminActionType = "emergency_brake"
	ActionOverridePoll    AdminActionType = "override_poll"
	ActionUpdateConfig    AdminActionType = "update_config"
	ActionScoreDecision   AdminActionType = "score_decision"
	ActionPendingApproval AdminActionType = "pending_approval"
	ActionAutoConfig      AdminActionType = "learning_config_change"
)

// SystemActor is recorded for actions taken by pipeline stages.
const SystemActor = "system"

type AdminAction struct {
	ActionID   string
	ActorID    string
	Action     AdminActionType
	TargetID   string
	Payload    json.RawMessage
	OccurredAt time.Time
}

type OverrideKind string

const (
	OverridePause  OverrideKind = "pause"
	OverrideCancel OverrideKind = "cancel"
	OverrideModify OverrideKind = "modify"
	OverrideResume OverrideKind = "resume"
)

func (k OverrideKind) Valid() bool {
	switch k {
	case OverridePause, OverrideCancel, OverrideModify, OverrideResume:
		return true
	default:
		return false
	}
}
