package commands

import (
	"context"
	"encoding/json"
	"log/slog"
	"math"
	"strings"
	"time"

	application "girthgov/contexts/governance/decision-engine/application"
	"girthgov/contexts/governance/decision-engine/domain/entities"
	domainerrors "girthgov/contexts/governance/decision-engine/domain/errors"
	"girthgov/contexts/governance/decision-engine/domain/services"
	"girthgov/contexts/governance/decision-engine/ports"
)

const maxBrakeDuration = 7 * 24 * time.Hour

// AdminUseCase is the admin governance surface. Every successful action is
// appended to the admin action log.
type AdminUseCase struct {
	Polls     ports.PollRepository
	Decisions ports.DecisionRepository
	Brakes    ports.BrakeRepository
	Settings  ports.SettingsRepository
	AdminLog  ports.AdminLog
	Outbox    ports.OutboxRepository
	Clock     ports.Clock
	IDGen     ports.IDGenerator
	Defaults  entities.GovernanceSettings
	Logger    *slog.Logger
}

type OverridePollCommand struct {
	Kind      entities.OverrideKind
	Reason    string
	Title     *string
	VotingEnd *time.Time
}

type BrakeCommand struct {
	Engage   bool
	Reason   string
	Duration time.Duration
}

func (uc AdminUseCase) ApprovePoll(ctx context.Context, actorID string, pollID string, note string) (entities.Poll, error) {
	return uc.transition(ctx, actorID, pollID, entities.ActionApprovePoll,
		[]entities.PollStatus{entities.PollActive, entities.PollAdminPaused},
		entities.PollActive, entities.PollPatch{}, map[string]any{"note": strings.TrimSpace(note)})
}

func (uc AdminUseCase) RejectPoll(ctx context.Context, actorID string, pollID string, reason string) (entities.Poll, error) {
	if strings.TrimSpace(reason) == "" {
		return entities.Poll{}, domainerrors.ErrInvalidAdminInput
	}
	return uc.transition(ctx, actorID, pollID, entities.ActionRejectPoll,
		[]entities.PollStatus{entities.PollActive, entities.PollAdminPaused},
		entities.PollAdminCancelled, entities.PollPatch{}, map[string]any{"reason": strings.TrimSpace(reason)})
}

func (uc AdminUseCase) OverridePoll(ctx context.Context, actorID string, pollID string, cmd OverridePollCommand) (entities.Poll, error) {
	if !cmd.Kind.Valid() {
		return entities.Poll{}, domainerrors.ErrInvalidOverride
	}
	payload := map[string]any{"kind": string(cmd.Kind), "reason": strings.TrimSpace(cmd.Reason)}
	switch cmd.Kind {
	case entities.OverridePause:
		return uc.transition(ctx, actorID, pollID, entities.ActionOverridePoll,
			[]entities.PollStatus{entities.PollActive}, entities.PollAdminPaused, entities.PollPatch{}, payload)
	case entities.OverrideResume:
		return uc.transition(ctx, actorID, pollID, entities.ActionOverridePoll,
			[]entities.PollStatus{entities.PollAdminPaused}, entities.PollActive, entities.PollPatch{}, payload)
	case entities.OverrideCancel:
		return uc.transition(ctx, actorID, pollID, entities.ActionOverridePoll,
			[]entities.PollStatus{entities.PollActive, entities.PollAdminPaused}, entities.PollAdminCancelled, entities.PollPatch{}, payload)
	}

	// modify keeps the current status.
	patch := entities.PollPatch{}
	if cmd.Title != nil {
		title := strings.TrimSpace(*cmd.Title)
		if title == "" {
			return entities.Poll{}, domainerrors.ErrInvalidOverride
		}
		patch.Title = &title
		payload["title"] = title
	}
	if cmd.VotingEnd != nil {
		end := cmd.VotingEnd.UTC()
		if !end.After(uc.now()) {
			return entities.Poll{}, domainerrors.ErrInvalidOverride
		}
		patch.VotingEnd = &end
		payload["voting_end"] = end
	}
	if patch.Title == nil && patch.VotingEnd == nil {
		return entities.Poll{}, domainerrors.ErrInvalidOverride
	}
	current, err := uc.Polls.GetPoll(ctx, pollID)
	if err != nil {
		return entities.Poll{}, err
	}
	if current.Status.Final() {
		return entities.Poll{}, domainerrors.ErrInvalidTransition
	}
	return uc.transition(ctx, actorID, pollID, entities.ActionOverridePoll,
		[]entities.PollStatus{current.Status}, current.Status, patch, payload)
}

func (uc AdminUseCase) transition(
	ctx context.Context,
	actorID string,
	pollID string,
	action entities.AdminActionType,
	allowed []entities.PollStatus,
	next entities.PollStatus,
	patch entities.PollPatch,
	payload map[string]any,
) (entities.Poll, error) {
	logger := application.ResolveLogger(uc.Logger)
	actorID = strings.TrimSpace(actorID)
	pollID = strings.TrimSpace(pollID)
	if actorID == "" || pollID == "" {
		return entities.Poll{}, domainerrors.ErrInvalidAdminInput
	}
	now := uc.now()
	poll, err := uc.Polls.TransitionPoll(ctx, pollID, allowed, next, patch, now)
	if err != nil {
		logger.Warn("admin poll transition rejected",
			"event", "admin_poll_transition_failed",
			"module", "governance/decision-engine",
			"layer", "application",
			"actor_id", actorID,
			"poll_id", pollID,
			"action", string(action),
			"error", err.Error(),
		)
		return entities.Poll{}, err
	}
	payload["status"] = poll.Status.String()
	if err := uc.record(ctx, actorID, action, pollID, payload, now); err != nil {
		return entities.Poll{}, err
	}
	if err := uc.emit(ctx, application.EventPollStatusChanged, "poll_id", pollID, now, map[string]any{
		"poll_id": pollID,
		"status":  poll.Status.String(),
		"action":  string(action),
		"actor":   actorID,
	}); err != nil {
		return entities.Poll{}, err
	}
	logger.Info("admin poll action applied",
		"event", "admin_poll_action_applied",
		"module", "governance/decision-engine",
		"layer", "application",
		"actor_id", actorID,
		"poll_id", pollID,
		"action", string(action),
		"status", poll.Status.String(),
	)
	return poll, nil
}

// SetEmergencyBrake engages or releases the brake with optimistic versioning.
func (uc AdminUseCase) SetEmergencyBrake(ctx context.Context, actorID string, cmd BrakeCommand) (entities.EmergencyBrake, error) {
	logger := application.ResolveLogger(uc.Logger)
	actorID = strings.TrimSpace(actorID)
	reason := strings.TrimSpace(cmd.Reason)
	if actorID == "" || reason == "" {
		return entities.EmergencyBrake{}, domainerrors.ErrInvalidBrakeRequest
	}
	if cmd.Engage && (cmd.Duration <= 0 || cmd.Duration > maxBrakeDuration) {
		return entities.EmergencyBrake{}, domainerrors.ErrInvalidBrakeRequest
	}

	current, err := uc.Brakes.GetBrake(ctx)
	if err != nil {
		return entities.EmergencyBrake{}, err
	}
	now := uc.now()
	next := entities.EmergencyBrake{
		Active:      cmd.Engage,
		Reason:      reason,
		ActivatedBy: actorID,
		Version:     current.Version,
	}
	if cmd.Engage {
		expires := now.Add(cmd.Duration)
		next.ActivatedAt = &now
		next.ExpiresAt = &expires
	}
	saved, err := uc.Brakes.SaveBrake(ctx, next, current.Version)
	if err != nil {
		logger.Warn("emergency brake write failed",
			"event", "admin_brake_save_failed",
			"module", "governance/decision-engine",
			"layer", "application",
			"actor_id", actorID,
			"expected_version", current.Version,
			"error", err.Error(),
		)
		return entities.EmergencyBrake{}, err
	}

	payload := map[string]any{"active": saved.Active, "reason": reason}
	if saved.ExpiresAt != nil {
		payload["expires_at"] = saved.ExpiresAt.UTC()
	}
	if err := uc.record(ctx, actorID, entities.ActionEmergencyBrake, entities.EmergencyBrakeID, payload, now); err != nil {
		return entities.EmergencyBrake{}, err
	}
	if err := uc.emit(ctx, application.EventBrakeChanged, "brake_id", entities.EmergencyBrakeID, now, payload); err != nil {
		return entities.EmergencyBrake{}, err
	}
	logger.Warn("emergency brake changed",
		"event", "admin_brake_changed",
		"module", "governance/decision-engine",
		"layer", "application",
		"actor_id", actorID,
		"active", saved.Active,
		"version", saved.Version,
	)
	return saved, nil
}

// UpdateConfig sets one typed knob. Admin changes are range-checked but not
// step-limited.
func (uc AdminUseCase) UpdateConfig(ctx context.Context, actorID string, knob string, value float64) (entities.GovernanceSettings, error) {
	actorID = strings.TrimSpace(actorID)
	if actorID == "" {
		return entities.GovernanceSettings{}, domainerrors.ErrInvalidAdminInput
	}
	parsed, err := entities.ParseConfigKnob(knob)
	if err != nil {
		return entities.GovernanceSettings{}, domainerrors.ErrInvalidConfigChange
	}
	settings, err := application.LoadSettings(ctx, uc.Settings, uc.Defaults)
	if err != nil {
		return entities.GovernanceSettings{}, err
	}
	change, err := services.ValidateConfigChange(entities.ConfigChange{
		Knob:   parsed,
		To:     value,
		Reason: "admin update",
	}, settings, false)
	if err != nil {
		return entities.GovernanceSettings{}, domainerrors.ErrInvalidConfigChange
	}
	saved, err := uc.Settings.SaveSettings(ctx, services.ApplyConfigChange(settings, change), settings.Version)
	if err != nil {
		return entities.GovernanceSettings{}, err
	}

	now := uc.now()
	payload := map[string]any{"knob": string(change.Knob), "from": change.From, "to": change.To, "actor": actorID}
	if err := uc.record(ctx, actorID, entities.ActionUpdateConfig, string(change.Knob), payload, now); err != nil {
		return entities.GovernanceSettings{}, err
	}
	if err := uc.emit(ctx, application.EventConfigChanged, "knob", string(change.Knob), now, payload); err != nil {
		return entities.GovernanceSettings{}, err
	}
	return saved, nil
}

// ScoreDecision records the externally measured success of an executed decision.
func (uc AdminUseCase) ScoreDecision(ctx context.Context, actorID string, decisionID string, score float64) (entities.Decision, error) {
	actorID = strings.TrimSpace(actorID)
	decisionID = strings.TrimSpace(decisionID)
	if actorID == "" || decisionID == "" {
		return entities.Decision{}, domainerrors.ErrInvalidAdminInput
	}
	if math.IsNaN(score) || score < 0 || score > 1 {
		return entities.Decision{}, domainerrors.ErrInvalidScore
	}
	now := uc.now()
	decision, err := uc.Decisions.SetSuccessScore(ctx, decisionID, score, now)
	if err != nil {
		return entities.Decision{}, err
	}
	if err := uc.record(ctx, actorID, entities.ActionScoreDecision, decisionID, map[string]any{"score": score}, now); err != nil {
		return entities.Decision{}, err
	}
	return decision, nil
}

func (uc AdminUseCase) record(
	ctx context.Context,
	actorID string,
	action entities.AdminActionType,
	targetID string,
	payload map[string]any,
	now time.Time,
) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	actionID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	return uc.AdminLog.AppendAdminAction(ctx, entities.AdminAction{
		ActionID:   actionID,
		ActorID:    actorID,
		Action:     action,
		TargetID:   targetID,
		Payload:    raw,
		OccurredAt: now,
	})
}

func (uc AdminUseCase) emit(
	ctx context.Context,
	eventType string,
	partitionKeyPath string,
	partitionKey string,
	now time.Time,
	data map[string]any,
) error {
	if uc.Outbox == nil {
		return nil
	}
	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	event, err := application.NewEnvelope(eventID, eventType, partitionKeyPath, partitionKey, now, data)
	if err != nil {
		return err
	}
	return uc.Outbox.AppendOutbox(ctx, event)
}

func (uc AdminUseCase) now() time.Time {
	if uc.Clock == nil {
		return time.Now().UTC()
	}
	return uc.Clock.Now().UTC()
}
