package workers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	application "girthgov/contexts/governance/decision-engine/application"
	"girthgov/contexts/governance/decision-engine/domain/entities"
	domainerrors "girthgov/contexts/governance/decision-engine/domain/errors"
	"girthgov/contexts/governance/decision-engine/domain/services"
	"girthgov/contexts/governance/decision-engine/ports"
)

// PollForge classifies governance decisions and materializes their polls.
// Decisions that need no vote are executed silently.
type PollForge struct {
	Decisions ports.DecisionRepository
	Polls     ports.PollRepository
	Brakes    ports.BrakeRepository
	Settings  ports.SettingsRepository
	Rules     ports.AutonomyRuleEvaluator
	Clock     ports.Clock
	IDGen     ports.IDGenerator
	Defaults  entities.GovernanceSettings
	BatchSize int
	Logger    *slog.Logger
}

type ForgeOutcome struct {
	BrakeEngaged  bool
	Created       []entities.Poll
	Executed      int
	AlreadyLinked int
}

// RunOnce leaves every decision untouched while the emergency brake is engaged.
func (w PollForge) RunOnce(ctx context.Context) (ForgeOutcome, error) {
	logger := application.ResolveLogger(w.Logger)
	now := w.now()

	brake, err := w.Brakes.GetBrake(ctx)
	if err != nil {
		logger.Error("emergency brake load failed",
			"event", "poll_forge_brake_load_failed",
			"module", "governance/decision-engine",
			"layer", "worker",
			"error", err.Error(),
		)
		return ForgeOutcome{}, err
	}
	if brake.Engaged(now) {
		logger.Warn("emergency brake engaged; poll creation suspended",
			"event", "poll_forge_brake_engaged",
			"module", "governance/decision-engine",
			"layer", "worker",
			"reason", brake.Reason,
			"expires_at", brake.ExpiresAt,
		)
		return ForgeOutcome{BrakeEngaged: true}, nil
	}

	settings, err := application.LoadSettings(ctx, w.Settings, w.Defaults)
	if err != nil {
		return ForgeOutcome{}, err
	}
	limit := w.BatchSize
	if limit <= 0 {
		limit = settings.PollBatchSize
	}

	outcome := ForgeOutcome{}
	pending, err := w.Decisions.ListAwaitingPoll(ctx, limit)
	if err != nil {
		logger.Error("pending decision list failed",
			"event", "poll_forge_list_failed",
			"module", "governance/decision-engine",
			"layer", "worker",
			"error", err.Error(),
		)
		return outcome, err
	}
	for _, decision := range pending {
		poll, err := w.forge(ctx, decision, settings, now)
		if errors.Is(err, domainerrors.ErrDecisionAlreadyLinked) {
			outcome.AlreadyLinked++
			continue
		}
		if errors.Is(err, domainerrors.ErrInvalidProposal) {
			logger.Warn("decision proposal unusable; skipped",
				"event", "poll_forge_invalid_proposal",
				"module", "governance/decision-engine",
				"layer", "worker",
				"decision_id", decision.DecisionID,
			)
			continue
		}
		if err != nil {
			logger.Error("poll creation failed",
				"event", "poll_forge_create_failed",
				"module", "governance/decision-engine",
				"layer", "worker",
				"decision_id", decision.DecisionID,
				"error", err.Error(),
			)
			return outcome, err
		}
		outcome.Created = append(outcome.Created, poll)
		logger.Info("poll forged",
			"event", "poll_forge_created",
			"module", "governance/decision-engine",
			"layer", "worker",
			"decision_id", decision.DecisionID,
			"poll_id", poll.PollID,
			"autonomy_level", poll.AutonomyLevel.String(),
			"voting_end", poll.VotingEnd,
		)
	}

	autonomous, err := w.Decisions.ListAwaitingExecution(ctx, limit)
	if err != nil {
		return outcome, err
	}
	for _, decision := range autonomous {
		event, err := w.executedEvent(ctx, decision, now)
		if err != nil {
			return outcome, err
		}
		err = w.Decisions.MarkExecuted(ctx, decision.DecisionID, now, event)
		if errors.Is(err, domainerrors.ErrConflict) || errors.Is(err, domainerrors.ErrDecisionAlreadyLinked) {
			continue
		}
		if err != nil {
			logger.Error("autonomous execution failed",
				"event", "poll_forge_execute_failed",
				"module", "governance/decision-engine",
				"layer", "worker",
				"decision_id", decision.DecisionID,
				"error", err.Error(),
			)
			return outcome, err
		}
		outcome.Executed++
		logger.Info("decision executed autonomously",
			"event", "poll_forge_executed",
			"module", "governance/decision-engine",
			"layer", "worker",
			"decision_id", decision.DecisionID,
			"category", string(decision.Category),
		)
	}
	return outcome, nil
}

func (w PollForge) forge(
	ctx context.Context,
	decision entities.Decision,
	settings entities.GovernanceSettings,
	now time.Time,
) (entities.Poll, error) {
	if decision.Linked() {
		return entities.Poll{}, domainerrors.ErrDecisionAlreadyLinked
	}
	level, err := w.classify(ctx, decision)
	if err != nil {
		return entities.Poll{}, err
	}

	pollID, err := w.IDGen.NewID(ctx)
	if err != nil {
		return entities.Poll{}, err
	}
	poll := entities.Poll{
		PollID:        pollID,
		DecisionID:    decision.DecisionID,
		Title:         strings.TrimSpace(decision.Proposal.Title),
		Description:   strings.TrimSpace(decision.Proposal.Description),
		VotingStart:   now,
		VotingEnd:     now.Add(time.Duration(settings.VotingDurationHours) * time.Hour),
		Status:        entities.PollActive,
		RewardPerVote: settings.BaseReward,
		AutonomyLevel: level,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	for _, proposal := range decision.Proposal.Options {
		text := strings.TrimSpace(proposal.Text)
		if text == "" {
			continue
		}
		optionID, err := w.IDGen.NewID(ctx)
		if err != nil {
			return entities.Poll{}, err
		}
		poll.Options = append(poll.Options, entities.PollOption{
			OptionID:     optionID,
			PollID:       pollID,
			Position:     len(poll.Options),
			Text:         text,
			Impact:       strings.TrimSpace(proposal.Impact),
			Stakeholders: append([]string(nil), proposal.Stakeholders...),
		})
	}
	if len(poll.Options) < minProposalOptions {
		return entities.Poll{}, domainerrors.ErrInvalidProposal
	}

	commentaryID, err := w.IDGen.NewID(ctx)
	if err != nil {
		return entities.Poll{}, err
	}
	draft := ports.PollDraft{
		Poll: poll,
		Announcement: entities.PollCommentary{
			CommentaryID: commentaryID,
			PollID:       pollID,
			Kind:         entities.CommentaryAnnouncement,
			Body:         services.AnnouncementCommentary(poll),
			CreatedAt:    now,
		},
	}

	optionTexts := make([]string, 0, len(poll.Options))
	for _, option := range poll.Options {
		optionTexts = append(optionTexts, option.Text)
	}
	created, err := w.envelope(ctx, application.EventPollCreated, poll, now, map[string]any{
		"poll_id":        poll.PollID,
		"decision_id":    decision.DecisionID,
		"title":          poll.Title,
		"options":        optionTexts,
		"voting_end":     poll.VotingEnd.UTC(),
		"autonomy_level": level.String(),
	})
	if err != nil {
		return entities.Poll{}, err
	}
	draft.Events = append(draft.Events, created)

	if level != entities.AutonomyFull {
		notice, err := w.envelope(ctx, application.EventPollAdminNotice, poll, now, map[string]any{
			"poll_id":        poll.PollID,
			"decision_id":    decision.DecisionID,
			"category":       string(decision.Category),
			"severity":       decision.Severity,
			"autonomy_level": level.String(),
		})
		if err != nil {
			return entities.Poll{}, err
		}
		draft.Events = append(draft.Events, notice)
	}
	if level == entities.AutonomyAdminApproval {
		actionID, err := w.IDGen.NewID(ctx)
		if err != nil {
			return entities.Poll{}, err
		}
		payload, err := json.Marshal(map[string]any{
			"decision_id": decision.DecisionID,
			"category":    string(decision.Category),
			"severity":    decision.Severity,
		})
		if err != nil {
			return entities.Poll{}, err
		}
		draft.AdminActions = append(draft.AdminActions, entities.AdminAction{
			ActionID:   actionID,
			ActorID:    entities.SystemActor,
			Action:     entities.ActionPendingApproval,
			TargetID:   poll.PollID,
			Payload:    payload,
			OccurredAt: now,
		})
	}

	if err := w.Polls.CreatePollForDecision(ctx, draft, now); err != nil {
		return entities.Poll{}, err
	}
	return poll, nil
}

// classify applies override rules first, then the autonomy table.
func (w PollForge) classify(ctx context.Context, decision entities.Decision) (entities.AutonomyLevel, error) {
	if w.Rules != nil {
		level, matched, err := w.Rules.Evaluate(ctx, ports.AutonomyRuleInput{
			Category:    decision.Category,
			Severity:    decision.Severity,
			Confidence:  decision.Confidence,
			ContextType: decision.ContextType,
		})
		if err != nil {
			return 0, err
		}
		if matched {
			return level, nil
		}
	}
	return services.AutonomyFor(decision.Category, decision.Severity), nil
}

func (w PollForge) executedEvent(ctx context.Context, decision entities.Decision, now time.Time) (ports.EventEnvelope, error) {
	eventID, err := w.IDGen.NewID(ctx)
	if err != nil {
		return ports.EventEnvelope{}, err
	}
	return application.NewEnvelope(eventID, application.EventDecisionExecuted, "decision_id", decision.DecisionID, now, map[string]any{
		"decision_id": decision.DecisionID,
		"context_id":  decision.ContextID,
		"category":    string(decision.Category),
		"reasoning":   decision.Reasoning,
		"confidence":  decision.Confidence,
	})
}

func (w PollForge) envelope(ctx context.Context, eventType string, poll entities.Poll, now time.Time, data map[string]any) (ports.EventEnvelope, error) {
	eventID, err := w.IDGen.NewID(ctx)
	if err != nil {
		return ports.EventEnvelope{}, err
	}
	return application.NewEnvelope(eventID, eventType, "poll_id", poll.PollID, now, data)
}

func (w PollForge) now() time.Time {
	if w.Clock == nil {
		return time.Now().UTC()
	}
	return w.Clock.Now().UTC()
}
