package ports

import (
	"context"
	"time"

	"girthgov/contexts/governance/decision-engine/domain/entities"
	contractsv1 "girthgov/contracts/gen/events/v1"
)

type EventEnvelope = contractsv1.Envelope

// ContextRepository hands out decision contexts exactly once.
type ContextRepository interface {
	// ClaimContexts atomically marks up to limit unprocessed contexts with
	// severity >= minSeverity as processed and returns them, oldest first.
	ClaimContexts(ctx context.Context, minSeverity int, limit int, claimedAt time.Time) ([]entities.DecisionContext, error)
	ReleaseContext(ctx context.Context, contextID string) error
}

type DecisionRepository interface {
	SaveDecision(ctx context.Context, decision entities.Decision) error
	GetDecision(ctx context.Context, decisionID string) (entities.Decision, error)
	// ListAwaitingPoll lists decisions needing governance with no poll yet, oldest first.
	ListAwaitingPoll(ctx context.Context, limit int) ([]entities.Decision, error)
	// ListAwaitingExecution lists autonomous decisions not yet executed, oldest first.
	ListAwaitingExecution(ctx context.Context, limit int) ([]entities.Decision, error)
	// MarkExecuted flips executed for an unlinked, unexecuted decision and
	// appends the outbox event in the same transaction.
	MarkExecuted(ctx context.Context, decisionID string, at time.Time, event EventEnvelope) error
	SetSuccessScore(ctx context.Context, decisionID string, score float64, at time.Time) (entities.Decision, error)
}

// PollDraft is everything PollForge writes for one decision.
type PollDraft struct {
	Poll         entities.Poll
	Announcement entities.PollCommentary
	Events       []EventEnvelope
	AdminActions []entities.AdminAction
}

type PollRepository interface {
	// CreatePollForDecision writes the poll, options, announcement, events and
	// admin actions, then links the decision and stamps it with the poll's
	// autonomy level, in one transaction. It returns
	// ErrDecisionAlreadyLinked when the decision already has a poll.
	CreatePollForDecision(ctx context.Context, draft PollDraft, at time.Time) error
	GetPoll(ctx context.Context, pollID string) (entities.Poll, error)
	// ListPolls lists polls newest first, optionally filtered by status.
	ListPolls(ctx context.Context, status *entities.PollStatus, limit int) ([]entities.Poll, error)
	// ListClosablePolls lists polls whose voting ended within [from, to] and
	// whose status is not final.
	ListClosablePolls(ctx context.Context, from time.Time, to time.Time, limit int) ([]entities.Poll, error)
	// ClosePoll closes a non-final poll and records the completion event and
	// outbox events in one transaction. ErrPollAlreadyClosed when it lost a race.
	ClosePoll(ctx context.Context, completion entities.PollCompletionEvent, events []EventEnvelope) error
	// ListUnanalyzedPolls lists closed polls that have a completion record but
	// no analysis yet, oldest first. Options carry the final vote counts.
	ListUnanalyzedPolls(ctx context.Context, limit int) ([]entities.Poll, error)
	// TransitionPoll moves a poll from one of the allowed statuses to next,
	// applying the patch. ErrInvalidTransition when the current status is not allowed.
	TransitionPoll(ctx context.Context, pollID string, allowed []entities.PollStatus, next entities.PollStatus, patch entities.PollPatch, at time.Time) (entities.Poll, error)
	ListCommentary(ctx context.Context, pollID string) ([]entities.PollCommentary, error)
}

// VoteCounter reads the current vote count per option from recorded votes.
type VoteCounter interface {
	CountVotes(ctx context.Context, pollID string) (map[string]int, error)
}

type AnalysisRepository interface {
	// SaveAnalysis stores the analysis, the outcome commentary and the
	// completion event in one transaction.
	SaveAnalysis(ctx context.Context, analysis entities.AnalysisResult, commentary entities.PollCommentary, events []EventEnvelope) error
	GetAnalysis(ctx context.Context, pollID string) (entities.AnalysisResult, bool, error)
}

type LearningRepository interface {
	// ListOutcomesSince joins executed decisions created since the given time
	// with the analysis of their poll.
	ListOutcomesSince(ctx context.Context, since time.Time) ([]entities.DecisionOutcome, error)
	SavePatterns(ctx context.Context, patterns []entities.LearningPattern) error
	ListPatterns(ctx context.Context, limit int) ([]entities.LearningPattern, error)
}

type SettingsRepository interface {
	// GetSettings returns found=false when settings were never persisted.
	GetSettings(ctx context.Context) (entities.GovernanceSettings, bool, error)
	// SaveSettings writes settings if the stored version still equals
	// expectedVersion, returning the settings at the new version.
	SaveSettings(ctx context.Context, settings entities.GovernanceSettings, expectedVersion int64) (entities.GovernanceSettings, error)
}

type BrakeRepository interface {
	GetBrake(ctx context.Context) (entities.EmergencyBrake, error)
	SaveBrake(ctx context.Context, brake entities.EmergencyBrake, expectedVersion int64) (entities.EmergencyBrake, error)
}

type AdminLog interface {
	AppendAdminAction(ctx context.Context, action entities.AdminAction) error
	ListAdminActions(ctx context.Context, limit int) ([]entities.AdminAction, error)
}

type ActivityLog interface {
	RecordStageActivity(ctx context.Context, activity entities.StageActivity) error
	ListStageActivity(ctx context.Context, since time.Time) ([]entities.StageActivity, error)
}

type OutboxMessage struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
}

type OutboxRepository interface {
	AppendOutbox(ctx context.Context, envelope EventEnvelope) error
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error
}

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}

// DecisionAnalyst turns an escalation into a proposed decision.
type DecisionAnalyst interface {
	AnalyzeContext(ctx context.Context, decisionContext entities.DecisionContext, settings entities.GovernanceSettings) (entities.DecisionAnalysis, error)
}

// OutcomeAnalyst reads a finished poll.
type OutcomeAnalyst interface {
	Recommend(ctx context.Context, brief entities.OutcomeBrief) (entities.Recommendation, error)
	Commentary(ctx context.Context, brief entities.OutcomeBrief) (string, error)
}

// PatternAnalyst mines outcomes for patterns and typed config changes.
type PatternAnalyst interface {
	MinePatterns(ctx context.Context, brief entities.LearningBrief) (entities.PatternReport, error)
}

type AutonomyRuleInput struct {
	Category    entities.Category
	Severity    int
	Confidence  float64
	ContextType string
}

// AutonomyRuleEvaluator applies configured override rules ahead of the
// autonomy table. matched is false when no rule applies.
type AutonomyRuleEvaluator interface {
	Evaluate(ctx context.Context, input AutonomyRuleInput) (level entities.AutonomyLevel, matched bool, err error)
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}
