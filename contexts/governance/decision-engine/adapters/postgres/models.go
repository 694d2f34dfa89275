package postgresadapter

import (
	"encoding/json"
	"strings"
	"time"

	"girthgov/contexts/governance/decision-engine/domain/entities"
)

type decisionContextModel struct {
	ID          string     `gorm:"column:id;primaryKey"`
	ContextType string     `gorm:"column:context_type"`
	Severity    int        `gorm:"column:severity"`
	Snapshot    []byte     `gorm:"column:snapshot"`
	Processed   bool       `gorm:"column:processed"`
	CreatedAt   time.Time  `gorm:"column:created_at"`
	ProcessedAt *time.Time `gorm:"column:processed_at"`
}

func (decisionContextModel) TableName() string {
	return "decision_contexts"
}

func (m decisionContextModel) toEntity() entities.DecisionContext {
	return entities.DecisionContext{
		ContextID:   m.ID,
		Type:        m.ContextType,
		Severity:    m.Severity,
		Snapshot:    append(json.RawMessage(nil), m.Snapshot...),
		Processed:   m.Processed,
		CreatedAt:   m.CreatedAt.UTC(),
		ProcessedAt: normalizeOptionalTime(m.ProcessedAt),
	}
}

type decisionModel struct {
	DecisionID         string    `gorm:"column:decision_id;primaryKey"`
	ContextID          string    `gorm:"column:context_id"`
	ContextType        string    `gorm:"column:context_type"`
	Category           string    `gorm:"column:category"`
	Severity           int       `gorm:"column:severity"`
	Reasoning          string    `gorm:"column:reasoning"`
	Confidence         float64   `gorm:"column:confidence"`
	RequiresGovernance bool      `gorm:"column:requires_governance"`
	AutonomyLevel      string    `gorm:"column:autonomy_level"`
	Proposal           []byte    `gorm:"column:proposal"`
	Fallback           bool      `gorm:"column:fallback"`
	PollID             *string   `gorm:"column:poll_id"`
	Executed           bool      `gorm:"column:executed"`
	SuccessScore       *float64  `gorm:"column:success_score"`
	CreatedAt          time.Time `gorm:"column:created_at"`
	UpdatedAt          time.Time `gorm:"column:updated_at"`
}

func (decisionModel) TableName() string {
	return "decisions"
}

func decisionModelFromEntity(decision entities.Decision) (decisionModel, error) {
	proposal, err := json.Marshal(decision.Proposal)
	if err != nil {
		return decisionModel{}, err
	}
	return decisionModel{
		DecisionID:         strings.TrimSpace(decision.DecisionID),
		ContextID:          strings.TrimSpace(decision.ContextID),
		ContextType:        decision.ContextType,
		Category:           string(decision.Category),
		Severity:           decision.Severity,
		Reasoning:          decision.Reasoning,
		Confidence:         decision.Confidence,
		RequiresGovernance: decision.RequiresGovernance,
		AutonomyLevel:      decision.AutonomyLevel.String(),
		Proposal:           proposal,
		Fallback:           decision.Fallback,
		PollID:             decision.PollID,
		Executed:           decision.Executed,
		SuccessScore:       decision.SuccessScore,
		CreatedAt:          decision.CreatedAt.UTC(),
		UpdatedAt:          decision.UpdatedAt.UTC(),
	}, nil
}

func (m decisionModel) toEntity() (entities.Decision, error) {
	category, err := entities.ParseCategory(m.Category)
	if err != nil {
		return entities.Decision{}, err
	}
	level, err := entities.ParseAutonomyLevel(m.AutonomyLevel)
	if err != nil {
		return entities.Decision{}, err
	}
	var proposal entities.PollProposal
	if len(m.Proposal) > 0 {
		if err := json.Unmarshal(m.Proposal, &proposal); err != nil {
			return entities.Decision{}, err
		}
	}
	return entities.Decision{
		DecisionID:         m.DecisionID,
		ContextID:          m.ContextID,
		ContextType:        m.ContextType,
		Category:           category,
		Severity:           m.Severity,
		Reasoning:          m.Reasoning,
		Confidence:         m.Confidence,
		RequiresGovernance: m.RequiresGovernance,
		AutonomyLevel:      level,
		Proposal:           proposal,
		Fallback:           m.Fallback,
		PollID:             m.PollID,
		Executed:           m.Executed,
		SuccessScore:       m.SuccessScore,
		CreatedAt:          m.CreatedAt.UTC(),
		UpdatedAt:          m.UpdatedAt.UTC(),
	}, nil
}

type pollModel struct {
	PollID        string    `gorm:"column:poll_id;primaryKey"`
	DecisionID    string    `gorm:"column:decision_id"`
	Title         string    `gorm:"column:title"`
	Description   string    `gorm:"column:description"`
	VotingStart   time.Time `gorm:"column:voting_start"`
	VotingEnd     time.Time `gorm:"column:voting_end"`
	Status        string    `gorm:"column:status"`
	RewardPerVote float64   `gorm:"column:reward_per_vote"`
	AutonomyLevel string    `gorm:"column:autonomy_level"`
	CreatedAt     time.Time `gorm:"column:created_at"`
	UpdatedAt     time.Time `gorm:"column:updated_at"`
}

func (pollModel) TableName() string {
	return "polls"
}

func pollModelFromEntity(poll entities.Poll) pollModel {
	return pollModel{
		PollID:        strings.TrimSpace(poll.PollID),
		DecisionID:    strings.TrimSpace(poll.DecisionID),
		Title:         poll.Title,
		Description:   poll.Description,
		VotingStart:   poll.VotingStart.UTC(),
		VotingEnd:     poll.VotingEnd.UTC(),
		Status:        poll.Status.String(),
		RewardPerVote: poll.RewardPerVote,
		AutonomyLevel: poll.AutonomyLevel.String(),
		CreatedAt:     poll.CreatedAt.UTC(),
		UpdatedAt:     poll.UpdatedAt.UTC(),
	}
}

func (m pollModel) toEntity() (entities.Poll, error) {
	status, err := entities.ParsePollStatus(m.Status)
	if err != nil {
		return entities.Poll{}, err
	}
	level, err := entities.ParseAutonomyLevel(m.AutonomyLevel)
	if err != nil {
		return entities.Poll{}, err
	}
	return entities.Poll{
		PollID:        m.PollID,
		DecisionID:    m.DecisionID,
		Title:         m.Title,
		Description:   m.Description,
		VotingStart:   m.VotingStart.UTC(),
		VotingEnd:     m.VotingEnd.UTC(),
		Status:        status,
		RewardPerVote: m.RewardPerVote,
		AutonomyLevel: level,
		CreatedAt:     m.CreatedAt.UTC(),
		UpdatedAt:     m.UpdatedAt.UTC(),
	}, nil
}

type pollOptionModel struct {
	OptionID     string `gorm:"column:option_id;primaryKey"`
	PollID       string `gorm:"column:poll_id"`
	Position     int    `gorm:"column:position"`
	Text         string `gorm:"column:text"`
	Impact       string `gorm:"column:impact"`
	Stakeholders []byte `gorm:"column:stakeholders"`
	VotesCount   int    `gorm:"column:votes_count"`
}

func (pollOptionModel) TableName() string {
	return "poll_options"
}

func pollOptionModelsFromEntity(poll entities.Poll) ([]pollOptionModel, error) {
	rows := make([]pollOptionModel, 0, len(poll.Options))
	for _, option := range poll.Options {
		stakeholders, err := json.Marshal(option.Stakeholders)
		if err != nil {
			return nil, err
		}
		rows = append(rows, pollOptionModel{
			OptionID:     strings.TrimSpace(option.OptionID),
			PollID:       strings.TrimSpace(poll.PollID),
			Position:     option.Position,
			Text:         option.Text,
			Impact:       option.Impact,
			Stakeholders: stakeholders,
			VotesCount:   option.VotesCount,
		})
	}
	return rows, nil
}

func (m pollOptionModel) toEntity() (entities.PollOption, error) {
	var stakeholders []string
	if len(m.Stakeholders) > 0 {
		if err := json.Unmarshal(m.Stakeholders, &stakeholders); err != nil {
			return entities.PollOption{}, err
		}
	}
	return entities.PollOption{
		OptionID:     m.OptionID,
		PollID:       m.PollID,
		Position:     m.Position,
		Text:         m.Text,
		Impact:       m.Impact,
		Stakeholders: stakeholders,
		VotesCount:   m.VotesCount,
	}, nil
}

type commentaryModel struct {
	CommentaryID string    `gorm:"column:commentary_id;primaryKey"`
	PollID       string    `gorm:"column:poll_id"`
	Kind         string    `gorm:"column:kind"`
	Body         string    `gorm:"column:body"`
	Fallback     bool      `gorm:"column:fallback"`
	CreatedAt    time.Time `gorm:"column:created_at"`
}

func (commentaryModel) TableName() string {
	return "poll_commentary"
}

func commentaryModelFromEntity(item entities.PollCommentary) commentaryModel {
	return commentaryModel{
		CommentaryID: strings.TrimSpace(item.CommentaryID),
		PollID:       strings.TrimSpace(item.PollID),
		Kind:         string(item.Kind),
		Body:         item.Body,
		Fallback:     item.Fallback,
		CreatedAt:    item.CreatedAt.UTC(),
	}
}

func (m commentaryModel) toEntity() entities.PollCommentary {
	return entities.PollCommentary{
		CommentaryID: m.CommentaryID,
		PollID:       m.PollID,
		Kind:         entities.CommentaryKind(m.Kind),
		Body:         m.Body,
		Fallback:     m.Fallback,
		CreatedAt:    m.CreatedAt.UTC(),
	}
}

type completionModel struct {
	PollID              string    `gorm:"column:poll_id;primaryKey"`
	CompletedAt         time.Time `gorm:"column:completed_at"`
	TotalVotes          int       `gorm:"column:total_votes"`
	WinnerOptionID      string    `gorm:"column:winner_option_id"`
	FinalTally          []byte    `gorm:"column:final_tally"`
	AdminReviewRequired bool      `gorm:"column:admin_review_required"`
}

func (completionModel) TableName() string {
	return "poll_completions"
}

func completionModelFromEntity(item entities.PollCompletionEvent) (completionModel, error) {
	tally, err := json.Marshal(item.FinalTally)
	if err != nil {
		return completionModel{}, err
	}
	return completionModel{
		PollID:              strings.TrimSpace(item.PollID),
		CompletedAt:         item.CompletedAt.UTC(),
		TotalVotes:          item.TotalVotes,
		WinnerOptionID:      item.WinnerOptionID,
		FinalTally:          tally,
		AdminReviewRequired: item.AdminReviewRequired,
	}, nil
}

type analysisModel struct {
	PollID            string    `gorm:"column:poll_id;primaryKey"`
	DecisionID        string    `gorm:"column:decision_id"`
	WinnerOptionID    string    `gorm:"column:winner_option_id"`
	ConsensusStrength float64   `gorm:"column:consensus_strength"`
	ControversyScore  float64   `gorm:"column:controversy_score"`
	Priority          string    `gorm:"column:priority"`
	Recommendation    []byte    `gorm:"column:recommendation"`
	Confidence        float64   `gorm:"column:confidence"`
	Fallback          bool      `gorm:"column:fallback"`
	CreatedAt         time.Time `gorm:"column:created_at"`
}

func (analysisModel) TableName() string {
	return "poll_analyses"
}

func analysisModelFromEntity(item entities.AnalysisResult) (analysisModel, error) {
	recommendation, err := json.Marshal(item.Recommendation)
	if err != nil {
		return analysisModel{}, err
	}
	return analysisModel{
		PollID:            strings.TrimSpace(item.PollID),
		DecisionID:        strings.TrimSpace(item.DecisionID),
		WinnerOptionID:    item.WinnerOptionID,
		ConsensusStrength: item.ConsensusStrength,
		ControversyScore:  item.ControversyScore,
		Priority:          item.Recommendation.Priority.String(),
		Recommendation:    recommendation,
		Confidence:        item.Confidence,
		Fallback:          item.Fallback,
		CreatedAt:         item.CreatedAt.UTC(),
	}, nil
}

func (m analysisModel) toEntity() (entities.AnalysisResult, error) {
	var recommendation entities.Recommendation
	if len(m.Recommendation) > 0 {
		if err := json.Unmarshal(m.Recommendation, &recommendation); err != nil {
			return entities.AnalysisResult{}, err
		}
	}
	priority, err := entities.ParsePriority(m.Priority)
	if err != nil {
		return entities.AnalysisResult{}, err
	}
	recommendation.Priority = priority
	return entities.AnalysisResult{
		PollID:            m.PollID,
		DecisionID:        m.DecisionID,
		WinnerOptionID:    m.WinnerOptionID,
		ConsensusStrength: m.ConsensusStrength,
		ControversyScore:  m.ControversyScore,
		Recommendation:    recommendation,
		Confidence:        m.Confidence,
		Fallback:          m.Fallback,
		CreatedAt:         m.CreatedAt.UTC(),
	}, nil
}

type patternModel struct {
	PatternID    string    `gorm:"column:pattern_id;primaryKey"`
	PatternType  string    `gorm:"column:pattern_type"`
	Category     string    `gorm:"column:category"`
	Description  string    `gorm:"column:description"`
	Confidence   float64   `gorm:"column:confidence"`
	Evidence     []byte    `gorm:"column:evidence"`
	Improvements []byte    `gorm:"column:recommended_improvements"`
	Fallback     bool      `gorm:"column:fallback"`
	CreatedAt    time.Time `gorm:"column:created_at"`
}

func (patternModel) TableName() string {
	return "learning_patterns"
}

func patternModelFromEntity(item entities.LearningPattern) (patternModel, error) {
	evidence, err := json.Marshal(item.Evidence)
	if err != nil {
		return patternModel{}, err
	}
	improvements, err := json.Marshal(item.RecommendedImprovements)
	if err != nil {
		return patternModel{}, err
	}
	return patternModel{
		PatternID:    strings.TrimSpace(item.PatternID),
		PatternType:  string(item.Type),
		Category:     string(item.Category),
		Description:  item.Description,
		Confidence:   item.Confidence,
		Evidence:     evidence,
		Improvements: improvements,
		Fallback:     item.Fallback,
		CreatedAt:    item.CreatedAt.UTC(),
	}, nil
}

func (m patternModel) toEntity() (entities.LearningPattern, error) {
	item := entities.LearningPattern{
		PatternID:   m.PatternID,
		Type:        entities.PatternType(m.PatternType),
		Category:    entities.Category(m.Category),
		Description: m.Description,
		Confidence:  m.Confidence,
		Fallback:    m.Fallback,
		CreatedAt:   m.CreatedAt.UTC(),
	}
	if len(m.Evidence) > 0 {
		if err := json.Unmarshal(m.Evidence, &item.Evidence); err != nil {
			return entities.LearningPattern{}, err
		}
	}
	if len(m.Improvements) > 0 {
		if err := json.Unmarshal(m.Improvements, &item.RecommendedImprovements); err != nil {
			return entities.LearningPattern{}, err
		}
	}
	return item, nil
}

type settingsModel struct {
	ID                  string    `gorm:"column:id;primaryKey"`
	ConfidenceThreshold float64   `gorm:"column:confidence_threshold"`
	VotingDurationHours int       `gorm:"column:voting_duration_hours"`
	VoteCooldownHours   int       `gorm:"column:vote_cooldown_hours"`
	BaseReward          float64   `gorm:"column:base_reward"`
	MinContextSeverity  int       `gorm:"column:min_context_severity"`
	PollBatchSize       int       `gorm:"column:poll_batch_size"`
	Version             int64     `gorm:"column:version"`
	UpdatedAt           time.Time `gorm:"column:updated_at"`
}

func (settingsModel) TableName() string {
	return "governance_settings"
}

func settingsModelFromEntity(item entities.GovernanceSettings) settingsModel {
	return settingsModel{
		ID:                  settingsRowID,
		ConfidenceThreshold: item.ConfidenceThreshold,
		VotingDurationHours: item.VotingDurationHours,
		VoteCooldownHours:   item.VoteCooldownHours,
		BaseReward:          item.BaseReward,
		MinContextSeverity:  item.MinContextSeverity,
		PollBatchSize:       item.PollBatchSize,
		Version:             item.Version,
		UpdatedAt:           item.UpdatedAt.UTC(),
	}
}

func (m settingsModel) toEntity() entities.GovernanceSettings {
	return entities.GovernanceSettings{
		ConfidenceThreshold: m.ConfidenceThreshold,
		VotingDurationHours: m.VotingDurationHours,
		VoteCooldownHours:   m.VoteCooldownHours,
		BaseReward:          m.BaseReward,
		MinContextSeverity:  m.MinContextSeverity,
		PollBatchSize:       m.PollBatchSize,
		Version:             m.Version,
		UpdatedAt:           m.UpdatedAt.UTC(),
	}
}

type brakeModel struct {
	ID          string     `gorm:"column:id;primaryKey"`
	Active      bool       `gorm:"column:active"`
	Reason      string     `gorm:"column:reason"`
	ActivatedBy string     `gorm:"column:activated_by"`
	ActivatedAt *time.Time `gorm:"column:activated_at"`
	ExpiresAt   *time.Time `gorm:"column:expires_at"`
	Version     int64      `gorm:"column:version"`
}

func (brakeModel) TableName() string {
	return "emergency_brake"
}

func brakeModelFromEntity(item entities.EmergencyBrake) brakeModel {
	return brakeModel{
		ID:          entities.EmergencyBrakeID,
		Active:      item.Active,
		Reason:      item.Reason,
		ActivatedBy: item.ActivatedBy,
		ActivatedAt: normalizeOptionalTime(item.ActivatedAt),
		ExpiresAt:   normalizeOptionalTime(item.ExpiresAt),
		Version:     item.Version,
	}
}

func (m brakeModel) toEntity() entities.EmergencyBrake {
	return entities.EmergencyBrake{
		Active:      m.Active,
		Reason:      m.Reason,
		ActivatedBy: m.ActivatedBy,
		ActivatedAt: normalizeOptionalTime(m.ActivatedAt),
		ExpiresAt:   normalizeOptionalTime(m.ExpiresAt),
		Version:     m.Version,
	}
}

type adminActionModel struct {
	ActionID   string    `gorm:"column:action_id;primaryKey"`
	ActorID    string    `gorm:"column:actor_id"`
	Action     string    `gorm:"column:action"`
	TargetID   string    `gorm:"column:target_id"`
	Payload    []byte    `gorm:"column:payload"`
	OccurredAt time.Time `gorm:"column:occurred_at"`
}

func (adminActionModel) TableName() string {
	return "admin_actions"
}

func adminActionModelFromEntity(item entities.AdminAction) adminActionModel {
	return adminActionModel{
		ActionID:   strings.TrimSpace(item.ActionID),
		ActorID:    item.ActorID,
		Action:     string(item.Action),
		TargetID:   item.TargetID,
		Payload:    append([]byte(nil), item.Payload...),
		OccurredAt: item.OccurredAt.UTC(),
	}
}

func (m adminActionModel) toEntity() entities.AdminAction {
	return entities.AdminAction{
		ActionID:   m.ActionID,
		ActorID:    m.ActorID,
		Action:     entities.AdminActionType(m.Action),
		TargetID:   m.TargetID,
		Payload:    append(json.RawMessage(nil), m.Payload...),
		OccurredAt: m.OccurredAt.UTC(),
	}
}

type stageActivityModel struct {
	ActivityID string    `gorm:"column:activity_id;primaryKey"`
	Stage      string    `gorm:"column:stage"`
	Success    bool      `gorm:"column:success"`
	Confidence float64   `gorm:"column:confidence"`
	LatencyMs  int64     `gorm:"column:latency_ms"`
	OccurredAt time.Time `gorm:"column:occurred_at"`
}

func (stageActivityModel) TableName() string {
	return "stage_activity"
}

func stageActivityModelFromEntity(item entities.StageActivity) stageActivityModel {
	return stageActivityModel{
		ActivityID: strings.TrimSpace(item.ActivityID),
		Stage:      item.Stage,
		Success:    item.Success,
		Confidence: item.Confidence,
		LatencyMs:  item.LatencyMs,
		OccurredAt: item.OccurredAt.UTC(),
	}
}

func (m stageActivityModel) toEntity() entities.StageActivity {
	return entities.StageActivity{
		ActivityID: m.ActivityID,
		Stage:      m.Stage,
		Success:    m.Success,
		Confidence: m.Confidence,
		LatencyMs:  m.LatencyMs,
		OccurredAt: m.OccurredAt.UTC(),
	}
}

type outboxModel struct {
	OutboxID     string     `gorm:"column:outbox_id;primaryKey"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      []byte     `gorm:"column:payload"`
	Status       string     `gorm:"column:status"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	PublishedAt  *time.Time `gorm:"column:published_at"`
}

func (outboxModel) TableName() string {
	return "governance_outbox"
}

func normalizeOptionalTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	normalized := value.UTC()
	return &normalized
}
