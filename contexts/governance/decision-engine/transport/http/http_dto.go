package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type PollOptionDTO struct {
	OptionID     string   `json:"option_id"`
	Position     int      `json:"position"`
	Text         string   `json:"text"`
	Impact       string   `json:"impact,omitempty"`
	Stakeholders []string `json:"stakeholders,omitempty"`
	VotesCount   int      `json:"votes_count"`
}

type PollDTO struct {
	PollID        string          `json:"poll_id"`
	DecisionID    string          `json:"decision_id"`
	Title         string          `json:"title"`
	Description   string          `json:"description"`
	Options       []PollOptionDTO `json:"options"`
	VotingStart   string          `json:"voting_start"`
	VotingEnd     string          `json:"voting_end"`
	Status        string          `json:"status"`
	RewardPerVote float64         `json:"reward_per_vote"`
	AutonomyLevel string          `json:"autonomy_level"`
}

type ListPollsResponse struct {
	Items []PollDTO `json:"items"`
}

type GetPollResponse struct {
	Poll PollDTO `json:"poll"`
}

type CommentaryDTO struct {
	CommentaryID string `json:"commentary_id"`
	Kind         string `json:"kind"`
	Body         string `json:"body"`
	Fallback     bool   `json:"fallback"`
	CreatedAt    string `json:"created_at"`
}

type ListCommentaryResponse struct {
	Items []CommentaryDTO `json:"items"`
}

type RecommendationDTO struct {
	Priority       string   `json:"priority"`
	Complexity     string   `json:"complexity"`
	Effort         string   `json:"effort"`
	Resources      []string `json:"resources"`
	Risks          []string `json:"risks"`
	SuccessMetrics []string `json:"success_metrics"`
	Confidence     float64  `json:"confidence"`
}

type PollAnalysisResponse struct {
	PollID            string            `json:"poll_id"`
	WinnerOptionID    string            `json:"winner_option_id"`
	ConsensusStrength float64           `json:"consensus_strength"`
	ControversyScore  float64           `json:"controversy_score"`
	Recommendation    RecommendationDTO `json:"recommendation"`
	Confidence        float64           `json:"confidence"`
	Fallback          bool              `json:"fallback"`
}

type ApprovePollRequest struct {
	Note string `json:"note,omitempty"`
}

type RejectPollRequest struct {
	Reason string `json:"reason"`
}

type OverridePollRequest struct {
	Action    string  `json:"action"`
	Reason    string  `json:"reason,omitempty"`
	Title     *string `json:"title,omitempty"`
	VotingEnd *string `json:"voting_end,omitempty"`
}

type EmergencyBrakeRequest struct {
	Action        string  `json:"action"`
	Reason        string  `json:"reason"`
	DurationHours float64 `json:"duration_hours,omitempty"`
}

type EmergencyBrakeResponse struct {
	Active      bool   `json:"active"`
	Reason      string `json:"reason,omitempty"`
	ActivatedBy string `json:"activated_by,omitempty"`
	ActivatedAt string `json:"activated_at,omitempty"`
	ExpiresAt   string `json:"expires_at,omitempty"`
	Version     int64  `json:"version"`
}

type UpdateConfigRequest struct {
	Knob  string  `json:"knob"`
	Value float64 `json:"value"`
}

type GovernanceSettingsResponse struct {
	ConfidenceThreshold float64 `json:"confidence_threshold"`
	VotingDurationHours int     `json:"voting_duration_hours"`
	VoteCooldownHours   int     `json:"vote_cooldown_hours"`
	BaseReward          float64 `json:"base_reward"`
	MinContextSeverity  int     `json:"min_context_severity"`
	Version             int64   `json:"version"`
}

type ScoreDecisionRequest struct {
	Score float64 `json:"score"`
}

type DecisionResponse struct {
	DecisionID         string   `json:"decision_id"`
	ContextID          string   `json:"context_id"`
	Category           string   `json:"category"`
	Severity           int      `json:"severity"`
	Reasoning          string   `json:"reasoning"`
	Confidence         float64  `json:"confidence"`
	RequiresGovernance bool     `json:"requires_governance"`
	AutonomyLevel      string   `json:"autonomy_level"`
	PollID             *string  `json:"poll_id,omitempty"`
	Executed           bool     `json:"executed"`
	SuccessScore       *float64 `json:"success_score,omitempty"`
	Fallback           bool     `json:"fallback"`
}

type AdminActionDTO struct {
	ActionID   string         `json:"action_id"`
	ActorID    string         `json:"actor_id"`
	Action     string         `json:"action"`
	TargetID   string         `json:"target_id"`
	Payload    map[string]any `json:"payload,omitempty"`
	OccurredAt string         `json:"occurred_at"`
}

type ListAdminActionsResponse struct {
	Items []AdminActionDTO `json:"items"`
}

type LearningPatternDTO struct {
	PatternID               string   `json:"pattern_id"`
	Type                    string   `json:"type"`
	Category                string   `json:"category,omitempty"`
	Description             string   `json:"description"`
	Confidence              float64  `json:"confidence"`
	Evidence                []string `json:"evidence,omitempty"`
	RecommendedImprovements []string `json:"recommended_improvements,omitempty"`
	Fallback                bool     `json:"fallback"`
	CreatedAt               string   `json:"created_at"`
}

type LearningReportResponse struct {
	Patterns []LearningPatternDTO  `json:"patterns"`
	Stages   []StagePerformanceDTO `json:"stages"`
}

type StagePerformanceDTO struct {
	Stage             string  `json:"stage"`
	Runs              int     `json:"runs"`
	SuccessRate       float64 `json:"success_rate"`
	AverageConfidence float64 `json:"average_confidence"`
	AverageLatencyMs  float64 `json:"average_latency_ms"`
}
