package entities

import (
	"fmt"
	"strings"
	"time"
)

type PatternType string

const (
	PatternSuccess                 PatternType = "success_pattern"
	PatternFailure                 PatternType = "failure_pattern"
	PatternConfidenceMiscalibrated PatternType = "confidence_miscalibration"
	PatternCategoryEffect          PatternType = "category_effect"
)

func (t PatternType) Valid() bool {
	switch t {
	case PatternSuccess, PatternFailure, PatternConfidenceMiscalibrated, PatternCategoryEffect:
		return true
	default:
		return false
	}
}

type LearningPattern struct {
	PatternID               string
	Type                    PatternType
	Category                Category
	Description             string
	Confidence              float64
	Evidence                []string
	RecommendedImprovements []string
	Fallback                bool
	CreatedAt               time.Time
}

// ConfigKnob is a setting the learning loop is allowed to tune.
type ConfigKnob string

const (
	KnobConfidenceThreshold ConfigKnob = "confidence_threshold"
	KnobVotingDurationHours ConfigKnob = "voting_duration_hours"
)

func ParseConfigKnob(value string) (ConfigKnob, error) {
	switch ConfigKnob(strings.ToLower(strings.TrimSpace(value))) {
	case KnobConfidenceThreshold:
		return KnobConfidenceThreshold, nil
	case KnobVotingDurationHours:
		return KnobVotingDurationHours, nil
	default:
		return "", fmt.Errorf("unknown config knob %q", value)
	}
}

type ConfigChange struct {
	Knob   ConfigKnob
	From   float64
	To     float64
	Reason string
}

type GovernanceSettings struct {
	ConfidenceThreshold float64
	VotingDurationHours int
	VoteCooldownHours   int
	BaseReward          float64
	MinContextSeverity  int
	PollBatchSize       int
	Version             int64
	UpdatedAt           time.Time
}

// Value reads a tunable knob.
func (s GovernanceSettings) Value(knob ConfigKnob) float64 {
	switch knob {
	case KnobConfidenceThreshold:
		return s.ConfidenceThreshold
	case KnobVotingDurationHours:
		return float64(s.VotingDurationHours)
	default:
		return 0
	}
}

// DecisionOutcome joins an executed decision with its poll analysis, if any.
type DecisionOutcome struct {
	Decision Decision
	Analysis *AnalysisResult
}

// CategoryOutcome is the per-category roll-up handed to the pattern analyst.
type CategoryOutcome struct {
	Category          Category `json:"category"`
	Decisions         int      `json:"decisions"`
	Successes         int      `json:"successes"`
	Failures          int      `json:"failures"`
	AverageConfidence float64  `json:"average_confidence"`
	AverageConsensus  float64  `json:"average_consensus"`
}

type StageActivity struct {
	ActivityID string
	Stage      string
	Success    bool
	Confidence float64
	LatencyMs  int64
	OccurredAt time.Time
}

type StagePerformance struct {
	Stage             string  `json:"stage"`
	Runs              int     `json:"runs"`
	SuccessRate       float64 `json:"success_rate"`
	AverageConfidence float64 `json:"average_confidence"`
	AverageLatencyMs  float64 `json:"average_latency_ms"`
}

type LearningBrief struct {
	WindowStart time.Time
	WindowEnd   time.Time
	Categories  []CategoryOutcome
	Stages      []StagePerformance
	Settings    GovernanceSettings
}

type PatternReport struct {
	Patterns      []LearningPattern
	ConfigChanges []ConfigChange
}

// DefaultGovernanceSettings is used until settings are first persisted.
func DefaultGovernanceSettings() GovernanceSettings {
	return GovernanceSettings{
		ConfidenceThreshold: 0.7,
		VotingDurationHours: 48,
		VoteCooldownHours:   24,
		BaseReward:          10,
		MinContextSeverity:  5,
		PollBatchSize:       25,
	}
}
