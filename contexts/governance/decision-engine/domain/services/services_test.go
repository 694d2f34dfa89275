package services

import (
	"testing"
	"time"

	"girthgov/contexts/governance/decision-engine/domain/entities"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func options(ids ...string) []entities.PollOption {
	out := make([]entities.PollOption, 0, len(ids))
	for i, id := range ids {
		out = append(out, entities.PollOption{OptionID: id, Position: i, Text: id})
	}
	return out
}

func TestTallyConsensusAndControversy(t *testing.T) {
	result := Tally(options("a", "b"), map[string]int{"a": 120, "b": 80, "ghost": 9})
	assert.Equal(t, 200, result.Total)
	assert.Equal(t, "a", result.WinnerOptionID)
	assert.InDelta(t, 0.6, result.ConsensusStrength, 1e-9)
	assert.InDelta(t, 0.8, result.ControversyScore, 1e-9)
	assert.True(t, result.AdminReviewRequired)
	assert.NotContains(t, result.FinalTally, "ghost")
}

func TestTallyTiesGoToLowestPosition(t *testing.T) {
	opts := options("first", "second", "third")
	opts[0], opts[2] = opts[2], opts[0]

	result := Tally(opts, map[string]int{"first": 5, "second": 2, "third": 5})
	assert.Equal(t, "first", result.WinnerOptionID)
	assert.InDelta(t, 1.0, result.ControversyScore, 1e-9)

	empty := Tally(options("x", "y"), nil)
	assert.Equal(t, "x", empty.WinnerOptionID)
	assert.Equal(t, 0, empty.Total)
	assert.True(t, empty.AdminReviewRequired)
}

func TestPriorityForConsensus(t *testing.T) {
	assert.Equal(t, entities.PriorityImmediate, PriorityForConsensus(0.8))
	assert.Equal(t, entities.PriorityScheduled, PriorityForConsensus(0.6))
	assert.Equal(t, entities.PriorityDeferred, PriorityForConsensus(0.59))
}

func TestAutonomyFor(t *testing.T) {
	cases := []struct {
		category entities.Category
		severity int
		want     entities.AutonomyLevel
	}{
		{entities.CategoryEconomy, 5, entities.AutonomyAdminNotified},
		{entities.CategoryEconomy, 7, entities.AutonomyAdminApproval},
		{entities.CategorySecurity, 10, entities.AutonomyAdminApproval},
		{entities.CategoryRewards, 6, entities.AutonomyFull},
		{entities.CategoryRewards, 8, entities.AutonomyAdminApproval},
		{entities.CategoryGameplay, 8, entities.AutonomyAdminNotified},
		{entities.CategoryCommunity, 9, entities.AutonomyAdminApproval},
		{entities.CategoryTechnical, 1, entities.AutonomyFull},
		{entities.Category("weather"), 7, entities.AutonomyAdminNotified},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, AutonomyFor(tc.category, tc.severity), "%s/%d", tc.category, tc.severity)
	}
}

func TestCategoryForContext(t *testing.T) {
	assert.Equal(t, entities.CategoryTechnical, CategoryForContext("oracle_stability_collapse"))
	assert.Equal(t, entities.CategoryEconomy, CategoryForContext("metric_anomaly:balance"))
	assert.Equal(t, entities.CategoryGameplay, CategoryForContext("metric_anomaly:unknown"))
	assert.Equal(t, entities.CategoryRewards, CategoryForContext("tap_surge_peak"))
}

func TestFallbackAnalysisAlwaysGoesToVote(t *testing.T) {
	analysis := FallbackAnalysis(entities.DecisionContext{ContextID: "ctx", Type: "legion_morale_collapse", Severity: 8})
	assert.True(t, analysis.RequiresGovernance)
	assert.Equal(t, FallbackConfidence, analysis.Confidence)
	assert.Equal(t, entities.CategoryCommunity, analysis.Category)
	assert.Len(t, analysis.Proposal.Options, 3)
}

func TestSucceededPrefersExternalScore(t *testing.T) {
	low := 0.2
	success, known := Succeeded(entities.DecisionOutcome{
		Decision: entities.Decision{SuccessScore: &low},
		Analysis: &entities.AnalysisResult{ConsensusStrength: 0.9},
	})
	assert.True(t, known)
	assert.False(t, success)

	success, known = Succeeded(entities.DecisionOutcome{Analysis: &entities.AnalysisResult{ConsensusStrength: 0.65}})
	assert.True(t, known)
	assert.True(t, success)

	_, known = Succeeded(entities.DecisionOutcome{})
	assert.False(t, known)
}

func TestFallbackReportProposesSingleSteps(t *testing.T) {
	settings := entities.DefaultGovernanceSettings()
	report := FallbackReport([]entities.CategoryOutcome{{
		Category:          entities.CategoryEconomy,
		Decisions:         4,
		Successes:         1,
		Failures:          3,
		AverageConfidence: 0.8,
		AverageConsensus:  0.5,
	}}, settings, time.Unix(0, 0))

	types := make([]entities.PatternType, 0, len(report.Patterns))
	for _, pattern := range report.Patterns {
		assert.True(t, pattern.Fallback)
		types = append(types, pattern.Type)
	}
	assert.ElementsMatch(t, []entities.PatternType{entities.PatternFailure, entities.PatternConfidenceMiscalibrated}, types)

	require.Len(t, report.ConfigChanges, 2)
	for _, change := range report.ConfigChanges {
		_, err := ValidateConfigChange(change, settings, true)
		assert.NoError(t, err, string(change.Knob))
	}
}

func TestValidateConfigChange(t *testing.T) {
	settings := entities.DefaultGovernanceSettings()

	_, err := ValidateConfigChange(entities.ConfigChange{Knob: entities.KnobConfidenceThreshold, To: 0.9}, settings, true)
	assert.Error(t, err, "step too large for learning")
	change, err := ValidateConfigChange(entities.ConfigChange{Knob: entities.KnobConfidenceThreshold, To: 0.9, From: 0.1}, settings, false)
	require.NoError(t, err)
	assert.InDelta(t, 0.7, change.From, 1e-9)

	_, err = ValidateConfigChange(entities.ConfigChange{Knob: entities.KnobVotingDurationHours, To: 6}, settings, false)
	assert.Error(t, err)
	_, err = ValidateConfigChange(entities.ConfigChange{Knob: entities.KnobVotingDurationHours, To: 60}, settings, true)
	assert.NoError(t, err)
	_, err = ValidateConfigChange(entities.ConfigChange{Knob: "reward_curve", To: 1}, settings, false)
	assert.Error(t, err)

	applied := ApplyConfigChange(settings, entities.ConfigChange{Knob: entities.KnobConfidenceThreshold, To: 0.7500000001})
	assert.Equal(t, 0.75, applied.ConfidenceThreshold)
}

func TestValidateConfigChangeReachesThresholdCeiling(t *testing.T) {
	settings := entities.DefaultGovernanceSettings()
	settings.ConfidenceThreshold = 0.9

	change, err := ValidateConfigChange(entities.ConfigChange{
		Knob: entities.KnobConfidenceThreshold,
		To:   settings.ConfidenceThreshold + ConfidenceThresholdStep,
	}, settings, true)
	require.NoError(t, err)
	assert.Equal(t, ConfidenceThresholdMax, change.To)

	_, err = ValidateConfigChange(entities.ConfigChange{Knob: entities.KnobConfidenceThreshold, To: 0.96}, settings, true)
	assert.Error(t, err)
}
