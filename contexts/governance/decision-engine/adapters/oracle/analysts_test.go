package oracleadapter

import (
	"context"
	"errors"
	"strings"
	"testing"

	"girthgov/contexts/governance/decision-engine/domain/entities"
	"girthgov/internal/platform/oracle"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedCompleter struct {
	reply   string
	err     error
	prompts []string
	formats []oracle.Format
}

func (c *scriptedCompleter) Complete(_ context.Context, prompt string, format oracle.Format) (string, error) {
	c.prompts = append(c.prompts, prompt)
	c.formats = append(c.formats, format)
	return c.reply, c.err
}

func TestAnalyzeContextDecodesFencedReply(t *testing.T) {
	completer := &scriptedCompleter{reply: "Here you go:\n```json\n" + `{
  "category": "Economy",
  "reasoning": "balance drained by whales",
  "confidence": 0.55,
  "requires_governance": false,
  "poll": {"title": "Cap whale rewards?", "duration_hours": 6,
           "options": [{"text": "Cap"}, {"text": "Do nothing", "stakeholders": ["whales"]}]}
}` + "\n```"}
	analyst := NewAnalyst(completer, nil)

	analysis, err := analyst.AnalyzeContext(context.Background(), entities.DecisionContext{
		Type:     "metric_anomaly:balance",
		Severity: 8,
	}, entities.DefaultGovernanceSettings())
	require.NoError(t, err)
	assert.Equal(t, entities.CategoryEconomy, analysis.Category)
	assert.InDelta(t, 0.55, analysis.Confidence, 1e-9)
	assert.Equal(t, "Cap whale rewards?", analysis.Proposal.Title)
	require.Len(t, analysis.Proposal.Options, 2)
	assert.Equal(t, []string{"whales"}, analysis.Proposal.Options[1].Stakeholders)

	require.Len(t, completer.prompts, 1)
	assert.Contains(t, completer.prompts[0], "metric_anomaly:balance")
	assert.Contains(t, completer.prompts[0], "0.70")
}

func TestAnalyzeContextRejectsProse(t *testing.T) {
	analyst := NewAnalyst(&scriptedCompleter{reply: "I would rather not say."}, nil)
	_, err := analyst.AnalyzeContext(context.Background(), entities.DecisionContext{Type: "resonance_fade"}, entities.DefaultGovernanceSettings())
	assert.Error(t, err)
}

func TestRecommendParsesPriority(t *testing.T) {
	completer := &scriptedCompleter{reply: `{"priority":"Immediate","effort":"low","confidence":0.9,"risks":["churn"]}`}
	analyst := NewAnalyst(completer, nil)
	recommendation, err := analyst.Recommend(context.Background(), entities.OutcomeBrief{PollTitle: "t", WinnerText: "w"})
	require.NoError(t, err)
	assert.Equal(t, []oracle.Format{oracle.FormatJSON}, completer.formats)
	assert.Equal(t, entities.PriorityImmediate, recommendation.Priority)
	assert.Equal(t, "low", recommendation.Effort)
	assert.Equal(t, []string{"churn"}, recommendation.Risks)

	bad := NewAnalyst(&scriptedCompleter{reply: `{"priority":"whenever"}`}, nil)
	_, err = bad.Recommend(context.Background(), entities.OutcomeBrief{})
	assert.Error(t, err)
}

func TestCommentaryTrimsAndRejectsBlank(t *testing.T) {
	completer := &scriptedCompleter{reply: "  The legion chose wisely.  \n"}
	analyst := NewAnalyst(completer, nil)
	text, err := analyst.Commentary(context.Background(), entities.OutcomeBrief{PollTitle: "t"})
	require.NoError(t, err)
	assert.Equal(t, "The legion chose wisely.", text)
	assert.Equal(t, []oracle.Format{oracle.FormatText}, completer.formats)

	blank := NewAnalyst(&scriptedCompleter{reply: "   "}, nil)
	_, err = blank.Commentary(context.Background(), entities.OutcomeBrief{})
	assert.ErrorIs(t, err, oracle.ErrUnavailable)
}

func TestMinePatternsDropsUnknownKnobs(t *testing.T) {
	completer := &scriptedCompleter{reply: `{
  "patterns": [{"type": "failure_pattern", "category": "rewards", "description": " rewards polls fail ", "confidence": 0.7}],
  "config_changes": [
    {"knob": "confidence_threshold", "value": 0.75, "reason": "too many misses"},
    {"knob": "base_reward", "value": 20}
  ]
}`}
	report, err := NewAnalyst(completer, nil).MinePatterns(context.Background(), entities.LearningBrief{
		Settings: entities.DefaultGovernanceSettings(),
	})
	require.NoError(t, err)
	require.Len(t, report.Patterns, 1)
	assert.Equal(t, entities.PatternFailure, report.Patterns[0].Type)
	assert.Equal(t, entities.CategoryRewards, report.Patterns[0].Category)
	assert.Equal(t, "rewards polls fail", report.Patterns[0].Description)
	require.Len(t, report.ConfigChanges, 1)
	assert.Equal(t, entities.KnobConfidenceThreshold, report.ConfigChanges[0].Knob)
	assert.True(t, strings.Contains(completer.prompts[0], "voting_duration_hours=48"))
}

func TestOfflineAnalystAlwaysFails(t *testing.T) {
	analyst := NewAnalyst(nil, nil)
	_, err := analyst.Recommend(context.Background(), entities.OutcomeBrief{})
	assert.True(t, errors.Is(err, oracle.ErrUnavailable), "got %v", err)
}
