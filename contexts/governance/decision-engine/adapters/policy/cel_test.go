package policyadapter

import (
	"context"
	"testing"

	"girthgov/contexts/governance/decision-engine/domain/entities"
	"girthgov/contexts/governance/decision-engine/ports"
	"girthgov/internal/platform/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCELRulesFirstMatchWins(t *testing.T) {
	rules, err := NewCELRules([]config.AutonomyRule{
		{Name: "low-confidence-economy", When: `decision.category == "economy" && decision.confidence < 0.5`, Level: "admin_approval"},
		{Name: "quiet-gameplay", When: `decision.category == "gameplay" && decision.severity <= 8`, Level: "full_autonomous"},
		{Name: "catch-all-economy", When: `decision.category == "economy"`, Level: "admin_notified"},
	})
	require.NoError(t, err)
	require.Equal(t, 3, rules.Len())

	level, matched, err := rules.Evaluate(context.Background(), ports.AutonomyRuleInput{
		Category:   entities.CategoryEconomy,
		Severity:   3,
		Confidence: 0.3,
	})
	require.NoError(t, err)
	assert.True(t, matched)
	assert.Equal(t, entities.AutonomyAdminApproval, level)

	level, matched, err = rules.Evaluate(context.Background(), ports.AutonomyRuleInput{
		Category:   entities.CategoryEconomy,
		Severity:   3,
		Confidence: 0.9,
	})
	require.NoError(t, err)
	assert.True(t, matched)
	assert.Equal(t, entities.AutonomyAdminNotified, level)
}

func TestCELRulesNoMatchDefersToTable(t *testing.T) {
	rules, err := NewCELRules([]config.AutonomyRule{
		{When: `decision.context_type.startsWith("metric_anomaly")`, Level: "admin_notified"},
	})
	require.NoError(t, err)

	_, matched, err := rules.Evaluate(context.Background(), ports.AutonomyRuleInput{
		Category:    entities.CategoryTechnical,
		Severity:    9,
		ContextType: "oracle_stability_collapse",
	})
	require.NoError(t, err)
	assert.False(t, matched)
}

func TestNewCELRulesRejectsBadPolicy(t *testing.T) {
	_, err := NewCELRules([]config.AutonomyRule{{When: `decision.severity + 1`, Level: "full_autonomous"}})
	assert.Error(t, err)

	_, err = NewCELRules([]config.AutonomyRule{{When: `true`, Level: "sometimes"}})
	assert.Error(t, err)
}
