package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadPolicyDefaultsWhenPathEmpty(t *testing.T) {
	policy, err := LoadPolicy("")
	require.NoError(t, err)
	assert.Equal(t, DefaultPolicy(), policy)
}

func TestLoadPolicyParsesRulesAndFillsMissingSettings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	body := `
settings:
  confidence_threshold: 0.8
  voting_duration_hours: 72
autonomy_rules:
  - name: low-confidence-economy
    when: decision.category == "economy" && decision.confidence < 0.4
    level: admin_approval
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	policy, err := LoadPolicy(path)
	require.NoError(t, err)
	assert.InDelta(t, 0.8, policy.Settings.ConfidenceThreshold, 1e-9)
	assert.Equal(t, 72, policy.Settings.VotingDurationHours)
	assert.Equal(t, 24, policy.Settings.VoteCooldownHours)
	assert.Equal(t, 10, policy.Settings.BaseReward)
	require.Len(t, policy.Rules, 1)
	assert.Equal(t, "admin_approval", policy.Rules[0].Level)
}

func TestLoadPolicyRejectsIncompleteRule(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte("autonomy_rules:\n  - name: broken\n    level: full_autonomous\n"), 0o600))

	_, err := LoadPolicy(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")
}

func TestEnvHelpersFallBackOnGarbage(t *testing.T) {
	t.Setenv("GIRTHGOV_TEST_INT", "abc")
	t.Setenv("GIRTHGOV_TEST_DURATION", "-5s")
	t.Setenv("GIRTHGOV_TEST_BOOL", "maybe")

	assert.Equal(t, 7, envInt("GIRTHGOV_TEST_INT", 7))
	assert.Equal(t, 3, int(envDuration("GIRTHGOV_TEST_DURATION", 3).Nanoseconds()))
	assert.True(t, envBool("GIRTHGOV_TEST_BOOL", true))
}
