package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Policy is the governance policy file. Settings seed the versioned settings
// row on first boot; rules override the autonomy table.
type Policy struct {
	Settings PolicySettings `yaml:"settings"`
	Rules    []AutonomyRule `yaml:"autonomy_rules"`
}

type PolicySettings struct {
	ConfidenceThreshold float64 `yaml:"confidence_threshold"`
	VotingDurationHours int     `yaml:"voting_duration_hours"`
	VoteCooldownHours   int     `yaml:"vote_cooldown_hours"`
	BaseReward          int     `yaml:"base_reward"`
	MinContextSeverity  int     `yaml:"min_context_severity"`
	MetricDecayAlpha    float64 `yaml:"metric_decay_alpha"`
	EscalationSeverity  float64 `yaml:"escalation_severity"`
}

// AutonomyRule is a CEL boolean expression over `decision` (category,
// severity, confidence) with the level it assigns when it matches.
type AutonomyRule struct {
	Name  string `yaml:"name"`
	When  string `yaml:"when"`
	Level string `yaml:"level"`
}

func DefaultPolicy() Policy {
	return Policy{
		Settings: PolicySettings{
			ConfidenceThreshold: 0.7,
			VotingDurationHours: 48,
			VoteCooldownHours:   24,
			BaseReward:          10,
			MinContextSeverity:  5,
			MetricDecayAlpha:    0.6,
			EscalationSeverity:  5,
		},
	}
}

// LoadPolicy reads the YAML policy at path. An empty path yields the defaults;
// zero-valued settings in the file fall back to their defaults.
func LoadPolicy(path string) (Policy, error) {
	policy := DefaultPolicy()
	if strings.TrimSpace(path) == "" {
		return policy, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return Policy{}, fmt.Errorf("read governance policy: %w", err)
	}
	var parsed Policy
	if err := yaml.Unmarshal(raw, &parsed); err != nil {
		return Policy{}, fmt.Errorf("parse governance policy: %w", err)
	}

	defaults := policy.Settings
	policy.Settings = parsed.Settings
	if policy.Settings.ConfidenceThreshold <= 0 {
		policy.Settings.ConfidenceThreshold = defaults.ConfidenceThreshold
	}
	if policy.Settings.VotingDurationHours <= 0 {
		policy.Settings.VotingDurationHours = defaults.VotingDurationHours
	}
	if policy.Settings.VoteCooldownHours <= 0 {
		policy.Settings.VoteCooldownHours = defaults.VoteCooldownHours
	}
	if policy.Settings.BaseReward <= 0 {
		policy.Settings.BaseReward = defaults.BaseReward
	}
	if policy.Settings.MinContextSeverity <= 0 {
		policy.Settings.MinContextSeverity = defaults.MinContextSeverity
	}
	if policy.Settings.MetricDecayAlpha <= 0 || policy.Settings.MetricDecayAlpha > 1 {
		policy.Settings.MetricDecayAlpha = defaults.MetricDecayAlpha
	}
	if policy.Settings.EscalationSeverity <= 0 {
		policy.Settings.EscalationSeverity = defaults.EscalationSeverity
	}

	for i, rule := range parsed.Rules {
		if strings.TrimSpace(rule.When) == "" || strings.TrimSpace(rule.Level) == "" {
			return Policy{}, errors.New("autonomy rule " + ruleLabel(rule, i) + " requires when and level")
		}
	}
	policy.Rules = parsed.Rules
	return policy, nil
}

func ruleLabel(rule AutonomyRule, index int) string {
	if strings.TrimSpace(rule.Name) != "" {
		return rule.Name
	}
	return fmt.Sprintf("#%d", index)
}
