package application

import (
	"context"

	"girthgov/contexts/governance/decision-engine/domain/entities"
	"girthgov/contexts/governance/decision-engine/ports"
)

// LoadSettings returns persisted settings, or defaults at version 0.
func LoadSettings(ctx context.Context, repo ports.SettingsRepository, defaults entities.GovernanceSettings) (entities.GovernanceSettings, error) {
	if repo == nil {
		return withDefaults(defaults), nil
	}
	settings, found, err := repo.GetSettings(ctx)
	if err != nil {
		return entities.GovernanceSettings{}, err
	}
	if !found {
		settings = defaults
		settings.Version = 0
	}
	return withDefaults(settings), nil
}

func withDefaults(settings entities.GovernanceSettings) entities.GovernanceSettings {
	fallback := entities.DefaultGovernanceSettings()
	if settings.ConfidenceThreshold <= 0 {
		settings.ConfidenceThreshold = fallback.ConfidenceThreshold
	}
	if settings.VotingDurationHours <= 0 {
		settings.VotingDurationHours = fallback.VotingDurationHours
	}
	if settings.VoteCooldownHours <= 0 {
		settings.VoteCooldownHours = fallback.VoteCooldownHours
	}
	if settings.BaseReward <= 0 {
		settings.BaseReward = fallback.BaseReward
	}
	if settings.MinContextSeverity <= 0 {
		settings.MinContextSeverity = fallback.MinContextSeverity
	}
	if settings.PollBatchSize <= 0 {
		settings.PollBatchSize = fallback.PollBatchSize
	}
	return settings
}
