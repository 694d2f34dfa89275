package application

import (
	"context"

	"girthgov/contexts/governance/voting-ledger/domain/entities"
	"girthgov/contexts/governance/voting-ledger/ports"
)

// LoadSettings reads voting settings, filling unset values with defaults.
func LoadSettings(ctx context.Context, reader ports.SettingsReader) (entities.VotingSettings, error) {
	defaults := entities.DefaultVotingSettings()
	if reader == nil {
		return defaults, nil
	}
	settings, err := reader.GetVotingSettings(ctx)
	if err != nil {
		return entities.VotingSettings{}, err
	}
	if settings.CooldownHours <= 0 {
		settings.CooldownHours = defaults.CooldownHours
	}
	if settings.BaseReward <= 0 {
		settings.BaseReward = defaults.BaseReward
	}
	return settings, nil
}
