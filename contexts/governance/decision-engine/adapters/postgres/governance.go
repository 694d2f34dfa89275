package postgresadapter

import (
	"context"
	"errors"
	"time"

	"girthgov/contexts/governance/decision-engine/domain/entities"
	domainerrors "girthgov/contexts/governance/decision-engine/domain/errors"
	"girthgov/contexts/governance/decision-engine/ports"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const settingsRowID = "global"

func (r *Repository) GetSettings(ctx context.Context) (entities.GovernanceSettings, bool, error) {
	var row settingsModel
	err := r.db.WithContext(ctx).Where("id = ?", settingsRowID).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.GovernanceSettings{}, false, nil
		}
		return entities.GovernanceSettings{}, false, r.logError("decision_repo_get_settings_failed", err)
	}
	return row.toEntity(), true, nil
}

func (r *Repository) SaveSettings(ctx context.Context, settings entities.GovernanceSettings, expectedVersion int64) (entities.GovernanceSettings, error) {
	row := settingsModelFromEntity(settings)
	row.Version = expectedVersion + 1
	row.UpdatedAt = time.Now().UTC()

	var result *gorm.DB
	if expectedVersion == 0 {
		result = r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&row)
	} else {
		result = r.db.WithContext(ctx).
			Model(&settingsModel{}).
			Where("id = ? AND version = ?", settingsRowID, expectedVersion).
			Updates(map[string]any{
				"confidence_threshold":  row.ConfidenceThreshold,
				"voting_duration_hours": row.VotingDurationHours,
				"vote_cooldown_hours":   row.VoteCooldownHours,
				"base_reward":           row.BaseReward,
				"min_context_severity":  row.MinContextSeverity,
				"poll_batch_size":       row.PollBatchSize,
				"version":               row.Version,
				"updated_at":            row.UpdatedAt,
			})
	}
	if result.Error != nil {
		return entities.GovernanceSettings{}, r.logError("decision_repo_save_settings_failed", result.Error,
			"expected_version", expectedVersion,
		)
	}
	if result.RowsAffected == 0 {
		return entities.GovernanceSettings{}, domainerrors.ErrVersionConflict
	}
	return row.toEntity(), nil
}

// GetBrake returns the zero brake at version 0 when none was ever written.
func (r *Repository) GetBrake(ctx context.Context) (entities.EmergencyBrake, error) {
	var row brakeModel
	err := r.db.WithContext(ctx).Where("id = ?", entities.EmergencyBrakeID).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.EmergencyBrake{}, nil
		}
		return entities.EmergencyBrake{}, r.logError("decision_repo_get_brake_failed", err)
	}
	return row.toEntity(), nil
}

func (r *Repository) SaveBrake(ctx context.Context, brake entities.EmergencyBrake, expectedVersion int64) (entities.EmergencyBrake, error) {
	row := brakeModelFromEntity(brake)
	row.Version = expectedVersion + 1

	var result *gorm.DB
	if expectedVersion == 0 {
		result = r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&row)
	} else {
		result = r.db.WithContext(ctx).
			Model(&brakeModel{}).
			Where("id = ? AND version = ?", entities.EmergencyBrakeID, expectedVersion).
			Updates(map[string]any{
				"active":       row.Active,
				"reason":       row.Reason,
				"activated_by": row.ActivatedBy,
				"activated_at": row.ActivatedAt,
				"expires_at":   row.ExpiresAt,
				"version":      row.Version,
			})
	}
	if result.Error != nil {
		return entities.EmergencyBrake{}, r.logError("decision_repo_save_brake_failed", result.Error,
			"expected_version", expectedVersion,
		)
	}
	if result.RowsAffected == 0 {
		return entities.EmergencyBrake{}, domainerrors.ErrVersionConflict
	}
	return row.toEntity(), nil
}

func (r *Repository) AppendAdminAction(ctx context.Context, action entities.AdminAction) error {
	row := adminActionModelFromEntity(action)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return r.logError("decision_repo_append_admin_action_failed", err,
			"action_id", row.ActionID,
			"action", row.Action,
		)
	}
	return nil
}

func (r *Repository) ListAdminActions(ctx context.Context, limit int) ([]entities.AdminAction, error) {
	var rows []adminActionModel
	if err := r.db.WithContext(ctx).Order("occurred_at DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, r.logError("decision_repo_list_admin_actions_failed", err)
	}
	items := make([]entities.AdminAction, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) RecordStageActivity(ctx context.Context, activity entities.StageActivity) error {
	row := stageActivityModelFromEntity(activity)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return r.logError("decision_repo_record_activity_failed", err, "stage", row.Stage)
	}
	return nil
}

func (r *Repository) ListStageActivity(ctx context.Context, since time.Time) ([]entities.StageActivity, error) {
	var rows []stageActivityModel
	if err := r.db.WithContext(ctx).
		Where("occurred_at >= ?", since.UTC()).
		Order("occurred_at ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("decision_repo_list_activity_failed", err, "since", since.UTC())
	}
	items := make([]entities.StageActivity, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) SavePatterns(ctx context.Context, patterns []entities.LearningPattern) error {
	if len(patterns) == 0 {
		return nil
	}
	rows := make([]patternModel, 0, len(patterns))
	for _, pattern := range patterns {
		row, err := patternModelFromEntity(pattern)
		if err != nil {
			return err
		}
		rows = append(rows, row)
	}
	if err := r.db.WithContext(ctx).Create(&rows).Error; err != nil {
		return r.logError("decision_repo_save_patterns_failed", err, "count", len(rows))
	}
	return nil
}

func (r *Repository) ListPatterns(ctx context.Context, limit int) ([]entities.LearningPattern, error) {
	var rows []patternModel
	if err := r.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, r.logError("decision_repo_list_patterns_failed", err)
	}
	items := make([]entities.LearningPattern, 0, len(rows))
	for _, row := range rows {
		item, err := row.toEntity()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

var (
	_ ports.SettingsRepository = (*Repository)(nil)
	_ ports.BrakeRepository    = (*Repository)(nil)
	_ ports.AdminLog           = (*Repository)(nil)
	_ ports.ActivityLog        = (*Repository)(nil)
)
