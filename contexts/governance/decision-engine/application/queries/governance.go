package queries

import (
	"context"
	"strings"
	"time"

	application "girthgov/contexts/governance/decision-engine/application"
	"girthgov/contexts/governance/decision-engine/domain/entities"
	domainerrors "girthgov/contexts/governance/decision-engine/domain/errors"
	"girthgov/contexts/governance/decision-engine/domain/services"
	"girthgov/contexts/governance/decision-engine/ports"
)

type GovernanceQueries struct {
	Decisions    ports.DecisionRepository
	Analyses     ports.AnalysisRepository
	Brakes       ports.BrakeRepository
	SettingsRepo ports.SettingsRepository
	AdminLog     ports.AdminLog
	Learning     ports.LearningRepository
	Activity     ports.ActivityLog
	Clock        ports.Clock
	Defaults     entities.GovernanceSettings
}

func (q GovernanceQueries) Decision(ctx context.Context, decisionID string) (entities.Decision, error) {
	decisionID = strings.TrimSpace(decisionID)
	if decisionID == "" {
		return entities.Decision{}, domainerrors.ErrDecisionNotFound
	}
	return q.Decisions.GetDecision(ctx, decisionID)
}

// PollAnalysis returns the arbiter's result for a poll, if it has one.
func (q GovernanceQueries) PollAnalysis(ctx context.Context, pollID string) (entities.AnalysisResult, bool, error) {
	return q.Analyses.GetAnalysis(ctx, strings.TrimSpace(pollID))
}

func (q GovernanceQueries) Brake(ctx context.Context) (entities.EmergencyBrake, error) {
	return q.Brakes.GetBrake(ctx)
}

func (q GovernanceQueries) Settings(ctx context.Context) (entities.GovernanceSettings, error) {
	return application.LoadSettings(ctx, q.SettingsRepo, q.Defaults)
}

func (q GovernanceQueries) AdminActions(ctx context.Context, limit int) ([]entities.AdminAction, error) {
	return q.AdminLog.ListAdminActions(ctx, clampLimit(limit))
}

func (q GovernanceQueries) Patterns(ctx context.Context, limit int) ([]entities.LearningPattern, error) {
	return q.Learning.ListPatterns(ctx, clampLimit(limit))
}

// StagePerformance summarizes stage runs over the trailing window.
func (q GovernanceQueries) StagePerformance(ctx context.Context, window time.Duration) ([]entities.StagePerformance, error) {
	if window <= 0 {
		window = 7 * 24 * time.Hour
	}
	now := time.Now().UTC()
	if q.Clock != nil {
		now = q.Clock.Now().UTC()
	}
	activity, err := q.Activity.ListStageActivity(ctx, now.Add(-window))
	if err != nil {
		return nil, err
	}
	return services.SummarizeStages(activity), nil
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > 500 {
		return 100
	}
	return limit
}
