package workers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	application "girthgov/contexts/governance/decision-engine/application"
	"girthgov/contexts/governance/decision-engine/domain/entities"
	domainerrors "girthgov/contexts/governance/decision-engine/domain/errors"
	"girthgov/contexts/governance/decision-engine/domain/services"
	"girthgov/contexts/governance/decision-engine/ports"
)

const (
	DefaultLearningWindow   = 7 * 24 * time.Hour
	DefaultLearningInterval = 24 * time.Hour
)

// LearningScribe mines recent outcomes into patterns and feeds validated
// config changes back into governance settings. A cycle runs at most once per
// Interval, measured from the newest stored pattern, so a short pipeline tick
// cannot re-apply the same step over the same window.
type LearningScribe struct {
	Learning ports.LearningRepository
	Activity ports.ActivityLog
	Settings ports.SettingsRepository
	AdminLog ports.AdminLog
	Outbox   ports.OutboxRepository
	Analyst  ports.PatternAnalyst
	Clock    ports.Clock
	IDGen    ports.IDGenerator
	Defaults entities.GovernanceSettings
	Window   time.Duration
	Interval time.Duration
	Logger   *slog.Logger
}

type LearningOutcome struct {
	Outcomes int
	Patterns []entities.LearningPattern
	Stages   []entities.StagePerformance
	Applied  []entities.ConfigChange
	Rejected int
	Fallback bool
	Skipped  bool
	Settings entities.GovernanceSettings
}

func (w LearningScribe) RunOnce(ctx context.Context) (LearningOutcome, error) {
	logger := application.ResolveLogger(w.Logger)
	window := w.Window
	if window <= 0 {
		window = DefaultLearningWindow
	}
	interval := w.Interval
	if interval <= 0 {
		interval = DefaultLearningInterval
	}
	now := w.now()
	since := now.Add(-window)

	latest, err := w.Learning.ListPatterns(ctx, 1)
	if err != nil {
		return LearningOutcome{}, err
	}
	if len(latest) > 0 && now.Sub(latest[0].CreatedAt) < interval {
		logger.Debug("learning cycle not due",
			"event", "learning_scribe_not_due",
			"module", "governance/decision-engine",
			"layer", "worker",
			"last_cycle", latest[0].CreatedAt,
			"interval", interval.String(),
		)
		return LearningOutcome{Skipped: true}, nil
	}

	outcomes, err := w.Learning.ListOutcomesSince(ctx, since)
	if err != nil {
		logger.Error("learning outcome load failed",
			"event", "learning_scribe_load_failed",
			"module", "governance/decision-engine",
			"layer", "worker",
			"error", err.Error(),
		)
		return LearningOutcome{}, err
	}
	var activity []entities.StageActivity
	if w.Activity != nil {
		activity, err = w.Activity.ListStageActivity(ctx, since)
		if err != nil {
			return LearningOutcome{}, err
		}
	}
	settings, err := application.LoadSettings(ctx, w.Settings, w.Defaults)
	if err != nil {
		return LearningOutcome{}, err
	}

	result := LearningOutcome{
		Outcomes: len(outcomes),
		Stages:   services.SummarizeStages(activity),
		Settings: settings,
	}
	if len(outcomes) == 0 {
		logger.Debug("learning scribe found no executed decisions",
			"event", "learning_scribe_noop",
			"module", "governance/decision-engine",
			"layer", "worker",
		)
		return result, nil
	}

	brief := entities.LearningBrief{
		WindowStart: since,
		WindowEnd:   now,
		Categories:  services.SummarizeCategories(outcomes),
		Stages:      result.Stages,
		Settings:    settings,
	}
	report, fallback := w.mine(ctx, logger, brief, now)
	result.Fallback = fallback

	patterns := make([]entities.LearningPattern, 0, len(report.Patterns))
	for _, pattern := range report.Patterns {
		if !pattern.Type.Valid() || strings.TrimSpace(pattern.Description) == "" {
			continue
		}
		id, err := w.IDGen.NewID(ctx)
		if err != nil {
			return result, err
		}
		pattern.PatternID = id
		pattern.CreatedAt = now
		pattern.Fallback = pattern.Fallback || fallback
		patterns = append(patterns, pattern)
	}
	if len(patterns) > 0 {
		if err := w.Learning.SavePatterns(ctx, patterns); err != nil {
			logger.Error("learning pattern persist failed",
				"event", "learning_scribe_persist_failed",
				"module", "governance/decision-engine",
				"layer", "worker",
				"error", err.Error(),
			)
			return result, err
		}
	}
	result.Patterns = patterns
	if len(patterns) == 0 {
		// Without a stored pattern the cycle leaves no mark, so nothing is applied.
		result.Rejected = len(report.ConfigChanges)
		return result, nil
	}

	applied, next, rejected := w.plan(logger, report.ConfigChanges, settings)
	result.Rejected = rejected
	if len(applied) > 0 {
		saved, err := w.Settings.SaveSettings(ctx, next, settings.Version)
		if errors.Is(err, domainerrors.ErrVersionConflict) {
			logger.Warn("settings changed concurrently; config changes deferred",
				"event", "learning_scribe_settings_conflict",
				"module", "governance/decision-engine",
				"layer", "worker",
				"expected_version", settings.Version,
			)
			return result, nil
		}
		if err != nil {
			return result, err
		}
		result.Settings = saved
		result.Applied = applied
		if err := w.recordChanges(ctx, applied, now); err != nil {
			return result, err
		}
	}

	logger.Info("learning cycle completed",
		"event", "learning_scribe_completed",
		"module", "governance/decision-engine",
		"layer", "worker",
		"outcomes", len(outcomes),
		"patterns", len(patterns),
		"config_changes", len(result.Applied),
		"rejected_changes", rejected,
		"fallback", fallback,
	)
	return result, nil
}

func (w LearningScribe) mine(
	ctx context.Context,
	logger *slog.Logger,
	brief entities.LearningBrief,
	now time.Time,
) (entities.PatternReport, bool) {
	if w.Analyst != nil {
		report, err := w.Analyst.MinePatterns(ctx, brief)
		if err == nil && len(report.Patterns) > 0 {
			return report, false
		}
		attrs := []any{
			"event", "learning_scribe_fallback",
			"module", "governance/decision-engine",
			"layer", "worker",
		}
		if err != nil {
			attrs = append(attrs, "error", err.Error())
		}
		logger.Warn("pattern analysis unavailable; using counts", attrs...)
	}
	return services.FallbackReport(brief.Categories, brief.Settings, now), true
}

// plan validates changes in order. Only the first change per knob is kept.
func (w LearningScribe) plan(
	logger *slog.Logger,
	changes []entities.ConfigChange,
	settings entities.GovernanceSettings,
) ([]entities.ConfigChange, entities.GovernanceSettings, int) {
	next := settings
	applied := make([]entities.ConfigChange, 0, len(changes))
	seen := map[entities.ConfigKnob]bool{}
	rejected := 0
	for _, change := range changes {
		if seen[change.Knob] {
			rejected++
			continue
		}
		validated, err := services.ValidateConfigChange(change, settings, true)
		if err != nil {
			rejected++
			logger.Warn("config change rejected",
				"event", "learning_scribe_change_rejected",
				"module", "governance/decision-engine",
				"layer", "worker",
				"knob", string(change.Knob),
				"to", change.To,
				"error", err.Error(),
			)
			continue
		}
		if validated.To == validated.From {
			continue
		}
		seen[change.Knob] = true
		next = services.ApplyConfigChange(next, validated)
		applied = append(applied, validated)
	}
	return applied, next, rejected
}

func (w LearningScribe) recordChanges(ctx context.Context, applied []entities.ConfigChange, now time.Time) error {
	for _, change := range applied {
		payload, err := json.Marshal(map[string]any{
			"knob":   string(change.Knob),
			"from":   change.From,
			"to":     change.To,
			"reason": change.Reason,
		})
		if err != nil {
			return err
		}
		if w.AdminLog != nil {
			actionID, err := w.IDGen.NewID(ctx)
			if err != nil {
				return err
			}
			if err := w.AdminLog.AppendAdminAction(ctx, entities.AdminAction{
				ActionID:   actionID,
				ActorID:    entities.SystemActor,
				Action:     entities.ActionAutoConfig,
				TargetID:   string(change.Knob),
				Payload:    payload,
				OccurredAt: now,
			}); err != nil {
				return err
			}
		}
		if w.Outbox != nil {
			eventID, err := w.IDGen.NewID(ctx)
			if err != nil {
				return err
			}
			event, err := application.NewEnvelope(eventID, application.EventConfigChanged, "knob", string(change.Knob), now, map[string]any{
				"knob":   string(change.Knob),
				"from":   change.From,
				"to":     change.To,
				"reason": change.Reason,
				"actor":  entities.SystemActor,
			})
			if err != nil {
				return err
			}
			if err := w.Outbox.AppendOutbox(ctx, event); err != nil {
				return err
			}
		}
	}
	return nil
}

func (w LearningScribe) now() time.Time {
	if w.Clock == nil {
		return time.Now().UTC()
	}
	return w.Clock.Now().UTC()
}
