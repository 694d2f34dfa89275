package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "girthgov/contexts/governance/decision-engine/application"
	"girthgov/contexts/governance/decision-engine/domain/entities"
	"girthgov/contexts/governance/decision-engine/ports"
)

type RecordStageActivityCommand struct {
	Stage      string
	Success    bool
	Confidence float64
	Latency    time.Duration
}

// RecordStageActivityUseCase logs one pipeline stage run for the learning loop.
type RecordStageActivityUseCase struct {
	Activity ports.ActivityLog
	Clock    ports.Clock
	IDGen    ports.IDGenerator
	Logger   *slog.Logger
}

func (uc RecordStageActivityUseCase) Execute(ctx context.Context, cmd RecordStageActivityCommand) error {
	if uc.Activity == nil || strings.TrimSpace(cmd.Stage) == "" {
		return nil
	}
	id, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	if uc.Clock != nil {
		now = uc.Clock.Now().UTC()
	}
	if err := uc.Activity.RecordStageActivity(ctx, entities.StageActivity{
		ActivityID: id,
		Stage:      strings.TrimSpace(cmd.Stage),
		Success:    cmd.Success,
		Confidence: cmd.Confidence,
		LatencyMs:  cmd.Latency.Milliseconds(),
		OccurredAt: now,
	}); err != nil {
		application.ResolveLogger(uc.Logger).Error("stage activity persist failed",
			"event", "stage_activity_persist_failed",
			"module", "governance/decision-engine",
			"layer", "application",
			"stage", cmd.Stage,
			"error", err.Error(),
		)
		return err
	}
	return nil
}
