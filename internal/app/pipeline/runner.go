// Package pipeline runs the governance stages: one stage at a time per
// lease, with each run counted in the stage metrics and the activity log
// that feeds the learning loop.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"girthgov/contexts/governance/decision-engine/application/commands"
	domainerrors "girthgov/contexts/governance/decision-engine/domain/errors"
	"girthgov/internal/platform/coordination"
	"girthgov/internal/platform/observability"
)

// StageFunc runs one pass of a stage and reports how many items it touched
// and its confidence in the result.
type StageFunc func(ctx context.Context) (items int, confidence float64, err error)

type Report struct {
	Stage      string  `json:"stage"`
	Skipped    bool    `json:"skipped"`
	Items      int     `json:"items"`
	Confidence float64 `json:"confidence"`
	LatencyMs  int64   `json:"latency_ms"`
	Error      string  `json:"error,omitempty"`
}

type Runner struct {
	mu     sync.RWMutex
	stages map[string]StageFunc
	order  []string

	Lease    coordination.Lease
	Metrics  *observability.StageMetrics
	Activity *commands.RecordStageActivityUseCase
	Logger   *slog.Logger
}

func NewRunner(lease coordination.Lease, metrics *observability.StageMetrics, activity *commands.RecordStageActivityUseCase, logger *slog.Logger) *Runner {
	if lease == nil {
		lease = coordination.NewMemoryLease()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		stages:   make(map[string]StageFunc),
		Lease:    lease,
		Metrics:  metrics,
		Activity: activity,
		Logger:   logger,
	}
}

// Register adds a stage; RunAll runs stages in registration order.
func (r *Runner) Register(name string, fn StageFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	name = strings.TrimSpace(name)
	if _, exists := r.stages[name]; !exists {
		r.order = append(r.order, name)
	}
	r.stages[name] = fn
}

func (r *Runner) Stages() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := append([]string(nil), r.order...)
	sort.Strings(names)
	return names
}

// RunStage runs one stage under its lease. A stage whose lease is held
// elsewhere is reported as skipped, not failed.
func (r *Runner) RunStage(ctx context.Context, name string) (Report, error) {
	name = strings.TrimSpace(name)
	r.mu.RLock()
	fn, ok := r.stages[name]
	r.mu.RUnlock()
	if !ok {
		return Report{}, domainerrors.ErrUnknownStage
	}

	release, err := r.Lease.Acquire(ctx, name)
	if err != nil {
		if errors.Is(err, coordination.ErrLeaseHeld) {
			r.Metrics.RecordSkipped(ctx, name)
			r.Logger.Info("pipeline stage skipped",
				"event", "pipeline_stage_skipped",
				"module", "internal/app/pipeline",
				"layer", "platform",
				"stage", name,
			)
			return Report{Stage: name, Skipped: true}, nil
		}
		return Report{}, err
	}
	defer func() {
		_ = release(context.WithoutCancel(ctx))
	}()

	started := time.Now()
	items, confidence, runErr := fn(ctx)
	elapsed := time.Since(started)
	r.Metrics.Record(ctx, name, elapsed, runErr)

	report := Report{
		Stage:      name,
		Items:      items,
		Confidence: confidence,
		LatencyMs:  elapsed.Milliseconds(),
	}
	if runErr != nil {
		report.Error = runErr.Error()
		r.Logger.Error("pipeline stage failed",
			"event", "pipeline_stage_failed",
			"module", "internal/app/pipeline",
			"layer", "platform",
			"stage", name,
			"error", runErr.Error(),
		)
	} else {
		r.Logger.Debug("pipeline stage completed",
			"event", "pipeline_stage_completed",
			"module", "internal/app/pipeline",
			"layer", "platform",
			"stage", name,
			"items", items,
			"latency_ms", report.LatencyMs,
		)
	}

	if r.Activity != nil {
		if err := r.Activity.Execute(ctx, commands.RecordStageActivityCommand{
			Stage:      name,
			Success:    runErr == nil,
			Confidence: confidence,
			Latency:    elapsed,
		}); err != nil && runErr == nil {
			return report, err
		}
	}
	return report, runErr
}

// RunAll runs every stage once. A failing stage does not stop the others.
func (r *Runner) RunAll(ctx context.Context) []Report {
	r.mu.RLock()
	order := append([]string(nil), r.order...)
	r.mu.RUnlock()

	reports := make([]Report, 0, len(order))
	for _, name := range order {
		if ctx.Err() != nil {
			break
		}
		report, err := r.RunStage(ctx, name)
		if err != nil && report.Stage == "" {
			report = Report{Stage: name, Error: err.Error()}
		}
		reports = append(reports, report)
	}
	return reports
}

// Loop runs every stage on each tick until ctx is cancelled.
func (r *Runner) Loop(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	r.Logger.Info("pipeline loop started",
		"event", "pipeline_loop_started",
		"module", "internal/app/pipeline",
		"layer", "platform",
		"interval", interval.String(),
		"stages", len(r.order),
	)
	for {
		r.RunAll(ctx)
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
