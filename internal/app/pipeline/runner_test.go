package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"girthgov/contexts/governance/decision-engine/adapters/memory"
	"girthgov/contexts/governance/decision-engine/application/commands"
	domainerrors "girthgov/contexts/governance/decision-engine/domain/errors"
	"girthgov/internal/platform/coordination"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRunner(t *testing.T) (*Runner, *memory.Store, *coordination.MemoryLease) {
	t.Helper()
	store := memory.NewStore(nil)
	store.SetNow(time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC))
	lease := coordination.NewMemoryLease()
	activity := &commands.RecordStageActivityUseCase{Activity: store, Clock: store, IDGen: store}
	return NewRunner(lease, nil, activity, nil), store, lease
}

func TestRunStageRecordsActivity(t *testing.T) {
	runner, store, _ := newTestRunner(t)
	runner.Register("scoring", func(context.Context) (int, float64, error) {
		return 3, 0.8, nil
	})

	report, err := runner.RunStage(context.Background(), "scoring")
	require.NoError(t, err)
	assert.Equal(t, 3, report.Items)
	assert.InDelta(t, 0.8, report.Confidence, 1e-9)

	activity, err := store.ListStageActivity(context.Background(), time.Time{})
	require.NoError(t, err)
	require.Len(t, activity, 1)
	assert.Equal(t, "scoring", activity[0].Stage)
	assert.True(t, activity[0].Success)
}

func TestRunStageFailureIsReportedAndRecorded(t *testing.T) {
	runner, store, _ := newTestRunner(t)
	runner.Register("forge", func(context.Context) (int, float64, error) {
		return 0, 1, errors.New("db down")
	})

	report, err := runner.RunStage(context.Background(), "forge")
	require.Error(t, err)
	assert.Equal(t, "forge", report.Stage)
	assert.Equal(t, "db down", report.Error)

	activity, err := store.ListStageActivity(context.Background(), time.Time{})
	require.NoError(t, err)
	require.Len(t, activity, 1)
	assert.False(t, activity[0].Success)
}

func TestRunStageSkipsWhenLeaseHeld(t *testing.T) {
	runner, store, lease := newTestRunner(t)
	calls := 0
	runner.Register("synthesis", func(context.Context) (int, float64, error) {
		calls++
		return 1, 1, nil
	})
	release, err := lease.Acquire(context.Background(), "synthesis")
	require.NoError(t, err)

	report, err := runner.RunStage(context.Background(), "synthesis")
	require.NoError(t, err)
	assert.True(t, report.Skipped)
	assert.Zero(t, calls)

	require.NoError(t, release(context.Background()))
	report, err = runner.RunStage(context.Background(), "synthesis")
	require.NoError(t, err)
	assert.False(t, report.Skipped)
	assert.Equal(t, 1, calls)

	activity, err := store.ListStageActivity(context.Background(), time.Time{})
	require.NoError(t, err)
	assert.Len(t, activity, 1)
}

func TestRunStageUnknown(t *testing.T) {
	runner, _, _ := newTestRunner(t)
	_, err := runner.RunStage(context.Background(), "missing")
	require.ErrorIs(t, err, domainerrors.ErrUnknownStage)
}

func TestRunAllContinuesPastFailures(t *testing.T) {
	runner, _, _ := newTestRunner(t)
	var order []string
	runner.Register("b", func(context.Context) (int, float64, error) {
		order = append(order, "b")
		return 0, 1, errors.New("boom")
	})
	runner.Register("a", func(context.Context) (int, float64, error) {
		order = append(order, "a")
		return 1, 1, nil
	})

	reports := runner.RunAll(context.Background())
	require.Len(t, reports, 2)
	assert.Equal(t, []string{"b", "a"}, order)
	assert.Equal(t, "boom", reports[0].Error)
	assert.Empty(t, reports[1].Error)
	assert.Equal(t, []string{"a", "b"}, runner.Stages())
}

func TestMeanIsOneWhenIdle(t *testing.T) {
	assert.Equal(t, 1.0, mean(nil))
	assert.InDelta(t, 0.5, mean([]float64{0.3, 0.7}), 1e-9)
}
