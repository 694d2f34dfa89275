package commands_test

import (
	"context"
	"testing"
	"time"

	"girthgov/contexts/governance/decision-engine/adapters/memory"
	"girthgov/contexts/governance/decision-engine/application/commands"
	"girthgov/contexts/governance/decision-engine/domain/entities"
	domainerrors "girthgov/contexts/governance/decision-engine/domain/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

func newAdmin(t *testing.T) (commands.AdminUseCase, *memory.Store) {
	t.Helper()
	store := memory.NewStore(nil)
	store.SetNow(now)
	store.SetPoll(entities.Poll{
		PollID:     "poll-1",
		DecisionID: "dec-1",
		Title:      "Double the slap reward?",
		Status:     entities.PollActive,
		VotingEnd:  now.Add(24 * time.Hour),
		Options: []entities.PollOption{
			{OptionID: "opt-a", PollID: "poll-1", Position: 0, Text: "Yes"},
			{OptionID: "opt-b", PollID: "poll-1", Position: 1, Text: "No"},
		},
	})
	return commands.AdminUseCase{
		Polls:     store,
		Decisions: store,
		Brakes:    store,
		Settings:  store,
		AdminLog:  store,
		Outbox:    store,
		Clock:     store,
		IDGen:     store,
		Defaults:  entities.DefaultGovernanceSettings(),
	}, store
}

func TestOverridePollPauseResumeCancel(t *testing.T) {
	admin, store := newAdmin(t)
	ctx := context.Background()

	paused, err := admin.OverridePoll(ctx, "admin-1", "poll-1", commands.OverridePollCommand{Kind: entities.OverridePause, Reason: "review"})
	require.NoError(t, err)
	assert.Equal(t, entities.PollAdminPaused, paused.Status)

	_, err = admin.OverridePoll(ctx, "admin-1", "poll-1", commands.OverridePollCommand{Kind: entities.OverridePause})
	assert.ErrorIs(t, err, domainerrors.ErrInvalidTransition)

	resumed, err := admin.OverridePoll(ctx, "admin-1", "poll-1", commands.OverridePollCommand{Kind: entities.OverrideResume})
	require.NoError(t, err)
	assert.Equal(t, entities.PollActive, resumed.Status)

	cancelled, err := admin.OverridePoll(ctx, "admin-1", "poll-1", commands.OverridePollCommand{Kind: entities.OverrideCancel, Reason: "duplicate"})
	require.NoError(t, err)
	assert.Equal(t, entities.PollAdminCancelled, cancelled.Status)

	_, err = admin.ApprovePoll(ctx, "admin-1", "poll-1", "")
	assert.ErrorIs(t, err, domainerrors.ErrInvalidTransition)

	actions, err := store.ListAdminActions(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, actions, 3)
	assert.Equal(t, []string{"poll.status_changed", "poll.status_changed", "poll.status_changed"}, store.OutboxEventTypes())
}

func TestOverridePollModifyKeepsStatus(t *testing.T) {
	admin, _ := newAdmin(t)
	ctx := context.Background()

	title := "  Triple the slap reward?  "
	end := now.Add(72 * time.Hour)
	modified, err := admin.OverridePoll(ctx, "admin-1", "poll-1", commands.OverridePollCommand{
		Kind:      entities.OverrideModify,
		Title:     &title,
		VotingEnd: &end,
	})
	require.NoError(t, err)
	assert.Equal(t, entities.PollActive, modified.Status)
	assert.Equal(t, "Triple the slap reward?", modified.Title)
	assert.True(t, modified.VotingEnd.Equal(end))

	past := now.Add(-time.Minute)
	_, err = admin.OverridePoll(ctx, "admin-1", "poll-1", commands.OverridePollCommand{Kind: entities.OverrideModify, VotingEnd: &past})
	assert.ErrorIs(t, err, domainerrors.ErrInvalidOverride)

	_, err = admin.OverridePoll(ctx, "admin-1", "poll-1", commands.OverridePollCommand{Kind: entities.OverrideModify})
	assert.ErrorIs(t, err, domainerrors.ErrInvalidOverride)

	_, err = admin.OverridePoll(ctx, "admin-1", "poll-1", commands.OverridePollCommand{Kind: "explode"})
	assert.ErrorIs(t, err, domainerrors.ErrInvalidOverride)
}

func TestRejectPollRequiresReason(t *testing.T) {
	admin, _ := newAdmin(t)
	_, err := admin.RejectPoll(context.Background(), "admin-1", "poll-1", "  ")
	assert.ErrorIs(t, err, domainerrors.ErrInvalidAdminInput)

	rejected, err := admin.RejectPoll(context.Background(), "admin-1", "poll-1", "off-topic")
	require.NoError(t, err)
	assert.Equal(t, entities.PollAdminCancelled, rejected.Status)

	_, err = admin.RejectPoll(context.Background(), "admin-1", "missing", "off-topic")
	assert.ErrorIs(t, err, domainerrors.ErrPollNotFound)
}

func TestSetEmergencyBrakeValidatesAndVersions(t *testing.T) {
	admin, store := newAdmin(t)
	ctx := context.Background()

	_, err := admin.SetEmergencyBrake(ctx, "admin-1", commands.BrakeCommand{Engage: true, Duration: time.Hour})
	assert.ErrorIs(t, err, domainerrors.ErrInvalidBrakeRequest)
	_, err = admin.SetEmergencyBrake(ctx, "admin-1", commands.BrakeCommand{Engage: true, Reason: "exploit", Duration: 8 * 24 * time.Hour})
	assert.ErrorIs(t, err, domainerrors.ErrInvalidBrakeRequest)

	engaged, err := admin.SetEmergencyBrake(ctx, "admin-1", commands.BrakeCommand{Engage: true, Reason: "exploit", Duration: 6 * time.Hour})
	require.NoError(t, err)
	assert.True(t, engaged.Engaged(now))
	assert.False(t, engaged.Engaged(now.Add(6*time.Hour)))
	assert.Equal(t, int64(1), engaged.Version)

	released, err := admin.SetEmergencyBrake(ctx, "admin-2", commands.BrakeCommand{Reason: "patched"})
	require.NoError(t, err)
	assert.False(t, released.Engaged(now))
	assert.Nil(t, released.ExpiresAt)
	assert.Equal(t, int64(2), released.Version)

	assert.Equal(t, []string{"governance.brake_changed", "governance.brake_changed"}, store.OutboxEventTypes())
}

func TestUpdateConfigIsRangeCheckedNotStepLimited(t *testing.T) {
	admin, _ := newAdmin(t)
	ctx := context.Background()

	settings, err := admin.UpdateConfig(ctx, "admin-1", "voting_duration_hours", 96)
	require.NoError(t, err)
	assert.Equal(t, 96, settings.VotingDurationHours)
	assert.Equal(t, int64(1), settings.Version)

	_, err = admin.UpdateConfig(ctx, "admin-1", "confidence_threshold", 0.99)
	assert.ErrorIs(t, err, domainerrors.ErrInvalidConfigChange)
	_, err = admin.UpdateConfig(ctx, "admin-1", "reward_multiplier", 2)
	assert.ErrorIs(t, err, domainerrors.ErrInvalidConfigChange)
	_, err = admin.UpdateConfig(ctx, "admin-1", "voting_duration_hours", 36.5)
	assert.ErrorIs(t, err, domainerrors.ErrInvalidConfigChange)
}

func TestScoreDecisionBounds(t *testing.T) {
	admin, store := newAdmin(t)
	store.SetDecision(entities.Decision{DecisionID: "dec-1", Category: entities.CategoryEconomy, Executed: true, CreatedAt: now})

	_, err := admin.ScoreDecision(context.Background(), "admin-1", "dec-1", 1.2)
	assert.ErrorIs(t, err, domainerrors.ErrInvalidScore)

	scored, err := admin.ScoreDecision(context.Background(), "admin-1", "dec-1", 0.8)
	require.NoError(t, err)
	require.NotNil(t, scored.SuccessScore)
	assert.InDelta(t, 0.8, *scored.SuccessScore, 1e-9)

	_, err = admin.ScoreDecision(context.Background(), "admin-1", "dec-404", 0.5)
	assert.ErrorIs(t, err, domainerrors.ErrDecisionNotFound)
}
