package commands_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"girthgov/contexts/governance/voting-ledger/adapters/memory"
	"girthgov/contexts/governance/voting-ledger/application/commands"
	"girthgov/contexts/governance/voting-ledger/domain/entities"
	domainerrors "girthgov/contexts/governance/voting-ledger/domain/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var voteNow = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

type tokenSessions map[string]string

func (s tokenSessions) VerifySession(token string) (string, error) {
	wallet, ok := s[token]
	if !ok {
		return "", errors.New("unknown token")
	}
	return wallet, nil
}

func newCastVote(t *testing.T) (commands.CastVoteUseCase, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	store.SetNow(voteNow)
	store.SetPoll(entities.PollSnapshot{
		PollID:        "poll-1",
		Status:        entities.PollStatusActive,
		VotingStart:   voteNow.Add(-time.Hour),
		VotingEnd:     voteNow.Add(47 * time.Hour),
		RewardPerVote: 10,
		OptionIDs:     []string{"opt-a", "opt-b"},
	})
	store.SetPoll(entities.PollSnapshot{
		PollID:        "poll-2",
		Status:        entities.PollStatusActive,
		VotingStart:   voteNow.Add(-time.Hour),
		VotingEnd:     voteNow.Add(47 * time.Hour),
		RewardPerVote: 10,
		OptionIDs:     []string{"opt-c"},
	})
	return commands.CastVoteUseCase{
		Votes:       store,
		Polls:       store,
		Settings:    store,
		Sessions:    tokenSessions{"tok-1": "wallet-1"},
		Idempotency: store,
		Clock:       store,
		IDGen:       store,
	}, store
}

func TestCastVoteCreditsStreakReward(t *testing.T) {
	uc, store := newCastVote(t)
	ctx := context.Background()

	first, err := uc.Execute(ctx, commands.CastVoteCommand{SessionToken: "tok-1", PollID: "poll-1", OptionID: "opt-a"})
	require.NoError(t, err)
	assert.Equal(t, 1, first.Receipt.Streak)
	assert.Equal(t, 12.0, first.Receipt.RewardEarned)
	assert.False(t, first.Receipt.IsVoteChange)

	second, err := uc.Execute(ctx, commands.CastVoteCommand{SessionToken: "tok-1", PollID: "poll-2", OptionID: "opt-c"})
	require.NoError(t, err)
	assert.Equal(t, 2, second.Receipt.Streak)
	assert.Equal(t, 14.0, second.Receipt.RewardEarned)

	ledger, found, err := store.GetWallet(ctx, "wallet-1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 26.0, ledger.RewardBalance)
	assert.Equal(t, []string{"vote.cast", "vote.cast"}, store.OutboxEventTypes())
}

func TestCastVoteCooldownCarriesRemainingHours(t *testing.T) {
	uc, store := newCastVote(t)
	ctx := context.Background()

	_, err := uc.Execute(ctx, commands.CastVoteCommand{SessionToken: "tok-1", PollID: "poll-1", OptionID: "opt-a"})
	require.NoError(t, err)

	store.SetNow(voteNow.Add(90 * time.Minute))
	_, err = uc.Execute(ctx, commands.CastVoteCommand{SessionToken: "tok-1", PollID: "poll-1", OptionID: "opt-b"})
	require.ErrorIs(t, err, domainerrors.ErrCooldownActive)
	var cooldown *domainerrors.CooldownError
	require.ErrorAs(t, err, &cooldown)
	assert.Equal(t, 23, cooldown.HoursRemaining)
	assert.True(t, cooldown.CooldownExpiresAt.Equal(voteNow.Add(24*time.Hour)))
}

func TestCastVoteAfterCooldownSupersedesPreviousVote(t *testing.T) {
	uc, store := newCastVote(t)
	ctx := context.Background()

	first, err := uc.Execute(ctx, commands.CastVoteCommand{SessionToken: "tok-1", PollID: "poll-1", OptionID: "opt-a"})
	require.NoError(t, err)

	store.SetNow(voteNow.Add(25 * time.Hour))
	changed, err := uc.Execute(ctx, commands.CastVoteCommand{SessionToken: "tok-1", PollID: "poll-1", OptionID: "opt-b"})
	require.NoError(t, err)
	assert.True(t, changed.Receipt.IsVoteChange)
	require.NotNil(t, changed.Receipt.PreviousVoteID)
	assert.Equal(t, first.Receipt.VoteID, *changed.Receipt.PreviousVoteID)
	assert.Equal(t, 2, changed.Receipt.Streak)

	counts, err := store.CountVotes(ctx, "poll-1")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"opt-b": 1}, counts)
	assert.Equal(t, []string{"vote.cast", "vote.changed"}, store.OutboxEventTypes())
}

func TestCastVoteRejectsClosedOrInvalidTargets(t *testing.T) {
	uc, store := newCastVote(t)
	ctx := context.Background()

	_, err := uc.Execute(ctx, commands.CastVoteCommand{SessionToken: "tok-1", PollID: "poll-1", OptionID: "opt-c"})
	assert.ErrorIs(t, err, domainerrors.ErrOptionNotInPoll)

	_, err = uc.Execute(ctx, commands.CastVoteCommand{SessionToken: "bogus", PollID: "poll-1", OptionID: "opt-a"})
	assert.ErrorIs(t, err, domainerrors.ErrInvalidSession)

	_, err = uc.Execute(ctx, commands.CastVoteCommand{SessionToken: "tok-1", PollID: "missing", OptionID: "opt-a"})
	assert.ErrorIs(t, err, domainerrors.ErrPollNotFound)

	_, err = uc.Execute(ctx, commands.CastVoteCommand{SessionToken: "tok-1", PollID: "", OptionID: "opt-a"})
	assert.ErrorIs(t, err, domainerrors.ErrInvalidVoteInput)

	store.SetNow(voteNow.Add(48 * time.Hour))
	_, err = uc.Execute(ctx, commands.CastVoteCommand{SessionToken: "tok-1", PollID: "poll-1", OptionID: "opt-a"})
	assert.ErrorIs(t, err, domainerrors.ErrVotingWindowClosed)

	store.SetNow(voteNow)
	store.SetPoll(entities.PollSnapshot{
		PollID:      "poll-3",
		Status:      "admin_paused",
		VotingStart: voteNow.Add(-time.Hour),
		VotingEnd:   voteNow.Add(time.Hour),
		OptionIDs:   []string{"opt-x"},
	})
	_, err = uc.Execute(ctx, commands.CastVoteCommand{SessionToken: "tok-1", PollID: "poll-3", OptionID: "opt-x"})
	assert.ErrorIs(t, err, domainerrors.ErrPollNotActive)

	ledger, found, err := store.GetWallet(ctx, "wallet-1")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Zero(t, ledger.Streak)
}

func TestCastVoteReplaysIdempotencyKey(t *testing.T) {
	uc, store := newCastVote(t)
	ctx := context.Background()
	cmd := commands.CastVoteCommand{SessionToken: "tok-1", PollID: "poll-1", OptionID: "opt-a", IdempotencyKey: "req-1"}

	first, err := uc.Execute(ctx, cmd)
	require.NoError(t, err)
	replay, err := uc.Execute(ctx, cmd)
	require.NoError(t, err)
	assert.True(t, replay.Replayed)
	assert.Equal(t, first.Receipt.VoteID, replay.Receipt.VoteID)
	assert.Len(t, store.OutboxEventTypes(), 1)

	cmd.OptionID = "opt-b"
	_, err = uc.Execute(ctx, cmd)
	assert.ErrorIs(t, err, domainerrors.ErrIdempotencyConflict)
}

func TestCastVoteFallsBackToBaseReward(t *testing.T) {
	uc, store := newCastVote(t)
	store.SetSettings(entities.VotingSettings{CooldownHours: 12, BaseReward: 5})
	store.SetPoll(entities.PollSnapshot{
		PollID:      "poll-4",
		Status:      entities.PollStatusActive,
		VotingStart: voteNow.Add(-time.Hour),
		VotingEnd:   voteNow.Add(time.Hour),
		OptionIDs:   []string{"opt-y"},
	})

	result, err := uc.Execute(context.Background(), commands.CastVoteCommand{SessionToken: "tok-1", PollID: "poll-4", OptionID: "opt-y"})
	require.NoError(t, err)
	assert.Equal(t, 7.0, result.Receipt.RewardEarned)
}
