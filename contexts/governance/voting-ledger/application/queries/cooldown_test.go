package queries_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"girthgov/contexts/governance/voting-ledger/adapters/memory"
	"girthgov/contexts/governance/voting-ledger/application/commands"
	"girthgov/contexts/governance/voting-ledger/application/queries"
	"girthgov/contexts/governance/voting-ledger/domain/entities"
	domainerrors "girthgov/contexts/governance/voting-ledger/domain/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type walletSessions struct{}

func (walletSessions) VerifySession(token string) (string, error) {
	if token == "" {
		return "", errors.New("missing token")
	}
	return "wallet-" + token, nil
}

func TestCheckCooldownTracksLastVote(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	store := memory.NewStore()
	store.SetNow(now)
	store.SetPoll(entities.PollSnapshot{
		PollID:      "poll-1",
		Status:      entities.PollStatusActive,
		VotingStart: now.Add(-time.Hour),
		VotingEnd:   now.Add(48 * time.Hour),
		OptionIDs:   []string{"opt-a"},
	})
	query := queries.CooldownQuery{Votes: store, Polls: store, Settings: store, Sessions: walletSessions{}, Clock: store}
	ctx := context.Background()

	state, err := query.CheckCooldown(ctx, "1", "poll-1")
	require.NoError(t, err)
	assert.True(t, state.CanVote)

	_, err = commands.CastVoteUseCase{
		Votes: store, Polls: store, Settings: store, Sessions: walletSessions{}, Clock: store, IDGen: store,
	}.Execute(ctx, commands.CastVoteCommand{SessionToken: "1", PollID: "poll-1", OptionID: "opt-a"})
	require.NoError(t, err)

	store.SetNow(now.Add(20 * time.Hour))
	state, err = query.CheckCooldown(ctx, "1", "poll-1")
	require.NoError(t, err)
	assert.False(t, state.CanVote)
	assert.Equal(t, 4, state.HoursRemaining)

	other, err := query.CheckCooldown(ctx, "2", "poll-1")
	require.NoError(t, err)
	assert.True(t, other.CanVote)

	wallet, err := queries.WalletQuery{Votes: store, Sessions: walletSessions{}}.Wallet(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, 1, wallet.Streak)
	assert.Equal(t, 12.0, wallet.RewardBalance)
}

func TestCheckCooldownRejectsUnknownPollAndSession(t *testing.T) {
	store := memory.NewStore()
	query := queries.CooldownQuery{Votes: store, Polls: store, Settings: store, Sessions: walletSessions{}}

	_, err := query.CheckCooldown(context.Background(), "1", "missing")
	assert.ErrorIs(t, err, domainerrors.ErrPollNotFound)

	_, err = query.CheckCooldown(context.Background(), "", "missing")
	assert.ErrorIs(t, err, domainerrors.ErrInvalidSession)
}
