package bootstrap

import (
	"context"
	"errors"
	"testing"
	"time"

	girthentities "girthgov/contexts/ecosystem-health/girth-index-service/domain/entities"
	ledgercommands "girthgov/contexts/governance/voting-ledger/application/commands"
	"girthgov/internal/app/pipeline"

	"github.com/stretchr/testify/require"
)

type staticSessions map[string]string

func (s staticSessions) VerifySession(token string) (string, error) {
	wallet, ok := s[token]
	if !ok {
		return "", errors.New("unknown session")
	}
	return wallet, nil
}

func TestInMemoryEscalationReachesCompletedPoll(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	app := BuildInMemory(staticSessions{"tok-a": "wallet-a", "tok-b": "wallet-b"}, nil)
	app.Girth.Store.SetNow(start)
	app.Decisions.Store.SetNow(start)
	app.Votes.Store.SetNow(start)

	require.NoError(t, app.Girth.Store.AppendDecisionContext(ctx, girthentities.DecisionContext{
		ContextID: "ctx-1",
		Type:      "resonance_fade",
		Severity:  6,
		CreatedAt: start,
	}))
	_, forwarded := app.Decisions.Store.Context("ctx-1")
	require.True(t, forwarded)

	report, err := app.Runner.RunStage(ctx, pipeline.StageSynthesis)
	require.NoError(t, err)
	require.Equal(t, 1, report.Items)
	require.InDelta(t, 0.3, report.Confidence, 1e-9)

	report, err = app.Runner.RunStage(ctx, pipeline.StageForge)
	require.NoError(t, err)
	require.Equal(t, 1, report.Items)

	polls, err := app.Decisions.Store.ListPolls(ctx, nil, 10)
	require.NoError(t, err)
	require.Len(t, polls, 1)
	poll := polls[0]
	require.Len(t, poll.Options, 3)

	for _, token := range []string{"tok-a", "tok-b"} {
		_, err := app.Votes.CastVote.Execute(ctx, ledgercommands.CastVoteCommand{
			SessionToken: token,
			PollID:       poll.PollID,
			OptionID:     poll.Options[1].OptionID,
		})
		require.NoError(t, err)
	}

	closeAt := poll.VotingEnd.Add(time.Minute)
	app.Decisions.Store.SetNow(closeAt)
	report, err = app.Runner.RunStage(ctx, pipeline.StageCompletion)
	require.NoError(t, err)
	require.Equal(t, 1, report.Items)

	completion, ok := app.Decisions.Store.Completion(poll.PollID)
	require.True(t, ok)
	require.Equal(t, 2, completion.TotalVotes)
	require.Equal(t, poll.Options[1].OptionID, completion.WinnerOptionID)

	report, err = app.Runner.RunStage(ctx, pipeline.StageVotingRelay)
	require.NoError(t, err)
	require.Equal(t, 2, report.Items)
}

func TestInMemoryRunnerRejectsUnknownStage(t *testing.T) {
	app := BuildInMemory(staticSessions{}, nil)
	_, err := app.Runner.RunStage(context.Background(), "nope")
	require.Error(t, err)
	require.Contains(t, app.Runner.Stages(), pipeline.StageLearning)
}
