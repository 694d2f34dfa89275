package bootstrap

import (
	"context"
	"errors"

	girthentities "girthgov/contexts/ecosystem-health/girth-index-service/domain/entities"
	decisionmemory "girthgov/contexts/governance/decision-engine/adapters/memory"
	decisionentities "girthgov/contexts/governance/decision-engine/domain/entities"
	decisiondomainerrors "girthgov/contexts/governance/decision-engine/domain/errors"
	decisionports "girthgov/contexts/governance/decision-engine/ports"
	ledgerentities "girthgov/contexts/governance/voting-ledger/domain/entities"
	ledgerdomainerrors "girthgov/contexts/governance/voting-ledger/domain/errors"
)

// The postgres adapters share tables across modules. These bridges give the
// in-memory composition the same read paths.

// ledgerPolls serves voting-ledger poll reads from decision-engine polls.
type ledgerPolls struct {
	polls decisionports.PollRepository
}

func (b ledgerPolls) GetPollForVoting(ctx context.Context, pollID string) (ledgerentities.PollSnapshot, error) {
	poll, err := b.polls.GetPoll(ctx, pollID)
	if err != nil {
		if errors.Is(err, decisiondomainerrors.ErrPollNotFound) {
			return ledgerentities.PollSnapshot{}, ledgerdomainerrors.ErrPollNotFound
		}
		return ledgerentities.PollSnapshot{}, err
	}
	optionIDs := make([]string, 0, len(poll.Options))
	for _, option := range poll.Options {
		optionIDs = append(optionIDs, option.OptionID)
	}
	return ledgerentities.PollSnapshot{
		PollID:        poll.PollID,
		Status:        poll.Status.String(),
		VotingStart:   poll.VotingStart,
		VotingEnd:     poll.VotingEnd,
		RewardPerVote: poll.RewardPerVote,
		OptionIDs:     optionIDs,
	}, nil
}

// ledgerSettings serves the cooldown and reward knobs from governance settings.
type ledgerSettings struct {
	settings decisionports.SettingsRepository
	defaults decisionentities.GovernanceSettings
}

func (b ledgerSettings) GetVotingSettings(ctx context.Context) (ledgerentities.VotingSettings, error) {
	current, found, err := b.settings.GetSettings(ctx)
	if err != nil {
		return ledgerentities.VotingSettings{}, err
	}
	if !found {
		current = b.defaults
	}
	return ledgerentities.VotingSettings{
		CooldownHours: current.VoteCooldownHours,
		BaseReward:    current.BaseReward,
	}, nil
}

// voteCounterFunc adapts the ledger tally to the decision-engine port.
type voteCounterFunc func(ctx context.Context, pollID string) (map[string]int, error)

func (f voteCounterFunc) CountVotes(ctx context.Context, pollID string) (map[string]int, error) {
	return f(ctx, pollID)
}

// forwardContexts hands girth-index escalations to the decision-engine store.
func forwardContexts(store *decisionmemory.Store) func(girthentities.DecisionContext) {
	return func(item girthentities.DecisionContext) {
		store.AddContext(decisionentities.DecisionContext{
			ContextID: item.ContextID,
			Type:      item.Type,
			Severity:  item.Severity,
			Snapshot:  item.Snapshot,
			CreatedAt: item.CreatedAt,
		})
	}
}
