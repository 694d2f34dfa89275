package workers_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"girthgov/contexts/governance/voting-ledger/adapters/memory"
	"girthgov/contexts/governance/voting-ledger/application/commands"
	"girthgov/contexts/governance/voting-ledger/application/workers"
	"girthgov/contexts/governance/voting-ledger/domain/entities"
	"girthgov/contexts/governance/voting-ledger/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedSession struct{}

func (fixedSession) VerifySession(string) (string, error) { return "wallet-1", nil }

type capturePublisher struct {
	topics []string
	fail   bool
}

func (p *capturePublisher) Publish(_ context.Context, topic string, _ ports.EventEnvelope) error {
	if p.fail {
		return errors.New("broker down")
	}
	p.topics = append(p.topics, topic)
	return nil
}

func seededStore(t *testing.T) *memory.Store {
	t.Helper()
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	store := memory.NewStore()
	store.SetNow(now)
	store.SetPoll(entities.PollSnapshot{
		PollID:      "poll-1",
		Status:      entities.PollStatusActive,
		VotingStart: now.Add(-time.Hour),
		VotingEnd:   now.Add(time.Hour),
		OptionIDs:   []string{"opt-a"},
	})
	_, err := commands.CastVoteUseCase{
		Votes: store, Polls: store, Settings: store, Sessions: fixedSession{}, Clock: store, IDGen: store,
	}.Execute(context.Background(), commands.CastVoteCommand{PollID: "poll-1", OptionID: "opt-a"})
	require.NoError(t, err)
	return store
}

func TestOutboxRelayPublishesOnce(t *testing.T) {
	store := seededStore(t)
	publisher := &capturePublisher{}
	relay := workers.OutboxRelay{Outbox: store, Publisher: publisher, Clock: store}

	count, err := relay.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, []string{"vote.cast"}, publisher.topics)

	count, err = relay.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestOutboxRelayKeepsRowOnPublishFailure(t *testing.T) {
	store := seededStore(t)
	relay := workers.OutboxRelay{Outbox: store, Publisher: &capturePublisher{fail: true}, Clock: store}

	_, err := relay.RunOnce(context.Background())
	require.Error(t, err)

	pending, err := store.ListPendingOutbox(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}
