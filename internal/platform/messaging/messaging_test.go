package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	contractsv1 "girthgov/contracts/gen/events/v1"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestBusDeliversAndStopsSubscribers(t *testing.T) {
	defer goleak.VerifyNone(t)

	bus := NewBus(nil)
	ctx, cancel := context.WithCancel(context.Background())

	received := make(chan contractsv1.Envelope, 1)
	require.NoError(t, bus.Subscribe(ctx, "poll.completed", "test-cg", func(_ context.Context, event contractsv1.Envelope) error {
		received <- event
		return nil
	}))

	require.NoError(t, bus.Publish(context.Background(), "poll.completed", contractsv1.Envelope{EventID: "evt-1", EventType: "poll.completed"}))

	select {
	case event := <-received:
		assert.Equal(t, "evt-1", event.EventID)
	case <-time.After(2 * time.Second):
		t.Fatal("event was not delivered")
	}

	cancel()
	bus.Wait()
}

func TestBusIgnoresOtherTopics(t *testing.T) {
	defer goleak.VerifyNone(t)

	bus := NewBus(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer func() {
		cancel()
		bus.Wait()
	}()

	received := make(chan contractsv1.Envelope, 1)
	require.NoError(t, bus.Subscribe(ctx, "poll.created", "test-cg", func(_ context.Context, event contractsv1.Envelope) error {
		received <- event
		return nil
	}))
	require.NoError(t, bus.Publish(context.Background(), "decision.executed", contractsv1.Envelope{EventID: "evt-2"}))

	select {
	case <-received:
		t.Fatal("unexpected delivery for unrelated topic")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestRedisStreamAppendsEnvelope(t *testing.T) {
	server, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(server.Close)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	stream := NewRedisStream(client, "girthgov.events", 100, nil)
	event := contractsv1.Envelope{
		EventID:      "evt-3",
		EventType:    "poll.created",
		PartitionKey: "poll-1",
		Data:         json.RawMessage(`{"poll_id":"poll-1"}`),
	}
	require.NoError(t, stream.Publish(context.Background(), event.Topic(), event))

	entries, err := client.XRange(context.Background(), "girthgov.events", "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "poll.created", entries[0].Values["topic"])
	assert.Equal(t, "poll-1", entries[0].Values["partition_key"])

	var decoded contractsv1.Envelope
	require.NoError(t, json.Unmarshal([]byte(entries[0].Values["envelope"].(string)), &decoded))
	assert.Equal(t, "evt-3", decoded.EventID)
}

type failingPublisher struct{ err error }

func (f failingPublisher) Publish(context.Context, string, contractsv1.Envelope) error { return f.err }

func TestFanoutJoinsErrors(t *testing.T) {
	boom := errors.New("boom")
	fanout := Fanout{NewBus(nil), failingPublisher{err: boom}}
	err := fanout.Publish(context.Background(), "topic", contractsv1.Envelope{EventID: "evt-4"})
	assert.ErrorIs(t, err, boom)
}
