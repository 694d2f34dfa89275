package ports

import (
	"context"
	"time"

	"girthgov/contexts/governance/voting-ledger/domain/entities"
	contractsv1 "girthgov/contracts/gen/events/v1"
)

type EventEnvelope = contractsv1.Envelope

// VoteWrite is everything one accepted vote changes.
type VoteWrite struct {
	Vote entities.Vote
	// Superseded is the wallet's previous vote on the poll, removed and
	// un-tallied in the same transaction.
	Superseded *entities.Vote
	Ledger     entities.WalletLedger
	// ExpectedStreak is the ledger streak the write was computed from.
	ExpectedStreak int
	Event          EventEnvelope
}

type VoteRepository interface {
	// LastVote returns the wallet's current vote on the poll.
	LastVote(ctx context.Context, wallet string, pollID string) (entities.Vote, bool, error)
	GetWallet(ctx context.Context, wallet string) (entities.WalletLedger, bool, error)
	// RecordVote applies a VoteWrite atomically. It returns ErrConflict when the
	// superseded vote or the ledger streak changed since they were read.
	RecordVote(ctx context.Context, write VoteWrite) error
	CountVotes(ctx context.Context, pollID string) (map[string]int, error)
}

// PollReader reads governance polls owned by the decision engine.
type PollReader interface {
	GetPollForVoting(ctx context.Context, pollID string) (entities.PollSnapshot, error)
}

// SettingsReader reads the governance settings the ledger depends on.
type SettingsReader interface {
	GetVotingSettings(ctx context.Context) (entities.VotingSettings, error)
}

// SessionVerifier resolves a bearer session token to its wallet.
type SessionVerifier interface {
	VerifySession(token string) (string, error)
}

type IdempotencyRecord struct {
	Key         string
	RequestHash string
	Receipt     entities.VoteReceipt
	ExpiresAt   time.Time
}

type IdempotencyStore interface {
	Get(ctx context.Context, key string, now time.Time) (IdempotencyRecord, bool, error)
	Put(ctx context.Context, record IdempotencyRecord) error
}

type OutboxMessage struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
}

type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error
}

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}
