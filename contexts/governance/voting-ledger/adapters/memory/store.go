package memory

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"girthgov/contexts/governance/voting-ledger/domain/entities"
	domainerrors "girthgov/contexts/governance/voting-ledger/domain/errors"
	"girthgov/contexts/governance/voting-ledger/ports"

	"github.com/google/uuid"
)

type outboxRecord struct {
	message   ports.OutboxMessage
	published bool
}

type Store struct {
	mu sync.RWMutex

	// current holds one vote per wallet and poll.
	current     map[string]entities.Vote
	ledgers     map[string]entities.WalletLedger
	polls       map[string]entities.PollSnapshot
	settings    *entities.VotingSettings
	idempotency map[string]ports.IdempotencyRecord
	outbox      []outboxRecord
	now         time.Time
}

func NewStore() *Store {
	return &Store{
		current:     make(map[string]entities.Vote),
		ledgers:     make(map[string]entities.WalletLedger),
		polls:       make(map[string]entities.PollSnapshot),
		idempotency: make(map[string]ports.IdempotencyRecord),
	}
}

func (s *Store) SetNow(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now.UTC()
}

func (s *Store) SetPoll(poll entities.PollSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	poll.OptionIDs = append([]string(nil), poll.OptionIDs...)
	s.polls[strings.TrimSpace(poll.PollID)] = poll
}

func (s *Store) SetSettings(settings entities.VotingSettings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = &settings
}

func (s *Store) OutboxEventTypes() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	types := make([]string, 0, len(s.outbox))
	for _, record := range s.outbox {
		types = append(types, record.message.EventType)
	}
	return types
}

func (s *Store) LastVote(_ context.Context, wallet string, pollID string) (entities.Vote, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	vote, ok := s.current[voteKey(wallet, pollID)]
	return vote, ok, nil
}

func (s *Store) GetWallet(_ context.Context, wallet string) (entities.WalletLedger, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ledger, ok := s.ledgers[strings.TrimSpace(wallet)]
	return ledger, ok, nil
}

func (s *Store) RecordVote(_ context.Context, write ports.VoteWrite) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := voteKey(write.Vote.Wallet, write.Vote.PollID)
	existing, hasExisting := s.current[key]
	switch {
	case write.Superseded == nil && hasExisting:
		return domainerrors.ErrConflict
	case write.Superseded != nil && (!hasExisting || existing.VoteID != write.Superseded.VoteID):
		return domainerrors.ErrConflict
	}
	ledger := s.ledgers[strings.TrimSpace(write.Vote.Wallet)]
	if ledger.Streak != write.ExpectedStreak {
		return domainerrors.ErrConflict
	}

	s.current[key] = write.Vote
	s.ledgers[strings.TrimSpace(write.Vote.Wallet)] = write.Ledger
	s.appendOutboxLocked(write.Event)
	return nil
}

func (s *Store) CountVotes(_ context.Context, pollID string) (map[string]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := make(map[string]int)
	for _, vote := range s.current {
		if vote.PollID == strings.TrimSpace(pollID) {
			counts[vote.OptionID]++
		}
	}
	return counts, nil
}

func (s *Store) GetPollForVoting(_ context.Context, pollID string) (entities.PollSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	poll, ok := s.polls[strings.TrimSpace(pollID)]
	if !ok {
		return entities.PollSnapshot{}, domainerrors.ErrPollNotFound
	}
	poll.OptionIDs = append([]string(nil), poll.OptionIDs...)
	return poll, nil
}

func (s *Store) GetVotingSettings(_ context.Context) (entities.VotingSettings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.settings == nil {
		return entities.DefaultVotingSettings(), nil
	}
	return *s.settings, nil
}

func (s *Store) Get(_ context.Context, key string, now time.Time) (ports.IdempotencyRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.idempotency[strings.TrimSpace(key)]
	if !ok {
		return ports.IdempotencyRecord{}, false, nil
	}
	if !record.ExpiresAt.IsZero() && now.UTC().After(record.ExpiresAt.UTC()) {
		delete(s.idempotency, strings.TrimSpace(key))
		return ports.IdempotencyRecord{}, false, nil
	}
	return record, true, nil
}

func (s *Store) Put(_ context.Context, record ports.IdempotencyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.TrimSpace(record.Key)
	if existing, ok := s.idempotency[key]; ok {
		if existing.RequestHash != record.RequestHash || existing.Receipt.VoteID != record.Receipt.VoteID {
			return domainerrors.ErrIdempotencyConflict
		}
		return nil
	}
	s.idempotency[key] = record
	return nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]ports.OutboxMessage, 0)
	for _, record := range s.outbox {
		if record.published {
			continue
		}
		items = append(items, record.message)
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].CreatedAt.Before(items[j].CreatedAt) })
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *Store) MarkOutboxPublished(_ context.Context, outboxID string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.outbox {
		if s.outbox[i].message.OutboxID == strings.TrimSpace(outboxID) {
			s.outbox[i].published = true
			return nil
		}
	}
	return domainerrors.ErrConflict
}

func (s *Store) appendOutboxLocked(envelope ports.EventEnvelope) {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return
	}
	s.outbox = append(s.outbox, outboxRecord{message: ports.OutboxMessage{
		OutboxID:     envelope.EventID,
		EventType:    envelope.EventType,
		PartitionKey: envelope.PartitionKey,
		Payload:      payload,
		CreatedAt:    envelope.OccurredAt,
	}})
}

func (s *Store) Now() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.now.IsZero() {
		return time.Now().UTC()
	}
	return s.now
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

func voteKey(wallet string, pollID string) string {
	return strings.TrimSpace(wallet) + "|" + strings.TrimSpace(pollID)
}

var (
	_ ports.VoteRepository   = (*Store)(nil)
	_ ports.PollReader       = (*Store)(nil)
	_ ports.SettingsReader   = (*Store)(nil)
	_ ports.IdempotencyStore = (*Store)(nil)
	_ ports.OutboxRepository = (*Store)(nil)
	_ ports.Clock            = (*Store)(nil)
	_ ports.IDGenerator      = (*Store)(nil)
)
