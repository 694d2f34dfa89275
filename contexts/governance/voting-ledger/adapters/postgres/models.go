package postgresadapter

import (
	"strings"
	"time"

	"girthgov/contexts/governance/voting-ledger/domain/entities"
)

// voteModel holds the current vote per (wallet, poll); the pair is unique.
type voteModel struct {
	ID             string    `gorm:"column:id;primaryKey"`
	PollID         string    `gorm:"column:poll_id"`
	Wallet         string    `gorm:"column:wallet"`
	OptionID       string    `gorm:"column:option_id"`
	VotedAt        time.Time `gorm:"column:voted_at"`
	StreakAtVote   int       `gorm:"column:streak_at_vote"`
	RewardEarned   float64   `gorm:"column:reward_earned"`
	PreviousVoteID *string   `gorm:"column:previous_vote_id"`
}

func (voteModel) TableName() string {
	return "votes"
}

func voteModelFromEntity(vote entities.Vote) voteModel {
	return voteModel{
		ID:             strings.TrimSpace(vote.VoteID),
		PollID:         strings.TrimSpace(vote.PollID),
		Wallet:         strings.TrimSpace(vote.Wallet),
		OptionID:       strings.TrimSpace(vote.OptionID),
		VotedAt:        vote.VotedAt.UTC(),
		StreakAtVote:   vote.StreakAtVote,
		RewardEarned:   vote.RewardEarned,
		PreviousVoteID: vote.PreviousVoteID,
	}
}

func (m voteModel) toEntity() entities.Vote {
	return entities.Vote{
		VoteID:         m.ID,
		PollID:         m.PollID,
		Wallet:         m.Wallet,
		OptionID:       m.OptionID,
		VotedAt:        m.VotedAt.UTC(),
		StreakAtVote:   m.StreakAtVote,
		RewardEarned:   m.RewardEarned,
		PreviousVoteID: m.PreviousVoteID,
	}
}

type walletLedgerModel struct {
	Wallet        string     `gorm:"column:wallet;primaryKey"`
	Streak        int        `gorm:"column:streak"`
	RewardBalance float64    `gorm:"column:reward_balance"`
	LastVoteAt    *time.Time `gorm:"column:last_vote_at"`
	UpdatedAt     time.Time  `gorm:"column:updated_at"`
}

func (walletLedgerModel) TableName() string {
	return "wallet_ledgers"
}

func walletLedgerModelFromEntity(ledger entities.WalletLedger, updatedAt time.Time) walletLedgerModel {
	return walletLedgerModel{
		Wallet:        strings.TrimSpace(ledger.Wallet),
		Streak:        ledger.Streak,
		RewardBalance: ledger.RewardBalance,
		LastVoteAt:    normalizeOptionalTime(ledger.LastVoteAt),
		UpdatedAt:     updatedAt.UTC(),
	}
}

func (m walletLedgerModel) toEntity() entities.WalletLedger {
	return entities.WalletLedger{
		Wallet:        m.Wallet,
		Streak:        m.Streak,
		RewardBalance: m.RewardBalance,
		LastVoteAt:    normalizeOptionalTime(m.LastVoteAt),
	}
}

// pollProjectionModel and optionTallyModel read tables owned by the decision engine.
type pollProjectionModel struct {
	PollID        string    `gorm:"column:poll_id;primaryKey"`
	Status        string    `gorm:"column:status"`
	VotingStart   time.Time `gorm:"column:voting_start"`
	VotingEnd     time.Time `gorm:"column:voting_end"`
	RewardPerVote float64   `gorm:"column:reward_per_vote"`
}

func (pollProjectionModel) TableName() string {
	return "polls"
}

type optionTallyModel struct {
	OptionID   string `gorm:"column:option_id;primaryKey"`
	PollID     string `gorm:"column:poll_id"`
	Position   int    `gorm:"column:position"`
	VotesCount int    `gorm:"column:votes_count"`
}

func (optionTallyModel) TableName() string {
	return "poll_options"
}

type settingsProjectionModel struct {
	ID                string  `gorm:"column:id;primaryKey"`
	VoteCooldownHours int     `gorm:"column:vote_cooldown_hours"`
	BaseReward        float64 `gorm:"column:base_reward"`
}

func (settingsProjectionModel) TableName() string {
	return "governance_settings"
}

type idempotencyModel struct {
	Key         string    `gorm:"column:key;primaryKey"`
	RequestHash string    `gorm:"column:request_hash"`
	VoteID      string    `gorm:"column:vote_id"`
	Receipt     []byte    `gorm:"column:receipt"`
	ExpiresAt   time.Time `gorm:"column:expires_at"`
}

func (idempotencyModel) TableName() string {
	return "voting_ledger_idempotency"
}

type outboxModel struct {
	OutboxID     string     `gorm:"column:outbox_id;primaryKey"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      []byte     `gorm:"column:payload"`
	Status       string     `gorm:"column:status"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	PublishedAt  *time.Time `gorm:"column:published_at"`
}

func (outboxModel) TableName() string {
	return "voting_outbox"
}

func normalizeOptionalTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	timestamp := value.UTC()
	return &timestamp
}
