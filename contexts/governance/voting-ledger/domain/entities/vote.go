package entities

import "time"

type Vote struct {
	VoteID         string
	PollID         string
	Wallet         string
	OptionID       string
	VotedAt        time.Time
	StreakAtVote   int
	RewardEarned   float64
	PreviousVoteID *string
}

// WalletLedger is the per-wallet reward account. Streak counts successful
// votes across all polls.
type WalletLedger struct {
	Wallet        string
	Streak        int
	RewardBalance float64
	LastVoteAt    *time.Time
}

// Cooldown describes when a wallet may vote on a poll again.
type Cooldown struct {
	CanVote           bool
	LastVoteAt        *time.Time
	CooldownExpiresAt *time.Time
	HoursRemaining    int
}

type VoteReceipt struct {
	VoteID         string    `json:"vote_id"`
	PollID         string    `json:"poll_id"`
	OptionID       string    `json:"option_id"`
	RewardEarned   float64   `json:"reward_earned"`
	Streak         int       `json:"streak"`
	IsVoteChange   bool      `json:"is_vote_change"`
	PreviousVoteID *string   `json:"previous_vote_id,omitempty"`
	VotedAt        time.Time `json:"voted_at"`
}
