package http

type CastVoteRequest struct {
	OptionID string `json:"option_id"`
}

type VoteReceiptResponse struct {
	VoteID         string  `json:"vote_id"`
	PollID         string  `json:"poll_id"`
	OptionID       string  `json:"option_id"`
	RewardEarned   float64 `json:"reward_earned"`
	Streak         int     `json:"streak"`
	IsVoteChange   bool    `json:"is_vote_change"`
	PreviousVoteID *string `json:"previous_vote_id,omitempty"`
	VotedAt        string  `json:"voted_at"`
	Replayed       bool    `json:"replayed"`
}

type CooldownResponse struct {
	CanVote           bool    `json:"can_vote"`
	LastVoteAt        *string `json:"last_vote_at,omitempty"`
	CooldownExpiresAt *string `json:"cooldown_expires_at,omitempty"`
	HoursRemaining    int     `json:"hours_remaining"`
}

type WalletResponse struct {
	Wallet        string  `json:"wallet"`
	Streak        int     `json:"streak"`
	RewardBalance float64 `json:"reward_balance"`
	LastVoteAt    *string `json:"last_vote_at,omitempty"`
}

type ErrorResponse struct {
	Code     string            `json:"code"`
	Message  string            `json:"message"`
	Cooldown *CooldownResponse `json:"cooldown,omitempty"`
}
