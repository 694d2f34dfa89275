package entities

import "time"

// PollStatusActive is the only status that accepts votes.
const PollStatusActive = "active"

// PollSnapshot is the read-only view of a governance poll needed to accept a vote.
type PollSnapshot struct {
	PollID        string
	Status        string
	VotingStart   time.Time
	VotingEnd     time.Time
	RewardPerVote float64
	OptionIDs     []string
}

// Open reports whether the poll accepts votes at now. Both window bounds are inclusive.
func (p PollSnapshot) Open(now time.Time) bool {
	if p.Status != PollStatusActive {
		return false
	}
	if !p.VotingStart.IsZero() && now.Before(p.VotingStart) {
		return false
	}
	return !now.After(p.VotingEnd)
}

func (p PollSnapshot) HasOption(optionID string) bool {
	for _, id := range p.OptionIDs {
		if id == optionID {
			return true
		}
	}
	return false
}

// VotingSettings are the governance settings the ledger reads.
type VotingSettings struct {
	CooldownHours int
	BaseReward    float64
}

func DefaultVotingSettings() VotingSettings {
	return VotingSettings{CooldownHours: 24, BaseReward: 10}
}
