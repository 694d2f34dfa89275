package services

import (
	"math"
	"time"

	"girthgov/contexts/governance/voting-ledger/domain/entities"
)

const (
	StreakBonusPerVote = 2
	MaxStreakBonus     = 50
)

// Reward is base plus two per streak vote, with the bonus capped at 50.
func Reward(base float64, streak int) float64 {
	if streak < 0 {
		streak = 0
	}
	bonus := StreakBonusPerVote * streak
	if bonus > MaxStreakBonus {
		bonus = MaxStreakBonus
	}
	return base + float64(bonus)
}

// Cooldown evaluates the cooldown after the last vote on a poll. Partial hours
// round up, so CanVote is true exactly when HoursRemaining is zero.
func Cooldown(lastVoteAt *time.Time, now time.Time, window time.Duration) entities.Cooldown {
	if lastVoteAt == nil {
		return entities.Cooldown{CanVote: true}
	}
	last := lastVoteAt.UTC()
	expires := last.Add(window)
	remaining := expires.Sub(now)
	hours := 0
	if remaining > 0 {
		hours = int(math.Ceil(remaining.Hours()))
	}
	return entities.Cooldown{
		CanVote:           hours == 0,
		LastVoteAt:        &last,
		CooldownExpiresAt: &expires,
		HoursRemaining:    hours,
	}
}
