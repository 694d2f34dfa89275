package commands

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	application "girthgov/contexts/governance/voting-ledger/application"
	"girthgov/contexts/governance/voting-ledger/domain/entities"
	domainerrors "girthgov/contexts/governance/voting-ledger/domain/errors"
	"girthgov/contexts/governance/voting-ledger/domain/services"
	"girthgov/contexts/governance/voting-ledger/ports"
)

type CastVoteCommand struct {
	SessionToken   string
	PollID         string
	OptionID       string
	IdempotencyKey string
}

type CastVoteResult struct {
	Receipt  entities.VoteReceipt
	Replayed bool
}

// CastVoteUseCase accepts one wallet vote. Preconditions are checked in order:
// session, poll status and window, option membership, cooldown.
type CastVoteUseCase struct {
	Votes          ports.VoteRepository
	Polls          ports.PollReader
	Settings       ports.SettingsReader
	Sessions       ports.SessionVerifier
	Idempotency    ports.IdempotencyStore
	Clock          ports.Clock
	IDGen          ports.IDGenerator
	IdempotencyTTL time.Duration
	Logger         *slog.Logger
}

func (uc CastVoteUseCase) Execute(ctx context.Context, cmd CastVoteCommand) (CastVoteResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	pollID := strings.TrimSpace(cmd.PollID)
	optionID := strings.TrimSpace(cmd.OptionID)
	if pollID == "" || optionID == "" {
		return CastVoteResult{}, domainerrors.ErrInvalidVoteInput
	}

	wallet, err := uc.Sessions.VerifySession(strings.TrimSpace(cmd.SessionToken))
	if err != nil || strings.TrimSpace(wallet) == "" {
		logger.Warn("vote rejected: invalid session",
			"event", "voting_ledger_session_invalid",
			"module", "governance/voting-ledger",
			"layer", "application",
			"poll_id", pollID,
		)
		return CastVoteResult{}, domainerrors.ErrInvalidSession
	}
	wallet = strings.TrimSpace(wallet)
	now := uc.now()

	key := strings.TrimSpace(cmd.IdempotencyKey)
	requestHash := hashCastVote(wallet, pollID, optionID)
	if key != "" && uc.Idempotency != nil {
		key = wallet + ":" + key
		record, found, err := uc.Idempotency.Get(ctx, key, now)
		if err != nil {
			return CastVoteResult{}, err
		}
		if found {
			if record.RequestHash != requestHash {
				return CastVoteResult{}, domainerrors.ErrIdempotencyConflict
			}
			logger.Info("vote replayed",
				"event", "voting_ledger_vote_replayed",
				"module", "governance/voting-ledger",
				"layer", "application",
				"vote_id", record.Receipt.VoteID,
				"poll_id", pollID,
			)
			return CastVoteResult{Receipt: record.Receipt, Replayed: true}, nil
		}
	}

	poll, err := uc.Polls.GetPollForVoting(ctx, pollID)
	if err != nil {
		return CastVoteResult{}, err
	}
	if poll.Status != entities.PollStatusActive {
		return CastVoteResult{}, domainerrors.ErrPollNotActive
	}
	if !poll.Open(now) {
		return CastVoteResult{}, domainerrors.ErrVotingWindowClosed
	}
	if !poll.HasOption(optionID) {
		return CastVoteResult{}, domainerrors.ErrOptionNotInPoll
	}

	settings, err := application.LoadSettings(ctx, uc.Settings)
	if err != nil {
		return CastVoteResult{}, err
	}
	previous, hasPrevious, err := uc.Votes.LastVote(ctx, wallet, pollID)
	if err != nil {
		return CastVoteResult{}, err
	}
	if hasPrevious {
		cooldown := services.Cooldown(&previous.VotedAt, now, time.Duration(settings.CooldownHours)*time.Hour)
		if !cooldown.CanVote {
			logger.Info("vote rejected: cooldown active",
				"event", "voting_ledger_cooldown_active",
				"module", "governance/voting-ledger",
				"layer", "application",
				"wallet", wallet,
				"poll_id", pollID,
				"hours_remaining", cooldown.HoursRemaining,
			)
			return CastVoteResult{}, &domainerrors.CooldownError{
				LastVoteAt:        *cooldown.LastVoteAt,
				CooldownExpiresAt: *cooldown.CooldownExpiresAt,
				HoursRemaining:    cooldown.HoursRemaining,
			}
		}
	}

	ledger, _, err := uc.Votes.GetWallet(ctx, wallet)
	if err != nil {
		return CastVoteResult{}, err
	}
	ledger.Wallet = wallet
	expectedStreak := ledger.Streak
	streak := expectedStreak + 1
	base := poll.RewardPerVote
	if base <= 0 {
		base = settings.BaseReward
	}
	reward := services.Reward(base, streak)

	voteID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return CastVoteResult{}, err
	}
	vote := entities.Vote{
		VoteID:       voteID,
		PollID:       pollID,
		Wallet:       wallet,
		OptionID:     optionID,
		VotedAt:      now,
		StreakAtVote: streak,
		RewardEarned: reward,
	}
	write := ports.VoteWrite{Vote: vote, ExpectedStreak: expectedStreak}
	eventType := application.EventVoteCast
	if hasPrevious {
		previousID := previous.VoteID
		vote.PreviousVoteID = &previousID
		write.Vote = vote
		superseded := previous
		write.Superseded = &superseded
		eventType = application.EventVoteChanged
	}
	ledger.Streak = streak
	ledger.RewardBalance += reward
	ledger.LastVoteAt = &now
	write.Ledger = ledger

	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return CastVoteResult{}, err
	}
	data := map[string]any{
		"vote_id":       vote.VoteID,
		"poll_id":       pollID,
		"option_id":     optionID,
		"wallet":        wallet,
		"streak":        streak,
		"reward_earned": reward,
	}
	if vote.PreviousVoteID != nil {
		data["previous_vote_id"] = *vote.PreviousVoteID
		data["previous_option_id"] = previous.OptionID
	}
	write.Event, err = application.NewVoteEnvelope(eventID, eventType, pollID, now, data)
	if err != nil {
		return CastVoteResult{}, err
	}

	if err := uc.Votes.RecordVote(ctx, write); err != nil {
		if errors.Is(err, domainerrors.ErrConflict) {
			logger.Warn("vote lost a concurrent write",
				"event", "voting_ledger_vote_conflict",
				"module", "governance/voting-ledger",
				"layer", "application",
				"wallet", wallet,
				"poll_id", pollID,
			)
		}
		return CastVoteResult{}, err
	}

	receipt := entities.VoteReceipt{
		VoteID:         vote.VoteID,
		PollID:         pollID,
		OptionID:       optionID,
		RewardEarned:   reward,
		Streak:         streak,
		IsVoteChange:   hasPrevious,
		PreviousVoteID: vote.PreviousVoteID,
		VotedAt:        now,
	}
	if key != "" && uc.Idempotency != nil {
		if err := uc.Idempotency.Put(ctx, ports.IdempotencyRecord{
			Key:         key,
			RequestHash: requestHash,
			Receipt:     receipt,
			ExpiresAt:   now.Add(uc.idempotencyTTL()),
		}); err != nil {
			return CastVoteResult{}, err
		}
	}

	logger.Info("vote recorded",
		"event", "voting_ledger_vote_recorded",
		"module", "governance/voting-ledger",
		"layer", "application",
		"vote_id", vote.VoteID,
		"poll_id", pollID,
		"wallet", wallet,
		"streak", streak,
		"reward_earned", reward,
		"is_vote_change", hasPrevious,
	)
	return CastVoteResult{Receipt: receipt}, nil
}

func (uc CastVoteUseCase) now() time.Time {
	if uc.Clock == nil {
		return time.Now().UTC()
	}
	return uc.Clock.Now().UTC()
}

func (uc CastVoteUseCase) idempotencyTTL() time.Duration {
	if uc.IdempotencyTTL <= 0 {
		return 24 * time.Hour
	}
	return uc.IdempotencyTTL
}

func hashCastVote(wallet string, pollID string, optionID string) string {
	raw, _ := json.Marshal(map[string]string{
		"wallet":    wallet,
		"poll_id":   pollID,
		"option_id": optionID,
		"op":        "cast_vote",
	})
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
