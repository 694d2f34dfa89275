package queries

import (
	"context"
	"strings"
	"time"

	application "girthgov/contexts/governance/voting-ledger/application"
	"girthgov/contexts/governance/voting-ledger/domain/entities"
	domainerrors "girthgov/contexts/governance/voting-ledger/domain/errors"
	"girthgov/contexts/governance/voting-ledger/domain/services"
	"girthgov/contexts/governance/voting-ledger/ports"
)

type CooldownQuery struct {
	Votes    ports.VoteRepository
	Polls    ports.PollReader
	Settings ports.SettingsReader
	Sessions ports.SessionVerifier
	Clock    ports.Clock
}

// CheckCooldown reports whether the session's wallet may vote on the poll now.
func (q CooldownQuery) CheckCooldown(ctx context.Context, sessionToken string, pollID string) (entities.Cooldown, error) {
	pollID = strings.TrimSpace(pollID)
	if pollID == "" {
		return entities.Cooldown{}, domainerrors.ErrInvalidVoteInput
	}
	wallet, err := q.Sessions.VerifySession(strings.TrimSpace(sessionToken))
	if err != nil || strings.TrimSpace(wallet) == "" {
		return entities.Cooldown{}, domainerrors.ErrInvalidSession
	}
	if q.Polls != nil {
		if _, err := q.Polls.GetPollForVoting(ctx, pollID); err != nil {
			return entities.Cooldown{}, err
		}
	}
	settings, err := application.LoadSettings(ctx, q.Settings)
	if err != nil {
		return entities.Cooldown{}, err
	}
	last, found, err := q.Votes.LastVote(ctx, strings.TrimSpace(wallet), pollID)
	if err != nil {
		return entities.Cooldown{}, err
	}
	now := time.Now().UTC()
	if q.Clock != nil {
		now = q.Clock.Now().UTC()
	}
	if !found {
		return services.Cooldown(nil, now, 0), nil
	}
	return services.Cooldown(&last.VotedAt, now, time.Duration(settings.CooldownHours)*time.Hour), nil
}

type WalletQuery struct {
	Votes    ports.VoteRepository
	Sessions ports.SessionVerifier
}

// Wallet returns the session wallet's ledger; a wallet that never voted has a zero ledger.
func (q WalletQuery) Wallet(ctx context.Context, sessionToken string) (entities.WalletLedger, error) {
	wallet, err := q.Sessions.VerifySession(strings.TrimSpace(sessionToken))
	if err != nil || strings.TrimSpace(wallet) == "" {
		return entities.WalletLedger{}, domainerrors.ErrInvalidSession
	}
	ledger, _, err := q.Votes.GetWallet(ctx, strings.TrimSpace(wallet))
	if err != nil {
		return entities.WalletLedger{}, err
	}
	ledger.Wallet = strings.TrimSpace(wallet)
	return ledger, nil
}
