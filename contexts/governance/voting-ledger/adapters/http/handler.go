package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"girthgov/contexts/governance/voting-ledger/application/commands"
	"girthgov/contexts/governance/voting-ledger/application/queries"
	"girthgov/contexts/governance/voting-ledger/domain/entities"
	domainerrors "girthgov/contexts/governance/voting-ledger/domain/errors"
	httptransport "girthgov/contexts/governance/voting-ledger/transport/http"
)

type Handler struct {
	CastVote commands.CastVoteUseCase
	Cooldown queries.CooldownQuery
	Wallet   queries.WalletQuery
	Logger   *slog.Logger
}

func (h Handler) CastVoteHandler(
	ctx context.Context,
	sessionToken string,
	idempotencyKey string,
	pollID string,
	req httptransport.CastVoteRequest,
) (httptransport.VoteReceiptResponse, error) {
	result, err := h.CastVote.Execute(ctx, commands.CastVoteCommand{
		SessionToken:   sessionToken,
		PollID:         pollID,
		OptionID:       req.OptionID,
		IdempotencyKey: idempotencyKey,
	})
	if err != nil {
		return httptransport.VoteReceiptResponse{}, err
	}
	receipt := result.Receipt
	return httptransport.VoteReceiptResponse{
		VoteID:         receipt.VoteID,
		PollID:         receipt.PollID,
		OptionID:       receipt.OptionID,
		RewardEarned:   receipt.RewardEarned,
		Streak:         receipt.Streak,
		IsVoteChange:   receipt.IsVoteChange,
		PreviousVoteID: receipt.PreviousVoteID,
		VotedAt:        receipt.VotedAt.UTC().Format(time.RFC3339),
		Replayed:       result.Replayed,
	}, nil
}

func (h Handler) CooldownHandler(ctx context.Context, sessionToken string, pollID string) (httptransport.CooldownResponse, error) {
	cooldown, err := h.Cooldown.CheckCooldown(ctx, sessionToken, pollID)
	if err != nil {
		return httptransport.CooldownResponse{}, err
	}
	return MapCooldown(cooldown), nil
}

func (h Handler) WalletHandler(ctx context.Context, sessionToken string) (httptransport.WalletResponse, error) {
	ledger, err := h.Wallet.Wallet(ctx, sessionToken)
	if err != nil {
		return httptransport.WalletResponse{}, err
	}
	return httptransport.WalletResponse{
		Wallet:        ledger.Wallet,
		Streak:        ledger.Streak,
		RewardBalance: ledger.RewardBalance,
		LastVoteAt:    formatOptional(ledger.LastVoteAt),
	}, nil
}

func MapCooldown(cooldown entities.Cooldown) httptransport.CooldownResponse {
	return httptransport.CooldownResponse{
		CanVote:           cooldown.CanVote,
		LastVoteAt:        formatOptional(cooldown.LastVoteAt),
		CooldownExpiresAt: formatOptional(cooldown.CooldownExpiresAt),
		HoursRemaining:    cooldown.HoursRemaining,
	}
}

// CooldownPayload converts a cooldown rejection into the body returned with the conflict.
func CooldownPayload(err *domainerrors.CooldownError) *httptransport.CooldownResponse {
	if err == nil {
		return nil
	}
	last := err.LastVoteAt
	expires := err.CooldownExpiresAt
	payload := MapCooldown(entities.Cooldown{
		CanVote:           false,
		LastVoteAt:        &last,
		CooldownExpiresAt: &expires,
		HoursRemaining:    err.HoursRemaining,
	})
	return &payload
}

func formatOptional(value *time.Time) *string {
	if value == nil {
		return nil
	}
	formatted := value.UTC().Format(time.RFC3339)
	return &formatted
}
