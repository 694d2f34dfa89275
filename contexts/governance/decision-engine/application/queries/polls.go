package queries

import (
	"context"
	"strings"

	"girthgov/contexts/governance/decision-engine/domain/entities"
	domainerrors "girthgov/contexts/governance/decision-engine/domain/errors"
	"girthgov/contexts/governance/decision-engine/ports"
)

type PollQueries struct {
	Polls ports.PollRepository
}

// ListPolls filters by status name when one is given.
func (q PollQueries) ListPolls(ctx context.Context, status string, limit int) ([]entities.Poll, error) {
	var filter *entities.PollStatus
	if trimmed := strings.TrimSpace(status); trimmed != "" {
		parsed, err := entities.ParsePollStatus(trimmed)
		if err != nil {
			return nil, domainerrors.ErrInvalidAdminInput
		}
		filter = &parsed
	}
	return q.Polls.ListPolls(ctx, filter, clampLimit(limit))
}

func (q PollQueries) GetPoll(ctx context.Context, pollID string) (entities.Poll, error) {
	pollID = strings.TrimSpace(pollID)
	if pollID == "" {
		return entities.Poll{}, domainerrors.ErrPollNotFound
	}
	return q.Polls.GetPoll(ctx, pollID)
}

func (q PollQueries) Commentary(ctx context.Context, pollID string) ([]entities.PollCommentary, error) {
	return q.Polls.ListCommentary(ctx, strings.TrimSpace(pollID))
}
