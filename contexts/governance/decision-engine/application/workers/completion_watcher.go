package workers

import (
	"context"
	"errors"
	"log/slog"
	"time"

	application "girthgov/contexts/governance/decision-engine/application"
	"girthgov/contexts/governance/decision-engine/application/commands"
	"girthgov/contexts/governance/decision-engine/domain/entities"
	domainerrors "girthgov/contexts/governance/decision-engine/domain/errors"
	"girthgov/contexts/governance/decision-engine/domain/services"
	"girthgov/contexts/governance/decision-engine/ports"
)

// DefaultCompletionWindow is how far back the sweep looks for ended polls.
const DefaultCompletionWindow = 5 * time.Minute

// CompletionWatcher closes polls whose voting ended and hands them to the
// arbiter. Closed polls left without an analysis by an earlier run are
// arbitrated again from their final tally.
type CompletionWatcher struct {
	Polls     ports.PollRepository
	Votes     ports.VoteCounter
	Arbiter   commands.OutcomeArbiter
	Clock     ports.Clock
	IDGen     ports.IDGenerator
	Window    time.Duration
	BatchSize int
	Logger    *slog.Logger
}

type CompletionOutcome struct {
	Completions []entities.PollCompletionEvent
	Analyses    []entities.AnalysisResult
	Skipped     int
	Recovered   int
}

func (w CompletionWatcher) RunOnce(ctx context.Context) (CompletionOutcome, error) {
	logger := application.ResolveLogger(w.Logger)
	window := w.Window
	if window <= 0 {
		window = DefaultCompletionWindow
	}
	limit := w.BatchSize
	if limit <= 0 {
		limit = 100
	}
	now := w.now()

	polls, err := w.Polls.ListClosablePolls(ctx, now.Add(-window), now, limit)
	if err != nil {
		logger.Error("closable poll list failed",
			"event", "completion_watcher_list_failed",
			"module", "governance/decision-engine",
			"layer", "worker",
			"error", err.Error(),
		)
		return CompletionOutcome{}, err
	}

	outcome := CompletionOutcome{}
	var failures []error
	if err := w.retryAnalyses(ctx, logger, limit, &outcome); err != nil {
		failures = append(failures, err)
	}
	for _, poll := range polls {
		counts, err := w.Votes.CountVotes(ctx, poll.PollID)
		if err != nil {
			return outcome, err
		}
		tally := services.Tally(poll.Options, counts)
		completion := entities.PollCompletionEvent{
			PollID:              poll.PollID,
			CompletedAt:         now,
			TotalVotes:          tally.Total,
			WinnerOptionID:      tally.WinnerOptionID,
			FinalTally:          tally.FinalTally,
			AdminReviewRequired: tally.AdminReviewRequired,
		}
		eventID, err := w.IDGen.NewID(ctx)
		if err != nil {
			return outcome, err
		}
		event, err := application.NewEnvelope(eventID, application.EventPollCompleted, "poll_id", poll.PollID, now, map[string]any{
			"poll_id":               poll.PollID,
			"decision_id":           poll.DecisionID,
			"total_votes":           tally.Total,
			"winner_option_id":      tally.WinnerOptionID,
			"final_tally":           tally.FinalTally,
			"admin_review_required": tally.AdminReviewRequired,
		})
		if err != nil {
			return outcome, err
		}

		err = w.Polls.ClosePoll(ctx, completion, []ports.EventEnvelope{event})
		if errors.Is(err, domainerrors.ErrPollAlreadyClosed) {
			outcome.Skipped++
			continue
		}
		if err != nil {
			logger.Error("poll close failed",
				"event", "completion_watcher_close_failed",
				"module", "governance/decision-engine",
				"layer", "worker",
				"poll_id", poll.PollID,
				"error", err.Error(),
			)
			return outcome, err
		}
		outcome.Completions = append(outcome.Completions, completion)
		logger.Info("poll closed",
			"event", "completion_watcher_closed",
			"module", "governance/decision-engine",
			"layer", "worker",
			"poll_id", poll.PollID,
			"total_votes", tally.Total,
			"winner_option_id", tally.WinnerOptionID,
			"admin_review_required", tally.AdminReviewRequired,
		)

		analysis, err := w.Arbiter.Arbitrate(ctx, poll, tally)
		if err != nil {
			logArbitrationFailure(logger, poll.PollID, err)
			failures = append(failures, err)
			continue
		}
		outcome.Analyses = append(outcome.Analyses, analysis)
	}
	return outcome, errors.Join(failures...)
}

func (w CompletionWatcher) retryAnalyses(ctx context.Context, logger *slog.Logger, limit int, outcome *CompletionOutcome) error {
	pending, err := w.Polls.ListUnanalyzedPolls(ctx, limit)
	if err != nil {
		return err
	}
	var failures []error
	for _, poll := range pending {
		counts := make(map[string]int, len(poll.Options))
		for _, option := range poll.Options {
			counts[option.OptionID] = option.VotesCount
		}
		analysis, err := w.Arbiter.Arbitrate(ctx, poll, services.Tally(poll.Options, counts))
		if err != nil {
			logArbitrationFailure(logger, poll.PollID, err)
			failures = append(failures, err)
			continue
		}
		outcome.Recovered++
		outcome.Analyses = append(outcome.Analyses, analysis)
		logger.Info("closed poll arbitrated on retry",
			"event", "completion_watcher_recovered",
			"module", "governance/decision-engine",
			"layer", "worker",
			"poll_id", poll.PollID,
		)
	}
	return errors.Join(failures...)
}

func logArbitrationFailure(logger *slog.Logger, pollID string, err error) {
	logger.Error("poll arbitration failed; retrying next run",
		"event", "completion_watcher_arbitration_failed",
		"module", "governance/decision-engine",
		"layer", "worker",
		"poll_id", pollID,
		"error", err.Error(),
	)
}

func (w CompletionWatcher) now() time.Time {
	if w.Clock == nil {
		return time.Now().UTC()
	}
	return w.Clock.Now().UTC()
}
