package commands

import (
	"context"
	"log/slog"
	"math"
	"strings"
	"time"

	application "girthgov/contexts/governance/decision-engine/application"
	"girthgov/contexts/governance/decision-engine/domain/entities"
	"girthgov/contexts/governance/decision-engine/domain/services"
	"girthgov/contexts/governance/decision-engine/ports"

	"golang.org/x/sync/errgroup"
)

// OutcomeArbiter scores a completed poll and records an implementation
// recommendation plus outcome commentary.
type OutcomeArbiter struct {
	Analyses ports.AnalysisRepository
	Analyst  ports.OutcomeAnalyst
	Clock    ports.Clock
	IDGen    ports.IDGenerator
	Logger   *slog.Logger
}

// Arbitrate never fails because of the reasoning collaborator; recommendation
// and commentary fall back independently. Only persistence errors surface.
func (a OutcomeArbiter) Arbitrate(
	ctx context.Context,
	poll entities.Poll,
	tally services.TallyResult,
) (entities.AnalysisResult, error) {
	logger := application.ResolveLogger(a.Logger)
	now := a.now()

	brief := entities.OutcomeBrief{
		PollTitle:         poll.Title,
		WinnerText:        winnerText(poll, tally.WinnerOptionID),
		TotalVotes:        tally.Total,
		ConsensusStrength: tally.ConsensusStrength,
		ControversyScore:  tally.ControversyScore,
		Tally:             tallyByText(poll, tally.FinalTally),
	}

	var (
		recommendation     entities.Recommendation
		recommendationLost bool
		commentary         string
		commentaryLost     bool
	)
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		recommendation, recommendationLost = a.recommend(groupCtx, logger, poll.PollID, brief)
		return nil
	})
	group.Go(func() error {
		commentary, commentaryLost = a.commentary(groupCtx, logger, poll.PollID, brief)
		return nil
	})
	if err := group.Wait(); err != nil {
		return entities.AnalysisResult{}, err
	}

	analysis := entities.AnalysisResult{
		PollID:            poll.PollID,
		DecisionID:        poll.DecisionID,
		WinnerOptionID:    tally.WinnerOptionID,
		ConsensusStrength: tally.ConsensusStrength,
		ControversyScore:  tally.ControversyScore,
		Recommendation:    recommendation,
		Confidence:        recommendation.Confidence,
		Fallback:          recommendationLost,
		CreatedAt:         now,
	}
	commentaryID, err := a.IDGen.NewID(ctx)
	if err != nil {
		return entities.AnalysisResult{}, err
	}
	eventID, err := a.IDGen.NewID(ctx)
	if err != nil {
		return entities.AnalysisResult{}, err
	}
	event, err := application.NewEnvelope(eventID, application.EventPollAnalyzed, "poll_id", poll.PollID, now, map[string]any{
		"poll_id":            poll.PollID,
		"decision_id":        poll.DecisionID,
		"winner_option_id":   tally.WinnerOptionID,
		"consensus_strength": tally.ConsensusStrength,
		"controversy_score":  tally.ControversyScore,
		"priority":           recommendation.Priority.String(),
		"confidence":         recommendation.Confidence,
		"fallback":           recommendationLost,
	})
	if err != nil {
		return entities.AnalysisResult{}, err
	}
	if err := a.Analyses.SaveAnalysis(ctx, analysis, entities.PollCommentary{
		CommentaryID: commentaryID,
		PollID:       poll.PollID,
		Kind:         entities.CommentaryOutcome,
		Body:         commentary,
		Fallback:     commentaryLost,
		CreatedAt:    now,
	}, []ports.EventEnvelope{event}); err != nil {
		logger.Error("poll analysis persist failed",
			"event", "outcome_arbiter_persist_failed",
			"module", "governance/decision-engine",
			"layer", "application",
			"poll_id", poll.PollID,
			"error", err.Error(),
		)
		return entities.AnalysisResult{}, err
	}

	logger.Info("poll outcome arbitrated",
		"event", "outcome_arbiter_completed",
		"module", "governance/decision-engine",
		"layer", "application",
		"poll_id", poll.PollID,
		"consensus_strength", analysis.ConsensusStrength,
		"controversy_score", analysis.ControversyScore,
		"priority", recommendation.Priority.String(),
		"fallback", analysis.Fallback,
	)
	return analysis, nil
}

func (a OutcomeArbiter) recommend(
	ctx context.Context,
	logger *slog.Logger,
	pollID string,
	brief entities.OutcomeBrief,
) (entities.Recommendation, bool) {
	fallback := services.FallbackRecommendation(brief.ConsensusStrength)
	if a.Analyst == nil {
		return fallback, true
	}
	recommendation, err := a.Analyst.Recommend(ctx, brief)
	if err != nil {
		logger.Warn("recommendation unavailable; using fallback",
			"event", "outcome_arbiter_recommendation_fallback",
			"module", "governance/decision-engine",
			"layer", "application",
			"poll_id", pollID,
			"error", err.Error(),
		)
		return fallback, true
	}
	if math.IsNaN(recommendation.Confidence) {
		recommendation.Confidence = services.FallbackConfidence
	}
	recommendation.Confidence = math.Max(0, math.Min(1, recommendation.Confidence))
	return recommendation, false
}

func (a OutcomeArbiter) commentary(
	ctx context.Context,
	logger *slog.Logger,
	pollID string,
	brief entities.OutcomeBrief,
) (string, bool) {
	fallback := services.FallbackCommentary(brief.PollTitle, brief.WinnerText, brief.ConsensusStrength)
	if a.Analyst == nil {
		return fallback, true
	}
	text, err := a.Analyst.Commentary(ctx, brief)
	if err != nil || strings.TrimSpace(text) == "" {
		attrs := []any{
			"event", "outcome_arbiter_commentary_fallback",
			"module", "governance/decision-engine",
			"layer", "application",
			"poll_id", pollID,
		}
		if err != nil {
			attrs = append(attrs, "error", err.Error())
		}
		logger.Warn("commentary unavailable; using template", attrs...)
		return fallback, true
	}
	return strings.TrimSpace(text), false
}

func winnerText(poll entities.Poll, optionID string) string {
	for _, option := range poll.Options {
		if option.OptionID == optionID {
			return option.Text
		}
	}
	return ""
}

func tallyByText(poll entities.Poll, counts map[string]int) map[string]int {
	out := make(map[string]int, len(poll.Options))
	for _, option := range poll.Options {
		out[option.Text] = counts[option.OptionID]
	}
	return out
}

func (a OutcomeArbiter) now() time.Time {
	if a.Clock == nil {
		return time.Now().UTC()
	}
	return a.Clock.Now().UTC()
}
