package workers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	application "girthgov/contexts/ecosystem-health/girth-index-service/application"
	"girthgov/contexts/ecosystem-health/girth-index-service/domain/entities"
	domainerrors "girthgov/contexts/ecosystem-health/girth-index-service/domain/errors"
	"girthgov/contexts/ecosystem-health/girth-index-service/domain/services"
	"girthgov/contexts/ecosystem-health/girth-index-service/ports"
)

// EventScoringEngine folds newly claimed gameplay events into the GirthIndex.
type EventScoringEngine struct {
	Events    ports.EventRepository
	Index     ports.IndexRepository
	Clock     ports.Clock
	IDGen     ports.IDGenerator
	BatchSize int
	Logger    *slog.Logger
}

// ScoringOutcome summarizes one pass for callers and tests.
type ScoringOutcome struct {
	Claimed     int
	Decayed     bool
	Index       entities.GirthIndex
	Escalations int
}

// RunOnce claims a bounded batch of unprocessed events, rescoring from the
// activity windows. With nothing to claim it applies idle decay instead. When
// the index write loses a version race the claimed events are released so the
// next pass rescores them.
func (w EventScoringEngine) RunOnce(ctx context.Context) (ScoringOutcome, error) {
	logger := application.ResolveLogger(w.Logger)
	limit := w.BatchSize
	if limit <= 0 {
		limit = 100
	}
	now := w.now()

	current, err := w.Index.GetIndex(ctx)
	if errors.Is(err, domainerrors.ErrIndexNotFound) {
		current = entities.InitialGirthIndex(now)
	} else if err != nil {
		logger.Error("girth index load failed",
			"event", "girth_scoring_index_load_failed",
			"module", "ecosystem-health/girth-index-service",
			"layer", "worker",
			"error", err.Error(),
		)
		return ScoringOutcome{}, err
	}

	claimed, err := w.Events.ClaimUnprocessedEvents(ctx, limit, now)
	if err != nil {
		logger.Error("girth event claim failed",
			"event", "girth_scoring_claim_failed",
			"module", "ecosystem-health/girth-index-service",
			"layer", "worker",
			"error", err.Error(),
		)
		return ScoringOutcome{}, err
	}

	if len(claimed) == 0 {
		return w.decay(ctx, logger, current, now)
	}

	recent, err := w.Events.ListEventsSince(ctx, now.Add(-services.CommunityWindow))
	if err != nil {
		w.release(ctx, logger, claimed)
		return ScoringOutcome{}, err
	}
	player, hasPlayer := services.BuildPlayerActivity(recent, now)
	input := services.ScoringInput{
		Player:    player,
		HasPlayer: hasPlayer,
		Community: services.BuildCommunityActivity(recent, now),
		BatchSize: len(claimed),
	}
	next, breakdown := services.Score(current, input, now)
	contexts, err := w.escalationContexts(ctx, current, next, breakdown, now)
	if err != nil {
		w.release(ctx, logger, claimed)
		return ScoringOutcome{}, err
	}

	saved, err := w.Index.SaveIndex(ctx, next, current.Version, contexts)
	if err != nil {
		logger.Warn("girth index save failed; releasing claimed events",
			"event", "girth_scoring_save_failed",
			"module", "ecosystem-health/girth-index-service",
			"layer", "worker",
			"expected_version", current.Version,
			"claimed", len(claimed),
			"error", err.Error(),
		)
		w.release(ctx, logger, claimed)
		return ScoringOutcome{}, err
	}

	logger.Info("girth index rescored",
		"event", "girth_scoring_completed",
		"module", "ecosystem-health/girth-index-service",
		"layer", "worker",
		"claimed", len(claimed),
		"version", saved.Version,
		"resonance", saved.Resonance,
		"tap_surge", saved.TapSurge.String(),
		"legion_morale", saved.LegionMorale.String(),
		"oracle_stability", saved.OracleStability.String(),
		"escalations", len(contexts),
	)
	return ScoringOutcome{Claimed: len(claimed), Index: saved, Escalations: len(contexts)}, nil
}

func (w EventScoringEngine) decay(
	ctx context.Context,
	logger *slog.Logger,
	current entities.GirthIndex,
	now time.Time,
) (ScoringOutcome, error) {
	if current.Version == 0 || !services.NeedsDecay(current, now) {
		logger.Debug("girth scoring found no events",
			"event", "girth_scoring_noop",
			"module", "ecosystem-health/girth-index-service",
			"layer", "worker",
		)
		return ScoringOutcome{Index: current}, nil
	}

	next := services.Decay(current, now)
	contexts, err := w.escalationContexts(ctx, current, next, services.Breakdown{Resonance: next.Resonance}, now)
	if err != nil {
		return ScoringOutcome{}, err
	}
	saved, err := w.Index.SaveIndex(ctx, next, current.Version, contexts)
	if err != nil {
		logger.Warn("girth decay save failed",
			"event", "girth_decay_save_failed",
			"module", "ecosystem-health/girth-index-service",
			"layer", "worker",
			"expected_version", current.Version,
			"error", err.Error(),
		)
		return ScoringOutcome{}, err
	}
	logger.Info("girth index decayed",
		"event", "girth_decay_completed",
		"module", "ecosystem-health/girth-index-service",
		"layer", "worker",
		"version", saved.Version,
		"resonance", saved.Resonance,
		"oracle_stability", saved.OracleStability.String(),
	)
	return ScoringOutcome{Decayed: true, Index: saved, Escalations: len(contexts)}, nil
}

type escalationSnapshot struct {
	From      string             `json:"from,omitempty"`
	To        string             `json:"to,omitempty"`
	Index     indexSnapshot      `json:"index"`
	Breakdown services.Breakdown `json:"breakdown"`
}

type indexSnapshot struct {
	Resonance       float64 `json:"resonance"`
	TapSurge        string  `json:"tap_surge"`
	LegionMorale    string  `json:"legion_morale"`
	OracleStability string  `json:"oracle_stability"`
}

func (w EventScoringEngine) escalationContexts(
	ctx context.Context,
	prev entities.GirthIndex,
	next entities.GirthIndex,
	breakdown services.Breakdown,
	now time.Time,
) ([]entities.DecisionContext, error) {
	escalations := services.Escalations(prev, next)
	if len(escalations) == 0 {
		return nil, nil
	}
	contexts := make([]entities.DecisionContext, 0, len(escalations))
	for _, escalation := range escalations {
		id, err := w.IDGen.NewID(ctx)
		if err != nil {
			return nil, err
		}
		snapshot, err := json.Marshal(escalationSnapshot{
			From: escalation.From,
			To:   escalation.To,
			Index: indexSnapshot{
				Resonance:       next.Resonance,
				TapSurge:        next.TapSurge.String(),
				LegionMorale:    next.LegionMorale.String(),
				OracleStability: next.OracleStability.String(),
			},
			Breakdown: breakdown,
		})
		if err != nil {
			return nil, err
		}
		contexts = append(contexts, entities.DecisionContext{
			ContextID: id,
			Type:      escalation.Type,
			Severity:  escalation.Severity,
			Snapshot:  snapshot,
			CreatedAt: now,
		})
	}
	return contexts, nil
}

func (w EventScoringEngine) release(ctx context.Context, logger *slog.Logger, claimed []entities.GameEvent) {
	ids := make([]string, 0, len(claimed))
	for _, event := range claimed {
		ids = append(ids, event.EventID)
	}
	if err := w.Events.ReleaseEvents(ctx, ids); err != nil {
		logger.Error("girth event release failed",
			"event", "girth_scoring_release_failed",
			"module", "ecosystem-health/girth-index-service",
			"layer", "worker",
			"claimed", len(ids),
			"error", err.Error(),
		)
	}
}

func (w EventScoringEngine) now() time.Time {
	if w.Clock == nil {
		return time.Now().UTC()
	}
	return w.Clock.Now().UTC()
}
