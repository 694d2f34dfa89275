package workers

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"strings"
	"time"

	application "girthgov/contexts/governance/decision-engine/application"
	"girthgov/contexts/governance/decision-engine/domain/entities"
	"girthgov/contexts/governance/decision-engine/domain/services"
	"girthgov/contexts/governance/decision-engine/ports"
)

// MinDecisionSeverity is the floor below which contexts never become decisions,
// whatever the configured minimum.
const MinDecisionSeverity = 5

const minProposalOptions = 2

// DecisionSynthesizer turns claimed decision contexts into decisions.
type DecisionSynthesizer struct {
	Contexts  ports.ContextRepository
	Decisions ports.DecisionRepository
	Settings  ports.SettingsRepository
	Analyst   ports.DecisionAnalyst
	Clock     ports.Clock
	IDGen     ports.IDGenerator
	Defaults  entities.GovernanceSettings
	BatchSize int
	Logger    *slog.Logger
}

type SynthesisOutcome struct {
	Claimed   int
	Decisions []entities.Decision
	Fallbacks int
}

// RunOnce claims a batch of severe contexts and persists one decision each.
// Every context whose decision cannot be saved is released for the next run;
// the rest of the batch is still processed.
func (w DecisionSynthesizer) RunOnce(ctx context.Context) (SynthesisOutcome, error) {
	logger := application.ResolveLogger(w.Logger)
	limit := w.BatchSize
	if limit <= 0 {
		limit = 100
	}
	now := w.now()

	settings, err := application.LoadSettings(ctx, w.Settings, w.Defaults)
	if err != nil {
		return SynthesisOutcome{}, err
	}
	minSeverity := settings.MinContextSeverity
	if minSeverity < MinDecisionSeverity {
		minSeverity = MinDecisionSeverity
	}

	claimed, err := w.Contexts.ClaimContexts(ctx, minSeverity, limit, now)
	if err != nil {
		logger.Error("decision context claim failed",
			"event", "decision_synthesis_claim_failed",
			"module", "governance/decision-engine",
			"layer", "worker",
			"error", err.Error(),
		)
		return SynthesisOutcome{}, err
	}
	outcome := SynthesisOutcome{Claimed: len(claimed)}
	if len(claimed) == 0 {
		logger.Debug("decision synthesis found no contexts",
			"event", "decision_synthesis_noop",
			"module", "governance/decision-engine",
			"layer", "worker",
			"min_severity", minSeverity,
		)
		return outcome, nil
	}

	var failures []error
	for _, item := range claimed {
		if item.Severity < MinDecisionSeverity {
			continue
		}
		decision, err := w.synthesize(ctx, logger, item, settings, now)
		if err == nil {
			err = w.Decisions.SaveDecision(ctx, decision)
		}
		if err != nil {
			logger.Error("decision persist failed; releasing context",
				"event", "decision_synthesis_persist_failed",
				"module", "governance/decision-engine",
				"layer", "worker",
				"context_id", item.ContextID,
				"error", err.Error(),
			)
			if releaseErr := w.Contexts.ReleaseContext(ctx, item.ContextID); releaseErr != nil {
				logger.Error("decision context release failed",
					"event", "decision_synthesis_release_failed",
					"module", "governance/decision-engine",
					"layer", "worker",
					"context_id", item.ContextID,
					"error", releaseErr.Error(),
				)
			}
			failures = append(failures, err)
			continue
		}
		if decision.Fallback {
			outcome.Fallbacks++
		}
		outcome.Decisions = append(outcome.Decisions, decision)
		logger.Info("decision synthesized",
			"event", "decision_synthesized",
			"module", "governance/decision-engine",
			"layer", "worker",
			"decision_id", decision.DecisionID,
			"context_id", item.ContextID,
			"category", string(decision.Category),
			"confidence", decision.Confidence,
			"requires_governance", decision.RequiresGovernance,
			"fallback", decision.Fallback,
		)
	}
	return outcome, errors.Join(failures...)
}

func (w DecisionSynthesizer) synthesize(
	ctx context.Context,
	logger *slog.Logger,
	item entities.DecisionContext,
	settings entities.GovernanceSettings,
	now time.Time,
) (entities.Decision, error) {
	analysis, fallback := w.analyze(ctx, logger, item, settings)
	id, err := w.IDGen.NewID(ctx)
	if err != nil {
		return entities.Decision{}, err
	}
	requiresGovernance := analysis.RequiresGovernance || analysis.Confidence < settings.ConfidenceThreshold
	return entities.Decision{
		DecisionID:         id,
		ContextID:          item.ContextID,
		ContextType:        item.Type,
		Category:           analysis.Category,
		Severity:           item.Severity,
		Reasoning:          analysis.Reasoning,
		Confidence:         analysis.Confidence,
		RequiresGovernance: requiresGovernance,
		AutonomyLevel:      services.AutonomyFor(analysis.Category, item.Severity),
		Proposal:           analysis.Proposal,
		Fallback:           fallback,
		CreatedAt:          now,
		UpdatedAt:          now,
	}, nil
}

// analyze asks the collaborator and repairs or replaces what comes back.
func (w DecisionSynthesizer) analyze(
	ctx context.Context,
	logger *slog.Logger,
	item entities.DecisionContext,
	settings entities.GovernanceSettings,
) (entities.DecisionAnalysis, bool) {
	fallback := services.FallbackAnalysis(item)
	if w.Analyst == nil {
		return fallback, true
	}
	analysis, err := w.Analyst.AnalyzeContext(ctx, item, settings)
	if err != nil {
		logger.Warn("decision analysis unavailable; using fallback",
			"event", "decision_synthesis_fallback",
			"module", "governance/decision-engine",
			"layer", "worker",
			"context_id", item.ContextID,
			"error", err.Error(),
		)
		return fallback, true
	}
	if _, parseErr := entities.ParseCategory(string(analysis.Category)); parseErr != nil {
		analysis.Category = fallback.Category
	}
	if math.IsNaN(analysis.Confidence) {
		analysis.Confidence = services.FallbackConfidence
	}
	analysis.Confidence = math.Max(0, math.Min(1, analysis.Confidence))
	if strings.TrimSpace(analysis.Reasoning) == "" {
		analysis.Reasoning = fallback.Reasoning
	}
	if !usableProposal(analysis.Proposal) {
		analysis.Proposal = fallback.Proposal
	}
	return analysis, false
}

func usableProposal(proposal entities.PollProposal) bool {
	if strings.TrimSpace(proposal.Title) == "" {
		return false
	}
	options := 0
	for _, option := range proposal.Options {
		if strings.TrimSpace(option.Text) != "" {
			options++
		}
	}
	return options >= minProposalOptions
}

func (w DecisionSynthesizer) now() time.Time {
	if w.Clock == nil {
		return time.Now().UTC()
	}
	return w.Clock.Now().UTC()
}
