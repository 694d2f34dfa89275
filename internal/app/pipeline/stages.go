package pipeline

import (
	"context"

	girthindex "girthgov/contexts/ecosystem-health/girth-index-service"
	decisionengine "girthgov/contexts/governance/decision-engine"
	votingledger "girthgov/contexts/governance/voting-ledger"
)

const (
	StageScoring         = "scoring"
	StageAggregation     = "aggregation"
	StageSynthesis       = "synthesis"
	StageForge           = "forge"
	StageCompletion      = "completion"
	StageLearning        = "learning"
	StageGovernanceRelay = "governance-relay"
	StageVotingRelay     = "voting-relay"
)

// Toggles switches individual stages off; all are on by default.
type Toggles struct {
	DisableScoring     bool
	DisableAggregation bool
	DisableSynthesis   bool
	DisableForge       bool
	DisableCompletion  bool
	DisableLearning    bool
	DisableRelays      bool
}

// RegisterStages binds the module workers to the runner in pipeline order:
// scoring feeds contexts to synthesis, synthesis feeds the forge, and closed
// polls feed learning.
func RegisterStages(r *Runner, girth girthindex.Module, decisions decisionengine.Module, votes votingledger.Module, toggles Toggles) {
	if !toggles.DisableScoring {
		r.Register(StageScoring, func(ctx context.Context) (int, float64, error) {
			outcome, err := girth.ScoringEngine.RunOnce(ctx)
			return outcome.Claimed + outcome.Escalations, 1, err
		})
	}
	if !toggles.DisableAggregation {
		r.Register(StageAggregation, func(ctx context.Context) (int, float64, error) {
			outcome, err := girth.MetricAggregator.RunOnce(ctx)
			return len(outcome.Metrics), 1, err
		})
	}
	if !toggles.DisableSynthesis {
		r.Register(StageSynthesis, func(ctx context.Context) (int, float64, error) {
			outcome, err := decisions.Synthesizer.RunOnce(ctx)
			confidences := make([]float64, 0, len(outcome.Decisions))
			for _, decision := range outcome.Decisions {
				confidences = append(confidences, decision.Confidence)
			}
			return len(outcome.Decisions), mean(confidences), err
		})
	}
	if !toggles.DisableForge {
		r.Register(StageForge, func(ctx context.Context) (int, float64, error) {
			outcome, err := decisions.PollForge.RunOnce(ctx)
			return len(outcome.Created) + outcome.Executed, 1, err
		})
	}
	if !toggles.DisableCompletion {
		r.Register(StageCompletion, func(ctx context.Context) (int, float64, error) {
			outcome, err := decisions.CompletionWatcher.RunOnce(ctx)
			confidences := make([]float64, 0, len(outcome.Analyses))
			for _, analysis := range outcome.Analyses {
				confidences = append(confidences, analysis.Confidence)
			}
			return len(outcome.Completions) + outcome.Recovered, mean(confidences), err
		})
	}
	if !toggles.DisableLearning {
		r.Register(StageLearning, func(ctx context.Context) (int, float64, error) {
			outcome, err := decisions.LearningScribe.RunOnce(ctx)
			confidences := make([]float64, 0, len(outcome.Patterns))
			for _, pattern := range outcome.Patterns {
				confidences = append(confidences, pattern.Confidence)
			}
			return len(outcome.Applied), mean(confidences), err
		})
	}
	if !toggles.DisableRelays {
		r.Register(StageGovernanceRelay, func(ctx context.Context) (int, float64, error) {
			published, err := decisions.OutboxRelay.RunOnce(ctx)
			return published, 1, err
		})
		r.Register(StageVotingRelay, func(ctx context.Context) (int, float64, error) {
			published, err := votes.OutboxRelay.RunOnce(ctx)
			return published, 1, err
		})
	}
}

// mean is 1 for an idle run so empty passes do not drag stage confidence down.
func mean(values []float64) float64 {
	if len(values) == 0 {
		return 1
	}
	total := 0.0
	for _, value := range values {
		total += value
	}
	return total / float64(len(values))
}
