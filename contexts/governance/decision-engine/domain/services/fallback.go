package services

import (
	"fmt"
	"strings"

	"girthgov/contexts/governance/decision-engine/domain/entities"
)

// FallbackConfidence marks content produced without the reasoning collaborator.
const FallbackConfidence = 0.3

// CategoryForContext maps an escalation type onto a decision category.
func CategoryForContext(contextType string) entities.Category {
	kind, metric, _ := strings.Cut(contextType, ":")
	switch kind {
	case "oracle_stability_collapse":
		return entities.CategoryTechnical
	case "legion_morale_collapse":
		return entities.CategoryCommunity
	case "resonance_fade":
		return entities.CategoryGameplay
	case "tap_surge_peak":
		return entities.CategoryRewards
	case "metric_anomaly":
		switch metric {
		case "balance":
			return entities.CategoryEconomy
		case "sentiment":
			return entities.CategoryCommunity
		case "throughput":
			return entities.CategoryTechnical
		default:
			return entities.CategoryGameplay
		}
	default:
		return entities.CategoryGameplay
	}
}

// FallbackAnalysis builds a conservative decision that always goes to a vote.
func FallbackAnalysis(decisionContext entities.DecisionContext) entities.DecisionAnalysis {
	category := CategoryForContext(decisionContext.Type)
	subject := strings.ReplaceAll(decisionContext.Type, "_", " ")
	subject = strings.ReplaceAll(subject, ":", " ")
	return entities.DecisionAnalysis{
		Category:           category,
		Reasoning:          fmt.Sprintf("automatic fallback for %s at severity %d", subject, decisionContext.Severity),
		Confidence:         FallbackConfidence,
		RequiresGovernance: true,
		Proposal: entities.PollProposal{
			Title:       fmt.Sprintf("How should the legion answer the %s?", subject),
			Description: fmt.Sprintf("The oracle detected %s (severity %d) and could not divine a plan on its own.", subject, decisionContext.Severity),
			Options: []entities.OptionProposal{
				{Text: "Intervene now", Impact: "immediate " + string(category) + " adjustment", Stakeholders: []string{"players", "admins"}},
				{Text: "Monitor for another cycle", Impact: "no change until the next measurement", Stakeholders: []string{"players"}},
				{Text: "Take no action", Impact: "accept the current state", Stakeholders: []string{"players"}},
			},
		},
	}
}

// FallbackRecommendation derives a recommendation from consensus alone.
func FallbackRecommendation(consensus float64) entities.Recommendation {
	priority := PriorityForConsensus(consensus)
	effort := "medium"
	switch priority {
	case entities.PriorityImmediate:
		effort = "low"
	case entities.PriorityDeferred:
		effort = "high"
	}
	return entities.Recommendation{
		Priority:       priority,
		Complexity:     "moderate",
		Effort:         effort,
		Resources:      []string{"core team"},
		Risks:          []string{"recommendation produced without analysis"},
		SuccessMetrics: []string{"resonance trend over the next 7 days"},
		Confidence:     FallbackConfidence,
	}
}

// FallbackCommentary is the template used when no commentary could be generated.
func FallbackCommentary(pollTitle string, winnerText string, consensus float64) string {
	if winnerText == "" {
		return fmt.Sprintf("The oracle falls silent on %q: no voice was raised.", pollTitle)
	}
	return fmt.Sprintf("The legion has spoken on %q. %q prevails with %.0f%% of the vote.",
		pollTitle, winnerText, consensus*100)
}

// AnnouncementCommentary opens a poll.
func AnnouncementCommentary(poll entities.Poll) string {
	return fmt.Sprintf("A new question rises before the legion: %s. Voting closes %s.",
		poll.Title, poll.VotingEnd.UTC().Format("2006-01-02 15:04 MST"))
}
