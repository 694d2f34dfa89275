package oracleadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"girthgov/contexts/governance/decision-engine/domain/entities"
	"girthgov/contexts/governance/decision-engine/ports"
	"girthgov/internal/platform/oracle"
)

// Analyst adapts a text completer to the decision engine's analyst ports.
// Every method returns an error on an unusable completion; callers fall back.
type Analyst struct {
	Completer oracle.Completer
	Logger    *slog.Logger
}

func NewAnalyst(completer oracle.Completer, logger *slog.Logger) Analyst {
	if completer == nil {
		completer = oracle.Offline{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return Analyst{Completer: completer, Logger: logger}
}

type decisionReply struct {
	Category           string  `json:"category"`
	Reasoning          string  `json:"reasoning"`
	Confidence         float64 `json:"confidence"`
	RequiresGovernance bool    `json:"requires_governance"`
	Poll               struct {
		Title         string                    `json:"title"`
		Description   string                    `json:"description"`
		DurationHours int                       `json:"duration_hours"`
		Options       []entities.OptionProposal `json:"options"`
	} `json:"poll"`
}

func (a Analyst) AnalyzeContext(
	ctx context.Context,
	decisionContext entities.DecisionContext,
	settings entities.GovernanceSettings,
) (entities.DecisionAnalysis, error) {
	prompt := fmt.Sprintf(`You are the governing oracle of a tap-to-earn game ecosystem.
An escalation was raised:
type: %s
severity: %d (0-10)
snapshot: %s

Decide how to respond. Decisions with confidence below %.2f go to a community vote.
Reply with one JSON object only:
{"category": one of [%s],
 "reasoning": string,
 "confidence": number between 0 and 1,
 "requires_governance": boolean,
 "poll": {"title": string, "description": string, "duration_hours": integer,
          "options": [{"text": string, "impact": string, "stakeholders": [string]}]}}`,
		decisionContext.Type,
		decisionContext.Severity,
		snapshotText(decisionContext.Snapshot),
		settings.ConfidenceThreshold,
		categoryList(),
	)

	var reply decisionReply
	if err := a.complete(ctx, "analyze_context", prompt, &reply); err != nil {
		return entities.DecisionAnalysis{}, err
	}
	category, err := entities.ParseCategory(reply.Category)
	if err != nil {
		category = ""
	}
	return entities.DecisionAnalysis{
		Category:           category,
		Reasoning:          strings.TrimSpace(reply.Reasoning),
		Confidence:         reply.Confidence,
		RequiresGovernance: reply.RequiresGovernance,
		Proposal: entities.PollProposal{
			Title:       strings.TrimSpace(reply.Poll.Title),
			Description: strings.TrimSpace(reply.Poll.Description),
			Options:     reply.Poll.Options,
		},
	}, nil
}

type recommendationReply struct {
	entities.Recommendation
	Priority string `json:"priority"`
}

func (a Analyst) Recommend(ctx context.Context, brief entities.OutcomeBrief) (entities.Recommendation, error) {
	prompt := fmt.Sprintf(`A community poll has closed.
title: %q
winning option: %q
total votes: %d
consensus strength: %.2f
controversy score: %.2f
tally: %s

Recommend how to implement the outcome. Reply with one JSON object only:
{"priority": "immediate" | "scheduled" | "deferred",
 "complexity": string, "effort": string,
 "resources": [string], "risks": [string], "success_metrics": [string],
 "confidence": number between 0 and 1}`,
		brief.PollTitle, brief.WinnerText, brief.TotalVotes,
		brief.ConsensusStrength, brief.ControversyScore, tallyText(brief.Tally),
	)

	var reply recommendationReply
	if err := a.complete(ctx, "recommend", prompt, &reply); err != nil {
		return entities.Recommendation{}, err
	}
	priority, err := entities.ParsePriority(reply.Priority)
	if err != nil {
		return entities.Recommendation{}, err
	}
	recommendation := reply.Recommendation
	recommendation.Priority = priority
	return recommendation, nil
}

func (a Analyst) Commentary(ctx context.Context, brief entities.OutcomeBrief) (string, error) {
	prompt := fmt.Sprintf(`Speak as the mystical oracle of the legion in two or three sentences.
Announce the outcome of the poll %q: %q won with %.0f%% of %d votes (controversy %.2f).
Reply with plain text only.`,
		brief.PollTitle, brief.WinnerText, brief.ConsensusStrength*100, brief.TotalVotes, brief.ControversyScore)

	raw, err := a.Completer.Complete(ctx, prompt, oracle.FormatText)
	if err != nil {
		a.warn("commentary", err)
		return "", err
	}
	text := strings.TrimSpace(raw)
	if text == "" {
		return "", oracle.ErrUnavailable
	}
	return text, nil
}

type patternReply struct {
	Patterns []struct {
		Type                    string   `json:"type"`
		Category                string   `json:"category"`
		Description             string   `json:"description"`
		Confidence              float64  `json:"confidence"`
		Evidence                []string `json:"evidence"`
		RecommendedImprovements []string `json:"recommended_improvements"`
	} `json:"patterns"`
	ConfigChanges []struct {
		Knob   string  `json:"knob"`
		Value  float64 `json:"value"`
		Reason string  `json:"reason"`
	} `json:"config_changes"`
}

func (a Analyst) MinePatterns(ctx context.Context, brief entities.LearningBrief) (entities.PatternReport, error) {
	categories, err := json.Marshal(brief.Categories)
	if err != nil {
		return entities.PatternReport{}, err
	}
	stages, err := json.Marshal(brief.Stages)
	if err != nil {
		return entities.PatternReport{}, err
	}
	prompt := fmt.Sprintf(`Review governance outcomes from %s to %s.
Per category: %s
Per pipeline stage: %s
Current settings: confidence_threshold=%.2f voting_duration_hours=%d

Identify patterns and propose bounded setting changes. Reply with one JSON object only:
{"patterns": [{"type": one of ["success_pattern","failure_pattern","confidence_miscalibration","category_effect"],
               "category": string, "description": string, "confidence": number,
               "evidence": [string], "recommended_improvements": [string]}],
 "config_changes": [{"knob": "confidence_threshold" | "voting_duration_hours", "value": number, "reason": string}]}`,
		brief.WindowStart.UTC().Format("2006-01-02"),
		brief.WindowEnd.UTC().Format("2006-01-02"),
		categories, stages,
		brief.Settings.ConfidenceThreshold, brief.Settings.VotingDurationHours,
	)

	var reply patternReply
	if err := a.complete(ctx, "mine_patterns", prompt, &reply); err != nil {
		return entities.PatternReport{}, err
	}
	report := entities.PatternReport{}
	for _, item := range reply.Patterns {
		category, _ := entities.ParseCategory(item.Category)
		report.Patterns = append(report.Patterns, entities.LearningPattern{
			Type:                    entities.PatternType(strings.TrimSpace(item.Type)),
			Category:                category,
			Description:             strings.TrimSpace(item.Description),
			Confidence:              item.Confidence,
			Evidence:                item.Evidence,
			RecommendedImprovements: item.RecommendedImprovements,
		})
	}
	for _, item := range reply.ConfigChanges {
		knob, err := entities.ParseConfigKnob(item.Knob)
		if err != nil {
			continue
		}
		report.ConfigChanges = append(report.ConfigChanges, entities.ConfigChange{
			Knob:   knob,
			To:     item.Value,
			Reason: strings.TrimSpace(item.Reason),
		})
	}
	return report, nil
}

func (a Analyst) complete(ctx context.Context, operation string, prompt string, out any) error {
	raw, err := a.Completer.Complete(ctx, prompt, oracle.FormatJSON)
	if err != nil {
		a.warn(operation, err)
		return err
	}
	if err := oracle.DecodeJSON(raw, out); err != nil {
		a.warn(operation, err)
		return err
	}
	return nil
}

func (a Analyst) warn(operation string, err error) {
	a.Logger.Warn("reasoning collaborator reply unusable",
		"event", "decision_oracle_reply_unusable",
		"module", "governance/decision-engine",
		"layer", "adapter",
		"operation", operation,
		"error", err.Error(),
	)
}

func snapshotText(snapshot json.RawMessage) string {
	if len(snapshot) == 0 {
		return "{}"
	}
	return string(snapshot)
}

func categoryList() string {
	names := make([]string, 0, len(entities.AllCategories()))
	for _, category := range entities.AllCategories() {
		names = append(names, fmt.Sprintf("%q", string(category)))
	}
	return strings.Join(names, ",")
}

func tallyText(tally map[string]int) string {
	raw, err := json.Marshal(tally)
	if err != nil {
		return "{}"
	}
	return string(raw)
}

var (
	_ ports.DecisionAnalyst = Analyst{}
	_ ports.OutcomeAnalyst  = Analyst{}
	_ ports.PatternAnalyst  = Analyst{}
)
