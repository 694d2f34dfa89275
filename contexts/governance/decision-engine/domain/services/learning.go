package services

import (
	"fmt"
	"math"
	"sort"
	"time"

	"girthgov/contexts/governance/decision-engine/domain/entities"
)

const (
	SuccessScoreThreshold = 0.5
	ConsensusSuccess      = 0.6

	ConfidenceThresholdMin  = 0.5
	ConfidenceThresholdMax  = 0.95
	ConfidenceThresholdStep = 0.05
	VotingDurationMinHours  = 12
	VotingDurationMaxHours  = 96
	VotingDurationStepHours = 12

	miscalibratedConfidence = 0.7
)

// Succeeded classifies an outcome. An externally supplied score wins over poll
// consensus; known is false when neither is available.
func Succeeded(outcome entities.DecisionOutcome) (success bool, known bool) {
	if outcome.Decision.SuccessScore != nil {
		return *outcome.Decision.SuccessScore >= SuccessScoreThreshold, true
	}
	if outcome.Analysis != nil {
		return outcome.Analysis.ConsensusStrength >= ConsensusSuccess, true
	}
	return false, false
}

// SummarizeCategories rolls outcomes up per category, sorted by category.
func SummarizeCategories(outcomes []entities.DecisionOutcome) []entities.CategoryOutcome {
	type acc struct {
		entities.CategoryOutcome
		confidence float64
		consensus  float64
		analyses   int
	}
	byCategory := map[entities.Category]*acc{}
	for _, outcome := range outcomes {
		category := outcome.Decision.Category
		item, ok := byCategory[category]
		if !ok {
			item = &acc{CategoryOutcome: entities.CategoryOutcome{Category: category}}
			byCategory[category] = item
		}
		item.Decisions++
		item.confidence += outcome.Decision.Confidence
		if outcome.Analysis != nil {
			item.consensus += outcome.Analysis.ConsensusStrength
			item.analyses++
		}
		if success, known := Succeeded(outcome); known {
			if success {
				item.Successes++
			} else {
				item.Failures++
			}
		}
	}
	out := make([]entities.CategoryOutcome, 0, len(byCategory))
	for _, item := range byCategory {
		item.AverageConfidence = item.confidence / float64(item.Decisions)
		if item.analyses > 0 {
			item.AverageConsensus = item.consensus / float64(item.analyses)
		}
		out = append(out, item.CategoryOutcome)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out
}

// SummarizeStages aggregates per-stage performance, sorted by stage name.
func SummarizeStages(activity []entities.StageActivity) []entities.StagePerformance {
	type acc struct {
		runs, successes int
		confidence      float64
		latency         int64
	}
	byStage := map[string]*acc{}
	for _, item := range activity {
		stage, ok := byStage[item.Stage]
		if !ok {
			stage = &acc{}
			byStage[item.Stage] = stage
		}
		stage.runs++
		if item.Success {
			stage.successes++
		}
		stage.confidence += item.Confidence
		stage.latency += item.LatencyMs
	}
	out := make([]entities.StagePerformance, 0, len(byStage))
	for name, stage := range byStage {
		runs := float64(stage.runs)
		out = append(out, entities.StagePerformance{
			Stage:             name,
			Runs:              stage.runs,
			SuccessRate:       float64(stage.successes) / runs,
			AverageConfidence: stage.confidence / runs,
			AverageLatencyMs:  float64(stage.latency) / runs,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Stage < out[j].Stage })
	return out
}

// FallbackReport derives patterns and config changes from counts alone.
func FallbackReport(categories []entities.CategoryOutcome, settings entities.GovernanceSettings, now time.Time) entities.PatternReport {
	report := entities.PatternReport{}
	successes, failures := 0, 0
	consensusSum, consensusN := 0.0, 0
	for _, item := range categories {
		successes += item.Successes
		failures += item.Failures
		if item.AverageConsensus > 0 {
			consensusSum += item.AverageConsensus
			consensusN++
		}
		evidence := []string{fmt.Sprintf("%d decisions, %d succeeded, %d failed", item.Decisions, item.Successes, item.Failures)}
		switch {
		case item.Successes > 0 && item.Successes >= item.Failures:
			report.Patterns = append(report.Patterns, entities.LearningPattern{
				Type:        entities.PatternSuccess,
				Category:    item.Category,
				Description: fmt.Sprintf("%s decisions mostly succeed", item.Category),
				Confidence:  ratio(item.Successes, item.Successes+item.Failures),
				Evidence:    evidence,
				Fallback:    true,
				CreatedAt:   now,
			})
		case item.Failures > item.Successes:
			report.Patterns = append(report.Patterns, entities.LearningPattern{
				Type:                    entities.PatternFailure,
				Category:                item.Category,
				Description:             fmt.Sprintf("%s decisions mostly fail", item.Category),
				Confidence:              ratio(item.Failures, item.Successes+item.Failures),
				Evidence:                evidence,
				RecommendedImprovements: []string{"route more " + string(item.Category) + " decisions to a vote"},
				Fallback:                true,
				CreatedAt:               now,
			})
		}
		if item.AverageConfidence >= miscalibratedConfidence && item.Failures > item.Successes {
			report.Patterns = append(report.Patterns, entities.LearningPattern{
				Type:        entities.PatternConfidenceMiscalibrated,
				Category:    item.Category,
				Description: fmt.Sprintf("%s decisions are confident but fail", item.Category),
				Confidence:  item.AverageConfidence,
				Evidence:    evidence,
				Fallback:    true,
				CreatedAt:   now,
			})
		}
	}

	if failures > successes {
		report.ConfigChanges = append(report.ConfigChanges, entities.ConfigChange{
			Knob:   entities.KnobConfidenceThreshold,
			From:   settings.ConfidenceThreshold,
			To:     settings.ConfidenceThreshold + ConfidenceThresholdStep,
			Reason: "failures outnumber successes; send more decisions to governance",
		})
	}
	if consensusN > 0 && consensusSum/float64(consensusN) < ConsensusSuccess {
		report.ConfigChanges = append(report.ConfigChanges, entities.ConfigChange{
			Knob:   entities.KnobVotingDurationHours,
			From:   float64(settings.VotingDurationHours),
			To:     float64(settings.VotingDurationHours + VotingDurationStepHours),
			Reason: "weak consensus; give the legion more time to vote",
		})
	}
	return report
}

// ValidateConfigChange checks a change against the knob's bounds. Changes from
// the learning loop are additionally limited to one step from the current value.
// From is always reset to the current setting.
func ValidateConfigChange(change entities.ConfigChange, settings entities.GovernanceSettings, stepLimited bool) (entities.ConfigChange, error) {
	change.From = settings.Value(change.Knob)
	if math.IsNaN(change.To) || math.IsInf(change.To, 0) {
		return change, fmt.Errorf("config change %s: non-finite value", change.Knob)
	}
	switch change.Knob {
	case entities.KnobConfidenceThreshold:
		change.To = math.Round(change.To*1000) / 1000
		if change.To < ConfidenceThresholdMin || change.To > ConfidenceThresholdMax {
			return change, fmt.Errorf("config change %s: %.2f outside [%.2f, %.2f]", change.Knob, change.To, ConfidenceThresholdMin, ConfidenceThresholdMax)
		}
		if stepLimited && math.Abs(change.To-change.From) > ConfidenceThresholdStep+1e-9 {
			return change, fmt.Errorf("config change %s: step larger than %.2f", change.Knob, ConfidenceThresholdStep)
		}
	case entities.KnobVotingDurationHours:
		if change.To != math.Trunc(change.To) {
			return change, fmt.Errorf("config change %s: hours must be whole", change.Knob)
		}
		if change.To < VotingDurationMinHours || change.To > VotingDurationMaxHours {
			return change, fmt.Errorf("config change %s: %.0f outside [%d, %d]", change.Knob, change.To, VotingDurationMinHours, VotingDurationMaxHours)
		}
		if stepLimited && math.Abs(change.To-change.From) > VotingDurationStepHours {
			return change, fmt.Errorf("config change %s: step larger than %d hours", change.Knob, VotingDurationStepHours)
		}
	default:
		return change, fmt.Errorf("unknown config knob %q", change.Knob)
	}
	return change, nil
}

// ApplyConfigChange returns settings with a validated change applied.
func ApplyConfigChange(settings entities.GovernanceSettings, change entities.ConfigChange) entities.GovernanceSettings {
	switch change.Knob {
	case entities.KnobConfidenceThreshold:
		settings.ConfidenceThreshold = math.Round(change.To*1000) / 1000
	case entities.KnobVotingDurationHours:
		settings.VotingDurationHours = int(change.To)
	}
	return settings
}

func ratio(part int, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total)
}
