package services

import (
	"math"
	"sort"

	"girthgov/contexts/governance/decision-engine/domain/entities"
)

const (
	AdminReviewVoteThreshold  = 50
	AdminReviewShareThreshold = 0.6

	immediateConsensus = 0.75
	scheduledConsensus = 0.6
)

type TallyResult struct {
	Total               int
	WinnerOptionID      string
	WinnerShare         float64
	RunnerUpShare       float64
	ConsensusStrength   float64
	ControversyScore    float64
	AdminReviewRequired bool
	FinalTally          map[string]int
}

// Tally ranks options by votes. Ties go to the lowest option position, so the
// winner never depends on storage order. Votes for unknown options are ignored.
func Tally(options []entities.PollOption, counts map[string]int) TallyResult {
	ranked := append([]entities.PollOption(nil), options...)
	final := make(map[string]int, len(ranked))
	total := 0
	for _, option := range ranked {
		count := counts[option.OptionID]
		if count < 0 {
			count = 0
		}
		final[option.OptionID] = count
		total += count
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		ci, cj := final[ranked[i].OptionID], final[ranked[j].OptionID]
		if ci != cj {
			return ci > cj
		}
		return ranked[i].Position < ranked[j].Position
	})

	result := TallyResult{Total: total, FinalTally: final}
	if len(ranked) == 0 {
		result.AdminReviewRequired = true
		return result
	}
	result.WinnerOptionID = ranked[0].OptionID
	if total > 0 {
		result.WinnerShare = float64(final[ranked[0].OptionID]) / float64(total)
		if len(ranked) > 1 {
			result.RunnerUpShare = float64(final[ranked[1].OptionID]) / float64(total)
		}
	}
	result.ConsensusStrength = result.WinnerShare
	result.ControversyScore = 1 - math.Abs(result.WinnerShare-result.RunnerUpShare)
	result.AdminReviewRequired = total > AdminReviewVoteThreshold || result.WinnerShare < AdminReviewShareThreshold
	return result
}

// PriorityForConsensus is the deterministic implementation priority used when
// no recommendation could be obtained.
func PriorityForConsensus(consensus float64) entities.Priority {
	switch {
	case consensus >= immediateConsensus:
		return entities.PriorityImmediate
	case consensus >= scheduledConsensus:
		return entities.PriorityScheduled
	default:
		return entities.PriorityDeferred
	}
}
