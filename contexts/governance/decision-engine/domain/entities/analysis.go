package entities

import (
	"fmt"
	"strings"
	"time"
)

type Priority int

const (
	PriorityDeferred Priority = iota
	PriorityScheduled
	PriorityImmediate
)

var priorityNames = [...]string{
	PriorityDeferred:  "deferred",
	PriorityScheduled: "scheduled",
	PriorityImmediate: "immediate",
}

func (p Priority) String() string {
	if p < 0 || int(p) >= len(priorityNames) {
		return "unknown"
	}
	return priorityNames[p]
}

func ParsePriority(value string) (Priority, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for i, name := range priorityNames {
		if name == normalized {
			return Priority(i), nil
		}
	}
	return 0, fmt.Errorf("unknown priority %q", value)
}

type Recommendation struct {
	Priority       Priority `json:"-"`
	Complexity     string   `json:"complexity"`
	Effort         string   `json:"effort"`
	Resources      []string `json:"resources"`
	Risks          []string `json:"risks"`
	SuccessMetrics []string `json:"success_metrics"`
	Confidence     float64  `json:"confidence"`
}

type AnalysisResult struct {
	PollID            string
	DecisionID        string
	WinnerOptionID    string
	ConsensusStrength float64
	ControversyScore  float64
	Recommendation    Recommendation
	Confidence        float64
	Fallback          bool
	CreatedAt         time.Time
}

// OutcomeBrief is what the arbiter hands the reasoning collaborator.
type OutcomeBrief struct {
	PollTitle         string
	WinnerText        string
	TotalVotes        int
	ConsensusStrength float64
	ControversyScore  float64
	Tally             map[string]int
}
