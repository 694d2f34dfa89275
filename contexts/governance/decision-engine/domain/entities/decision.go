package entities

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

type Category string

const (
	CategoryEconomy   Category = "economy"
	CategoryGameplay  Category = "gameplay"
	CategoryCommunity Category = "community"
	CategoryRewards   Category = "rewards"
	CategorySecurity  Category = "security"
	CategoryTechnical Category = "technical"
)

func AllCategories() []Category {
	return []Category{
		CategoryEconomy,
		CategoryGameplay,
		CategoryCommunity,
		CategoryRewards,
		CategorySecurity,
		CategoryTechnical,
	}
}

func ParseCategory(value string) (Category, error) {
	normalized := Category(strings.ToLower(strings.TrimSpace(value)))
	for _, category := range AllCategories() {
		if category == normalized {
			return category, nil
		}
	}
	return "", fmt.Errorf("unknown decision category %q", value)
}

// AutonomyLevel controls how visibly a decision is executed. It never gates
// poll creation; only the emergency brake does.
type AutonomyLevel int

const (
	AutonomyFull AutonomyLevel = iota
	AutonomyAdminNotified
	AutonomyAdminApproval
)

var autonomyNames = [...]string{
	AutonomyFull:          "full_autonomous",
	AutonomyAdminNotified: "admin_notified",
	AutonomyAdminApproval: "admin_approval",
}

func (l AutonomyLevel) String() string {
	if l < 0 || int(l) >= len(autonomyNames) {
		return "unknown"
	}
	return autonomyNames[l]
}

func AllAutonomyLevels() []AutonomyLevel {
	return []AutonomyLevel{AutonomyFull, AutonomyAdminNotified, AutonomyAdminApproval}
}

func ParseAutonomyLevel(value string) (AutonomyLevel, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, level := range AllAutonomyLevels() {
		if level.String() == normalized {
			return level, nil
		}
	}
	return 0, fmt.Errorf("unknown autonomy level %q", value)
}

// DecisionContext is an anomaly escalated by the ecosystem-health service.
type DecisionContext struct {
	ContextID   string
	Type        string
	Severity    int
	Snapshot    json.RawMessage
	Processed   bool
	CreatedAt   time.Time
	ProcessedAt *time.Time
}

// OptionProposal is one poll option as proposed by analysis.
type OptionProposal struct {
	Text         string   `json:"text"`
	Impact       string   `json:"impact,omitempty"`
	Stakeholders []string `json:"stakeholders,omitempty"`
}

// PollProposal is the poll a decision would put to the community.
type PollProposal struct {
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Options     []OptionProposal `json:"options"`
}

type Decision struct {
	DecisionID         string
	ContextID          string
	ContextType        string
	Category           Category
	Severity           int
	Reasoning          string
	Confidence         float64
	RequiresGovernance bool
	AutonomyLevel      AutonomyLevel
	Proposal           PollProposal
	Fallback           bool
	PollID             *string
	Executed           bool
	SuccessScore       *float64
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Linked reports whether a poll has been materialized for the decision.
func (d Decision) Linked() bool {
	return d.PollID != nil && strings.TrimSpace(*d.PollID) != ""
}

// DecisionAnalysis is what the reasoning collaborator returns for a context.
type DecisionAnalysis struct {
	Category           Category
	Reasoning          string
	Confidence         float64
	RequiresGovernance bool
	Proposal           PollProposal
}
