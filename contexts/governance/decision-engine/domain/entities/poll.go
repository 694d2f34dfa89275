package entities

import (
	"fmt"
	"strings"
	"time"
)

type PollStatus int

const (
	PollActive PollStatus = iota
	PollClosed
	PollAdminPaused
	PollAdminCancelled
)

var pollStatusNames = [...]string{
	PollActive:         "active",
	PollClosed:         "closed",
	PollAdminPaused:    "admin_paused",
	PollAdminCancelled: "admin_cancelled",
}

func (s PollStatus) String() string {
	if s < 0 || int(s) >= len(pollStatusNames) {
		return "unknown"
	}
	return pollStatusNames[s]
}

func AllPollStatuses() []PollStatus {
	return []PollStatus{PollActive, PollClosed, PollAdminPaused, PollAdminCancelled}
}

func ParsePollStatus(value string) (PollStatus, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, status := range AllPollStatuses() {
		if status.String() == normalized {
			return status, nil
		}
	}
	return 0, fmt.Errorf("unknown poll status %q", value)
}

// Final reports whether no further transition is allowed.
func (s PollStatus) Final() bool {
	return s == PollClosed || s == PollAdminCancelled
}

type Poll struct {
	PollID        string
	DecisionID    string
	Title         string
	Description   string
	Options       []PollOption
	VotingStart   time.Time
	VotingEnd     time.Time
	Status        PollStatus
	RewardPerVote float64
	AutonomyLevel AutonomyLevel
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type PollOption struct {
	OptionID     string
	PollID       string
	Position     int
	Text         string
	Impact       string
	Stakeholders []string
	VotesCount   int
}

type CommentaryKind string

const (
	CommentaryAnnouncement CommentaryKind = "announcement"
	CommentaryOutcome      CommentaryKind = "outcome"
)

type PollCommentary struct {
	CommentaryID string
	PollID       string
	Kind         CommentaryKind
	Body         string
	Fallback     bool
	CreatedAt    time.Time
}

type PollCompletionEvent struct {
	PollID              string
	CompletedAt         time.Time
	TotalVotes          int
	WinnerOptionID      string
	FinalTally          map[string]int
	AdminReviewRequired bool
}

// PollPatch carries an admin modification; nil fields are left unchanged.
type PollPatch struct {
	Title     *string
	VotingEnd *time.Time
}
