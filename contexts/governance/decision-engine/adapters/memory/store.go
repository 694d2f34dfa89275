package memory

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"girthgov/contexts/governance/decision-engine/domain/entities"
	domainerrors "girthgov/contexts/governance/decision-engine/domain/errors"
	"girthgov/contexts/governance/decision-engine/ports"

	"github.com/google/uuid"
)

type Store struct {
	mu sync.RWMutex

	contexts    map[string]entities.DecisionContext
	decisions   map[string]entities.Decision
	polls       map[string]entities.Poll
	commentary  map[string][]entities.PollCommentary
	completions map[string]entities.PollCompletionEvent
	analyses    map[string]entities.AnalysisResult
	votes       map[string]map[string]int
	patterns    []entities.LearningPattern
	settings    *entities.GovernanceSettings
	brake       entities.EmergencyBrake
	actions     []entities.AdminAction
	activity    []entities.StageActivity
	outbox      []outboxRecord
	now         time.Time
}

type outboxRecord struct {
	message   ports.OutboxMessage
	published bool
}

func NewStore(seed []entities.DecisionContext) *Store {
	store := &Store{
		contexts:    make(map[string]entities.DecisionContext, len(seed)),
		decisions:   make(map[string]entities.Decision),
		polls:       make(map[string]entities.Poll),
		commentary:  make(map[string][]entities.PollCommentary),
		completions: make(map[string]entities.PollCompletionEvent),
		analyses:    make(map[string]entities.AnalysisResult),
		votes:       make(map[string]map[string]int),
	}
	for _, item := range seed {
		store.contexts[item.ContextID] = item
	}
	return store
}

func (s *Store) SetNow(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now.UTC()
}

func (s *Store) AddContext(item entities.DecisionContext) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contexts[item.ContextID] = item
}

func (s *Store) SetDecision(decision entities.Decision) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.decisions[decision.DecisionID] = decision
}

func (s *Store) SetPoll(poll entities.Poll) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.polls[poll.PollID] = clonePoll(poll)
}

// SetVoteCounts replaces the per-option counts CountVotes reports for a poll.
func (s *Store) SetVoteCounts(pollID string, counts map[string]int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := make(map[string]int, len(counts))
	for optionID, count := range counts {
		copied[optionID] = count
	}
	s.votes[pollID] = copied
}

func (s *Store) Decisions() []entities.Decision {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Decision, 0, len(s.decisions))
	for _, decision := range s.decisions {
		items = append(items, decision)
	}
	sortDecisions(items)
	return items
}

func (s *Store) Context(contextID string) (entities.DecisionContext, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.contexts[contextID]
	return item, ok
}

func (s *Store) Completion(pollID string) (entities.PollCompletionEvent, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.completions[pollID]
	return item, ok
}

func (s *Store) OutboxEventTypes() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	types := make([]string, 0, len(s.outbox))
	for _, record := range s.outbox {
		types = append(types, record.message.EventType)
	}
	return types
}

func (s *Store) ClaimContexts(_ context.Context, minSeverity int, limit int, claimedAt time.Time) ([]entities.DecisionContext, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pending := make([]entities.DecisionContext, 0)
	for _, item := range s.contexts {
		if !item.Processed && item.Severity >= minSeverity {
			pending = append(pending, item)
		}
	}
	sort.Slice(pending, func(i, j int) bool {
		if pending[i].CreatedAt.Equal(pending[j].CreatedAt) {
			return pending[i].ContextID < pending[j].ContextID
		}
		return pending[i].CreatedAt.Before(pending[j].CreatedAt)
	})
	if limit > 0 && len(pending) > limit {
		pending = pending[:limit]
	}
	claimed := claimedAt.UTC()
	for i := range pending {
		pending[i].Processed = true
		pending[i].ProcessedAt = &claimed
		s.contexts[pending[i].ContextID] = pending[i]
	}
	return pending, nil
}

func (s *Store) ReleaseContext(_ context.Context, contextID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.contexts[contextID]
	if !ok {
		return domainerrors.ErrContextNotFound
	}
	item.Processed = false
	item.ProcessedAt = nil
	s.contexts[contextID] = item
	return nil
}

func (s *Store) SaveDecision(_ context.Context, decision entities.Decision) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.decisions[decision.DecisionID]; exists {
		return domainerrors.ErrConflict
	}
	s.decisions[decision.DecisionID] = decision
	return nil
}

func (s *Store) GetDecision(_ context.Context, decisionID string) (entities.Decision, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	decision, ok := s.decisions[decisionID]
	if !ok {
		return entities.Decision{}, domainerrors.ErrDecisionNotFound
	}
	return decision, nil
}

func (s *Store) ListAwaitingPoll(_ context.Context, limit int) ([]entities.Decision, error) {
	return s.listDecisions(limit, func(d entities.Decision) bool {
		return d.RequiresGovernance && !d.Executed && !d.Linked()
	}), nil
}

func (s *Store) ListAwaitingExecution(_ context.Context, limit int) ([]entities.Decision, error) {
	return s.listDecisions(limit, func(d entities.Decision) bool {
		return !d.RequiresGovernance && !d.Executed
	}), nil
}

func (s *Store) listDecisions(limit int, keep func(entities.Decision) bool) []entities.Decision {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Decision, 0)
	for _, decision := range s.decisions {
		if keep(decision) {
			items = append(items, decision)
		}
	}
	sortDecisions(items)
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}

func (s *Store) MarkExecuted(_ context.Context, decisionID string, at time.Time, event ports.EventEnvelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	decision, ok := s.decisions[decisionID]
	if !ok {
		return domainerrors.ErrDecisionNotFound
	}
	if decision.Linked() {
		return domainerrors.ErrDecisionAlreadyLinked
	}
	if decision.Executed {
		return domainerrors.ErrConflict
	}
	decision.Executed = true
	decision.UpdatedAt = at.UTC()
	s.decisions[decisionID] = decision
	s.appendOutboxLocked(event)
	return nil
}

func (s *Store) SetSuccessScore(_ context.Context, decisionID string, score float64, at time.Time) (entities.Decision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	decision, ok := s.decisions[decisionID]
	if !ok {
		return entities.Decision{}, domainerrors.ErrDecisionNotFound
	}
	decision.SuccessScore = &score
	decision.UpdatedAt = at.UTC()
	s.decisions[decisionID] = decision
	return decision, nil
}

func (s *Store) CreatePollForDecision(_ context.Context, draft ports.PollDraft, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	decision, ok := s.decisions[draft.Poll.DecisionID]
	if !ok {
		return domainerrors.ErrDecisionNotFound
	}
	if decision.Linked() {
		return domainerrors.ErrDecisionAlreadyLinked
	}
	if _, exists := s.polls[draft.Poll.PollID]; exists {
		return domainerrors.ErrConflict
	}

	s.polls[draft.Poll.PollID] = clonePoll(draft.Poll)
	s.commentary[draft.Poll.PollID] = append(s.commentary[draft.Poll.PollID], draft.Announcement)
	for _, event := range draft.Events {
		s.appendOutboxLocked(event)
	}
	s.actions = append(s.actions, draft.AdminActions...)

	pollID := draft.Poll.PollID
	decision.PollID = &pollID
	decision.Executed = true
	decision.AutonomyLevel = draft.Poll.AutonomyLevel
	decision.UpdatedAt = at.UTC()
	s.decisions[decision.DecisionID] = decision
	return nil
}

func (s *Store) GetPoll(_ context.Context, pollID string) (entities.Poll, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	poll, ok := s.polls[pollID]
	if !ok {
		return entities.Poll{}, domainerrors.ErrPollNotFound
	}
	return clonePoll(poll), nil
}

func (s *Store) ListPolls(_ context.Context, status *entities.PollStatus, limit int) ([]entities.Poll, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Poll, 0)
	for _, poll := range s.polls {
		if status != nil && poll.Status != *status {
			continue
		}
		items = append(items, clonePoll(poll))
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].PollID > items[j].PollID
		}
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *Store) ListClosablePolls(_ context.Context, from time.Time, to time.Time, limit int) ([]entities.Poll, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Poll, 0)
	for _, poll := range s.polls {
		if poll.Status.Final() || poll.VotingEnd.Before(from) || poll.VotingEnd.After(to) {
			continue
		}
		items = append(items, clonePoll(poll))
	}
	sort.Slice(items, func(i, j int) bool { return items[i].VotingEnd.Before(items[j].VotingEnd) })
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *Store) ListUnanalyzedPolls(_ context.Context, limit int) ([]entities.Poll, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Poll, 0)
	for pollID, poll := range s.polls {
		if poll.Status != entities.PollClosed {
			continue
		}
		if _, completed := s.completions[pollID]; !completed {
			continue
		}
		if _, analyzed := s.analyses[pollID]; analyzed {
			continue
		}
		items = append(items, clonePoll(poll))
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].UpdatedAt.Equal(items[j].UpdatedAt) {
			return items[i].PollID < items[j].PollID
		}
		return items[i].UpdatedAt.Before(items[j].UpdatedAt)
	})
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *Store) CountVotes(_ context.Context, pollID string) (map[string]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := make(map[string]int, len(s.votes[pollID]))
	for optionID, count := range s.votes[pollID] {
		counts[optionID] = count
	}
	return counts, nil
}

func (s *Store) ClosePoll(_ context.Context, completion entities.PollCompletionEvent, events []ports.EventEnvelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	poll, ok := s.polls[completion.PollID]
	if !ok {
		return domainerrors.ErrPollNotFound
	}
	if poll.Status.Final() {
		return domainerrors.ErrPollAlreadyClosed
	}
	poll.Status = entities.PollClosed
	poll.UpdatedAt = completion.CompletedAt.UTC()
	for i := range poll.Options {
		poll.Options[i].VotesCount = completion.FinalTally[poll.Options[i].OptionID]
	}
	s.polls[poll.PollID] = poll
	s.completions[poll.PollID] = completion
	for _, event := range events {
		s.appendOutboxLocked(event)
	}
	return nil
}

func (s *Store) TransitionPoll(
	_ context.Context,
	pollID string,
	allowed []entities.PollStatus,
	next entities.PollStatus,
	patch entities.PollPatch,
	at time.Time,
) (entities.Poll, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	poll, ok := s.polls[pollID]
	if !ok {
		return entities.Poll{}, domainerrors.ErrPollNotFound
	}
	permitted := false
	for _, status := range allowed {
		if poll.Status == status {
			permitted = true
			break
		}
	}
	if !permitted {
		return entities.Poll{}, domainerrors.ErrInvalidTransition
	}
	poll.Status = next
	if patch.Title != nil {
		poll.Title = *patch.Title
	}
	if patch.VotingEnd != nil {
		poll.VotingEnd = patch.VotingEnd.UTC()
	}
	poll.UpdatedAt = at.UTC()
	s.polls[pollID] = poll
	return clonePoll(poll), nil
}

func (s *Store) ListCommentary(_ context.Context, pollID string) ([]entities.PollCommentary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.polls[pollID]; !ok {
		return nil, domainerrors.ErrPollNotFound
	}
	return append([]entities.PollCommentary(nil), s.commentary[pollID]...), nil
}

func (s *Store) SaveAnalysis(
	_ context.Context,
	analysis entities.AnalysisResult,
	commentary entities.PollCommentary,
	events []ports.EventEnvelope,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.analyses[analysis.PollID]; exists {
		return domainerrors.ErrConflict
	}
	s.analyses[analysis.PollID] = analysis
	s.commentary[analysis.PollID] = append(s.commentary[analysis.PollID], commentary)
	for _, event := range events {
		s.appendOutboxLocked(event)
	}
	return nil
}

func (s *Store) GetAnalysis(_ context.Context, pollID string) (entities.AnalysisResult, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	analysis, ok := s.analyses[pollID]
	return analysis, ok, nil
}

func (s *Store) ListOutcomesSince(_ context.Context, since time.Time) ([]entities.DecisionOutcome, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	outcomes := make([]entities.DecisionOutcome, 0)
	for _, decision := range s.decisions {
		if !decision.Executed || decision.CreatedAt.Before(since) {
			continue
		}
		outcome := entities.DecisionOutcome{Decision: decision}
		if decision.Linked() {
			if analysis, ok := s.analyses[*decision.PollID]; ok {
				copied := analysis
				outcome.Analysis = &copied
			}
		}
		outcomes = append(outcomes, outcome)
	}
	sort.Slice(outcomes, func(i, j int) bool {
		return outcomes[i].Decision.CreatedAt.Before(outcomes[j].Decision.CreatedAt)
	})
	return outcomes, nil
}

func (s *Store) SavePatterns(_ context.Context, patterns []entities.LearningPattern) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.patterns = append(s.patterns, patterns...)
	return nil
}

func (s *Store) ListPatterns(_ context.Context, limit int) ([]entities.LearningPattern, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.LearningPattern, 0)
	for i := len(s.patterns) - 1; i >= 0 && (limit <= 0 || len(items) < limit); i-- {
		items = append(items, s.patterns[i])
	}
	return items, nil
}

func (s *Store) GetSettings(_ context.Context) (entities.GovernanceSettings, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.settings == nil {
		return entities.GovernanceSettings{}, false, nil
	}
	return *s.settings, true, nil
}

func (s *Store) SaveSettings(_ context.Context, settings entities.GovernanceSettings, expectedVersion int64) (entities.GovernanceSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current := int64(0)
	if s.settings != nil {
		current = s.settings.Version
	}
	if current != expectedVersion {
		return entities.GovernanceSettings{}, domainerrors.ErrVersionConflict
	}
	settings.Version = expectedVersion + 1
	settings.UpdatedAt = s.clockLocked()
	s.settings = &settings
	return settings, nil
}

func (s *Store) GetBrake(_ context.Context) (entities.EmergencyBrake, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.brake, nil
}

func (s *Store) SaveBrake(_ context.Context, brake entities.EmergencyBrake, expectedVersion int64) (entities.EmergencyBrake, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.brake.Version != expectedVersion {
		return entities.EmergencyBrake{}, domainerrors.ErrVersionConflict
	}
	brake.Version = expectedVersion + 1
	s.brake = brake
	return brake, nil
}

func (s *Store) AppendAdminAction(_ context.Context, action entities.AdminAction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.actions = append(s.actions, action)
	return nil
}

func (s *Store) ListAdminActions(_ context.Context, limit int) ([]entities.AdminAction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.AdminAction, 0)
	for i := len(s.actions) - 1; i >= 0 && (limit <= 0 || len(items) < limit); i-- {
		items = append(items, s.actions[i])
	}
	return items, nil
}

func (s *Store) RecordStageActivity(_ context.Context, activity entities.StageActivity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activity = append(s.activity, activity)
	return nil
}

func (s *Store) ListStageActivity(_ context.Context, since time.Time) ([]entities.StageActivity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.StageActivity, 0)
	for _, activity := range s.activity {
		if !activity.OccurredAt.Before(since) {
			items = append(items, activity)
		}
	}
	return items, nil
}

func (s *Store) AppendOutbox(_ context.Context, envelope ports.EventEnvelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendOutboxLocked(envelope)
	return nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]ports.OutboxMessage, 0)
	for _, record := range s.outbox {
		if record.published {
			continue
		}
		items = append(items, record.message)
		if limit > 0 && len(items) >= limit {
			break
		}
	}
	return items, nil
}

func (s *Store) MarkOutboxPublished(_ context.Context, outboxID string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.outbox {
		if s.outbox[i].message.OutboxID == outboxID {
			s.outbox[i].published = true
			return nil
		}
	}
	return nil
}

func (s *Store) appendOutboxLocked(envelope ports.EventEnvelope) {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return
	}
	s.outbox = append(s.outbox, outboxRecord{message: ports.OutboxMessage{
		OutboxID:     envelope.EventID,
		EventType:    envelope.EventType,
		PartitionKey: strings.TrimSpace(envelope.PartitionKey),
		Payload:      payload,
		CreatedAt:    envelope.OccurredAt,
	}})
}

func (s *Store) Now() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.clockLocked()
}

func (s *Store) clockLocked() time.Time {
	if s.now.IsZero() {
		return time.Now().UTC()
	}
	return s.now
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

func sortDecisions(items []entities.Decision) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].DecisionID < items[j].DecisionID
		}
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
}

func clonePoll(poll entities.Poll) entities.Poll {
	poll.Options = append([]entities.PollOption(nil), poll.Options...)
	return poll
}

var (
	_ ports.ContextRepository  = (*Store)(nil)
	_ ports.DecisionRepository = (*Store)(nil)
	_ ports.PollRepository     = (*Store)(nil)
	_ ports.VoteCounter        = (*Store)(nil)
	_ ports.AnalysisRepository = (*Store)(nil)
	_ ports.LearningRepository = (*Store)(nil)
	_ ports.SettingsRepository = (*Store)(nil)
	_ ports.BrakeRepository    = (*Store)(nil)
	_ ports.AdminLog           = (*Store)(nil)
	_ ports.ActivityLog        = (*Store)(nil)
	_ ports.OutboxRepository   = (*Store)(nil)
	_ ports.Clock              = (*Store)(nil)
	_ ports.IDGenerator        = (*Store)(nil)
)
