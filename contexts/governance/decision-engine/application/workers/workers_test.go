package workers_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"girthgov/contexts/governance/decision-engine/adapters/memory"
	"girthgov/contexts/governance/decision-engine/application/commands"
	"girthgov/contexts/governance/decision-engine/application/workers"
	"girthgov/contexts/governance/decision-engine/domain/entities"
	domainerrors "girthgov/contexts/governance/decision-engine/domain/errors"
	"girthgov/contexts/governance/decision-engine/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

type stubDecisionAnalyst struct {
	analysis entities.DecisionAnalysis
	err      error
	calls    int
}

func (s *stubDecisionAnalyst) AnalyzeContext(context.Context, entities.DecisionContext, entities.GovernanceSettings) (entities.DecisionAnalysis, error) {
	s.calls++
	return s.analysis, s.err
}

type stubOutcomeAnalyst struct {
	recommendation entities.Recommendation
	recommendErr   error
	commentary     string
	commentaryErr  error
}

func (s stubOutcomeAnalyst) Recommend(context.Context, entities.OutcomeBrief) (entities.Recommendation, error) {
	return s.recommendation, s.recommendErr
}

func (s stubOutcomeAnalyst) Commentary(context.Context, entities.OutcomeBrief) (string, error) {
	return s.commentary, s.commentaryErr
}

type stubPatternAnalyst struct {
	report entities.PatternReport
	err    error
}

func (s stubPatternAnalyst) MinePatterns(context.Context, entities.LearningBrief) (entities.PatternReport, error) {
	return s.report, s.err
}

type recordingPublisher struct {
	topics []string
	fail   error
}

func (p *recordingPublisher) Publish(_ context.Context, topic string, _ ports.EventEnvelope) error {
	if p.fail != nil {
		return p.fail
	}
	p.topics = append(p.topics, topic)
	return nil
}

func newStore(seed ...entities.DecisionContext) *memory.Store {
	store := memory.NewStore(seed)
	store.SetNow(baseTime)
	return store
}

func synthesizer(store *memory.Store, analyst ports.DecisionAnalyst) workers.DecisionSynthesizer {
	return workers.DecisionSynthesizer{
		Contexts:  store,
		Decisions: store,
		Settings:  store,
		Analyst:   analyst,
		Clock:     store,
		IDGen:     store,
		Defaults:  entities.DefaultGovernanceSettings(),
	}
}

func forge(store *memory.Store) workers.PollForge {
	return workers.PollForge{
		Decisions: store,
		Polls:     store,
		Brakes:    store,
		Settings:  store,
		Clock:     store,
		IDGen:     store,
		Defaults:  entities.DefaultGovernanceSettings(),
	}
}

func governanceDecision(id string, category entities.Category, severity int, createdAt time.Time) entities.Decision {
	return entities.Decision{
		DecisionID:         id,
		ContextID:          "ctx-" + id,
		Category:           category,
		Severity:           severity,
		Reasoning:          "needs a vote",
		Confidence:         0.4,
		RequiresGovernance: true,
		Proposal: entities.PollProposal{
			Title: "Rebalance " + id,
			Options: []entities.OptionProposal{
				{Text: "Raise rewards"},
				{Text: "Hold steady"},
			},
		},
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
}

func TestSynthesizerNeverTurnsMildContextsIntoDecisions(t *testing.T) {
	store := newStore(
		entities.DecisionContext{ContextID: "ctx-mild", Type: "resonance_fade", Severity: 4, CreatedAt: baseTime.Add(-time.Hour)},
		entities.DecisionContext{ContextID: "ctx-zero", Type: "metric_anomaly:balance", Severity: 0, CreatedAt: baseTime.Add(-time.Hour)},
	)
	analyst := &stubDecisionAnalyst{}

	outcome, err := synthesizer(store, analyst).RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, outcome.Claimed)
	assert.Empty(t, store.Decisions())
	assert.Equal(t, 0, analyst.calls)

	mild, ok := store.Context("ctx-mild")
	require.True(t, ok)
	assert.False(t, mild.Processed)
}

func TestSynthesizerFallsBackWhenAnalystFails(t *testing.T) {
	store := newStore(entities.DecisionContext{
		ContextID: "ctx-1",
		Type:      "oracle_stability_collapse",
		Severity:  9,
		CreatedAt: baseTime.Add(-time.Minute),
	})
	analyst := &stubDecisionAnalyst{err: errors.New("model offline")}

	outcome, err := synthesizer(store, analyst).RunOnce(context.Background())
	require.NoError(t, err)
	require.Len(t, outcome.Decisions, 1)
	assert.Equal(t, 1, outcome.Fallbacks)

	decision := outcome.Decisions[0]
	assert.True(t, decision.Fallback)
	assert.Equal(t, entities.CategoryTechnical, decision.Category)
	assert.InDelta(t, 0.3, decision.Confidence, 1e-9)
	assert.True(t, decision.RequiresGovernance)
	assert.GreaterOrEqual(t, len(decision.Proposal.Options), 2)

	second, err := synthesizer(store, analyst).RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, second.Claimed)
}

type flakyDecisions struct {
	*memory.Store
	failures int
}

func (f *flakyDecisions) SaveDecision(ctx context.Context, decision entities.Decision) error {
	if f.failures > 0 {
		f.failures--
		return errors.New("write timeout")
	}
	return f.Store.SaveDecision(ctx, decision)
}

func TestSynthesizerKeepsBatchGoingAfterSaveFailure(t *testing.T) {
	store := newStore(
		entities.DecisionContext{ContextID: "c1", Type: "resonance_fade", Severity: 7, CreatedAt: baseTime.Add(-3 * time.Minute)},
		entities.DecisionContext{ContextID: "c2", Type: "resonance_fade", Severity: 7, CreatedAt: baseTime.Add(-2 * time.Minute)},
		entities.DecisionContext{ContextID: "c3", Type: "resonance_fade", Severity: 7, CreatedAt: baseTime.Add(-time.Minute)},
	)
	worker := synthesizer(store, nil)
	worker.Decisions = &flakyDecisions{Store: store, failures: 1}

	outcome, err := worker.RunOnce(context.Background())
	require.Error(t, err)
	assert.Equal(t, 3, outcome.Claimed)
	assert.Len(t, outcome.Decisions, 2)

	first, ok := store.Context("c1")
	require.True(t, ok)
	assert.False(t, first.Processed, "failed context must be released")

	retry, err := worker.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, retry.Claimed)
	assert.Len(t, store.Decisions(), 3)
	for _, id := range []string{"c1", "c2", "c3"} {
		item, ok := store.Context(id)
		require.True(t, ok)
		assert.True(t, item.Processed, id)
	}
}

func TestSynthesizerForcesGovernanceBelowConfidenceThreshold(t *testing.T) {
	store := newStore(entities.DecisionContext{ContextID: "ctx-2", Type: "tap_surge_peak", Severity: 6, CreatedAt: baseTime})
	analyst := &stubDecisionAnalyst{analysis: entities.DecisionAnalysis{
		Category:           "not-a-category",
		Reasoning:          "surge looks organic",
		Confidence:         0.65,
		RequiresGovernance: false,
	}}

	outcome, err := synthesizer(store, analyst).RunOnce(context.Background())
	require.NoError(t, err)
	require.Len(t, outcome.Decisions, 1)
	decision := outcome.Decisions[0]
	assert.False(t, decision.Fallback)
	assert.Equal(t, entities.CategoryRewards, decision.Category)
	assert.True(t, decision.RequiresGovernance, "0.65 < 0.7 must go to a vote")
	assert.Equal(t, "surge looks organic", decision.Reasoning)
	assert.Len(t, decision.Proposal.Options, 3)
}

func TestPollForgeLinksEachDecisionOnce(t *testing.T) {
	store := newStore()
	store.SetDecision(governanceDecision("dec-1", entities.CategoryGameplay, 5, baseTime.Add(-time.Hour)))

	first, err := forge(store).RunOnce(context.Background())
	require.NoError(t, err)
	require.Len(t, first.Created, 1)

	poll := first.Created[0]
	assert.Equal(t, entities.PollActive, poll.Status)
	assert.Equal(t, entities.AutonomyFull, poll.AutonomyLevel)
	assert.Equal(t, baseTime.Add(48*time.Hour), poll.VotingEnd)
	assert.InDelta(t, 10, poll.RewardPerVote, 1e-9)
	require.Len(t, poll.Options, 2)
	assert.Equal(t, 1, poll.Options[1].Position)

	decision, err := store.GetDecision(context.Background(), "dec-1")
	require.NoError(t, err)
	require.NotNil(t, decision.PollID)
	assert.Equal(t, poll.PollID, *decision.PollID)
	assert.True(t, decision.Executed)

	second, err := forge(store).RunOnce(context.Background())
	require.NoError(t, err)
	assert.Empty(t, second.Created)

	err = store.CreatePollForDecision(context.Background(), ports.PollDraft{Poll: entities.Poll{PollID: "poll-x", DecisionID: "dec-1"}}, baseTime)
	assert.ErrorIs(t, err, domainerrors.ErrDecisionAlreadyLinked)

	commentary, err := store.ListCommentary(context.Background(), poll.PollID)
	require.NoError(t, err)
	require.Len(t, commentary, 1)
	assert.Equal(t, entities.CommentaryAnnouncement, commentary[0].Kind)
	assert.Contains(t, store.OutboxEventTypes(), "poll.created")
}

type fixedRule struct {
	level entities.AutonomyLevel
}

func (r fixedRule) Evaluate(context.Context, ports.AutonomyRuleInput) (entities.AutonomyLevel, bool, error) {
	return r.level, true, nil
}

func TestPollForgeStampsRuleLevelOnDecision(t *testing.T) {
	store := newStore()
	store.SetDecision(governanceDecision("dec-rule", entities.CategoryGameplay, 5, baseTime))
	worker := forge(store)
	worker.Rules = fixedRule{level: entities.AutonomyAdminApproval}

	outcome, err := worker.RunOnce(context.Background())
	require.NoError(t, err)
	require.Len(t, outcome.Created, 1)
	assert.Equal(t, entities.AutonomyAdminApproval, outcome.Created[0].AutonomyLevel)

	decision, err := store.GetDecision(context.Background(), "dec-rule")
	require.NoError(t, err)
	assert.Equal(t, outcome.Created[0].AutonomyLevel, decision.AutonomyLevel)
}

func TestPollForgeHoldsEverythingWhileBrakeEngaged(t *testing.T) {
	store := newStore()
	for i, id := range []string{"dec-a", "dec-b", "dec-c"} {
		store.SetDecision(governanceDecision(id, entities.CategoryEconomy, 7+i, baseTime.Add(-time.Duration(i)*time.Minute)))
	}
	silent := governanceDecision("dec-silent", entities.CategoryGameplay, 5, baseTime)
	silent.RequiresGovernance = false
	store.SetDecision(silent)

	expires := baseTime.Add(2 * time.Hour)
	_, err := store.SaveBrake(context.Background(), entities.EmergencyBrake{
		Active:      true,
		Reason:      "exploit under investigation",
		ActivatedBy: "admin-1",
		ActivatedAt: &baseTime,
		ExpiresAt:   &expires,
	}, 0)
	require.NoError(t, err)

	outcome, err := forge(store).RunOnce(context.Background())
	require.NoError(t, err)
	assert.True(t, outcome.BrakeEngaged)
	assert.Empty(t, outcome.Created)
	assert.Equal(t, 0, outcome.Executed)
	for _, decision := range store.Decisions() {
		assert.False(t, decision.Linked(), decision.DecisionID)
		assert.False(t, decision.Executed, decision.DecisionID)
	}

	store.SetNow(expires.Add(time.Second))
	after, err := forge(store).RunOnce(context.Background())
	require.NoError(t, err)
	assert.Len(t, after.Created, 3)
	assert.Equal(t, 1, after.Executed)
}

func TestPollForgeAdminApprovalRecordsPendingAction(t *testing.T) {
	store := newStore()
	store.SetDecision(governanceDecision("dec-sec", entities.CategorySecurity, 9, baseTime))

	outcome, err := forge(store).RunOnce(context.Background())
	require.NoError(t, err)
	require.Len(t, outcome.Created, 1)
	assert.Equal(t, entities.AutonomyAdminApproval, outcome.Created[0].AutonomyLevel)

	actions, err := store.ListAdminActions(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.Equal(t, entities.ActionPendingApproval, actions[0].Action)
	assert.Equal(t, outcome.Created[0].PollID, actions[0].TargetID)
	assert.Contains(t, store.OutboxEventTypes(), "poll.admin_notification")
}

func TestPollForgeExecutesAutonomousDecisionsSilently(t *testing.T) {
	store := newStore()
	decision := governanceDecision("dec-auto", entities.CategoryCommunity, 6, baseTime)
	decision.RequiresGovernance = false
	decision.Confidence = 0.9
	store.SetDecision(decision)

	outcome, err := forge(store).RunOnce(context.Background())
	require.NoError(t, err)
	assert.Empty(t, outcome.Created)
	assert.Equal(t, 1, outcome.Executed)

	saved, err := store.GetDecision(context.Background(), "dec-auto")
	require.NoError(t, err)
	assert.True(t, saved.Executed)
	assert.False(t, saved.Linked())
	assert.Equal(t, []string{"decision.executed"}, store.OutboxEventTypes())
}

func seedEndedPoll(store *memory.Store, pollID string, votingEnd time.Time) entities.Poll {
	poll := entities.Poll{
		PollID:      pollID,
		DecisionID:  "dec-" + pollID,
		Title:       "Which path?",
		VotingStart: votingEnd.Add(-48 * time.Hour),
		VotingEnd:   votingEnd,
		Status:      entities.PollActive,
		Options: []entities.PollOption{
			{OptionID: pollID + "-a", PollID: pollID, Position: 0, Text: "A"},
			{OptionID: pollID + "-b", PollID: pollID, Position: 1, Text: "B"},
		},
		CreatedAt: votingEnd.Add(-48 * time.Hour),
	}
	store.SetPoll(poll)
	return poll
}

func watcher(store *memory.Store, analyst ports.OutcomeAnalyst) workers.CompletionWatcher {
	return workers.CompletionWatcher{
		Polls: store,
		Votes: store,
		Arbiter: commands.OutcomeArbiter{
			Analyses: store,
			Analyst:  analyst,
			Clock:    store,
			IDGen:    store,
		},
		Clock: store,
		IDGen: store,
	}
}

func TestCompletionWatcherClosesAndArbitrates(t *testing.T) {
	store := newStore()
	poll := seedEndedPoll(store, "poll-1", baseTime.Add(-2*time.Minute))
	store.SetVoteCounts(poll.PollID, map[string]int{"poll-1-a": 120, "poll-1-b": 80})
	seedEndedPoll(store, "poll-stale", baseTime.Add(-time.Hour))

	outcome, err := watcher(store, stubOutcomeAnalyst{
		recommendErr:  errors.New("timeout"),
		commentaryErr: errors.New("timeout"),
	}).RunOnce(context.Background())
	require.NoError(t, err)
	require.Len(t, outcome.Completions, 1)

	completion := outcome.Completions[0]
	assert.Equal(t, "poll-1-a", completion.WinnerOptionID)
	assert.Equal(t, 200, completion.TotalVotes)
	assert.True(t, completion.AdminReviewRequired)

	require.Len(t, outcome.Analyses, 1)
	analysis := outcome.Analyses[0]
	assert.InDelta(t, 0.6, analysis.ConsensusStrength, 1e-9)
	assert.InDelta(t, 0.8, analysis.ControversyScore, 1e-9)
	assert.Equal(t, entities.PriorityScheduled, analysis.Recommendation.Priority)
	assert.True(t, analysis.Fallback)

	closed, err := store.GetPoll(context.Background(), "poll-1")
	require.NoError(t, err)
	assert.Equal(t, entities.PollClosed, closed.Status)
	assert.Equal(t, 120, closed.Options[0].VotesCount)

	stale, err := store.GetPoll(context.Background(), "poll-stale")
	require.NoError(t, err)
	assert.Equal(t, entities.PollActive, stale.Status)

	again, err := watcher(store, stubOutcomeAnalyst{}).RunOnce(context.Background())
	require.NoError(t, err)
	assert.Empty(t, again.Completions)
}

type flakyAnalyses struct {
	*memory.Store
	failures int
}

func (f *flakyAnalyses) SaveAnalysis(
	ctx context.Context,
	analysis entities.AnalysisResult,
	commentary entities.PollCommentary,
	events []ports.EventEnvelope,
) error {
	if f.failures > 0 {
		f.failures--
		return errors.New("connection reset")
	}
	return f.Store.SaveAnalysis(ctx, analysis, commentary, events)
}

func TestCompletionWatcherRetriesAnalysisForClosedPoll(t *testing.T) {
	store := newStore()
	poll := seedEndedPoll(store, "poll-r", baseTime.Add(-time.Minute))
	store.SetVoteCounts(poll.PollID, map[string]int{"poll-r-a": 3, "poll-r-b": 7})

	worker := watcher(store, stubOutcomeAnalyst{recommendErr: errors.New("offline"), commentaryErr: errors.New("offline")})
	worker.Arbiter.Analyses = &flakyAnalyses{Store: store, failures: 1}

	first, err := worker.RunOnce(context.Background())
	require.Error(t, err)
	require.Len(t, first.Completions, 1)
	assert.Empty(t, first.Analyses)

	closed, err := store.GetPoll(context.Background(), "poll-r")
	require.NoError(t, err)
	assert.Equal(t, entities.PollClosed, closed.Status)
	_, found, err := store.GetAnalysis(context.Background(), "poll-r")
	require.NoError(t, err)
	assert.False(t, found)

	store.SetNow(baseTime.Add(time.Hour))
	second, err := worker.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Empty(t, second.Completions)
	assert.Equal(t, 1, second.Recovered)
	require.Len(t, second.Analyses, 1)
	assert.Equal(t, "poll-r-b", second.Analyses[0].WinnerOptionID)

	analysis, found, err := store.GetAnalysis(context.Background(), "poll-r")
	require.NoError(t, err)
	require.True(t, found)
	assert.InDelta(t, 0.7, analysis.ConsensusStrength, 1e-9)

	third, err := worker.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, third.Recovered)
}

func TestCompletionWatcherUsesCollaboratorWhenAvailable(t *testing.T) {
	store := newStore()
	poll := seedEndedPoll(store, "poll-2", baseTime.Add(-time.Minute))
	store.SetVoteCounts(poll.PollID, map[string]int{"poll-2-b": 9, "poll-2-a": 1})

	outcome, err := watcher(store, stubOutcomeAnalyst{
		recommendation: entities.Recommendation{Priority: entities.PriorityImmediate, Confidence: 0.8, Effort: "low"},
		commentary:     "The stars align behind B.",
	}).RunOnce(context.Background())
	require.NoError(t, err)
	require.Len(t, outcome.Analyses, 1)
	assert.False(t, outcome.Analyses[0].Fallback)
	assert.Equal(t, "poll-2-b", outcome.Analyses[0].WinnerOptionID)
	assert.False(t, outcome.Completions[0].AdminReviewRequired)

	commentary, err := store.ListCommentary(context.Background(), "poll-2")
	require.NoError(t, err)
	require.Len(t, commentary, 1)
	assert.Equal(t, "The stars align behind B.", commentary[0].Body)
}

func TestLearningScribeFallbackTightensThreshold(t *testing.T) {
	store := newStore()
	for i, score := range []float64{0.1, 0.2, 0.9} {
		decision := governanceDecision("dec-l"+string(rune('a'+i)), entities.CategoryEconomy, 6, baseTime.Add(-24*time.Hour))
		decision.Executed = true
		decision.SuccessScore = &score
		store.SetDecision(decision)
	}
	require.NoError(t, store.RecordStageActivity(context.Background(), entities.StageActivity{
		ActivityID: "act-1", Stage: "poll_forge", Success: true, LatencyMs: 40, OccurredAt: baseTime.Add(-time.Hour),
	}))

	scribe := workers.LearningScribe{
		Learning: store,
		Activity: store,
		Settings: store,
		AdminLog: store,
		Outbox:   store,
		Analyst:  stubPatternAnalyst{err: errors.New("offline")},
		Clock:    store,
		IDGen:    store,
		Defaults: entities.DefaultGovernanceSettings(),
	}
	outcome, err := scribe.RunOnce(context.Background())
	require.NoError(t, err)
	assert.True(t, outcome.Fallback)
	assert.Equal(t, 3, outcome.Outcomes)
	assert.NotEmpty(t, outcome.Patterns)
	require.Len(t, outcome.Stages, 1)
	assert.Equal(t, "poll_forge", outcome.Stages[0].Stage)

	require.Len(t, outcome.Applied, 1)
	assert.Equal(t, entities.KnobConfidenceThreshold, outcome.Applied[0].Knob)
	assert.InDelta(t, 0.75, outcome.Settings.ConfidenceThreshold, 1e-9)

	settings, found, err := store.GetSettings(context.Background())
	require.NoError(t, err)
	require.True(t, found)
	assert.InDelta(t, 0.75, settings.ConfidenceThreshold, 1e-9)
	assert.Contains(t, store.OutboxEventTypes(), "governance.config_changed")
}

func TestLearningScribeRunsOncePerInterval(t *testing.T) {
	store := newStore()
	for i, score := range []float64{0.1, 0.2, 0.3} {
		decision := governanceDecision("dec-f"+string(rune('a'+i)), entities.CategoryEconomy, 6, baseTime.Add(-24*time.Hour))
		decision.Executed = true
		decision.SuccessScore = &score
		store.SetDecision(decision)
	}
	scribe := workers.LearningScribe{
		Learning: store,
		Activity: store,
		Settings: store,
		AdminLog: store,
		Outbox:   store,
		Clock:    store,
		IDGen:    store,
		Defaults: entities.DefaultGovernanceSettings(),
		Interval: 24 * time.Hour,
	}

	first, err := scribe.RunOnce(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, first.Patterns)
	require.Len(t, first.Applied, 1)
	stored, err := store.ListPatterns(context.Background(), 0)
	require.NoError(t, err)
	patterns := len(stored)

	for tick := 1; tick <= 10; tick++ {
		store.SetNow(baseTime.Add(time.Duration(tick) * 30 * time.Second))
		outcome, err := scribe.RunOnce(context.Background())
		require.NoError(t, err)
		assert.True(t, outcome.Skipped)
		assert.Empty(t, outcome.Applied)
	}

	settings, found, err := store.GetSettings(context.Background())
	require.NoError(t, err)
	require.True(t, found)
	assert.InDelta(t, 0.75, settings.ConfidenceThreshold, 1e-9)
	stored, err = store.ListPatterns(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, stored, patterns)

	store.SetNow(baseTime.Add(25 * time.Hour))
	due, err := scribe.RunOnce(context.Background())
	require.NoError(t, err)
	assert.False(t, due.Skipped)
}

func TestLearningScribeRejectsOversizedChanges(t *testing.T) {
	store := newStore()
	decision := governanceDecision("dec-x", entities.CategoryGameplay, 6, baseTime.Add(-time.Hour))
	decision.Executed = true
	store.SetDecision(decision)

	scribe := workers.LearningScribe{
		Learning: store,
		Activity: store,
		Settings: store,
		AdminLog: store,
		Outbox:   store,
		Analyst: stubPatternAnalyst{report: entities.PatternReport{
			Patterns: []entities.LearningPattern{{Type: entities.PatternCategoryEffect, Description: "gameplay votes are quiet"}},
			ConfigChanges: []entities.ConfigChange{
				{Knob: entities.KnobVotingDurationHours, To: 200, Reason: "longer"},
			},
		}},
		Clock:    store,
		IDGen:    store,
		Defaults: entities.DefaultGovernanceSettings(),
	}
	outcome, err := scribe.RunOnce(context.Background())
	require.NoError(t, err)
	assert.False(t, outcome.Fallback)
	assert.Empty(t, outcome.Applied)
	assert.Equal(t, 1, outcome.Rejected)

	_, found, err := store.GetSettings(context.Background())
	require.NoError(t, err)
	assert.False(t, found)
}

func TestOutboxRelayStopsOnPublishFailure(t *testing.T) {
	store := newStore()
	require.NoError(t, store.AppendOutbox(context.Background(), ports.EventEnvelope{EventID: "evt-1", EventType: "poll.created", OccurredAt: baseTime}))
	require.NoError(t, store.AppendOutbox(context.Background(), ports.EventEnvelope{EventID: "evt-2", EventType: "poll.completed", OccurredAt: baseTime}))

	failing := &recordingPublisher{fail: errors.New("stream down")}
	published, err := workers.OutboxRelay{Outbox: store, Publisher: failing, Clock: store}.RunOnce(context.Background())
	assert.Error(t, err)
	assert.Equal(t, 0, published)

	publisher := &recordingPublisher{}
	published, err = workers.OutboxRelay{Outbox: store, Publisher: publisher, Clock: store}.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, published)
	assert.Equal(t, []string{"poll.created", "poll.completed"}, publisher.topics)

	pending, err := store.ListPendingOutbox(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}
