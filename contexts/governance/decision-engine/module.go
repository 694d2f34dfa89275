package decisionengine

import (
	"log/slog"
	"time"

	httpadapter "girthgov/contexts/governance/decision-engine/adapters/http"
	"girthgov/contexts/governance/decision-engine/adapters/memory"
	oracleadapter "girthgov/contexts/governance/decision-engine/adapters/oracle"
	"girthgov/contexts/governance/decision-engine/application/commands"
	"girthgov/contexts/governance/decision-engine/application/queries"
	"girthgov/contexts/governance/decision-engine/application/workers"
	"girthgov/contexts/governance/decision-engine/domain/entities"
	"girthgov/contexts/governance/decision-engine/ports"
)

type Module struct {
	Handler           httpadapter.Handler
	Synthesizer       workers.DecisionSynthesizer
	PollForge         workers.PollForge
	CompletionWatcher workers.CompletionWatcher
	LearningScribe    workers.LearningScribe
	OutboxRelay       workers.OutboxRelay
	RecordActivity    commands.RecordStageActivityUseCase
	Polls             queries.PollQueries
	Store             *memory.Store
}

type Dependencies struct {
	Contexts  ports.ContextRepository
	Decisions ports.DecisionRepository
	Polls     ports.PollRepository
	Votes     ports.VoteCounter
	Analyses  ports.AnalysisRepository
	Learning  ports.LearningRepository
	Settings  ports.SettingsRepository
	Brakes    ports.BrakeRepository
	AdminLog  ports.AdminLog
	Activity  ports.ActivityLog
	Outbox    ports.OutboxRepository
	Publisher ports.EventPublisher

	DecisionAnalyst ports.DecisionAnalyst
	OutcomeAnalyst  ports.OutcomeAnalyst
	PatternAnalyst  ports.PatternAnalyst
	Rules           ports.AutonomyRuleEvaluator

	Clock ports.Clock
	IDGen ports.IDGenerator

	Defaults         entities.GovernanceSettings
	BatchSize        int
	CompletionWindow time.Duration
	LearningWindow   time.Duration
	LearningInterval time.Duration
	Logger           *slog.Logger
}

func NewModule(deps Dependencies) Module {
	defaults := deps.Defaults
	if defaults.ConfidenceThreshold == 0 && defaults.VotingDurationHours == 0 {
		defaults = entities.DefaultGovernanceSettings()
	}
	pollQueries := queries.PollQueries{Polls: deps.Polls}
	governance := queries.GovernanceQueries{
		Decisions:    deps.Decisions,
		Analyses:     deps.Analyses,
		Brakes:       deps.Brakes,
		SettingsRepo: deps.Settings,
		AdminLog:     deps.AdminLog,
		Learning:     deps.Learning,
		Activity:     deps.Activity,
		Clock:        deps.Clock,
		Defaults:     defaults,
	}
	admin := commands.AdminUseCase{
		Polls:     deps.Polls,
		Decisions: deps.Decisions,
		Brakes:    deps.Brakes,
		Settings:  deps.Settings,
		AdminLog:  deps.AdminLog,
		Outbox:    deps.Outbox,
		Clock:     deps.Clock,
		IDGen:     deps.IDGen,
		Defaults:  defaults,
		Logger:    deps.Logger,
	}

	return Module{
		Handler: httpadapter.Handler{
			Admin:      admin,
			Polls:      pollQueries,
			Governance: governance,
			Logger:     deps.Logger,
		},
		Synthesizer: workers.DecisionSynthesizer{
			Contexts:  deps.Contexts,
			Decisions: deps.Decisions,
			Settings:  deps.Settings,
			Analyst:   deps.DecisionAnalyst,
			Clock:     deps.Clock,
			IDGen:     deps.IDGen,
			Defaults:  defaults,
			BatchSize: deps.BatchSize,
			Logger:    deps.Logger,
		},
		PollForge: workers.PollForge{
			Decisions: deps.Decisions,
			Polls:     deps.Polls,
			Brakes:    deps.Brakes,
			Settings:  deps.Settings,
			Rules:     deps.Rules,
			Clock:     deps.Clock,
			IDGen:     deps.IDGen,
			Defaults:  defaults,
			BatchSize: deps.BatchSize,
			Logger:    deps.Logger,
		},
		CompletionWatcher: workers.CompletionWatcher{
			Polls: deps.Polls,
			Votes: deps.Votes,
			Arbiter: commands.OutcomeArbiter{
				Analyses: deps.Analyses,
				Analyst:  deps.OutcomeAnalyst,
				Clock:    deps.Clock,
				IDGen:    deps.IDGen,
				Logger:   deps.Logger,
			},
			Clock:     deps.Clock,
			IDGen:     deps.IDGen,
			Window:    deps.CompletionWindow,
			BatchSize: deps.BatchSize,
			Logger:    deps.Logger,
		},
		LearningScribe: workers.LearningScribe{
			Learning: deps.Learning,
			Activity: deps.Activity,
			Settings: deps.Settings,
			AdminLog: deps.AdminLog,
			Outbox:   deps.Outbox,
			Analyst:  deps.PatternAnalyst,
			Clock:    deps.Clock,
			IDGen:    deps.IDGen,
			Defaults: defaults,
			Window:   deps.LearningWindow,
			Interval: deps.LearningInterval,
			Logger:   deps.Logger,
		},
		OutboxRelay: workers.OutboxRelay{
			Outbox:    deps.Outbox,
			Publisher: deps.Publisher,
			Clock:     deps.Clock,
			BatchSize: deps.BatchSize,
			Logger:    deps.Logger,
		},
		RecordActivity: commands.RecordStageActivityUseCase{
			Activity: deps.Activity,
			Clock:    deps.Clock,
			IDGen:    deps.IDGen,
			Logger:   deps.Logger,
		},
		Polls: pollQueries,
	}
}

// NewInMemoryModule wires every port to one memory store and an offline
// analyst, so every stage runs on its deterministic fallbacks. Votes come from
// the store unless a counter is supplied.
func NewInMemoryModule(seed []entities.DecisionContext, votes ports.VoteCounter, publisher ports.EventPublisher, logger *slog.Logger) Module {
	store := memory.NewStore(seed)
	if votes == nil {
		votes = store
	}
	analyst := oracleadapter.NewAnalyst(nil, logger)
	module := NewModule(Dependencies{
		Contexts:        store,
		Decisions:       store,
		Polls:           store,
		Votes:           votes,
		Analyses:        store,
		Learning:        store,
		Settings:        store,
		Brakes:          store,
		AdminLog:        store,
		Activity:        store,
		Outbox:          store,
		Publisher:       publisher,
		DecisionAnalyst: analyst,
		OutcomeAnalyst:  analyst,
		PatternAnalyst:  analyst,
		Clock:           store,
		IDGen:           store,
		Logger:          logger,
	})
	module.Store = store
	return module
}
