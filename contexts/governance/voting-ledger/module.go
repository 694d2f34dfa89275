package votingledger

import (
	"log/slog"

	httpadapter "girthgov/contexts/governance/voting-ledger/adapters/http"
	"girthgov/contexts/governance/voting-ledger/adapters/memory"
	"girthgov/contexts/governance/voting-ledger/application/commands"
	"girthgov/contexts/governance/voting-ledger/application/queries"
	"girthgov/contexts/governance/voting-ledger/application/workers"
	"girthgov/contexts/governance/voting-ledger/ports"
)

type Module struct {
	Handler     httpadapter.Handler
	CastVote    commands.CastVoteUseCase
	Cooldown    queries.CooldownQuery
	Wallet      queries.WalletQuery
	OutboxRelay workers.OutboxRelay
	Store       *memory.Store
}

type Dependencies struct {
	Votes       ports.VoteRepository
	Polls       ports.PollReader
	Settings    ports.SettingsReader
	Sessions    ports.SessionVerifier
	Idempotency ports.IdempotencyStore
	Outbox      ports.OutboxRepository
	Publisher   ports.EventPublisher
	Clock       ports.Clock
	IDGen       ports.IDGenerator
	BatchSize   int
	Logger      *slog.Logger
}

func NewModule(deps Dependencies) Module {
	castVote := commands.CastVoteUseCase{
		Votes:       deps.Votes,
		Polls:       deps.Polls,
		Settings:    deps.Settings,
		Sessions:    deps.Sessions,
		Idempotency: deps.Idempotency,
		Clock:       deps.Clock,
		IDGen:       deps.IDGen,
		Logger:      deps.Logger,
	}
	cooldown := queries.CooldownQuery{
		Votes:    deps.Votes,
		Polls:    deps.Polls,
		Settings: deps.Settings,
		Sessions: deps.Sessions,
		Clock:    deps.Clock,
	}
	wallet := queries.WalletQuery{Votes: deps.Votes, Sessions: deps.Sessions}

	return Module{
		Handler: httpadapter.Handler{
			CastVote: castVote,
			Cooldown: cooldown,
			Wallet:   wallet,
			Logger:   deps.Logger,
		},
		CastVote: castVote,
		Cooldown: cooldown,
		Wallet:   wallet,
		OutboxRelay: workers.OutboxRelay{
			Outbox:    deps.Outbox,
			Publisher: deps.Publisher,
			Clock:     deps.Clock,
			BatchSize: deps.BatchSize,
			Logger:    deps.Logger,
		},
	}
}

// NewInMemoryModule backs the ledger with one memory store. Polls and settings
// are read from the store unless readers are supplied.
func NewInMemoryModule(
	polls ports.PollReader,
	settings ports.SettingsReader,
	sessions ports.SessionVerifier,
	publisher ports.EventPublisher,
	logger *slog.Logger,
) Module {
	store := memory.NewStore()
	if polls == nil {
		polls = store
	}
	if settings == nil {
		settings = store
	}
	module := NewModule(Dependencies{
		Votes:       store,
		Polls:       polls,
		Settings:    settings,
		Sessions:    sessions,
		Idempotency: store,
		Outbox:      store,
		Publisher:   publisher,
		Clock:       store,
		IDGen:       store,
		Logger:      logger,
	})
	module.Store = store
	return module
}
