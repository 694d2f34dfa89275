package bootstrap

import (
	"context"
	"log/slog"

	girthindex "girthgov/contexts/ecosystem-health/girth-index-service"
	decisionengine "girthgov/contexts/governance/decision-engine"
	decisionentities "girthgov/contexts/governance/decision-engine/domain/entities"
	votingledger "girthgov/contexts/governance/voting-ledger"
	ledgerports "girthgov/contexts/governance/voting-ledger/ports"
	"girthgov/internal/app/pipeline"
	"girthgov/internal/platform/coordination"
	"girthgov/internal/platform/messaging"
)

// InMemoryApp wires all three modules to memory stores behind one bus. It
// backs govctl --memory and the end-to-end tests.
type InMemoryApp struct {
	Girth     girthindex.Module
	Decisions decisionengine.Module
	Votes     votingledger.Module
	Bus       *messaging.Bus
	Runner    *pipeline.Runner
}

func BuildInMemory(sessions ledgerports.SessionVerifier, logger *slog.Logger) *InMemoryApp {
	if logger == nil {
		logger = slog.Default()
	}
	bus := messaging.NewBus(logger)

	var votes votingledger.Module
	counter := voteCounterFunc(func(ctx context.Context, pollID string) (map[string]int, error) {
		return votes.Store.CountVotes(ctx, pollID)
	})
	decisions := decisionengine.NewInMemoryModule(nil, counter, bus, logger)
	votes = votingledger.NewInMemoryModule(
		ledgerPolls{polls: decisions.Store},
		ledgerSettings{settings: decisions.Store, defaults: decisionentities.DefaultGovernanceSettings()},
		sessions,
		bus,
		logger,
	)

	girth := girthindex.NewInMemoryModule(nil, logger)
	girth.Store.ContextSink = forwardContexts(decisions.Store)

	activity := decisions.RecordActivity
	runner := pipeline.NewRunner(coordination.NewMemoryLease(), nil, &activity, logger)
	pipeline.RegisterStages(runner, girth, decisions, votes, pipeline.Toggles{})

	return &InMemoryApp{
		Girth:     girth,
		Decisions: decisions,
		Votes:     votes,
		Bus:       bus,
		Runner:    runner,
	}
}
