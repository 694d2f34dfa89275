package girthindex

import (
	"log/slog"

	httpadapter "girthgov/contexts/ecosystem-health/girth-index-service/adapters/http"
	"girthgov/contexts/ecosystem-health/girth-index-service/adapters/memory"
	"girthgov/contexts/ecosystem-health/girth-index-service/application/commands"
	"girthgov/contexts/ecosystem-health/girth-index-service/application/queries"
	"girthgov/contexts/ecosystem-health/girth-index-service/application/workers"
	"girthgov/contexts/ecosystem-health/girth-index-service/domain/entities"
	"girthgov/contexts/ecosystem-health/girth-index-service/ports"
)

type Module struct {
	Handler          httpadapter.Handler
	ScoringEngine    workers.EventScoringEngine
	MetricAggregator workers.MetricAggregator
	Store            *memory.Store
}

type Dependencies struct {
	Events    ports.EventRepository
	Index     ports.IndexRepository
	Metrics   ports.MetricRepository
	Contexts  ports.DecisionContextWriter
	Telemetry ports.TelemetrySource
	Clock     ports.Clock
	IDGen     ports.IDGenerator

	MaxIngestBatch     int
	ScoringBatchSize   int
	MetricDecayAlpha   float64
	EscalationSeverity float64
	Logger             *slog.Logger
}

func NewModule(deps Dependencies) Module {
	ingest := commands.IngestEventsUseCase{
		Events:   deps.Events,
		Clock:    deps.Clock,
		IDGen:    deps.IDGen,
		MaxBatch: deps.MaxIngestBatch,
		Logger:   deps.Logger,
	}
	indexQueries := queries.IndexQueries{
		Index:   deps.Index,
		Metrics: deps.Metrics,
		Clock:   deps.Clock,
	}
	return Module{
		Handler: httpadapter.Handler{
			IngestEvents: ingest,
			Queries:      indexQueries,
			Logger:       deps.Logger,
		},
		ScoringEngine: workers.EventScoringEngine{
			Events:    deps.Events,
			Index:     deps.Index,
			Clock:     deps.Clock,
			IDGen:     deps.IDGen,
			BatchSize: deps.ScoringBatchSize,
			Logger:    deps.Logger,
		},
		MetricAggregator: workers.MetricAggregator{
			Telemetry:          deps.Telemetry,
			Metrics:            deps.Metrics,
			Contexts:           deps.Contexts,
			Clock:              deps.Clock,
			IDGen:              deps.IDGen,
			DecayAlpha:         deps.MetricDecayAlpha,
			EscalationSeverity: deps.EscalationSeverity,
			Source:             "telemetry",
			Logger:             deps.Logger,
		},
	}
}

func NewInMemoryModule(seed []entities.GameEvent, logger *slog.Logger) Module {
	store := memory.NewStore(seed)
	module := NewModule(Dependencies{
		Events:    store,
		Index:     store,
		Metrics:   store,
		Contexts:  store,
		Telemetry: store,
		Clock:     store,
		IDGen:     store,
		Logger:    logger,
	})
	module.Store = store
	return module
}
