package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	girthindex "girthgov/contexts/ecosystem-health/girth-index-service"
	girthpostgres "girthgov/contexts/ecosystem-health/girth-index-service/adapters/postgres"
	decisionengine "girthgov/contexts/governance/decision-engine"
	oracleadapter "girthgov/contexts/governance/decision-engine/adapters/oracle"
	policyadapter "girthgov/contexts/governance/decision-engine/adapters/policy"
	decisionpostgres "girthgov/contexts/governance/decision-engine/adapters/postgres"
	decisionentities "girthgov/contexts/governance/decision-engine/domain/entities"
	votingledger "girthgov/contexts/governance/voting-ledger"
	ledgerpostgres "girthgov/contexts/governance/voting-ledger/adapters/postgres"
	ledgerports "girthgov/contexts/governance/voting-ledger/ports"
	"girthgov/internal/app/pipeline"
	"girthgov/internal/platform/auth"
	"girthgov/internal/platform/config"
	"girthgov/internal/platform/coordination"
	"girthgov/internal/platform/db"
	"girthgov/internal/platform/httpserver"
	"girthgov/internal/platform/messaging"
	"girthgov/internal/platform/observability"
	"girthgov/internal/platform/oracle"
	"girthgov/internal/platform/ratelimit"

	"github.com/redis/go-redis/v9"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

const eventStreamMaxLen = 100_000

type APIApp struct {
	server *httpserver.Server
	core   *core
}

type WorkerApp struct {
	runner       *pipeline.Runner
	pollInterval time.Duration
	core         *core
}

// ControlApp backs govctl: one-shot stage runs and brake changes.
type ControlApp struct {
	Runner    *pipeline.Runner
	Decisions decisionengine.Module
	core      *core
}

type core struct {
	cfg       config.Config
	postgres  *db.Postgres
	redis     *redis.Client
	meters    *sdkmetric.MeterProvider
	tokens    *auth.TokenService
	girth     girthindex.Module
	decisions decisionengine.Module
	votes     votingledger.Module
	runner    *pipeline.Runner
	logger    *slog.Logger
}

func BuildAPI() (*APIApp, error) {
	c, err := buildCore(context.Background(), "api")
	if err != nil {
		return nil, err
	}
	if c.tokens == nil {
		_ = c.Close()
		return nil, errors.New("JWT_SECRET is required")
	}

	server := httpserver.New(httpserver.Modules{
		Girth:     c.girth,
		Decisions: c.decisions,
		Votes:     c.votes,
	}, httpserver.Options{
		Addr:        normalizeAddr(c.cfg.HTTPPort),
		Admins:      c.tokens,
		Sessions:    c.tokens,
		VoteLimiter: ratelimit.NewKeyedLimiter(c.cfg.VoteRatePerSecond, c.cfg.VoteRateBurst, 10*time.Minute),
		Stages:      c.runner,
		Logger:      c.logger,
	})
	return &APIApp{server: server, core: c}, nil
}

func BuildWorker() (*WorkerApp, error) {
	c, err := buildCore(context.Background(), "worker")
	if err != nil {
		return nil, err
	}
	return &WorkerApp{runner: c.runner, pollInterval: c.cfg.PollInterval, core: c}, nil
}

func BuildControl() (*ControlApp, error) {
	c, err := buildCore(context.Background(), "govctl")
	if err != nil {
		return nil, err
	}
	return &ControlApp{Runner: c.runner, Decisions: c.decisions, core: c}, nil
}

func buildCore(ctx context.Context, process string) (*core, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger := slog.Default().With("service", cfg.ServiceName, "process", process)
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}
	policy, err := config.LoadPolicy(cfg.PolicyFile)
	if err != nil {
		return nil, err
	}
	rules, err := policyadapter.NewCELRules(policy.Rules)
	if err != nil {
		return nil, err
	}

	c := &core{cfg: cfg, logger: logger}
	if strings.TrimSpace(cfg.JWTSecret) != "" {
		c.tokens, err = auth.NewTokenService(cfg.JWTSecret, cfg.JWTIssuer)
		if err != nil {
			return nil, err
		}
	}

	c.postgres, err = db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}
	c.redis, err = coordination.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		_ = c.Close()
		return nil, err
	}
	c.meters, err = observability.NewMeterProvider(ctx, cfg.ServiceName, cfg.OTLPEndpoint, cfg.OTLPInsecure)
	if err != nil {
		_ = c.Close()
		return nil, err
	}
	stageMetrics, err := observability.NewStageMetrics(c.meters.Meter("girthgov/pipeline"))
	if err != nil {
		_ = c.Close()
		return nil, err
	}

	var completer oracle.Completer = oracle.Offline{}
	if strings.TrimSpace(cfg.GenAIAPIKey) != "" {
		genai, err := oracle.NewGenAI(ctx, cfg.GenAIAPIKey, cfg.GenAIModel, cfg.ReasonerTimeout, logger)
		if err != nil {
			_ = c.Close()
			return nil, err
		}
		completer = genai
	}
	analyst := oracleadapter.NewAnalyst(completer, logger)
	publisher := messaging.NewRedisStream(c.redis, cfg.EventStream, eventStreamMaxLen, logger)

	girthRepo := girthpostgres.NewRepository(c.postgres.DB, logger)
	c.girth = girthindex.NewModule(girthindex.Dependencies{
		Events:             girthRepo,
		Index:              girthRepo,
		Metrics:            girthRepo,
		Contexts:           girthRepo,
		Telemetry:          girthRepo,
		Clock:              girthpostgres.SystemClock{},
		IDGen:              girthpostgres.UUIDGenerator{},
		MetricDecayAlpha:   policy.Settings.MetricDecayAlpha,
		EscalationSeverity: policy.Settings.EscalationSeverity,
		Logger:             logger,
	})

	decisionRepo := decisionpostgres.NewRepository(c.postgres.DB, logger)
	c.decisions = decisionengine.NewModule(decisionengine.Dependencies{
		Contexts:         decisionRepo,
		Decisions:        decisionRepo,
		Polls:            decisionRepo,
		Votes:            decisionRepo,
		Analyses:         decisionRepo,
		Learning:         decisionRepo,
		Settings:         decisionRepo,
		Brakes:           decisionRepo,
		AdminLog:         decisionRepo,
		Activity:         decisionRepo,
		Outbox:           decisionRepo,
		Publisher:        publisher,
		DecisionAnalyst:  analyst,
		OutcomeAnalyst:   analyst,
		PatternAnalyst:   analyst,
		Rules:            rules,
		Clock:            decisionpostgres.SystemClock{},
		IDGen:            decisionpostgres.UUIDGenerator{},
		Defaults:         governanceDefaults(policy),
		LearningInterval: cfg.LearningInterval,
		Logger:           logger,
	})

	ledgerRepo := ledgerpostgres.NewRepository(c.postgres.DB, logger)
	var sessions ledgerports.SessionVerifier
	if c.tokens != nil {
		sessions = c.tokens
	}
	c.votes = votingledger.NewModule(votingledger.Dependencies{
		Votes:       ledgerRepo,
		Polls:       ledgerRepo,
		Settings:    ledgerRepo,
		Sessions:    sessions,
		Idempotency: ledgerRepo,
		Outbox:      ledgerRepo,
		Publisher:   publisher,
		Clock:       ledgerpostgres.SystemClock{},
		IDGen:       ledgerpostgres.UUIDGenerator{},
		Logger:      logger,
	})

	activity := c.decisions.RecordActivity
	c.runner = pipeline.NewRunner(
		coordination.NewRedisLease(c.redis, "girthgov:lease:", cfg.LeaseTTL, logger),
		stageMetrics,
		&activity,
		logger,
	)
	pipeline.RegisterStages(c.runner, c.girth, c.decisions, c.votes, pipeline.Toggles{
		DisableScoring:     !cfg.EnableScoringEngine,
		DisableAggregation: !cfg.EnableMetricAggregator,
		DisableSynthesis:   !cfg.EnableDecisionSynthesis,
		DisableForge:       !cfg.EnablePollForge,
		DisableCompletion:  !cfg.EnableCompletionWatcher,
		DisableLearning:    !cfg.EnableLearningScribe,
		DisableRelays:      !cfg.EnableGovernanceRelay,
	})
	return c, nil
}

// governanceDefaults seeds the settings used until the versioned row exists.
func governanceDefaults(policy config.Policy) decisionentities.GovernanceSettings {
	defaults := decisionentities.DefaultGovernanceSettings()
	defaults.ConfidenceThreshold = policy.Settings.ConfidenceThreshold
	defaults.VotingDurationHours = policy.Settings.VotingDurationHours
	defaults.VoteCooldownHours = policy.Settings.VoteCooldownHours
	defaults.BaseReward = float64(policy.Settings.BaseReward)
	defaults.MinContextSeverity = policy.Settings.MinContextSeverity
	return defaults
}

func (a *APIApp) Run(_ context.Context) error {
	a.core.logger.Info("api app started",
		"event", "bootstrap_api_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
	)
	return a.server.Start()
}

func (a *APIApp) Close() error {
	return a.core.Close()
}

func (w *WorkerApp) Run(ctx context.Context) error {
	w.core.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"poll_interval", w.pollInterval.String(),
		"stages", strings.Join(w.runner.Stages(), ","),
	)
	return w.runner.Loop(ctx, w.pollInterval)
}

func (w *WorkerApp) Close() error {
	return w.core.Close()
}

func (a *ControlApp) Close() error {
	return a.core.Close()
}

func (c *core) Close() error {
	var errs []error
	if c.meters != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		errs = append(errs, c.meters.Shutdown(ctx))
		cancel()
	}
	if c.redis != nil {
		errs = append(errs, c.redis.Close())
	}
	if c.postgres != nil {
		errs = append(errs, c.postgres.Close())
	}
	return errors.Join(errs...)
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
