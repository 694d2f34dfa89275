package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName string
	HTTPPort    string
	PostgresDSN string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	EventStream   string
	LeaseTTL      time.Duration

	JWTSecret string
	JWTIssuer string

	GenAIAPIKey     string
	GenAIModel      string
	ReasonerTimeout time.Duration

	OTLPEndpoint string
	OTLPInsecure bool

	PolicyFile       string
	PollInterval     time.Duration
	LearningInterval time.Duration

	VoteRatePerSecond float64
	VoteRateBurst     int

	EnableScoringEngine     bool
	EnableMetricAggregator  bool
	EnableDecisionSynthesis bool
	EnablePollForge         bool
	EnableCompletionWatcher bool
	EnableLearningScribe    bool
	EnableGovernanceRelay   bool
}

func Load() (Config, error) {
	service := os.Getenv("SERVICE_NAME")
	if service == "" {
		service = "girthgov"
	}

	port := os.Getenv("HTTP_PORT")
	if port == "" {
		port = "8080"
	}

	redisAddr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}

	stream := strings.TrimSpace(os.Getenv("EVENT_STREAM"))
	if stream == "" {
		stream = "girthgov.events"
	}

	model := strings.TrimSpace(os.Getenv("GENAI_MODEL"))
	if model == "" {
		model = "gemini-2.5-flash"
	}

	return Config{
		ServiceName: service,
		HTTPPort:    port,
		PostgresDSN: os.Getenv("POSTGRES_DSN"),

		RedisAddr:     redisAddr,
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       envInt("REDIS_DB", 0),
		EventStream:   stream,
		LeaseTTL:      envDuration("STAGE_LEASE_TTL", 2*time.Minute),

		JWTSecret: os.Getenv("JWT_SECRET"),
		JWTIssuer: envString("JWT_ISSUER", "girthgov"),

		GenAIAPIKey:     os.Getenv("GENAI_API_KEY"),
		GenAIModel:      model,
		ReasonerTimeout: envDuration("REASONER_TIMEOUT", 20*time.Second),

		OTLPEndpoint: os.Getenv("OTLP_ENDPOINT"),
		OTLPInsecure: envBool("OTLP_INSECURE", true),

		PolicyFile:       os.Getenv("GOVERNANCE_POLICY_FILE"),
		PollInterval:     envDuration("WORKER_POLL_INTERVAL", 30*time.Second),
		LearningInterval: envDuration("LEARNING_INTERVAL", 24*time.Hour),

		VoteRatePerSecond: envFloat("VOTE_RATE_PER_SECOND", 0.5),
		VoteRateBurst:     envInt("VOTE_RATE_BURST", 3),

		EnableScoringEngine:     envBool("ENABLE_SCORING_ENGINE", true),
		EnableMetricAggregator:  envBool("ENABLE_METRIC_AGGREGATOR", true),
		EnableDecisionSynthesis: envBool("ENABLE_DECISION_SYNTHESIS", true),
		EnablePollForge:         envBool("ENABLE_POLL_FORGE", true),
		EnableCompletionWatcher: envBool("ENABLE_COMPLETION_WATCHER", true),
		EnableLearningScribe:    envBool("ENABLE_LEARNING_SCRIBE", true),
		EnableGovernanceRelay:   envBool("ENABLE_GOVERNANCE_RELAY", true),
	}, nil
}

func envString(name string, fallback string) string {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	return raw
}

func envBool(name string, fallback bool) bool {
	raw := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if raw == "" {
		return fallback
	}
	switch raw {
	case "1", "true", "t", "yes", "y", "on":
		return true
	case "0", "false", "f", "no", "n", "off":
		return false
	default:
		return fallback
	}
}

func envInt(name string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

func envFloat(name string, fallback float64) float64 {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}
	return value
}

func envDuration(name string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	value, err := time.ParseDuration(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}
