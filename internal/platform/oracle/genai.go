package oracle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"
)

// ErrUnavailable is returned when no reasoning backend is configured.
var ErrUnavailable = errors.New("reasoning collaborator unavailable")

// Format is the shape a completion is asked to take.
type Format int

const (
	FormatJSON Format = iota
	FormatText
)

// Completer turns a prompt into model text in the requested format.
type Completer interface {
	Complete(ctx context.Context, prompt string, format Format) (string, error)
}

// GenAI completes prompts with a Gemini model. Every call is bounded by
// timeout so a slow model never stalls a pipeline stage.
type GenAI struct {
	client  *genai.Client
	model   string
	timeout time.Duration
	logger  *slog.Logger
}

func NewGenAI(ctx context.Context, apiKey string, model string, timeout time.Duration, logger *slog.Logger) (*GenAI, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrUnavailable
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &GenAI{client: client, model: model, timeout: timeout, logger: logger}, nil
}

func (g *GenAI) Complete(ctx context.Context, prompt string, format Format) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	started := time.Now()
	resp, err := g.client.Models.GenerateContent(callCtx, g.model, genai.Text(prompt), generateConfig(format))
	if err != nil {
		g.logger.Warn("reasoner completion failed",
			"event", "oracle_genai_complete_failed",
			"module", "internal/platform/oracle",
			"layer", "platform",
			"model", g.model,
			"latency_ms", time.Since(started).Milliseconds(),
			"error", err.Error(),
		)
		return "", err
	}
	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", errors.New("reasoner returned empty completion")
	}
	g.logger.Debug("reasoner completion succeeded",
		"event", "oracle_genai_complete",
		"module", "internal/platform/oracle",
		"layer", "platform",
		"model", g.model,
		"latency_ms", time.Since(started).Milliseconds(),
	)
	return text, nil
}

// generateConfig leaves the MIME type unset for text so prose replies stay prose.
func generateConfig(format Format) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{Temperature: genai.Ptr[float32](0.2)}
	if format == FormatJSON {
		config.ResponseMIMEType = "application/json"
	} else {
		config.Temperature = genai.Ptr[float32](0.7)
	}
	return config
}

// Offline stands in when no API key is configured; callers fall back to
// their deterministic paths.
type Offline struct{}

func (Offline) Complete(context.Context, string, Format) (string, error) {
	return "", ErrUnavailable
}
