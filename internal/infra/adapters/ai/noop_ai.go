package ai

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"plant-advisor/internal/domain/ports/adapter"
)

var _ adapter.TextGenerator = (*NoopAIAdapter)(nil)

// NoopAIAdapter implements adapter.TextGenerator for local/dev testing.
// It logs prompts instead of sending real AI requests.
type NoopAIAdapter struct {
	log   *zerolog.Logger
	delay time.Duration
}

func NewNoopAIAdapter(logger *zerolog.Logger) *NoopAIAdapter {
	l := logger.With().Str("component", "NoopAI").Logger()
	return &NoopAIAdapter{log: &l, delay: 100 * time.Millisecond}
}

func (a *NoopAIAdapter) Provider() string { return "noop" }

func (a *NoopAIAdapter) GetModelInfo(ctx context.Context) (adapter.ModelInfo, error) {
	return adapter.ModelInfo{
		Name:        "noop-ai-model",
		Description: "Noop AI model for testing",
		MaxTokens:   1024,
	}, nil
}

// Generate simulates a small delay, respects ctx and returns a canned answer.
func (a *NoopAIAdapter) Generate(ctx context.Context, prompt string) (string, adapter.Usage, error) {
	select {
	case <-time.After(a.delay):
	case <-ctx.Done():
		return "", adapter.Usage{}, ctx.Err()
	}
	a.log.Debug().Int("prompt_len", len(prompt)).Msg("noop generation")
	words := len(strings.Fields(prompt))
	return "- This is a noop AI response.", adapter.Usage{PromptTokens: words, CompletionTokens: 6, TotalTokens: words + 6}, nil
}
