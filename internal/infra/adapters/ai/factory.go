package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"plant-advisor/internal/config"
	"plant-advisor/internal/domain/model"
	"plant-advisor/internal/domain/ports/adapter"
	"plant-advisor/internal/infra/logging"
)

// NewGenerators builds one generator per work type from config. Provider
// order when none is configured: Gemini key, then OpenAI key, then noop in
// dev mode. All generators share one concurrency limiter.
func NewGenerators(ctx context.Context, cfg config.AIConfig, dev bool, logger *zerolog.Logger) (map[model.WorkType]adapter.TextGenerator, error) {
	provider := strings.ToLower(cfg.Provider)
	if provider == "" {
		switch {
		case cfg.GeminiKey != "":
			provider = "gemini"
		case cfg.OpenAIKey != "":
			provider = "openai"
		case dev:
			provider = "noop"
		default:
			return nil, fmt.Errorf("no AI provider configured: set ai.gemini_key / GEMINI_API_KEY or ai.openai_key / OPENAI_API_KEY")
		}
	}

	models := map[model.WorkType]string{
		model.WorkTypeDisease: cfg.DiseaseModel,
		model.WorkTypeChat:    cfg.ChatModel,
	}
	out := make(map[model.WorkType]adapter.TextGenerator, len(models))
	lim := NewLimiter(cfg.ConcurrentLimit)
	var key string
	switch provider {
	case "gemini":
		key = cfg.GeminiKey
	case "openai":
		key = cfg.OpenAIKey
	}
	for wt, name := range models {
		var gen adapter.TextGenerator
		var err error
		switch provider {
		case "gemini":
			gen, err = NewGeminiAdapter(ctx, cfg.GeminiKey, cfg.GeminiURL, name, cfg.MaxOutputTokens)
		case "openai":
			if strings.HasPrefix(name, "gemini") {
				name = ""
			}
			gen, err = NewOpenAIAdapter(cfg.OpenAIKey, cfg.OpenAIBaseURL, name, cfg.MaxOutputTokens)
		case "noop":
			gen = NewNoopAIAdapter(logger)
		default:
			err = fmt.Errorf("unknown ai provider %q", provider)
		}
		if err != nil {
			return nil, fmt.Errorf("%s adapter for %s: %w", provider, wt, err)
		}
		out[wt] = NewLimitedAI(gen, lim)
		ev := logger.Info().Str("provider", provider).Str("work_type", wt.String()).Str("model", name)
		if key != "" {
			ev = ev.Str("api_key", logging.Redact(key, dev))
		}
		ev.Msg("AI adapter ready")
	}
	return out, nil
}
