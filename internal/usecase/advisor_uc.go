package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"plant-advisor/internal/domain"
	"plant-advisor/internal/domain/model"
	"plant-advisor/internal/domain/ports/adapter"
	"plant-advisor/internal/infra/logging"
	"plant-advisor/internal/infra/metrics"
)

// Compile-time check
var _ AdvisorUseCase = (*advisorUC)(nil)

// AdvisorUseCase runs one synchronous generation per request.
type AdvisorUseCase interface {
	Generate(ctx context.Context, wt model.WorkType, req model.Request) (string, error)
	Recommend(ctx context.Context, disease string) (string, error)
	Answer(ctx context.Context, query, condition string) (string, error)
}

type advisorUC struct {
	prompts    *PromptBook
	generators map[model.WorkType]adapter.TextGenerator
	timeout    time.Duration
	log        *zerolog.Logger
}

// NewAdvisorUseCase wires the prompt book to one generator per work type.
// timeout bounds each generation call; zero disables it.
func NewAdvisorUseCase(prompts *PromptBook, generators map[model.WorkType]adapter.TextGenerator, timeout time.Duration, logger *zerolog.Logger) *advisorUC {
	l := logging.Component(logger, "AdvisorUC")
	return &advisorUC{prompts: prompts, generators: generators, timeout: timeout, log: l}
}

func (a *advisorUC) Generate(ctx context.Context, wt model.WorkType, req model.Request) (string, error) {
	gen, ok := a.generators[wt]
	if !ok || gen == nil {
		return "", fmt.Errorf("%w: no generator for %q", domain.ErrUnknownWorkType, wt)
	}
	prompt, err := a.prompts.Build(wt, req)
	if err != nil {
		return "", err
	}

	callCtx := ctx
	cancel := func() {}
	if a.timeout > 0 {
		callCtx, cancel = context.WithTimeout(ctx, a.timeout)
	}
	defer cancel()

	start := time.Now()
	text, usage, err := gen.Generate(callCtx, prompt)
	latency := time.Since(start)

	if err == nil && strings.TrimSpace(text) == "" {
		err = domain.ErrEmptyGeneration
	}
	if err != nil && ctx.Err() == nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) {
		err = fmt.Errorf("%w after %s: %v", domain.ErrGenerationTimeout, a.timeout, err)
	}
	metrics.ObserveGeneration(gen.Provider(), wt.String(), usage.PromptTokens, usage.CompletionTokens, int(latency/time.Millisecond), err == nil)
	if err != nil {
		return "", err
	}
	a.log.Debug().Str("work_type", wt.String()).Int("tokens", usage.TotalTokens).Dur("latency", latency).Msg("generation finished")
	return text, nil
}

func (a *advisorUC) Recommend(ctx context.Context, disease string) (string, error) {
	return a.Generate(ctx, model.WorkTypeDisease, model.NewRequest("", model.DiseasePayload(disease)))
}

func (a *advisorUC) Answer(ctx context.Context, query, condition string) (string, error) {
	return a.Generate(ctx, model.WorkTypeChat, model.NewRequest("", model.ChatPayload(query, condition)))
}
