package ai

import (
	"context"

	"plant-advisor/internal/domain/ports/adapter"
)

// Compile-time check
var _ adapter.TextGenerator = (*limitedAI)(nil)

// Limiter is a counting semaphore shared by the generators it wraps.
type Limiter chan struct{}

// NewLimiter returns nil for n <= 0, meaning no limit.
func NewLimiter(n int) Limiter {
	if n <= 0 {
		return nil
	}
	return make(Limiter, n)
}

type limitedAI struct {
	inner adapter.TextGenerator
	sem   Limiter
}

// NewLimitedAI bounds calls to inner by lim. Generators wrapped with the
// same limiter share its capacity.
func NewLimitedAI(inner adapter.TextGenerator, lim Limiter) adapter.TextGenerator {
	if lim == nil {
		return inner
	}
	return &limitedAI{inner: inner, sem: lim}
}

func (l *limitedAI) Provider() string { return l.inner.Provider() }

func (l *limitedAI) GetModelInfo(ctx context.Context) (adapter.ModelInfo, error) {
	return l.inner.GetModelInfo(ctx)
}

func (l *limitedAI) Generate(ctx context.Context, prompt string) (string, adapter.Usage, error) {
	select {
	case l.sem <- struct{}{}:
	case <-ctx.Done():
		return "", adapter.Usage{}, ctx.Err()
	}
	defer func() { <-l.sem }()
	return l.inner.Generate(ctx, prompt)
}
