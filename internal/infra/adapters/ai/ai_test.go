package ai_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"plant-advisor/internal/config"
	"plant-advisor/internal/domain/model"
	"plant-advisor/internal/domain/ports/adapter"
	ai "plant-advisor/internal/infra/adapters/ai"
)

type slowAI struct {
	inFlight int32
	peak     int32
}

func (s *slowAI) Provider() string { return "slow" }
func (s *slowAI) GetModelInfo(ctx context.Context) (adapter.ModelInfo, error) {
	return adapter.ModelInfo{Name: "slow"}, nil
}
func (s *slowAI) Generate(ctx context.Context, prompt string) (string, adapter.Usage, error) {
	n := atomic.AddInt32(&s.inFlight, 1)
	for {
		p := atomic.LoadInt32(&s.peak)
		if n <= p || atomic.CompareAndSwapInt32(&s.peak, p, n) {
			break
		}
	}
	time.Sleep(20 * time.Millisecond)
	atomic.AddInt32(&s.inFlight, -1)
	return "ok", adapter.Usage{}, nil
}

func TestLimitedAI_BoundsConcurrency(t *testing.T) {
	t.Parallel()
	inner := &slowAI{}
	lim := ai.NewLimitedAI(inner, ai.NewLimiter(2))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, _ = lim.Generate(context.Background(), "p")
		}()
	}
	wg.Wait()
	if peak := atomic.LoadInt32(&inner.peak); peak > 2 {
		t.Fatalf("expected at most 2 concurrent calls, saw %d", peak)
	}
	if lim.Provider() != "slow" {
		t.Errorf("limiter should report the inner provider")
	}
}

func TestLimitedAI_ZeroLimitReturnsInner(t *testing.T) {
	t.Parallel()
	inner := &slowAI{}
	if got := ai.NewLimitedAI(inner, ai.NewLimiter(0)); got != adapter.TextGenerator(inner) {
		t.Fatal("expected the inner generator back when limit is 0")
	}
}

func TestLimitedAI_SharedLimiterSpansGenerators(t *testing.T) {
	t.Parallel()
	inner := &slowAI{}
	lim := ai.NewLimiter(1)
	gens := []adapter.TextGenerator{ai.NewLimitedAI(inner, lim), ai.NewLimitedAI(inner, lim)}

	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func(g adapter.TextGenerator) {
			defer wg.Done()
			_, _, _ = g.Generate(context.Background(), "p")
		}(gens[i%2])
	}
	wg.Wait()
	if peak := atomic.LoadInt32(&inner.peak); peak > 1 {
		t.Fatalf("expected one call at a time across both generators, saw %d", peak)
	}
}

func TestNoopAI_RespectsContext(t *testing.T) {
	t.Parallel()
	l := zerolog.Nop()
	n := ai.NewNoopAIAdapter(&l)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, err := n.Generate(ctx, "hello"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	text, _, err := n.Generate(context.Background(), "hello")
	if err != nil || text == "" {
		t.Fatalf("expected canned text, got %q (%v)", text, err)
	}
}

func TestNewGenerators_ProviderSelection(t *testing.T) {
	t.Parallel()
	l := zerolog.Nop()
	ctx := context.Background()

	if _, err := ai.NewGenerators(ctx, config.AIConfig{}, false, &l); err == nil {
		t.Fatal("expected an error without keys outside dev mode")
	}

	gens, err := ai.NewGenerators(ctx, config.AIConfig{ConcurrentLimit: 1}, true, &l)
	if err != nil {
		t.Fatalf("dev mode should fall back to noop: %v", err)
	}
	for _, wt := range model.WorkTypes {
		g, ok := gens[wt]
		if !ok {
			t.Fatalf("missing generator for %s", wt)
		}
		if g.Provider() != "noop" {
			t.Errorf("expected noop provider for %s, got %s", wt, g.Provider())
		}
	}

	gens, err = ai.NewGenerators(ctx, config.AIConfig{OpenAIKey: "sk-test", ChatModel: "gpt-4o-mini"}, false, &l)
	if err != nil {
		t.Fatalf("openai selection: %v", err)
	}
	if gens[model.WorkTypeChat].Provider() != "openai" {
		t.Errorf("expected openai provider, got %s", gens[model.WorkTypeChat].Provider())
	}
}

func TestNewGenerators_RedactsKeyOutsideDev(t *testing.T) {
	t.Parallel()
	const key = "sk-test-0123456789abcdef"
	var buf bytes.Buffer
	l := zerolog.New(&buf)
	cfg := config.AIConfig{Provider: "openai", OpenAIKey: key, ConcurrentLimit: 2}

	gens, err := ai.NewGenerators(context.Background(), cfg, false, &l)
	if err != nil {
		t.Fatalf("new generators: %v", err)
	}
	if len(gens) != len(model.WorkTypes) {
		t.Fatalf("expected a generator per work type, got %d", len(gens))
	}
	if strings.Contains(buf.String(), key) {
		t.Fatalf("api key leaked into logs: %s", buf.String())
	}
	if !strings.Contains(buf.String(), "sk-t...ef") {
		t.Fatalf("expected a redacted key preview, got %s", buf.String())
	}
}
