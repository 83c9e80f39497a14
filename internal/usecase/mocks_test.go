package usecase_test

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"plant-advisor/internal/domain/model"
	"plant-advisor/internal/domain/ports/adapter"
	"plant-advisor/internal/infra/filestore"
	"plant-advisor/internal/usecase"
)

func newTestLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

// stubGenerator returns canned text or blocks until ctx is done.
type stubGenerator struct {
	mu      sync.Mutex
	text    string
	err     error
	block   bool
	prompts []string
}

func (g *stubGenerator) Provider() string { return "stub" }

func (g *stubGenerator) GetModelInfo(context.Context) (adapter.ModelInfo, error) {
	return adapter.ModelInfo{Name: "stub"}, nil
}

func (g *stubGenerator) Generate(ctx context.Context, prompt string) (string, adapter.Usage, error) {
	g.mu.Lock()
	g.prompts = append(g.prompts, prompt)
	text, err, block := g.text, g.err, g.block
	g.mu.Unlock()
	if block {
		<-ctx.Done()
		return "", adapter.Usage{}, ctx.Err()
	}
	return text, adapter.Usage{PromptTokens: 3, CompletionTokens: 5, TotalTokens: 8}, err
}

func (g *stubGenerator) lastPrompt() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.prompts) == 0 {
		return ""
	}
	return g.prompts[len(g.prompts)-1]
}

// chanNotifier hands out one channel per Subscribe call.
type chanNotifier struct {
	ch chan string
}

func (n *chanNotifier) Notify(_ context.Context, _ model.WorkType, id string) error {
	n.ch <- id
	return nil
}

func (n *chanNotifier) Subscribe(context.Context, model.WorkType) (<-chan string, error) {
	return n.ch, nil
}

func newSharedDir(dir string) (*filestore.Shared, map[model.WorkType]usecase.QueuePair, error) {
	shared := filestore.Open(dir, newTestLogger())
	if _, err := shared.Init(context.Background()); err != nil {
		return nil, nil, err
	}
	pairs := map[model.WorkType]usecase.QueuePair{}
	for _, p := range shared.Pipelines() {
		pairs[p.WorkType] = usecase.QueuePair{Requests: p.Requests, Results: p.Results}
	}
	return shared, pairs, nil
}
