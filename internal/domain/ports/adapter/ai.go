package adapter

import "context"

// ModelInfo describes a model.
type ModelInfo struct {
	Name        string
	Description string
	MaxTokens   int
}

// Usage for a single generation call.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// TextGenerator is the port for LLM text generation.
type TextGenerator interface {
	// Provider names the backend, used as a metrics label.
	Provider() string
	GetModelInfo(ctx context.Context) (ModelInfo, error)

	// Generate returns the model text for prompt plus usage as reported by the provider.
	Generate(ctx context.Context, prompt string) (string, Usage, error)
}
