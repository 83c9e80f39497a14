package usecase

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"plant-advisor/internal/config"
	"plant-advisor/internal/domain"
	"plant-advisor/internal/domain/model"
)

const defaultDiseasePrompt = `Provide a precise recommendation for treating {{.Disease}} in plants.
Include:
1. Brief description of the disease
2. Symptoms identification
3. Treatment options (organic and chemical)
4. Prevention strategies
5. Expected recovery time in 2 lines
Give everything in bullet points.
Format the response in markdown.`

const defaultChatPrompt = `You are a helpful plant care assistant.

Please respond to the following question in a helpful, concise manner:

User question: {{.Query}}

Your answer should be informative, friendly, and focused on plant care. If you don't know the answer,
acknowledge that and suggest the user consult with a plant expert. Keep your response under 200 words.`

const defaultChatContextPrompt = `You are a helpful plant care assistant. The user previously identified a plant with {{.Context}}.

Please respond to the following question in a helpful, concise manner:

User question: {{.Query}}

Your answer should be informative, friendly, and focused on plant care. If you don't know the answer,
acknowledge that and suggest the user consult with a plant expert. Keep your response under 200 words.`

// PromptBook renders the prompt for a request of each work type. Templates
// are data: they come from config and fall back to the built-in text.
type PromptBook struct {
	disease     *template.Template
	chat        *template.Template
	chatContext *template.Template
}

func NewPromptBook(cfg config.PromptConfig) (*PromptBook, error) {
	parse := func(name, text, def string) (*template.Template, error) {
		if strings.TrimSpace(text) == "" {
			text = def
		}
		t, err := template.New(name).Option("missingkey=error").Parse(text)
		if err != nil {
			return nil, fmt.Errorf("parse %s prompt: %w", name, err)
		}
		return t, nil
	}
	var (
		pb  PromptBook
		err error
	)
	if pb.disease, err = parse("disease", cfg.Disease, defaultDiseasePrompt); err != nil {
		return nil, err
	}
	if pb.chat, err = parse("chat", cfg.Chat, defaultChatPrompt); err != nil {
		return nil, err
	}
	if pb.chatContext, err = parse("chat_context", cfg.ChatContext, defaultChatContextPrompt); err != nil {
		return nil, err
	}
	return &pb, nil
}

// Build renders the prompt for req.
func (pb *PromptBook) Build(wt model.WorkType, req model.Request) (string, error) {
	if err := req.Payload().Validate(wt); err != nil {
		return "", err
	}
	var t *template.Template
	switch wt {
	case model.WorkTypeDisease:
		t = pb.disease
	case model.WorkTypeChat:
		t = pb.chat
		if strings.TrimSpace(req.Context) != "" {
			t = pb.chatContext
		}
	default:
		return "", fmt.Errorf("%w: %q", domain.ErrUnknownWorkType, wt)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, req); err != nil {
		return "", fmt.Errorf("render %s prompt: %w", wt, err)
	}
	return buf.String(), nil
}
