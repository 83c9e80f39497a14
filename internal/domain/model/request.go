package model

import (
	"fmt"
	"strings"

	"plant-advisor/internal/domain"
)

// Payload is the work-type specific input of a request.
type Payload struct {
	Disease string
	Query   string
	Context string
}

func DiseasePayload(disease string) Payload { return Payload{Disease: disease} }

func ChatPayload(query, context string) Payload { return Payload{Query: query, Context: context} }

// Validate checks that the fields required by the work type are present.
func (p Payload) Validate(wt WorkType) error {
	switch wt {
	case WorkTypeDisease:
		if strings.TrimSpace(p.Disease) == "" {
			return fmt.Errorf("%w: disease name is required", domain.ErrInvalidArgument)
		}
	case WorkTypeChat:
		if strings.TrimSpace(p.Query) == "" {
			return fmt.Errorf("%w: chat query is required", domain.ErrInvalidArgument)
		}
	default:
		return fmt.Errorf("%w: %q", domain.ErrUnknownWorkType, wt)
	}
	return nil
}

// Key identifies the logical input, used to avoid submitting the same question twice.
func (p Payload) Key(wt WorkType) string {
	if wt == WorkTypeChat {
		return "chat\x00" + p.Query + "\x00" + p.Context
	}
	return "disease\x00" + p.Disease
}

// Request is one unit of queued work. Disease requests carry Disease;
// chat requests carry Query and an optional Context.
type Request struct {
	ID        string    `json:"id"`
	Disease   string    `json:"disease,omitempty"`
	Query     string    `json:"query,omitempty"`
	Context   string    `json:"context,omitempty"`
	Timestamp Timestamp `json:"timestamp"`
}

func NewRequest(id string, p Payload) Request {
	return Request{
		ID:        id,
		Disease:   p.Disease,
		Query:     p.Query,
		Context:   p.Context,
		Timestamp: Now(),
	}
}

func (r Request) Payload() Payload {
	return Payload{Disease: r.Disease, Query: r.Query, Context: r.Context}
}

// Valid reports whether the request carries an id and the payload the work type needs.
func (r Request) Valid(wt WorkType) bool {
	return r.ID != "" && r.Payload().Validate(wt) == nil
}

// Label is a short human readable description used in logs.
func (r Request) Label() string {
	if r.Disease != "" {
		return r.Disease
	}
	q := []rune(r.Query)
	if len(q) > 30 {
		return string(q[:30]) + "..."
	}
	return r.Query
}
