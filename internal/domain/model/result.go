package model

import (
	"fmt"

	"plant-advisor/internal/domain"
)

// Result is the generated output for one request. Disease results carry
// Disease and Recommendation; chat results carry Query and Response.
type Result struct {
	Disease        string    `json:"disease,omitempty"`
	Recommendation string    `json:"recommendation,omitempty"`
	Query          string    `json:"query,omitempty"`
	Response       string    `json:"response,omitempty"`
	Timestamp      Timestamp `json:"timestamp"`
}

// ResultDocument maps request ids to results.
type ResultDocument map[string]Result

// NewResult builds the result for req echoing its input next to text.
func NewResult(wt WorkType, req Request, text string) (Result, error) {
	switch wt {
	case WorkTypeDisease:
		return Result{Disease: req.Disease, Recommendation: text, Timestamp: Now()}, nil
	case WorkTypeChat:
		return Result{Query: req.Query, Response: text, Timestamp: Now()}, nil
	}
	return Result{}, fmt.Errorf("%w: %q", domain.ErrUnknownWorkType, wt)
}

// Text returns the generated text regardless of work type.
func (r Result) Text() string {
	if r.Recommendation != "" {
		return r.Recommendation
	}
	return r.Response
}

// Complete reports whether the result holds generated text.
func (r Result) Complete() bool { return r.Text() != "" }
