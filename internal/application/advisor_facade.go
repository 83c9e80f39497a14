package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"plant-advisor/internal/domain/model"
	"plant-advisor/internal/domain/ports/adapter"
	"plant-advisor/internal/usecase"
)

// AdvisorFacade composes the producer session and the leaf classifier into
// the front-end commands. Methods return display strings so a CLI or UI
// just prints them.
type AdvisorFacade struct {
	Producer   ProducerIface
	Session    SessionIface
	Classifier adapter.LeafClassifier
}

// NewAdvisorFacade builds a facade with a fresh session. classifier may be
// nil when image diagnosis is not configured.
func NewAdvisorFacade(producer *usecase.Producer, classifier adapter.LeafClassifier) *AdvisorFacade {
	return &AdvisorFacade{Producer: producer, Session: producer.NewSession(), Classifier: classifier}
}

// Diagnose classifies a leaf image and remembers the label for later chat.
// A new image supersedes the recommendation request tracked so far.
func (f *AdvisorFacade) Diagnose(ctx context.Context, image []byte) (string, model.Prediction, error) {
	if f.Classifier == nil {
		return "", model.Prediction{}, errors.New("image classifier not configured")
	}
	pred, err := f.Classifier.Predict(ctx, image)
	if err != nil {
		return "", model.Prediction{}, fmt.Errorf("classify: %w", err)
	}
	f.Session.Forget(model.WorkTypeDisease)
	f.Session.SetDisease(pred.Label)
	msg := fmt.Sprintf("Prediction: %s (confidence %.1f%%)\nPlease verify this prediction against the symptoms before treating.",
		pred.Label, pred.Confidence*100)
	return msg, pred, nil
}

// Recommend requests treatment advice for disease and waits for it.
func (f *AdvisorFacade) Recommend(ctx context.Context, disease string, opts usecase.PollOptions) (string, usecase.PollOutcome, error) {
	out, err := f.Session.RequestRecommendation(ctx, disease, opts)
	if err != nil {
		return "", out, err
	}
	return renderOutcome(model.WorkTypeDisease, out), out, nil
}

// Ask sends a chat question primed with the last diagnosed disease.
func (f *AdvisorFacade) Ask(ctx context.Context, query string, opts usecase.PollOptions) (string, usecase.PollOutcome, error) {
	out, err := f.Session.Ask(ctx, query, opts)
	if err != nil {
		return "", out, err
	}
	return renderOutcome(model.WorkTypeChat, out), out, nil
}

// Retry re-polls the session's outstanding request for wt.
func (f *AdvisorFacade) Retry(ctx context.Context, wt model.WorkType, opts usecase.PollOptions) (string, usecase.PollOutcome, error) {
	out, ok, err := f.Session.Retry(ctx, wt, opts)
	if err != nil {
		return "", out, err
	}
	if !ok {
		return fmt.Sprintf("No pending %s request to retry.", wt), out, nil
	}
	return renderOutcome(wt, out), out, nil
}

// RetryByID re-polls a request known only by id, e.g. from an earlier run.
func (f *AdvisorFacade) RetryByID(ctx context.Context, wt model.WorkType, id string, opts usecase.PollOptions) (string, usecase.PollOutcome, error) {
	out, err := f.Producer.AwaitResult(ctx, wt, id, opts)
	if err != nil {
		return "", out, err
	}
	return renderOutcome(wt, out), out, nil
}

// ContextNote tells the user which condition chat answers will assume.
func (f *AdvisorFacade) ContextNote() string {
	d := f.Session.Disease()
	if d == "" {
		return ""
	}
	return fmt.Sprintf("You recently identified a plant with %s. Answers will take this condition into account.", d)
}

func renderOutcome(wt model.WorkType, out usecase.PollOutcome) string {
	if !out.Ready {
		what := "recommendations"
		if wt == model.WorkTypeChat {
			what = "your answer"
		}
		return fmt.Sprintf("Still working on %s (request %s). Retry later to check again.", what, out.ID)
	}
	var b strings.Builder
	switch wt {
	case model.WorkTypeDisease:
		fmt.Fprintf(&b, "Recommendations for %s:\n\n", out.Result.Disease)
		b.WriteString(out.Result.Recommendation)
	default:
		b.WriteString(out.Result.Response)
	}
	return b.String()
}
