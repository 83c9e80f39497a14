package application_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"plant-advisor/internal/application"
	"plant-advisor/internal/domain/model"
	"plant-advisor/internal/infra/filestore"
	"plant-advisor/internal/usecase"
)

type mockClassifier struct {
	pred model.Prediction
	err  error
}

func (m *mockClassifier) Predict(context.Context, []byte) (model.Prediction, error) {
	return m.pred, m.err
}

func newFacade(t *testing.T, cls *mockClassifier) (*application.AdvisorFacade, *filestore.Shared) {
	t.Helper()
	nop := zerolog.Nop()
	shared := filestore.Open(t.TempDir(), &nop)
	if _, err := shared.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}
	pairs := map[model.WorkType]usecase.QueuePair{}
	for _, p := range shared.Pipelines() {
		pairs[p.WorkType] = usecase.QueuePair{Requests: p.Requests, Results: p.Results}
	}
	prod := usecase.NewProducer(pairs, usecase.PollOptions{}, nil, &nop)
	if cls == nil {
		return application.NewAdvisorFacade(prod, nil), shared
	}
	return application.NewAdvisorFacade(prod, cls), shared
}

var quick = usecase.PollOptions{MaxAttempts: 2, Interval: time.Millisecond}

func TestAdvisorFacade_DiagnoseThenAsk(t *testing.T) {
	ctx := context.Background()
	f, shared := newFacade(t, &mockClassifier{pred: model.Prediction{Index: 21, Label: "Potato___Late_blight", Confidence: 0.93}})

	msg, pred, err := f.Diagnose(ctx, []byte("img"))
	if err != nil {
		t.Fatalf("diagnose: %v", err)
	}
	if pred.Label != "Potato___Late_blight" || !strings.Contains(msg, "93.0%") {
		t.Fatalf("unexpected diagnosis %q %+v", msg, pred)
	}
	if !strings.Contains(f.ContextNote(), "Potato___Late_blight") {
		t.Fatalf("context note missing disease: %q", f.ContextNote())
	}

	text, out, err := f.Ask(ctx, "Is it contagious?", quick)
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	if out.Ready || !strings.Contains(text, out.ID) {
		t.Fatalf("expected a not-ready message naming the request, got %q", text)
	}
	p, _ := shared.Pipeline(model.WorkTypeChat)
	pending, _ := p.Requests.DequeueUnprocessed(ctx)
	if len(pending) != 1 || pending[0].Context != "Potato___Late_blight" {
		t.Fatalf("chat request should carry the diagnosis, got %+v", pending)
	}
}

func TestAdvisorFacade_RecommendReadyAfterRetry(t *testing.T) {
	ctx := context.Background()
	f, shared := newFacade(t, nil)

	_, out, err := f.Recommend(ctx, "Tomato___Early_blight", quick)
	if err != nil || out.Ready {
		t.Fatalf("expected not ready, got %+v err=%v", out, err)
	}

	p, _ := shared.Pipeline(model.WorkTypeDisease)
	req := model.NewRequest(out.ID, model.DiseasePayload("Tomato___Early_blight"))
	res, _ := model.NewResult(model.WorkTypeDisease, req, "- Remove lower leaves")
	if err := p.Results.StoreResult(ctx, out.ID, res); err != nil {
		t.Fatalf("store: %v", err)
	}

	text, again, err := f.Retry(ctx, model.WorkTypeDisease, quick)
	if err != nil || !again.Ready {
		t.Fatalf("expected ready after retry, got %+v err=%v", again, err)
	}
	if !strings.Contains(text, "Tomato___Early_blight") || !strings.Contains(text, "- Remove lower leaves") {
		t.Fatalf("unexpected rendering %q", text)
	}

	byID, _, err := f.RetryByID(ctx, model.WorkTypeDisease, out.ID, quick)
	if err != nil || byID != text {
		t.Fatalf("RetryByID should render the same result, got %q err=%v", byID, err)
	}
}

func TestAdvisorFacade_NewDiagnosisSupersedesRecommendation(t *testing.T) {
	ctx := context.Background()
	f, shared := newFacade(t, &mockClassifier{pred: model.Prediction{Index: 29, Label: "Tomato___Early_blight", Confidence: 0.8}})

	_, first, err := f.Recommend(ctx, "Tomato___Early_blight", quick)
	if err != nil || first.Ready {
		t.Fatalf("expected not ready, got %+v err=%v", first, err)
	}
	if _, _, err := f.Diagnose(ctx, []byte("new leaf")); err != nil {
		t.Fatalf("diagnose: %v", err)
	}

	text, _, err := f.Retry(ctx, model.WorkTypeDisease, quick)
	if err != nil || !strings.Contains(text, "No pending") {
		t.Fatalf("a new diagnosis should drop the tracked request, got %q err=%v", text, err)
	}
	_, second, err := f.Recommend(ctx, "Tomato___Early_blight", quick)
	if err != nil {
		t.Fatalf("recommend: %v", err)
	}
	if second.ID == first.ID {
		t.Fatalf("expected a fresh request after a new diagnosis, reused %s", first.ID)
	}
	p, _ := shared.Pipeline(model.WorkTypeDisease)
	if st, _ := p.Requests.Stats(ctx); st.Requests != 2 {
		t.Fatalf("expected two disease requests, got %+v", st)
	}
}

func TestAdvisorFacade_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("should fail without a classifier", func(t *testing.T) {
		f, _ := newFacade(t, nil)
		if _, _, err := f.Diagnose(ctx, []byte("x")); err == nil {
			t.Fatalf("expected error")
		}
	})

	t.Run("should surface classifier failures", func(t *testing.T) {
		boom := errors.New("model offline")
		f, _ := newFacade(t, &mockClassifier{err: boom})
		if _, _, err := f.Diagnose(ctx, []byte("x")); !errors.Is(err, boom) {
			t.Fatalf("expected wrapped classifier error, got %v", err)
		}
		if f.ContextNote() != "" {
			t.Fatalf("failed diagnosis must not set a context")
		}
	})

	t.Run("should report nothing to retry", func(t *testing.T) {
		f, _ := newFacade(t, nil)
		text, _, err := f.Retry(ctx, model.WorkTypeChat, quick)
		if err != nil || !strings.Contains(text, "No pending") {
			t.Fatalf("unexpected retry result %q err=%v", text, err)
		}
	})
}
