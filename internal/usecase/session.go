package usecase

import (
	"context"
	"sync"

	"github.com/oklog/ulid/v2"

	"plant-advisor/internal/domain/model"
)

type pendingRequest struct {
	key string
	id  string
}

// Session is one interactive user's view of the producer. It remembers the
// request id for the current input of each work type and only submits again
// when the input changes, so re-rendering or retrying never duplicates
// generation work.
type Session struct {
	ID       string
	producer *Producer

	mu      sync.Mutex
	pending map[model.WorkType]pendingRequest
	disease string
}

func (p *Producer) NewSession() *Session {
	return &Session{
		ID:       ulid.Make().String(),
		producer: p,
		pending:  make(map[model.WorkType]pendingRequest, len(model.WorkTypes)),
	}
}

// Submit returns the outstanding id when payload matches the current input
// for wt, otherwise enqueues a new request. reused reports the former.
func (s *Session) Submit(ctx context.Context, wt model.WorkType, payload model.Payload) (id string, reused bool, err error) {
	key := payload.Key(wt)

	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.pending[wt]; ok && cur.key == key {
		return cur.id, true, nil
	}
	id, err = s.producer.Submit(ctx, wt, payload)
	if err != nil {
		return "", false, err
	}
	s.pending[wt] = pendingRequest{key: key, id: id}
	return id, false, nil
}

// Pending returns the id tracked for wt.
func (s *Session) Pending(wt model.WorkType) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.pending[wt]
	return cur.id, ok
}

// Forget drops the tracked request for wt so the next Submit enqueues.
func (s *Session) Forget(wt model.WorkType) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, wt)
}

// SetDisease records the most recently identified condition. It becomes the
// context of later chat questions.
func (s *Session) SetDisease(label string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disease = label
}

func (s *Session) Disease() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.disease
}

// RequestRecommendation submits (or reuses) the recommendation request for
// disease and waits for it.
func (s *Session) RequestRecommendation(ctx context.Context, disease string, opts PollOptions) (PollOutcome, error) {
	s.SetDisease(disease)
	id, _, err := s.Submit(ctx, model.WorkTypeDisease, model.DiseasePayload(disease))
	if err != nil {
		return PollOutcome{}, err
	}
	return s.producer.AwaitResult(ctx, model.WorkTypeDisease, id, opts)
}

// Ask submits (or reuses) a chat question primed with the session's
// current disease and waits for the answer.
func (s *Session) Ask(ctx context.Context, query string, opts PollOptions) (PollOutcome, error) {
	id, _, err := s.Submit(ctx, model.WorkTypeChat, model.ChatPayload(query, s.Disease()))
	if err != nil {
		return PollOutcome{}, err
	}
	return s.producer.AwaitResult(ctx, model.WorkTypeChat, id, opts)
}

// Retry re-polls the tracked request for wt without submitting again.
func (s *Session) Retry(ctx context.Context, wt model.WorkType, opts PollOptions) (PollOutcome, bool, error) {
	id, ok := s.Pending(wt)
	if !ok {
		return PollOutcome{}, false, nil
	}
	out, err := s.producer.AwaitResult(ctx, wt, id, opts)
	return out, true, err
}
