package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"plant-advisor/internal/domain"
	"plant-advisor/internal/domain/model"
	"plant-advisor/internal/domain/ports/repository"
	"plant-advisor/internal/infra/metrics"
)

var _ repository.RequestQueue = (*RequestStore)(nil)

// RequestStore is a JSON request queue document shared between processes.
type RequestStore struct {
	wt    model.WorkType
	path  string
	newID func() string
	log   *zerolog.Logger
}

func NewRequestStore(path string, wt model.WorkType, logger *zerolog.Logger) *RequestStore {
	l := logger.With().Str("component", "RequestStore").Str("work_type", wt.String()).Logger()
	return &RequestStore{
		wt:    wt,
		path:  absPath(path),
		newID: uuid.NewString,
		log:   &l,
	}
}

func (s *RequestStore) WorkType() model.WorkType { return s.wt }

func (s *RequestStore) Path() string { return s.path }

// decodeRequestDocument is the single validation step for request documents.
// It returns ok=false when the document must be reset. Entries that do not
// decode are dropped one by one and reported through dirty.
func decodeRequestDocument(b []byte) (doc *model.RequestDocument, dirty, ok bool) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil || raw == nil {
		return nil, false, false
	}
	reqs, ok := raw["requests"]
	if !ok || string(reqs) == "null" {
		return nil, false, false
	}
	doc = model.EmptyRequestDocument()
	var skipped bool
	if doc.Requests, skipped, ok = decodeEntries(reqs); !ok {
		return nil, false, false
	}
	dirty = skipped
	if done, found := raw["processed"]; found && string(done) != "null" {
		if doc.Processed, skipped, ok = decodeEntries(done); !ok {
			return nil, false, false
		}
		dirty = dirty || skipped
	}
	return doc, dirty, true
}

// decodeEntries decodes a JSON array of requests. ok=false means the value
// is not an array at all.
func decodeEntries(b []byte) (out []model.Request, skipped, ok bool) {
	var entries []json.RawMessage
	if err := json.Unmarshal(b, &entries); err != nil {
		return nil, false, false
	}
	out = make([]model.Request, 0, len(entries))
	for _, e := range entries {
		var r model.Request
		if err := json.Unmarshal(e, &r); err != nil {
			skipped = true
			continue
		}
		out = append(out, r)
	}
	return out, skipped, true
}

// load reads and validates the document. reset reports that the file was
// missing or malformed and an empty document was substituted; dirty
// reports that the returned document differs from what is on disk.
func (s *RequestStore) load() (doc *model.RequestDocument, reset, dirty bool, err error) {
	b, err := readDocument(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return model.EmptyRequestDocument(), true, true, nil
		}
		return nil, false, false, fmt.Errorf("read request document: %w", err)
	}
	doc, skipped, ok := decodeRequestDocument(b)
	if !ok {
		return model.EmptyRequestDocument(), true, true, nil
	}
	if skipped {
		s.log.Warn().Str("path", s.path).Msg("dropped undecodable entries from request document")
	}
	dirty = doc.Normalize(s.wt) || skipped
	return doc, false, dirty, nil
}

// update runs fn against the document while holding the document lock and
// persists the result when anything changed.
func (s *RequestStore) update(ctx context.Context, fn func(doc *model.RequestDocument) (bool, error)) (reset bool, err error) {
	unlock, err := lockDocument(ctx, s.path)
	if err != nil {
		return false, err
	}
	defer unlock()

	doc, reset, dirty, err := s.load()
	if err != nil {
		return false, err
	}
	if reset {
		metrics.IncStoreReset(s.wt.String(), "request")
		s.log.Warn().Str("path", s.path).Msg("request document missing or malformed; resetting to empty")
	}

	changed, err := fn(doc)
	if err != nil {
		if dirty {
			if werr := writeDocument(s.path, doc); werr != nil {
				s.log.Error().Err(werr).Msg("failed to persist repaired request document")
			}
		}
		return reset, err
	}
	if dirty || changed {
		if err := writeDocument(s.path, doc); err != nil {
			return reset, err
		}
	}
	return reset, nil
}

func (s *RequestStore) Enqueue(ctx context.Context, p model.Payload) (string, error) {
	if err := p.Validate(s.wt); err != nil {
		return "", err
	}
	req := model.NewRequest(s.newID(), p)
	_, err := s.update(ctx, func(doc *model.RequestDocument) (bool, error) {
		doc.Requests = append(doc.Requests, req)
		return true, nil
	})
	if err != nil {
		return "", fmt.Errorf("enqueue %s request: %w", s.wt, err)
	}
	metrics.IncEnqueued(s.wt.String())
	s.log.Debug().Str("request_id", req.ID).Msg("request enqueued")
	return req.ID, nil
}

func (s *RequestStore) DequeueUnprocessed(ctx context.Context) ([]model.Request, error) {
	var pending []model.Request
	reset, err := s.update(ctx, func(doc *model.RequestDocument) (bool, error) {
		pending = doc.Unprocessed()
		return false, nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s requests: %w", s.wt, err)
	}
	if reset {
		return []model.Request{}, fmt.Errorf("scan %s requests: %w", s.wt, domain.ErrStoreReset)
	}
	metrics.SetPending(s.wt.String(), len(pending))
	return pending, nil
}

func (s *RequestStore) MarkProcessed(ctx context.Context, req model.Request) error {
	_, err := s.update(ctx, func(doc *model.RequestDocument) (bool, error) {
		if !doc.Contains(req.ID) {
			return false, fmt.Errorf("request %s: %w", req.ID, domain.ErrNotFound)
		}
		return doc.MarkProcessed(req), nil
	})
	if err != nil {
		return fmt.Errorf("mark %s request processed: %w", s.wt, err)
	}
	return nil
}

func (s *RequestStore) Stats(ctx context.Context) (repository.QueueStats, error) {
	var st repository.QueueStats
	_, err := s.update(ctx, func(doc *model.RequestDocument) (bool, error) {
		st = repository.QueueStats{
			Requests:  len(doc.Requests),
			Processed: len(doc.Processed),
			Pending:   len(doc.Unprocessed()),
		}
		return false, nil
	})
	return st, err
}

// Init creates an empty document unless one exists.
func (s *RequestStore) Init(ctx context.Context) (bool, error) {
	unlock, err := lockDocument(ctx, s.path)
	if err != nil {
		return false, err
	}
	defer unlock()
	return ensureDocument(s.path, model.EmptyRequestDocument())
}
