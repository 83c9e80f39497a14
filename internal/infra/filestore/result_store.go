package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"plant-advisor/internal/domain"
	"plant-advisor/internal/domain/model"
	"plant-advisor/internal/domain/ports/repository"
)

var _ repository.ResultStore = (*ResultStore)(nil)

// ResultStore is a JSON map from request id to result.
type ResultStore struct {
	wt   model.WorkType
	path string
	log  *zerolog.Logger
}

func NewResultStore(path string, wt model.WorkType, logger *zerolog.Logger) *ResultStore {
	l := logger.With().Str("component", "ResultStore").Str("work_type", wt.String()).Logger()
	return &ResultStore{wt: wt, path: absPath(path), log: &l}
}

func (s *ResultStore) Path() string { return s.path }

// load treats a missing or malformed document as empty. Entries without
// generated text are dropped so callers never see a partial result.
func (s *ResultStore) load() (model.ResultDocument, error) {
	b, err := readDocument(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return model.ResultDocument{}, nil
		}
		return nil, fmt.Errorf("read result document: %w", err)
	}
	var doc model.ResultDocument
	if err := json.Unmarshal(b, &doc); err != nil || doc == nil {
		s.log.Warn().Err(err).Str("path", s.path).Msg("result document malformed; treating as empty")
		return model.ResultDocument{}, nil
	}
	for id, r := range doc {
		if !r.Complete() {
			delete(doc, id)
		}
	}
	return doc, nil
}

func (s *ResultStore) PollResult(ctx context.Context, id string) (model.Result, bool, error) {
	if err := ctx.Err(); err != nil {
		return model.Result{}, false, err
	}
	doc, err := s.load()
	if err != nil {
		return model.Result{}, false, err
	}
	r, ok := doc[id]
	return r, ok, nil
}

func (s *ResultStore) StoreResult(ctx context.Context, id string, res model.Result) error {
	if id == "" || !res.Complete() {
		return fmt.Errorf("store %s result: %w", s.wt, domain.ErrInvalidArgument)
	}
	unlock, err := lockDocument(ctx, s.path)
	if err != nil {
		return err
	}
	defer unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}
	if _, exists := doc[id]; exists {
		return fmt.Errorf("result %s: %w", id, domain.ErrAlreadyExists)
	}
	doc[id] = res
	if err := writeDocument(s.path, doc); err != nil {
		return fmt.Errorf("store %s result: %w", s.wt, err)
	}
	return nil
}

func (s *ResultStore) Count(ctx context.Context) (int, error) {
	doc, err := s.load()
	if err != nil {
		return 0, err
	}
	return len(doc), nil
}

func (s *ResultStore) Init(ctx context.Context) (bool, error) {
	unlock, err := lockDocument(ctx, s.path)
	if err != nil {
		return false, err
	}
	defer unlock()
	return ensureDocument(s.path, model.ResultDocument{})
}
