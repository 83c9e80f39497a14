package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"plant-advisor/internal/domain/model"
	"plant-advisor/internal/domain/ports/repository"
	"plant-advisor/internal/infra/logging"
)

var _ repository.DeadLetterStore = (*DeadLetterStore)(nil)

// DeadLetterStore is an append-only JSON list of abandoned requests.
type DeadLetterStore struct {
	path string
	log  *zerolog.Logger
}

func NewDeadLetterStore(path string, logger *zerolog.Logger) *DeadLetterStore {
	return &DeadLetterStore{path: absPath(path), log: logging.Component(logger, "DeadLetterStore")}
}

// load returns the stored list. raw is non-nil when the file exists but
// does not hold a list; the caller decides what to do with those bytes.
func (s *DeadLetterStore) load() (list []model.DeadLetter, raw []byte, err error) {
	b, err := readDocument(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []model.DeadLetter{}, nil, nil
		}
		return nil, nil, err
	}
	if err := json.Unmarshal(b, &list); err != nil || list == nil {
		s.log.Warn().Err(err).Str("path", s.path).Msg("dead letter document is malformed; treating as empty")
		return []model.DeadLetter{}, b, nil
	}
	return list, nil, nil
}

// Add appends dl. A malformed document is moved aside to
// <path>.corrupt-<unix> before the fresh list is written.
func (s *DeadLetterStore) Add(ctx context.Context, dl model.DeadLetter) error {
	unlock, err := lockDocument(ctx, s.path)
	if err != nil {
		return err
	}
	defer unlock()

	list, raw, err := s.load()
	if err != nil {
		return fmt.Errorf("read dead letters: %w", err)
	}
	if raw != nil {
		backup := fmt.Sprintf("%s.corrupt-%d", s.path, time.Now().Unix())
		if err := os.WriteFile(backup, raw, 0o644); err != nil {
			return fmt.Errorf("keep malformed dead letters: %w", err)
		}
		s.log.Warn().Str("backup", backup).Msg("malformed dead letter document kept aside")
	}
	list = append(list, dl)
	return writeDocument(s.path, list)
}

func (s *DeadLetterStore) List(ctx context.Context) ([]model.DeadLetter, error) {
	list, _, err := s.load()
	return list, err
}
