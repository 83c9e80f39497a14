package filestore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"plant-advisor/internal/domain"
	"plant-advisor/internal/domain/model"
)

// File names inside the shared directory. The names match what the
// front end already reads and writes.
var documentNames = map[model.WorkType]struct{ queue, results, deadLetter string }{
	model.WorkTypeDisease: {"disease_queue.json", "recommendations.json", "disease_dead_letter.json"},
	model.WorkTypeChat:    {"chat_queue.json", "chat_responses.json", "chat_dead_letter.json"},
}

// Pipeline groups the documents of one work type.
type Pipeline struct {
	WorkType    model.WorkType
	Requests    *RequestStore
	Results     *ResultStore
	DeadLetters *DeadLetterStore
}

// Shared is the set of documents living in one shared directory.
type Shared struct {
	Dir       string
	pipelines map[model.WorkType]*Pipeline
}

func Open(dir string, logger *zerolog.Logger) *Shared {
	dir = absPath(dir)
	s := &Shared{Dir: dir, pipelines: make(map[model.WorkType]*Pipeline, len(documentNames))}
	for _, wt := range model.WorkTypes {
		names := documentNames[wt]
		s.pipelines[wt] = &Pipeline{
			WorkType:    wt,
			Requests:    NewRequestStore(filepath.Join(dir, names.queue), wt, logger),
			Results:     NewResultStore(filepath.Join(dir, names.results), wt, logger),
			DeadLetters: NewDeadLetterStore(filepath.Join(dir, names.deadLetter), logger),
		}
	}
	return s
}

func (s *Shared) Pipeline(wt model.WorkType) (*Pipeline, error) {
	p, ok := s.pipelines[wt]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownWorkType, wt)
	}
	return p, nil
}

// Pipelines returns every pipeline in scan order.
func (s *Shared) Pipelines() []*Pipeline {
	out := make([]*Pipeline, 0, len(model.WorkTypes))
	for _, wt := range model.WorkTypes {
		out = append(out, s.pipelines[wt])
	}
	return out
}

// Init creates the shared directory and any missing request and result
// documents. Existing documents are left untouched. It returns the paths
// that were created.
func (s *Shared) Init(ctx context.Context) ([]string, error) {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create shared dir: %w", err)
	}
	var created []string
	for _, p := range s.Pipelines() {
		ok, err := p.Requests.Init(ctx)
		if err != nil {
			return created, err
		}
		if ok {
			created = append(created, p.Requests.Path())
		}
		ok, err = p.Results.Init(ctx)
		if err != nil {
			return created, err
		}
		if ok {
			created = append(created, p.Results.Path())
		}
	}
	return created, nil
}

func absPath(p string) string {
	if a, err := filepath.Abs(p); err == nil {
		return a
	}
	return filepath.Clean(p)
}
