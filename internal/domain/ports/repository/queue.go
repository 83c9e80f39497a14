package repository

import (
	"context"

	"plant-advisor/internal/domain/model"
)

// RequestQueue is the request store of one work type.
type RequestQueue interface {
	WorkType() model.WorkType
	Enqueue(ctx context.Context, p model.Payload) (string, error)
	// DequeueUnprocessed returns pending requests in append order. It does not
	// remove them; MarkProcessed does. A document that had to be reset yields
	// an empty slice and an error wrapping domain.ErrStoreReset.
	DequeueUnprocessed(ctx context.Context) ([]model.Request, error)
	MarkProcessed(ctx context.Context, req model.Request) error
	Stats(ctx context.Context) (QueueStats, error)
}

// ResultStore is the result store of one work type.
type ResultStore interface {
	// PollResult never blocks waiting for generation. ok is false when no
	// result exists yet.
	PollResult(ctx context.Context, id string) (res model.Result, ok bool, err error)
	// StoreResult writes a result once; an existing entry is left untouched
	// and domain.ErrAlreadyExists is returned.
	StoreResult(ctx context.Context, id string, res model.Result) error
	Count(ctx context.Context) (int, error)
}

// DeadLetterStore keeps requests that exhausted their retry budget.
type DeadLetterStore interface {
	Add(ctx context.Context, dl model.DeadLetter) error
	List(ctx context.Context) ([]model.DeadLetter, error)
}

type QueueStats struct {
	Requests  int `json:"requests"`
	Processed int `json:"processed"`
	Pending   int `json:"pending"`
}
