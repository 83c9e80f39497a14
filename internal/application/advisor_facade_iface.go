package application

import (
	"context"

	"plant-advisor/internal/domain/model"
	"plant-advisor/internal/usecase"
)

// ---- small interfaces to decouple the facade from concrete usecase structs ----

type ProducerIface interface {
	AwaitResult(ctx context.Context, wt model.WorkType, id string, opts usecase.PollOptions) (usecase.PollOutcome, error)
}

type SessionIface interface {
	RequestRecommendation(ctx context.Context, disease string, opts usecase.PollOptions) (usecase.PollOutcome, error)
	Ask(ctx context.Context, query string, opts usecase.PollOptions) (usecase.PollOutcome, error)
	Retry(ctx context.Context, wt model.WorkType, opts usecase.PollOptions) (usecase.PollOutcome, bool, error)
	Forget(wt model.WorkType)
	SetDisease(label string)
	Disease() string
}

var (
	_ ProducerIface = (*usecase.Producer)(nil)
	_ SessionIface  = (*usecase.Session)(nil)
)
