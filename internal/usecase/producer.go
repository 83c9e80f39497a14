package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"plant-advisor/internal/domain"
	"plant-advisor/internal/domain/model"
	"plant-advisor/internal/domain/ports/adapter"
	"plant-advisor/internal/domain/ports/repository"
	"plant-advisor/internal/infra/logging"
)

// QueuePair is the request and result store of one work type.
type QueuePair struct {
	Requests repository.RequestQueue
	Results  repository.ResultStore
}

// PollOptions bounds how long AwaitResult waits.
type PollOptions struct {
	MaxAttempts int
	Interval    time.Duration
	// Progress is called after each poll that found nothing.
	Progress func(attempt, max int)
}

// PollOutcome is the state of a request after polling. Ready=false means
// the result is not there yet; it is not an error.
type PollOutcome struct {
	ID       string
	Ready    bool
	Result   model.Result
	Attempts int
}

// Producer submits requests and waits for their results.
type Producer struct {
	pairs    map[model.WorkType]QueuePair
	notifier adapter.ResultNotifier
	defaults PollOptions
	log      *zerolog.Logger
}

// NewProducer builds a producer. notifier may be nil, in which case waiting
// is plain interval polling.
func NewProducer(pairs map[model.WorkType]QueuePair, defaults PollOptions, notifier adapter.ResultNotifier, logger *zerolog.Logger) *Producer {
	l := logging.Component(logger, "Producer")
	if defaults.MaxAttempts <= 0 {
		defaults.MaxAttempts = 10
	}
	if defaults.Interval <= 0 {
		defaults.Interval = time.Second
	}
	return &Producer{pairs: pairs, notifier: notifier, defaults: defaults, log: l}
}

func (p *Producer) pair(wt model.WorkType) (QueuePair, error) {
	qp, ok := p.pairs[wt]
	if !ok {
		return QueuePair{}, fmt.Errorf("%w: %q", domain.ErrUnknownWorkType, wt)
	}
	return qp, nil
}

// Submit enqueues a new request and returns its id.
func (p *Producer) Submit(ctx context.Context, wt model.WorkType, payload model.Payload) (string, error) {
	qp, err := p.pair(wt)
	if err != nil {
		return "", err
	}
	id, err := qp.Requests.Enqueue(ctx, payload)
	if err != nil {
		return "", err
	}
	p.log.Info().Str("work_type", wt.String()).Str("request_id", id).Msg("request submitted")
	return id, nil
}

// Poll checks once for the result of id.
func (p *Producer) Poll(ctx context.Context, wt model.WorkType, id string) (PollOutcome, error) {
	qp, err := p.pair(wt)
	if err != nil {
		return PollOutcome{}, err
	}
	res, ok, err := qp.Results.PollResult(ctx, id)
	if err != nil {
		return PollOutcome{}, err
	}
	return PollOutcome{ID: id, Ready: ok, Result: res, Attempts: 1}, nil
}

// AwaitResult polls for the result of id up to opts.MaxAttempts times. It
// never re-submits, so calling it again for the same id is the manual retry.
// Exhausting the attempts returns Ready=false and a nil error. Cancelling
// ctx aborts between attempts. Notifications only bring a poll forward;
// an attempt always ends with a full interval.
func (p *Producer) AwaitResult(ctx context.Context, wt model.WorkType, id string, opts PollOptions) (PollOutcome, error) {
	qp, err := p.pair(wt)
	if err != nil {
		return PollOutcome{}, err
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = p.defaults.MaxAttempts
	}
	if opts.Interval <= 0 {
		opts.Interval = p.defaults.Interval
	}
	if opts.Progress == nil {
		opts.Progress = p.defaults.Progress
	}

	waitCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	wake := p.subscribe(waitCtx, wt)

	out := PollOutcome{ID: id}
	for attempt := 1; attempt <= opts.MaxAttempts; attempt++ {
		out.Attempts = attempt
		ready, err := p.check(ctx, qp, wt, id, &out)
		if err != nil || ready {
			return out, err
		}
		if opts.Progress != nil {
			opts.Progress(attempt, opts.MaxAttempts)
		}
		if attempt == opts.MaxAttempts {
			break
		}
		if ready, err := p.wait(ctx, qp, wt, id, opts.Interval, &wake, &out); err != nil || ready {
			return out, err
		}
	}
	p.log.Debug().Str("work_type", wt.String()).Str("request_id", id).Int("attempts", out.Attempts).Msg("result not ready")
	return out, nil
}

func (p *Producer) check(ctx context.Context, qp QueuePair, wt model.WorkType, id string, out *PollOutcome) (bool, error) {
	res, ok, err := qp.Results.PollResult(ctx, id)
	if err != nil {
		return false, fmt.Errorf("poll %s result %s: %w", wt, id, err)
	}
	if ok {
		out.Ready = true
		out.Result = res
	}
	return ok, nil
}

// wait sleeps one full interval. A wake-up naming id, or naming no id at
// all, triggers an early poll; wake-ups for other requests are ignored.
// Either way the interval is waited out unless the result shows up.
func (p *Producer) wait(ctx context.Context, qp QueuePair, wt model.WorkType, id string, interval time.Duration, wake *<-chan string, out *PollOutcome) (bool, error) {
	timer := time.NewTimer(interval)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-timer.C:
			return false, nil
		case got, open := <-*wake:
			if !open {
				*wake = nil
				continue
			}
			if got != "" && got != id {
				continue
			}
			if ready, err := p.check(ctx, qp, wt, id, out); err != nil || ready {
				return ready, err
			}
		}
	}
}

func (p *Producer) subscribe(ctx context.Context, wt model.WorkType) <-chan string {
	if p.notifier == nil {
		return nil
	}
	ch, err := p.notifier.Subscribe(ctx, wt)
	if err != nil {
		p.log.Warn().Err(err).Msg("result notifications unavailable; polling only")
		return nil
	}
	return ch
}
