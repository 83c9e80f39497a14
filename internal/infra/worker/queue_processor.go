package worker

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"plant-advisor/internal/domain"
	"plant-advisor/internal/domain/model"
	"plant-advisor/internal/domain/ports/adapter"
	"plant-advisor/internal/domain/ports/repository"
	"plant-advisor/internal/infra/logging"
	"plant-advisor/internal/infra/metrics"
)

// Generator produces the text for one request.
type Generator interface {
	Generate(ctx context.Context, wt model.WorkType, req model.Request) (string, error)
}

// Pipeline is the set of stores the processor drains for one work type.
type Pipeline struct {
	WorkType    model.WorkType
	Requests    repository.RequestQueue
	Results     repository.ResultStore
	DeadLetters repository.DeadLetterStore // optional
}

// CycleReport counts what one RunCycle did.
type CycleReport struct {
	Completed    int
	Failed       int
	Deferred     int
	DeadLettered int
	Resets       int
}

// QueueProcessor drains unprocessed requests and writes their results.
// Requests are handled one at a time in append order.
type QueueProcessor struct {
	pipelines []Pipeline
	generator Generator
	notifier  adapter.ResultNotifier
	policy    RetryPolicy
	log       *zerolog.Logger

	now      func() time.Time
	attempts map[string]*model.JobAttempts
}

func NewQueueProcessor(
	pipelines []Pipeline,
	generator Generator,
	notifier adapter.ResultNotifier,
	policy RetryPolicy,
	log *zerolog.Logger,
) *QueueProcessor {
	l := logging.Component(log, "QueueProcessor")
	return &QueueProcessor{
		pipelines: pipelines,
		generator: generator,
		notifier:  notifier,
		policy:    policy,
		log:       l,
		now:       time.Now,
		attempts:  map[string]*model.JobAttempts{},
	}
}

func attemptKey(wt model.WorkType, id string) string { return string(wt) + "/" + id }

// RunCycle scans every work type once and processes what it finds. Errors
// are logged and contained: a failing request or store never aborts the
// cycle for the others.
func (p *QueueProcessor) RunCycle(ctx context.Context) CycleReport {
	defer logging.TraceDuration(p.log, "QueueProcessor.RunCycle")()
	var rep CycleReport
	for _, pl := range p.pipelines {
		if ctx.Err() != nil {
			break
		}
		p.runPipeline(ctx, pl, &rep)
	}
	metrics.IncCycle()
	return rep
}

func (p *QueueProcessor) runPipeline(ctx context.Context, pl Pipeline, rep *CycleReport) {
	pending, err := pl.Requests.DequeueUnprocessed(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrStoreReset) {
			rep.Resets++
			p.log.Warn().Str("work_type", pl.WorkType.String()).Msg("request document was reset; skipping until next cycle")
			return
		}
		p.log.Error().Err(err).Str("work_type", pl.WorkType.String()).Msg("failed to scan request queue")
		return
	}
	p.pruneAttempts(pl.WorkType, pending)
	dead, err := p.deadLettered(ctx, pl)
	if err != nil {
		p.log.Error().Err(err).Str("work_type", pl.WorkType.String()).Msg("failed to read dead letters; skipping until next cycle")
		return
	}

	for _, req := range pending {
		if ctx.Err() != nil {
			return
		}
		if _, ok := dead[req.ID]; ok {
			continue
		}
		switch p.processOne(ctx, pl, req) {
		case model.JobStatusCompleted:
			rep.Completed++
		case model.JobStatusDeferred:
			rep.Deferred++
		case model.JobStatusDeadLettered:
			rep.DeadLettered++
		default:
			rep.Failed++
		}
	}
}

func (p *QueueProcessor) processOne(ctx context.Context, pl Pipeline, req model.Request) model.JobStatus {
	log := p.log.With().Str("work_type", pl.WorkType.String()).Str("request_id", req.ID).Logger()
	key := attemptKey(pl.WorkType, req.ID)

	if a := p.attempts[key]; a != nil && p.now().Before(a.NextAttempt) {
		return model.JobStatusDeferred
	}

	// A result without a mark means an earlier run stopped between the two
	// writes. Finish the mark instead of generating again.
	if _, ok, err := pl.Results.PollResult(ctx, req.ID); err == nil && ok {
		if err := pl.Requests.MarkProcessed(ctx, req); err != nil {
			log.Error().Err(err).Msg("failed to mark recovered request processed")
			return model.JobStatusFailed
		}
		delete(p.attempts, key)
		log.Info().Msg("result already stored; marked processed")
		return model.JobStatusCompleted
	}

	log.Info().Str("input", req.Label()).Msg("Processing request")
	start := time.Now()
	text, err := p.generator.Generate(ctx, pl.WorkType, req)
	if err != nil {
		return p.fail(ctx, pl, req, err, &log)
	}

	res, err := model.NewResult(pl.WorkType, req, text)
	if err != nil {
		return p.fail(ctx, pl, req, err, &log)
	}
	// Result first, mark second: a crash in between is repaired above on
	// the next scan and never loses the result.
	if err := pl.Results.StoreResult(ctx, req.ID, res); err != nil && !errors.Is(err, domain.ErrAlreadyExists) {
		log.Error().Err(err).Msg("failed to store result; will retry")
		metrics.IncJob(pl.WorkType.String(), string(model.JobStatusFailed))
		return model.JobStatusFailed
	}
	if err := pl.Requests.MarkProcessed(ctx, req); err != nil {
		log.Error().Err(err).Msg("result stored but mark failed; will mark on next scan")
		metrics.IncJob(pl.WorkType.String(), string(model.JobStatusFailed))
		return model.JobStatusFailed
	}
	delete(p.attempts, key)

	if p.notifier != nil {
		if err := p.notifier.Notify(ctx, pl.WorkType, req.ID); err != nil {
			log.Warn().Err(err).Msg("result notification failed")
		}
	}
	metrics.IncJob(pl.WorkType.String(), string(model.JobStatusCompleted))
	log.Info().Dur("duration", time.Since(start)).Msg("Request completed")
	return model.JobStatusCompleted
}

// fail records a failed attempt and either leaves the request for the next
// cycle or dead-letters it when the policy is exhausted. Rate limits and
// bad input are not told apart.
func (p *QueueProcessor) fail(ctx context.Context, pl Pipeline, req model.Request, cause error, log *zerolog.Logger) model.JobStatus {
	key := attemptKey(pl.WorkType, req.ID)
	now := p.now()
	a := p.attempts[key]
	if a == nil {
		a = &model.JobAttempts{RequestID: req.ID, WorkType: pl.WorkType, CreatedAt: now}
		p.attempts[key] = a
	}
	a.Retries++
	a.LastError = cause.Error()
	a.UpdatedAt = now
	a.NextAttempt = now.Add(p.policy.Backoff(a.Retries))

	status := model.JobStatusFailed
	if errors.Is(cause, domain.ErrGenerationTimeout) {
		status = model.JobStatusTimedOut
	}

	// A dead-lettered request is never marked processed: a mark always has
	// a result behind it. runPipeline skips dead-lettered ids instead.
	if p.policy.Exhausted(a.Retries) && pl.DeadLetters != nil {
		dl := model.DeadLetter{Request: req, Error: a.LastError, Attempts: a.Retries, Timestamp: model.Now()}
		if err := pl.DeadLetters.Add(ctx, dl); err != nil {
			log.Error().Err(err).Msg("failed to dead-letter request; will retry")
		} else {
			delete(p.attempts, key)
			metrics.IncJob(pl.WorkType.String(), string(model.JobStatusDeadLettered))
			log.Warn().Err(cause).Int("attempts", a.Retries).Msg("request dead-lettered")
			return model.JobStatusDeadLettered
		}
	}

	metrics.IncJob(pl.WorkType.String(), string(status))
	log.Error().Err(cause).Int("attempts", a.Retries).Msg("generation failed; request left for retry")
	return status
}

// deadLettered returns the ids of pl's dead-lettered requests.
func (p *QueueProcessor) deadLettered(ctx context.Context, pl Pipeline) (map[string]struct{}, error) {
	if pl.DeadLetters == nil {
		return nil, nil
	}
	list, err := pl.DeadLetters.List(ctx)
	if err != nil {
		return nil, err
	}
	ids := make(map[string]struct{}, len(list))
	for _, dl := range list {
		ids[dl.Request.ID] = struct{}{}
	}
	return ids, nil
}

// pruneAttempts forgets bookkeeping for requests that are no longer pending.
func (p *QueueProcessor) pruneAttempts(wt model.WorkType, pending []model.Request) {
	live := make(map[string]struct{}, len(pending))
	for _, r := range pending {
		live[attemptKey(wt, r.ID)] = struct{}{}
	}
	for k, a := range p.attempts {
		if a.WorkType != wt {
			continue
		}
		if _, ok := live[k]; !ok {
			delete(p.attempts, k)
		}
	}
}
