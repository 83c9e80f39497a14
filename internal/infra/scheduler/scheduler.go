package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"plant-advisor/internal/infra/logging"
	"plant-advisor/internal/infra/worker"
)

// Cycler is the minimal interface the scheduler needs from the consumer.
type Cycler interface {
	RunCycle(ctx context.Context) worker.CycleReport
}

// Scheduler runs a Cycler's RunCycle every interval. Cycles never overlap:
// the next one starts interval after the previous one finished.
type Scheduler struct {
	interval time.Duration
	cycler   Cycler
	log      *zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// NewScheduler constructs a scheduler. If interval <= 0 it defaults to 2 seconds.
func NewScheduler(interval time.Duration, cycler Cycler, logger *zerolog.Logger) *Scheduler {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	l := logging.Component(logger, "Scheduler")
	return &Scheduler{
		interval: interval,
		cycler:   cycler,
		log:      l,
		done:     make(chan struct{}),
	}
}

// Start begins the loop in a background goroutine. The first cycle runs
// immediately. Calling Start more than once has no effect.
func (s *Scheduler) Start(parentCtx context.Context) {
	if s.ctx != nil {
		return
	}
	ctx, cancel := context.WithCancel(parentCtx)
	s.ctx = ctx
	s.cancel = cancel

	go s.loop(ctx, s.done)
}

// Done is closed once the loop has exited.
func (s *Scheduler) Done() <-chan struct{} { return s.done }

func (s *Scheduler) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	s.log.Info().Dur("interval", s.interval).Msg("scheduler started")
	timer := time.NewTimer(0)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("context cancelled; stopping")
			return
		case <-timer.C:
			rep := s.cycler.RunCycle(ctx)
			if rep.Completed+rep.Failed+rep.DeadLettered+rep.Resets > 0 {
				s.log.Info().
					Int("completed", rep.Completed).
					Int("failed", rep.Failed).
					Int("deferred", rep.Deferred).
					Int("dead_lettered", rep.DeadLettered).
					Int("resets", rep.Resets).
					Msg("cycle finished")
			}
			timer.Reset(s.interval)
		}
	}
}

// Stop cancels the loop and waits for the in-flight cycle to return. It is
// idempotent.
func (s *Scheduler) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	s.ctx = nil
	s.cancel = nil
	s.done = make(chan struct{})
	s.log.Info().Msg("scheduler stopped")
}
