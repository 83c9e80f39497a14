package redis

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"plant-advisor/internal/domain/model"
	"plant-advisor/internal/domain/ports/adapter"
	"plant-advisor/internal/infra/logging"
)

var _ adapter.ResultNotifier = (*ResultNotifier)(nil)

// ResultNotifier publishes stored result ids on one channel per work type,
// "<prefix>:<work type>". Pub/sub has no replay, so a producer that
// subscribes late still relies on polling.
type ResultNotifier struct {
	cli    RedisClient
	prefix string
	log    *zerolog.Logger
}

func NewResultNotifier(cli RedisClient, prefix string, logger *zerolog.Logger) *ResultNotifier {
	l := logging.Component(logger, "RedisResultNotifier")
	return &ResultNotifier{cli: cli, prefix: prefix, log: l}
}

func (n *ResultNotifier) channel(wt model.WorkType) string { return n.prefix + ":" + wt.String() }

func (n *ResultNotifier) Notify(ctx context.Context, wt model.WorkType, id string) error {
	if err := n.cli.Publish(ctx, n.channel(wt), id); err != nil {
		return fmt.Errorf("publish %s: %w", id, err)
	}
	return nil
}

func (n *ResultNotifier) Subscribe(ctx context.Context, wt model.WorkType) (<-chan string, error) {
	ps := n.cli.Subscribe(ctx, n.channel(wt))
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("subscribe %s: %w", n.channel(wt), err)
	}

	out := make(chan string, 8)
	go func() {
		defer close(out)
		defer ps.Close()
		msgs := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-msgs:
				if !ok {
					return
				}
				select {
				case out <- m.Payload:
				default:
					n.log.Debug().Str("id", m.Payload).Msg("subscriber busy; dropping wake-up")
				}
			}
		}
	}()
	return out, nil
}
