package application

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"plant-advisor/internal/config"
	"plant-advisor/internal/domain/model"
	"plant-advisor/internal/domain/ports/adapter"
	"plant-advisor/internal/infra/filestore"
	red "plant-advisor/internal/infra/redis"
	"plant-advisor/internal/usecase"
)

// NewResultNotifier picks Redis pub/sub when redis.url is set and falls back
// to watching the shared directory. The returned close func is never nil.
func NewResultNotifier(ctx context.Context, cfg *config.Config, shared *filestore.Shared, logger *zerolog.Logger) (adapter.ResultNotifier, func() error, error) {
	if cfg.Redis.URL == "" {
		return filestore.NewWatchNotifier(shared, logger), func() error { return nil }, nil
	}
	cli, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		return nil, nil, fmt.Errorf("redis: %w", err)
	}
	return red.NewResultNotifier(cli, cfg.Redis.Channel, logger), cli.Close, nil
}

// QueuePairs exposes the shared documents to the producer.
func QueuePairs(shared *filestore.Shared) map[model.WorkType]usecase.QueuePair {
	pairs := make(map[model.WorkType]usecase.QueuePair, len(model.WorkTypes))
	for _, p := range shared.Pipelines() {
		pairs[p.WorkType] = usecase.QueuePair{Requests: p.Requests, Results: p.Results}
	}
	return pairs
}
