package redis

import (
	"context"

	"github.com/go-redis/redis/v8"

	"plant-advisor/internal/config"
)

type RedisClient interface {
	Ping(ctx context.Context) error
	Publish(ctx context.Context, channel string, message string) error
	Subscribe(ctx context.Context, channels ...string) *redis.PubSub
	Close() error
}

var _ RedisClient = (*redClient)(nil)

type redClient struct {
	cli *redis.Client
}

// NewClient connects and pings. cfg.URL may be a host:port address or a
// redis:// URL.
func NewClient(ctx context.Context, cfg *config.RedisConfig) (*redClient, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		opts = &redis.Options{Addr: cfg.URL}
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}
	if cfg.DB != 0 {
		opts.DB = cfg.DB
	}
	c := redis.NewClient(opts)
	if err := c.Ping(ctx).Err(); err != nil {
		_ = c.Close()
		return nil, err
	}
	return &redClient{cli: c}, nil
}

func (c *redClient) Ping(ctx context.Context) error { return c.cli.Ping(ctx).Err() }

func (c *redClient) Publish(ctx context.Context, channel string, message string) error {
	return c.cli.Publish(ctx, channel, message).Err()
}

func (c *redClient) Subscribe(ctx context.Context, channels ...string) *redis.PubSub {
	return c.cli.Subscribe(ctx, channels...)
}

func (c *redClient) Close() error { return c.cli.Close() }
