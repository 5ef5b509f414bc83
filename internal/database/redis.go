package database

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/keyxmakerx/inkwell/internal/config"
)

// OpenRedis builds a client from REDIS_URL and waits for it like
// OpenMariaDB. Sessions, OTP rate limits, reset tickets and the
// notification fan-out all share this one client.
func OpenRedis(ctx context.Context, cfg config.RedisConfig) (redis.UniversalClient, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)

	ping := func(ctx context.Context) error { return client.Ping(ctx).Err() }
	if err := waitReady(ctx, "redis", ping, defaultWait); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}
