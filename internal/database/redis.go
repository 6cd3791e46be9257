package database

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/proctor-backend/internal/config"
)

// blockingReadTimeout must exceed the violation worker's BLPop timeout.
const blockingReadTimeout = 5 * time.Second

// NewRedisClient opens the client and waits for Redis to answer.
func NewRedisClient(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*redis.Client, error) {
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	if opt.ReadTimeout < blockingReadTimeout {
		opt.ReadTimeout = blockingReadTimeout
	}

	rdb := redis.NewClient(opt)
	if err := pingWithRetry(ctx, "redis", RedisPing(rdb), log); err != nil {
		_ = rdb.Close()
		return nil, err
	}

	log.Info().
		Str("addr", opt.Addr).
		Int("db", opt.DB).
		Msg("Redis connected")

	return rdb, nil
}

// RedisPing adapts a client's PING to a plain error-returning probe.
func RedisPing(rdb *redis.Client) func(context.Context) error {
	return func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	}
}
