package ratelimit

import (
	"context"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/rajasatyajit/StatusWatch/config"
)

const keyPrefix = "statuswatch:rl:"

// Redis is a Limiter shared by every replica pointing at the same server.
type Redis struct {
	redis *redis.Client
}

// NewRedis connects and pings the configured server.
func NewRedis(cfg config.RedisConfig) (*Redis, error) {
	opt, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	if cfg.Password != "" {
		opt.Password = cfg.Password
	}
	if cfg.DB != 0 {
		opt.DB = cfg.DB
	}

	client := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &Redis{redis: client}, nil
}

func (m *Redis) Close() error { return m.redis.Close() }

// Allow counts a hit. The key is created with the window as its TTL and later
// hits only increment it, so the window is not extended.
func (m *Redis) Allow(ctx context.Context, key string, limit int, window time.Duration) (Decision, error) {
	rk := keyPrefix + key

	pipe := m.redis.TxPipeline()
	pipe.SetNX(ctx, rk, 0, window)
	incr := pipe.Incr(ctx, rk)
	ttl := pipe.PTTL(ctx, rk)
	if _, err := pipe.Exec(ctx); err != nil {
		return Decision{}, fmt.Errorf("rate limit %s: %w", key, err)
	}

	return decide(int(incr.Val()), limit, ttl.Val(), window), nil
}
