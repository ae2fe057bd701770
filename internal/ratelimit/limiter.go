// Package ratelimit provides fixed-window request limiting backed by Redis or
// process memory.
package ratelimit

import (
	"context"
	"time"

	"github.com/rajasatyajit/StatusWatch/config"
	"github.com/rajasatyajit/StatusWatch/internal/logger"
)

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// Limiter admits at most limit hits per key within window. The window starts
// at the first hit for a key.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (Decision, error)
}

// New returns a Redis limiter when a URL is configured and reachable, and a
// process-local limiter otherwise.
func New(cfg config.RedisConfig) Limiter {
	if cfg.URL == "" {
		return NewMemory()
	}
	l, err := NewRedis(cfg)
	if err != nil {
		logger.Warn("Redis unavailable; falling back to in-memory rate limiting", "error", err)
		return NewMemory()
	}
	return l
}

func decide(count, limit int, ttl, window time.Duration) Decision {
	if count > limit {
		if ttl <= 0 {
			ttl = window
		}
		return Decision{Allowed: false, RetryAfter: ttl}
	}
	return Decision{Allowed: true, Remaining: limit - count}
}
