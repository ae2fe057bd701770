package ratelimit

import (
	"context"
	"sync"
	"time"
)

// sweepThreshold bounds how many keys accumulate before expired ones are
// dropped.
const sweepThreshold = 10000

type bucket struct {
	windowEnd time.Time
	count     int
}

// Memory is a process-local Limiter.
type Memory struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	now     func() time.Time
}

// NewMemory creates an in-memory limiter.
func NewMemory() *Memory {
	return &Memory{
		buckets: make(map[string]*bucket),
		now:     time.Now,
	}
}

// WithClock replaces the time source.
func (m *Memory) WithClock(now func() time.Time) *Memory {
	m.now = now
	return m
}

func (m *Memory) Allow(ctx context.Context, key string, limit int, window time.Duration) (Decision, error) {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.buckets) > sweepThreshold {
		for k, b := range m.buckets {
			if !now.Before(b.windowEnd) {
				delete(m.buckets, k)
			}
		}
	}

	b := m.buckets[key]
	if b == nil || !now.Before(b.windowEnd) {
		b = &bucket{windowEnd: now.Add(window)}
		m.buckets[key] = b
	}
	b.count++

	return decide(b.count, limit, b.windowEnd.Sub(now), window), nil
}
