// Package fetchcache provides a process-local response cache with request
// coalescing for upstream feed fetches.
package fetchcache

import (
	"context"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"golang.org/x/sync/singleflight"

	"github.com/rajasatyajit/StatusWatch/internal/logger"
	"github.com/rajasatyajit/StatusWatch/internal/metrics"
	"github.com/rajasatyajit/StatusWatch/pkg/utils"
)

// Request describes one upstream call. Timeout is not part of the cache key.
type Request struct {
	URL     string
	Method  string
	Headers map[string]string
	Body    []byte
	Timeout time.Duration
}

// Key returns the composite cache key: method, URL, sorted headers and a hash
// of the body.
func (r Request) Key() string {
	method := r.Method
	if method == "" {
		method = http.MethodGet
	}
	names := make([]string, 0, len(r.Headers))
	for k := range r.Headers {
		names = append(names, k)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(strings.ToUpper(method))
	b.WriteByte(' ')
	b.WriteString(r.URL)
	for _, k := range names {
		b.WriteByte('\n')
		b.WriteString(strings.ToLower(k))
		b.WriteByte(':')
		b.WriteString(r.Headers[k])
	}
	b.WriteByte('\n')
	b.WriteString(utils.HashString(string(r.Body)))
	return b.String()
}

// Response is a completed upstream response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	FetchedAt  time.Time
}

// LoadFunc performs the upstream call. A non-nil error means nothing is cached.
type LoadFunc func(ctx context.Context, req Request) (*Response, error)

// Cache coalesces identical in-flight requests and keeps successful responses
// for a per-call TTL. Expired entries are dropped by a periodic sweep.
type Cache struct {
	load       LoadFunc
	items      *ttlcache.Cache[string, *Response]
	group      singleflight.Group
	sweepEvery time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// Option configures a Cache.
type Option func(*Cache)

// WithSweepInterval sets how often expired entries are removed.
func WithSweepInterval(d time.Duration) Option {
	return func(c *Cache) {
		if d > 0 {
			c.sweepEvery = d
		}
	}
}

// New creates a cache in front of load.
func New(load LoadFunc, opts ...Option) *Cache {
	c := &Cache{
		load: load,
		items: ttlcache.New[string, *Response](
			ttlcache.WithDisableTouchOnHit[string, *Response](),
		),
		sweepEvery: 5 * time.Minute,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch returns a cached response for req if one is still fresh, otherwise it
// joins an identical in-flight call or starts a new one. ttl <= 0 disables
// caching for this call but still coalesces.
func (c *Cache) Fetch(ctx context.Context, req Request, ttl time.Duration) (*Response, error) {
	key := req.Key()

	if item := c.items.Get(key); item != nil && !item.IsExpired() {
		metrics.RecordCacheResult("hit")
		return item.Value(), nil
	}

	// The shared call must not die with the first caller's context.
	loadCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (interface{}, error) {
		resp, err := c.load(loadCtx, req)
		if err != nil {
			return nil, err
		}
		if ttl > 0 {
			c.items.Set(key, resp, ttl)
		}
		return resp, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Shared {
			metrics.RecordCacheResult("shared")
		} else {
			metrics.RecordCacheResult("miss")
		}
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Response), nil
	}
}

// Len returns the number of stored entries.
func (c *Cache) Len() int {
	return c.items.Len()
}

// Sweep removes expired entries.
func (c *Cache) Sweep() {
	c.items.DeleteExpired()
}

// Start runs the periodic sweep until ctx is done or Stop is called.
func (c *Cache) Start(ctx context.Context) {
	c.mu.Lock()
	if c.cancel != nil {
		c.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.done = make(chan struct{})
	done := c.done
	c.mu.Unlock()

	go func() {
		defer close(done)
		ticker := time.NewTicker(c.sweepEvery)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.Sweep()
				logger.Debug("fetch cache sweep", "remaining", c.Len())
			}
		}
	}()
}

// Stop halts the sweep goroutine and waits for it to exit.
func (c *Cache) Stop() {
	c.mu.Lock()
	cancel, done := c.cancel, c.done
	c.cancel, c.done = nil, nil
	c.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}
