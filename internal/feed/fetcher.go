package feed

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	apperrors "github.com/rajasatyajit/StatusWatch/internal/errors"
	"github.com/rajasatyajit/StatusWatch/internal/fetchcache"
)

const (
	DefaultTimeout = 10 * time.Second
	DefaultMaxBody = 5 << 20
)

// UserAgent returns the client identifier sent with every upstream request.
func UserAgent(version string) string {
	return fmt.Sprintf("StatusWatch/%s (+https://github.com/rajasatyajit/StatusWatch)", version)
}

// FetchOptions tunes a single fetch.
type FetchOptions struct {
	Headers map[string]string
	Timeout time.Duration
}

// Fetcher retrieves feed documents over HTTP. It never retries; callers
// decide. When a cache is attached identical requests are coalesced and
// successful bodies are reused for the cache TTL.
type Fetcher struct {
	client    *http.Client
	userAgent string
	timeout   time.Duration
	maxBody   int64
	limiter   *rate.Limiter

	cache    *fetchcache.Cache
	cacheTTL time.Duration
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithHTTPClient replaces the default client.
func WithHTTPClient(c *http.Client) FetcherOption {
	return func(f *Fetcher) { f.client = c }
}

// WithTimeout sets the default per-fetch timeout.
func WithTimeout(d time.Duration) FetcherOption {
	return func(f *Fetcher) {
		if d > 0 {
			f.timeout = d
		}
	}
}

// WithMaxBody caps the accepted response size.
func WithMaxBody(n int64) FetcherOption {
	return func(f *Fetcher) {
		if n > 0 {
			f.maxBody = n
		}
	}
}

// WithRateLimit bounds upstream requests per second across all providers.
func WithRateLimit(perSecond float64) FetcherOption {
	return func(f *Fetcher) {
		if perSecond > 0 {
			f.limiter = rate.NewLimiter(rate.Limit(perSecond), int(perSecond)+1)
		}
	}
}

// NewFetcher creates a fetcher identifying itself with the given version.
func NewFetcher(version string, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		client:    &http.Client{},
		userAgent: UserAgent(version),
		timeout:   DefaultTimeout,
		maxBody:   DefaultMaxBody,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// UseCache routes fetches through c, keeping responses for ttl.
func (f *Fetcher) UseCache(c *fetchcache.Cache, ttl time.Duration) {
	f.cache = c
	f.cacheTTL = ttl
}

// Fetch returns the body of url as text.
func (f *Fetcher) Fetch(ctx context.Context, url string, opts FetchOptions) (string, error) {
	req := fetchcache.Request{
		URL:     url,
		Method:  http.MethodGet,
		Headers: opts.Headers,
		Timeout: opts.Timeout,
	}

	var (
		resp *fetchcache.Response
		err  error
	)
	if f.cache != nil {
		resp, err = f.cache.Fetch(ctx, req, f.cacheTTL)
	} else {
		resp, err = f.Do(ctx, req)
	}
	if err != nil {
		return "", err
	}
	return string(resp.Body), nil
}

// Do performs one upstream request. Non-2xx statuses and transport failures
// are returned as FetchError.
func (f *Fetcher) Do(ctx context.Context, r fetchcache.Request) (*fetchcache.Response, error) {
	timeout := f.timeout
	if r.Timeout > 0 {
		timeout = r.Timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, apperrors.FetchError{URL: r.URL, Message: "rate limiter: " + err.Error(), Err: err}
		}
	}

	method := r.Method
	if method == "" {
		method = http.MethodGet
	}
	var body io.Reader
	if len(r.Body) > 0 {
		body = bytes.NewReader(r.Body)
	}
	req, err := http.NewRequestWithContext(ctx, method, r.URL, body)
	if err != nil {
		return nil, apperrors.FetchError{URL: r.URL, Message: "create request: " + err.Error(), Err: err}
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml, application/json;q=0.9, */*;q=0.8")
	for k, v := range r.Headers {
		req.Header.Set(k, v)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		msg := err.Error()
		if errors.Is(err, context.DeadlineExceeded) {
			msg = fmt.Sprintf("timeout after %s", timeout)
		}
		return nil, apperrors.FetchError{URL: r.URL, Message: msg, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, apperrors.FetchError{URL: r.URL, Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBody+1))
	if err != nil {
		return nil, apperrors.FetchError{URL: r.URL, Status: resp.StatusCode, Message: "read body: " + err.Error(), Err: err}
	}
	if int64(len(data)) > f.maxBody {
		return nil, apperrors.FetchError{URL: r.URL, Status: resp.StatusCode, Message: fmt.Sprintf("body exceeds %d bytes", f.maxBody)}
	}

	return &fetchcache.Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header.Clone(),
		Body:       data,
		FetchedAt:  time.Now().UTC(),
	}, nil
}
