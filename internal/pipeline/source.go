package pipeline

import (
	"context"
	"strings"
	"time"

	"github.com/rajasatyajit/StatusWatch/internal/feed"
	"github.com/rajasatyajit/StatusWatch/internal/metrics"
	"github.com/rajasatyajit/StatusWatch/internal/models"
	"github.com/rajasatyajit/StatusWatch/internal/providers"
)

// Source defines a pluggable status feed
type Source interface {
	Provider() models.Provider
	Name() string
	Fetch(ctx context.Context) ([]models.RawFeedItem, error)
}

// Fetcher retrieves a feed body. *feed.Fetcher satisfies it.
type Fetcher interface {
	Fetch(ctx context.Context, url string, opts feed.FetchOptions) (string, error)
}

// FeedSource reads one catalog provider through the shared fetcher.
type FeedSource struct {
	provider providers.Provider
	fetcher  Fetcher
	maxItems int
	timeout  time.Duration
}

// NewFeedSource creates a source for a catalog entry.
func NewFeedSource(p providers.Provider, fetcher Fetcher, maxItems int, timeout time.Duration) *FeedSource {
	return &FeedSource{
		provider: p,
		fetcher:  fetcher,
		maxItems: maxItems,
		timeout:  timeout,
	}
}

func (s *FeedSource) Provider() models.Provider {
	return s.provider.ID
}

func (s *FeedSource) Name() string {
	if s.provider.Name != "" {
		return s.provider.Name
	}
	return string(s.provider.ID)
}

// URL returns the feed address.
func (s *FeedSource) URL() string {
	return s.provider.URL
}

// Fetch downloads and parses the feed. JSON bodies are parsed as status API
// documents whatever the catalog format says.
func (s *FeedSource) Fetch(ctx context.Context) ([]models.RawFeedItem, error) {
	start := time.Now()
	items, err := s.fetch(ctx)

	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.RecordFeedFetch(string(s.provider.ID), status, time.Since(start))

	return items, err
}

func (s *FeedSource) fetch(ctx context.Context) ([]models.RawFeedItem, error) {
	body, err := s.fetcher.Fetch(ctx, s.provider.URL, feed.FetchOptions{
		Headers: s.provider.Headers,
		Timeout: s.timeout,
	})
	if err != nil {
		return nil, err
	}

	if s.provider.Format == providers.FormatJSON || looksLikeJSON(body) {
		return feed.ParseStatusJSON(body, s.maxItems)
	}

	res, err := feed.Parse(body, s.maxItems)
	if err != nil {
		return nil, err
	}
	return res.Items, nil
}

func looksLikeJSON(body string) bool {
	trimmed := strings.TrimLeft(body, "\ufeff \t\r\n")
	return strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[")
}

// CustomProviderID derives a provider identifier from a display name. Names
// that collide with a built-in provider get a "custom-" prefix.
func CustomProviderID(name string) models.Provider {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case b.Len() > 0 && !dash:
			b.WriteByte('-')
			dash = true
		}
	}
	id := strings.TrimSuffix(b.String(), "-")
	if id == "" {
		id = "feed"
	}
	p := models.Provider(id)
	if p.IsBuiltin() {
		p = "custom-" + p
	}
	return p
}
