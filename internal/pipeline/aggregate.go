package pipeline

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rajasatyajit/StatusWatch/config"
	apperrors "github.com/rajasatyajit/StatusWatch/internal/errors"
	"github.com/rajasatyajit/StatusWatch/internal/logger"
	"github.com/rajasatyajit/StatusWatch/internal/metrics"
	"github.com/rajasatyajit/StatusWatch/internal/models"
	"github.com/rajasatyajit/StatusWatch/internal/providers"
)

// maxMergedReports caps how many recent user reports one snapshot carries.
const maxMergedReports = 500

// ReportSource supplies recent user reports. The report store satisfies it.
type ReportSource interface {
	Recent(ctx context.Context, q models.ReportQuery) ([]models.UserReport, error)
}

// Aggregator fans out over all sources, normalizes their items and folds them
// into a snapshot.
type Aggregator struct {
	catalog    *providers.Catalog
	fetcher    Fetcher
	normalizer *Normalizer
	reports    ReportSource
	cfg        config.PipelineConfig
	reportAge  time.Duration
	now        func() time.Time

	mu     sync.RWMutex
	custom []Source
}

// AggregatorOption configures an Aggregator.
type AggregatorOption func(*Aggregator)

// WithReports merges user reports newer than window into every snapshot.
func WithReports(r ReportSource, window time.Duration) AggregatorOption {
	return func(a *Aggregator) {
		a.reports = r
		a.reportAge = window
	}
}

// WithNormalizer overrides the default classifier and analyzer.
func WithNormalizer(n *Normalizer) AggregatorOption {
	return func(a *Aggregator) {
		a.normalizer = n
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) AggregatorOption {
	return func(a *Aggregator) {
		a.now = now
	}
}

// NewAggregator creates an aggregator over the enabled catalog providers.
func NewAggregator(catalog *providers.Catalog, fetcher Fetcher, cfg config.PipelineConfig, opts ...AggregatorOption) *Aggregator {
	if catalog == nil {
		catalog = providers.Default()
	}
	a := &Aggregator{
		catalog: catalog,
		fetcher: fetcher,
		cfg:     cfg,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.normalizer == nil {
		a.normalizer = NewNormalizer(nil, nil)
	}
	if a.cfg.SummaryWindow < 1 {
		a.cfg.SummaryWindow = 5
	}
	if a.cfg.Concurrency < 1 {
		a.cfg.Concurrency = 1
	}
	return a
}

// Register adds a source to every later aggregation pass. A source with the
// same provider replaces the earlier one.
func (a *Aggregator) Register(src Source) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for i, existing := range a.custom {
		if existing.Provider() == src.Provider() {
			a.custom[i] = src
			return
		}
	}
	a.custom = append(a.custom, src)
	logger.Info("Custom source registered", "provider", src.Provider(), "name", src.Name())
}

// NewCustomSource builds a feed source for a user-supplied URL.
func (a *Aggregator) NewCustomSource(name, url string) *FeedSource {
	return NewFeedSource(providers.Provider{
		ID:   CustomProviderID(name),
		Name: name,
		URL:  url,
	}, a.fetcher, a.cfg.MaxItems, a.cfg.FetchTimeout)
}

// Sources lists catalog sources followed by registered ones.
func (a *Aggregator) Sources() []Source {
	enabled := a.catalog.Enabled()
	out := make([]Source, 0, len(enabled))
	for _, p := range enabled {
		out = append(out, NewFeedSource(p, a.fetcher, a.cfg.MaxItems, a.cfg.FetchTimeout))
	}

	a.mu.RLock()
	out = append(out, a.custom...)
	a.mu.RUnlock()
	return out
}

// Evaluate fetches and normalizes a single source. Unlike Aggregate it
// returns the fetch or parse error.
func (a *Aggregator) Evaluate(ctx context.Context, src Source) ([]models.NormalizedIncident, error) {
	counts := a.reportCounts(ctx, nil)
	incidents, err := a.collect(ctx, src, counts[src.Provider()])
	if err != nil {
		return nil, err
	}
	sortIncidents(incidents)
	return dedup(incidents), nil
}

// Aggregate runs one pass over all sources. Failing sources contribute no
// incidents and show as operational.
func (a *Aggregator) Aggregate(ctx context.Context) (models.Snapshot, error) {
	snap, _, err := a.aggregate(ctx)
	return snap, err
}

// aggregate also returns one PipelineError per source that failed.
func (a *Aggregator) aggregate(ctx context.Context) (models.Snapshot, apperrors.MultiError, error) {
	start := time.Now()
	sources := a.Sources()

	recent := a.recentReports(ctx)
	counts := a.reportCounts(ctx, recent)

	results := make([][]models.NormalizedIncident, len(sources))
	var (
		failedMu sync.Mutex
		failures apperrors.MultiError
		failed   = make(map[models.Provider]bool)
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.cfg.Concurrency)
	for i, src := range sources {
		i, src := i, src
		g.Go(func() error {
			incidents, err := a.collect(gctx, src, counts[src.Provider()])
			if err != nil {
				logger.Warn("Source fetch failed",
					"provider", src.Provider(),
					"error", err,
				)
				failedMu.Lock()
				failures.Add(err)
				failed[src.Provider()] = true
				failedMu.Unlock()
				return nil
			}
			results[i] = incidents
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return models.Snapshot{}, failures, err
	}

	var merged []models.NormalizedIncident
	for _, r := range results {
		merged = append(merged, r...)
	}
	for _, r := range recent {
		p := a.attribute(r.ServiceName)
		merged = append(merged, a.normalizer.FromReport(p, r, counts[p]))
	}

	sortIncidents(merged)
	merged = dedup(merged)

	snap := models.Snapshot{
		Summaries:   a.summarize(sources, merged, failed),
		Incidents:   merged,
		GeneratedAt: a.now().UTC(),
	}

	for _, s := range snap.Summaries {
		metrics.SetProviderStatus(string(s.Provider), s.Status.Rank())
	}
	metrics.RecordAggregation(time.Since(start), len(merged))
	logger.Debug("Aggregation completed",
		"sources", len(sources),
		"failed", len(failures.Errors),
		"incidents", len(merged),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return snap, failures, nil
}

func (a *Aggregator) collect(ctx context.Context, src Source, reports int) ([]models.NormalizedIncident, error) {
	timeout := a.cfg.FetchTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	fctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	fetchedAt := a.now()
	items, err := src.Fetch(fctx)
	if err != nil {
		stage := "fetch"
		var perr apperrors.ParseError
		if errors.As(err, &perr) {
			stage = "parse"
		}
		return nil, apperrors.PipelineError{Source: string(src.Provider()), Stage: stage, Err: err}
	}
	return a.normalizer.Normalize(src.Provider(), items, reports, fetchedAt), nil
}

func (a *Aggregator) recentReports(ctx context.Context) []models.UserReport {
	if a.reports == nil || a.reportAge <= 0 {
		return nil
	}
	reports, err := a.reports.Recent(ctx, models.ReportQuery{
		Since: a.now().Add(-a.reportAge),
		Limit: maxMergedReports,
	})
	if err != nil {
		logger.Warn("Loading recent reports failed", "error", err)
		return nil
	}
	return reports
}

// reportCounts tallies recent reports per provider. A nil slice loads them.
func (a *Aggregator) reportCounts(ctx context.Context, recent []models.UserReport) map[models.Provider]int {
	if recent == nil {
		recent = a.recentReports(ctx)
	}
	counts := make(map[models.Provider]int)
	for _, r := range recent {
		counts[a.attribute(r.ServiceName)]++
	}
	return counts
}

// attribute maps a free-text service name to a provider. Unknown services
// become custom providers keyed by their name.
func (a *Aggregator) attribute(service string) models.Provider {
	if p, ok := a.catalog.MatchService(service); ok {
		return p
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	for _, src := range a.custom {
		if strings.EqualFold(src.Name(), strings.TrimSpace(service)) {
			return src.Provider()
		}
	}
	return CustomProviderID(service)
}

// summarize derives one status per source from the most recent feed
// incidents. User reports inform severity but never set status directly.
// Sources in failed show as operational with FetchFailed set.
func (a *Aggregator) summarize(sources []Source, incidents []models.NormalizedIncident, failed map[models.Provider]bool) []models.ServiceStatusSummary {
	byProvider := make(map[models.Provider][]models.NormalizedIncident)
	for _, inc := range incidents {
		if inc.Source != models.SourceFeed {
			continue
		}
		byProvider[inc.Provider] = append(byProvider[inc.Provider], inc)
	}

	checkedAt := a.now().UTC()
	out := make([]models.ServiceStatusSummary, 0, len(sources))
	for _, src := range sources {
		list := byProvider[src.Provider()]
		s := models.ServiceStatusSummary{
			Provider:      src.Provider(),
			Name:          src.Name(),
			Status:        Summarize(list, a.cfg.SummaryWindow),
			IncidentCount: len(list),
			CheckedAt:     checkedAt,
			FetchFailed:   failed[src.Provider()],
		}
		if len(list) > 0 {
			last := list[0].ReportedAt
			s.LastIncidentAt = &last
		}
		out = append(out, s)
	}
	return out
}

// Summarize computes a provider status from incidents sorted newest first,
// looking at the first window entries.
func Summarize(incidents []models.NormalizedIncident, window int) models.ServiceStatus {
	if window > 0 && len(incidents) > window {
		incidents = incidents[:window]
	}

	var degraded, maintenance bool
	for _, inc := range incidents {
		switch {
		case inc.Severity == models.SeverityCritical,
			inc.EventType == models.EventIncident,
			inc.EventType == models.EventOutage:
			return models.StatusIssues
		case inc.Severity == models.SeverityMajor,
			inc.EventType == models.EventDegradation:
			degraded = true
		case inc.EventType == models.EventMaintenance:
			maintenance = true
		}
	}

	switch {
	case degraded:
		return models.StatusDegraded
	case maintenance:
		return models.StatusMaintenance
	}
	return models.StatusOperational
}

// sortIncidents orders newest first with a stable tie-break.
func sortIncidents(incidents []models.NormalizedIncident) {
	sort.SliceStable(incidents, func(i, j int) bool {
		a, b := incidents[i], incidents[j]
		if !a.ReportedAt.Equal(b.ReportedAt) {
			return a.ReportedAt.After(b.ReportedAt)
		}
		if a.Provider != b.Provider {
			return a.Provider < b.Provider
		}
		return a.ID < b.ID
	})
}

// dedup drops repeated IDs, keeping the first occurrence. Links are not a
// key: many feeds point every item at the same status page.
func dedup(incidents []models.NormalizedIncident) []models.NormalizedIncident {
	seen := make(map[string]bool, len(incidents))
	out := make([]models.NormalizedIncident, 0, len(incidents))
	for _, inc := range incidents {
		if seen[inc.ID] {
			continue
		}
		seen[inc.ID] = true
		out = append(out, inc)
	}
	return out
}
