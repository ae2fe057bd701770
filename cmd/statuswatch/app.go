package main

import (
	"context"
	"fmt"
	"io"

	"github.com/rajasatyajit/StatusWatch/config"
	"github.com/rajasatyajit/StatusWatch/internal/cleanup"
	"github.com/rajasatyajit/StatusWatch/internal/database"
	"github.com/rajasatyajit/StatusWatch/internal/feed"
	"github.com/rajasatyajit/StatusWatch/internal/fetchcache"
	"github.com/rajasatyajit/StatusWatch/internal/logger"
	"github.com/rajasatyajit/StatusWatch/internal/notify"
	"github.com/rajasatyajit/StatusWatch/internal/pipeline"
	"github.com/rajasatyajit/StatusWatch/internal/providers"
	"github.com/rajasatyajit/StatusWatch/internal/ratelimit"
	"github.com/rajasatyajit/StatusWatch/internal/report"
	"github.com/rajasatyajit/StatusWatch/internal/store"
)

// app holds the long-lived components shared by the commands.
type app struct {
	cfg      *config.Config
	db       *database.DB
	store    store.Store
	cache    *fetchcache.Cache
	agg      *pipeline.Aggregator
	pipeline *pipeline.Pipeline
	reports  *report.Service
	cleanup  *cleanup.Job
	limiter  ratelimit.Limiter
}

// openStore connects to the database, running migrations first when enabled.
// Without DATABASE_URL the in-memory store is used.
func openStore(ctx context.Context, cfg *config.Config) (*database.DB, store.Store, error) {
	if cfg.Database.URL != "" && cfg.Database.AutoMigrate {
		if err := database.Migrate(cfg.Database.URL); err != nil {
			return nil, nil, fmt.Errorf("migrate: %w", err)
		}
	}

	db, err := database.New(ctx, cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("initialize database: %w", err)
	}
	return db, store.New(db), nil
}

// newAggregator builds the fetcher, its response cache and the aggregator.
// reports may be nil.
func newAggregator(cfg *config.Config, reports pipeline.ReportSource) (*pipeline.Aggregator, *fetchcache.Cache, error) {
	catalog, err := providers.Load(cfg.Providers.CatalogPath)
	if err != nil {
		return nil, nil, err
	}

	fetcher := feed.NewFetcher(Version,
		feed.WithTimeout(cfg.Pipeline.FetchTimeout),
		feed.WithRateLimit(cfg.Pipeline.RateLimit),
	)
	cache := fetchcache.New(fetcher.Do, fetchcache.WithSweepInterval(cfg.Pipeline.CacheSweepInterval))
	fetcher.UseCache(cache, cfg.Pipeline.CacheTTL)

	var opts []pipeline.AggregatorOption
	if reports != nil {
		opts = append(opts, pipeline.WithReports(reports, cfg.Reports.RecentWindow))
	}
	return pipeline.NewAggregator(catalog, fetcher, cfg.Pipeline, opts...), cache, nil
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	db, st, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	agg, cache, err := newAggregator(cfg, st)
	if err != nil {
		db.Close()
		return nil, err
	}

	limiter := ratelimit.New(cfg.Redis)

	return &app{
		cfg:      cfg,
		db:       db,
		store:    st,
		cache:    cache,
		agg:      agg,
		pipeline: pipeline.New(agg, notify.New(cfg.Notify), cfg.Pipeline),
		reports: report.NewService(st, limiter, report.Config{
			RateWindow:   cfg.Reports.RateWindow,
			RecentWindow: cfg.Reports.RecentWindow,
		}),
		cleanup: cleanup.New(st, cfg.Reports.Retention, cfg.Reports.CleanupInterval),
		limiter: limiter,
	}, nil
}

func (a *app) Close() {
	a.cache.Stop()
	if c, ok := a.limiter.(io.Closer); ok {
		if err := c.Close(); err != nil {
			logger.Warn("Closing rate limiter failed", "error", err)
		}
	}
	a.db.Close()
}
