package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Songmu/retry"

	"github.com/rajasatyajit/StatusWatch/config"
	apperrors "github.com/rajasatyajit/StatusWatch/internal/errors"
	"github.com/rajasatyajit/StatusWatch/internal/logger"
	"github.com/rajasatyajit/StatusWatch/internal/models"
)

var errAllSourcesFailed = errors.New("all sources failed")

// Notifier is told when a provider's status changes between passes.
type Notifier interface {
	NotifyStatusChange(ctx context.Context, prev, curr models.ServiceStatusSummary) error
}

// Pipeline polls the aggregator on an interval and keeps the latest snapshot.
type Pipeline struct {
	agg      *Aggregator
	notifier Notifier
	cfg      config.PipelineConfig

	mu       sync.RWMutex
	running  bool
	snapshot models.Snapshot
	ready    bool

	// known holds the last summary read from each provider's feed.
	known map[models.Provider]models.ServiceStatusSummary
}

// New creates a new pipeline instance
func New(agg *Aggregator, notifier Notifier, cfg config.PipelineConfig) *Pipeline {
	p := &Pipeline{
		agg:      agg,
		notifier: notifier,
		cfg:      cfg,
		known:    make(map[models.Provider]models.ServiceStatusSummary),
	}

	logger.Info("Pipeline initialized",
		"sources", len(agg.Sources()),
		"poll_interval", cfg.PollInterval,
		"concurrency", cfg.Concurrency,
	)

	return p
}

// Aggregator returns the underlying aggregator.
func (p *Pipeline) Aggregator() *Aggregator {
	return p.agg
}

// Run polls until ctx is cancelled
func (p *Pipeline) Run(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("pipeline already running")
	}
	p.running = true
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.running = false
		p.mu.Unlock()
	}()

	interval := p.cfg.PollInterval
	if interval <= 0 {
		interval = 2 * time.Minute
	}

	logger.Info("Starting pipeline", "interval", interval)

	// Initial immediate run
	if _, err := p.RunOnce(ctx); err != nil && ctx.Err() == nil {
		logger.Error("Initial pipeline run failed", "error", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Pipeline stopped")
			return nil
		case <-ticker.C:
			if _, err := p.RunOnce(ctx); err != nil && ctx.Err() == nil {
				logger.Error("Pipeline run failed", "error", err)
			}
		}
	}
}

// RunOnce performs one aggregation pass and stores the result. A pass where
// every source failed is retried; if retries are exhausted the all-operational
// snapshot is still stored and the error returned, wrapping each source's
// PipelineError.
func (p *Pipeline) RunOnce(ctx context.Context) (models.Snapshot, error) {
	var (
		snap     models.Snapshot
		failures apperrors.MultiError
		lastErr  error
	)

	attempts := uint(p.cfg.RetryAttempts + 1)
	err := retry.Retry(attempts, p.cfg.RetryDelay, func() error {
		s, fails, err := p.agg.aggregate(ctx)
		if err != nil {
			lastErr = err
			return err
		}
		snap, failures = s, fails
		if n := len(s.Summaries); n > 0 && len(fails.Errors) == n {
			logger.Warn("Aggregation attempt failed", "failed_sources", n, "error", fails)
			return errAllSourcesFailed
		}
		return nil
	})
	if err != nil && lastErr != nil {
		return models.Snapshot{}, lastErr
	}

	p.store(ctx, snap)
	if err != nil {
		return snap, fmt.Errorf("%w: %w", errAllSourcesFailed, failures)
	}
	return snap, nil
}

// Snapshot returns the latest snapshot and whether one exists.
func (p *Pipeline) Snapshot() (models.Snapshot, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.snapshot, p.ready
}

// Current returns the latest snapshot, running a pass first if none exists.
func (p *Pipeline) Current(ctx context.Context) (models.Snapshot, error) {
	if snap, ok := p.Snapshot(); ok {
		return snap, nil
	}
	snap, err := p.RunOnce(ctx)
	if errors.Is(err, errAllSourcesFailed) {
		return snap, nil
	}
	return snap, err
}

// IsRunning returns whether the pipeline is currently running
func (p *Pipeline) IsRunning() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.running
}

// store publishes snap and notifies status changes. A provider whose feed
// failed this pass keeps its last known status and is never notified.
func (p *Pipeline) store(ctx context.Context, snap models.Snapshot) {
	type change struct {
		prev, curr models.ServiceStatusSummary
	}
	var changes []change

	p.mu.Lock()
	p.snapshot = snap
	p.ready = true
	for _, curr := range snap.Summaries {
		if curr.FetchFailed {
			continue
		}
		prev, ok := p.known[curr.Provider]
		p.known[curr.Provider] = curr
		if ok && prev.Status != curr.Status {
			changes = append(changes, change{prev: prev, curr: curr})
		}
	}
	p.mu.Unlock()

	if p.notifier == nil {
		return
	}

	for _, c := range changes {
		logger.Info("Provider status changed",
			"provider", c.curr.Provider,
			"from", c.prev.Status,
			"to", c.curr.Status,
		)
		if err := p.notifier.NotifyStatusChange(ctx, c.prev, c.curr); err != nil {
			logger.Warn("Status notification failed", "provider", c.curr.Provider, "error", err)
		}
	}
}
