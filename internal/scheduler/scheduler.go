// Package scheduler runs the periodic fetch-and-transform route.
package scheduler

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/tjfontaine/polyglot-integration-gateway/internal/config"
	"github.com/tjfontaine/polyglot-integration-gateway/internal/core/ports"
	"github.com/tjfontaine/polyglot-integration-gateway/internal/pipeline"
)

// DefaultInitialDelay is the wait before the first run.
const DefaultInitialDelay = time.Second

// Option configures a Job.
type Option func(*Job)

// WithInitialDelay overrides DefaultInitialDelay. Zero runs immediately.
func WithInitialDelay(d time.Duration) Option {
	return func(j *Job) {
		j.initialDelay = d
	}
}

// WithRouteID runs a route other than pipeline.RouteJSONTransform.
func WithRouteID(id string) Option {
	return func(j *Job) {
		j.routeID = id
	}
}

// Job calls the transformer every interval while its route is started.
type Job struct {
	transformer  ports.Transformer
	routes       ports.RouteController
	enabled      bool
	interval     time.Duration
	sourceURL    string
	routeID      string
	initialDelay time.Duration
	logger       *slog.Logger

	runs    atomic.Int64
	skipped atomic.Int64
}

func New(t ports.Transformer, routes ports.RouteController, cfg config.SchedulerConfig, logger *slog.Logger, opts ...Option) *Job {
	j := &Job{
		transformer:  t,
		routes:       routes,
		enabled:      cfg.Enabled,
		interval:     cfg.Interval,
		sourceURL:    cfg.SourceURL,
		routeID:      pipeline.RouteJSONTransform,
		initialDelay: DefaultInitialDelay,
		logger:       logger,
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// Start blocks until ctx is done. A disabled job returns at once.
func (j *Job) Start(ctx context.Context) error {
	if !j.enabled || j.interval <= 0 {
		j.logger.Info("transform scheduler disabled")
		return nil
	}
	j.logger.Info("transform scheduler started",
		slog.String("route", j.routeID),
		slog.Duration("interval", j.interval),
		slog.String("source_url", j.sourceURL),
	)

	if j.initialDelay > 0 {
		timer := time.NewTimer(j.initialDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			j.logger.Info("transform scheduler stopping")
			return nil
		case <-timer.C:
		}
	}
	j.tick(ctx)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			j.logger.Info("transform scheduler stopping")
			return nil
		case <-ticker.C:
			j.tick(ctx)
		}
	}
}

// tick runs the route once. Failures are logged and the schedule continues.
func (j *Job) tick(ctx context.Context) {
	if j.routes != nil && !j.routes.IsStarted(j.routeID) {
		j.skipped.Add(1)
		j.logger.Debug("route stopped, skipping tick", slog.String("route", j.routeID))
		return
	}

	j.runs.Add(1)
	if _, err := j.transformer.RunTransform(ctx, j.routeID, j.sourceURL); err != nil {
		j.logger.Error("scheduled transform failed",
			slog.String("route", j.routeID),
			slog.String("error", err.Error()),
		)
	}
}

// Runs reports how many ticks invoked the transformer.
func (j *Job) Runs() int64 { return j.runs.Load() }

// Skipped reports how many ticks were skipped because the route was stopped.
func (j *Job) Skipped() int64 { return j.skipped.Load() }
