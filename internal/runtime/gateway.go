// Package runtime assembles the integration gateway and manages its lifecycle.
package runtime

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/tjfontaine/polyglot-integration-gateway/internal/backend"
	"github.com/tjfontaine/polyglot-integration-gateway/internal/config"
	"github.com/tjfontaine/polyglot-integration-gateway/internal/controlplane"
	"github.com/tjfontaine/polyglot-integration-gateway/internal/core/ports"
	"github.com/tjfontaine/polyglot-integration-gateway/internal/correlation"
	"github.com/tjfontaine/polyglot-integration-gateway/internal/frontdoor"
	"github.com/tjfontaine/polyglot-integration-gateway/internal/pipeline"
	"github.com/tjfontaine/polyglot-integration-gateway/internal/scheduler"
	"github.com/tjfontaine/polyglot-integration-gateway/internal/server"
	"github.com/tjfontaine/polyglot-integration-gateway/internal/telemetry"
)

// MetricsNamespace prefixes every exported metric.
const MetricsNamespace = "gateway"

const healthTimeout = 3 * time.Second

// ErrNotStarted is returned by Wait before Start.
var ErrNotStarted = errors.New("gateway not started")

// Gateway owns the HTTP server, the pipelines and the transform scheduler.
type Gateway struct {
	cfg         *config.Config
	logger      *slog.Logger
	caller      ports.BackendCaller
	registry    *prometheus.Registry
	traceWriter io.Writer

	tracerShutdown telemetry.ShutdownFunc
	routes         *pipeline.RouteTable
	dispatcher     *pipeline.Dispatcher
	scheduler      *scheduler.Job
	server         *server.Server

	mu     sync.Mutex
	cancel context.CancelFunc
	group  *errgroup.Group
}

// New creates a Gateway. Configuration is loaded from config.DefaultPath
// unless WithConfig or WithConfigFile is given.
func New(opts ...Option) (*Gateway, error) {
	gw := &Gateway{}

	for _, opt := range opts {
		if err := opt(gw); err != nil {
			return nil, fmt.Errorf("apply option: %w", err)
		}
	}

	if gw.cfg == nil {
		cfg, err := config.Load("")
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		gw.cfg = cfg
	}
	cfg := gw.cfg

	if gw.logger == nil {
		gw.logger = telemetry.NewLogger(cfg.Logging, os.Stdout)
	}

	shutdown, err := telemetry.InitTracer(cfg.Telemetry, gw.traceWriter, gw.logger)
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}
	gw.tracerShutdown = shutdown

	if gw.caller == nil {
		gw.caller = backend.NewClient(backend.WithTimeout(cfg.Backend.Timeout))
	}

	var (
		srvOpts     server.Options
		pipeMetrics *pipeline.Metrics
	)
	srvOpts.ServiceName = cfg.App.Name
	if cfg.Metrics.Enabled {
		if gw.registry == nil {
			gw.registry = prometheus.NewRegistry()
			gw.registry.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)
		}
		pipeMetrics = pipeline.NewMetrics(MetricsNamespace, gw.registry)
		srvOpts.Metrics = server.NewHTTPMetrics(MetricsNamespace, gw.registry)
		srvOpts.Gatherer = gw.registry
		srvOpts.MetricsPath = cfg.Metrics.Path
	}

	gw.routes = pipeline.DefaultRouteTable(cfg.Scheduler.Interval.Milliseconds())
	gw.dispatcher = pipeline.NewDispatcher(gw.caller, cfg.Backend.BaseURL, correlation.New(gw.logger),
		pipeline.WithRouteController(gw.routes),
		pipeline.WithMetrics(pipeMetrics),
		pipeline.WithLogger(gw.logger),
	)
	gw.scheduler = scheduler.New(gw.dispatcher, gw.routes, cfg.Scheduler, gw.logger)

	gw.server = server.New(cfg.Server, srvOpts, gw.logger)
	frontdoor.Mount(gw.server.Router, frontdoor.NewHandler(gw.dispatcher, gw.dispatcher, gw.routes, cfg.Scheduler.ManualSourceURL))

	checker := controlplane.HTTPChecker(&http.Client{Timeout: healthTimeout}, cfg.Backend.BaseURL)
	controlplane.NewServer(controlplane.Info{
		Application: cfg.App.Name,
		Version:     cfg.App.Version,
	}, checker, gw.logger).Mount(gw.server.Router)

	return gw, nil
}

// Handler exposes the fully wired router.
func (g *Gateway) Handler() http.Handler {
	return g.server.Router
}

// Routes exposes the route table for administration.
func (g *Gateway) Routes() ports.RouteController {
	return g.routes
}

// Start launches the HTTP server and the scheduler in the background.
// Use Wait to observe a fatal error.
func (g *Gateway) Start(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.group != nil {
		return errors.New("gateway already started")
	}

	ctx, g.cancel = context.WithCancel(ctx)
	group, gctx := errgroup.WithContext(ctx)
	g.group = group

	group.Go(g.server.Start)
	group.Go(func() error {
		return g.scheduler.Start(gctx)
	})
	// Stop the server when a sibling fails or the parent context ends.
	group.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), g.cfg.Server.WriteTimeout)
		defer cancel()
		return g.server.Shutdown(shutdownCtx)
	})

	g.logger.Info("gateway started",
		slog.Int("port", g.cfg.Server.Port),
		slog.String("backend", g.cfg.Backend.BaseURL),
		slog.Bool("scheduler", g.cfg.Scheduler.Enabled),
	)
	return nil
}

// Wait blocks until every background task has returned.
func (g *Gateway) Wait() error {
	g.mu.Lock()
	group := g.group
	g.mu.Unlock()

	if group == nil {
		return ErrNotStarted
	}
	return group.Wait()
}

// Shutdown stops the server and the scheduler and flushes the tracer.
func (g *Gateway) Shutdown(ctx context.Context) error {
	g.mu.Lock()
	cancel, group := g.cancel, g.group
	g.mu.Unlock()

	g.logger.Info("shutting down gateway")

	var errs []error
	if group != nil {
		if err := g.server.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown server: %w", err))
		}
		cancel()
		if err := group.Wait(); err != nil {
			errs = append(errs, err)
		}
	}

	if g.tracerShutdown != nil {
		if err := g.tracerShutdown(ctx); err != nil {
			g.logger.Error("failed to shutdown tracer", slog.String("error", err.Error()))
			errs = append(errs, fmt.Errorf("shutdown tracer: %w", err))
		}
	}

	g.logger.Info("gateway shutdown complete")
	return errors.Join(errs...)
}
