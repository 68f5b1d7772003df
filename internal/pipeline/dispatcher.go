package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tjfontaine/polyglot-integration-gateway/internal/backend"
	"github.com/tjfontaine/polyglot-integration-gateway/internal/codec"
	"github.com/tjfontaine/polyglot-integration-gateway/internal/codec/person"
	"github.com/tjfontaine/polyglot-integration-gateway/internal/codec/post"
	"github.com/tjfontaine/polyglot-integration-gateway/internal/codec/soap"
	"github.com/tjfontaine/polyglot-integration-gateway/internal/core/domain"
	"github.com/tjfontaine/polyglot-integration-gateway/internal/core/ports"
	"github.com/tjfontaine/polyglot-integration-gateway/internal/correlation"
)

// Route names reported to callers.
const (
	NamePersonData     = "personData"
	NameSOAPPersonData = "soapPersonData"
	NameTransform      = "jsonTransform"
)

const tracerName = "github.com/tjfontaine/polyglot-integration-gateway/internal/pipeline"

// route is one fixed backend-call strategy.
type route struct {
	id      string
	name    string
	request func(arg string) *ports.BackendRequest
	decoder codec.Decoder

	// argHeader, when set, names the correlation header carrying arg.
	argHeader string
}

// Dispatcher executes the person pipelines and the transform routes.
// It holds no per-run state and is safe for concurrent use.
type Dispatcher struct {
	backend     ports.BackendCaller
	correlation *correlation.Logger
	routes      map[domain.Protocol]route
	transform   route
	control     ports.RouteController
	metrics     *Metrics
	tracer      trace.Tracer
	logger      *slog.Logger
	newID       func() string
	now         func() time.Time
}

var (
	_ ports.Dispatcher  = (*Dispatcher)(nil)
	_ ports.Transformer = (*Dispatcher)(nil)
)

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithRouteController rejects executions of routes the controller reports stopped.
func WithRouteController(rc ports.RouteController) Option {
	return func(d *Dispatcher) {
		d.control = rc
	}
}

// WithMetrics records executions in m.
func WithMetrics(m *Metrics) Option {
	return func(d *Dispatcher) {
		d.metrics = m
	}
}

// WithTracer overrides the global tracer.
func WithTracer(t trace.Tracer) Option {
	return func(d *Dispatcher) {
		d.tracer = t
	}
}

// WithLogger sets the logger for route progress messages.
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = l
	}
}

// WithIDGenerator replaces the exchange id generator.
func WithIDGenerator(f func() string) Option {
	return func(d *Dispatcher) {
		d.newID = f
	}
}

// NewDispatcher wires both person routes against the backend at baseURL.
func NewDispatcher(caller ports.BackendCaller, baseURL string, corr *correlation.Logger, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		backend:     caller,
		correlation: corr,
		routes: map[domain.Protocol]route{
			domain.ProtocolJSON: {
				id:   RoutePersonData,
				name: NamePersonData,
				request: func(id string) *ports.BackendRequest {
					return backend.PersonDataRequest(baseURL, id)
				},
				decoder:   person.New(),
				argHeader: correlation.HeaderPersonID,
			},
			domain.ProtocolSOAP: {
				id:   RouteSOAPPersonData,
				name: NameSOAPPersonData,
				request: func(id string) *ports.BackendRequest {
					return backend.PersonServiceRequest(baseURL, soap.BuildEnvelope(id))
				},
				decoder:   soap.New(),
				argHeader: correlation.HeaderPersonID,
			},
		},
		transform: route{
			name:    NameTransform,
			request: backend.FetchRequest,
			decoder: post.New(),
		},
		tracer: otel.Tracer(tracerName),
		logger: slog.Default(),
		newID:  func() string { return uuid.New().String() },
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.correlation == nil {
		d.correlation = correlation.New(d.logger)
	}
	return d
}

// Run picks the pipeline from protocolHint and executes it for id.
func (d *Dispatcher) Run(ctx context.Context, id, protocolHint string) (*domain.PipelineResult, error) {
	protocol := domain.ParseProtocol(protocolHint)
	rt := d.routes[protocol]

	headers := correlation.HeadersFrom(ctx).Clone()
	if _, ok := headers.Lookup(correlation.HeaderType); !ok && protocolHint != "" {
		headers[correlation.HeaderType] = protocolHint
	}

	res, err := d.execute(ctx, rt, id, headers)
	if err != nil {
		return nil, err
	}
	return &domain.PipelineResult{
		Route:     rt.name,
		Protocol:  protocol,
		Data:      res.record,
		RequestID: res.exchangeID,
		Elapsed:   res.elapsed,
	}, nil
}

// RunJSON executes the JSON/REST pipeline for id.
func (d *Dispatcher) RunJSON(ctx context.Context, id string) (*domain.PersonRecord, error) {
	res, err := d.execute(ctx, d.routes[domain.ProtocolJSON], id, correlation.HeadersFrom(ctx).Clone())
	if err != nil {
		return nil, err
	}
	rec := res.record.(domain.PersonRecord)
	return &rec, nil
}

// RunSOAP executes the SOAP/XML pipeline for id.
func (d *Dispatcher) RunSOAP(ctx context.Context, id string) (*domain.SOAPExtraction, error) {
	res, err := d.execute(ctx, d.routes[domain.ProtocolSOAP], id, correlation.HeadersFrom(ctx).Clone())
	if err != nil {
		return nil, err
	}
	ext := res.record.(domain.SOAPExtraction)
	return &ext, nil
}

// RunTransform fetches sourceURL and transforms the post it returns.
// routeID is checked against the route controller, so the scheduled and the
// manual trigger can be stopped independently.
func (d *Dispatcher) RunTransform(ctx context.Context, routeID, sourceURL string) (*domain.TransformedPost, error) {
	rt := d.transform
	rt.id = routeID

	headers := correlation.HeadersFrom(ctx).Clone()
	if _, ok := headers.Lookup(correlation.HeaderURI); !ok {
		headers[correlation.HeaderURI] = sourceURL
	}

	d.logger.Info("starting JSON data retrieval", slog.String("route", routeID), slog.String("source_url", sourceURL))

	res, err := d.execute(ctx, rt, sourceURL, headers)
	if err != nil {
		return nil, err
	}
	transformed := res.record.(domain.TransformedPost)

	processed, err := post.Process(transformed, d.now())
	if err != nil {
		return nil, domain.ErrInternal(err).WithRoute(rt.name)
	}
	d.logger.Info("processed transformed data",
		slog.String("route", routeID),
		slog.String("request_id", res.exchangeID),
		slog.Int64("processed_at", processed.ProcessedAt.UnixMilli()),
		slog.Int("data_length", processed.DataLength),
		slog.String("data", string(processed.JSON)),
	)
	return &transformed, nil
}

type runResult struct {
	record     any
	exchangeID string
	elapsed    time.Duration
}

// execute runs rt inside one correlation scope. End is deferred so every
// return path closes the scope exactly once.
func (d *Dispatcher) execute(ctx context.Context, rt route, arg string, headers correlation.Headers) (_ runResult, err error) {
	start := time.Now()
	exchangeID := d.newID()

	if rt.argHeader != "" {
		if _, ok := headers.Lookup(rt.argHeader); !ok {
			headers[rt.argHeader] = arg
		}
	}

	scope := d.correlation.Begin(exchangeID, headers)
	var outcome correlation.Outcome
	defer func() {
		d.correlation.End(scope, outcome)
	}()

	ctx, span := d.tracer.Start(ctx, "pipeline."+rt.name, trace.WithAttributes(
		attribute.String("pipeline.route", rt.id),
		attribute.String("pipeline.exchange_id", exchangeID),
		attribute.String("pipeline.decoder", rt.decoder.Name()),
	))
	defer span.End()

	d.metrics.started(rt.name)
	defer func() {
		result := "success"
		if err != nil {
			result = "error"
		}
		d.metrics.finished(rt.name, result, time.Since(start))
	}()

	fail := func(pe *domain.PipelineError) (runResult, error) {
		pe.WithRoute(rt.name).WithElapsed(time.Since(start))
		outcome.Err = pe
		if pe.StatusCode != 0 {
			outcome.StatusCode = pe.StatusCode
		}
		span.RecordError(pe)
		span.SetStatus(codes.Error, pe.Message)
		return runResult{}, pe
	}

	if arg == "" {
		return fail(domain.ErrInvalidRequest("id must not be empty"))
	}
	if d.control != nil && !d.control.IsStarted(rt.id) {
		return fail(domain.ErrRouteStopped(rt.id))
	}

	resp, callErr := d.backend.Call(ctx, rt.request(arg))
	if callErr != nil {
		pe := domain.ErrBackendUnavailable(callErr)
		if statusErr, ok := backend.IsStatusError(callErr); ok {
			pe.WithStatusCode(statusErr.StatusCode)
			outcome.Body = statusErr.Body
		}
		return fail(pe)
	}
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	record, decodeErr := rt.decoder.Decode(resp.Body)
	if decodeErr != nil {
		outcome.Body = resp.Body
		return fail(codec.ToPipelineError(decodeErr).WithStatusCode(resp.StatusCode))
	}

	if ext, ok := record.(domain.SOAPExtraction); ok && ext.IsFallback() {
		d.metrics.fallback()
		d.logger.Warn("SOAP response could not be parsed",
			slog.String("request_id", exchangeID),
			slog.String("error", ext.Fallback.Error),
		)
	}

	body, marshalErr := json.Marshal(record)
	if marshalErr != nil {
		return fail(domain.ErrInternal(fmt.Errorf("failed to encode record: %w", marshalErr)).WithStatusCode(resp.StatusCode))
	}
	outcome.StatusCode = resp.StatusCode
	outcome.Body = body

	return runResult{record: record, exchangeID: exchangeID, elapsed: time.Since(start)}, nil
}
