// Package frontdoor exposes the person pipelines, the manual transform and
// route administration over HTTP.
package frontdoor

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tjfontaine/polyglot-integration-gateway/internal/codec"
	"github.com/tjfontaine/polyglot-integration-gateway/internal/core/domain"
	"github.com/tjfontaine/polyglot-integration-gateway/internal/core/ports"
	"github.com/tjfontaine/polyglot-integration-gateway/internal/correlation"
	"github.com/tjfontaine/polyglot-integration-gateway/internal/pipeline"
	"github.com/tjfontaine/polyglot-integration-gateway/internal/server"
)

// StatusSuccess is the status field of every successful payload.
const StatusSuccess = "success"

// DefaultType is the protocol hint used when the query omits "type".
const DefaultType = "json"

// PersonResponse is returned by GET /person/{id}.
type PersonResponse struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	Data      any    `json:"data"`
	Route     string `json:"route"`
	DataType  string `json:"dataType"`
	Timestamp int64  `json:"timestamp"`
}

// TransformResponse is returned by POST /transform.
type TransformResponse struct {
	Status    string                  `json:"status"`
	Message   string                  `json:"message"`
	Data      *domain.TransformedPost `json:"data"`
	Route     string                  `json:"route"`
	Timestamp int64                   `json:"timestamp"`
}

// RoutesResponse is returned by GET /routes.
type RoutesResponse struct {
	Status      string            `json:"status"`
	TotalRoutes int               `json:"totalRoutes"`
	Routes      []ports.RouteInfo `json:"routes"`
}

// StatusResponse acknowledges a route start or stop.
type StatusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Handler serves the person, transform and route administration endpoints.
type Handler struct {
	dispatcher      ports.Dispatcher
	transformer     ports.Transformer
	routes          ports.RouteController
	manualSourceURL string
	now             func() time.Time
}

// NewHandler creates a Handler. manualSourceURL is fetched by HandleTransform.
func NewHandler(d ports.Dispatcher, t ports.Transformer, rc ports.RouteController, manualSourceURL string) *Handler {
	return &Handler{
		dispatcher:      d,
		transformer:     t,
		routes:          rc,
		manualSourceURL: manualSourceURL,
		now:             time.Now,
	}
}

// HandlePerson runs the pipeline selected by ?type= for the {id} path value.
func (h *Handler) HandlePerson(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	hint := r.URL.Query().Get("type")
	if hint == "" {
		hint = DefaultType
	}

	ctx := correlation.WithHeaders(r.Context(), requestHeaders(r, correlation.Headers{
		correlation.HeaderPersonID: id,
		correlation.HeaderType:     hint,
	}))
	server.AddLogField(ctx, "person_id", id)

	res, err := h.dispatcher.Run(ctx, id, hint)
	if err != nil {
		server.AddError(ctx, err)
		codec.WriteError(w, err, fmt.Sprintf("Error retrieving data for ID %s: ", id))
		return
	}

	dataType := res.Protocol.DataType()
	codec.WriteJSON(w, http.StatusOK, PersonResponse{
		Status:    StatusSuccess,
		Message:   fmt.Sprintf("Person data retrieved successfully for ID: %s using %s API", id, dataType),
		Data:      res.Data,
		Route:     res.Route,
		DataType:  dataType,
		Timestamp: h.now().UnixMilli(),
	})
}

// HandleTransform triggers the manual fetch-and-transform route.
func (h *Handler) HandleTransform(w http.ResponseWriter, r *http.Request) {
	ctx := correlation.WithHeaders(r.Context(), requestHeaders(r, nil))

	post, err := h.transformer.RunTransform(ctx, pipeline.RouteManualTransform, h.manualSourceURL)
	if err != nil {
		server.AddError(ctx, err)
		codec.WriteError(w, err, "Error running transformation: ")
		return
	}

	codec.WriteJSON(w, http.StatusOK, TransformResponse{
		Status:    StatusSuccess,
		Message:   "Manual transformation completed",
		Data:      post,
		Route:     pipeline.RouteManualTransform,
		Timestamp: h.now().UnixMilli(),
	})
}

// HandleListRoutes reports every route with its endpoint and status.
func (h *Handler) HandleListRoutes(w http.ResponseWriter, r *http.Request) {
	routes := h.routes.Routes()
	codec.WriteJSON(w, http.StatusOK, RoutesResponse{
		Status:      StatusSuccess,
		TotalRoutes: len(routes),
		Routes:      routes,
	})
}

// HandleStartRoute starts the {routeId} route.
func (h *Handler) HandleStartRoute(w http.ResponseWriter, r *http.Request) {
	h.toggleRoute(w, r, "starting", "started", h.routes.StartRoute)
}

// HandleStopRoute stops the {routeId} route.
func (h *Handler) HandleStopRoute(w http.ResponseWriter, r *http.Request) {
	h.toggleRoute(w, r, "stopping", "stopped", h.routes.StopRoute)
}

func (h *Handler) toggleRoute(w http.ResponseWriter, r *http.Request, gerund, past string, op func(string) error) {
	routeID := chi.URLParam(r, "routeId")
	if err := op(routeID); err != nil {
		server.AddError(r.Context(), err)
		codec.WriteJSON(w, http.StatusInternalServerError, StatusResponse{
			Status:  codec.StatusError,
			Message: fmt.Sprintf("Error %s route: %s", gerund, err.Error()),
		})
		return
	}
	codec.WriteJSON(w, http.StatusOK, StatusResponse{
		Status:  StatusSuccess,
		Message: fmt.Sprintf("Route %s %s successfully", routeID, past),
	})
}

// requestHeaders merges the inbound request description into extra.
func requestHeaders(r *http.Request, extra correlation.Headers) correlation.Headers {
	h := correlation.Headers{
		correlation.HeaderMethod: r.Method,
		correlation.HeaderURI:    requestOrigin(r),
		correlation.HeaderPath:   r.URL.Path,
	}
	if r.URL.RawQuery != "" {
		h[correlation.HeaderQuery] = r.URL.RawQuery
	}
	for k, v := range extra {
		h[k] = v
	}
	return h
}

// requestOrigin is scheme://host; the path is carried separately.
func requestOrigin(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}
