// Package ports defines the core interfaces for the gateway.
// This file contains the pipeline entry points consumed by the front door
// and the scheduler.
package ports

import (
	"context"

	"github.com/tjfontaine/polyglot-integration-gateway/internal/core/domain"
)

// RouteStatus is the administrative state of a named route.
type RouteStatus string

const (
	RouteStarted RouteStatus = "Started"
	RouteStopped RouteStatus = "Stopped"
)

// RouteInfo describes a named route for the admin listing.
type RouteInfo struct {
	ID       string      `json:"id"`
	Endpoint string      `json:"endpoint"`
	Status   RouteStatus `json:"status"`
}

// Dispatcher runs pipelines on demand.
type Dispatcher interface {
	// Run selects the pipeline from protocolHint and executes it for id.
	Run(ctx context.Context, id, protocolHint string) (*domain.PipelineResult, error)

	// RunJSON executes the JSON/REST pipeline.
	RunJSON(ctx context.Context, id string) (*domain.PersonRecord, error)

	// RunSOAP executes the SOAP/XML pipeline.
	RunSOAP(ctx context.Context, id string) (*domain.SOAPExtraction, error)
}

// Transformer runs a fetch-and-transform route against a source URL.
type Transformer interface {
	RunTransform(ctx context.Context, routeID, sourceURL string) (*domain.TransformedPost, error)
}

// RouteController starts, stops and lists named routes.
type RouteController interface {
	Routes() []RouteInfo
	StartRoute(id string) error
	StopRoute(id string) error
	IsStarted(id string) bool
}
