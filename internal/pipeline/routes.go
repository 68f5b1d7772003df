package pipeline

import (
	"fmt"
	"sync"

	"github.com/tjfontaine/polyglot-integration-gateway/internal/core/ports"
)

// Route identifiers exposed to the admin API.
const (
	RoutePersonData      = "person-data-route"
	RouteSOAPPersonData  = "soap-person-data-route"
	RouteJSONTransform   = "json-transform-route"
	RouteManualTransform = "manual-transform-route"
)

// RouteTable tracks the administrative status of named routes.
// Every route starts in the Started state.
type RouteTable struct {
	mu     sync.RWMutex
	order  []string
	routes map[string]*ports.RouteInfo
}

var _ ports.RouteController = (*RouteTable)(nil)

// NewRouteTable creates a table holding routes in the given order.
func NewRouteTable(routes ...ports.RouteInfo) *RouteTable {
	t := &RouteTable{routes: make(map[string]*ports.RouteInfo, len(routes))}
	for _, r := range routes {
		r := r
		if r.Status == "" {
			r.Status = ports.RouteStarted
		}
		if _, exists := t.routes[r.ID]; !exists {
			t.order = append(t.order, r.ID)
		}
		t.routes[r.ID] = &r
	}
	return t
}

// DefaultRouteTable registers the built-in routes. transformPeriod is the
// scheduler interval in milliseconds, shown in the transform endpoint.
func DefaultRouteTable(transformPeriod int64) *RouteTable {
	return NewRouteTable(
		ports.RouteInfo{ID: RoutePersonData, Endpoint: "direct://personData"},
		ports.RouteInfo{ID: RouteSOAPPersonData, Endpoint: "direct://soapPersonData"},
		ports.RouteInfo{ID: RouteJSONTransform, Endpoint: fmt.Sprintf("timer://jsonFetcher?period=%d", transformPeriod)},
		ports.RouteInfo{ID: RouteManualTransform, Endpoint: "direct://manualTransform"},
	)
}

// Routes returns a snapshot of all routes in registration order.
func (t *RouteTable) Routes() []ports.RouteInfo {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]ports.RouteInfo, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, *t.routes[id])
	}
	return out
}

// StartRoute marks id as started.
func (t *RouteTable) StartRoute(id string) error {
	return t.setStatus(id, ports.RouteStarted)
}

// StopRoute marks id as stopped.
func (t *RouteTable) StopRoute(id string) error {
	return t.setStatus(id, ports.RouteStopped)
}

// IsStarted reports whether id is known and started.
func (t *RouteTable) IsStarted(id string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	r, ok := t.routes[id]
	return ok && r.Status == ports.RouteStarted
}

func (t *RouteTable) setStatus(id string, status ports.RouteStatus) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	r, ok := t.routes[id]
	if !ok {
		return fmt.Errorf("route %s not found", id)
	}
	r.Status = status
	return nil
}
