package frontdoor

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// BasePath prefixes every front door route.
const BasePath = "/api/camel"

// HandlerRegistration represents a registered HTTP handler.
type HandlerRegistration struct {
	Path    string
	Method  string
	Handler http.HandlerFunc
}

// CreateHandlerRegistrations lists the front door routes under basePath.
func CreateHandlerRegistrations(h *Handler, basePath string) []HandlerRegistration {
	return []HandlerRegistration{
		{Path: basePath + "/person/{id}", Method: http.MethodGet, Handler: h.HandlePerson},
		{Path: basePath + "/transform", Method: http.MethodPost, Handler: h.HandleTransform},
		{Path: basePath + "/routes", Method: http.MethodGet, Handler: h.HandleListRoutes},
		{Path: basePath + "/routes/{routeId}/start", Method: http.MethodPost, Handler: h.HandleStartRoute},
		{Path: basePath + "/routes/{routeId}/stop", Method: http.MethodPost, Handler: h.HandleStopRoute},
	}
}

// Mount registers every front door route on r.
func Mount(r chi.Router, h *Handler) {
	for _, reg := range CreateHandlerRegistrations(h, BasePath) {
		r.Method(reg.Method, reg.Path, reg.Handler)
	}
}
