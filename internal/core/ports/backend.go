// Package ports defines the core interfaces for the gateway.
// This file contains the outbound backend boundary.
package ports

import (
	"context"
	"net/http"
)

// BackendRequest is a single outbound HTTP call.
type BackendRequest struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte
}

// BackendResponse is the raw answer of the backend.
type BackendResponse struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// BackendCaller performs outbound calls to the configured backend.
type BackendCaller interface {
	// Call sends req and returns the raw body and status.
	// Transport failures and non-2xx answers are returned as errors.
	Call(ctx context.Context, req *BackendRequest) (*BackendResponse, error)
}
