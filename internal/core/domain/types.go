// Package domain holds the canonical records produced by the gateway's
// pipelines and the error taxonomy shared by every layer.
package domain

import (
	"strings"
	"time"
)

// Protocol identifies which backend shape a pipeline talks to.
type Protocol string

const (
	ProtocolJSON Protocol = "JSON"
	ProtocolSOAP Protocol = "SOAP"
)

// ParseProtocol maps a caller supplied hint onto a Protocol.
// Matching is case-insensitive and "xml" is an alias for "soap".
// Anything unrecognized, including the empty string, selects JSON.
func ParseProtocol(hint string) Protocol {
	switch strings.ToLower(hint) {
	case "soap", "xml":
		return ProtocolSOAP
	default:
		return ProtocolJSON
	}
}

// DataType is the human label used in front door payloads.
func (p Protocol) DataType() string {
	if p == ProtocolSOAP {
		return "XML/SOAP"
	}
	return "JSON/REST"
}

// PipelineRequest is the typed input of a single pipeline execution.
type PipelineRequest struct {
	ID       string
	Protocol Protocol
}

// PipelineResult is what a successful dispatch hands back to the caller.
type PipelineResult struct {
	// Route is the name of the route that served the request.
	Route string `json:"route"`
	// Protocol is the pipeline that was selected.
	Protocol Protocol `json:"protocol"`
	// Data is either a PersonRecord or a SOAPExtraction.
	Data any `json:"data"`
	// RequestID correlates the result with its REQUEST_* log lines.
	RequestID string `json:"request_id"`
	// Elapsed is the wall-clock time spent inside the pipeline.
	Elapsed time.Duration `json:"-"`
}
