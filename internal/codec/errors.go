package codec

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/tjfontaine/polyglot-integration-gateway/internal/core/domain"
)

// StatusError is the status field of every failure payload.
const StatusError = "error"

// ErrorResponse is a rendered failure ready to be written.
type ErrorResponse struct {
	StatusCode int
	Body       []byte
}

// ErrorPayload is the JSON body returned for a failed request.
type ErrorPayload struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	Pipeline  string `json:"pipeline,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// ToPipelineError converts any error to a *domain.PipelineError.
// If the error already is one, it is returned directly.
func ToPipelineError(err error) *domain.PipelineError {
	if pe, ok := domain.AsPipelineError(err); ok {
		return pe
	}
	return domain.ErrInternal(err)
}

// FormatError renders err with message prefix and timestamp at.
func FormatError(err error, prefix string, at time.Time) *ErrorResponse {
	pe := ToPipelineError(err)

	body, _ := json.Marshal(ErrorPayload{
		Status:    StatusError,
		Message:   prefix + pe.Message,
		Pipeline:  pe.Route,
		Timestamp: at.UnixMilli(),
	})

	return &ErrorResponse{
		StatusCode: pe.HTTPStatusCode(),
		Body:       body,
	}
}

// WriteError writes err as a JSON failure payload.
func WriteError(w http.ResponseWriter, err error, prefix string) {
	resp := FormatError(err, prefix, time.Now())
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.StatusCode)
	w.Write(resp.Body)
}

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
