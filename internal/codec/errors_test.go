package codec

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tjfontaine/polyglot-integration-gateway/internal/core/domain"
)

func TestToPipelineError(t *testing.T) {
	pe := domain.ErrMissingOkField()
	assert.Same(t, pe, ToPipelineError(pe))

	plain := errors.New("boom")
	converted := ToPipelineError(plain)
	assert.Equal(t, domain.ErrorKindInternal, converted.Kind)
	assert.ErrorIs(t, converted, plain)
}

func TestFormatError(t *testing.T) {
	at := time.UnixMilli(1724059530135)
	err := domain.ErrBackendUnavailable(errors.New("connection refused")).WithRoute("personData")

	resp := FormatError(err, "Error retrieving data for ID 5: ", at)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	var payload ErrorPayload
	require.NoError(t, json.Unmarshal(resp.Body, &payload))
	assert.Equal(t, ErrorPayload{
		Status:    "error",
		Message:   "Error retrieving data for ID 5: connection refused",
		Pipeline:  "personData",
		Timestamp: 1724059530135,
	}, payload)
}

func TestWriteError_StatusFromKind(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, domain.ErrRouteStopped("person-data-route"), "")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var payload map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, "error", payload["status"])
	assert.Equal(t, "route person-data-route is stopped", payload["message"])
	assert.Contains(t, payload, "timestamp")
}

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteJSON(rec, http.StatusCreated, map[string]string{"status": "ok"})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
