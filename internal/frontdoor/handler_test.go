package frontdoor

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tjfontaine/polyglot-integration-gateway/internal/backend"
	"github.com/tjfontaine/polyglot-integration-gateway/internal/core/domain"
	"github.com/tjfontaine/polyglot-integration-gateway/internal/core/ports"
	"github.com/tjfontaine/polyglot-integration-gateway/internal/correlation"
	"github.com/tjfontaine/polyglot-integration-gateway/internal/mockbackend"
	"github.com/tjfontaine/polyglot-integration-gateway/internal/pipeline"
	"github.com/tjfontaine/polyglot-integration-gateway/internal/testutil"
)

var fixedNow = time.Date(2025, 8, 19, 9, 25, 30, 0, time.UTC)

type testEnv struct {
	router *chi.Mux
	routes *pipeline.RouteTable
	logs   *bytes.Buffer
}

func newEnv(t *testing.T, backendURL string) *testEnv {
	t.Helper()
	logger, buf := testutil.NewBufferLogger()
	routes := pipeline.DefaultRouteTable(30000)
	d := pipeline.NewDispatcher(backend.NewClient(), backendURL, correlation.New(logger),
		pipeline.WithRouteController(routes),
		pipeline.WithLogger(logger),
	)

	h := NewHandler(d, d, routes, backendURL+"/posts/2")
	h.now = func() time.Time { return fixedNow }

	r := chi.NewRouter()
	Mount(r, h)
	return &testEnv{router: r, routes: routes, logs: buf}
}

func newMockBackend(t *testing.T) *httptest.Server {
	t.Helper()
	logger, _ := testutil.NewBufferLogger()
	srv := httptest.NewServer(mockbackend.NewServer(logger))
	t.Cleanup(srv.Close)
	return srv
}

func (e *testEnv) do(t *testing.T, method, target string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, httptest.NewRequest(method, target, nil))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return rec, body
}

func logMessages(t *testing.T, buf *bytes.Buffer) []string {
	t.Helper()
	var out []string
	sc := bufio.NewScanner(bytes.NewReader(buf.Bytes()))
	for sc.Scan() {
		var entry struct {
			Msg string `json:"msg"`
		}
		require.NoError(t, json.Unmarshal(sc.Bytes(), &entry))
		out = append(out, entry.Msg)
	}
	return out
}

func TestHandlePerson_JSON(t *testing.T) {
	env := newEnv(t, newMockBackend(t).URL)

	rec, body := env.do(t, http.MethodGet, "/api/camel/person/2")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	assert.Equal(t, "success", body["status"])
	assert.Equal(t, "Person data retrieved successfully for ID: 2 using JSON/REST API", body["message"])
	assert.Equal(t, pipeline.NamePersonData, body["route"])
	assert.Equal(t, "JSON/REST", body["dataType"])
	assert.Equal(t, float64(fixedNow.UnixMilli()), body["timestamp"])
	assert.Equal(t, map[string]any{
		"first_name":    "John2",
		"last_name":     "Smith2",
		"creation_date": mockbackend.CreatedAt,
	}, body["data"])
}

func TestHandlePerson_SOAPHints(t *testing.T) {
	env := newEnv(t, newMockBackend(t).URL)

	for _, hint := range []string{"soap", "xml", "XML", "Soap"} {
		t.Run(hint, func(t *testing.T) {
			rec, body := env.do(t, http.MethodGet, "/api/camel/person/3?type="+hint)
			require.Equal(t, http.StatusOK, rec.Code)

			assert.Equal(t, "Person data retrieved successfully for ID: 3 using XML/SOAP API", body["message"])
			assert.Equal(t, pipeline.NameSOAPPersonData, body["route"])
			assert.Equal(t, "XML/SOAP", body["dataType"])

			data, ok := body["data"].(map[string]any)
			require.True(t, ok)
			assert.Equal(t, "3", data["employee_id"])
			assert.Equal(t, "Pierre Marie", data["full_name"])
			assert.Equal(t, "Finance", data["department"])
			assert.Equal(t, domain.SOAPDataSource, data["data_source"])
		})
	}
}

func TestHandlePerson_UnknownTypeUsesJSON(t *testing.T) {
	env := newEnv(t, newMockBackend(t).URL)

	rec, body := env.do(t, http.MethodGet, "/api/camel/person/5?type=csv")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, pipeline.NamePersonData, body["route"])
}

func TestHandlePerson_CorrelationLines(t *testing.T) {
	env := newEnv(t, newMockBackend(t).URL)

	rec, _ := env.do(t, http.MethodGet, "/api/camel/person/7?type=json")
	require.Equal(t, http.StatusOK, rec.Code)

	var start string
	for _, msg := range logMessages(t, env.logs) {
		if strings.HasPrefix(msg, "REQUEST_START") {
			start = msg
		}
	}
	require.NotEmpty(t, start)
	assert.Contains(t, start, "| GET | http://example.com/api/camel/person/7?type=json  |")
	assert.Contains(t, start, "Parameters: personId=7, type=json")
}

func TestHandlePerson_BackendDown(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	env := newEnv(t, srv.URL)

	rec, body := env.do(t, http.MethodGet, "/api/camel/person/1")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "error", body["status"])
	assert.True(t, strings.HasPrefix(body["message"].(string), "Error retrieving data for ID 1: "), body["message"])
	assert.Equal(t, pipeline.NamePersonData, body["pipeline"])
	assert.NotZero(t, body["timestamp"])
}

func TestHandlePerson_BackendNotFound(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(srv.Close)
	env := newEnv(t, srv.URL)

	rec, body := env.do(t, http.MethodGet, "/api/camel/person/1?type=soap")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, pipeline.NameSOAPPersonData, body["pipeline"])
}

func TestHandlePerson_MalformedEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"Err": "no such person"}`))
	}))
	t.Cleanup(srv.Close)
	env := newEnv(t, srv.URL)

	rec, body := env.do(t, http.MethodGet, "/api/camel/person/9")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Error retrieving data for ID 9: Invalid response format: 'Ok' field not found", body["message"])
}

func TestHandlePerson_StoppedRoute(t *testing.T) {
	env := newEnv(t, newMockBackend(t).URL)
	require.NoError(t, env.routes.StopRoute(pipeline.RoutePersonData))

	rec, body := env.do(t, http.MethodGet, "/api/camel/person/1")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "Error retrieving data for ID 1: route person-data-route is stopped", body["message"])

	// The SOAP route is independent.
	rec, _ = env.do(t, http.MethodGet, "/api/camel/person/1?type=soap")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandleTransform(t *testing.T) {
	env := newEnv(t, newMockBackend(t).URL)

	rec, body := env.do(t, http.MethodPost, "/api/camel/transform")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, pipeline.RouteManualTransform, body["route"])

	data, ok := body["data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(2), data["originalId"])
	assert.Equal(t, "TRANSFORMED: SAMPLE POST 2 ABOUT INTEGRATION GATEWAYS", data["transformedTitle"])
	assert.Equal(t, float64(1), data["userId"])
	assert.Equal(t, "external-api", data["source"])
}

func TestHandleTransform_StoppedRoute(t *testing.T) {
	env := newEnv(t, newMockBackend(t).URL)
	require.NoError(t, env.routes.StopRoute(pipeline.RouteManualTransform))

	rec, body := env.do(t, http.MethodPost, "/api/camel/transform")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "Error running transformation: route manual-transform-route is stopped", body["message"])
}

func TestHandleListRoutes(t *testing.T) {
	env := newEnv(t, newMockBackend(t).URL)
	require.NoError(t, env.routes.StopRoute(pipeline.RouteJSONTransform))

	rec, body := env.do(t, http.MethodGet, "/api/camel/routes")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, float64(4), body["totalRoutes"])

	routes, ok := body["routes"].([]any)
	require.True(t, ok)
	require.Len(t, routes, 4)

	first := routes[0].(map[string]any)
	assert.Equal(t, pipeline.RoutePersonData, first["id"])
	assert.Equal(t, "direct://personData", first["endpoint"])
	assert.Equal(t, "Started", first["status"])

	statuses := map[string]any{}
	for _, r := range routes {
		info := r.(map[string]any)
		statuses[info["id"].(string)] = info["status"]
	}
	assert.Equal(t, "Stopped", statuses[pipeline.RouteJSONTransform])
}

func TestHandleStartStopRoute(t *testing.T) {
	env := newEnv(t, newMockBackend(t).URL)

	rec, body := env.do(t, http.MethodPost, "/api/camel/routes/soap-person-data-route/stop")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Route soap-person-data-route stopped successfully", body["message"])
	assert.False(t, env.routes.IsStarted(pipeline.RouteSOAPPersonData))

	rec, body = env.do(t, http.MethodPost, "/api/camel/routes/soap-person-data-route/start")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Route soap-person-data-route started successfully", body["message"])
	assert.True(t, env.routes.IsStarted(pipeline.RouteSOAPPersonData))
}

func TestHandleStartStopRoute_Unknown(t *testing.T) {
	env := newEnv(t, newMockBackend(t).URL)

	rec, body := env.do(t, http.MethodPost, "/api/camel/routes/nope/start")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "error", body["status"])
	assert.Equal(t, "Error starting route: route nope not found", body["message"])

	rec, body = env.do(t, http.MethodPost, "/api/camel/routes/nope/stop")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Error stopping route: route nope not found", body["message"])
}

type stubDispatcher struct {
	ports.Dispatcher
	gotCtx context.Context
	err    error
}

func (s *stubDispatcher) Run(ctx context.Context, id, hint string) (*domain.PipelineResult, error) {
	s.gotCtx = ctx
	if s.err != nil {
		return nil, s.err
	}
	return &domain.PipelineResult{Route: pipeline.NamePersonData, Protocol: domain.ParseProtocol(hint), Data: domain.PersonRecord{}}, nil
}

func TestHandlePerson_SetsHeaders(t *testing.T) {
	stub := &stubDispatcher{}
	h := NewHandler(stub, nil, pipeline.DefaultRouteTable(30000), "")
	r := chi.NewRouter()
	Mount(r, h)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/camel/person/42", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	headers := correlation.HeadersFrom(stub.gotCtx)
	assert.Equal(t, correlation.Headers{
		correlation.HeaderMethod:   http.MethodGet,
		correlation.HeaderURI:      "http://example.com",
		correlation.HeaderPath:     "/api/camel/person/42",
		correlation.HeaderPersonID: "42",
		correlation.HeaderType:     DefaultType,
	}, headers)
}

func TestHandlePerson_UnclassifiedError(t *testing.T) {
	stub := &stubDispatcher{err: errors.New("boom")}
	h := NewHandler(stub, nil, pipeline.DefaultRouteTable(30000), "")
	r := chi.NewRouter()
	Mount(r, h)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/camel/person/42", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Error retrieving data for ID 42: boom", body["message"])
}

func TestCreateHandlerRegistrations(t *testing.T) {
	regs := CreateHandlerRegistrations(&Handler{}, "/base")
	paths := make([]string, 0, len(regs))
	for _, r := range regs {
		paths = append(paths, r.Method+" "+r.Path)
	}
	assert.Equal(t, []string{
		"GET /base/person/{id}",
		"POST /base/transform",
		"GET /base/routes",
		"POST /base/routes/{routeId}/start",
		"POST /base/routes/{routeId}/stop",
	}, paths)
}
