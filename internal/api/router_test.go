package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maternal-survey/survey-api/internal/database"
	"github.com/maternal-survey/survey-api/internal/logging"
)

type fakeReadiness struct {
	state database.ConnectionState
}

func (f *fakeReadiness) State() database.ConnectionState { return f.state }

type testEnv struct {
	router    http.Handler
	responses *database.MockResponseStore
	users     *database.MockUserStore
	readiness *fakeReadiness
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		responses: database.NewMockResponseStore(),
		users:     database.NewMockUserStore(),
		readiness: &fakeReadiness{state: database.StateConnected},
	}
	env.router = NewRouter(Config{
		Logger:         logging.NewDefault("test"),
		Responses:      env.responses,
		Users:          env.users,
		DB:             env.readiness,
		JWTSecret:      []byte("test-secret"),
		AllowedOrigins: []string{"http://localhost:3000", "https://maternal-survey.vercel.app"},
		RateLimitRPS:   1000,
		RateLimitBurst: 1000,
	})
	return env
}

func (env *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestWelcomeEndpoint(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, Version, body["version"])
	assert.NotEmpty(t, body["documentation"])

	endpoints, ok := body["endpoints"].(map[string]interface{})
	require.True(t, ok, "endpoints must be an object")
	assert.Equal(t, "/api/v1/responses", endpoints["survey"])
	assert.Equal(t, "/api/v1/auth", endpoints["auth"])
	assert.Equal(t, "/api/v1/analytics", endpoints["analytics"])
	assert.Equal(t, "/api/v1/adv", endpoints["advanced"])
}

func TestWelcomeEndpointIgnoresHeadersAndBody(t *testing.T) {
	env := newTestEnv(t)

	plain := env.do(httptest.NewRequest(http.MethodGet, "/", nil))

	decorated := httptest.NewRequest(http.MethodGet, "/", nil)
	decorated.Header.Set("Origin", "http://localhost:3000")
	decorated.Header.Set("Accept", "text/html")
	withHeaders := env.do(decorated)

	assert.JSONEq(t, plain.Body.String(), withHeaders.Body.String())
}

func TestHealthEndpointConnected(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(httptest.NewRequest(http.MethodGet, "/api/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "connected", body["database"])
	assert.Equal(t, Version, body["version"])
	assert.NotEmpty(t, body["timestamp"])
}

func TestHealthEndpointDisconnectedStillOK(t *testing.T) {
	env := newTestEnv(t)
	env.readiness.state = database.StateDisconnected

	rec := env.do(httptest.NewRequest(http.MethodGet, "/api/health", nil))
	require.Equal(t, http.StatusOK, rec.Code, "health reports infra state, never its own failure")

	body := decodeBody(t, rec)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "disconnected", body["database"])
}

func TestHealthEndpointIdempotent(t *testing.T) {
	env := newTestEnv(t)

	first := decodeBody(t, env.do(httptest.NewRequest(http.MethodGet, "/api/health", nil)))
	second := decodeBody(t, env.do(httptest.NewRequest(http.MethodGet, "/api/health", nil)))

	assert.Equal(t, first["status"], second["status"])
	assert.Equal(t, first["database"], second["database"])
}

func TestUnknownPathReturnsJSON404(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(httptest.NewRequest(http.MethodGet, "/api/v2/nothing", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not found", decodeBody(t, rec)["error"])
}

func TestDeniedOriginShortCircuitsPipeline(t *testing.T) {
	env := newTestEnv(t)
	env.responses.ErrorOnNextCall = errors.New("store must never be reached")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/surveys", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec := env.do(req)

	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Not allowed by CORS", decodeBody(t, rec)["error"])
	assert.Error(t, env.responses.ErrorOnNextCall, "store call would have cleared the injected error")
}

func TestPreflightAnsweredBeforeRouting(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/responses", nil)
	req.Header.Set("Origin", "https://maternal-survey.vercel.app")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := env.do(req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://maternal-survey.vercel.app", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, rec.Body.String())
}

func TestStoreErrorProducesSingleErrorResponse(t *testing.T) {
	env := newTestEnv(t)
	env.responses.ErrorOnNextCall = errors.New("db exploded")

	rec := env.do(httptest.NewRequest(http.MethodGet, "/api/v1/surveys", nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "failed to list responses", body["error"])
	assert.NotContains(t, rec.Body.String(), "db exploded", "cause must not leak to the client")
}

func TestAnalyticsAliasPrefixesResolveIdentically(t *testing.T) {
	env := newTestEnv(t)
	seedResponses(t, env)

	canonical := env.do(httptest.NewRequest(http.MethodGet, "/api/v1/analytics/summary", nil))
	alias := env.do(httptest.NewRequest(http.MethodGet, "/api/v1/adv/summary", nil))

	require.Equal(t, http.StatusOK, canonical.Code)
	require.Equal(t, http.StatusOK, alias.Code)
	assert.JSONEq(t, canonical.Body.String(), alias.Body.String())
}

func TestMetricsEndpointServes(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "survey_gateway_http")
}
