package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"brasa/backend/internal/domain"
)

func TestMiddlewareSetsSecurityHeaders(t *testing.T) {
	api := newTestAPI(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	res := httptest.NewRecorder()

	api.Handler().ServeHTTP(res, req)

	assert.Equal(t, "nosniff", res.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", res.Header().Get("X-Frame-Options"))
	assert.NotEmpty(t, res.Header().Get("Referrer-Policy"))
}

func TestPreflightIsAnsweredWithoutAuth(t *testing.T) {
	api := newTestAPI(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/day/orders", nil)
	res := httptest.NewRecorder()

	api.Handler().ServeHTTP(res, req)

	assert.Equal(t, http.StatusNoContent, res.Code)
	assert.Equal(t, "*", res.Header().Get("Access-Control-Allow-Origin"))
}

func TestLoginRateLimitReturns429(t *testing.T) {
	api := newTestAPI(t)
	body, err := json.Marshal(domain.LoginRequest{PIN: "0000"})
	require.NoError(t, err)

	for i := 0; i < 6; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.RemoteAddr = "127.0.0.1:5000"
		res := httptest.NewRecorder()

		api.Handler().ServeHTTP(res, req)

		want := http.StatusUnauthorized
		if i == 5 {
			want = http.StatusTooManyRequests
		}
		require.Equal(t, want, res.Code, "attempt %d", i+1)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(body))
	req.RemoteAddr = "10.0.0.9:5000"
	res := httptest.NewRecorder()
	api.Handler().ServeHTTP(res, req)
	assert.Equal(t, http.StatusUnauthorized, res.Code, "another client keeps its own budget")
}

func TestClientLimiterForgetsClientsPastCap(t *testing.T) {
	limiter := newClientLimiter(rate.Limit(0), 1)
	assert.True(t, limiter.Allow("a"))
	assert.False(t, limiter.Allow("a"))

	for i := 0; i < maxTrackedClients; i++ {
		limiter.Allow(fmt.Sprintf("client-%d", i))
	}
	assert.LessOrEqual(t, len(limiter.clients), maxTrackedClients)
}

func TestJSONBodyTooLargeRejected(t *testing.T) {
	api := newTestAPI(t)
	veryLong := strings.Repeat("a", (1<<20)+1024)
	body := fmt.Sprintf(`{"pin":"%s"}`, veryLong)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()

	api.Handler().ServeHTTP(res, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, res.Code)
}

func TestServerErrorsHideDetails(t *testing.T) {
	res := httptest.NewRecorder()
	writeError(res, http.StatusInternalServerError, fmt.Errorf("pq: relation \"secret_table\" does not exist"))

	assert.NotContains(t, res.Body.String(), "secret_table")
}

func TestMetricsEndpoint(t *testing.T) {
	api := newTestAPI(t)
	res := call(t, api.Handler(), http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Contains(t, res.Body.String(), "brasa_orders_created_total")

	api.metricsEnabled = false
	res = call(t, api.Handler(), http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusNotFound, res.Code)
}

func TestUnknownRouteIsJSON404(t *testing.T) {
	api := newTestAPI(t)
	res := call(t, api.Handler(), http.MethodGet, "/api/v2/nothing", "", nil)
	assert.Equal(t, http.StatusNotFound, res.Code)
	assert.True(t, strings.HasPrefix(res.Header().Get("Content-Type"), "application/json"))
}
