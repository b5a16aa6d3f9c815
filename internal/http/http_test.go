// Package http provides HTTP server implementation and request handlers.
package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allisson/tenantcrypto/internal/metrics"
)

// TestMain sets Gin to test mode for all tests in this package.
func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// newTestServer creates a server with no API handlers and a discarding logger.
func newTestServer(opts Options) *Server {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewServer("localhost", 8080, logger, Handlers{}, opts)
}

// TestServer_HealthEndpoint tests the health endpoint through the full router.
func TestServer_HealthEndpoint(t *testing.T) {
	server := newTestServer(Options{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	server.GetHandler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]string
	err := json.Unmarshal(w.Body.Bytes(), &response)
	require.NoError(t, err)
	assert.Equal(t, "healthy", response["status"])
}

// TestServer_ReadyEndpoint tests the ready endpoint through the full router.
func TestServer_ReadyEndpoint(t *testing.T) {
	server := newTestServer(Options{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ready", nil)
	server.GetHandler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]string
	err := json.Unmarshal(w.Body.Bytes(), &response)
	require.NoError(t, err)
	assert.Equal(t, "ready", response["status"])
}

// TestReadinessHandler_NotReadyAfterShutdown verifies readiness flips once the
// application context is cancelled.
func TestReadinessHandler_NotReadyAfterShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	handler := ReadinessHandler(ctx)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ready", nil)
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var response map[string]string
	err := json.Unmarshal(w.Body.Bytes(), &response)
	require.NoError(t, err)
	assert.Equal(t, "not ready", response["status"])
}

// TestServer_NilHandlersRoutesNotMounted verifies API routes are only mounted
// when their handler is provided.
func TestServer_NilHandlersRoutesNotMounted(t *testing.T) {
	server := newTestServer(Options{})

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/v1/tenants/acme/keys"},
		{http.MethodGet, "/v1/tenants/acme/keys"},
		{http.MethodPost, "/v1/tenants/acme/encrypt"},
		{http.MethodPost, "/v1/tenants/acme/decrypt"},
		{http.MethodPost, "/v1/tenants/acme/selftest"},
		{http.MethodGet, "/v1/tenants/acme/stats"},
		{http.MethodPost, "/v1/tenants/acme/recovery-bundle"},
	}
	for _, p := range paths {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(p.method, p.path, nil)
		server.GetHandler().ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code, "%s %s", p.method, p.path)
	}
}

// TestCustomLoggerMiddleware tests the custom logging middleware.
func TestCustomLoggerMiddleware(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	router := gin.New()
	router.Use(requestid.New())
	router.Use(CustomLoggerMiddleware(logger))
	router.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "test"})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]string
	err := json.Unmarshal(w.Body.Bytes(), &response)
	require.NoError(t, err)
	assert.Equal(t, "test", response["message"])
}

// TestRecoveryMiddleware tests that handler panics become a generic 500.
func TestRecoveryMiddleware(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	router := gin.New()
	router.Use(RecoveryMiddleware(logger))
	router.GET("/panic", func(c *gin.Context) {
		panic("test panic")
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/panic", nil)

	// Should not panic - recovery middleware catches it
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var response map[string]string
	err := json.Unmarshal(w.Body.Bytes(), &response)
	require.NoError(t, err)
	assert.Equal(t, "internal server error", response["error"])
}

// TestRequestIDMiddleware_HeaderPresent verifies X-Request-Id header is present in response.
func TestRequestIDMiddleware_HeaderPresent(t *testing.T) {
	server := newTestServer(Options{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	server.GetHandler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	requestID := w.Header().Get("X-Request-Id")
	assert.NotEmpty(t, requestID, "X-Request-Id header should be present")

	parsedUUID, err := uuid.Parse(requestID)
	require.NoError(t, err, "X-Request-Id should be a valid UUID")
	assert.NotEqual(t, uuid.Nil, parsedUUID)
}

// TestRateLimitMiddleware_RejectsBurstOverflow verifies requests beyond the
// burst allowance get a 429 with a Retry-After header.
func TestRateLimitMiddleware_RejectsBurstOverflow(t *testing.T) {
	server := newTestServer(Options{
		RateLimitEnabled:        true,
		RateLimitRequestsPerSec: 1,
		RateLimitBurst:          2,
	})

	statuses := make([]int, 0, 3)
	var lastRecorder *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		server.GetHandler().ServeHTTP(w, req)
		statuses = append(statuses, w.Code)
		lastRecorder = w
	}

	assert.Equal(t, http.StatusOK, statuses[0])
	assert.Equal(t, http.StatusOK, statuses[1])
	assert.Equal(t, http.StatusTooManyRequests, statuses[2])
	assert.NotEmpty(t, lastRecorder.Header().Get("Retry-After"))

	var response map[string]string
	err := json.Unmarshal(lastRecorder.Body.Bytes(), &response)
	require.NoError(t, err)
	assert.Equal(t, "rate_limit_exceeded", response["error"])
}

// TestRateLimitMiddleware_SeparateClients verifies limiters are tracked per client.
func TestRateLimitMiddleware_SeparateClients(t *testing.T) {
	server := newTestServer(Options{
		RateLimitEnabled:        true,
		RateLimitRequestsPerSec: 1,
		RateLimitBurst:          1,
	})

	first := httptest.NewRecorder()
	firstReq := httptest.NewRequest(http.MethodGet, "/health", nil)
	firstReq.RemoteAddr = "10.0.0.1:1234"
	server.GetHandler().ServeHTTP(first, firstReq)
	assert.Equal(t, http.StatusOK, first.Code)

	// A different client keeps its own allowance.
	second := httptest.NewRecorder()
	secondReq := httptest.NewRequest(http.MethodGet, "/health", nil)
	secondReq.RemoteAddr = "10.0.0.2:1234"
	server.GetHandler().ServeHTTP(second, secondReq)
	assert.Equal(t, http.StatusOK, second.Code)
}

// TestServer_ShutdownGracefully tests graceful server shutdown.
func TestServer_ShutdownGracefully(t *testing.T) {
	server := newTestServer(Options{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errChan := make(chan error, 1)
	go func() {
		if err := server.Start(ctx); err != nil {
			errChan <- err
		}
	}()

	// Give server time to start
	time.Sleep(100 * time.Millisecond)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	err := server.Shutdown(shutdownCtx)
	assert.NoError(t, err)

	select {
	case err := <-errChan:
		t.Fatalf("server startup failed: %v", err)
	default:
	}
}

// TestMetricsServer_Endpoints tests the metrics server endpoints.
func TestMetricsServer_Endpoints(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	provider, err := metrics.NewProvider()
	require.NoError(t, err)
	defer func() {
		assert.NoError(t, provider.Shutdown(context.Background()))
	}()

	metricsServer := NewMetricsServer("localhost", 8081, logger, provider)
	require.NotNil(t, metricsServer)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	metricsServer.GetHandler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/plain")
}

// TestServer_NoMetricsEndpoint tests that the main server does NOT expose /metrics.
func TestServer_NoMetricsEndpoint(t *testing.T) {
	server := newTestServer(Options{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	server.GetHandler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
