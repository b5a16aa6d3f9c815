// Package integration provides end-to-end integration tests for the tenant
// encryption API. Tests all API endpoints against both PostgreSQL and MySQL
// databases.
package integration

import (
	"bytes"
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allisson/tenantcrypto/internal/app"
	"github.com/allisson/tenantcrypto/internal/config"
	cryptoDTO "github.com/allisson/tenantcrypto/internal/crypto/http/dto"
	"github.com/allisson/tenantcrypto/internal/testutil"
)

// integrationTestContext holds all dependencies and state for integration testing.
type integrationTestContext struct {
	container *app.Container
	db        *sql.DB
	server    *httptest.Server
	dbDriver  string
}

// makeRequest performs an HTTP request and returns the response and body.
func (ctx *integrationTestContext) makeRequest(
	t *testing.T,
	method, path string,
	body interface{},
) (*http.Response, []byte) {
	t.Helper()

	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		require.NoError(t, err, "failed to marshal request body")
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequest(method, ctx.server.URL+path, bodyReader)
	require.NoError(t, err, "failed to create request")

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	client := &http.Client{Timeout: 10 * time.Second}
	//nolint:gosec // controlled test environment with localhost URLs
	resp, err := client.Do(req)
	require.NoError(t, err, "failed to perform request")

	respBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err, "failed to read response body")
	if closeErr := resp.Body.Close(); closeErr != nil {
		t.Logf("Warning: failed to close response body: %v", closeErr)
	}

	return resp, respBody
}

// setMasterKeyEnv generates an ephemeral 32-byte operator master key and exports
// it through the environment variables the keychain loader reads.
func setMasterKeyEnv(t *testing.T) {
	t.Helper()

	key := make([]byte, 32)
	_, err := rand.Read(key)
	require.NoError(t, err, "failed to generate master key")

	keyBase64 := base64.StdEncoding.EncodeToString(key)
	require.NoError(t, os.Setenv("MASTER_KEYS", fmt.Sprintf("test-key-1:%s", keyBase64)))
	require.NoError(t, os.Setenv("ACTIVE_MASTER_KEY_ID", "test-key-1"))
}

// setupIntegrationTest initializes all components for integration testing.
func setupIntegrationTest(t *testing.T, dbDriver string) *integrationTestContext {
	t.Helper()

	// Set Gin to test mode
	gin.SetMode(gin.TestMode)

	// Setup database
	var db *sql.DB
	var dsn string
	if dbDriver == "postgres" {
		db = testutil.SetupPostgresDB(t)
		dsn = testutil.GetPostgresTestDSN()
	} else {
		db = testutil.SetupMySQLDB(t)
		dsn = testutil.GetMySQLTestDSN()
	}

	setMasterKeyEnv(t)

	// Create configuration
	cfg := &config.Config{
		DBDriver:             dbDriver,
		DBConnectionString:   dsn,
		DBMaxOpenConnections: 10,
		DBMaxIdleConnections: 5,
		DBConnMaxLifetime:    time.Hour,
		ServerHost:           "localhost",
		ServerPort:           8080,
		LogLevel:             "error",
		CacheEnabled:         true,
		CacheTTL:             time.Minute,
		StoreTimeout:         5 * time.Second,
		RotationInterval:     90 * 24 * time.Hour,
		EncryptionAlgorithm:  "aes-gcm",
		UsageRetentionDays:   90,
	}

	// Create DI container
	container := app.NewContainer(cfg)

	// Setup HTTP server
	httpSrv, err := container.HTTPServer()
	require.NoError(t, err, "failed to get HTTP server")

	handler := httpSrv.GetHandler()
	require.NotNil(t, handler, "handler should not be nil")

	testServer := httptest.NewServer(handler)

	return &integrationTestContext{
		container: container,
		db:        db,
		server:    testServer,
		dbDriver:  dbDriver,
	}
}

// teardownIntegrationTest cleans up all resources.
func teardownIntegrationTest(t *testing.T, ctx *integrationTestContext) {
	t.Helper()

	if ctx.server != nil {
		ctx.server.Close()
	}

	if ctx.container != nil {
		if err := ctx.container.Shutdown(context.Background()); err != nil {
			t.Logf("Warning: container shutdown error: %v", err)
		}
	}

	if ctx.db != nil {
		testutil.TeardownDB(t, ctx.db)
	}

	// Clean up environment variables
	_ = os.Unsetenv("MASTER_KEYS")
	_ = os.Unsetenv("ACTIVE_MASTER_KEY_ID")
}

func TestAPIPostgres(t *testing.T) {
	testutil.SkipIfNoPostgres(t)
	runAPITests(t, "postgres")
}

func TestAPIMySQL(t *testing.T) {
	testutil.SkipIfNoMySQL(t)
	runAPITests(t, "mysql")
}

//nolint:gocyclo // a single linear API walk keeps the fixture lifecycle simple
func runAPITests(t *testing.T, dbDriver string) {
	ctx := setupIntegrationTest(t, dbDriver)
	defer teardownIntegrationTest(t, ctx)

	const tenantID = "acme-corp"
	plaintext := []byte("4111-1111-1111-1111")
	encodedPlaintext := base64.StdEncoding.EncodeToString(plaintext)

	t.Run("health", func(t *testing.T) {
		resp, body := ctx.makeRequest(t, http.MethodGet, "/health", nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, string(body), "healthy")
	})

	t.Run("bootstrap-tenant", func(t *testing.T) {
		resp, body := ctx.makeRequest(t, http.MethodPost, "/v1/tenants/"+tenantID+"/keys", nil)
		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		assert.Contains(t, string(body), "provisioned")

		// Idempotent: bootstrapping again leaves the hierarchy untouched.
		resp, _ = ctx.makeRequest(t, http.MethodPost, "/v1/tenants/"+tenantID+"/keys", nil)
		assert.Equal(t, http.StatusCreated, resp.StatusCode)
	})

	t.Run("list-keys", func(t *testing.T) {
		resp, body := ctx.makeRequest(t, http.MethodGet, "/v1/tenants/"+tenantID+"/keys", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var listResp cryptoDTO.ListKeyInfoResponse
		require.NoError(t, json.Unmarshal(body, &listResp))

		// One master key plus one data key per purpose.
		assert.Len(t, listResp.Keys, 6)
		for _, key := range listResp.Keys {
			assert.Equal(t, tenantID, key.TenantID)
			assert.Equal(t, "active", key.Status)
			assert.NotEmpty(t, key.Fingerprint)
		}
	})

	var envelope string

	t.Run("encrypt", func(t *testing.T) {
		resp, body := ctx.makeRequest(t, http.MethodPost, "/v1/tenants/"+tenantID+"/encrypt",
			cryptoDTO.EncryptRequest{
				Plaintext: encodedPlaintext,
				Purpose:   "financial",
				Context: &cryptoDTO.EncryptionContextRequest{
					TableName: "payments",
					FieldName: "card_number",
				},
			})
		require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

		var encResp cryptoDTO.EncryptResponse
		require.NoError(t, json.Unmarshal(body, &encResp))
		assert.Contains(t, encResp.Envelope, "tce:1:aes-gcm:")
		envelope = encResp.Envelope
	})

	t.Run("decrypt", func(t *testing.T) {
		resp, body := ctx.makeRequest(t, http.MethodPost, "/v1/tenants/"+tenantID+"/decrypt",
			cryptoDTO.DecryptRequest{
				Envelope: envelope,
				Purpose:  "financial",
				Context: &cryptoDTO.EncryptionContextRequest{
					TableName: "payments",
					FieldName: "card_number",
				},
			})
		require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

		var decResp cryptoDTO.DecryptResponse
		require.NoError(t, json.Unmarshal(body, &decResp))
		assert.Equal(t, plaintext, decResp.Plaintext)
	})

	t.Run("decrypt-wrong-purpose", func(t *testing.T) {
		resp, _ := ctx.makeRequest(t, http.MethodPost, "/v1/tenants/"+tenantID+"/decrypt",
			cryptoDTO.DecryptRequest{
				Envelope: envelope,
				Purpose:  "pii",
			})
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	})

	t.Run("decrypt-wrong-context", func(t *testing.T) {
		resp, _ := ctx.makeRequest(t, http.MethodPost, "/v1/tenants/"+tenantID+"/decrypt",
			cryptoDTO.DecryptRequest{
				Envelope: envelope,
				Purpose:  "financial",
				Context: &cryptoDTO.EncryptionContextRequest{
					TableName: "payments",
					FieldName: "wrong_field",
				},
			})
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	})

	t.Run("rotate-key", func(t *testing.T) {
		resp, body := ctx.makeRequest(t, http.MethodPost, "/v1/tenants/"+tenantID+"/keys/rotate",
			cryptoDTO.RotateKeyRequest{
				Purpose: "financial",
				Reason:  "scheduled",
			})
		require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

		var rotResp cryptoDTO.RotateKeyResponse
		require.NoError(t, json.Unmarshal(body, &rotResp))
		assert.Equal(t, uint(2), rotResp.Key.Version)
		assert.Equal(t, "active", rotResp.Key.Status)

		// Envelopes sealed under the previous version stay decryptable.
		decResp, decBody := ctx.makeRequest(t, http.MethodPost, "/v1/tenants/"+tenantID+"/decrypt",
			cryptoDTO.DecryptRequest{
				Envelope: envelope,
				Purpose:  "financial",
				Context: &cryptoDTO.EncryptionContextRequest{
					TableName: "payments",
					FieldName: "card_number",
				},
			})
		assert.Equal(t, http.StatusOK, decResp.StatusCode, string(decBody))
	})

	t.Run("rotate-master", func(t *testing.T) {
		resp, body := ctx.makeRequest(t, http.MethodPost, "/v1/tenants/"+tenantID+"/keys/rotate-master",
			cryptoDTO.RotateMasterKeyRequest{
				Reason: "scheduled",
			})
		require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

		var rotResp cryptoDTO.RotateKeyResponse
		require.NoError(t, json.Unmarshal(body, &rotResp))
		assert.Equal(t, "master", rotResp.Key.KeyType)

		// Rewrapped data keys keep serving old envelopes.
		decResp, decBody := ctx.makeRequest(t, http.MethodPost, "/v1/tenants/"+tenantID+"/decrypt",
			cryptoDTO.DecryptRequest{
				Envelope: envelope,
				Purpose:  "financial",
				Context: &cryptoDTO.EncryptionContextRequest{
					TableName: "payments",
					FieldName: "card_number",
				},
			})
		assert.Equal(t, http.StatusOK, decResp.StatusCode, string(decBody))
	})

	t.Run("selftest", func(t *testing.T) {
		resp, body := ctx.makeRequest(t, http.MethodPost, "/v1/tenants/"+tenantID+"/selftest",
			cryptoDTO.SelfTestRequest{})
		require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

		var selfResp cryptoDTO.SelfTestResponse
		require.NoError(t, json.Unmarshal(body, &selfResp))
		assert.Len(t, selfResp.Results, 5)
		for _, result := range selfResp.Results {
			assert.True(t, result.Success, "selftest failed for purpose %s: %s", result.Purpose, result.Error)
		}
	})

	t.Run("stats", func(t *testing.T) {
		resp, body := ctx.makeRequest(t, http.MethodGet, "/v1/tenants/"+tenantID+"/stats?days=7", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
		assert.Contains(t, string(body), `"tenant_id":"`+tenantID+`"`)
		assert.Contains(t, string(body), `"operation":"encrypt"`)
	})

	t.Run("encrypt-unknown-tenant", func(t *testing.T) {
		resp, _ := ctx.makeRequest(t, http.MethodPost, "/v1/tenants/ghost-tenant/encrypt",
			cryptoDTO.EncryptRequest{
				Plaintext: encodedPlaintext,
				Purpose:   "general",
			})
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}
