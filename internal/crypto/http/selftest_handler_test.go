package http

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cryptoCache "github.com/allisson/tenantcrypto/internal/crypto/cache"
	cryptoDomain "github.com/allisson/tenantcrypto/internal/crypto/domain"
	"github.com/allisson/tenantcrypto/internal/crypto/http/dto"
	"github.com/allisson/tenantcrypto/internal/facade"
)

// selfTestEngine is a fake envelope engine that base64 round-trips payloads.
// Purposes listed in failing return their error on Encrypt.
type selfTestEngine struct {
	failing map[cryptoDomain.Purpose]error
}

func (e *selfTestEngine) Encrypt(
	_ context.Context,
	tenantID string,
	plaintext []byte,
	purpose cryptoDomain.Purpose,
	_ *cryptoDomain.EncryptionContext,
) (string, error) {
	if err, ok := e.failing[purpose]; ok {
		return "", err
	}
	return fmt.Sprintf(
		"test:%s:%s:%s", tenantID, purpose, base64.StdEncoding.EncodeToString(plaintext),
	), nil
}

func (e *selfTestEngine) Decrypt(
	_ context.Context,
	tenantID string,
	envelope string,
	purpose cryptoDomain.Purpose,
	_ *cryptoDomain.EncryptionContext,
) ([]byte, error) {
	parts := strings.Split(envelope, ":")
	if len(parts) != 4 || parts[1] != tenantID || parts[2] != string(purpose) {
		return nil, cryptoDomain.ErrDecryptionFailed
	}
	return base64.StdEncoding.DecodeString(parts[3])
}

// setupTestSelfTestHandler creates a self-test handler backed by a fake engine.
func setupTestSelfTestHandler(t *testing.T, failing map[cryptoDomain.Purpose]error) *SelfTestHandler {
	t.Helper()

	gin.SetMode(gin.TestMode)

	engine := &selfTestEngine{failing: failing}
	client := facade.New(nil, engine, nil, nil, nil, cryptoCache.New(time.Minute, false))
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return NewSelfTestHandler(client, logger)
}

func TestSelfTestHandler(t *testing.T) {
	t.Run("Success_AllPurposesByDefault", func(t *testing.T) {
		handler := setupTestSelfTestHandler(t, nil)

		c, w := createTestContext(http.MethodPost, "/v1/tenants/acme-corp/selftest", dto.SelfTestRequest{})
		c.Params = gin.Params{gin.Param{Key: "tenant_id", Value: "acme-corp"}}

		handler.SelfTestHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)

		var response dto.SelfTestResponse
		err := json.Unmarshal(w.Body.Bytes(), &response)
		require.NoError(t, err)
		require.Len(t, response.Results, len(cryptoDomain.Purposes))

		seen := make(map[string]bool)
		for _, result := range response.Results {
			seen[result.Purpose] = true
			assert.True(t, result.Success, "purpose %s should round trip", result.Purpose)
			assert.Empty(t, result.Error)
		}
		for _, purpose := range cryptoDomain.Purposes {
			assert.True(t, seen[string(purpose)])
		}
	})

	t.Run("Success_SubsetOfPurposes", func(t *testing.T) {
		handler := setupTestSelfTestHandler(t, nil)

		request := dto.SelfTestRequest{Purposes: []string{"pii", "financial"}}
		c, w := createTestContext(http.MethodPost, "/v1/tenants/acme-corp/selftest", request)
		c.Params = gin.Params{gin.Param{Key: "tenant_id", Value: "acme-corp"}}

		handler.SelfTestHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)

		var response dto.SelfTestResponse
		err := json.Unmarshal(w.Body.Bytes(), &response)
		require.NoError(t, err)
		require.Len(t, response.Results, 2)
	})

	t.Run("Success_FailingPurposeReportedInResult", func(t *testing.T) {
		handler := setupTestSelfTestHandler(t, map[cryptoDomain.Purpose]error{
			cryptoDomain.PurposeFinancial: cryptoDomain.ErrNoActiveKey,
		})

		request := dto.SelfTestRequest{Purposes: []string{"general", "financial"}}
		c, w := createTestContext(http.MethodPost, "/v1/tenants/acme-corp/selftest", request)
		c.Params = gin.Params{gin.Param{Key: "tenant_id", Value: "acme-corp"}}

		handler.SelfTestHandler(c)

		// A failing purpose is reported per-result, not as an HTTP error.
		assert.Equal(t, http.StatusOK, w.Code)

		var response dto.SelfTestResponse
		err := json.Unmarshal(w.Body.Bytes(), &response)
		require.NoError(t, err)
		require.Len(t, response.Results, 2)

		byPurpose := make(map[string]dto.SelfTestResultResponse)
		for _, result := range response.Results {
			byPurpose[result.Purpose] = result
		}
		assert.True(t, byPurpose["general"].Success)
		assert.False(t, byPurpose["financial"].Success)
		assert.NotEmpty(t, byPurpose["financial"].Error)
	})

	t.Run("Success_CustomSample", func(t *testing.T) {
		handler := setupTestSelfTestHandler(t, nil)

		request := dto.SelfTestRequest{
			Sample:   base64.StdEncoding.EncodeToString([]byte("custom probe value")),
			Purposes: []string{"general"},
		}
		c, w := createTestContext(http.MethodPost, "/v1/tenants/acme-corp/selftest", request)
		c.Params = gin.Params{gin.Param{Key: "tenant_id", Value: "acme-corp"}}

		handler.SelfTestHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)

		var response dto.SelfTestResponse
		err := json.Unmarshal(w.Body.Bytes(), &response)
		require.NoError(t, err)
		require.Len(t, response.Results, 1)
		assert.True(t, response.Results[0].Success)
	})

	t.Run("Error_UnknownPurpose", func(t *testing.T) {
		handler := setupTestSelfTestHandler(t, nil)

		request := dto.SelfTestRequest{Purposes: []string{"general", "marketing"}}
		c, w := createTestContext(http.MethodPost, "/v1/tenants/acme-corp/selftest", request)
		c.Params = gin.Params{gin.Param{Key: "tenant_id", Value: "acme-corp"}}

		handler.SelfTestHandler(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

		var response map[string]interface{}
		err := json.Unmarshal(w.Body.Bytes(), &response)
		require.NoError(t, err)
		assert.Equal(t, "validation_error", response["error"])
	})

	t.Run("Error_InvalidBase64Sample", func(t *testing.T) {
		handler := setupTestSelfTestHandler(t, nil)

		request := dto.SelfTestRequest{Sample: "not-valid-base64!!!"}
		c, w := createTestContext(http.MethodPost, "/v1/tenants/acme-corp/selftest", request)
		c.Params = gin.Params{gin.Param{Key: "tenant_id", Value: "acme-corp"}}

		handler.SelfTestHandler(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("Error_InvalidTenantID", func(t *testing.T) {
		handler := setupTestSelfTestHandler(t, nil)

		c, w := createTestContext(http.MethodPost, "/v1/tenants/bad|tenant/selftest", dto.SelfTestRequest{})
		c.Params = gin.Params{gin.Param{Key: "tenant_id", Value: "bad|tenant"}}

		handler.SelfTestHandler(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
