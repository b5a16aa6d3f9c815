package http

import (
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/allisson/tenantcrypto/internal/crypto/http/dto"
	"github.com/allisson/tenantcrypto/internal/facade"
	"github.com/allisson/tenantcrypto/internal/httputil"
	customValidation "github.com/allisson/tenantcrypto/internal/validation"
)

// defaultSelfTestSample is used when the caller does not supply a sample value.
const defaultSelfTestSample = "tenantcrypto self test"

// SelfTestHandler runs the per-purpose encryption round-trip check.
type SelfTestHandler struct {
	client *facade.Client
	logger *slog.Logger
}

// NewSelfTestHandler creates a new self-test handler.
func NewSelfTestHandler(client *facade.Client, logger *slog.Logger) *SelfTestHandler {
	return &SelfTestHandler{
		client: client,
		logger: logger,
	}
}

// SelfTestHandler round-trips a sample through the requested purposes concurrently.
// POST /v1/tenants/:tenant_id/selftest
// A failing purpose is reported in its result entry, not as an HTTP error.
func (h *SelfTestHandler) SelfTestHandler(c *gin.Context) {
	tenantID, err := tenantParam(c)
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	var req dto.SelfTestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	sample := []byte(defaultSelfTestSample)
	if req.Sample != "" {
		sample, err = base64.StdEncoding.DecodeString(req.Sample)
		if err != nil {
			httputil.HandleBadRequestGin(c, fmt.Errorf("invalid base64 sample: %w", err), h.logger)
			return
		}
	}

	results, err := h.client.TestEncryption(c.Request.Context(), tenantID, sample, req.Purposes)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	response := dto.SelfTestResponse{
		Results: make([]dto.SelfTestResultResponse, 0, len(results)),
	}
	for _, result := range results {
		response.Results = append(response.Results, dto.SelfTestResultResponse{
			Purpose:   string(result.Purpose),
			Success:   result.Success,
			Error:     result.Error,
			LatencyMS: result.Latency.Milliseconds(),
		})
	}

	c.JSON(http.StatusOK, response)
}
