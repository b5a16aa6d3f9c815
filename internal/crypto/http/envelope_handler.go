package http

import (
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	cryptoDomain "github.com/allisson/tenantcrypto/internal/crypto/domain"
	"github.com/allisson/tenantcrypto/internal/crypto/http/dto"
	cryptoUsecase "github.com/allisson/tenantcrypto/internal/crypto/usecase"
	"github.com/allisson/tenantcrypto/internal/httputil"
	customValidation "github.com/allisson/tenantcrypto/internal/validation"
)

// EnvelopeHandler handles HTTP requests for envelope encryption and decryption.
type EnvelopeHandler struct {
	envelopeUseCase cryptoUsecase.EnvelopeUseCase
	logger          *slog.Logger
}

// NewEnvelopeHandler creates a new envelope handler with required dependencies.
func NewEnvelopeHandler(
	envelopeUseCase cryptoUsecase.EnvelopeUseCase,
	logger *slog.Logger,
) *EnvelopeHandler {
	return &EnvelopeHandler{
		envelopeUseCase: envelopeUseCase,
		logger:          logger,
	}
}

// EncryptHandler encrypts plaintext under the tenant's active data key for a purpose.
// POST /v1/tenants/:tenant_id/encrypt
// Returns 200 OK with the serialized envelope.
func (h *EnvelopeHandler) EncryptHandler(c *gin.Context) {
	tenantID, err := tenantParam(c)
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	var req dto.EncryptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	purpose, err := cryptoDomain.ParsePurpose(req.Purpose)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	plaintext, err := base64.StdEncoding.DecodeString(req.Plaintext)
	if err != nil {
		httputil.HandleBadRequestGin(c, fmt.Errorf("invalid base64 plaintext: %w", err), h.logger)
		return
	}
	defer cryptoDomain.Zero(plaintext)

	envelope, err := h.envelopeUseCase.Encrypt(
		c.Request.Context(), tenantID, plaintext, purpose, req.Context.ToDomain(),
	)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.EncryptResponse{Envelope: envelope})
}

// DecryptHandler recovers plaintext from a serialized envelope.
// POST /v1/tenants/:tenant_id/decrypt
// Returns 200 OK with base64-encoded plaintext. SECURITY: plaintext is zeroed
// after the response is written.
func (h *EnvelopeHandler) DecryptHandler(c *gin.Context) {
	tenantID, err := tenantParam(c)
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	var req dto.DecryptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	purpose, err := cryptoDomain.ParsePurpose(req.Purpose)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	plaintext, err := h.envelopeUseCase.Decrypt(
		c.Request.Context(), tenantID, req.Envelope, purpose, req.Context.ToDomain(),
	)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}
	defer cryptoDomain.Zero(plaintext)

	c.JSON(http.StatusOK, dto.DecryptResponse{Plaintext: plaintext})
}
