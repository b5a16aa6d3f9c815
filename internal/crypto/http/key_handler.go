// Package http provides HTTP handlers for tenant key management and envelope
// encryption operations.
package http

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	validation "github.com/jellydator/validation"

	cryptoDomain "github.com/allisson/tenantcrypto/internal/crypto/domain"
	"github.com/allisson/tenantcrypto/internal/crypto/http/dto"
	cryptoUsecase "github.com/allisson/tenantcrypto/internal/crypto/usecase"
	"github.com/allisson/tenantcrypto/internal/httputil"
	customValidation "github.com/allisson/tenantcrypto/internal/validation"
)

// tenantParam extracts and validates the tenant identifier URL parameter.
func tenantParam(c *gin.Context) (string, error) {
	tenantID := c.Param("tenant_id")
	if err := validation.Validate(tenantID, validation.Required, customValidation.TenantID); err != nil {
		return "", fmt.Errorf("invalid tenant_id parameter: %w", err)
	}
	return tenantID, nil
}

// KeyHandler handles HTTP requests for the tenant key lifecycle.
type KeyHandler struct {
	tenantKeyUseCase cryptoUsecase.TenantKeyUseCase
	rotationUseCase  cryptoUsecase.RotationUseCase
	logger           *slog.Logger
}

// NewKeyHandler creates a new key handler with required dependencies.
func NewKeyHandler(
	tenantKeyUseCase cryptoUsecase.TenantKeyUseCase,
	rotationUseCase cryptoUsecase.RotationUseCase,
	logger *slog.Logger,
) *KeyHandler {
	return &KeyHandler{
		tenantKeyUseCase: tenantKeyUseCase,
		rotationUseCase:  rotationUseCase,
		logger:           logger,
	}
}

// CreateTenantKeysHandler bootstraps the tenant's key hierarchy.
// POST /v1/tenants/:tenant_id/keys
// Returns 201 Created; bootstrapping an already-provisioned tenant is a no-op
// and returns 201 as well.
func (h *KeyHandler) CreateTenantKeysHandler(c *gin.Context) {
	tenantID, err := tenantParam(c)
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := h.tenantKeyUseCase.CreateTenantKeys(c.Request.Context(), tenantID); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"tenant_id": tenantID, "status": "provisioned"})
}

// ListKeyInfoHandler returns every key version for the tenant, newest first.
// GET /v1/tenants/:tenant_id/keys
// Key material is never included in the response.
func (h *KeyHandler) ListKeyInfoHandler(c *gin.Context) {
	tenantID, err := tenantParam(c)
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	infos, err := h.tenantKeyUseCase.GetKeyInfo(c.Request.Context(), tenantID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapListKeyInfoToResponse(infos))
}

// UpdateKeyStatusHandler moves one key version through the lifecycle.
// PATCH /v1/tenants/:tenant_id/keys/:key_id/status
// Only active → rotating → archived transitions are accepted.
func (h *KeyHandler) UpdateKeyStatusHandler(c *gin.Context) {
	if _, err := tenantParam(c); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	keyID, err := uuid.Parse(c.Param("key_id"))
	if err != nil {
		httputil.HandleBadRequestGin(c, fmt.Errorf("invalid key_id parameter: %w", err), h.logger)
		return
	}

	var req dto.UpdateKeyStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	err = h.tenantKeyUseCase.UpdateStatus(c.Request.Context(), keyID, cryptoDomain.KeyStatus(req.Status))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": keyID.String(), "status": req.Status})
}

// RotateKeyHandler rotates the tenant's data key for one purpose.
// POST /v1/tenants/:tenant_id/keys/rotate
// Returns 200 OK with the new key version. A concurrent rotation for the same
// (tenant, purpose) returns 409 Conflict.
func (h *KeyHandler) RotateKeyHandler(c *gin.Context) {
	tenantID, err := tenantParam(c)
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	var req dto.RotateKeyRequest
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

	newKey, err := h.rotationUseCase.RotateKey(c.Request.Context(), tenantID, purpose, req.Reason)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapRotateKeyToResponse(newKey))
}

// RotateMasterKeyHandler rotates the tenant master key and rewraps the
// tenant's non-archived data keys.
// POST /v1/tenants/:tenant_id/keys/rotate-master
func (h *KeyHandler) RotateMasterKeyHandler(c *gin.Context) {
	tenantID, err := tenantParam(c)
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	var req dto.RotateMasterKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	newKey, err := h.rotationUseCase.RotateMasterKey(c.Request.Context(), tenantID, req.Reason)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapRotateKeyToResponse(newKey))
}
