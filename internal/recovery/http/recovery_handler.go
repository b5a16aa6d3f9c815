// Package http provides HTTP handlers for recovery escrow operations.
package http

import (
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	validation "github.com/jellydator/validation"

	cryptoDomain "github.com/allisson/tenantcrypto/internal/crypto/domain"
	"github.com/allisson/tenantcrypto/internal/httputil"
	recoveryUsecase "github.com/allisson/tenantcrypto/internal/recovery/usecase"
	customValidation "github.com/allisson/tenantcrypto/internal/validation"
)

// RecoveryBundleResponse carries a freshly generated recovery bundle.
// SECURITY: the secret appears exactly once, in this response; only the
// escrowed wrapped form is persisted.
type RecoveryBundleResponse struct {
	Label       string    `json:"label"`
	TenantID    string    `json:"tenant_id"`
	Secret      string    `json:"secret"` // Base64-encoded
	Fingerprint string    `json:"fingerprint"`
	IssuedAt    time.Time `json:"issued_at"`
}

// RecoveryHandler handles HTTP requests for recovery bundle generation.
type RecoveryHandler struct {
	recoveryUseCase recoveryUsecase.RecoveryUseCase
	logger          *slog.Logger
}

// NewRecoveryHandler creates a new recovery handler with required dependencies.
func NewRecoveryHandler(
	recoveryUseCase recoveryUsecase.RecoveryUseCase,
	logger *slog.Logger,
) *RecoveryHandler {
	return &RecoveryHandler{
		recoveryUseCase: recoveryUseCase,
		logger:          logger,
	}
}

// GenerateRecoveryBundleHandler creates and escrows a recovery secret for the tenant.
// POST /v1/tenants/:tenant_id/recovery-bundle
// Returns 201 Created with the one-time plaintext secret.
func (h *RecoveryHandler) GenerateRecoveryBundleHandler(c *gin.Context) {
	tenantID := c.Param("tenant_id")
	if err := validation.Validate(tenantID, validation.Required, customValidation.TenantID); err != nil {
		httputil.HandleBadRequestGin(c, fmt.Errorf("invalid tenant_id parameter: %w", err), h.logger)
		return
	}

	bundle, err := h.recoveryUseCase.GenerateRecoveryBundle(c.Request.Context(), tenantID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}
	defer cryptoDomain.Zero(bundle.Secret)

	c.JSON(http.StatusCreated, RecoveryBundleResponse{
		Label:       bundle.Label,
		TenantID:    bundle.TenantID,
		Secret:      base64.StdEncoding.EncodeToString(bundle.Secret),
		Fingerprint: bundle.Fingerprint,
		IssuedAt:    bundle.IssuedAt,
	})
}
