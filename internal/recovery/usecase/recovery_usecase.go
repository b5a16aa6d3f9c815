// Package usecase implements recovery bundle generation for operator-driven
// disaster recovery. A bundle carries a high-entropy secret escrowed under the
// operator-scope KMS keeper, outside any tenant's key hierarchy, so a tenant
// whose keys are lost can still be re-attached to its escrow material.
package usecase

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	cryptoDomain "github.com/allisson/tenantcrypto/internal/crypto/domain"
	cryptoService "github.com/allisson/tenantcrypto/internal/crypto/service"
	cryptoUsecase "github.com/allisson/tenantcrypto/internal/crypto/usecase"
)

// recoverySecretSize is the escrow secret length in bytes. 256 bits clears the
// 192-bit floor for recovery material with margin.
const recoverySecretSize = 32

// RecoveryBundle is the one-time result of recovery generation. The plaintext
// Secret is handed out exactly once and never persisted; only its KMS-wrapped
// form is stored.
type RecoveryBundle struct {
	Label       string
	TenantID    string
	Secret      []byte
	Fingerprint string
	IssuedAt    time.Time
}

// RecoveryUseCase defines recovery export operations.
type RecoveryUseCase interface {
	// GenerateRecoveryBundle creates and escrows a recovery secret for the tenant.
	GenerateRecoveryBundle(ctx context.Context, tenantID string) (*RecoveryBundle, error)
}

// recoveryUseCase implements RecoveryUseCase backed by the KMS keeper and the
// tenant key store.
type recoveryUseCase struct {
	tenantKeyRepo cryptoUsecase.TenantKeyRepository
	keeper        cryptoService.KMSKeeper
	logger        *slog.Logger
	kmsKeyURI     string
	algorithm     cryptoDomain.Algorithm
}

// GenerateRecoveryBundle creates a fresh 32-byte recovery secret, wraps it with
// the operator-scope KMS keeper and persists the escrow as a backup key row.
// The plaintext secret is returned exactly once; the caller owns zeroing it
// after delivery. Any failure surfaces as ErrRecoveryGenerationFailed with the
// cause logged, never returned, so escrow internals stay undisclosed.
func (r *recoveryUseCase) GenerateRecoveryBundle(
	ctx context.Context, tenantID string,
) (*RecoveryBundle, error) {
	if tenantID == "" {
		return nil, cryptoDomain.ErrTenantInvalid
	}

	secret := make([]byte, recoverySecretSize)
	if _, err := rand.Read(secret); err != nil {
		return nil, r.generationError(ctx, tenantID, err)
	}

	wrapped, err := r.keeper.Encrypt(ctx, secret)
	if err != nil {
		cryptoDomain.Zero(secret)
		return nil, r.generationError(ctx, tenantID, err)
	}

	now := time.Now().UTC()
	label := fmt.Sprintf("recovery-%s-%s", tenantID, now.Format("2006-01-02"))
	id := uuid.Must(uuid.NewV7())

	// Escrow rows are stored archived: they never participate in active-key
	// lookups, so bundles cannot satisfy the bootstrap check or collide with
	// the single-active constraint when a tenant holds several bundles.
	escrow := &cryptoDomain.TenantKey{
		ID:             id,
		TenantID:       tenantID,
		Purpose:        cryptoDomain.PurposeGeneral,
		KeyType:        cryptoDomain.KeyTypeBackup,
		Algorithm:      r.algorithm,
		MasterKeyID:    r.kmsKeyURI,
		WrappedKey:     wrapped,
		Fingerprint:    cryptoService.Fingerprint(tenantID, cryptoDomain.PurposeGeneral, cryptoDomain.KeyTypeBackup, id),
		Version:        1,
		Status:         cryptoDomain.KeyStatusArchived,
		RotationReason: label,
		CreatedAt:      now,
		NextRotation:   now,
	}

	if err := r.tenantKeyRepo.Create(ctx, escrow); err != nil {
		cryptoDomain.Zero(secret)
		return nil, r.generationError(ctx, tenantID, err)
	}

	return &RecoveryBundle{
		Label:       label,
		TenantID:    tenantID,
		Secret:      secret,
		Fingerprint: escrow.Fingerprint,
		IssuedAt:    now,
	}, nil
}

func (r *recoveryUseCase) generationError(ctx context.Context, tenantID string, err error) error {
	r.logger.ErrorContext(ctx, "recovery bundle generation failed",
		"tenant_id", tenantID,
		"error", err,
	)
	return cryptoDomain.ErrRecoveryGenerationFailed
}

// NewRecoveryUseCase creates a new RecoveryUseCase with the provided dependencies.
func NewRecoveryUseCase(
	tenantKeyRepo cryptoUsecase.TenantKeyRepository,
	keeper cryptoService.KMSKeeper,
	logger *slog.Logger,
	kmsKeyURI string,
	algorithm cryptoDomain.Algorithm,
) RecoveryUseCase {
	return &recoveryUseCase{
		tenantKeyRepo: tenantKeyRepo,
		keeper:        keeper,
		logger:        logger,
		kmsKeyURI:     kmsKeyURI,
		algorithm:     algorithm,
	}
}
