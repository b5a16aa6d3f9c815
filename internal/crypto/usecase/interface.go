// Package usecase implements business logic orchestration for tenant key
// management and envelope encryption. It coordinates cryptographic services,
// repositories, the key cache and usage telemetry.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	cryptoDomain "github.com/allisson/tenantcrypto/internal/crypto/domain"
	telemetryDomain "github.com/allisson/tenantcrypto/internal/telemetry/domain"
)

// TenantKeyRepository defines persistence operations for tenant key versions.
// Implementations must support transaction-aware operations via context propagation.
type TenantKeyRepository interface {
	// Create stores a new tenant key version.
	Create(ctx context.Context, key *cryptoDomain.TenantKey) error

	// ListByTenant returns every key version for a tenant, newest first.
	ListByTenant(ctx context.Context, tenantID string) ([]*cryptoDomain.TenantKey, error)

	// GetActive returns the single active version for (tenant, purpose, key type).
	// Returns ErrNoActiveKey if none exists.
	GetActive(
		ctx context.Context,
		tenantID string,
		purpose cryptoDomain.Purpose,
		keyType cryptoDomain.KeyType,
	) (*cryptoDomain.TenantKey, error)

	// GetByFingerprint returns the key version an envelope references, any status.
	// Returns ErrKeyNotFound if not found.
	GetByFingerprint(ctx context.Context, tenantID, fingerprint string) (*cryptoDomain.TenantKey, error)

	// GetByID returns one key version. Returns ErrKeyNotFound if not found.
	GetByID(ctx context.Context, id uuid.UUID) (*cryptoDomain.TenantKey, error)

	// HasActiveKeys reports whether the tenant has any active key version.
	HasActiveKeys(ctx context.Context, tenantID string) (bool, error)

	// UpdateStatus sets the status of one key version, stamping rotated_at when provided.
	UpdateStatus(ctx context.Context, id uuid.UUID, status cryptoDomain.KeyStatus, rotatedAt *time.Time) error

	// UpdateWrapping rewrites wrapped_key, nonce and wrapped_by after a rewrap.
	UpdateWrapping(ctx context.Context, key *cryptoDomain.TenantKey) error
}

// UsageRecorder records one cryptographic operation attempt. Satisfied by the
// telemetry use case; recording failures must never fail the operation itself.
type UsageRecorder interface {
	Record(
		ctx context.Context,
		tenantID string,
		operation telemetryDomain.Operation,
		purpose cryptoDomain.Purpose,
		success bool,
		latency time.Duration,
	) error
}

// TenantKeyUseCase defines business logic operations for the tenant key lifecycle.
type TenantKeyUseCase interface {
	// CreateTenantKeys bootstraps a tenant: one master key plus one data key per
	// purpose, created atomically. Idempotent: a tenant with active keys is left
	// untouched. Returns ErrTenantInvalid for an empty tenant identifier.
	CreateTenantKeys(ctx context.Context, tenantID string) error

	// GetKeyInfo returns every key version for the tenant, newest first,
	// with key material stripped.
	GetKeyInfo(ctx context.Context, tenantID string) ([]cryptoDomain.Info, error)

	// UpdateStatus moves one key version through the lifecycle. Only
	// active → rotating → archived transitions are legal; anything else
	// returns ErrIllegalTransition.
	UpdateStatus(ctx context.Context, keyID uuid.UUID, status cryptoDomain.KeyStatus) error
}

// EnvelopeUseCase defines the envelope encryption engine operations.
type EnvelopeUseCase interface {
	// Encrypt protects plaintext under the tenant's active data key for the
	// purpose and returns the serialized envelope. The optional encryption
	// context binds the ciphertext to a storage location.
	Encrypt(
		ctx context.Context,
		tenantID string,
		plaintext []byte,
		purpose cryptoDomain.Purpose,
		encCtx *cryptoDomain.EncryptionContext,
	) (string, error)

	// Decrypt recovers plaintext from a serialized envelope. The same purpose
	// and encryption context used at encrypt time are required; any mismatch
	// fails closed with ErrDecryptionFailed.
	Decrypt(
		ctx context.Context,
		tenantID string,
		envelope string,
		purpose cryptoDomain.Purpose,
		encCtx *cryptoDomain.EncryptionContext,
	) ([]byte, error)
}

// RotationUseCase defines key rotation operations.
type RotationUseCase interface {
	// RotateKey replaces the active data key for (tenant, purpose) with a new
	// version. At most one rotation per (tenant, purpose) runs at a time;
	// contention returns ErrRotationInProgress. The old version stays usable
	// for decryption as an archived key.
	RotateKey(
		ctx context.Context,
		tenantID string,
		purpose cryptoDomain.Purpose,
		reason string,
	) (*cryptoDomain.TenantKey, error)

	// RotateMasterKey replaces the tenant master key and rewraps every
	// non-archived data key under the new version in the same transaction.
	RotateMasterKey(ctx context.Context, tenantID, reason string) (*cryptoDomain.TenantKey, error)
}
